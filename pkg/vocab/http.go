package vocab

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/soundprediction/metalink/pkg/types"
)

// HTTPVocabulary queries a remote vocabulary service (an OLS-style
// term lookup API).
type HTTPVocabulary struct {
	baseURL string
	client  *http.Client
}

// NewHTTPVocabulary creates a vocabulary client for the given base URL.
func NewHTTPVocabulary(baseURL string, client *http.Client) *HTTPVocabulary {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &HTTPVocabulary{baseURL: baseURL, client: client}
}

type conceptsPayload struct {
	Concepts []types.Concept `json:"concepts"`
}

// Lookup returns candidate concepts for a label.
func (v *HTTPVocabulary) Lookup(ctx context.Context, label string) ([]types.Concept, error) {
	endpoint := fmt.Sprintf("%s/lookup?label=%s", v.baseURL, url.QueryEscape(label))
	return v.get(ctx, endpoint)
}

// Concepts returns the full concept listing.
func (v *HTTPVocabulary) Concepts(ctx context.Context) ([]types.Concept, error) {
	return v.get(ctx, v.baseURL+"/concepts")
}

func (v *HTTPVocabulary) get(ctx context.Context, endpoint string) ([]types.Concept, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build vocabulary request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vocabulary lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("vocabulary returned status %d", resp.StatusCode)
	}

	var payload conceptsPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode vocabulary response: %w", err)
	}
	return payload.Concepts, nil
}
