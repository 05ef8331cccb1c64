package portal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	jsonrepair "github.com/kaptinlin/jsonrepair"
	"github.com/sony/gobreaker"
)

// HTTPPortal queries a data portal over its REST API. Responses that
// fail to decode are run through JSON repair once before giving up;
// portals are known to emit sloppy payloads for legacy items.
type HTTPPortal struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

// HTTPPortalOption configures an HTTPPortal.
type HTTPPortalOption func(*HTTPPortal)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(client *http.Client) HTTPPortalOption {
	return func(p *HTTPPortal) { p.client = client }
}

// NewHTTPPortal creates a portal client for the given base URL.
func NewHTTPPortal(baseURL string, opts ...HTTPPortalOption) *HTTPPortal {
	p := &HTTPPortal{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
	p.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "portal",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
	})
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Items fetches the raw items for one scope. Unreachable portal
// conditions (network failure, 5xx, open breaker) surface as
// ErrSourceUnavailable so the caller can retry with backoff.
func (p *HTTPPortal) Items(ctx context.Context, scope string) ([]Item, error) {
	result, err := p.breaker.Execute(func() (any, error) {
		return p.fetch(ctx, scope)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, fmt.Errorf("%w: circuit open", ErrSourceUnavailable)
		}
		return nil, err
	}
	return result.([]Item), nil
}

func (p *HTTPPortal) fetch(ctx context.Context, scope string) ([]Item, error) {
	endpoint := fmt.Sprintf("%s/api/v1/scopes/%s/items", p.baseURL, url.PathEscape(scope))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build portal request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%w: portal returned %d", ErrSourceUnavailable, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("portal returned unexpected status %d for scope %s", resp.StatusCode, scope)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read portal response: %v", ErrSourceUnavailable, err)
	}

	var payload struct {
		Items []Item `json:"items"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(string(body))
		if repairErr != nil {
			return nil, fmt.Errorf("decode portal response: %w", err)
		}
		if err := json.Unmarshal([]byte(repaired), &payload); err != nil {
			return nil, fmt.Errorf("decode repaired portal response: %w", err)
		}
	}
	return payload.Items, nil
}
