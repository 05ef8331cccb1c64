package extract

import (
	"context"
	"testing"
	"time"

	"github.com/soundprediction/metalink/pkg/portal"
	"github.com/soundprediction/metalink/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.BackoffBase = time.Millisecond
	return cfg
}

func TestExtractNormalizesRecords(t *testing.T) {
	t.Parallel()

	p := portal.NewMemoryPortal(map[string][]portal.Item{
		"nf": {
			{
				ID:   "syn100",
				Type: "project",
				Fields: map[string]any{
					"name":         "NF1 Synodos",
					"diseaseFocus": []any{"Neurofibromatosis 1", "Neurofibromatosis 2"},
					"studyStatus":  "Active",
					"fileCount":    float64(42),
				},
			},
		},
	})

	e := New(p, testConfig(), nil)
	cursor, err := e.Extract(context.Background(), "nf")
	require.NoError(t, err)
	require.Equal(t, 1, cursor.Len())

	record, ok := cursor.Next()
	require.True(t, ok)
	assert.Equal(t, "syn100", record.ID)
	assert.Equal(t, types.ProjectRecord, record.Type)
	assert.Equal(t, types.RecordComplete, record.Status)
	assert.Equal(t, []string{"Neurofibromatosis 1", "Neurofibromatosis 2"}, record.Field("diseaseFocus").Values)
	assert.Equal(t, "42", record.Field("fileCount").Raw)
	assert.Equal(t, "nf", record.Scope)
}

func TestExtractIncompleteRecordPassesThrough(t *testing.T) {
	t.Parallel()

	p := portal.NewMemoryPortal(map[string][]portal.Item{
		"nf": {
			{ID: "syn1", Type: "dataset", Fields: map[string]any{"name": "d1"}},
			{ID: "syn2", Type: "dataset", Fields: map[string]any{"dataType": "", "name": nil}},
		},
	})

	e := New(p, testConfig(), nil)
	cursor, err := e.Extract(context.Background(), "nf")
	require.NoError(t, err)
	require.Equal(t, 2, cursor.Len())

	first, _ := cursor.Next()
	assert.Equal(t, types.RecordIncomplete, first.Status, "missing dataType must tag incomplete")

	second, _ := cursor.Next()
	assert.Equal(t, types.RecordIncomplete, second.Status)
	assert.False(t, second.Field("name").Present, "empty values must stay absent")
}

func TestExtractEmitsWikiRecord(t *testing.T) {
	t.Parallel()

	p := portal.NewMemoryPortal(map[string][]portal.Item{
		"nf": {
			{
				ID:     "syn100",
				Type:   "project",
				Fields: map[string]any{"name": "study", "diseaseFocus": "NF1"},
				Wiki:   &portal.Wiki{Title: "Overview", Markdown: "This study covers schwannoma biology."},
			},
		},
	})

	e := New(p, testConfig(), nil)
	cursor, err := e.Extract(context.Background(), "nf")
	require.NoError(t, err)
	require.Equal(t, 2, cursor.Len())

	_, _ = cursor.Next()
	wiki, ok := cursor.Next()
	require.True(t, ok)
	assert.Equal(t, "syn100:Wiki", wiki.ID)
	assert.Equal(t, types.WikiRecord, wiki.Type)
	assert.Equal(t, "syn100", wiki.ParentID)
	assert.Equal(t, types.RecordComplete, wiki.Status)
}

func TestExtractRetriesThenSucceeds(t *testing.T) {
	t.Parallel()

	p := portal.NewMemoryPortal(map[string][]portal.Item{
		"nf": {{ID: "syn1", Type: "file", Fields: map[string]any{"name": "f1"}}},
	})
	p.FailuresBeforeSuccess = 2

	e := New(p, testConfig(), nil)
	cursor, err := e.Extract(context.Background(), "nf")
	require.NoError(t, err)
	assert.Equal(t, 1, cursor.Len())
	assert.Equal(t, 3, p.Calls())
}

func TestExtractRetriesExhausted(t *testing.T) {
	t.Parallel()

	p := portal.NewMemoryPortal(nil)
	p.FailuresBeforeSuccess = 100

	e := New(p, testConfig(), nil)
	_, err := e.Extract(context.Background(), "nf")
	assert.ErrorIs(t, err, portal.ErrSourceUnavailable)
	assert.Equal(t, 3, p.Calls(), "retry attempts must be bounded")
}

func TestCursorRestart(t *testing.T) {
	t.Parallel()

	p := portal.NewMemoryPortal(map[string][]portal.Item{
		"nf": {
			{ID: "syn1", Type: "file", Fields: map[string]any{"name": "f1"}},
			{ID: "syn2", Type: "file", Fields: map[string]any{"name": "f2"}},
		},
	})

	e := New(p, testConfig(), nil)
	cursor, err := e.Extract(context.Background(), "nf")
	require.NoError(t, err)

	var firstPass []string
	for record, ok := cursor.Next(); ok; record, ok = cursor.Next() {
		firstPass = append(firstPass, record.ID)
	}
	cursor.Restart()
	var secondPass []string
	for record, ok := cursor.Next(); ok; record, ok = cursor.Next() {
		secondPass = append(secondPass, record.ID)
	}
	assert.Equal(t, firstPass, secondPass)
	assert.Len(t, firstPass, 2)
}
