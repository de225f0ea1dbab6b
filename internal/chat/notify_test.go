package chat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostConfirmation_GlyphTiers(t *testing.T) {
	tests := []struct {
		name       string
		confidence float64
		glyph      string
	}{
		{"high", 0.95, "✅"},
		{"high boundary", 0.8, "✅"},
		{"medium", 0.7, "🟡"},
		{"medium boundary", 0.6, "🟡"},
		{"low", 0.4, "⚠️"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeAPI(t)
			err := api.client().PostConfirmation(context.Background(), "C123", "1.1", ConfirmationData{
				Category:   "IDEAS",
				Name:       "A thing",
				URL:        "https://store.example/t/t1",
				Confidence: tt.confidence,
			})
			require.NoError(t, err)

			text, _ := api.lastCall().body["text"].(string)
			assert.Contains(t, text, tt.glyph+" Filed as *IDEAS*")
			assert.Contains(t, text, "<https://store.example/t/t1|A thing>")
			assert.Contains(t, text, "_Reply `fix: [category]` if I got it wrong._")
		})
	}
}

func TestPostConfirmation_SubtaskAnnotation(t *testing.T) {
	api := newFakeAPI(t)
	err := api.client().PostConfirmation(context.Background(), "C123", "1.1", ConfirmationData{
		Category:   "PROJECTS",
		Name:       "Write draft",
		URL:        "https://store.example/t/t2",
		Confidence: 0.9,
		IsSubtask:  true,
		ParentName: "Launch site",
	})
	require.NoError(t, err)

	text, _ := api.lastCall().body["text"].(string)
	assert.Contains(t, text, "Filed as *PROJECTS* (subtask of _Launch site_)")
}

func TestPostNeedsReview_QuotesOriginal(t *testing.T) {
	api := newFakeAPI(t)
	err := api.client().PostNeedsReview(context.Background(), "C123", "1.1", "mumble mumble")
	require.NoError(t, err)

	call := api.lastCall()
	assert.Equal(t, "1.1", call.body["thread_ts"])
	text, _ := call.body["text"].(string)
	assert.Contains(t, text, "> mumble mumble")
	assert.Contains(t, text, "`fix: people`")
}
