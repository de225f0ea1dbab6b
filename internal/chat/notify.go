package chat

import (
	"context"
	"fmt"
)

// ConfirmationData describes a filed record for the confirmation reply.
type ConfirmationData struct {
	Category   string
	Name       string
	URL        string
	Confidence float64

	// Subtask annotation, set when the record was filed under a parent
	// project rather than at the collection root.
	IsSubtask  bool
	ParentName string
}

// PostConfirmation posts a threaded confirmation whose leading glyph
// encodes the confidence tier. Low-confidence captures are intercepted by
// the review gate before reaching this path, but the low tier is still
// rendered for forced refilings that report their original confidence.
func (c *Client) PostConfirmation(ctx context.Context, channel, threadTS string, data ConfirmationData) error {
	glyph := "⚠️"
	switch {
	case data.Confidence >= 0.8:
		glyph = "✅"
	case data.Confidence >= 0.6:
		glyph = "🟡"
	}

	filedAs := fmt.Sprintf("*%s*", data.Category)
	if data.IsSubtask && data.ParentName != "" {
		filedAs = fmt.Sprintf("*%s* (subtask of _%s_)", data.Category, data.ParentName)
	}

	message := fmt.Sprintf("%s Filed as %s: <%s|%s>\nConfidence: %.0f%%\n\n_Reply `fix: [category]` if I got it wrong._",
		glyph, filedAs, data.URL, data.Name, data.Confidence*100)

	return c.PostMessage(ctx, channel, threadTS, message)
}

// PostNeedsReview posts a threaded reply quoting the original text and
// inviting a fix command.
func (c *Client) PostNeedsReview(ctx context.Context, channel, threadTS, originalText string) error {
	message := fmt.Sprintf("⚠️ I'm not confident about how to classify this:\n\n> %s\n\nReply with a hint like `fix: people` or `fix: projects` to help me learn.",
		originalText)
	return c.PostMessage(ctx, channel, threadTS, message)
}

// SendDM opens (or reuses) a direct conversation with the user and posts
// the text. A failure to open the conversation is surfaced: this is the
// terminal delivery point for scheduled summaries, with no fallback.
func (c *Client) SendDM(ctx context.Context, userID, text string) error {
	channelID, err := c.OpenDirectConversation(ctx, userID)
	if err != nil {
		return err
	}
	return c.PostMessage(ctx, channelID, "", text)
}
