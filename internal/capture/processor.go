package capture

import (
	"context"
	"fmt"
	"log"

	"github.com/mangrove-labs/sortd/internal/chat"
	"github.com/mangrove-labs/sortd/internal/classify"
	"github.com/mangrove-labs/sortd/internal/dedup"
	"github.com/mangrove-labs/sortd/internal/filer"
	"github.com/mangrove-labs/sortd/internal/ledger"
)

// ConfidenceThreshold is the gate below which automatic filing is
// suppressed in favor of human review.
const ConfidenceThreshold = 0.6

// Classifier is the classification surface the processor needs.
type Classifier interface {
	Classify(ctx context.Context, text string) (classify.Classification, error)
	ClassifyForced(ctx context.Context, text string, category classify.Category) (classify.Classification, error)
}

// Filer files classifications as records.
type Filer interface {
	File(ctx context.Context, c classify.Classification) (*filer.Record, error)
}

// Ledger is the audit trail surface the processor needs.
type Ledger interface {
	Append(ctx context.Context, e ledger.Entry) error
	Amend(ctx context.Context, correlationID string, a ledger.Amendment) (bool, error)
}

// Notifier posts replies and fetches threads on the chat transport.
type Notifier interface {
	PostConfirmation(ctx context.Context, channel, threadTS string, data chat.ConfirmationData) error
	PostNeedsReview(ctx context.Context, channel, threadTS, originalText string) error
	PostMessage(ctx context.Context, channel, threadTS, text string) error
	ThreadReplies(ctx context.Context, channel, threadTS string) ([]chat.Message, error)
}

// Processor runs the capture and correction workflows. Each invocation is
// stateless apart from the shared dedup window.
type Processor struct {
	classifier Classifier
	filer      Filer
	ledger     Ledger
	notifier   Notifier
	window     *dedup.Window
}

// NewProcessor wires a Processor from its collaborators. The dedup window
// is injected so tests can control its size and clock.
func NewProcessor(classifier Classifier, f Filer, l Ledger, notifier Notifier, window *dedup.Window) *Processor {
	return &Processor{
		classifier: classifier,
		filer:      f,
		ledger:     l,
		notifier:   notifier,
		window:     window,
	}
}

// AlreadySeen consults the dedup window, recording the correlation id.
func (p *Processor) AlreadySeen(correlationID string) bool {
	return p.window.Seen(correlationID)
}

// ProcessMessage handles one new capture: classify, then either hold for
// review (low confidence) or file, append the ledger entry, and confirm.
// Upstream failures propagate after a best-effort error reply into the
// originating thread.
func (p *Processor) ProcessMessage(ctx context.Context, msg *MessageEvent) error {
	classification, err := p.classifier.Classify(ctx, msg.Text)
	if err != nil {
		p.postErrorReply(ctx, msg, err)
		return fmt.Errorf("capture: classify: %w", err)
	}
	if classification.Degraded {
		log.Printf("capture: degraded classification for %s, filing as low-confidence idea", msg.TS)
	}

	if classification.Confidence < ConfidenceThreshold {
		if err := p.notifier.PostNeedsReview(ctx, msg.Channel, msg.TS, msg.Text); err != nil {
			return fmt.Errorf("capture: post needs-review: %w", err)
		}
		err := p.ledger.Append(ctx, ledger.Entry{
			OriginalText:    msg.Text,
			FiledTo:         ledger.FiledNeedsReview,
			DestinationName: "Pending",
			DestinationURL:  "",
			Confidence:      classification.Confidence,
			CorrelationID:   msg.TS,
			RecordID:        "",
			Status:          ledger.StatusPending,
		})
		if err != nil {
			return fmt.Errorf("capture: ledger append: %w", err)
		}
		return nil
	}

	record, err := p.filer.File(ctx, classification)
	if err != nil {
		p.postErrorReply(ctx, msg, err)
		return fmt.Errorf("capture: file record: %w", err)
	}

	err = p.ledger.Append(ctx, ledger.Entry{
		OriginalText:    msg.Text,
		FiledTo:         string(classification.Category),
		DestinationName: record.Name,
		DestinationURL:  record.URL,
		Confidence:      classification.Confidence,
		CorrelationID:   msg.TS,
		RecordID:        record.ID,
		Status:          ledger.StatusPending,
	})
	if err != nil {
		p.postErrorReply(ctx, msg, err)
		return fmt.Errorf("capture: ledger append: %w", err)
	}

	err = p.notifier.PostConfirmation(ctx, msg.Channel, msg.TS, chat.ConfirmationData{
		Category:   string(classification.Category),
		Name:       record.Name,
		URL:        record.URL,
		Confidence: classification.Confidence,
	})
	if err != nil {
		return fmt.Errorf("capture: post confirmation: %w", err)
	}
	return nil
}

// postErrorReply makes a best-effort attempt to tell the user the capture
// failed. A failure to post is logged and swallowed so it never compounds
// into a second failure.
func (p *Processor) postErrorReply(ctx context.Context, msg *MessageEvent, cause error) {
	text := fmt.Sprintf("⚠️ Something went wrong filing this capture: %v\n\nIt was not filed. Try posting it again.", cause)
	if err := p.notifier.PostMessage(ctx, msg.Channel, msg.TS, text); err != nil {
		log.Printf("capture: failed to post error reply to %s: %v", msg.TS, err)
	}
}
