package capture

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/mangrove-labs/sortd/internal/classify"
	"github.com/mangrove-labs/sortd/internal/ledger"
)

// HandleCorrection runs one correction transaction for a threaded fix
// command: validate the category, recover the thread's original capture,
// reclassify under the forced category, file a new record, amend the
// ledger entry, and confirm. Errors after validation post an error reply
// and stop; the transaction is never retried automatically.
func (p *Processor) HandleCorrection(ctx context.Context, msg *MessageEvent) error {
	word, ok := ParseFixCommand(msg.Text)
	if !ok {
		// Threaded chatter that isn't a fix command is not our business.
		return nil
	}

	category, ok := classify.ParseCategory(word)
	if !ok {
		reply := fmt.Sprintf("Unknown category: %s. Use: people, projects, ideas, or admin.", word)
		if err := p.notifier.PostMessage(ctx, msg.Channel, msg.ThreadTS, reply); err != nil {
			return fmt.Errorf("capture: post unknown-category reply: %w", err)
		}
		return nil
	}

	originalText, err := p.recoverOriginal(ctx, msg.Channel, msg.ThreadTS)
	if err != nil {
		p.postCorrectionFailure(ctx, msg, err)
		return fmt.Errorf("capture: recover original: %w", err)
	}
	if originalText == "" {
		reply := "Couldn't find the original capture in this thread."
		if err := p.notifier.PostMessage(ctx, msg.Channel, msg.ThreadTS, reply); err != nil {
			return fmt.Errorf("capture: post not-found reply: %w", err)
		}
		return nil
	}

	classification, err := p.classifier.ClassifyForced(ctx, originalText, category)
	if err != nil {
		p.postCorrectionFailure(ctx, msg, err)
		return fmt.Errorf("capture: forced classify: %w", err)
	}

	record, err := p.filer.File(ctx, classification)
	if err != nil {
		p.postCorrectionFailure(ctx, msg, err)
		return fmt.Errorf("capture: file corrected record: %w", err)
	}

	amended, err := p.ledger.Amend(ctx, msg.ThreadTS, ledger.Amendment{
		FiledTo:         string(category),
		DestinationName: record.Name,
		DestinationURL:  record.URL,
		Status:          ledger.StatusFixed,
	})
	if err != nil {
		p.postCorrectionFailure(ctx, msg, err)
		return fmt.Errorf("capture: amend ledger: %w", err)
	}
	if !amended {
		// No ledger row for this thread; the user still gets confirmation.
		log.Printf("capture: no ledger entry found for thread %s, correction proceeds", msg.ThreadTS)
	}

	reply := fmt.Sprintf("✅ Refiled as *%s*: <%s|%s>", category, record.URL, record.Name)
	if err := p.notifier.PostMessage(ctx, msg.Channel, msg.ThreadTS, reply); err != nil {
		return fmt.Errorf("capture: post correction confirmation: %w", err)
	}
	return nil
}

// recoverOriginal fetches the thread and returns the text of its first
// message, the original capture. Empty text with nil error means the
// thread exists but carries no usable capture.
func (p *Processor) recoverOriginal(ctx context.Context, channel, threadTS string) (string, error) {
	replies, err := p.notifier.ThreadReplies(ctx, channel, threadTS)
	if err != nil {
		return "", err
	}
	if len(replies) == 0 {
		return "", nil
	}
	return strings.TrimSpace(replies[0].Text), nil
}

// postCorrectionFailure posts the terminal error reply for a failed
// correction. Best effort: a posting failure is logged and swallowed.
func (p *Processor) postCorrectionFailure(ctx context.Context, msg *MessageEvent, cause error) {
	text := fmt.Sprintf("⚠️ Correction failed: %v\n\nResend the fix command to retry.", cause)
	if err := p.notifier.PostMessage(ctx, msg.Channel, msg.ThreadTS, text); err != nil {
		log.Printf("capture: failed to post correction failure to %s: %v", msg.ThreadTS, err)
	}
}
