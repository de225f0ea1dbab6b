// Package capture implements the classification-and-correction workflow:
// inbound message events become typed records in the task store, with an
// audit ledger entry and a threaded confirmation; threaded fix commands
// re-file a capture under a human-chosen category.
package capture

import (
	"regexp"
	"strings"
)

// Envelope is the inbound event envelope from the chat transport.
type Envelope struct {
	Type      string        `json:"type"`
	Challenge string        `json:"challenge,omitempty"`
	Event     *MessageEvent `json:"event,omitempty"`
}

// MessageEvent is the inner message event.
type MessageEvent struct {
	Type     string `json:"type"`
	Channel  string `json:"channel"`
	Text     string `json:"text"`
	TS       string `json:"ts"`
	ThreadTS string `json:"thread_ts,omitempty"`
	User     string `json:"user"`
	BotID    string `json:"bot_id,omitempty"`
	Subtype  string `json:"subtype,omitempty"`
}

// IsThreadedReply reports whether the message is a reply inside an
// existing thread rather than a thread root.
func (m *MessageEvent) IsThreadedReply() bool {
	return m.ThreadTS != "" && m.ThreadTS != m.TS
}

// fixCommand is the fix-command grammar: "fix:" at the start of the reply,
// any case, optional whitespace, then the category word.
var fixCommand = regexp.MustCompile(`(?i)^fix:\s*(\w+)`)

// ParseFixCommand extracts the category word from a fix command. Returns
// false for text that is not a fix command.
func ParseFixCommand(text string) (string, bool) {
	m := fixCommand.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return strings.ToLower(m[1]), true
}
