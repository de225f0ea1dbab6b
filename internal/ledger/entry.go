// Package ledger maintains the inbox audit trail: one entry per capture,
// stored as a task in a dedicated log collection and correlated to its
// originating thread by an embedded marker line. A local sqlite index
// caches correlation-id lookups; the full-collection scan remains the
// fallback and the store stays the source of truth.
package ledger

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// StatusPending and StatusFixed are the two values the status line takes.
const (
	StatusPending = "Pending"
	StatusFixed   = "Fixed"
)

// FiledNeedsReview is the sentinel filed-to value for captures held back
// by the confidence gate.
const FiledNeedsReview = "needs_review"

// Entry is one ledger row.
type Entry struct {
	OriginalText    string
	FiledTo         string // category name or FiledNeedsReview
	DestinationName string
	DestinationURL  string
	Confidence      float64
	CorrelationID   string // originating thread timestamp
	RecordID        string // external record id, empty for needs_review
	Status          string // StatusPending unless corrected
}

// correlationMarker renders the lookup marker embedded in every entry.
func correlationMarker(correlationID string) string {
	return "**Correlation:** " + correlationID
}

// EntryName builds the ledger task name from the original text.
func EntryName(originalText string) string {
	title := originalText
	if len(title) > 50 {
		title = title[:50]
	}
	return "Log: " + title + "..."
}

// RenderDescription builds the labeled-line description for an entry.
// Every field appears as its own labeled line; the correlation marker is
// what FindByCorrelationID scans for.
func RenderDescription(e Entry) string {
	status := e.Status
	if status == "" {
		status = StatusPending
	}
	return fmt.Sprintf(`**Original:** %s

**Filed to:** %s
**Destination:** [%s](%s)
**Confidence:** %.0f%%
%s
**Record ID:** %s
**Status:** %s`,
		e.OriginalText,
		e.FiledTo,
		e.DestinationName, e.DestinationURL,
		e.Confidence*100,
		correlationMarker(e.CorrelationID),
		e.RecordID,
		status)
}

var (
	originalLine    = regexp.MustCompile(`\*\*Original:\*\*\s*(.*)`)
	filedToLine     = regexp.MustCompile(`\*\*Filed to:\*\*\s*(\S+)`)
	destinationLine = regexp.MustCompile(`\*\*Destination:\*\*\s*\[([^\]]*)\]\(([^)]*)\)`)
	confidenceLine  = regexp.MustCompile(`\*\*Confidence:\*\*\s*(\d+)%`)
	correlationLine = regexp.MustCompile(`\*\*Correlation:\*\*\s*(\S+)`)
	recordIDLine    = regexp.MustCompile(`\*\*Record ID:\*\*\s*(\S+)`)
	statusLine      = regexp.MustCompile(`\*\*Status:\*\*\s*(\S+)`)
)

// ParseDescription recovers an Entry from a stored description. Lines
// written by older iterations may be missing; absent fields stay zero.
func ParseDescription(description string) Entry {
	var e Entry
	if m := originalLine.FindStringSubmatch(description); m != nil {
		e.OriginalText = strings.TrimSpace(m[1])
	}
	if m := filedToLine.FindStringSubmatch(description); m != nil {
		e.FiledTo = m[1]
	}
	if m := destinationLine.FindStringSubmatch(description); m != nil {
		e.DestinationName = m[1]
		e.DestinationURL = m[2]
	}
	if m := confidenceLine.FindStringSubmatch(description); m != nil {
		if pct, err := strconv.Atoi(m[1]); err == nil {
			e.Confidence = float64(pct) / 100
		}
	}
	if m := correlationLine.FindStringSubmatch(description); m != nil {
		e.CorrelationID = m[1]
	}
	if m := recordIDLine.FindStringSubmatch(description); m != nil {
		e.RecordID = m[1]
	}
	if m := statusLine.FindStringSubmatch(description); m != nil {
		e.Status = m[1]
	}
	return e
}

// Amendment is the set of labeled lines a correction rewrites. Nil-safe
// zero values leave the corresponding line untouched.
type Amendment struct {
	FiledTo         string
	DestinationName string
	DestinationURL  string
	Status          string
}

// amendDescription rewrites only the labeled lines the amendment changes,
// preserving everything else. A missing status line is appended rather
// than replacing nothing.
func amendDescription(description string, a Amendment) string {
	out := description
	if a.FiledTo != "" {
		out = filedToLine.ReplaceAllString(out, "**Filed to:** "+a.FiledTo)
	}
	if a.DestinationName != "" || a.DestinationURL != "" {
		out = destinationLine.ReplaceAllString(out,
			fmt.Sprintf("**Destination:** [%s](%s)", a.DestinationName, a.DestinationURL))
	}
	if a.Status != "" {
		if statusLine.MatchString(out) {
			out = statusLine.ReplaceAllString(out, "**Status:** "+a.Status)
		} else {
			out = out + "\n**Status:** " + a.Status
		}
	}
	return out
}
