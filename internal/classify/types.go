// Package classify turns raw captured text into a typed Classification
// using the LLM. Unparseable model output degrades to a safe default
// instead of surfacing a parse error; only transport failures propagate.
package classify

import "strings"

// Category is the closed set of capture categories.
type Category string

const (
	CategoryPeople   Category = "PEOPLE"
	CategoryProjects Category = "PROJECTS"
	CategoryIdeas    Category = "IDEAS"
	CategoryAdmin    Category = "ADMIN"
)

// Categories lists all valid categories in display order.
var Categories = []Category{CategoryPeople, CategoryProjects, CategoryIdeas, CategoryAdmin}

// ParseCategory maps a category word (any case) to a Category.
// Returns false for words outside the closed set.
func ParseCategory(word string) (Category, bool) {
	switch strings.ToUpper(strings.TrimSpace(word)) {
	case "PEOPLE":
		return CategoryPeople, true
	case "PROJECTS":
		return CategoryProjects, true
	case "IDEAS":
		return CategoryIdeas, true
	case "ADMIN":
		return CategoryAdmin, true
	default:
		return "", false
	}
}

// IsValid reports whether c is one of the four known categories.
func (c Category) IsValid() bool {
	switch c {
	case CategoryPeople, CategoryProjects, CategoryIdeas, CategoryAdmin:
		return true
	}
	return false
}

// Classification is the typed result of classifying one capture.
// It is immutable once produced; a correction creates a new Classification.
type Classification struct {
	Category   Category               `json:"category"`
	Confidence float64                `json:"confidence"`
	Fields     map[string]interface{} `json:"fields"`

	// Degraded marks a classification produced by the local fallback after
	// the model returned something unparseable. Callers log it but treat
	// the result as a normal low-confidence classification.
	Degraded bool `json:"-"`
}

// StringField returns the named field as a string, or "" when absent or
// not a string.
func (c Classification) StringField(key string) string {
	if v, ok := c.Fields[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// ListField returns the named field as a string slice. Scalar or missing
// values yield nil.
func (c Classification) ListField(key string) []string {
	v, ok := c.Fields[key]
	if !ok {
		return nil
	}
	items, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// DefaultClassification is the degraded fallback used when the model reply
// cannot be parsed: file as an idea at low confidence with fields derived
// from the raw text.
func DefaultClassification(text string) Classification {
	title := text
	if len(title) > 50 {
		title = title[:50]
	}
	return Classification{
		Category:   CategoryIdeas,
		Confidence: 0.3,
		Fields: map[string]interface{}{
			"title":     title,
			"one_liner": text,
			"notes":     "",
		},
		Degraded: true,
	}
}
