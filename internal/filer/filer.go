// Package filer maps a typed classification onto a create-record call
// against the task store, choosing the category's collection and rendering
// the category-specific description.
package filer

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/mangrove-labs/sortd/internal/classify"
	"github.com/mangrove-labs/sortd/internal/taskstore"
)

// Record is a created entry in the task store.
type Record struct {
	ID   string
	Name string
	URL  string
}

// taskCreator is the slice of the task store client the filer needs.
type taskCreator interface {
	CreateTask(ctx context.Context, listID string, req taskstore.CreateTaskRequest) (*taskstore.Task, error)
}

// CollectionResolver resolves a category to its collection id. The config
// package's collection mapping satisfies this.
type CollectionResolver interface {
	CollectionFor(category classify.Category) (string, bool)
}

// Filer creates records in category collections.
type Filer struct {
	store       taskCreator
	collections CollectionResolver
}

// New creates a Filer backed by the given store and collection mapping.
func New(store taskCreator, collections CollectionResolver) *Filer {
	return &Filer{store: store, collections: collections}
}

// File creates a record for the classification in its category's
// collection. Collection-create failures propagate as the store's typed
// error so the caller can surface the upstream text to the user.
func (f *Filer) File(ctx context.Context, c classify.Classification) (*Record, error) {
	listID, ok := f.collections.CollectionFor(c.Category)
	if !ok {
		return nil, fmt.Errorf("filer: no collection configured for category %s", c.Category)
	}

	name, description := Render(c)

	req := taskstore.CreateTaskRequest{
		Name:                name,
		Description:         description,
		MarkdownDescription: description,
	}

	if c.Category == classify.CategoryAdmin {
		if due := c.StringField("due_date"); due != "" {
			if millis, err := parseDueDate(due); err == nil {
				req.DueDate = &millis
			} else {
				// A malformed date must not abort the capture.
				log.Printf("filer: ignoring malformed due date %q: %v", due, err)
			}
		}
	}

	task, err := f.store.CreateTask(ctx, listID, req)
	if err != nil {
		return nil, fmt.Errorf("filer: create record in %s: %w", c.Category, err)
	}

	return &Record{ID: task.ID, Name: task.Name, URL: task.URL}, nil
}

// Render builds the record name and multi-section description for a
// classification. Missing optional fields get literal placeholders; a
// section is never omitted.
func Render(c classify.Classification) (name, description string) {
	switch c.Category {
	case classify.CategoryPeople:
		name = orDefault(c.StringField("name"), "Unknown Person")
		followUps := "- None specified"
		if items := c.ListField("follow_ups"); len(items) > 0 {
			lines := make([]string, len(items))
			for i, item := range items {
				lines[i] = "- " + item
			}
			followUps = strings.Join(lines, "\n")
		}
		description = fmt.Sprintf("**Context:** %s\n\n**Follow-ups:**\n%s",
			orDefault(c.StringField("context"), "N/A"), followUps)

	case classify.CategoryProjects:
		name = orDefault(c.StringField("title"), "Untitled Project")
		description = fmt.Sprintf("**Next Action:** %s\n\n**Notes:** %s",
			orDefault(c.StringField("next_action"), "Define next step"),
			orDefault(c.StringField("notes"), "N/A"))

	case classify.CategoryIdeas:
		name = orDefault(c.StringField("title"), "Untitled Idea")
		description = fmt.Sprintf("**One-liner:** %s\n\n**Notes:** %s",
			orDefault(c.StringField("one_liner"), "N/A"),
			orDefault(c.StringField("notes"), "N/A"))

	case classify.CategoryAdmin:
		name = orDefault(c.StringField("title"), "Untitled Task")
		description = fmt.Sprintf("**Notes:** %s",
			orDefault(c.StringField("notes"), "N/A"))

	default:
		name = "Uncategorized"
		description = fmt.Sprintf("%v", c.Fields)
	}
	return name, description
}

// parseDueDate converts a YYYY-MM-DD date into the store's epoch-millis
// representation.
func parseDueDate(due string) (int64, error) {
	t, err := time.Parse("2006-01-02", due)
	if err != nil {
		return 0, err
	}
	return t.UnixMilli(), nil
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
