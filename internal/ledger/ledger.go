package ledger

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/mangrove-labs/sortd/internal/taskstore"
)

// taskStore is the slice of the task store client the ledger needs.
type taskStore interface {
	CreateTask(ctx context.Context, listID string, req taskstore.CreateTaskRequest) (*taskstore.Task, error)
	GetTask(ctx context.Context, taskID string) (*taskstore.Task, error)
	ListTasks(ctx context.Context, listID string, opts taskstore.ListTasksOptions) ([]taskstore.Task, error)
	UpdateTask(ctx context.Context, taskID string, patch map[string]interface{}) error
}

// Ledger appends, finds, and amends inbox audit entries.
type Ledger struct {
	store  taskStore
	listID string
	index  *Index // optional; nil disables the fast path
}

// New creates a Ledger writing to the given log collection. The index may
// be nil, in which case every lookup is a full scan.
func New(store taskStore, listID string, index *Index) *Ledger {
	return &Ledger{store: store, listID: listID, index: index}
}

// Append writes one ledger entry for a capture. On success the correlation
// index is updated; an index write failure is logged, not propagated,
// since the scan path still finds the entry.
func (l *Ledger) Append(ctx context.Context, e Entry) error {
	description := RenderDescription(e)
	task, err := l.store.CreateTask(ctx, l.listID, taskstore.CreateTaskRequest{
		Name:                EntryName(e.OriginalText),
		Description:         description,
		MarkdownDescription: description,
	})
	if err != nil {
		return fmt.Errorf("ledger: append entry: %w", err)
	}

	if l.index != nil && e.CorrelationID != "" {
		if err := l.index.Put(e.CorrelationID, task.ID); err != nil {
			log.Printf("ledger: index write failed for %s: %v", e.CorrelationID, err)
		}
	}
	return nil
}

// Found pairs a parsed ledger entry with the id of the task holding it.
type Found struct {
	TaskID string
	Entry  Entry
}

// FindByCorrelationID looks up the ledger entry for a thread. Returns
// (nil, nil) when no entry carries the marker — a normal outcome callers
// must tolerate (the capture may predate the marker, or was never filed).
func (l *Ledger) FindByCorrelationID(ctx context.Context, correlationID string) (*Found, error) {
	marker := correlationMarker(correlationID)

	// Fast path: local index.
	if l.index != nil {
		taskID, err := l.index.Get(correlationID)
		if err != nil {
			log.Printf("ledger: index read failed for %s: %v", correlationID, err)
		} else if taskID != "" {
			task, err := l.store.GetTask(ctx, taskID)
			if err == nil && strings.Contains(task.Description, marker) {
				return &Found{TaskID: task.ID, Entry: ParseDescription(task.Description)}, nil
			}
			// Stale index entry; fall through to the scan.
		}
	}

	// Compatibility floor: linear scan over the whole log collection.
	// O(n) in ledger size, acceptable at capture volume.
	tasks, err := l.store.ListTasks(ctx, l.listID, taskstore.ListTasksOptions{})
	if err != nil {
		return nil, fmt.Errorf("ledger: scan for %s: %w", correlationID, err)
	}
	for _, task := range tasks {
		if strings.Contains(task.Description, marker) {
			if l.index != nil {
				if err := l.index.Put(correlationID, task.ID); err != nil {
					log.Printf("ledger: index backfill failed for %s: %v", correlationID, err)
				}
			}
			return &Found{TaskID: task.ID, Entry: ParseDescription(task.Description)}, nil
		}
	}
	return nil, nil
}

// Amend rewrites the changed labeled lines of the entry correlated to the
// given thread. Returns (false, nil) when no entry was found, which
// callers treat as a soft no-op.
func (l *Ledger) Amend(ctx context.Context, correlationID string, a Amendment) (bool, error) {
	found, err := l.FindByCorrelationID(ctx, correlationID)
	if err != nil {
		return false, err
	}
	if found == nil {
		return false, nil
	}

	task, err := l.store.GetTask(ctx, found.TaskID)
	if err != nil {
		return false, fmt.Errorf("ledger: fetch entry %s: %w", found.TaskID, err)
	}

	updated := amendDescription(task.Description, a)
	err = l.store.UpdateTask(ctx, found.TaskID, map[string]interface{}{
		"description":          updated,
		"markdown_description": updated,
	})
	if err != nil {
		return false, fmt.Errorf("ledger: amend entry %s: %w", found.TaskID, err)
	}
	return true, nil
}
