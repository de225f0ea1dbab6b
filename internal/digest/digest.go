// Package digest gathers open items and ledger history from the task
// store and turns them into scheduled direct-message summaries via the
// LLM.
package digest

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mangrove-labs/sortd/internal/classify"
	"github.com/mangrove-labs/sortd/internal/config"
	"github.com/mangrove-labs/sortd/internal/ledger"
	"github.com/mangrove-labs/sortd/internal/llm"
	"github.com/mangrove-labs/sortd/internal/taskstore"
)

// dailyProjectStatuses and weeklyProjectStatuses are the open-item status
// filters used when gathering projects.
var (
	dailyProjectStatuses  = []string{"active", "to do", "in progress"}
	weeklyProjectStatuses = []string{"active", "waiting", "blocked", "to do", "in progress"}
)

// taskLister is the slice of the task store client the generator needs.
type taskLister interface {
	ListTasks(ctx context.Context, listID string, opts taskstore.ListTasksOptions) ([]taskstore.Task, error)
}

// dmSender delivers the finished summary.
type dmSender interface {
	SendDM(ctx context.Context, userID, text string) error
}

// Generator builds and delivers daily digests and weekly reviews.
type Generator struct {
	store       taskLister
	generator   llm.TextGenerator
	chat        dmSender
	collections *config.Collections
	userID      string
	now         func() time.Time
}

// NewGenerator wires a Generator from its collaborators.
func NewGenerator(store taskLister, gen llm.TextGenerator, chat dmSender, collections *config.Collections, userID string) *Generator {
	return &Generator{
		store:       store,
		generator:   gen,
		chat:        chat,
		collections: collections,
		userID:      userID,
		now:         time.Now,
	}
}

// RunDaily gathers open items across categories and sends one DM digest.
// Returns empty=true when there was nothing to report (a canned DM is
// still sent so the daily cadence is visible).
func (g *Generator) RunDaily(ctx context.Context) (empty bool, err error) {
	projects, people, admin, err := g.gatherDaily(ctx)
	if err != nil {
		return false, err
	}

	var sections []string
	if len(projects) > 0 {
		sections = append(sections, projectsSection(projects))
	}
	if len(people) > 0 {
		sections = append(sections, peopleSection(people))
	}
	if len(admin) > 0 {
		sections = append(sections, adminSection(admin))
	}

	if len(sections) == 0 {
		if err := g.chat.SendDM(ctx, g.userID, emptyDigestMessage); err != nil {
			return false, fmt.Errorf("digest: send empty digest: %w", err)
		}
		return true, nil
	}

	prompt := dailyDigestPrompt + "\n\nActive items:\n" + strings.Join(sections, "\n\n")
	text, err := g.generator.Complete(ctx, prompt)
	if err != nil {
		return false, fmt.Errorf("digest: generate daily digest: %w", err)
	}

	if err := g.chat.SendDM(ctx, g.userID, text); err != nil {
		return false, fmt.Errorf("digest: send daily digest: %w", err)
	}
	return false, nil
}

// gatherDaily issues the three independent read-only list fetches
// concurrently; they are mutually independent and read-only.
func (g *Generator) gatherDaily(ctx context.Context) (projects, people, admin []taskstore.Task, err error) {
	projectsID, _ := g.collections.CollectionFor(classify.CategoryProjects)
	peopleID, _ := g.collections.CollectionFor(classify.CategoryPeople)
	adminID, _ := g.collections.CollectionFor(classify.CategoryAdmin)

	var wg sync.WaitGroup
	var projErr, peopleErr, adminErr error

	wg.Add(3)
	go func() {
		defer wg.Done()
		projects, projErr = g.store.ListTasks(ctx, projectsID, taskstore.ListTasksOptions{Statuses: dailyProjectStatuses})
	}()
	go func() {
		defer wg.Done()
		var all []taskstore.Task
		all, peopleErr = g.store.ListTasks(ctx, peopleID, taskstore.ListTasksOptions{})
		for _, t := range all {
			if hasFollowUps(t.Description) {
				people = append(people, t)
			}
		}
	}()
	go func() {
		defer wg.Done()
		// Due or overdue: anything due before the end of tomorrow.
		admin, adminErr = g.store.ListTasks(ctx, adminID, taskstore.ListTasksOptions{
			DueBefore: g.now().Add(24 * time.Hour),
		})
	}()
	wg.Wait()

	for _, e := range []error{projErr, peopleErr, adminErr} {
		if e != nil {
			return nil, nil, nil, fmt.Errorf("digest: gather open items: %w", e)
		}
	}
	return projects, people, admin, nil
}

// RunWeekly gathers the last 7 days of ledger entries plus open projects
// and sends one DM review.
func (g *Generator) RunWeekly(ctx context.Context) error {
	projectsID, _ := g.collections.CollectionFor(classify.CategoryProjects)

	entries, err := g.store.ListTasks(ctx, g.collections.InboxLogID(), taskstore.ListTasksOptions{
		CreatedSince: g.now().Add(-7 * 24 * time.Hour),
	})
	if err != nil {
		return fmt.Errorf("digest: gather ledger entries: %w", err)
	}

	projects, err := g.store.ListTasks(ctx, projectsID, taskstore.ListTasksOptions{Statuses: weeklyProjectStatuses})
	if err != nil {
		return fmt.Errorf("digest: gather projects: %w", err)
	}

	context := g.weeklyContext(entries, projects)
	text, err := g.generator.Complete(ctx, weeklyReviewPrompt+"\n\nThis week's data:\n"+context)
	if err != nil {
		return fmt.Errorf("digest: generate weekly review: %w", err)
	}

	if err := g.chat.SendDM(ctx, g.userID, text); err != nil {
		return fmt.Errorf("digest: send weekly review: %w", err)
	}
	return nil
}

// weeklyContext renders the week's captures, project status, and
// per-category counts into the review prompt context.
func (g *Generator) weeklyContext(entries, projects []taskstore.Task) string {
	counts := map[string]int{}

	var sections []string
	sections = append(sections, "=== ITEMS CAPTURED THIS WEEK ===\n")
	if len(entries) == 0 {
		sections = append(sections, "No captures this week.")
	}
	for i, t := range entries {
		e := ledger.ParseDescription(t.Description)
		filedTo := e.FiledTo
		if filedTo == "" {
			filedTo = "Unknown"
		}
		counts[filedTo]++

		destination := e.DestinationName
		if destination == "" {
			destination = strings.TrimPrefix(t.Name, "Log: ")
		}

		sections = append(sections, strconv.Itoa(i+1)+". ["+filedTo+"] "+destination)
		if filedTo == ledger.FiledNeedsReview {
			sections = append(sections, "   ⚠️ NEEDS REVIEW")
		}
	}

	sections = append(sections, "\n\n=== ACTIVE PROJECTS STATUS ===\n")
	if len(projects) == 0 {
		sections = append(sections, "No active projects.")
	}
	for i, p := range projects {
		status := p.Status.Status
		if status == "" {
			status = "Unknown"
		}
		sections = append(sections,
			strconv.Itoa(i+1)+". "+p.Name,
			"   Status: "+status,
			"   Next: "+extractNextAction(p.Description)+"\n")
	}

	sections = append(sections, "\n=== CAPTURE SUMMARY ===")
	for _, category := range []string{
		string(classify.CategoryPeople),
		string(classify.CategoryProjects),
		string(classify.CategoryIdeas),
		string(classify.CategoryAdmin),
		ledger.FiledNeedsReview,
	} {
		if counts[category] > 0 {
			sections = append(sections, category+": "+strconv.Itoa(counts[category]))
		}
	}

	return strings.Join(sections, "\n")
}
