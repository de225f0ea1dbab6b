package digest

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mangrove-labs/sortd/internal/taskstore"
)

var (
	nextActionPattern = regexp.MustCompile(`(?i)\*\*Next Action:\*\*\s*(.+?)(?:\n|$)`)
	followUpsPattern  = regexp.MustCompile(`(?i)\*\*Follow-ups:\*\*\s*([\s\S]*?)(?:\n\n|$)`)
)

// extractNextAction pulls the next-action line out of a stored project
// description.
func extractNextAction(description string) string {
	m := nextActionPattern.FindStringSubmatch(description)
	if m == nil {
		return "None specified"
	}
	return strings.TrimSpace(m[1])
}

// extractFollowUps flattens the follow-ups bullet list of a stored people
// description into one comma-separated line.
func extractFollowUps(description string) string {
	m := followUpsPattern.FindStringSubmatch(description)
	if m == nil {
		return "None"
	}
	var items []string
	for _, line := range strings.Split(m[1], "\n") {
		line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "-"))
		if line != "" && line != "None specified" {
			items = append(items, line)
		}
	}
	if len(items) == 0 {
		return "None"
	}
	return strings.Join(items, ", ")
}

// hasFollowUps reports whether a people record carries at least one real
// follow-up item.
func hasFollowUps(description string) bool {
	return extractFollowUps(description) != "None"
}

// projectsSection renders the active-projects block of the daily context.
func projectsSection(projects []taskstore.Task) string {
	lines := make([]string, 0, len(projects))
	for i, t := range projects {
		status := t.Status.Status
		if status == "" {
			status = "Unknown"
		}
		lines = append(lines, strconv.Itoa(i+1)+". "+t.Name+
			"\n   Status: "+status+
			"\n   Next Action: "+extractNextAction(t.Description))
	}
	return "ACTIVE PROJECTS:\n" + strings.Join(lines, "\n\n")
}

// peopleSection renders the follow-ups block of the daily context.
func peopleSection(people []taskstore.Task) string {
	lines := make([]string, 0, len(people))
	for i, t := range people {
		lines = append(lines, strconv.Itoa(i+1)+". "+t.Name+
			"\n   Follow-up: "+extractFollowUps(t.Description))
	}
	return "PEOPLE TO FOLLOW UP WITH:\n" + strings.Join(lines, "\n\n")
}

// adminSection renders the tasks-due block of the daily context.
func adminSection(admin []taskstore.Task) string {
	lines := make([]string, 0, len(admin))
	for i, t := range admin {
		due := "No date"
		if t.DueDate != "" {
			if millis, err := strconv.ParseInt(t.DueDate, 10, 64); err == nil {
				due = time.UnixMilli(millis).UTC().Format("2006-01-02")
			}
		}
		lines = append(lines, strconv.Itoa(i+1)+". "+t.Name+"\n   Due: "+due)
	}
	return "TASKS DUE:\n" + strings.Join(lines, "\n\n")
}
