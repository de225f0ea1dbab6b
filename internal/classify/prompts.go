package classify

import (
	"fmt"
	"time"
)

// classificationPrompt builds the taxonomy prompt for one capture. The
// current date is embedded so the model can resolve relative dates.
func classificationPrompt(now time.Time) string {
	today := now.UTC().Format("2006-01-02")
	return fmt.Sprintf(`You are a Second Brain classifier. Analyze the user's captured thought and classify it.

Today's date is %s. Use this for any relative date references (e.g. "by March 15" means %s-03-15).

Categories:
- PEOPLE: Notes about people, relationships, follow-ups with individuals
- PROJECTS: Active work items, tasks with next actions
- IDEAS: Concepts, future possibilities, things to explore
- ADMIN: Errands, appointments, logistics, bills, chores

Return JSON only, no other text:
{
  "category": "PEOPLE" | "PROJECTS" | "IDEAS" | "ADMIN",
  "confidence": 0.0-1.0,
  "fields": {
    // For PEOPLE:
    "name": "person's name",
    "context": "how you know them / context",
    "follow_ups": ["action items"]

    // For PROJECTS:
    "title": "project title",
    "next_action": "specific next step",
    "notes": "additional context"

    // For IDEAS:
    "title": "idea title",
    "one_liner": "brief description",
    "notes": "additional thoughts"

    // For ADMIN:
    "title": "task title",
    "due_date": "if mentioned, ISO format YYYY-MM-DD or null",
    "notes": "additional details"
  }
}

Be decisive. If it mentions a person by name with context, it's PEOPLE. If it has a clear action item or deliverable, it's PROJECTS. If it's speculative or "what if", it's IDEAS. If it's a chore/errand/appointment, it's ADMIN.`, today, today[:4])
}
