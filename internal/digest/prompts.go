package digest

// dailyDigestPrompt turns gathered active items into a short morning
// digest. The model is the opaque summarization collaborator; the prompt
// fixes the shape of its output.
const dailyDigestPrompt = `You are creating a daily digest for a Second Brain system. Given the active items below, create a brief, actionable morning digest.

Format:
**Top 3 for today:**
1. [most important thing]
2. [second priority]
3. [third priority]

**People to reach out to:**
- [name]: [reason]

**Don't forget:**
- [any admin items due soon]

Keep it under 150 words. Be direct. No fluff.`

// weeklyReviewPrompt summarizes a week of captures and suggests focus areas.
const weeklyReviewPrompt = `You are creating a weekly review for a Second Brain system. Summarize the week's captures and suggest focus areas.

Format:
**This week:** [X] captures ([breakdown by category])

**Progress:**
- [completed or moved forward]

**Open loops:**
- [things that need attention]

**Patterns I notice:**
- [any themes in the captures]

**Suggested focus for next week:**
1. [priority]
2. [priority]

Keep it under 250 words. Be honest about what's stalling.`

// emptyDigestMessage is sent when there is nothing to report.
const emptyDigestMessage = "☀️ *Daily Digest*\n\nNo active items to report today. Enjoy the clear day!"
