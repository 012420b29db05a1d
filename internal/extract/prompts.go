package extract

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/daylog/internal/domain"
)

func dailySystemPrompt(projects []string) string {
	list := "No projects available"
	if len(projects) > 0 {
		list = strings.Join(projects, ", ")
	}
	return fmt.Sprintf(`You are a work journal assistant. You convert transcripts of spoken daily work logs into structured daily notes.

Extract the information into these categories:

Project: which project the person worked on, chosen from this list: [%s]
Summary: an overview of the day's work, at most 150 words
Completed: specific tasks, features or goals that were finished
Blockers: current work in progress and any obstacles encountered
Next Steps: plans for upcoming work
Thoughts: insights, learnings or ideas mentioned

Rules:
- Use "- " bullet points for lists.
- Be specific. Keep concrete names, technologies and numbers.
- The transcript may misspell project names; pick the closest project from the list.
- If no project from the list matches, use "Unknown".
- If a category is not mentioned, use an empty string.

Respond with ONLY a JSON object with the keys: project, summary, completed, blockers, next_steps, thoughts.
Every value is a string containing markdown.`, list)
}

func dailyUserPrompt(transcript string, projects []string) string {
	return fmt.Sprintf(`Available projects: %s

Transcript:
%s

Extract the structured daily note from this transcript.`, strings.Join(projects, ", "), transcript)
}

const todoSystemPrompt = `You extract actionable todo items from transcripts of spoken work logs.

Look for phrases such as "TODO", "I need to", "I have to", "don't forget to", "tomorrow I should", "action item", "this is important", "urgent".

Only extract clear, actionable items that are still open. Do not extract observations or work that is already done.

Priority:
- high: explicitly called urgent, high priority, critical, important or ASAP
- low: explicitly called low priority, nice to have, or "whenever there is time"
- medium: everything else

Respond with ONLY a JSON array. Each element is an object with the fields "task" (clear, actionable description), "priority" (high, medium or low) and "context" (short context, may be empty).
If there are no tasks, respond with [].`

func todoUserPrompt(transcript, project string) string {
	return fmt.Sprintf(`Project: %s

Extract the todo items from this transcript:

%s`, project, transcript)
}

const weeklySystemPrompt = `You are a project timeline assistant. You write weekly summaries from a week of daily work notes for one project.

Produce these sections:
- week_summary: a 3-5 sentence overview of the week
- accomplishments: major tasks completed, features implemented, milestones reached
- insights: important ideas, learnings and reflections
- progress: current blockers and their status
- next_week_focus: a two-line suggestion of what to prioritise next week

Start sentences with concrete actions, findings or results. Name the exact features, components, tools and errors involved. Avoid vague phrases like "significant progress was made".

Respond with ONLY a JSON object with the keys: week_summary, accomplishments, insights, progress, next_week_focus.
Every value is a string containing markdown.`

func weeklyUserPrompt(project, weekKey string, days []domain.DailyDocument) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Project: %s\nWeek: %s", project, weekKey)
	if len(days) > 0 {
		fmt.Fprintf(&b, " (%s to %s)", days[0].Date.Format(domain.DateLayout), days[len(days)-1].Date.Format(domain.DateLayout))
	}
	b.WriteString("\n\nDaily notes:\n")
	for i, d := range days {
		if i > 0 {
			b.WriteString("\n---\n")
		}
		r := d.Record
		fmt.Fprintf(&b, "\nDate: %s\nSummary: %s\nCompleted: %s\nBlockers: %s\nNext Steps: %s\nThoughts: %s\n",
			d.Date.Format(domain.DateLayout), r.Summary, r.Completed, r.Blockers, r.NextSteps, r.Thoughts)
	}
	b.WriteString("\nWrite the weekly summary for these notes.")
	return b.String()
}
