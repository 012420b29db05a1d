package extract

import "sort"

// Field describes one output field: its canonical JSON key, alternate keys
// models have been seen to use, and the section labels the marker decoder
// recognises.
type Field struct {
	Key     string
	Aliases []string
	Labels  []string
}

const (
	keyProject   = "project"
	keySummary   = "summary"
	keyCompleted = "completed"
	keyBlockers  = "blockers"
	keyNextSteps = "next_steps"
	keyThoughts  = "thoughts"

	keyWeekSummary     = "week_summary"
	keyAccomplishments = "accomplishments"
	keyInsights        = "insights"
	keyProgress        = "progress"
	keyNextWeekFocus   = "next_week_focus"
)

var dailyFields = []Field{
	{Key: keyProject, Aliases: []string{"project_name"}, Labels: []string{"project"}},
	{Key: keySummary, Labels: []string{"summary"}},
	{Key: keyCompleted, Aliases: []string{"completed_today"}, Labels: []string{"completed today", "completed"}},
	{Key: keyBlockers, Aliases: []string{"in_progress_blockers", "in_progress"}, Labels: []string{"in progress / blockers", "in progress/blockers", "blockers", "in progress"}},
	{Key: keyNextSteps, Aliases: []string{"next"}, Labels: []string{"next steps"}},
	{Key: keyThoughts, Aliases: []string{"thoughts_and_ideas", "ideas"}, Labels: []string{"thoughts & ideas", "thoughts and ideas", "thoughts", "ideas"}},
}

var weeklyFields = []Field{
	{Key: keyWeekSummary, Aliases: []string{"summary"}, Labels: []string{"week summary"}},
	{Key: keyAccomplishments, Aliases: []string{"key_accomplishments"}, Labels: []string{"key accomplishments", "accomplishments"}},
	{Key: keyInsights, Aliases: []string{"insights_and_thoughts"}, Labels: []string{"insights & thoughts", "insights and thoughts", "insights"}},
	{Key: keyProgress, Aliases: []string{"blockers", "progress_indicators"}, Labels: []string{"progress indicators", "progress", "blockers"}},
	{Key: keyNextWeekFocus, Aliases: []string{"next_focus"}, Labels: []string{"next week focus", "next focus"}},
}

// fieldLabel pairs a label with its field key.
type fieldLabel struct {
	key   string
	label string
}

// labelsLongestFirst flattens field labels so that longer labels are tried
// before their prefixes ("completed today" before "completed").
func labelsLongestFirst(fields []Field) []fieldLabel {
	var out []fieldLabel
	for _, f := range fields {
		for _, l := range f.Labels {
			out = append(out, fieldLabel{key: f.Key, label: l})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return len(out[i].label) > len(out[j].label)
	})
	return out
}
