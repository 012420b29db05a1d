package domain

import "strings"

// Unknown is the project assigned when no known project matches.
const Unknown = "Unknown"

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Priorities lists priorities in rendering order.
var Priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

var prioritySynonyms = map[string]Priority{
	"high":         PriorityHigh,
	"urgent":       PriorityHigh,
	"critical":     PriorityHigh,
	"asap":         PriorityHigh,
	"important":    PriorityHigh,
	"medium":       PriorityMedium,
	"normal":       PriorityMedium,
	"moderate":     PriorityMedium,
	"low":          PriorityLow,
	"minor":        PriorityLow,
	"nice to have": PriorityLow,
	"someday":      PriorityLow,
}

// ParsePriority maps free-form priority text onto a Priority.
// Unrecognised or empty input yields PriorityMedium.
func ParsePriority(s string) Priority {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.Trim(key, ".!*_ ")
	key = strings.TrimSuffix(key, " priority")
	if p, ok := prioritySynonyms[key]; ok {
		return p
	}
	return PriorityMedium
}

// Rank orders priorities: high sorts first.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityLow:
		return 2
	default:
		return 1
	}
}

// Icon returns the marker rendered in front of a todo line.
func (p Priority) Icon() string {
	switch p {
	case PriorityHigh:
		return "🔴"
	case PriorityLow:
		return "🟢"
	default:
		return "🟠"
	}
}

// Title returns the capitalised label used in headings.
func (p Priority) Title() string {
	switch p {
	case PriorityHigh:
		return "High"
	case PriorityLow:
		return "Low"
	default:
		return "Medium"
	}
}

// PriorityFromIcon recognises a rendered priority marker.
func PriorityFromIcon(icon string) (Priority, bool) {
	for _, p := range Priorities {
		if p.Icon() == icon {
			return p, true
		}
	}
	return "", false
}

// Outcome is the result of a timeline aggregation request.
type Outcome string

const (
	OutcomeCreated         Outcome = "created"
	OutcomeSkippedExisting Outcome = "skipped_existing"
)

type SkipReason string

const (
	ReasonAlreadySummarized SkipReason = "already_summarized"
	ReasonNoDailyDocuments  SkipReason = "no_daily_documents"
)
