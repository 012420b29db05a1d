package domain

import (
	"sort"
	"strings"
	"time"
)

// TodoCandidate is a raw action item proposed by extraction.
type TodoCandidate struct {
	Text     string
	Priority Priority
	Context  string
}

type TodoItem struct {
	Text          string
	Priority      Priority
	Context       string
	SourceDate    time.Time
	SourceProject string
	SourceRef     string
	Done          bool
}

// Identity is the dedup key of the item within its project.
func (t TodoItem) Identity() string {
	return NormalizeTodoText(t.Text)
}

// NormalizeTodoText folds case and whitespace for identity comparison.
// Stored text keeps its original form.
func NormalizeTodoText(s string) string {
	return strings.ToLower(CollapseWhitespace(s))
}

// TodoList is the ordered backlog of one project.
type TodoList struct {
	Project string
	Items   []TodoItem
}

// Find returns the index of the item with the given identity, or -1.
func (l *TodoList) Find(identity string) int {
	key := NormalizeTodoText(identity)
	for i, it := range l.Items {
		if it.Identity() == key {
			return i
		}
	}
	return -1
}

func (l *TodoList) Has(identity string) bool {
	return l.Find(identity) >= 0
}

// Add appends item unless its identity is already present.
func (l *TodoList) Add(item TodoItem) bool {
	if l.Has(item.Text) {
		return false
	}
	l.Items = append(l.Items, item)
	return true
}

// Remove deletes the item with the given identity.
func (l *TodoList) Remove(identity string) bool {
	i := l.Find(identity)
	if i < 0 {
		return false
	}
	l.Items = append(l.Items[:i], l.Items[i+1:]...)
	return true
}

// ByPriority returns the items grouped high, medium, low, keeping
// insertion order inside each group.
func (l *TodoList) ByPriority() []TodoItem {
	out := make([]TodoItem, len(l.Items))
	copy(out, l.Items)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority.Rank() < out[j].Priority.Rank()
	})
	return out
}

func (l *TodoList) Open() []TodoItem {
	return l.filter(false)
}

func (l *TodoList) Completed() []TodoItem {
	return l.filter(true)
}

func (l *TodoList) filter(done bool) []TodoItem {
	var out []TodoItem
	for _, it := range l.Items {
		if it.Done == done {
			out = append(out, it)
		}
	}
	return out
}
