package extract

import (
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/alexanderramin/daylog/internal/domain"
	"github.com/alexanderramin/daylog/internal/llm"
)

// TodoDecoder turns a raw backend response into todo candidates.
type TodoDecoder interface {
	Name() string
	Decode(raw string) ([]domain.TodoCandidate, error)
}

// TodoChain is an ordered list of todo decoders; the first success wins.
type TodoChain []TodoDecoder

// DefaultTodoChain is JSON, then regex recovery of task/priority pairs.
var DefaultTodoChain = TodoChain{JSONTodoDecoder{}, RegexTodoDecoder{}}

// Decode never fails: when no decoder succeeds the result is empty.
func (c TodoChain) Decode(raw string) ([]domain.TodoCandidate, string) {
	for _, d := range c {
		items, err := d.Decode(raw)
		if err == nil {
			return items, d.Name()
		}
	}
	return nil, "none"
}

type rawTodo struct {
	Task        string `json:"task"`
	Text        string `json:"text"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	Context     string `json:"context"`
}

func (r rawTodo) candidate() domain.TodoCandidate {
	return domain.TodoCandidate{
		Text:     domain.CollapseWhitespace(domain.CoalesceStr(r.Task, r.Text, r.Title, r.Description)),
		Priority: domain.ParsePriority(r.Priority),
		Context:  domain.CollapseWhitespace(r.Context),
	}
}

var todoWrapperKeys = []string{"tasks", "todos", "todo", "items", "action_items"}

// JSONTodoDecoder accepts a JSON array of task objects, an object wrapping
// such an array, or a single task object.
type JSONTodoDecoder struct{}

func (JSONTodoDecoder) Name() string { return "json" }

func (JSONTodoDecoder) Decode(raw string) ([]domain.TodoCandidate, error) {
	objAt, arrAt := strings.IndexByte(raw, '{'), strings.IndexByte(raw, '[')
	if arrAt >= 0 && (objAt < 0 || arrAt < objAt) {
		if items, err := llm.ExtractJSONArray[rawTodo](raw); err == nil {
			return candidates(items), nil
		}
	}
	// A lone task object is only trusted when it is not an element of a
	// (broken) array.
	items, err := decodeTodoObject(raw, arrAt < 0 || objAt < arrAt)
	if err == nil {
		return items, nil
	}
	if arrAt >= 0 {
		if items, arrErr := llm.ExtractJSONArray[rawTodo](raw); arrErr == nil {
			return candidates(items), nil
		}
	}
	return nil, err
}

func decodeTodoObject(raw string, allowSingle bool) ([]domain.TodoCandidate, error) {
	obj, err := llm.ExtractJSON[map[string]json.RawMessage](raw, nil)
	if err != nil {
		return nil, err
	}
	for _, k := range todoWrapperKeys {
		data, ok := obj[k]
		if !ok {
			continue
		}
		var items []rawTodo
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, err
		}
		return candidates(items), nil
	}
	if _, ok := obj["task"]; ok && allowSingle {
		var single rawTodo
		data, _ := json.Marshal(obj)
		if err := json.Unmarshal(data, &single); err != nil {
			return nil, err
		}
		return candidates([]rawTodo{single}), nil
	}
	return nil, errors.New("json object holds no task list")
}

func candidates(items []rawTodo) []domain.TodoCandidate {
	out := make([]domain.TodoCandidate, 0, len(items))
	for _, it := range items {
		c := it.candidate()
		if c.Text == "" {
			continue
		}
		out = append(out, c)
	}
	return out
}

var (
	taskPattern     = regexp.MustCompile(`"task"\s*:\s*"((?:[^"\\]|\\.)*)"`)
	priorityPattern = regexp.MustCompile(`"priority"\s*:\s*"((?:[^"\\]|\\.)*)"`)
	contextPattern  = regexp.MustCompile(`"context"\s*:\s*"((?:[^"\\]|\\.)*)"`)
)

// RegexTodoDecoder recovers `"task": "..."` pairs from broken JSON. Priorities
// are paired by position when their count matches, otherwise medium.
// Contexts pair the same way; when some are missing, a context attaches to
// the task before it in the same object.
type RegexTodoDecoder struct{}

func (RegexTodoDecoder) Name() string { return "regex" }

func (RegexTodoDecoder) Decode(raw string) ([]domain.TodoCandidate, error) {
	tasks := taskPattern.FindAllStringSubmatch(raw, -1)
	if len(tasks) == 0 {
		return nil, errors.New("no task entries found")
	}
	priorities := priorityPattern.FindAllStringSubmatch(raw, -1)
	contexts := pairContexts(raw, taskPattern.FindAllStringIndex(raw, -1))

	out := make([]domain.TodoCandidate, 0, len(tasks))
	for i, m := range tasks {
		c := domain.TodoCandidate{
			Text:     domain.CollapseWhitespace(unescape(m[1])),
			Priority: domain.PriorityMedium,
			Context:  contexts[i],
		}
		if len(priorities) == len(tasks) {
			c.Priority = domain.ParsePriority(unescape(priorities[i][1]))
		}
		if c.Text != "" {
			out = append(out, c)
		}
	}
	return out, nil
}

// pairContexts returns one context per task position, empty when none.
func pairContexts(raw string, tasks [][]int) []string {
	out := make([]string, len(tasks))
	matches := contextPattern.FindAllStringSubmatchIndex(raw, -1)
	if len(matches) == len(tasks) {
		for i, m := range matches {
			out[i] = domain.CollapseWhitespace(unescape(raw[m[2]:m[3]]))
		}
		return out
	}

	for _, m := range matches {
		owner := -1
		for i, tk := range tasks {
			if tk[0] < m[0] {
				owner = i
			}
		}
		if owner < 0 || strings.Contains(raw[tasks[owner][1]:m[0]], "{") {
			continue
		}
		if out[owner] == "" {
			out[owner] = domain.CollapseWhitespace(unescape(raw[m[2]:m[3]]))
		}
	}
	return out
}

func unescape(s string) string {
	if u, err := strconv.Unquote(`"` + s + `"`); err == nil {
		return u
	}
	return strings.ReplaceAll(s, `\"`, `"`)
}
