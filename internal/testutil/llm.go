package testutil

import (
	"context"
	"sync"

	"github.com/alexanderramin/daylog/internal/llm"
)

// ScriptedLLM is an llm.LLMClient returning canned responses per task.
// Responses for a task are consumed in order; the last one repeats.
type ScriptedLLM struct {
	mu        sync.Mutex
	responses map[llm.TaskType][]string
	errs      map[llm.TaskType]error
	requests  []llm.GenerateRequest
}

func NewScriptedLLM() *ScriptedLLM {
	return &ScriptedLLM{
		responses: make(map[llm.TaskType][]string),
		errs:      make(map[llm.TaskType]error),
	}
}

// On queues responses for task.
func (s *ScriptedLLM) On(task llm.TaskType, responses ...string) *ScriptedLLM {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[task] = append(s.responses[task], responses...)
	return s
}

// Fail makes every call for task return err.
func (s *ScriptedLLM) Fail(task llm.TaskType, err error) *ScriptedLLM {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs[task] = err
	return s
}

func (s *ScriptedLLM) Generate(_ context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)

	if err := s.errs[req.Task]; err != nil {
		return nil, err
	}
	queue := s.responses[req.Task]
	text := ""
	if len(queue) > 0 {
		text = queue[0]
		if len(queue) > 1 {
			s.responses[req.Task] = queue[1:]
		}
	}
	return &llm.GenerateResponse{Text: text, Model: "scripted", Temperature: 0.3}, nil
}

func (s *ScriptedLLM) Available(context.Context) bool { return true }

// Calls returns how many requests were made for task.
func (s *ScriptedLLM) Calls(task llm.TaskType) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.requests {
		if r.Task == task {
			n++
		}
	}
	return n
}

// LastRequest returns the most recent request for task.
func (s *ScriptedLLM) LastRequest(task llm.TaskType) (llm.GenerateRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.requests) - 1; i >= 0; i-- {
		if s.requests[i].Task == task {
			return s.requests[i], true
		}
	}
	return llm.GenerateRequest{}, false
}
