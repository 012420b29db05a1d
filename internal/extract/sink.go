package extract

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/alexanderramin/daylog/internal/llm"
)

// Exchange is one request/response pair with the backend.
type Exchange struct {
	Task         llm.TaskType
	Reference    string
	Model        string
	Temperature  float64
	LatencyMs    int64
	SystemPrompt string
	UserPrompt   string
	Response     string
	Decoder      string
	At           time.Time
}

// Sink receives every exchange for debugging. It is purely observational:
// errors are logged by the extractor and never change its result.
type Sink interface {
	Save(ex Exchange) error
}

// FileSink writes one markdown file per exchange into Dir, named
// <YYYYMMDD_HHMMSS>_<task>_<reference>.md.
type FileSink struct {
	Dir string
}

func NewFileSink(dir string) *FileSink {
	return &FileSink{Dir: dir}
}

type sinkMeta struct {
	ID                   string  `yaml:"id"`
	Type                 string  `yaml:"type"`
	Date                 string  `yaml:"date"`
	Model                string  `yaml:"model"`
	Temperature          float64 `yaml:"temperature"`
	LatencyMs            int64   `yaml:"latency_ms"`
	Decoder              string  `yaml:"decoder"`
	Reference            string  `yaml:"reference,omitempty"`
	PromptTokensApprox   int     `yaml:"prompt_tokens_approx"`
	ResponseTokensApprox int     `yaml:"response_tokens_approx"`
}

func (s *FileSink) Save(ex Exchange) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("creating debug dir: %w", err)
	}

	id := uuid.New().String()
	base := ex.At.Format("20060102_150405") + "_" + string(ex.Task)
	if ref := sanitizeRef(ex.Reference); ref != "" {
		base += "_" + ref
	}

	f, err := os.OpenFile(filepath.Join(s.Dir, base+".md"), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		f, err = os.OpenFile(filepath.Join(s.Dir, base+"_"+id[:8]+".md"), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	}
	if err != nil {
		return fmt.Errorf("creating debug file: %w", err)
	}
	defer f.Close()

	_, err = f.Write(renderExchange(id, ex))
	return err
}

func renderExchange(id string, ex Exchange) []byte {
	meta := sinkMeta{
		ID:                   id,
		Type:                 string(ex.Task),
		Date:                 ex.At.Format("2006-01-02 15:04:05"),
		Model:                ex.Model,
		Temperature:          ex.Temperature,
		LatencyMs:            ex.LatencyMs,
		Decoder:              ex.Decoder,
		Reference:            ex.Reference,
		PromptTokensApprox:   (len(ex.SystemPrompt) + len(ex.UserPrompt)) / 4,
		ResponseTokensApprox: len(ex.Response) / 4,
	}
	front, _ := yaml.Marshal(meta)

	var b bytes.Buffer
	b.WriteString("---\n")
	b.Write(front)
	b.WriteString("---\n\n")
	fmt.Fprintf(&b, "# LLM Conversation Debug: %s\n\n", ex.Task)
	b.WriteString("## Messages\n\n")
	fmt.Fprintf(&b, "### 1. SYSTEM\n\n```\n%s\n```\n\n", ex.SystemPrompt)
	fmt.Fprintf(&b, "### 2. USER\n\n```\n%s\n```\n\n", ex.UserPrompt)
	fmt.Fprintf(&b, "## Response\n\n```\n%s\n```\n\n", ex.Response)
	b.WriteString("## JSON Parsing Check\n\n")
	b.WriteString(jsonCheck(ex.Response))
	return b.Bytes()
}

// jsonCheck reports whether resp is strict JSON and, if not, where it breaks.
func jsonCheck(resp string) string {
	var v any
	err := json.Unmarshal([]byte(strings.TrimSpace(resp)), &v)
	if err == nil {
		pretty, _ := json.MarshalIndent(v, "", "  ")
		return fmt.Sprintf("✅ JSON successfully parsed\n\n```json\n%s\n```\n", pretty)
	}

	var syntax *json.SyntaxError
	if !errors.As(err, &syntax) {
		return fmt.Sprintf("❌ JSON parsing failed: %v\n", err)
	}
	trimmed := strings.TrimSpace(resp)
	pos := int(syntax.Offset)
	start, end := max(0, pos-50), min(len(trimmed), pos+50)
	marker := strings.Repeat(" ", max(0, pos-start-1)) + "^ ERROR HERE"
	return fmt.Sprintf("❌ JSON parsing failed: %v\n\n```\n%s\n%s\n```\n", err, trimmed[start:end], marker)
}

func sanitizeRef(ref string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == ' ' || r == '/' || r == '\\' || r == ':':
			return -1
		default:
			return r
		}
	}, ref)
}
