package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SchemaValidator validates a parsed struct after JSON extraction.
// Returns nil if valid, or a descriptive error if invalid.
type SchemaValidator[T any] func(T) error

// ExtractJSON extracts a JSON object of type T from raw LLM text output.
// It handles markdown code fences, leading/trailing text, and nested braces.
// If validator is non-nil, the extracted value is validated before return.
func ExtractJSON[T any](raw string, validator SchemaValidator[T]) (T, error) {
	var zero T

	block := findJSON(raw, '{', '}')
	if block == "" {
		return zero, fmt.Errorf("%w: no JSON object found in response", ErrInvalidOutput)
	}

	var result T
	if err := json.Unmarshal([]byte(block), &result); err != nil {
		return zero, fmt.Errorf("%w: %v", ErrInvalidOutput, err)
	}

	if validator != nil {
		if err := validator(result); err != nil {
			return zero, fmt.Errorf("%w: validation failed: %v", ErrInvalidOutput, err)
		}
	}

	return result, nil
}

// ExtractJSONArray extracts the first JSON array from raw LLM output and
// decodes its elements as T. An empty array is a valid, empty result.
func ExtractJSONArray[T any](raw string) ([]T, error) {
	block := findJSON(raw, '[', ']')
	if block == "" {
		return nil, fmt.Errorf("%w: no JSON array found in response", ErrInvalidOutput)
	}

	var result []T
	if err := json.Unmarshal([]byte(block), &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOutput, err)
	}
	return result, nil
}

// findJSON cleans raw output and returns the first balanced block delimited
// by open/close, with comments and leading-decimal numbers repaired.
func findJSON(raw string, open, close byte) string {
	block := balancedBlock(stripCodeFences(raw), open, close)
	if block == "" {
		return ""
	}
	block = stripJSONComments(block)
	return normalizeLeadingDecimalNumbers(block)
}

// stripCodeFences removes markdown code fence lines (```json, ```).
func stripCodeFences(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// balancedBlock finds the first balanced open ... close block in the text,
// ignoring delimiters inside string literals.
func balancedBlock(s string, open, close byte) string {
	start := strings.IndexByte(s, open)
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]

		if escaped {
			escaped = false
			continue
		}
		if c == '\\' && inString {
			escaped = true
			continue
		}
		if c == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}

		switch c {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}

	return ""
}

// scanOutsideStrings walks s and calls fn for every byte outside a JSON
// string literal. fn returns how many bytes it consumed (0 means "copy c").
func scanOutsideStrings(s string, fn func(s string, i int, b *strings.Builder) int) string {
	var b strings.Builder
	b.Grow(len(s) + 8)

	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]

		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case !inString:
			if n := fn(s, i, &b); n > 0 {
				i += n - 1
				continue
			}
		}
		b.WriteByte(c)
	}

	return b.String()
}

// stripJSONComments removes // and /* */ comments outside of string values.
// Models sometimes emit comments in JSON output despite instructions not to.
func stripJSONComments(s string) string {
	return scanOutsideStrings(s, func(s string, i int, _ *strings.Builder) int {
		if s[i] != '/' || i+1 >= len(s) {
			return 0
		}
		switch s[i+1] {
		case '/':
			end := strings.IndexByte(s[i:], '\n')
			if end == -1 {
				return len(s) - i
			}
			return end
		case '*':
			end := strings.Index(s[i+2:], "*/")
			if end == -1 {
				return len(s) - i
			}
			return end + 4
		}
		return 0
	})
}

// normalizeLeadingDecimalNumbers rewrites ".8" or "-.3" into "0.8" and "-0.3"
// outside string values.
func normalizeLeadingDecimalNumbers(s string) string {
	return scanOutsideStrings(s, func(s string, i int, b *strings.Builder) int {
		if s[i] == '.' && i+1 < len(s) && isDigit(s[i+1]) && isNumericBoundary(prevNonSpace(s, i-1)) {
			b.WriteString("0.")
			return 1
		}
		return 0
	})
}

func prevNonSpace(s string, i int) byte {
	for ; i >= 0; i-- {
		if s[i] != ' ' && s[i] != '\n' && s[i] != '\r' && s[i] != '\t' {
			return s[i]
		}
	}
	return 0
}

func isNumericBoundary(c byte) bool {
	switch c {
	case 0, ':', ',', '[', '{', '-':
		return true
	default:
		return false
	}
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
