package service

import (
	"path/filepath"
	"regexp"
	"time"
)

var sourceDatePatterns = []struct {
	re     *regexp.Regexp
	layout string
}{
	{regexp.MustCompile(`Daily_Log_(\d{2}-\d{2}-\d{4})`), "02-01-2006"},
	{regexp.MustCompile(`(\d{4}-\d{2}-\d{2})`), "2006-01-02"},
	{regexp.MustCompile(`(\d{2}-\d{2}-\d{4})`), "02-01-2006"},
}

// SourceDateFromFilename finds the recording date embedded in a file name.
// Patterns are tried in order and a match that is not a real calendar date
// is skipped.
func SourceDateFromFilename(name string) (time.Time, bool) {
	base := filepath.Base(name)
	for _, p := range sourceDatePatterns {
		m := p.re.FindStringSubmatch(base)
		if m == nil {
			continue
		}
		if d, err := time.Parse(p.layout, m[1]); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}
