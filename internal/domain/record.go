package domain

import "time"

// Transcript is the immutable text handed to extraction.
type Transcript struct {
	Text        string
	SourceDate  *time.Time
	SourceAudio string
	Language    string
	Duration    time.Duration
}

// Record is the six-field structured result of content extraction.
type Record struct {
	Project   string `json:"project"`
	Summary   string `json:"summary"`
	Completed string `json:"completed"`
	Blockers  string `json:"blockers"`
	NextSteps string `json:"next_steps"`
	Thoughts  string `json:"thoughts"`
}

// ProjectOrUnknown returns the record's project, defaulting to Unknown.
func (r Record) ProjectOrUnknown() string {
	return CoalesceStr(r.Project, Unknown)
}

// DocumentHandle describes a daily document written to the vault.
type DocumentHandle struct {
	Path           string
	Name           string
	Project        string
	Date           time.Time
	TranscriptPath string // empty when transcript persistence is off
	Collided       bool
}

// Ref is the wiki-link target of the document (its name without extension).
func (h DocumentHandle) Ref() string {
	return trimExt(h.Name)
}

// DailyDocument is a daily document read back from disk.
type DailyDocument struct {
	Path    string
	Name    string
	Date    time.Time
	Project string
	Record  Record
}

func (d DailyDocument) Ref() string {
	return trimExt(d.Name)
}

func trimExt(name string) string {
	for i := len(name) - 1; i >= 0 && name[i] != '/'; i-- {
		if name[i] == '.' {
			return name[:i]
		}
	}
	return name
}
