package cli

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/alexanderramin/daylog/internal/domain"
)

// dateValue is a YYYY-MM-DD flag. It stays nil until set.
type dateValue struct {
	t *time.Time
}

var _ pflag.Value = (*dateValue)(nil)

func (d *dateValue) Set(s string) error {
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		return fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
	}
	d.t = &t
	return nil
}

func (d *dateValue) String() string {
	if d.t == nil {
		return ""
	}
	return d.t.Format(domain.DateLayout)
}

func (d *dateValue) Type() string { return "date" }

// Time returns the parsed date, or nil when the flag was not given.
func (d *dateValue) Time() *time.Time { return d.t }
