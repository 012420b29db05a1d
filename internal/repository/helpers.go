package repository

import (
	"fmt"
	"path"
	"strings"
	"time"
)

// cleanKey validates key and returns its canonical slash form.
func cleanKey(key string) (string, error) {
	k := strings.ReplaceAll(strings.TrimSpace(key), "\\", "/")
	if k == "" || strings.HasPrefix(k, "/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	k = path.Clean(k)
	if k == "." || k == ".." || strings.HasPrefix(k, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return k, nil
}

// nowUTC returns the current UTC time formatted as RFC3339.
func nowUTC() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
