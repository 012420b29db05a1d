package domain

import "strings"

// CoalesceStr returns the first non-blank string from vals.
func CoalesceStr(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// CollapseWhitespace trims s and folds runs of whitespace into one space.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
