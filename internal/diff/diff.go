// Package diff renders unified diffs of table files before and after a
// patch. It uses github.com/pmezard/go-difflib/difflib to produce classic
// unified output (---/+++ headers, @@ hunks, lines prefixed with ' ', '-',
// '+').
package diff

import (
	"fmt"
	"strings"

	difflib "github.com/pmezard/go-difflib/difflib"
)

// Options controls diff generation.
type Options struct {
	// MaxBytes is a guardrail on input size (old+new). When exceeded, a
	// placeholder is returned and oversize is true. 0 means no limit.
	MaxBytes int

	// Context is the number of context lines around each hunk. 0 means 3.
	Context int
}

// Unified produces a unified diff for a->b. It returns "" when the inputs
// are equal.
func Unified(aName, bName string, a, b []byte, opt Options) (body string, oversize bool) {
	if string(a) == string(b) {
		return "", false
	}
	if opt.MaxBytes > 0 && len(a)+len(b) > opt.MaxBytes {
		return omitted(aName, bName), true
	}
	ctx := opt.Context
	if ctx <= 0 {
		ctx = 3
	}
	u := difflib.UnifiedDiff{
		A:        splitLinesKeepNL(string(a)),
		B:        splitLinesKeepNL(string(b)),
		FromFile: aName,
		ToFile:   bName,
		Context:  ctx,
	}
	s, err := difflib.GetUnifiedDiffString(u)
	if err != nil || s == "" {
		return omitted(aName, bName), false
	}
	return s, false
}

// Stat counts added and removed lines in a unified diff body.
func Stat(body string) (added, removed int) {
	for _, ln := range strings.Split(body, "\n") {
		switch {
		case strings.HasPrefix(ln, "+++"), strings.HasPrefix(ln, "---"):
		case strings.HasPrefix(ln, "+"):
			added++
		case strings.HasPrefix(ln, "-"):
			removed++
		}
	}
	return added, removed
}

// splitLinesKeepNL splits into lines and keeps newline characters. CRLF
// endings stay on the line, so a line-ending change shows up as a change.
func splitLinesKeepNL(s string) []string {
	if s == "" {
		return []string{}
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func omitted(aName, bName string) string {
	return fmt.Sprintf("--- %s\n+++ %s\n@@\n# diff omitted\n", aName, bName)
}
