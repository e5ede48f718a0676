// Package textutil holds the line and lexical helpers shared by the record
// scanner, the roster resolver and the patch writer. Nothing here knows the
// table format; it only understands C comments, string literals and braces.
package textutil

import "strings"

// SplitLines splits s after every '\n', keeping the line terminators so that
// joining the result reproduces s exactly. A trailing chunk without '\n' is
// kept; an empty input yields no lines.
func SplitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// JoinLines is the inverse of SplitLines.
func JoinLines(lines []string) string {
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l)
	}
	return b.String()
}

// TrimEOL separates a line from its terminator ("\n", "\r\n" or "").
func TrimEOL(line string) (content, eol string) {
	switch {
	case strings.HasSuffix(line, "\r\n"):
		return line[:len(line)-2], "\r\n"
	case strings.HasSuffix(line, "\n"):
		return line[:len(line)-1], "\n"
	}
	return line, ""
}

// DetectEOL returns the terminator used by the first terminated line, or
// "\n" when there is none.
func DetectEOL(lines []string) string {
	for _, l := range lines {
		if _, eol := TrimEOL(l); eol != "" {
			return eol
		}
	}
	return "\n"
}

// Lexer blanks out C comments. Block comment state carries across calls, so
// feed it lines in order.
type Lexer struct {
	inBlock bool
}

// Code returns s with every comment byte replaced by a space. Newlines,
// string literals and offsets are preserved.
func (l *Lexer) Code(s string) string {
	var b []byte // allocated on first comment
	blank := func(from, to int) {
		if b == nil {
			b = []byte(s)
		}
		for k := from; k < to; k++ {
			if b[k] != '\n' {
				b[k] = ' '
			}
		}
	}
	for i := 0; i < len(s); i++ {
		if l.inBlock {
			end := strings.Index(s[i:], "*/")
			if end < 0 {
				blank(i, len(s))
				break
			}
			blank(i, i+end+2)
			l.inBlock = false
			i += end + 1
			continue
		}
		switch {
		case s[i] == '"' || s[i] == '\'':
			i = skipLiteral(s, i)
		case s[i] == '/' && i+1 < len(s) && s[i+1] == '/':
			end := strings.IndexByte(s[i:], '\n')
			if end < 0 {
				end = len(s) - i
			}
			blank(i, i+end)
			i += end
		case s[i] == '/' && i+1 < len(s) && s[i+1] == '*':
			blank(i, i+2)
			l.inBlock = true
			i++
		}
	}
	if b == nil {
		return s
	}
	return string(b)
}

// StripComments blanks every comment in a complete text.
func StripComments(s string) string {
	var l Lexer
	return l.Code(s)
}

// Depth returns the net brace change of comment-free code, ignoring braces
// inside string and character literals.
func Depth(code string) int {
	depth := 0
	walkBraces(code, func(_ int, open bool) bool {
		if open {
			depth++
		} else {
			depth--
		}
		return true
	})
	return depth
}

// CloseAt returns the index of the '}' that brings a running depth to zero,
// or -1 when code does not close it.
func CloseAt(code string, depth int) int {
	at := -1
	walkBraces(code, func(i int, open bool) bool {
		if open {
			depth++
			return true
		}
		depth--
		if depth == 0 {
			at = i
			return false
		}
		return true
	})
	return at
}

// MatchBrace returns the index of the '}' matching the '{' at open, or -1
// if it is never closed. Comments and literals are ignored.
func MatchBrace(s string, open int) int {
	if open < 0 || open >= len(s) || s[open] != '{' {
		return -1
	}
	code := StripComments(s)
	at := CloseAt(code[open:], 0)
	if at < 0 {
		return -1
	}
	return open + at
}

func walkBraces(code string, fn func(i int, open bool) bool) {
	for i := 0; i < len(code); i++ {
		switch code[i] {
		case '"', '\'':
			i = skipLiteral(code, i)
		case '{':
			if !fn(i, true) {
				return
			}
		case '}':
			if !fn(i, false) {
				return
			}
		}
	}
}

// skipLiteral returns the index of the closing quote of the literal that
// starts at i. An unterminated literal ends before the next newline.
func skipLiteral(s string, i int) int {
	q := s[i]
	for j := i + 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case '\n':
			return j - 1
		case q:
			return j
		}
	}
	return len(s) - 1
}
