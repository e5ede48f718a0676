package textutil

import (
	"strings"
	"testing"
)

func TestSplitLinesRoundTrip(t *testing.T) {
	for _, s := range []string{"", "a", "a\n", "a\r\nb\r\n", "a\n\nb", "\n"} {
		if got := JoinLines(SplitLines(s)); got != s {
			t.Fatalf("round trip %q -> %q", s, got)
		}
	}
	if n := len(SplitLines("a\nb\n")); n != 2 {
		t.Fatalf("expected 2 lines, got %d", n)
	}
}

func TestTrimEOL(t *testing.T) {
	cases := map[string][2]string{
		"x\r\n": {"x", "\r\n"},
		"x\n":   {"x", "\n"},
		"x":     {"x", ""},
	}
	for in, want := range cases {
		c, e := TrimEOL(in)
		if c != want[0] || e != want[1] {
			t.Fatalf("TrimEOL(%q) = %q,%q", in, c, e)
		}
	}
	if DetectEOL([]string{"a\r\n", "b\n"}) != "\r\n" {
		t.Fatalf("DetectEOL should pick first terminator")
	}
	if DetectEOL([]string{"a"}) != "\n" {
		t.Fatalf("DetectEOL default should be LF")
	}
}

func TestLexerAndDepthIgnoreCommentsAndLiterals(t *testing.T) {
	var lx Lexer
	lines := []string{
		`.items = {}, // closes }`,
		`.x = '{', .s = "}{",`,
		`/* { start`,
		`   still } comment */ {`,
		`}`,
	}
	want := []int{0, 0, 0, 1, -1}
	for i, l := range lines {
		code := lx.Code(l)
		if len(code) != len(l) {
			t.Fatalf("line %d: length changed", i)
		}
		if got := Depth(code); got != want[i] {
			t.Fatalf("line %d: Depth = %d, want %d", i, got, want[i])
		}
	}
}

func TestCloseAtFindsClosingBrace(t *testing.T) {
	line := "    .party = {.A = b}}, // tail"
	at := CloseAt(StripComments(line), 1)
	if at < 0 || line[:at] != "    .party = {.A = b}" {
		t.Fatalf("CloseAt = %d", at)
	}
	if CloseAt("{ }", 2) != -1 {
		t.Fatalf("depth 2 should not close on a balanced line")
	}
}

func TestMatchBraceMultiline(t *testing.T) {
	s := "x[] = {\n  { .lvl = 5 }, // }\n  /* } */ { .lvl = 6 }\n};"
	open := strings.Index(s, "{")
	end := MatchBrace(s, open)
	if end < 0 || s[end:] != "};" {
		t.Fatalf("MatchBrace = %d", end)
	}
	if MatchBrace("{ never", 0) != -1 {
		t.Fatalf("unterminated should be -1")
	}
}

func TestStripCommentsKeepsOffsets(t *testing.T) {
	s := "a // c1\nb /* c2\nc2 */ d \"// not\""
	got := StripComments(s)
	if len(got) != len(s) {
		t.Fatalf("length changed")
	}
	if strings.Contains(got, "c1") || strings.Contains(got, "c2") {
		t.Fatalf("comments left: %q", got)
	}
	if !strings.Contains(got, "\"// not\"") {
		t.Fatalf("string literal damaged: %q", got)
	}
	if strings.Count(got, "\n") != 2 {
		t.Fatalf("newlines changed: %q", got)
	}
}
