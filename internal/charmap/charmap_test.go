package charmap

import (
	"reflect"
	"testing"

	apperrors "trainer-editor/internal/errors"
)

func TestEncodeBugCatcher(t *testing.T) {
	tbl := Standard()
	got, err := tbl.Encode("Bug C")
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	want := []string{"_B", "_u", "_g", "_SPACE", "_C", "_END"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Encode = %v, want %v", got, want)
	}
	if FormatTokens(got) != "{_B, _u, _g, _SPACE, _C, _END}" {
		t.Fatalf("FormatTokens = %s", FormatTokens(got))
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	tbl := Standard()
	for _, s := range []string{"", "Bug C", "Mr. Fuji!", "Jo-Ann's", "A&B 9?", "Café @2×", "line\nbreak"} {
		toks, err := tbl.Encode(s)
		if err != nil {
			t.Fatalf("Encode(%q): %v", s, err)
		}
		if got := tbl.Decode(toks); got != s {
			t.Fatalf("Decode(Encode(%q)) = %q", s, got)
		}
	}
}

func TestEncodeRejectsUnmappable(t *testing.T) {
	tbl := Standard()
	for _, s := range []string{"Bob#", "名前", "tab\there", "~"} {
		toks, err := tbl.Encode(s)
		if err == nil {
			t.Fatalf("Encode(%q) should fail", s)
		}
		if toks != nil {
			t.Fatalf("Encode(%q) returned partial tokens %v", s, toks)
		}
		if apperrors.CodeOf(err) != apperrors.CodeInvalidCharacter {
			t.Fatalf("Encode(%q) code = %s", s, apperrors.CodeOf(err))
		}
	}
}

func TestDecodeIsPermissive(t *testing.T) {
	tbl := Standard()
	cases := []struct {
		name   string
		tokens []string
		want   string
	}{
		{"stops at sentinel", []string{"_H", "_i", "_END", "_X"}, "Hi"},
		{"drops unknown", []string{"_A", "_FANCY_QUOTE", "_B", "_END"}, "AB"},
		{"skips empty", []string{"_A", "", " ", "_B"}, "AB"},
		{"ligature", []string{"_PO", "_KE", "_m", "_o", "_n", "_END"}, "POKEmon"},
		{"no sentinel", []string{"_O", "_k"}, "Ok"},
		{"only sentinel", []string{"_END"}, ""},
	}
	for _, tc := range cases {
		if got := tbl.Decode(tc.tokens); got != tc.want {
			t.Fatalf("%s: Decode = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestParseTokens(t *testing.T) {
	got := ParseTokens("{_B, _u,_g , _END, }")
	want := []string{"_B", "_u", "_g", "_END"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ParseTokens = %v", got)
	}
	if ParseTokens("{}") != nil {
		t.Fatalf("empty list should parse to nil")
	}
}

func TestNewRejectsAmbiguousTables(t *testing.T) {
	if _, err := New(Sentinel, []Pair{{Token: "_A", Char: "A"}, {Token: "_A2", Char: "A"}}); err == nil {
		t.Fatalf("expected duplicate rune error")
	}
	if _, err := New(Sentinel, []Pair{{Token: "_A", Char: "A"}, {Token: "_A", Char: "a"}}); err == nil {
		t.Fatalf("expected duplicate token error")
	}
	if _, err := New(Sentinel, []Pair{{Token: "_AB", Char: "AB"}}); err == nil {
		t.Fatalf("expected multi-rune error for encodable pair")
	}
	if _, err := New(Sentinel, []Pair{{Token: Sentinel, Char: ""}}); err == nil {
		t.Fatalf("sentinel must not be a pair")
	}
}

func TestValid(t *testing.T) {
	tbl := Standard()
	if _, ok := tbl.Valid("Brock"); !ok {
		t.Fatalf("Brock should be valid")
	}
	if r, ok := tbl.Valid("Br#ck"); ok || r != '#' {
		t.Fatalf("Valid = %q, %v", r, ok)
	}
}
