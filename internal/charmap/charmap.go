// Package charmap converts between display text and the symbolic character
// tokens used inside trainer name initializers:
//
//	.trainerName = {_B, _u, _g, _SPACE, _C, _END},
//
// Encoding is strict: a rune without a token is rejected. Decoding is
// permissive: unknown tokens decode to nothing, so files written with
// tokens outside this table still open.
package charmap

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	apperrors "trainer-editor/internal/errors"
)

// Sentinel is the token terminating every encoded name.
const Sentinel = "_END"

// Pair maps one token to its display text. DecodeOnly pairs are ligatures
// (one token, several runes) that are read but never produced.
type Pair struct {
	Token      string
	Char       string
	DecodeOnly bool
}

// Table is an immutable bidirectional token map. Build it once and pass it
// to whoever needs to encode or decode names.
type Table struct {
	sentinel string
	toChar   map[string]string
	toToken  map[rune]string
}

// New builds a Table from pairs. Encodable pairs must be a single rune and
// the mapping must be injective in both directions.
func New(sentinel string, pairs []Pair) (*Table, error) {
	t := &Table{
		sentinel: sentinel,
		toChar:   make(map[string]string, len(pairs)),
		toToken:  make(map[rune]string, len(pairs)),
	}
	for _, p := range pairs {
		if p.Token == "" || p.Token == sentinel {
			return nil, fmt.Errorf("charmap: invalid token %q", p.Token)
		}
		if _, dup := t.toChar[p.Token]; dup {
			return nil, fmt.Errorf("charmap: duplicate token %q", p.Token)
		}
		t.toChar[p.Token] = p.Char
		if p.DecodeOnly {
			continue
		}
		r, size := utf8.DecodeRuneInString(p.Char)
		if size == 0 || size != len(p.Char) {
			return nil, fmt.Errorf("charmap: token %s must map to one rune, got %q", p.Token, p.Char)
		}
		if prev, dup := t.toToken[r]; dup {
			return nil, fmt.Errorf("charmap: %q mapped by both %s and %s", p.Char, prev, p.Token)
		}
		t.toToken[r] = p.Token
	}
	return t, nil
}

// Standard returns the table for the GBA character set used by CFRU-style
// projects.
func Standard() *Table {
	t, err := New(Sentinel, standardPairs())
	if err != nil {
		panic(err)
	}
	return t
}

func standardPairs() []Pair {
	pairs := make([]Pair, 0, 80)
	for c := 'A'; c <= 'Z'; c++ {
		pairs = append(pairs, Pair{Token: "_" + string(c), Char: string(c)})
	}
	for c := 'a'; c <= 'z'; c++ {
		pairs = append(pairs, Pair{Token: "_" + string(c), Char: string(c)})
	}
	for c := '0'; c <= '9'; c++ {
		pairs = append(pairs, Pair{Token: "_" + string(c), Char: string(c)})
	}
	pairs = append(pairs,
		Pair{Token: "_SPACE", Char: " "},
		Pair{Token: "_PERIOD", Char: "."},
		Pair{Token: "_EXCLAMATION", Char: "!"},
		Pair{Token: "_QUESTION", Char: "?"},
		Pair{Token: "_HYPHEN", Char: "-"},
		Pair{Token: "_AMPERSAND", Char: "&"},
		Pair{Token: "_APOSTROPHE", Char: "'"},
		Pair{Token: "_TIMES", Char: "×"},
		Pair{Token: "_NEWLINE", Char: "\n"},
		Pair{Token: "_AT", Char: "@"},
		Pair{Token: "_eACUTE", Char: "é"},
		Pair{Token: "_PO", Char: "PO", DecodeOnly: true},
		Pair{Token: "_KE", Char: "KE", DecodeOnly: true},
		Pair{Token: "_BL", Char: "BL", DecodeOnly: true},
		Pair{Token: "_OC", Char: "OC", DecodeOnly: true},
		Pair{Token: "_OK", Char: "OK", DecodeOnly: true},
	)
	return pairs
}

// Encode converts text to tokens and appends the sentinel. It fails with
// CodeInvalidCharacter on the first rune without a token and returns no
// partial result.
func (t *Table) Encode(text string) ([]string, error) {
	out := make([]string, 0, utf8.RuneCountInString(text)+1)
	pos := 0
	for _, r := range text {
		tok, ok := t.toToken[r]
		if !ok {
			return nil, apperrors.WithMetadata(
				apperrors.CodeInvalidCharacter,
				fmt.Sprintf("character %q at position %d has no token", r, pos),
				map[string]string{"rune": string(r), "position": strconv.Itoa(pos)},
			)
		}
		out = append(out, tok)
		pos++
	}
	return append(out, t.sentinel), nil
}

// Decode converts tokens back to text. It stops at the first sentinel and
// skips empty or unknown tokens.
func (t *Table) Decode(tokens []string) string {
	var b strings.Builder
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok == t.sentinel {
			break
		}
		if c, ok := t.toChar[tok]; ok {
			b.WriteString(c)
		}
	}
	return b.String()
}

// Valid reports the first rune of text that cannot be encoded.
func (t *Table) Valid(text string) (bad rune, ok bool) {
	for _, r := range text {
		if _, known := t.toToken[r]; !known {
			return r, false
		}
	}
	return 0, true
}

// ParseTokens splits the inside of a braced token list ("{_A, _B, _END}"
// or "_A, _B, _END") into trimmed tokens. Empty entries are dropped.
func ParseTokens(list string) []string {
	list = strings.TrimSpace(list)
	list = strings.TrimPrefix(list, "{")
	list = strings.TrimSuffix(list, "}")
	var out []string
	for _, part := range strings.Split(list, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// FormatTokens renders tokens as a braced initializer list.
func FormatTokens(tokens []string) string {
	return "{" + strings.Join(tokens, ", ") + "}"
}
