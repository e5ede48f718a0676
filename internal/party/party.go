// Package party resolves trainer party rosters from a party table source.
//
// A roster is an array declaration whose body is either an initializer list
// or the name of a multi-line object macro defined in the same file:
//
//	#define PARTY_RATTATA \
//	    {                 \
//	        .lvl = 5,     \
//	        .species = SPECIES_RATTATA, \
//	    },
//
//	static const struct TrainerMonNoItemDefaultMoves sParty_Foo[] = { PARTY_RATTATA };
//
// Entry order is source order and is kept on round trip.
package party

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"trainer-editor/internal/scan"
	"trainer-editor/internal/textutil"
)

// MinLevel and MaxLevel bound a party member's level.
const (
	MinLevel = 1
	MaxLevel = 100
)

// Member is one entry of a roster.
type Member struct {
	Species  string   `yaml:"species"`
	Level    int      `yaml:"level"`
	IV       string   `yaml:"iv,omitempty"`
	HeldItem string   `yaml:"heldItem,omitempty"`
	Moves    []string `yaml:"moves,omitempty"`
}

// Roster is a named, ordered party.
type Roster struct {
	Name    string   `yaml:"name"`
	Struct  string   `yaml:"struct,omitempty"` // element struct type of the declaration
	Macro   string   `yaml:"macro,omitempty"`  // macro the body referenced, if any
	Members []Member `yaml:"members"`
	index   int
}

// Decl locates one "<anything> name[] = { body };" declaration. Offsets are
// byte offsets into the text the declaration was found in.
type Decl struct {
	Name   string
	Struct string
	Head   int // start of the declaration's first line
	Open   int // the opening '{'
	Close  int // the matching '}'
	End    int // just past the terminating ';' (or Close+1 if absent)
}

var (
	reDecl     = regexp.MustCompile(`(?m)^[^\n;{}#]*?\b([A-Za-z_]\w*)\s*\[\s*\]\s*=\s*\{`)
	reStruct   = regexp.MustCompile(`\bstruct\s+([A-Za-z_]\w*)`)
	reMacroDef = regexp.MustCompile(`^\s*#\s*define\s+([A-Za-z_]\w*)(?:\s+(.*?))?\s*\\\s*$`)
	reLvl      = regexp.MustCompile(`\.lvl\s*=\s*(\d+)`)
	reSpecies  = regexp.MustCompile(`\.species\s*=\s*(\w+)`)
	reIV       = regexp.MustCompile(`\.iv\s*=\s*(\w+)`)
	reHeld     = regexp.MustCompile(`\.heldItem\s*=\s*(\w+)`)
	reMoves    = regexp.MustCompile(`\.moves\s*=\s*\{([^}]*)\}`)
)

// LoadRosters reads path and resolves every roster in it.
func LoadRosters(path string) (map[string]Roster, error) {
	lines, err := scan.ReadLines(path)
	if err != nil {
		return nil, err
	}
	return ParseRosters(textutil.JoinLines(lines)), nil
}

// ParseRosters resolves rosters from source text in two passes: macros
// first, then array declarations.
func ParseRosters(text string) map[string]Roster {
	macros := Macros(text)
	code := textutil.StripComments(text)
	out := make(map[string]Roster)
	for i, d := range Declarations(code) {
		body := strings.TrimSpace(code[d.Open+1 : d.Close])
		r := Roster{Name: d.Name, Struct: d.Struct, index: i}
		ref := strings.TrimRight(body, ", \t\r\n")
		if ms, ok := macros[ref]; ok {
			r.Macro = ref
			r.Members = append([]Member(nil), ms...)
		} else {
			r.Members = ParseMembers(body)
		}
		if _, dup := out[d.Name]; !dup {
			out[d.Name] = r
		}
	}
	return out
}

// Names returns roster names in declaration order.
func Names(rosters map[string]Roster) []string {
	names := make([]string, 0, len(rosters))
	for n := range rosters {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return rosters[names[i]].index < rosters[names[j]].index })
	return names
}

// Declarations finds roster array declarations in comment-free code.
func Declarations(code string) []Decl {
	var out []Decl
	for _, m := range reDecl.FindAllStringSubmatchIndex(code, -1) {
		open := m[1] - 1
		closeAt := matchBrace(code, open)
		if closeAt < 0 {
			continue
		}
		end := closeAt + 1
		if j := skipSpace(code, end); j < len(code) && code[j] == ';' {
			end = j + 1
		}
		d := Decl{Name: code[m[2]:m[3]], Head: m[0], Open: open, Close: closeAt, End: end}
		if sm := reStruct.FindStringSubmatch(code[m[0]:m[2]]); sm != nil {
			d.Struct = sm[1]
		}
		out = append(out, d)
	}
	return out
}

// Macros collects object-like macros whose replacement text continues over
// several lines and holds at least one species/level entry.
func Macros(text string) map[string][]Member {
	lines := textutil.SplitLines(textutil.StripComments(text))
	out := make(map[string][]Member)
	for i := 0; i < len(lines); i++ {
		content, _ := textutil.TrimEOL(lines[i])
		m := reMacroDef.FindStringSubmatch(content)
		if m == nil {
			continue
		}
		var repl strings.Builder
		repl.WriteString(m[2])
		for i+1 < len(lines) {
			i++
			next, _ := textutil.TrimEOL(lines[i])
			trimmed := strings.TrimRight(next, " \t")
			cont := strings.HasSuffix(trimmed, `\`)
			repl.WriteByte('\n')
			repl.WriteString(strings.TrimSuffix(trimmed, `\`))
			if !cont {
				break
			}
		}
		if ms := ParseMembers(repl.String()); len(ms) > 0 {
			out[m[1]] = ms
		}
	}
	return out
}

// ParseMembers reads species/level entries from an initializer list body.
// Each top-level brace group is one entry; groups missing .lvl or .species
// are skipped. A body without groups is read as a single entry.
func ParseMembers(body string) []Member {
	groups := topGroups(body)
	if len(groups) == 0 {
		if m, ok := parseMember(body); ok {
			return []Member{m}
		}
		return nil
	}
	var out []Member
	for _, g := range groups {
		if strings.Count(g, ".species") > 1 {
			out = append(out, ParseMembers(g)...)
			continue
		}
		if m, ok := parseMember(g); ok {
			out = append(out, m)
		}
	}
	return out
}

func parseMember(s string) (Member, bool) {
	lvl := reLvl.FindStringSubmatch(s)
	sp := reSpecies.FindStringSubmatch(s)
	if lvl == nil || sp == nil {
		return Member{}, false
	}
	n, err := strconv.Atoi(lvl[1])
	if err != nil {
		return Member{}, false
	}
	m := Member{Species: sp[1], Level: n}
	if iv := reIV.FindStringSubmatch(s); iv != nil {
		m.IV = iv[1]
	}
	if h := reHeld.FindStringSubmatch(s); h != nil {
		m.HeldItem = h[1]
	}
	if mv := reMoves.FindStringSubmatch(s); mv != nil {
		for _, p := range strings.Split(mv[1], ",") {
			if p = strings.TrimSpace(p); p != "" {
				m.Moves = append(m.Moves, p)
			}
		}
	}
	return m, true
}

// topGroups returns the inner text of each depth-0 brace group in s.
func topGroups(s string) []string {
	var out []string
	for i := 0; i < len(s); i++ {
		if s[i] != '{' {
			continue
		}
		end := matchBrace(s, i)
		if end < 0 {
			break
		}
		out = append(out, s[i+1:end])
		i = end
	}
	return out
}

// Format renders a roster body, braces included, for the given variant.
// Lines are indented with four spaces and terminated by eol.
func Format(members []Member, v Variant, eol string) string {
	var b strings.Builder
	b.WriteString("{" + eol)
	for _, m := range members {
		b.WriteString("    {" + eol)
		if m.IV != "" {
			fmt.Fprintf(&b, "        .iv = %s,%s", m.IV, eol)
		}
		fmt.Fprintf(&b, "        .lvl = %d,%s", m.Level, eol)
		fmt.Fprintf(&b, "        .species = %s,%s", m.Species, eol)
		if v.HasItem() && m.HeldItem != "" {
			fmt.Fprintf(&b, "        .heldItem = %s,%s", m.HeldItem, eol)
		}
		if v.CustomMoves() && len(m.Moves) > 0 {
			fmt.Fprintf(&b, "        .moves = {%s},%s", strings.Join(m.Moves, ", "), eol)
		}
		b.WriteString("    }," + eol)
	}
	b.WriteString("}")
	return b.String()
}

// ParseMemberSpec parses "SPECIES_X:LVL" as used on the command line.
func ParseMemberSpec(spec string) (Member, error) {
	sp, lv, ok := strings.Cut(strings.TrimSpace(spec), ":")
	if !ok || strings.TrimSpace(sp) == "" {
		return Member{}, fmt.Errorf("member %q: want SPECIES:LEVEL", spec)
	}
	n, err := strconv.Atoi(strings.TrimSpace(lv))
	if err != nil {
		return Member{}, fmt.Errorf("member %q: bad level: %w", spec, err)
	}
	return Member{Species: strings.TrimSpace(sp), Level: n}, nil
}

func skipSpace(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\r' || s[i] == '\n') {
		i++
	}
	return i
}

// matchBrace is textutil.MatchBrace for text that is already comment-free.
func matchBrace(code string, open int) int {
	at := textutil.CloseAt(code[open:], 0)
	if at < 0 {
		return -1
	}
	return open + at
}
