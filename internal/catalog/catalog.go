// Package catalog loads the read-only reference tables a trainer editor
// offers choices from: the item catalog and the species display names.
//
// Both loaders treat a missing file as "no table" and return (nil, nil);
// callers decide whether that is fatal.
package catalog

import (
	"bufio"
	"errors"
	"io/fs"
	"os"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	apperrors "trainer-editor/internal/errors"
)

// NoItem is the only entry of the fallback catalog.
const NoItem = "ITEM_NONE"

// Entry is one item of the catalog.
type Entry struct {
	ID    string `yaml:"id"`
	Label string `yaml:"label"`
}

// Catalog is an ordered id<->label mapping. The zero value is empty.
type Catalog struct {
	Entries []Entry
	byID    map[string]int
	byLabel map[string]int
}

var (
	reItemID  = regexp.MustCompile(`\.itemId\s*=\s*(ITEM_\w+)`)
	reOrgName = regexp.MustCompile(`^\s*#org\s+@NAME_(\w+)`)
)

// New builds a catalog from ids in order. Duplicate ids keep the first
// occurrence.
func New(ids []string) *Catalog {
	c := &Catalog{byID: make(map[string]int), byLabel: make(map[string]int)}
	for _, id := range ids {
		if _, dup := c.byID[id]; dup {
			continue
		}
		e := Entry{ID: id, Label: Label(id)}
		c.byID[id] = len(c.Entries)
		if _, taken := c.byLabel[e.Label]; !taken {
			c.byLabel[e.Label] = len(c.Entries)
		}
		c.Entries = append(c.Entries, e)
	}
	return c
}

// LoadItems scans an item table for ".itemId = ITEM_<X>" assignments.
func LoadItems(path string) (*Catalog, error) {
	b, err := readOptional(path)
	if err != nil || b == nil {
		return nil, err
	}
	var ids []string
	for _, m := range reItemID.FindAllStringSubmatch(string(b), -1) {
		ids = append(ids, m[1])
	}
	return New(ids), nil
}

// OrDefault returns c, or a catalog holding only ITEM_NONE when c is nil
// or empty.
func (c *Catalog) OrDefault() *Catalog {
	if c == nil || len(c.Entries) == 0 {
		return New([]string{NoItem})
	}
	return c
}

// Len reports the number of entries.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Entries)
}

// Label returns the display label for id, and whether id is known.
func (c *Catalog) Label(id string) (string, bool) {
	if c == nil {
		return "", false
	}
	i, ok := c.byID[id]
	if !ok {
		return "", false
	}
	return c.Entries[i].Label, true
}

// ID returns the item id for a display label. Matching is case-insensitive.
func (c *Catalog) ID(label string) (string, bool) {
	if c == nil {
		return "", false
	}
	if i, ok := c.byLabel[Label("ITEM_"+strings.ReplaceAll(strings.TrimSpace(label), " ", "_"))]; ok {
		return c.Entries[i].ID, true
	}
	return "", false
}

// Label derives the display label of an item id:
// ITEM_POKE_BALL -> "Poke Ball".
func Label(id string) string {
	s := strings.TrimPrefix(id, "ITEM_")
	s = strings.ReplaceAll(s, "_", " ")
	// A Caser holds state, so each call gets its own.
	return cases.Title(language.English).String(strings.ToLower(s))
}

// LoadSpeciesNames reads a species name string table:
//
//	#org @NAME_BULBASAUR
//	Bulbasaur
//
// The result maps SPECIES_BULBASAUR to "Bulbasaur".
func LoadSpeciesNames(path string) (map[string]string, error) {
	b, err := readOptional(path)
	if err != nil || b == nil {
		return nil, err
	}
	out := make(map[string]string)
	sc := bufio.NewScanner(strings.NewReader(string(b)))
	pending := ""
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if m := reOrgName.FindStringSubmatch(line); m != nil {
			pending = "SPECIES_" + m[1]
			continue
		}
		if pending == "" {
			continue
		}
		if _, dup := out[pending]; !dup {
			out[pending] = strings.TrimSpace(line)
		}
		pending = ""
	}
	if err := sc.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeMalformedRecord, "read "+path, err)
	}
	return out, nil
}

// readOptional returns (nil, nil) for a missing file.
func readOptional(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		if st, serr := os.Stat(path); serr == nil && st.IsDir() {
			return nil, apperrors.New(apperrors.CodeNotAFile, "not a file: "+path)
		}
		return nil, apperrors.Wrap(apperrors.CodeMalformedRecord, "read "+path, err)
	}
	return b, nil
}
