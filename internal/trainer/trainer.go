// Package trainer extracts trainer records from scanned record bodies.
//
// Each field is found by its own pattern over the whole body text; fields
// are optional and order-independent, so a missing field leaves the zero
// value in place instead of failing the record.
package trainer

import (
	"regexp"
	"strings"

	"trainer-editor/internal/charmap"
	"trainer-editor/internal/scan"
)

// Gender is the encounter gender of a trainer.
type Gender int

const (
	Male Gender = iota
	Female
)

// Symbol returns the source identifier written for g.
func (g Gender) Symbol() string {
	if g == Female {
		return "GENDER_FEMALE"
	}
	return "GENDER_MALE"
}

func (g Gender) String() string {
	if g == Female {
		return "female"
	}
	return "male"
}

// MarshalYAML writes the gender as its lower-case name.
func (g Gender) MarshalYAML() (any, error) { return g.String(), nil }

// ParseGender maps source text or user input to a Gender. Anything that is
// not recognisably female is male, which is also the zero value.
func ParseGender(s string) Gender {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "GENDER_FEMALE", "FEMALE", "F", "1":
		return Female
	}
	return Male
}

// MaxItems is the number of item slots in a trainer record.
const MaxItems = 4

// Trainer is one record of the trainer table.
type Trainer struct {
	ID           string   `yaml:"id"`
	Name         string   `yaml:"name"`
	NameTokens   []string `yaml:"-"`
	Gender       Gender   `yaml:"gender"`
	Items        []string `yaml:"items,omitempty"`
	DoubleBattle bool     `yaml:"doubleBattle"`
	PartyFlags   string   `yaml:"partyFlags,omitempty"`
	PartyRef     string   `yaml:"party,omitempty"`
	Variant      string   `yaml:"variant,omitempty"` // union selector on disk
	Class        string   `yaml:"class,omitempty"`
	Pic          string   `yaml:"pic,omitempty"`
}

// DisplayName returns the name for listings; unnamed trainers show "???".
func (t Trainer) DisplayName() string {
	if t.Name == "" {
		return "???"
	}
	return t.Name
}

// Field patterns. They are applied to the body text, never across records.
var (
	reName   = regexp.MustCompile(`\.trainerName\s*=\s*\{([^}]*)\}`)
	reGender = regexp.MustCompile(`\.gender\s*=\s*(\w+)`)
	reItems  = regexp.MustCompile(`\.items\s*=\s*\{([^}]*)\}`)
	reDouble = regexp.MustCompile(`\.doubleBattle\s*=\s*(TRUE|FALSE)\b`)
	reFlags  = regexp.MustCompile(`\.partyFlags\s*=\s*([^,\n]*)`)
	reParty  = regexp.MustCompile(`\.party\s*=\s*\{\s*\.(\w+)\s*=\s*(\w+)\s*\}`)
	reClass  = regexp.MustCompile(`\.trainerClass\s*=\s*(\w+)`)
	rePic    = regexp.MustCompile(`\.trainerPic\s*=\s*(\w+)`)
)

// Extract builds a Trainer from a scanned record.
func Extract(rec scan.Record, codec *charmap.Table) Trainer {
	body := rec.Body
	t := Trainer{ID: rec.ID}

	if m := reName.FindStringSubmatch(body); m != nil {
		t.NameTokens = charmap.ParseTokens(m[1])
		t.Name = codec.Decode(t.NameTokens)
	}
	if m := reGender.FindStringSubmatch(body); m != nil {
		t.Gender = ParseGender(m[1])
	}
	if m := reItems.FindStringSubmatch(body); m != nil {
		t.Items = splitList(m[1])
	}
	if m := reDouble.FindStringSubmatch(body); m != nil {
		t.DoubleBattle = m[1] == "TRUE"
	}
	if m := reFlags.FindStringSubmatch(body); m != nil {
		t.PartyFlags = strings.TrimSpace(m[1])
	}
	if m := reParty.FindStringSubmatch(body); m != nil {
		t.Variant = m[1]
		t.PartyRef = m[2]
	}
	if m := reClass.FindStringSubmatch(body); m != nil {
		t.Class = m[1]
	}
	if m := rePic.FindStringSubmatch(body); m != nil {
		t.Pic = m[1]
	}
	return t
}

// Load scans path and extracts every live trainer in source order.
func Load(path string, codec *charmap.Table, opt scan.Options) ([]Trainer, error) {
	recs, err := scan.File(path, opt)
	if err != nil {
		return nil, err
	}
	out := make([]Trainer, 0, len(recs))
	for _, r := range recs {
		out = append(out, Extract(r, codec))
	}
	return out, nil
}

// Find returns the trainer with the given id.
func Find(ts []Trainer, id string) (Trainer, bool) {
	for _, t := range ts {
		if t.ID == id {
			return t, true
		}
	}
	return Trainer{}, false
}

// FormatItems renders an item list initializer ("{}" when empty).
func FormatItems(items []string) string {
	return "{" + strings.Join(items, ", ") + "}"
}

// FormatBool renders a C boolean literal.
func FormatBool(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
