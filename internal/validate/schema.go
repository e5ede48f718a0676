// Package validate checks edited values before they are written back to the
// tables. It does not parse source; it enforces the limits the table format
// and the game impose on the values a caller wants to save.
//
// Every check collects all problems it finds and returns them as a single
// error with code VALIDATION_FAILED, one problem per line.
package validate

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"trainer-editor/internal/charmap"
	apperrors "trainer-editor/internal/errors"
	"trainer-editor/internal/party"
	"trainer-editor/internal/scan"
	"trainer-editor/internal/trainer"
)

// DefaultNameMax is the longest trainer name, in display characters.
const DefaultNameMax = 10

// Limits holds the configurable bounds.
type Limits struct {
	NameMax int // 0 means DefaultNameMax
}

func (l Limits) nameMax() int {
	if l.NameMax <= 0 {
		return DefaultNameMax
	}
	return l.NameMax
}

// Name checks that name fits the limit and that codec can encode it.
func Name(name string, codec *charmap.Table, lim Limits) error {
	var errs errlist
	checkName(&errs, name, codec, lim)
	return errs.err()
}

// TrainerOptions validates the values a trainer options edit writes:
//
//   - at most trainer.MaxItems items, none empty
//   - gender one of the known values
//
// The stored name is not checked; Name covers name edits.
func TrainerOptions(t trainer.Trainer) error {
	var errs errlist
	checkOptions(&errs, t)
	return errs.err()
}

// Roster validates roster members: species non-empty and levels within
// party.MinLevel..party.MaxLevel.
func Roster(members []party.Member) error {
	var errs errlist
	for i, m := range members {
		prefix := fmt.Sprintf("members[%d] (%s)", i, m.Species)
		if strings.TrimSpace(m.Species) == "" {
			errs.add("%s: species must be non-empty", prefix)
		}
		if m.Level < party.MinLevel || m.Level > party.MaxLevel {
			errs.add("%s: level must be %d..%d (got %d)", prefix, party.MinLevel, party.MaxLevel, m.Level)
		}
	}
	return errs.err()
}

// Records reports live records that share an id.
func Records(recs []scan.Record) error {
	var errs errlist
	seen := make(map[string]int, len(recs))
	for _, r := range recs {
		if first, dup := seen[r.ID]; dup {
			errs.add("record %s on line %d duplicates line %d", r.ID, r.Start+1, first+1)
			continue
		}
		seen[r.ID] = r.Start
	}
	return errs.err()
}

func checkOptions(errs *errlist, t trainer.Trainer) {
	if len(t.Items) > trainer.MaxItems {
		errs.add("items: at most %d allowed, got %d", trainer.MaxItems, len(t.Items))
	}
	for i, it := range t.Items {
		if strings.TrimSpace(it) == "" {
			errs.add("items[%d]: must be non-empty", i)
		}
	}
	if t.Gender != trainer.Male && t.Gender != trainer.Female {
		errs.add("gender: unknown value %d", int(t.Gender))
	}
}

func checkName(errs *errlist, name string, codec *charmap.Table, lim Limits) {
	if n := utf8.RuneCountInString(name); n > lim.nameMax() {
		errs.add("name: at most %d characters allowed, got %d", lim.nameMax(), n)
	}
	if codec == nil {
		return
	}
	if bad, ok := codec.Valid(name); !ok {
		errs.add("name: character %q has no token", bad)
	}
}

// errlist aggregates multiple validation issues into a single error.
type errlist struct {
	msgs []string
}

func (e *errlist) add(format string, args ...any) {
	if e == nil {
		return
	}
	e.msgs = append(e.msgs, fmt.Sprintf(format, args...))
}

func (e *errlist) err() error {
	if e == nil || len(e.msgs) == 0 {
		return nil
	}
	return apperrors.WithMetadata(
		apperrors.CodeValidationFailed,
		strings.Join(e.msgs, "\n"),
		map[string]string{"issues": strconv.Itoa(len(e.msgs))},
	)
}
