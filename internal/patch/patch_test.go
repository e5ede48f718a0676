package patch

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"trainer-editor/internal/charmap"
	apperrors "trainer-editor/internal/errors"
	"trainer-editor/internal/party"
	"trainer-editor/internal/scan"
	"trainer-editor/internal/trainer"
)

const trainers = `const struct Trainer gTrainers[] = {
    [TRAINER_NONE] = {0},

    [TRAINER_BUG_CATCHER] = {
        .partyFlags = 0,
        .trainerClass = CLASS_BUG_CATCHER,
        .gender = GENDER_MALE, // .gender = GENDER_FEMALE
        .trainerName = {_B, _u, _g, _SPACE, _C, _END},
        .items = {},
        .doubleBattle = FALSE,
        .party = {.NoItemDefaultMoves = sParty_BugCatcher},
    },

    [TRAINER_LASS] = {
        .gender = GENDER_FEMALE,
        .trainerName = {_L, _a, _s, _s, _END},
        .doubleBattle = FALSE,
    },
#ifdef HARD_MODE
    [TRAINER_RIVAL] = {
        .trainerName = {_H, _a, _r, _d, _END},
        .doubleBattle = TRUE,
    },
#else
    [TRAINER_RIVAL] = {
        .trainerName = {_E, _a, _s, _y, _END},
        .doubleBattle = FALSE,
    },
#endif
    [TRAINER_ONE_LINE] = { .gender = GENDER_MALE, .doubleBattle = FALSE },
};
`

const parties = `static const struct TrainerMonNoItemDefaultMoves sParty_BugCatcher[] = {
    {
        .lvl = 6,
        .species = SPECIES_WEEDLE, // old comment
    },
};

static const struct TrainerMonNoItemDefaultMoves sParty_Lass[] = {
    { .lvl = 9, .species = SPECIES_PIDGEY },
};
`

func write(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func read(t *testing.T, p string) string {
	t.Helper()
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return string(b)
}

func load(t *testing.T, p string, opt scan.Options) []trainer.Trainer {
	t.Helper()
	ts, err := trainer.Load(p, charmap.Standard(), opt)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return ts
}

// recordText returns the raw text of every record except skip, keyed by id.
func recordText(t *testing.T, p, skip string, opt scan.Options) map[string]string {
	t.Helper()
	lines, err := scan.ReadLines(p)
	if err != nil {
		t.Fatalf("read lines: %v", err)
	}
	recs, err := scan.Records(lines, opt)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	out := make(map[string]string)
	for _, r := range recs {
		if r.ID == skip {
			continue
		}
		out[r.ID] = strings.Join(lines[r.Start:r.End+1], "")
	}
	return out
}

func TestNamePatchReparsesAndKeepsOtherRecords(t *testing.T) {
	p := write(t, "trainer_data.c", trainers)
	othersBefore := recordText(t, p, "TRAINER_BUG_CATCHER", scan.Options{})

	tokens, err := charmap.Standard().Encode("Rick")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	res, err := Name(p, "TRAINER_BUG_CATCHER", tokens, Options{})
	if err != nil {
		t.Fatalf("Name: %v", err)
	}
	if !res.Changed || !res.Written {
		t.Fatalf("result = %+v", res)
	}
	got, _ := trainer.Find(load(t, p, scan.Options{}), "TRAINER_BUG_CATCHER")
	if got.Name != "Rick" {
		t.Fatalf("name after patch = %q", got.Name)
	}
	othersAfter := recordText(t, p, "TRAINER_BUG_CATCHER", scan.Options{})
	for id, before := range othersBefore {
		if othersAfter[id] != before {
			t.Fatalf("record %s changed:\n%s\n---\n%s", id, before, othersAfter[id])
		}
	}
	if strings.Count(read(t, p), "\n") != strings.Count(trainers, "\n") {
		t.Fatalf("line count changed")
	}
}

func TestMissingRecordIsNoop(t *testing.T) {
	p := write(t, "trainer_data.c", trainers)
	res, err := Name(p, "TRAINER_NOBODY", []string{"_A", "_END"}, Options{})
	if err != nil {
		t.Fatalf("Name: %v", err)
	}
	if res.Changed || res.Written || read(t, p) != trainers {
		t.Fatalf("file touched for missing record")
	}
	res, err = Name(p, "TRAINER_NONE", []string{"_A", "_END"}, Options{})
	if err != nil || res.Changed {
		t.Fatalf("record without the field should be a no-op: %+v, %v", res, err)
	}
}

func TestMissingFile(t *testing.T) {
	_, err := Name(filepath.Join(t.TempDir(), "nope.c"), "X", nil, Options{})
	if apperrors.CodeOf(err) != apperrors.CodeFileNotFound {
		t.Fatalf("err = %v", err)
	}
}

func TestOptionsPatchIsIdempotent(t *testing.T) {
	p := write(t, "trainer_data.c", trainers)
	f := Fields{
		Gender:       trainer.Female,
		DoubleBattle: true,
		PartyFlags:   party.FlagsExpr(true, false),
		Items:        []string{"ITEM_POTION", "ITEM_REVIVE"},
	}
	if _, err := TrainerOptions(p, "TRAINER_BUG_CATCHER", f, Options{}); err != nil {
		t.Fatalf("TrainerOptions: %v", err)
	}
	got, _ := trainer.Find(load(t, p, scan.Options{}), "TRAINER_BUG_CATCHER")
	if got.Gender != trainer.Female || !got.DoubleBattle || got.PartyFlags != "PARTY_FLAG_HAS_ITEM" {
		t.Fatalf("after patch = %#v", got)
	}
	if len(got.Items) != 2 || got.Items[1] != "ITEM_REVIVE" {
		t.Fatalf("items = %v", got.Items)
	}
	if got.Variant != "ItemDefaultMoves" || got.PartyRef != "sParty_BugCatcher" {
		t.Fatalf("selector not synced: %#v", got)
	}
	text := read(t, p)
	if !strings.Contains(text, "// .gender = GENDER_FEMALE") {
		t.Fatalf("comment was rewritten:\n%s", text)
	}

	again, err := TrainerOptions(p, "TRAINER_BUG_CATCHER", f, Options{})
	if err != nil || again.Changed || read(t, p) != text {
		t.Fatalf("second patch changed the file: %+v, %v", again, err)
	}
}

func TestSingleLineRecord(t *testing.T) {
	p := write(t, "trainer_data.c", trainers)
	f := Fields{Gender: trainer.Female, DoubleBattle: true}
	if _, err := TrainerOptions(p, "TRAINER_ONE_LINE", f, Options{}); err != nil {
		t.Fatalf("TrainerOptions: %v", err)
	}
	if !strings.Contains(read(t, p), "[TRAINER_ONE_LINE] = { .gender = GENDER_FEMALE, .doubleBattle = TRUE },") {
		t.Fatalf("one-line record:\n%s", read(t, p))
	}
}

func TestCRLFPreserved(t *testing.T) {
	crlf := strings.ReplaceAll(trainers, "\n", "\r\n")
	p := write(t, "trainer_data.c", crlf)
	if _, err := Name(p, "TRAINER_LASS", []string{"_M", "_a", "_y", "_END"}, Options{}); err != nil {
		t.Fatalf("Name: %v", err)
	}
	text := read(t, p)
	if strings.Count(text, "\r\n") != strings.Count(text, "\n") {
		t.Fatalf("bare LF introduced")
	}
	if !strings.Contains(text, ".trainerName = {_M, _a, _y, _END},\r\n") {
		t.Fatalf("patched line:\n%q", text)
	}
}

func TestConditionalAwarePatch(t *testing.T) {
	p := write(t, "trainer_data.c", trainers)
	if _, err := Name(p, "TRAINER_RIVAL", []string{"_N", "_o", "_r", "_m", "_END"}, Options{}); err != nil {
		t.Fatalf("Name: %v", err)
	}
	text := read(t, p)
	if !strings.Contains(text, "{_H, _a, _r, _d, _END}") || strings.Contains(text, "{_E, _a, _s, _y, _END}") {
		t.Fatalf("default branch not the one patched:\n%s", text)
	}

	hard := scan.Options{Defines: []string{"HARD_MODE"}}
	if _, err := Name(p, "TRAINER_RIVAL", []string{"_E", "_l", "_i", "_t", "_e", "_END"}, Options{Scan: hard}); err != nil {
		t.Fatalf("Name: %v", err)
	}
	got, _ := trainer.Find(load(t, p, hard), "TRAINER_RIVAL")
	if got.Name != "Elite" {
		t.Fatalf("hard-mode record = %q", got.Name)
	}
	soft, _ := trainer.Find(load(t, p, scan.Options{}), "TRAINER_RIVAL")
	if soft.Name != "Norm" {
		t.Fatalf("default record = %q", soft.Name)
	}
}

func TestDryRunDoesNotWrite(t *testing.T) {
	p := write(t, "trainer_data.c", trainers)
	res, err := Name(p, "TRAINER_LASS", []string{"_Z", "_END"}, Options{DryRun: true})
	if err != nil {
		t.Fatalf("Name: %v", err)
	}
	if !res.Changed || res.Written || read(t, p) != trainers {
		t.Fatalf("dry run wrote: %+v", res)
	}
	d := res.Diff()
	if !strings.Contains(d, "-        .trainerName = {_L, _a, _s, _s, _END},") ||
		!strings.Contains(d, "+        .trainerName = {_Z, _END},") {
		t.Fatalf("diff:\n%s", d)
	}
}

func TestRosterRegenerates(t *testing.T) {
	p := write(t, "trainer_parties.h", parties)
	members := []party.Member{
		{Species: "SPECIES_CATERPIE", Level: 7, HeldItem: "ITEM_ORAN_BERRY"},
		{Species: "SPECIES_METAPOD", Level: 8},
	}
	res, err := Roster(p, "sParty_BugCatcher", members, "TrainerMonItemDefaultMoves", Options{})
	if err != nil || !res.Changed {
		t.Fatalf("Roster: %+v, %v", res, err)
	}
	text := read(t, p)
	if strings.Contains(text, "old comment") {
		t.Fatalf("old body kept:\n%s", text)
	}
	if !strings.Contains(text, "static const struct TrainerMonItemDefaultMoves sParty_BugCatcher[] = {") {
		t.Fatalf("struct type not rewritten:\n%s", text)
	}
	if !strings.Contains(text, "static const struct TrainerMonNoItemDefaultMoves sParty_Lass[] = {\n    { .lvl = 9, .species = SPECIES_PIDGEY },\n};") {
		t.Fatalf("other roster touched:\n%s", text)
	}
	rs, err := party.LoadRosters(p)
	if err != nil {
		t.Fatalf("LoadRosters: %v", err)
	}
	got := rs["sParty_BugCatcher"]
	if got.Struct != "TrainerMonItemDefaultMoves" || len(got.Members) != 2 ||
		got.Members[0].Species != "SPECIES_CATERPIE" || got.Members[0].HeldItem != "ITEM_ORAN_BERRY" ||
		got.Members[1].Level != 8 {
		t.Fatalf("roster = %#v", got)
	}

	again, err := Roster(p, "sParty_BugCatcher", members, "TrainerMonItemDefaultMoves", Options{})
	if err != nil || again.Changed {
		t.Fatalf("regeneration not stable: %+v, %v", again, err)
	}
	missing, err := Roster(p, "sParty_Nobody", members, "TrainerMonItemDefaultMoves", Options{})
	if err != nil || missing.Changed {
		t.Fatalf("missing roster: %+v, %v", missing, err)
	}
}

func TestPatchRecordSharingALine(t *testing.T) {
	src := "    [TRAINER_C] = { .items = {} }, [TRAINER_D] = { .items = {} }, [TRAINER_E] = { .items = {} },\n"
	p := write(t, "trainer_data.c", src)
	if _, err := TrainerOptions(p, "TRAINER_D", Fields{Items: []string{"ITEM_REVIVE"}}, Options{}); err != nil {
		t.Fatalf("TrainerOptions: %v", err)
	}
	want := "    [TRAINER_C] = { .items = {} }, [TRAINER_D] = { .items = {ITEM_REVIVE} }, [TRAINER_E] = { .items = {} },\n"
	if got := read(t, p); got != want {
		t.Fatalf("got:\n%s", got)
	}
}
