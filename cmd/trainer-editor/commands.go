package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"trainer-editor/internal/catalog"
	"trainer-editor/internal/charmap"
	"trainer-editor/internal/config"
	"trainer-editor/internal/diff"
	"trainer-editor/internal/party"
	"trainer-editor/internal/patch"
	"trainer-editor/internal/project"
	"trainer-editor/internal/scan"
	"trainer-editor/internal/trainer"
	"trainer-editor/internal/validate"
)

// app carries what every command needs. The codec is built once and
// shared read-only.
type app struct {
	cfg     config.Config
	layout  project.Layout
	codec   *charmap.Table
	out     io.Writer
	log     *log.Logger
	verbose bool
}

func newApp(cfg config.Config, out io.Writer, logger *log.Logger, verbose bool) (*app, error) {
	layout, err := project.Resolve(cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve project: %w", err)
	}
	return &app{
		cfg:     cfg,
		layout:  layout,
		codec:   charmap.Standard(),
		out:     out,
		log:     logger,
		verbose: verbose,
	}, nil
}

func (a *app) run(cmd string, args []string) error {
	if a.verbose {
		a.logFiles()
	}
	switch cmd {
	case "list":
		return a.cmdList(args)
	case "show":
		return a.cmdShow(args)
	case "rosters":
		return a.cmdRosters(args)
	case "roster":
		return a.cmdRoster(args)
	case "items":
		return a.cmdItems(args)
	case "dump":
		return a.cmdDump(args)
	case "set-name":
		return a.cmdSetName(args)
	case "set-options":
		return a.cmdSetOptions(args)
	case "set-roster":
		return a.cmdSetRoster(args)
	}
	return usagef("unknown command %q", cmd)
}

func (a *app) scanOptions() scan.Options {
	return scan.Options{Defines: a.cfg.Defines}
}

func (a *app) patchOptions() patch.Options {
	return patch.Options{DryRun: a.cfg.DryRun, Scan: a.scanOptions()}
}

func (a *app) logFiles() {
	files, err := a.layout.Files()
	if err != nil {
		a.log.Println("warning:", err)
		return
	}
	for _, f := range files {
		if !f.Present {
			a.log.Printf("%-8s %s (missing)", f.Role, f.RelPath)
			continue
		}
		a.log.Printf("%-8s %s %d bytes sha256:%s", f.Role, f.RelPath, f.Size, f.SHA256Hex[:12])
	}
}

// ----- loading -----------------------------------------------------------------

func (a *app) trainers() ([]trainer.Trainer, error) {
	if err := a.layout.Require(project.Trainers); err != nil {
		return nil, err
	}
	recs, err := scan.File(a.layout.Trainers, a.scanOptions())
	if err != nil {
		return nil, err
	}
	if err := validate.Records(recs); err != nil {
		a.log.Println("warning:", err)
	}
	out := make([]trainer.Trainer, 0, len(recs))
	for _, r := range recs {
		out = append(out, trainer.Extract(r, a.codec))
	}
	if a.verbose {
		a.log.Printf("scanned %d live records (defines: %s)", len(out), strings.Join(a.cfg.Defines, ","))
	}
	return out, nil
}

func (a *app) trainer(id string) (trainer.Trainer, error) {
	ts, err := a.trainers()
	if err != nil {
		return trainer.Trainer{}, err
	}
	t, ok := trainer.Find(ts, id)
	if !ok {
		return trainer.Trainer{}, fmt.Errorf("trainer %s not found in %s", id, a.layout.Trainers)
	}
	return t, nil
}

func (a *app) rosters() (map[string]party.Roster, error) {
	if err := a.layout.Require(project.Parties); err != nil {
		return nil, err
	}
	return party.LoadRosters(a.layout.Parties)
}

func (a *app) items() (*catalog.Catalog, error) {
	c, err := catalog.LoadItems(a.layout.Items)
	if err != nil {
		return nil, err
	}
	if c == nil {
		a.log.Printf("warning: item table %s not found, offering %s only", a.layout.Items, catalog.NoItem)
	} else if a.verbose {
		a.log.Printf("loaded %d items from %s", c.Len(), a.layout.Items)
	}
	return c.OrDefault(), nil
}

func (a *app) speciesNames() map[string]string {
	names, err := catalog.LoadSpeciesNames(a.layout.Species)
	if err != nil {
		a.log.Println("warning:", err)
		return nil
	}
	if names == nil && a.verbose {
		a.log.Printf("species names %s not found", a.layout.Species)
	}
	return names
}

// ----- views ------------------------------------------------------------------

type memberView struct {
	Species  string   `yaml:"species"`
	Name     string   `yaml:"name,omitempty"`
	Level    int      `yaml:"level"`
	IV       string   `yaml:"iv,omitempty"`
	HeldItem string   `yaml:"heldItem,omitempty"`
	Moves    []string `yaml:"moves,omitempty"`
}

type rosterView struct {
	Name    string       `yaml:"name"`
	Struct  string       `yaml:"struct,omitempty"`
	Macro   string       `yaml:"macro,omitempty"`
	Members []memberView `yaml:"members"`
}

type trainerView struct {
	trainer.Trainer `yaml:",inline"`
	Roster          *rosterView `yaml:"roster,omitempty"`
}

func newRosterView(r party.Roster, names map[string]string) rosterView {
	v := rosterView{Name: r.Name, Struct: r.Struct, Macro: r.Macro, Members: []memberView{}}
	for _, m := range r.Members {
		v.Members = append(v.Members, memberView{
			Species:  m.Species,
			Name:     names[m.Species],
			Level:    m.Level,
			IV:       m.IV,
			HeldItem: m.HeldItem,
			Moves:    m.Moves,
		})
	}
	return v
}

func (a *app) writeYAML(v any) error {
	enc := yaml.NewEncoder(a.out)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

// ----- read commands ------------------------------------------------------------

func (a *app) cmdList(args []string) error {
	if len(args) != 0 {
		return usagef("list takes no arguments")
	}
	ts, err := a.trainers()
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	for _, t := range ts {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", t.ID, t.DisplayName(), t.Class)
	}
	return tw.Flush()
}

func (a *app) cmdShow(args []string) error {
	if len(args) != 1 {
		return usagef("show takes exactly one trainer id")
	}
	t, err := a.trainer(args[0])
	if err != nil {
		return err
	}
	view := trainerView{Trainer: t}
	if t.PartyRef != "" {
		rs, err := a.rosters()
		if err != nil {
			return err
		}
		if r, ok := rs[t.PartyRef]; ok {
			rv := newRosterView(r, a.speciesNames())
			view.Roster = &rv
		}
	}
	return a.writeYAML(view)
}

func (a *app) cmdRosters(args []string) error {
	if len(args) != 0 {
		return usagef("rosters takes no arguments")
	}
	rs, err := a.rosters()
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	for _, n := range party.Names(rs) {
		r := rs[n]
		fmt.Fprintf(tw, "%s\t%d\t%s\n", n, len(r.Members), r.Struct)
	}
	return tw.Flush()
}

func (a *app) cmdRoster(args []string) error {
	if len(args) != 1 {
		return usagef("roster takes exactly one roster name")
	}
	rs, err := a.rosters()
	if err != nil {
		return err
	}
	r, ok := rs[args[0]]
	if !ok {
		return fmt.Errorf("roster %s not found in %s", args[0], a.layout.Parties)
	}
	return a.writeYAML(newRosterView(r, a.speciesNames()))
}

func (a *app) cmdItems(args []string) error {
	if len(args) != 0 {
		return usagef("items takes no arguments")
	}
	c, err := a.items()
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	for _, e := range c.Entries {
		fmt.Fprintf(tw, "%s\t%s\n", e.ID, e.Label)
	}
	return tw.Flush()
}

func (a *app) cmdDump(args []string) error {
	if len(args) != 0 {
		return usagef("dump takes no arguments")
	}
	ts, err := a.trainers()
	if err != nil {
		return err
	}
	rs, err := a.rosters()
	if err != nil {
		return err
	}
	c, err := a.items()
	if err != nil {
		return err
	}
	names := a.speciesNames()
	doc := struct {
		Trainers []trainer.Trainer `yaml:"trainers"`
		Rosters  []rosterView      `yaml:"rosters"`
		Items    []catalog.Entry   `yaml:"items"`
	}{Trainers: ts, Items: c.Entries}
	for _, n := range party.Names(rs) {
		doc.Rosters = append(doc.Rosters, newRosterView(rs[n], names))
	}
	return a.writeYAML(doc)
}

// ----- write commands -----------------------------------------------------------

func (a *app) report(what string, res patch.Result) {
	switch {
	case !res.Changed:
		fmt.Fprintf(a.out, "%s: already up to date\n", what)
	case a.cfg.DryRun:
		body := res.Diff()
		added, removed := diff.Stat(body)
		fmt.Fprint(a.out, body)
		fmt.Fprintf(a.out, "%s: %d line(s) added, %d removed (dry run, not written)\n", what, added, removed)
	default:
		fmt.Fprintf(a.out, "%s: wrote %s\n", what, res.Path)
	}
}

func (a *app) cmdSetName(args []string) error {
	if len(args) != 2 {
		return usagef("set-name takes a trainer id and a name")
	}
	id, name := args[0], args[1]
	if _, err := a.trainer(id); err != nil {
		return err
	}
	if err := validate.Name(name, a.codec, validate.Limits{NameMax: a.cfg.NameMax}); err != nil {
		return err
	}
	tokens, err := a.codec.Encode(name)
	if err != nil {
		return err
	}
	res, err := patch.Name(a.layout.Trainers, id, tokens, a.patchOptions())
	if err != nil {
		return err
	}
	a.report(id+" name", res)
	return nil
}

func (a *app) cmdSetOptions(args []string) error {
	if len(args) < 1 || strings.HasPrefix(args[0], "-") {
		return usagef("set-options takes a trainer id before its flags")
	}
	id := args[0]
	fs := flag.NewFlagSet("set-options", flag.ContinueOnError)
	fs.SetOutput(a.log.Writer())
	gender := fs.String("gender", "", "M or F")
	double := fs.Bool("double", false, "double battle")
	hasItem := fs.Bool("has-item", false, "party members hold items")
	customMoves := fs.Bool("custom-moves", false, "party members have custom moves")
	items := fs.String("items", "", "comma-separated item ids or labels (empty clears)")
	syncRoster := fs.Bool("sync-roster", false, "regenerate the referenced roster with the new struct type")
	if err := fs.Parse(args[1:]); err != nil {
		return flagError(err)
	}
	if fs.NArg() != 0 {
		return usagef("set-options: unexpected arguments %v", fs.Args())
	}
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	t, err := a.trainer(id)
	if err != nil {
		return err
	}
	v := party.FlagsToVariant(t.PartyFlags)
	withItem, withMoves := v.HasItem(), v.CustomMoves()
	if set["gender"] {
		t.Gender = trainer.ParseGender(*gender)
	}
	if set["double"] {
		t.DoubleBattle = *double
	}
	if set["has-item"] {
		withItem = *hasItem
	}
	if set["custom-moves"] {
		withMoves = *customMoves
	}
	if set["items"] {
		c, err := a.items()
		if err != nil {
			return err
		}
		t.Items = resolveItems(c, config.SplitList(*items), a.log)
	}
	if err := validate.TrainerOptions(t); err != nil {
		return err
	}

	fields := patch.Fields{
		Gender:       t.Gender,
		DoubleBattle: t.DoubleBattle,
		PartyFlags:   t.PartyFlags,
		Items:        t.Items,
	}
	if set["has-item"] || set["custom-moves"] || t.PartyFlags == "" {
		fields.PartyFlags = party.FlagsExpr(withItem, withMoves)
	}
	res, err := patch.TrainerOptions(a.layout.Trainers, id, fields, a.patchOptions())
	if err != nil {
		return err
	}
	a.report(id+" options", res)

	if !*syncRoster || t.PartyRef == "" {
		return nil
	}
	rs, err := a.rosters()
	if err != nil {
		return err
	}
	r, ok := rs[t.PartyRef]
	if !ok {
		a.log.Printf("warning: roster %s not found, not regenerated", t.PartyRef)
		return nil
	}
	structType := party.FlagsToVariant(fields.PartyFlags).StructType
	rres, err := patch.Roster(a.layout.Parties, r.Name, r.Members, structType, a.patchOptions())
	if err != nil {
		return err
	}
	a.report(r.Name, rres)
	return nil
}

func (a *app) cmdSetRoster(args []string) error {
	if len(args) < 1 || strings.HasPrefix(args[0], "-") {
		return usagef("set-roster takes a roster name before its flags")
	}
	name := args[0]
	fs := flag.NewFlagSet("set-roster", flag.ContinueOnError)
	fs.SetOutput(a.log.Writer())
	structType := fs.String("struct", "", "element struct type (default: keep, or derive from -trainer)")
	trainerID := fs.String("trainer", "", "derive the struct type from this trainer's party flags")
	if err := fs.Parse(args[1:]); err != nil {
		return flagError(err)
	}
	if fs.NArg() == 0 {
		return usagef("set-roster needs at least one SPECIES:LEVEL member")
	}
	members := make([]party.Member, 0, fs.NArg())
	for _, spec := range fs.Args() {
		m, err := party.ParseMemberSpec(spec)
		if err != nil {
			return usagef("%v", err)
		}
		members = append(members, m)
	}
	if err := validate.Roster(members); err != nil {
		return err
	}

	rs, err := a.rosters()
	if err != nil {
		return err
	}
	old, ok := rs[name]
	if !ok {
		return fmt.Errorf("roster %s not found in %s", name, a.layout.Parties)
	}
	st := *structType
	if st == "" && *trainerID != "" {
		t, err := a.trainer(*trainerID)
		if err != nil {
			return err
		}
		st = party.FlagsToVariant(t.PartyFlags).StructType
	}
	if st == "" {
		st = old.Struct
	}
	carryOver(members, old.Members)

	res, err := patch.Roster(a.layout.Parties, name, members, st, a.patchOptions())
	if err != nil {
		return err
	}
	a.report(name, res)
	return nil
}

// flagError turns a subcommand flag parse failure into a usage error.
// -h keeps flag.ErrHelp so main exits cleanly.
func flagError(err error) error {
	if errors.Is(err, flag.ErrHelp) {
		return err
	}
	return usagef("%v", err)
}

// carryOver copies iv, held item and moves from the old entry at the same
// position when it holds the same species.
func carryOver(members, old []party.Member) {
	for i := range members {
		if i >= len(old) || old[i].Species != members[i].Species {
			continue
		}
		members[i].IV = old[i].IV
		members[i].HeldItem = old[i].HeldItem
		members[i].Moves = old[i].Moves
	}
}

// resolveItems accepts item ids or catalog labels.
func resolveItems(c *catalog.Catalog, in []string, logger *log.Logger) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := c.Label(s); ok {
			out = append(out, s)
			continue
		}
		if id, ok := c.ID(s); ok {
			out = append(out, id)
			continue
		}
		logger.Printf("warning: %s is not in the item catalog", s)
		out = append(out, s)
	}
	return out
}
