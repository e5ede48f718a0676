// Package main provides the trainer-editor CLI that reads and patches the
// trainer, party and item tables of a decompilation project in place.
//
// Usage:
//
//	trainer-editor [flags] list
//	trainer-editor [flags] show <id>
//	trainer-editor [flags] rosters
//	trainer-editor [flags] roster <name>
//	trainer-editor [flags] items
//	trainer-editor [flags] dump
//	trainer-editor [flags] set-name <id> <name>
//	trainer-editor [flags] set-options <id> [-gender M|F] [-double] [-has-item] [-custom-moves] [-items A,B] [-sync-roster]
//	trainer-editor [flags] set-roster <name> [-struct T] [-trainer id] <SPECIES:LVL>...
//
// Settings come from defaults, <root>/trainer-editor.ini, .env and
// TRAINER_EDITOR_* variables, then flags, later sources winning.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"trainer-editor/internal/config"
	"trainer-editor/internal/project"
)

// options are the parsed global flags plus the command line remainder.
type options struct {
	root       string
	configPath string
	trainers   string
	parties    string
	items      string
	species    string
	defines    string
	dryRun     bool
	verbose    bool

	set  map[string]bool // global flags given explicitly
	cmd  string
	args []string
}

// usageError marks failures caused by a bad command line (exit code 2).
type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return usageError{msg: fmt.Sprintf(format, args...)}
}

func usage(w io.Writer, fs *flag.FlagSet) {
	name := filepath.Base(os.Args[0])
	fmt.Fprintf(w, "Usage:\n")
	fmt.Fprintf(w, "  %s [flags] list | show <id> | rosters | roster <name> | items | dump\n", name)
	fmt.Fprintf(w, "  %s [flags] set-name <id> <name>\n", name)
	fmt.Fprintf(w, "  %s [flags] set-options <id> [-gender M|F] [-double] [-has-item] [-custom-moves] [-items A,B] [-sync-roster]\n", name)
	fmt.Fprintf(w, "  %s [flags] set-roster <name> [-struct T] [-trainer id] <SPECIES:LVL>...\n", name)
	fmt.Fprintln(w, "\nFlags:")
	fs.PrintDefaults()
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opt options
	fs := flag.NewFlagSet("trainer-editor", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { usage(stderr, fs) }

	fs.StringVar(&opt.root, "root", "", "project root (default: nearest directory holding the trainer table)")
	fs.StringVar(&opt.configPath, "config", "", "config file (default: <root>/"+config.FileName+")")
	fs.StringVar(&opt.trainers, "trainers", "", "trainer table, relative to root")
	fs.StringVar(&opt.parties, "parties", "", "party table, relative to root")
	fs.StringVar(&opt.items, "items", "", "item table, relative to root")
	fs.StringVar(&opt.species, "species", "", "species name table, relative to root")
	fs.StringVar(&opt.defines, "define", "", "comma-separated features treated as #define'd")
	fs.BoolVar(&opt.dryRun, "dry-run", false, "print a diff instead of writing")
	fs.BoolVar(&opt.verbose, "v", false, "log scan details to stderr")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	opt.set = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { opt.set[f.Name] = true })

	if fs.NArg() < 1 {
		fs.Usage()
		return options{}, usagef("missing command")
	}
	opt.cmd = fs.Arg(0)
	opt.args = fs.Args()[1:]
	return opt, nil
}

// loadConfig layers the settings and applies explicit flags last.
func loadConfig(opt options, logger *log.Logger) (config.Config, error) {
	root := opt.root
	if root == "" {
		root = os.Getenv("TRAINER_EDITOR_ROOT")
	}
	if root == "" {
		if found, ok := project.FindRoot(".", config.Default().Trainers); ok {
			root = found
		} else {
			root = "."
		}
	}

	if err := config.LoadDotEnv(filepath.Join(root, ".env")); err != nil && opt.verbose {
		logger.Println("warning:", err)
	}

	path := opt.configPath
	if path == "" {
		path = filepath.Join(root, config.FileName)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if opt.set["root"] || cfg.Root == "" || cfg.Root == "." {
		cfg.Root = root
	}
	if opt.set["trainers"] {
		cfg.Trainers = opt.trainers
	}
	if opt.set["parties"] {
		cfg.Parties = opt.parties
	}
	if opt.set["items"] {
		cfg.Items = opt.items
	}
	if opt.set["species"] {
		cfg.Species = opt.species
	}
	if opt.set["define"] {
		cfg.Defines = config.SplitList(opt.defines)
	}
	if opt.set["dry-run"] {
		cfg.DryRun = opt.dryRun
	}
	return cfg, nil
}

// exitCode maps a command error to the process exit code: 0 for success
// and -h, 2 for a bad command line, 1 for everything else. Non-zero codes
// print the error to w first.
func exitCode(w io.Writer, err error) int {
	if err == nil || errors.Is(err, flag.ErrHelp) {
		return 0
	}
	fmt.Fprintln(w, "ERROR:", err)
	var ue usageError
	if errors.As(err, &ue) {
		return 2
	}
	return 1
}

func main() {
	logger := log.New(os.Stderr, "trainer-editor: ", 0)

	opt, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			err = usagef("%v", err)
		}
		os.Exit(exitCode(os.Stderr, err))
	}

	cfg, err := loadConfig(opt, logger)
	if err != nil {
		os.Exit(exitCode(os.Stderr, err))
	}

	a, err := newApp(cfg, os.Stdout, logger, opt.verbose)
	if err != nil {
		os.Exit(exitCode(os.Stderr, err))
	}
	os.Exit(exitCode(os.Stderr, a.run(opt.cmd, opt.args)))
}
