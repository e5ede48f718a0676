// Package config resolves the editor's settings. Sources are layered, later
// ones winning: built-in defaults, the project's trainer-editor.ini, a .env
// file and the process environment, then command-line flags (applied by the
// caller).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/ini.v1"
)

// FileName is the per-project configuration file looked up in the root.
const FileName = "trainer-editor.ini"

// Config holds every setting. Paths other than Root are relative to Root
// unless absolute.
type Config struct {
	Root     string   `env:"TRAINER_EDITOR_ROOT"`
	Trainers string   `env:"TRAINER_EDITOR_TRAINERS"`
	Parties  string   `env:"TRAINER_EDITOR_PARTIES"`
	Items    string   `env:"TRAINER_EDITOR_ITEMS"`
	Species  string   `env:"TRAINER_EDITOR_SPECIES"`
	Defines  []string `env:"TRAINER_EDITOR_DEFINES" envSeparator:","`
	NameMax  int      `env:"TRAINER_EDITOR_NAME_MAX"`
	DryRun   bool     `env:"TRAINER_EDITOR_DRY_RUN"`
}

// defaultINI documents the file layout and carries the built-in defaults.
var defaultINI = []byte(`[paths]
trainers = src/Tables/trainer_data.c
parties  = src/Tables/trainer_parties.h
items    = src/Tables/item_tables.c
species  = strings/Pokemon_Name_Table.string

[scan]
; comma separated features treated as #define'd
defines =

[limits]
name_max = 10
`)

var loadOptions = ini.LoadOptions{
	Insensitive:             false,
	IgnoreInlineComment:     false,
	SkipUnrecognizableLines: true,
	AllowShadows:            false,
}

// Default returns the built-in settings.
func Default() Config {
	cfg := Config{Root: "."}
	f, err := ini.LoadSources(loadOptions, defaultINI)
	if err != nil {
		panic(fmt.Sprintf("config: built-in defaults: %v", err))
	}
	apply(&cfg, f)
	return cfg
}

// LoadFile overlays the settings of an ini file onto cfg. A missing file
// leaves cfg unchanged.
func LoadFile(cfg *Config, path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	f, err := ini.LoadSources(loadOptions, path)
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	apply(cfg, f)
	return nil
}

// LoadDotEnv loads .env files into the process environment without
// overriding variables that are already set. With no paths it loads ./.env.
func LoadDotEnv(paths ...string) error {
	if err := godotenv.Load(paths...); err != nil {
		return fmt.Errorf("load dotenv: %w", err)
	}
	return nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load returns the defaults overlaid with the ini file at path (if any)
// and then with the environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := LoadFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func apply(cfg *Config, f *ini.File) {
	for _, sec := range f.Sections() {
		switch sec.Name() {
		case ini.DEFAULT_SECTION:
			continue
		case "paths":
			setString(&cfg.Root, sec, "root")
			setString(&cfg.Trainers, sec, "trainers")
			setString(&cfg.Parties, sec, "parties")
			setString(&cfg.Items, sec, "items")
			setString(&cfg.Species, sec, "species")
		case "scan":
			if sec.HasKey("defines") {
				cfg.Defines = SplitList(sec.Key("defines").String())
			}
		case "limits":
			if sec.HasKey("name_max") {
				cfg.NameMax = sec.Key("name_max").MustInt(cfg.NameMax)
			}
		}
	}
}

func setString(dst *string, sec *ini.Section, key string) {
	if !sec.HasKey(key) {
		return
	}
	if v := strings.TrimSpace(sec.Key(key).String()); v != "" {
		*dst = v
	}
}

// SplitList splits a comma separated list, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
