package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.Root != "." || cfg.Trainers != "src/Tables/trainer_data.c" || cfg.Parties != "src/Tables/trainer_parties.h" {
		t.Fatalf("defaults = %#v", cfg)
	}
	if cfg.Items != "src/Tables/item_tables.c" || cfg.Species != "strings/Pokemon_Name_Table.string" {
		t.Fatalf("defaults = %#v", cfg)
	}
	if cfg.NameMax != 10 || len(cfg.Defines) != 0 {
		t.Fatalf("defaults = %#v", cfg)
	}
}

func TestLoadFileOverlays(t *testing.T) {
	p := filepath.Join(t.TempDir(), FileName)
	body := "[paths]\ntrainers = data/trainers.c\n\n[scan]\ndefines = HARD_MODE, DEBUG\n\n[limits]\nname_max = 12\n"
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg := Default()
	if err := LoadFile(&cfg, p); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Trainers != "data/trainers.c" || cfg.Parties != "src/Tables/trainer_parties.h" {
		t.Fatalf("paths = %#v", cfg)
	}
	if !reflect.DeepEqual(cfg.Defines, []string{"HARD_MODE", "DEBUG"}) || cfg.NameMax != 12 {
		t.Fatalf("scan/limits = %#v", cfg)
	}
	before := cfg
	if err := LoadFile(&cfg, filepath.Join(t.TempDir(), "missing.ini")); err != nil || !reflect.DeepEqual(cfg, before) {
		t.Fatalf("missing file changed config: %v", err)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(p, []byte("[paths]\nitems = a.c\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("TRAINER_EDITOR_ITEMS", "b.c")
	t.Setenv("TRAINER_EDITOR_DEFINES", "X,Y")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Items != "b.c" || !reflect.DeepEqual(cfg.Defines, []string{"X", "Y"}) {
		t.Fatalf("cfg = %#v", cfg)
	}
}

func TestParseEnvError(t *testing.T) {
	t.Setenv("TRAINER_EDITOR_NAME_MAX", "ten")
	var cfg Config
	err := ParseEnv(&cfg)
	if err == nil || !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("err = %v", err)
	}
}

func TestLoadDotEnv(t *testing.T) {
	p := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(p, []byte("TRAINER_EDITOR_SPECIES=names.string\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("TRAINER_EDITOR_SPECIES", "")
	os.Unsetenv("TRAINER_EDITOR_SPECIES")
	if err := LoadDotEnv(p); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("TRAINER_EDITOR_SPECIES"); got != "names.string" {
		t.Fatalf("env = %q", got)
	}
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "none.env")); err == nil {
		t.Fatalf("missing .env should report an error")
	}
}

func TestSplitList(t *testing.T) {
	if got := SplitList(" A, ,B ,"); !reflect.DeepEqual(got, []string{"A", "B"}) {
		t.Fatalf("SplitList = %v", got)
	}
}
