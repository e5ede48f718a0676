// Package project resolves the table files of a decompilation project from
// its root directory and reports on their state.
package project

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"trainer-editor/internal/config"
	apperrors "trainer-editor/internal/errors"
)

// Role names one input of the editor.
type Role string

const (
	Trainers Role = "trainers"
	Parties  Role = "parties"
	Items    Role = "items"
	Species  Role = "species"
)

// Layout holds absolute paths of the inputs.
type Layout struct {
	Root     string
	Trainers string
	Parties  string
	Items    string
	Species  string
}

// FileInfo describes one input on disk.
type FileInfo struct {
	Role      Role
	RelPath   string // root-relative path with forward slashes
	AbsPath   string
	Present   bool
	Size      int64
	SHA256Hex string // lowercase hex sha256 of the contents, "" if absent
}

// Resolve turns the configured paths into absolute ones. Relative paths
// are taken from cfg.Root.
func Resolve(cfg config.Config) (Layout, error) {
	root := cfg.Root
	if root == "" {
		root = "."
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return Layout{}, err
	}
	join := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(abs, filepath.FromSlash(p))
	}
	return Layout{
		Root:     abs,
		Trainers: join(cfg.Trainers),
		Parties:  join(cfg.Parties),
		Items:    join(cfg.Items),
		Species:  join(cfg.Species),
	}, nil
}

// FindRoot walks up from start to the first directory holding rel (the
// trainer table path relative to a project root).
func FindRoot(start, rel string) (string, bool) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", false
	}
	for {
		if firstExisting(dir, filepath.FromSlash(rel)) != "" {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// Require checks that the given inputs exist and are regular files.
func (l Layout) Require(roles ...Role) error {
	for _, r := range roles {
		p := l.Path(r)
		st, err := os.Stat(p)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return apperrors.WithMetadata(apperrors.CodeFileNotFound,
					string(r)+" file not found: "+p, map[string]string{"path": p, "role": string(r)})
			}
			return apperrors.Wrap(apperrors.CodeFileNotFound, "stat "+p, err)
		}
		if st.IsDir() {
			return apperrors.WithMetadata(apperrors.CodeNotAFile,
				string(r)+" is not a file: "+p, map[string]string{"path": p, "role": string(r)})
		}
	}
	return nil
}

// Path returns the path for a role.
func (l Layout) Path(r Role) string {
	switch r {
	case Trainers:
		return l.Trainers
	case Parties:
		return l.Parties
	case Items:
		return l.Items
	case Species:
		return l.Species
	}
	return ""
}

// Files describes every input in a fixed order. Missing inputs are listed
// with Present == false.
func (l Layout) Files() ([]FileInfo, error) {
	var out []FileInfo
	for _, r := range []Role{Trainers, Parties, Items, Species} {
		p := l.Path(r)
		if p == "" {
			continue
		}
		fi := FileInfo{Role: r, AbsPath: p, RelPath: l.relative(p)}
		st, err := os.Stat(p)
		if err == nil && st.Mode().IsRegular() {
			sum, err := sha256File(p)
			if err != nil {
				return nil, err
			}
			fi.Present, fi.Size, fi.SHA256Hex = true, st.Size(), sum
		}
		out = append(out, fi)
	}
	return out, nil
}

func (l Layout) relative(p string) string {
	rel, err := filepath.Rel(l.Root, p)
	if err != nil {
		return filepath.ToSlash(p)
	}
	rel = filepath.ToSlash(rel)
	if strings.HasPrefix(rel, "../") || rel == ".." {
		return filepath.ToSlash(p)
	}
	return rel
}

func firstExisting(root string, names ...string) string {
	for _, n := range names {
		p := filepath.Join(root, n)
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			return p
		}
	}
	return ""
}

// sha256File computes a hex-encoded sha256 for the file at path.
func sha256File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
