// Package patch rewrites single fields of trainer records and whole party
// roster declarations in place.
//
// Every operation re-reads the file, locates its target with the same
// scanner the readers use, substitutes the value on the field's own line
// and replaces the file atomically. Bytes outside the substituted spans
// are copied unchanged, line endings included. A target that cannot be
// found leaves the file untouched and reports Changed == false.
package patch

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"trainer-editor/internal/charmap"
	"trainer-editor/internal/diff"
	apperrors "trainer-editor/internal/errors"
	"trainer-editor/internal/party"
	"trainer-editor/internal/scan"
	"trainer-editor/internal/textutil"
	"trainer-editor/internal/trainer"
)

// Options controls a patch.
type Options struct {
	// DryRun computes the result without writing the file.
	DryRun bool
	// Scan is passed to the record scanner; its Defines select the live
	// branch of conditional records.
	Scan scan.Options
}

// Result describes one patch.
type Result struct {
	Path    string
	Changed bool
	Written bool
	Before  []byte
	After   []byte
}

// Diff renders the change as a unified diff, "" when nothing changed.
func (r Result) Diff() string {
	if !r.Changed {
		return ""
	}
	base := filepath.Base(r.Path)
	body, _ := diff.Unified("a/"+base, "b/"+base, r.Before, r.After, diff.Options{})
	return body
}

// Fields are the option values written by TrainerOptions.
type Fields struct {
	Gender       trainer.Gender
	DoubleBattle bool
	PartyFlags   string
	Items        []string
}

// field is a single-line substitution: group 1 of re is replaced by value.
type field struct {
	re    *regexp.Regexp
	value string
}

var (
	reNameField     = regexp.MustCompile(`\.trainerName\s*=\s*(\{[^{}]*\})`)
	reGenderField   = regexp.MustCompile(`\.gender\s*=\s*(\w+)`)
	reDoubleField   = regexp.MustCompile(`\.doubleBattle\s*=\s*(\w+)`)
	reFlagsField    = regexp.MustCompile(`\.partyFlags\s*=\s*([^,\s](?:[^,\n]*[^,\s])?)`)
	reItemsField    = regexp.MustCompile(`\.items\s*=\s*(\{[^{}]*\})`)
	reSelectorField = regexp.MustCompile(`\.party\s*=\s*\{\s*\.(\w+)\s*=`)
	reStructType    = regexp.MustCompile(`\bstruct\s+([A-Za-z_]\w*)`)
)

// Name replaces the braced token list of a record's .trainerName.
func Name(path, id string, tokens []string, opt Options) (Result, error) {
	return patchRecord(path, id, opt, []field{
		{re: reNameField, value: charmap.FormatTokens(tokens)},
	})
}

// TrainerOptions replaces a record's gender, double battle flag, party
// flags and item list. When the record carries a party union, its
// selector is replaced by the one the new flags resolve to.
func TrainerOptions(path, id string, f Fields, opt Options) (Result, error) {
	flags := strings.TrimSpace(f.PartyFlags)
	if flags == "" {
		flags = "0"
	}
	return patchRecord(path, id, opt, []field{
		{re: reGenderField, value: f.Gender.Symbol()},
		{re: reDoubleField, value: trainer.FormatBool(f.DoubleBattle)},
		{re: reFlagsField, value: flags},
		{re: reItemsField, value: trainer.FormatItems(f.Items)},
		{re: reSelectorField, value: party.FlagsToVariant(flags).Selector},
	})
}

// Roster regenerates the initializer of the named roster declaration with
// one entry per member and sets its element struct type. Formatting and
// comments inside the old initializer are discarded.
func Roster(path, name string, members []party.Member, structType string, opt Options) (Result, error) {
	lines, err := scan.ReadLines(path)
	if err != nil {
		return Result{}, err
	}
	text := textutil.JoinLines(lines)
	res := Result{Path: path, Before: []byte(text), After: []byte(text)}

	code := textutil.StripComments(text)
	var decl *party.Decl
	for _, d := range party.Declarations(code) {
		if d.Name == name {
			decl = &d
			break
		}
	}
	if decl == nil {
		return res, nil
	}

	v, ok := party.VariantForStruct(structType)
	if !ok {
		v = party.VariantOf(false, false)
	}
	head := text[decl.Head:decl.Open]
	if structType != "" {
		if m := reStructType.FindStringSubmatchIndex(code[decl.Head:decl.Open]); m != nil {
			head = head[:m[2]] + structType + head[m[3]:]
		}
	}
	body := party.Format(members, v, textutil.DetectEOL(lines))

	var b strings.Builder
	b.WriteString(text[:decl.Head])
	b.WriteString(head)
	b.WriteString(body)
	b.WriteString(text[decl.Close+1:])
	return finish(res, b.String(), opt)
}

// patchRecord applies fields to the live record id. Each field is searched
// line by line within the record span and substituted at most once.
func patchRecord(path, id string, opt Options, fields []field) (Result, error) {
	lines, err := scan.ReadLines(path)
	if err != nil {
		return Result{}, err
	}
	before := textutil.JoinLines(lines)
	res := Result{Path: path, Before: []byte(before), After: []byte(before)}

	recs, err := scan.Records(lines, opt.Scan)
	if err != nil {
		return Result{}, apperrors.Wrap(apperrors.CodeMalformedRecord, "scan "+path, err)
	}
	rec, ok := scan.Find(recs, id)
	if !ok {
		return res, nil
	}

	code := codeLines(lines, rec.End)
	out := append([]string(nil), lines...)
	// grown tracks how far substitutions moved the record close on its line.
	grown := 0
	for _, f := range fields {
		for _, i := range rec.Lines {
			content, eol := textutil.TrimEOL(out[i])
			lo, hi := rec.Span(i, content)
			if i == rec.End {
				hi = rec.CloseCol + grown
			}
			m := f.re.FindStringSubmatchIndex(code[i][lo:hi])
			if m == nil {
				continue
			}
			start, end := lo+m[2], lo+m[3]
			out[i] = content[:start] + f.value + content[end:] + eol
			code[i] = code[i][:start] + f.value + code[i][end:]
			if i == rec.End {
				grown += len(f.value) - (end - start)
			}
			break
		}
	}
	return finish(res, textutil.JoinLines(out), opt)
}

// codeLines returns the comment-blanked text of lines[0..last].
func codeLines(lines []string, last int) []string {
	var lex textutil.Lexer
	out := make([]string, last+1)
	for i := 0; i <= last && i < len(lines); i++ {
		content, _ := textutil.TrimEOL(lines[i])
		out[i] = lex.Code(content)
	}
	return out
}

func finish(res Result, after string, opt Options) (Result, error) {
	res.After = []byte(after)
	res.Changed = after != string(res.Before)
	if !res.Changed || opt.DryRun {
		return res, nil
	}
	if err := writeAtomic(res.Path, res.After); err != nil {
		return res, err
	}
	res.Written = true
	return res, nil
}

// writeAtomic writes data into a temporary file next to path, syncs it and
// renames it over path, so readers never observe a partial file. The
// original permission bits are kept.
func writeAtomic(path string, data []byte) error {
	mode := os.FileMode(0o644)
	if st, err := os.Stat(path); err == nil {
		mode = st.Mode().Perm()
	}
	dir := filepath.Dir(path)
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return apperrors.Wrap(apperrors.CodeUnknown, "create temp for "+path, err)
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return apperrors.Wrap(apperrors.CodeUnknown, "write "+tmp, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return apperrors.Wrap(apperrors.CodeUnknown, "sync "+tmp, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return apperrors.Wrap(apperrors.CodeUnknown, "close "+tmp, err)
	}
	if err := os.Chmod(tmp, mode); err != nil {
		_ = os.Remove(tmp)
		return apperrors.Wrap(apperrors.CodeUnknown, "chmod "+tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return apperrors.Wrap(apperrors.CodeUnknown, "replace "+path, err)
	}
	return nil
}
