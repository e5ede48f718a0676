// Package scan delimits designated-initializer records in a C source table:
//
//	[TRAINER_BUG_CATCHER] = {
//	    .trainerName = {_B, _u, _g, _SPACE, _C, _END},
//	    ...
//	},
//
// The scanner is a two-state machine over lines (seeking a record, inside a
// record) that counts brace depth outside comments and literals. It runs a
// preprocessor conditional filter alongside, so records in a branch the
// feature toggle does not select are invisible. Records keep their line
// span, which lets the patch writer search exactly the lines the extractor
// read.
package scan

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"

	apperrors "trainer-editor/internal/errors"
	"trainer-editor/internal/textutil"
)

// State is the scanner state.
type State int

const (
	SeekingRecord State = iota
	InRecord
)

func (s State) String() string {
	if s == InRecord {
		return "in-record"
	}
	return "seeking-record"
}

// reOpen matches "[<id>] = {" at the start of a line or after ',' / '{'.
// Array declarations such as "gTrainers[MAX] = {" do not match.
var reOpen = regexp.MustCompile(`(?:^|[,{])\s*\[\s*([^\[\]]*?[^\[\]\s])\s*\]\s*=\s*\{`)

// Options controls a scan.
type Options struct {
	// Defines lists features treated as defined in addition to the ones
	// #define'd in the file itself.
	Defines []string
}

// Record is one live record. Line indices are 0-based.
type Record struct {
	ID    string
	Start int // line holding "[id] = {"
	End   int // line holding the closing '}'
	// OpenCol is the byte offset just past the opening '{' on line Start;
	// CloseCol is the offset of the closing '}' on line End.
	OpenCol  int
	CloseCol int
	// Lines lists the live lines of the record in order, Start and End
	// included. Lines of inactive conditional branches are omitted.
	Lines []int
	// Body is the record text between the braces, live lines only, with
	// comments blanked out.
	Body string
}

// Span returns the searchable byte range of line i inside the record.
func (r Record) Span(i int, content string) (lo, hi int) {
	lo, hi = 0, len(content)
	if i == r.Start {
		lo = r.OpenCol
	}
	if i == r.End {
		hi = r.CloseCol
	}
	if lo > hi {
		lo = hi
	}
	return lo, hi
}

// Records scans lines (as returned by textutil.SplitLines) and returns the
// live records in source order. It fails only for a record left open at
// end of input.
func Records(lines []string, opt Options) ([]Record, error) {
	var (
		out   []Record
		cur   Record
		body  strings.Builder
		depth int
		state = SeekingRecord
		lex   textutil.Lexer
	)
	cond := NewConditional(opt.Defines)

	finish := func(end, closeCol int, tail string) {
		body.WriteString(tail)
		cur.End = end
		cur.CloseCol = closeCol
		cur.Body = body.String()
		out = append(out, cur)
		cur = Record{}
		body.Reset()
		state = SeekingRecord
	}

	for i, raw := range lines {
		content, _ := textutil.TrimEOL(raw)
		code := lex.Code(content)
		if cond.Feed(code) || !cond.Active() {
			continue
		}

		// pos is where seeking resumes on this line; a record may close
		// and another open on the same line.
		pos := 0
		if state == InRecord {
			cur.Lines = append(cur.Lines, i)
			at := textutil.CloseAt(code, depth)
			if at < 0 {
				depth += textutil.Depth(code)
				body.WriteString(code)
				body.WriteByte('\n')
				continue
			}
			finish(i, at, code[:at])
			pos = at + 1
		}

		for pos < len(code) {
			m := reOpen.FindStringSubmatchIndex(code[pos:])
			if m == nil {
				break
			}
			open := pos + m[1]
			cur = Record{
				ID:      strings.TrimSpace(content[pos+m[2] : pos+m[3]]),
				Start:   i,
				OpenCol: open,
				Lines:   []int{i},
			}
			depth = 1
			state = InRecord
			at := textutil.CloseAt(code[open:], depth)
			if at < 0 {
				depth += textutil.Depth(code[open:])
				body.WriteString(code[open:])
				body.WriteByte('\n')
				break
			}
			finish(i, open+at, code[open:open+at])
			pos = open + at + 1
		}
	}

	if state == InRecord {
		return nil, apperrors.WithMetadata(
			apperrors.CodeMalformedRecord,
			fmt.Sprintf("record %s opened on line %d is never closed", cur.ID, cur.Start+1),
			map[string]string{"id": cur.ID, "line": fmt.Sprint(cur.Start + 1)},
		)
	}
	return out, nil
}

// ReadLines reads path and splits it with textutil.SplitLines. Missing
// paths and directories map to CodeFileNotFound and CodeNotAFile.
func ReadLines(path string) ([]string, error) {
	st, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.Wrap(apperrors.CodeFileNotFound, "file not found: "+path, err)
		}
		return nil, apperrors.Wrap(apperrors.CodeMalformedRecord, "stat "+path, err)
	}
	if st.IsDir() {
		return nil, apperrors.New(apperrors.CodeNotAFile, "not a file: "+path)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeMalformedRecord, "read "+path, err)
	}
	return textutil.SplitLines(string(b)), nil
}

// File reads and scans path.
func File(path string, opt Options) ([]Record, error) {
	lines, err := ReadLines(path)
	if err != nil {
		return nil, err
	}
	recs, err := Records(lines, opt)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", path, err)
	}
	return recs, nil
}

// Find returns the first record with the given id.
func Find(recs []Record, id string) (Record, bool) {
	id = strings.TrimSpace(id)
	for _, r := range recs {
		if r.ID == id {
			return r, true
		}
	}
	return Record{}, false
}
