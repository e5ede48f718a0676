package scan

import (
	"regexp"
	"strings"
)

// ConditionalState describes whether scanned text is live.
type ConditionalState int

const (
	// Inactive text lies in a branch the feature toggle did not select.
	Inactive ConditionalState = iota
	// ActiveByDefault text is outside any conditional region, or in the
	// branch taken when the feature is not defined.
	ActiveByDefault
	// ActiveByOverride text is in the branch taken because the feature is
	// defined.
	ActiveByOverride
)

func (s ConditionalState) String() string {
	switch s {
	case Inactive:
		return "inactive"
	case ActiveByDefault:
		return "active-by-default"
	case ActiveByOverride:
		return "active-by-override"
	}
	return "unknown"
}

var (
	reDirective = regexp.MustCompile(`^\s*#\s*(ifdef|ifndef|if|elif|else|endif|define|undef)\b\s*(.*?)\s*$`)
	reIdent     = regexp.MustCompile(`^[A-Za-z_]\w*`)
	reDefinedOp = regexp.MustCompile(`^(!?)\s*defined\s*\(?\s*([A-Za-z_]\w*)\s*\)?$`)
)

type condFrame struct {
	parent   bool // enclosing region was active
	taken    bool // some branch of this region has been selected
	active   bool
	override bool
	// elseOverride is set when the #else branch is selected precisely
	// because a feature is defined (#ifndef FEATURE ... #else).
	elseOverride bool
}

// Conditional tracks #ifdef/#ifndef/#if/#elif/#else/#endif regions. A
// feature counts as defined when it was #define'd earlier in the file or
// was supplied by the caller; the toggle is evaluated where the region
// opens.
type Conditional struct {
	defined map[string]bool
	stack   []condFrame
}

// NewConditional returns a filter that treats defines as already defined.
func NewConditional(defines []string) *Conditional {
	c := &Conditional{defined: make(map[string]bool, len(defines))}
	for _, d := range defines {
		if d = strings.TrimSpace(d); d != "" {
			c.defined[d] = true
		}
	}
	return c
}

// Active reports whether the current line is live.
func (c *Conditional) Active() bool {
	if n := len(c.stack); n > 0 {
		return c.stack[n-1].active
	}
	return true
}

// State reports the ConditionalState of the current line.
func (c *Conditional) State() ConditionalState {
	n := len(c.stack)
	switch {
	case n == 0:
		return ActiveByDefault
	case !c.stack[n-1].active:
		return Inactive
	case c.stack[n-1].override:
		return ActiveByOverride
	}
	return ActiveByDefault
}

// Feed consumes one comment-free line. It returns true when the line is a
// preprocessor directive, which is never part of a record body.
func (c *Conditional) Feed(code string) bool {
	m := reDirective.FindStringSubmatch(code)
	if m == nil {
		return false
	}
	arg := m[2]
	switch m[1] {
	case "define":
		if c.Active() {
			if name := reIdent.FindString(arg); name != "" {
				c.defined[name] = true
			}
		}
	case "undef":
		if c.Active() {
			delete(c.defined, strings.TrimSpace(arg))
		}
	case "ifdef":
		name := reIdent.FindString(arg)
		c.push(c.defined[name], c.defined[name], false)
	case "ifndef":
		name := reIdent.FindString(arg)
		c.push(!c.defined[name], false, c.defined[name])
	case "if":
		cond, override := c.eval(arg)
		c.push(cond, override && cond, false)
	case "elif":
		if n := len(c.stack); n > 0 {
			f := &c.stack[n-1]
			cond, override := c.eval(arg)
			f.active = f.parent && !f.taken && cond
			f.override = f.active && override
			f.taken = f.taken || cond
			f.elseOverride = false
		}
	case "else":
		if n := len(c.stack); n > 0 {
			f := &c.stack[n-1]
			f.active = f.parent && !f.taken
			f.override = f.active && f.elseOverride
			f.taken = true
		}
	case "endif":
		if n := len(c.stack); n > 0 {
			c.stack = c.stack[:n-1]
		}
	}
	return true
}

func (c *Conditional) push(cond, override, elseOverride bool) {
	parent := c.Active()
	c.stack = append(c.stack, condFrame{
		parent:       parent,
		taken:        cond,
		active:       parent && cond,
		override:     parent && cond && override,
		elseOverride: elseOverride,
	})
}

// eval understands the small subset of #if expressions seen in tables:
// 0, 1, NAME, defined(NAME) and !defined(NAME). Anything else is treated
// as true so that no text silently disappears.
func (c *Conditional) eval(expr string) (cond, override bool) {
	expr = strings.TrimSpace(expr)
	switch expr {
	case "0":
		return false, false
	case "1", "":
		return true, false
	}
	if m := reDefinedOp.FindStringSubmatch(expr); m != nil {
		def := c.defined[m[2]]
		if m[1] == "!" {
			return !def, false
		}
		return def, def
	}
	if reIdent.MatchString(expr) && reIdent.FindString(expr) == expr {
		def := c.defined[expr]
		return def, def
	}
	return true, false
}
