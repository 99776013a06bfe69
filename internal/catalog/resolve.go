package catalog

import (
	"regexp"
	"sort"
	"strings"

	"github.com/damischa1/plcopen2flow/internal/st"
)

// ── Sub-call resolver ─────────────────────────────────────────────────────────

// builtins are keywords and standard functions that look like calls.
var builtins = map[string]bool{
	"IF": true, "THEN": true, "ELSE": true, "ELSIF": true, "END_IF": true,
	"CASE": true, "OF": true, "END_CASE": true,
	"FOR": true, "TO": true, "BY": true, "DO": true, "END_FOR": true,
	"WHILE": true, "END_WHILE": true, "REPEAT": true, "UNTIL": true, "END_REPEAT": true,
	"EXIT": true, "RETURN": true, "CONTINUE": true, "JMP": true,
	"VAR": true, "END_VAR": true, "PROGRAM": true, "FUNCTION": true, "FUNCTION_BLOCK": true,
	"METHOD": true, "ACTION": true, "PROPERTY": true, "SUPER": true, "THIS": true,
	"TRUE": true, "FALSE": true, "AND": true, "OR": true, "NOT": true, "XOR": true, "MOD": true,
	"AND_THEN": true, "OR_ELSE": true,
	"SEL": true, "MUX": true, "MAX": true, "MIN": true, "LIMIT": true, "ABS": true, "SQRT": true,
	"LN": true, "LOG": true, "EXP": true, "EXPT": true, "SIN": true, "COS": true, "TAN": true,
	"ASIN": true, "ACOS": true, "ATAN": true, "TRUNC": true,
	"SHL": true, "SHR": true, "ROL": true, "ROR": true,
	"ADR": true, "ADRINST": true, "SIZEOF": true, "INDEXOF": true, "__NEW": true, "__DELETE": true,
	"LEN": true, "LEFT": true, "RIGHT": true, "MID": true, "CONCAT": true, "INSERT": true,
	"DELETE": true, "REPLACE": true, "FIND": true, "REPLACE_ALL": true,
	"MEMMOVE": true, "MEMCPY": true, "MEMSET": true, "ARRAY_AVG": true, "ARRAY_HAV": true,
}

var callPattern = regexp.MustCompile(`([A-Za-z_][A-Za-z0-9_]*(?:\.[A-Za-z_][A-Za-z0-9_]*)*)\s*\(`)

func isBuiltin(name string) bool {
	u := strings.ToUpper(name)
	// conversions: TO_INT, INT_TO_REAL, ...
	return builtins[u] || strings.HasPrefix(u, "TO_") || strings.Contains(u, "_TO_")
}

// FindCalls returns the sorted, de-duplicated names that src calls: every
// `name(` token and every bare `name;` statement, minus keywords and
// built-ins. With a non-nil known set only names in it are kept, either
// exactly or as the action/method suffix of a known Parent.Name; with a nil
// set the naming-convention fallback LooksLikeComponent is used. self is never
// returned.
func FindCalls(src string, known map[string]struct{}, self string) []string {
	code := st.StripComments(st.Clean(src))
	if code == "" {
		return nil
	}

	seen := map[string]bool{}
	add := func(name string) {
		if name == "" || isBuiltin(name) || isSelf(name, self) {
			return
		}
		if known == nil {
			if !LooksLikeComponent(name) {
				return
			}
		} else if !isKnown(name, known) {
			return
		}
		seen[name] = true
	}

	masked := st.MaskStrings(code)
	for _, m := range callPattern.FindAllStringSubmatchIndex(masked, -1) {
		// skip member names (x.y) already covered by the qualified match and
		// identifiers glued to a preceding literal
		if m[2] > 0 && (masked[m[2]-1] == '.' || masked[m[2]-1] == '#') {
			continue
		}
		add(masked[m[2]:m[3]])
	}
	stmts, err := st.ParseBlock(code)
	if err != nil {
		// malformed nesting: fall back to the flat statement list
		stmts = nil
		for _, raw := range st.Segment(code) {
			stmts = append(stmts, st.Classify(raw))
		}
	}
	st.Walk(stmts, func(s st.Statement) {
		if s.Kind == st.KindStatement {
			add(s.CallName())
		}
	})

	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func isSelf(name, self string) bool {
	if self == "" {
		return false
	}
	return name == self || strings.HasSuffix(self, "."+name)
}

func isKnown(name string, known map[string]struct{}) bool {
	if _, ok := known[name]; ok {
		return true
	}
	// instance.Method
	if head, _, ok := strings.Cut(name, "."); ok {
		if _, ok := known[head]; ok {
			return true
		}
	}
	for k := range known {
		if strings.HasSuffix(k, "."+name) {
			return true
		}
	}
	return false
}

// LooksLikeComponent is the fallback used when no catalogue is available.
// Component names in CoDeSys projects are usually capitalised, mixed case and
// contain an underscore (FB_Motor, Prg_Main).
func LooksLikeComponent(name string) bool {
	if len(name) <= 2 || !strings.Contains(name, "_") {
		return false
	}
	first := name[0]
	if first < 'A' || first > 'Z' {
		return false
	}
	return strings.ToUpper(name) != name
}
