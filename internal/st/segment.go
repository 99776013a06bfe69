package st

import "strings"

// controlForms are the leading keywords of lines that end a statement without
// a ';'.
var controlForms = map[string]bool{
	"IF": true, "ELSIF": true, "ELSE": true, "THEN": true,
	"CASE": true, "FOR": true, "WHILE": true, "REPEAT": true, "UNTIL": true,
}

// Segment splits cleaned ST text into raw statements. A ';' ends a statement
// only outside parentheses and brackets; a statement spanning several lines is
// joined with single spaces. A line holding a control keyword form (IF ...
// THEN, END_IF, ...) ends its statement even without a ';'.
func Segment(cleaned string) []string {
	var (
		out     []string
		cur     strings.Builder
		paren   int
		bracket int
	)
	flush := func() {
		if t := normalize(cur.String()); t != "" {
			out = append(out, t)
		}
		cur.Reset()
	}

	for _, line := range strings.Split(cleaned, "\n") {
		for i := 0; i < len(line); {
			c := line[i]
			switch c {
			case '\'', '"':
				j := skipString(line, i)
				cur.WriteString(line[i:j])
				i = j
				continue
			case '(':
				paren++
			case ')':
				if paren > 0 {
					paren--
				}
			case '[':
				bracket++
			case ']':
				if bracket > 0 {
					bracket--
				}
			case ';':
				if paren == 0 && bracket == 0 {
					flush()
					i++
					continue
				}
			}
			cur.WriteByte(c)
			i++
		}
		if paren == 0 && bracket == 0 && isControlForm(cur.String()) {
			flush()
			continue
		}
		cur.WriteByte(' ')
	}
	flush()
	return out
}

func isControlForm(frag string) bool {
	kw := leadingWord(frag)
	return controlForms[kw] || strings.HasPrefix(kw, "END_")
}

// leadingWord returns the first identifier of s in upper case.
func leadingWord(s string) string {
	s = strings.TrimSpace(s)
	j := 0
	for j < len(s) && isIdentPart(s[j]) {
		j++
	}
	return strings.ToUpper(s[:j])
}
