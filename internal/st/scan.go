package st

import "strings"

// ── Keyword scanning ──────────────────────────────────────────────────────────
// Control structures are matched with an explicit stack of open keywords, so
// an inner IF's END_IF can never close the outer IF.

var blockEnd = map[string]string{
	"IF":     "END_IF",
	"CASE":   "END_CASE",
	"FOR":    "END_FOR",
	"WHILE":  "END_WHILE",
	"REPEAT": "END_REPEAT",
}

var blockOpen = map[string]string{
	"END_IF":     "IF",
	"END_CASE":   "CASE",
	"END_FOR":    "FOR",
	"END_WHILE":  "WHILE",
	"END_REPEAT": "REPEAT",
}

// word is an identifier or keyword found outside string literals. text is
// upper case; start/end index the scanned string.
type word struct {
	text       string
	start, end int
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func scanWords(s string) []word {
	var ws []word
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == '\'' || c == '"':
			i = skipString(s, i)
		case isIdentStart(c):
			j := i + 1
			for j < len(s) && isIdentPart(s[j]) {
				j++
			}
			// member access (fb.Done) is never a keyword
			if i == 0 || s[i-1] != '.' {
				ws = append(ws, word{text: strings.ToUpper(s[i:j]), start: i, end: j})
			}
			i = j
		case c >= '0' && c <= '9':
			// literals such as 16#FF or 1.5E3
			j := i + 1
			for j < len(s) && (isIdentPart(s[j]) || s[j] == '#' || s[j] == '.') {
				j++
			}
			i = j
		default:
			i++
		}
	}
	return ws
}

// span is one complete top-level control structure.
type span struct {
	keyword    string
	start      int // opening keyword
	closeStart int // closing END_* keyword
	end        int // after the closing keyword and an optional ';'
}

// findSpan locates the earliest top-level control structure in s. Stray
// closing keywords before the first opener are left to the caller as plain
// text.
func findSpan(s string) (span, bool, error) {
	ws := scanWords(s)
	for i, w := range ws {
		if _, ok := blockEnd[w.text]; !ok {
			continue
		}
		stack := []string{w.text}
		for _, x := range ws[i+1:] {
			if _, ok := blockEnd[x.text]; ok {
				stack = append(stack, x.text)
				continue
			}
			open, ok := blockOpen[x.text]
			if !ok {
				continue
			}
			top := stack[len(stack)-1]
			if top != open {
				return span{}, false, malformed(top, x.start, "%s closes %s", x.text, top)
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return span{
					keyword:    w.text,
					start:      w.start,
					closeStart: x.start,
					end:        skipTerminator(s, x.end),
				}, true, nil
			}
		}
		return span{}, false, unterminated(stack[len(stack)-1], w.start)
	}
	return span{}, false, nil
}

// topLevel returns the words of ws (ws[0] being the structure's own opening
// keyword) that sit directly inside that structure, i.e. not inside a nested
// block.
func topLevel(ws []word) []word {
	var out []word
	depth := 0
	for _, w := range ws[1:] {
		if _, ok := blockEnd[w.text]; ok {
			depth++
			continue
		}
		if _, ok := blockOpen[w.text]; ok {
			if depth > 0 {
				depth--
			}
			continue
		}
		if depth == 0 {
			out = append(out, w)
		}
	}
	return out
}

func skipTerminator(s string, i int) int {
	j := i
	for j < len(s) && (s[j] == ' ' || s[j] == '\t' || s[j] == '\n' || s[j] == '\r') {
		j++
	}
	if j < len(s) && s[j] == ';' {
		return j + 1
	}
	return i
}

// chunks splits a statement list into top-level pieces: each simple statement
// with its ';', and each complete nested control structure as one piece.
func chunks(s string) []string {
	ws := scanWords(s)
	var out []string
	start, depth, paren, wi := 0, 0, 0, 0

	emit := func(end int) {
		if t := strings.TrimSpace(s[start:end]); t != "" {
			out = append(out, t)
		}
		start = end
	}

	for i := 0; i < len(s); {
		if wi < len(ws) && ws[wi].start == i {
			w := ws[wi]
			wi++
			i = w.end
			if _, ok := blockEnd[w.text]; ok {
				depth++
			} else if _, ok := blockOpen[w.text]; ok && depth > 0 {
				depth--
				if depth == 0 {
					end := skipTerminator(s, w.end)
					emit(end)
					i = end
				}
			}
			continue
		}
		switch s[i] {
		case '\'', '"':
			i = skipString(s, i)
			continue
		case '(', '[':
			paren++
		case ')', ']':
			if paren > 0 {
				paren--
			}
		case ';':
			if paren == 0 && depth == 0 {
				emit(i + 1)
			}
		}
		i++
	}
	emit(len(s))
	return out
}

// normalize collapses all whitespace, newlines included, to single spaces.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func isQualifiedIdent(s string) bool {
	if s == "" {
		return false
	}
	for _, part := range strings.Split(s, ".") {
		if part == "" || !isIdentStart(part[0]) {
			return false
		}
		for i := 1; i < len(part); i++ {
			if !isIdentPart(part[i]) {
				return false
			}
		}
	}
	return true
}
