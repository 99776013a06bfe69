package st

import "strings"

var entityReplacer = strings.NewReplacer("&lt;", "<", "&gt;", ">", "&amp;", "&")

// Clean decodes the XML entities left over by some exporters, trims every
// line, collapses whitespace runs to a single space and drops blank lines.
func Clean(raw string) string {
	if raw == "" {
		return ""
	}
	raw = entityReplacer.Replace(raw)
	raw = strings.ReplaceAll(raw, "\r\n", "\n")

	var out []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

// StripComments removes `//` line comments and `(* *)` / `/* */` block
// comments. String literals are left alone, and line structure is kept so
// Segment still sees the input line ends. Lines that end up empty are
// dropped.
func StripComments(src string) string {
	var sb strings.Builder
	sb.Grow(len(src))

	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == '\'' || c == '"':
			j := skipString(src, i)
			sb.WriteString(src[i:j])
			i = j
		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			for i < len(src) && src[i] != '\n' {
				i++
			}
		case c == '(' && i+1 < len(src) && src[i+1] == '*':
			i = skipBlockComment(src, i+2, "*)")
			sb.WriteByte(' ')
		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			i = skipBlockComment(src, i+2, "*/")
			sb.WriteByte(' ')
		default:
			sb.WriteByte(c)
			i++
		}
	}
	return Clean(sb.String())
}

// skipBlockComment returns the index after the closing marker, or len(src)
// when the comment is not closed. Newlines inside the comment are dropped.
func skipBlockComment(src string, from int, closer string) int {
	if j := strings.Index(src[from:], closer); j >= 0 {
		return from + j + len(closer)
	}
	return len(src)
}

// skipString returns the index after the string literal starting at i.
// ST escapes quotes with `$`, e.g. 'it$'s'.
func skipString(src string, i int) int {
	q := src[i]
	j := i + 1
	for j < len(src) {
		switch src[j] {
		case '$':
			j += 2
			continue
		case q:
			return j + 1
		}
		j++
	}
	return len(src)
}

// MaskStrings replaces the contents of string literals with spaces, keeping
// offsets intact, so text searches do not match inside them.
func MaskStrings(src string) string {
	b := []byte(src)
	for i := 0; i < len(b); {
		if b[i] != '\'' && b[i] != '"' {
			i++
			continue
		}
		j := skipString(src, i)
		for k := i + 1; k < j-1; k++ {
			b[k] = ' '
		}
		i = j
	}
	return string(b)
}
