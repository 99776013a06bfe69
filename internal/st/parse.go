package st

import "strings"

// Parse cleans raw ST source, strips comments and parses the result.
func Parse(src string) ([]Statement, error) {
	return ParseBlock(StripComments(Clean(src)))
}

// ParseBlock parses cleaned, comment-free ST text. It repeatedly takes the
// earliest top-level control structure, emits the plain statements before it,
// decomposes the structure recursively and continues after it.
func ParseBlock(text string) ([]Statement, error) {
	var out []Statement
	rest, base := text, 0
	for {
		sp, ok, err := findSpan(rest)
		if err != nil {
			return nil, shift(err, base)
		}
		if !ok {
			return append(out, plain(rest)...), nil
		}
		out = append(out, plain(rest[:sp.start])...)

		stmt, err := decompose(sp.keyword, rest[sp.start:sp.closeStart])
		if err != nil {
			return nil, shift(err, base+sp.start)
		}
		out = append(out, stmt)
		rest, base = rest[sp.end:], base+sp.end
	}
}

func plain(text string) []Statement {
	var out []Statement
	for _, raw := range Segment(text) {
		if s := Classify(raw); s.Text != "" {
			out = append(out, s)
		}
	}
	return out
}

// decompose handles one control structure. text runs from the opening
// keyword up to, not including, its END_* keyword.
func decompose(kw, text string) (Statement, error) {
	switch kw {
	case "IF":
		return decomposeIf(text)
	case "CASE":
		return decomposeCase(text)
	case "REPEAT":
		return decomposeRepeat(text)
	default:
		return decomposeLoop(kw, text)
	}
}

// ── IF ────────────────────────────────────────────────────────────────────────

func decomposeIf(text string) (Statement, error) {
	ws := scanWords(text)
	top := topLevel(ws)

	var then, next *word
	for i := range top {
		w := &top[i]
		switch {
		case then == nil && w.text == "THEN":
			then = w
		case then != nil && (w.text == "ELSIF" || w.text == "ELSE"):
			next = w
		}
		if next != nil {
			break
		}
	}
	if then == nil {
		return Statement{}, malformed("IF", 0, "IF without THEN")
	}

	cond := normalize(text[ws[0].end:then.start])
	s := Statement{
		Kind: KindIf,
		Text: "IF " + cond + " THEN",
		Cond: cond,
	}

	thenEnd := len(text)
	if next != nil {
		thenEnd = next.start
	}
	var err error
	if s.Then, err = ParseBlock(text[then.end:thenEnd]); err != nil {
		return Statement{}, shift(err, then.end)
	}
	if next == nil {
		return s, nil
	}

	if next.text == "ELSE" {
		if s.Else, err = ParseBlock(text[next.end:]); err != nil {
			return Statement{}, shift(err, next.end)
		}
		return s, nil
	}

	// ELSIF c THEN ... is the IF c THEN ... END_IF nested in the ELSE part.
	nested, err := decomposeIf("IF" + text[next.end:])
	if err != nil {
		return Statement{}, shift(err, next.end-len("IF"))
	}
	nested.Elsif = true
	s.Else = []Statement{nested}
	return s, nil
}

// ── CASE ──────────────────────────────────────────────────────────────────────

func decomposeCase(text string) (Statement, error) {
	ws := scanWords(text)
	var of *word
	for _, w := range topLevel(ws) {
		if w.text == "OF" {
			of = &w
			break
		}
	}
	if of == nil {
		return Statement{}, malformed("CASE", 0, "CASE without OF")
	}

	cond := normalize(text[ws[0].end:of.start])
	s := Statement{
		Kind: KindCase,
		Text: "CASE " + cond + " OF",
		Cond: cond,
	}

	var (
		cur   *CaseBranch
		parts []string
	)
	flush := func() error {
		if cur == nil {
			return nil
		}
		body := strings.Join(parts, " ")
		cur.Action = normalize(strings.TrimSuffix(strings.TrimSpace(body), ";"))
		if cur.Action == "" {
			cur.Action = NoAction
		}
		var err error
		if cur.Body, err = ParseBlock(body); err != nil {
			return err
		}
		s.Branches = append(s.Branches, *cur)
		cur, parts = nil, nil
		return nil
	}

	for _, c := range chunks(text[of.end:]) {
		for {
			label, rest, ok := splitLabel(c)
			if !ok {
				break
			}
			if err := flush(); err != nil {
				return Statement{}, shift(err, of.end)
			}
			cur = &CaseBranch{Condition: label}
			c = rest
		}
		c = strings.TrimSpace(c)
		if c == "" || c == ";" {
			continue
		}
		if cur == nil {
			return Statement{}, malformed("CASE", of.end, "statement %q before the first CASE label", c)
		}
		parts = append(parts, c)
	}
	if err := flush(); err != nil {
		return Statement{}, shift(err, of.end)
	}
	return s, nil
}

// splitLabel splits a leading CASE label (`1:`, `1, 2:`, `1..5:`,
// `E_State.Idle:`) or a leading ELSE off a chunk.
func splitLabel(chunk string) (label, rest string, ok bool) {
	chunk = strings.TrimSpace(chunk)
	if leadingWord(chunk) == "ELSE" {
		return "ELSE", chunk[len("ELSE"):], true
	}

	limit := len(chunk)
	if ws := scanWords(chunk); len(ws) > 0 {
		for _, w := range ws {
			if _, isBlock := blockEnd[w.text]; isBlock {
				limit = w.start
				break
			}
		}
	}

	depth := 0
	for i := 0; i < limit; i++ {
		switch chunk[i] {
		case '\'', '"':
			return "", "", false
		case '(', '[':
			depth++
		case ')', ']':
			if depth > 0 {
				depth--
			}
		case ':':
			if depth > 0 {
				continue
			}
			if i+1 < len(chunk) && chunk[i+1] == '=' {
				return "", "", false
			}
			label = normalize(chunk[:i])
			if !isCaseLabel(label) {
				return "", "", false
			}
			return label, chunk[i+1:], true
		}
	}
	return "", "", false
}

func isCaseLabel(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isIdentPart(c) {
			continue
		}
		switch c {
		case '.', ',', '#', '+', '-', ' ':
			continue
		}
		return false
	}
	return true
}

// ── Loops ─────────────────────────────────────────────────────────────────────

// decomposeLoop handles FOR ... DO and WHILE ... DO.
func decomposeLoop(kw, text string) (Statement, error) {
	ws := scanWords(text)
	var do *word
	for _, w := range topLevel(ws) {
		if w.text == "DO" {
			do = &w
			break
		}
	}
	if do == nil {
		return Statement{}, malformed(kw, 0, "%s without DO", kw)
	}

	cond := normalize(text[ws[0].end:do.start])
	s := Statement{
		Kind: KindFor,
		Text: kw + " " + cond + " DO",
		Cond: cond,
	}
	if kw == "WHILE" {
		s.Kind = KindWhile
	}
	var err error
	if s.Body, err = ParseBlock(text[do.end:]); err != nil {
		return Statement{}, shift(err, do.end)
	}
	return s, nil
}

func decomposeRepeat(text string) (Statement, error) {
	ws := scanWords(text)
	var until *word
	for _, w := range topLevel(ws) {
		if w.text == "UNTIL" {
			w := w
			until = &w
		}
	}

	s := Statement{Kind: KindRepeat, Text: "REPEAT"}
	bodyEnd := len(text)
	if until != nil {
		bodyEnd = until.start
		s.Cond = normalize(strings.TrimSuffix(strings.TrimSpace(text[until.end:]), ";"))
		s.Text = "REPEAT UNTIL " + s.Cond
	}
	var err error
	if s.Body, err = ParseBlock(text[ws[0].end:bodyEnd]); err != nil {
		return Statement{}, shift(err, ws[0].end)
	}
	return s, nil
}
