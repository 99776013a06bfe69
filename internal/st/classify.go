package st

import "strings"

// Classify turns one plain statement into a Statement. Compound statements
// never reach it on well-formed input; their keywords are still mapped so a
// stray fragment keeps a meaningful kind.
func Classify(text string) Statement {
	text = normalize(strings.TrimSuffix(strings.TrimSpace(text), ";"))
	s := Statement{Kind: KindStatement, Text: text}

	switch kw := leadingWord(text); {
	case kw == "IF" || kw == "ELSIF":
		s.Kind = KindIf
		return s
	case kw == "CASE":
		s.Kind = KindCase
		return s
	case kw == "FOR":
		s.Kind = KindFor
		return s
	case kw == "WHILE":
		s.Kind = KindWhile
		return s
	case kw == "REPEAT":
		s.Kind = KindRepeat
		return s
	case strings.HasPrefix(kw, "END_"):
		s.Kind = KindEndControl
		return s
	}

	lhs, rhs, isAssign := splitAssign(text)
	if !isAssign {
		if _, _, ok := splitCall(text); ok {
			s.Kind = KindFunctionCall
		}
		return s
	}

	s.Kind = KindAssignment
	if sel := parseSel(lhs, rhs); sel != nil {
		s.Kind = KindSelDecision
		s.Sel = sel
	}
	return s
}

// splitAssign splits `lhs := rhs` at the first ':=' outside parentheses, so
// named call parameters (fb(IN := x)) do not make a call an assignment.
func splitAssign(s string) (lhs, rhs string, ok bool) {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\'', '"':
			i = skipString(s, i) - 1
		case '(', '[':
			depth++
		case ')', ']':
			if depth > 0 {
				depth--
			}
		case ':':
			if depth == 0 && i+1 < len(s) && s[i+1] == '=' {
				return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+2:]), true
			}
		}
	}
	return "", "", false
}

// splitCall matches `name(args)` where the parenthesis opened after name is
// the one closing the text. name may be qualified (fbMotor.Start).
func splitCall(s string) (name, args string, ok bool) {
	open := strings.IndexByte(s, '(')
	if open <= 0 || !strings.HasSuffix(s, ")") {
		return "", "", false
	}
	name = strings.TrimSpace(s[:open])
	if !isQualifiedIdent(name) {
		return "", "", false
	}
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '\'', '"':
			i = skipString(s, i) - 1
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 && i != len(s)-1 {
				return "", "", false
			}
		}
	}
	if depth != 0 {
		return "", "", false
	}
	return name, s[open+1 : len(s)-1], true
}

// splitArgs splits a call's argument list at top-level commas.
func splitArgs(s string) []string {
	var out []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\'', '"':
			i = skipString(s, i) - 1
		case '(', '[':
			depth++
		case ')', ']':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				out = append(out, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	return append(out, strings.TrimSpace(s[start:]))
}

// parseSel recognises `target := SEL(g, a, b)`. Anything other than exactly
// three non-empty arguments is not a SEL decision.
func parseSel(target, rhs string) *SelCall {
	name, args, ok := splitCall(rhs)
	if !ok || !strings.EqualFold(name, "SEL") {
		return nil
	}
	parts := splitArgs(args)
	if len(parts) != 3 {
		return nil
	}
	for _, p := range parts {
		if p == "" {
			return nil
		}
	}
	return &SelCall{
		Target:     target,
		Cond:       parts[0],
		FalseValue: parts[1],
		TrueValue:  parts[2],
	}
}
