// Package st parses IEC 61131-3 Structured Text bodies into a nested list of
// classified statements.
//
// The parser is deliberately shallow: it recognises statement boundaries and
// the control structures that shape a flowchart (IF, CASE, FOR, WHILE,
// REPEAT) and leaves expressions as text.
//
//	raw text ─ Clean ─ StripComments ─ ParseBlock ─ []Statement
package st

import "strings"

// Kind classifies a statement.
type Kind int

const (
	KindStatement Kind = iota
	KindAssignment
	KindFunctionCall
	KindSelDecision
	KindIf
	KindCase
	KindCaseBranch
	KindFor
	KindWhile
	KindRepeat
	KindEndControl
)

var kindNames = [...]string{
	KindStatement:    "STATEMENT",
	KindAssignment:   "ASSIGNMENT",
	KindFunctionCall: "FUNCTION_CALL",
	KindSelDecision:  "SEL_DECISION",
	KindIf:           "IF",
	KindCase:         "CASE",
	KindCaseBranch:   "CASE_BRANCH",
	KindFor:          "FOR",
	KindWhile:        "WHILE",
	KindRepeat:       "REPEAT",
	KindEndControl:   "END_CONTROL",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "UNKNOWN"
	}
	return kindNames[k]
}

// IsLoop reports whether k is one of the loop kinds.
func (k Kind) IsLoop() bool {
	return k == KindFor || k == KindWhile || k == KindRepeat
}

// Statement is one classified unit of source. Only the fields that belong to
// Kind are populated:
//
//	KindIf          Cond, Then, Else, Elsif
//	KindCase        Cond (the discriminant), Branches
//	KindSelDecision Sel
//	loops           Body
//
// Text always holds the whitespace-normalised source (for compound statements
// the header, e.g. "IF x > 0 THEN").
type Statement struct {
	Kind Kind
	Text string

	Cond  string
	Then  []Statement
	Else  []Statement
	Elsif bool

	Branches []CaseBranch

	Sel *SelCall

	Body []Statement
}

// CaseBranch is one `label : action` arm of a CASE statement.
type CaseBranch struct {
	Condition string
	// Action is the branch text after the label, NoAction when empty.
	Action string
	Body   []Statement
}

// NoAction is the placeholder action of an empty CASE branch.
const NoAction = "NA"

// SelCall is an assignment of the form `Target := SEL(Cond, False, True)`.
// The argument order follows the IEC SEL function: the second argument is
// selected when Cond is FALSE, the third when it is TRUE.
type SelCall struct {
	Target     string
	Cond       string
	FalseValue string
	TrueValue  string
}

// CallName returns the callee of a call-like statement: the identifier before
// the argument list of a FUNCTION_CALL, or the whole text of a bare identifier
// statement such as `Reset;`. It returns "" for anything else.
func (s Statement) CallName() string {
	switch s.Kind {
	case KindFunctionCall:
		if i := strings.IndexByte(s.Text, '('); i > 0 {
			return strings.TrimSpace(s.Text[:i])
		}
	case KindStatement:
		if isQualifiedIdent(s.Text) {
			return s.Text
		}
	}
	return ""
}

// Count returns the number of statements in list, including nested ones.
func Count(list []Statement) int {
	n := 0
	for _, s := range list {
		n++
		n += Count(s.Then) + Count(s.Else) + Count(s.Body)
		for _, b := range s.Branches {
			n += Count(b.Body)
		}
	}
	return n
}

// Walk calls fn for every statement in list, depth first, parents before
// their nested statements.
func Walk(list []Statement, fn func(Statement)) {
	for _, s := range list {
		fn(s)
		Walk(s.Then, fn)
		Walk(s.Else, fn)
		for _, b := range s.Branches {
			Walk(b.Body, fn)
		}
		Walk(s.Body, fn)
	}
}
