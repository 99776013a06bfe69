package flow

import (
	"fmt"

	"github.com/damischa1/plcopen2flow/internal/st"
)

// DefaultCallStyle highlights nodes that call another component.
const DefaultCallStyle = "fill:#e1f5fe,stroke:#01579b,stroke-width:2px"

// Linker resolves a call written in caller's source to a catalogue name.
// *catalog.Catalogue satisfies it.
type Linker interface {
	Resolve(call, caller string) (string, bool)
}

// Options tune a Builder. The zero value gives the default behaviour.
type Options struct {
	// Prefix is prepended to every node id so several graphs can share one
	// document.
	Prefix string
	// ExpandLoops decomposes loop bodies instead of drawing one node per loop.
	ExpandLoops  bool
	NodeLabelMax int
	EdgeLabelMax int
	CallStyle    string
}

// Builder turns statements into a Graph. A Builder holds no state between
// Build calls and may be reused.
type Builder struct {
	Options
	// Linker is optional; without it no node is call-styled.
	Linker Linker
}

// build is the state of one Build call.
type build struct {
	opt    Options
	linker Linker
	caller string
	n      int
	g      *Graph
}

// Build walks stmts and returns the flowchart of component name. An empty
// list yields the "No Code" chart.
func (b *Builder) Build(stmts []st.Statement, name string) *Graph {
	opt := b.Options.withDefaults()
	if len(stmts) == 0 {
		return emptyGraph(name, opt)
	}

	s := &build{opt: opt, linker: b.Linker, caller: name, g: &Graph{Name: name}}
	s.g.StartID = opt.Prefix + "Start"
	s.g.EndID = opt.Prefix + "End"
	s.node(s.g.StartID, "Start: "+name, ShapeTerminal, "", "")

	exit := s.seq(stmts, s.g.StartID, "")

	s.node(s.g.EndID, "End: "+name, ShapeTerminal, "", "")
	s.edge(exit, s.g.EndID, "")
	s.g.Stats.Statements = st.Count(stmts)
	return s.g
}

func (o Options) withDefaults() Options {
	if o.NodeLabelMax <= 0 {
		o.NodeLabelMax = DefaultNodeLabelMax
	}
	if o.EdgeLabelMax <= 0 {
		o.EdgeLabelMax = DefaultEdgeLabelMax
	}
	if o.CallStyle == "" {
		o.CallStyle = DefaultCallStyle
	}
	return o
}

// Empty returns the chart of a component without code: Start → End (No Code).
func (b *Builder) Empty(name string) *Graph {
	return emptyGraph(name, b.Options.withDefaults())
}

func emptyGraph(name string, opt Options) *Graph {
	s := &build{opt: opt, g: &Graph{Name: name, Note: "No ST code found"}}
	s.g.StartID = opt.Prefix + "Start"
	s.g.EndID = opt.Prefix + "End"
	s.node(s.g.StartID, "Start: "+name, ShapeTerminal, "", "")
	s.node(s.g.EndID, "End: "+name+" (No Code)", ShapeTerminal, "", "")
	s.edge(s.g.StartID, s.g.EndID, "")
	return s.g
}

// Error returns the placeholder chart of a component that failed to parse:
// Start → Error → End.
func (b *Builder) Error(name, msg string) *Graph {
	opt := b.Options.withDefaults()
	s := &build{opt: opt, g: &Graph{Name: name, Note: "Parse error: " + msg}}
	s.g.StartID = opt.Prefix + "Start"
	s.g.EndID = opt.Prefix + "End"
	errID := opt.Prefix + "Error"
	s.node(s.g.StartID, "Start: "+name, ShapeTerminal, "", "")
	s.node(errID, "Parse error: "+msg, ShapeProcess, "", "")
	s.node(s.g.EndID, "End: "+name, ShapeTerminal, "", "")
	s.edge(s.g.StartID, errID, "")
	s.edge(errID, s.g.EndID, "")
	return s.g
}

// ── Walk ──────────────────────────────────────────────────────────────────────

func (s *build) id(kind string, n int) string {
	return fmt.Sprintf("%s%s%d", s.opt.Prefix, kind, n)
}

func (s *build) next() int {
	s.n++
	return s.n
}

func (s *build) node(id, label string, shape Shape, style, call string) {
	s.g.Nodes = append(s.g.Nodes, Node{
		ID:    id,
		Label: Label(label, s.opt.NodeLabelMax),
		Shape: shape,
		Style: style,
		Call:  call,
	})
}

func (s *build) edge(from, to, label string) {
	if label != "" {
		label = Label(label, s.opt.EdgeLabelMax)
	}
	s.g.Edges = append(s.g.Edges, Edge{From: from, To: to, Label: label})
}

// seq chains list after from. The first edge carries label. It returns the
// id of the last node of the chain, or from when list is empty.
func (s *build) seq(list []st.Statement, from, label string) string {
	cur := from
	for _, stmt := range list {
		cur = s.stmt(stmt, cur, label)
		label = ""
	}
	return cur
}

// branch is seq for a branch that must not stay empty: an empty list gets
// a placeholder node.
func (s *build) branch(list []st.Statement, from, label, kind, placeholder string, n int) string {
	if len(list) == 0 {
		id := s.id(kind, n)
		s.node(id, placeholder, ShapeProcess, "", "")
		s.edge(from, id, label)
		return id
	}
	return s.seq(list, from, label)
}

func (s *build) stmt(stmt st.Statement, from, label string) string {
	switch stmt.Kind {
	case st.KindIf:
		return s.ifStmt(stmt, from, label)
	case st.KindCase:
		return s.caseStmt(stmt, from, label)
	case st.KindSelDecision:
		if stmt.Sel == nil {
			return s.plain(stmt, from, label)
		}
		return s.selStmt(stmt, from, label)
	case st.KindFor, st.KindWhile, st.KindRepeat:
		return s.loopStmt(stmt, from, label)
	default:
		return s.plain(stmt, from, label)
	}
}

func (s *build) plain(stmt st.Statement, from, label string) string {
	n := s.next()
	if call := stmt.CallName(); call != "" && s.linker != nil {
		// recursion and an action naming itself are not sub-calls
		if target, ok := s.linker.Resolve(call, s.caller); ok && target != s.caller {
			id := s.id("Call", n)
			s.node(id, "CALL: "+call, ShapeProcess, s.opt.CallStyle, target)
			s.edge(from, id, label)
			return id
		}
	}
	id := s.id("N", n)
	s.node(id, stmt.Text, ShapeProcess, "", "")
	s.edge(from, id, label)
	return id
}

func (s *build) ifStmt(stmt st.Statement, from, label string) string {
	n := s.next()
	id := s.id("If", n)
	head := "IF "
	if stmt.Elsif {
		head = "ELSIF "
	}
	s.node(id, head+stmt.Cond, ShapeDecision, "", "")
	s.edge(from, id, label)

	thenExit := s.branch(stmt.Then, id, "True", "Then", "THEN branch", n)
	elseExit := s.branch(stmt.Else, id, "False", "Else", "ELSE branch", n)

	merge := s.id("IfEnd", n)
	s.node(merge, "Continue after IF", ShapeProcess, "", "")
	s.edge(thenExit, merge, "")
	s.edge(elseExit, merge, "")
	return merge
}

func (s *build) caseStmt(stmt st.Statement, from, label string) string {
	n := s.next()
	id := s.id("Case", n)
	s.node(id, "CASE "+stmt.Cond, ShapeDecision, "", "")
	s.edge(from, id, label)

	exits := make([]string, 0, len(stmt.Branches))
	for i, br := range stmt.Branches {
		if len(br.Body) == 0 {
			na := s.id("NA", n) + fmt.Sprintf("_%d", i+1)
			s.node(na, st.NoAction, ShapeProcess, "", "")
			s.edge(id, na, br.Condition)
			exits = append(exits, na)
			continue
		}
		exits = append(exits, s.seq(br.Body, id, br.Condition))
	}

	merge := s.id("CaseEnd", n)
	s.node(merge, "Continue after CASE", ShapeProcess, "", "")
	if len(exits) == 0 {
		s.edge(id, merge, "")
	}
	for _, e := range exits {
		s.edge(e, merge, "")
	}
	return merge
}

func (s *build) selStmt(stmt st.Statement, from, label string) string {
	sel := stmt.Sel
	n := s.next()
	id := s.id("Sel", n)
	s.node(id, sel.Cond, ShapeDecision, "", "")
	s.edge(from, id, label)

	t := s.id("SelT", n)
	s.node(t, sel.Target+" := "+sel.TrueValue, ShapeProcess, "", "")
	s.edge(id, t, "True")
	f := s.id("SelF", n)
	s.node(f, sel.Target+" := "+sel.FalseValue, ShapeProcess, "", "")
	s.edge(id, f, "False")

	merge := s.id("SelEnd", n)
	s.node(merge, "Continue after SEL", ShapeProcess, "", "")
	s.edge(t, merge, "")
	s.edge(f, merge, "")
	return merge
}

func (s *build) loopStmt(stmt st.Statement, from, label string) string {
	n := s.next()
	id := s.id("Loop", n)
	if !s.opt.ExpandLoops {
		s.node(id, stmt.Text, ShapeProcess, "", "")
		s.edge(from, id, label)
		return id
	}

	s.node(id, stmt.Text, ShapeDecision, "", "")
	s.edge(from, id, label)
	exit := s.branch(stmt.Body, id, "Body", "LoopBody", "(empty loop)", n)
	s.edge(exit, id, "Next")

	merge := s.id("LoopEnd", n)
	s.node(merge, "Continue after "+stmt.Kind.String(), ShapeProcess, "", "")
	s.edge(id, merge, "Done")
	return merge
}
