// Package flow turns parsed Structured Text into a flowchart graph.
//
// A Graph is append-only: the builder creates nodes and edges in walk order
// and never edits them afterwards, which keeps rendering deterministic.
package flow

import (
	"strings"
	"unicode/utf8"
)

// Shape is the visual kind of a node.
type Shape int

const (
	ShapeProcess  Shape = iota // rectangle
	ShapeDecision              // diamond / hexagon
	ShapeTerminal              // rounded Start / End
)

func (s Shape) String() string {
	switch s {
	case ShapeDecision:
		return "decision"
	case ShapeTerminal:
		return "terminal"
	default:
		return "process"
	}
}

// Node is one flowchart node. Label is already truncated and escaped.
type Node struct {
	ID    string
	Label string
	Shape Shape
	// Style is a Mermaid style directive body, set on sub-call nodes.
	Style string
	// Call is the catalogue name of the component a call node links to.
	Call string
}

// Edge is a directed connection. Link marks an edge between a call node and
// the chart of the called component in hierarchical output.
type Edge struct {
	From  string
	To    string
	Label string
	Link  bool
}

// Stats are source metrics printed in the rendered header.
type Stats struct {
	Lines      int
	NonEmpty   int
	Chars      int
	MaxLine    int
	Statements int
}

// Graph is the flowchart of one component.
type Graph struct {
	Name    string
	StartID string
	EndID   string
	Nodes   []Node
	Edges   []Edge
	Stats   Stats
	// Note is an extra header line (e.g. "No ST code found").
	Note string
	// Subgraphs are the charts of called components in hierarchical mode.
	Subgraphs []*Graph
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Measure computes source metrics for the render header.
func Measure(src string) Stats {
	var s Stats
	if src == "" {
		return s
	}
	s.Chars = len(src)
	for _, line := range strings.Split(src, "\n") {
		s.Lines++
		if strings.TrimSpace(line) != "" {
			s.NonEmpty++
		}
		if n := utf8.RuneCountInString(line); n > s.MaxLine {
			s.MaxLine = n
		}
	}
	return s
}

// ── Label text ────────────────────────────────────────────────────────────────

const (
	DefaultNodeLabelMax = 150
	DefaultEdgeLabelMax = 30
)

var labelEscaper = strings.NewReplacer(
	"&", "&amp;",
	"\"", "&quot;",
	"<", "&lt;",
	">", "&gt;",
)

// Label truncates s to max runes (the last three replaced by "...") and
// escapes the characters that break Mermaid and HTML labels.
func Label(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if max > 3 && utf8.RuneCountInString(s) > max {
		r := []rune(s)
		s = string(r[:max-3]) + "..."
	}
	return labelEscaper.Replace(s)
}

// Calls returns the call nodes of g in creation order.
func (g *Graph) Calls() []Node {
	var out []Node
	for _, n := range g.Nodes {
		if n.Call != "" {
			out = append(out, n)
		}
	}
	return out
}

// Attach adds sub as a nested chart of g and links the call node callID to
// the sub-chart's Start with a dotted link edge.
func (g *Graph) Attach(callID string, sub *Graph) {
	g.Subgraphs = append(g.Subgraphs, sub)
	g.Edges = append(g.Edges, Edge{From: callID, To: sub.StartID, Link: true})
}
