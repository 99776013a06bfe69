// Package render serialises flowchart graphs to text. Renderers are pure: the
// same graph always yields the same bytes, and switching syntax never changes
// which nodes and edges are written.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/damischa1/plcopen2flow/internal/flow"
)

// Mermaid returns g as a Mermaid flowchart.
func Mermaid(g *flow.Graph) string {
	var sb strings.Builder
	WriteMermaid(&sb, g)
	return sb.String()
}

// WriteMermaid writes g as a Mermaid flowchart to w.
func WriteMermaid(w io.Writer, g *flow.Graph) {
	writeHeader(w, "%%", g)
	fmt.Fprintln(w, "flowchart TD")
	writeMermaidBody(w, g, "    ")
}

func writeHeader(w io.Writer, mark string, g *flow.Graph) {
	fmt.Fprintf(w, "%s Flowchart: %s\n", mark, g.Name)
	if s := g.Stats; s.Lines > 0 {
		fmt.Fprintf(w, "%s Source: %d lines (%d non-empty), %d chars, longest line %d\n",
			mark, s.Lines, s.NonEmpty, s.Chars, s.MaxLine)
	}
	fmt.Fprintf(w, "%s Graph: %d statements, %d nodes, %d edges\n",
		mark, g.Stats.Statements, len(g.Nodes), len(g.Edges))
	if g.Note != "" {
		fmt.Fprintf(w, "%s %s\n", mark, g.Note)
	}
}

func writeMermaidBody(w io.Writer, g *flow.Graph, indent string) {
	for _, n := range g.Nodes {
		fmt.Fprintf(w, "%s%s\n", indent, mermaidNode(n))
		if n.Style != "" {
			fmt.Fprintf(w, "%sstyle %s %s\n", indent, n.ID, n.Style)
		}
	}
	for _, sub := range g.Subgraphs {
		fmt.Fprintf(w, "%ssubgraph %s[\"%s\"]\n", indent, subgraphID(sub), flow.Label(sub.Name, flow.DefaultNodeLabelMax))
		writeMermaidBody(w, sub, indent+"    ")
		fmt.Fprintf(w, "%send\n", indent)
	}
	for _, e := range g.Edges {
		fmt.Fprintf(w, "%s%s\n", indent, mermaidEdge(e))
	}
}

func mermaidNode(n flow.Node) string {
	switch n.Shape {
	case flow.ShapeDecision:
		return fmt.Sprintf("%s{{\"%s\"}}", n.ID, n.Label)
	case flow.ShapeTerminal:
		return fmt.Sprintf("%s([\"%s\"])", n.ID, n.Label)
	default:
		return fmt.Sprintf("%s[\"%s\"]", n.ID, n.Label)
	}
}

func mermaidEdge(e flow.Edge) string {
	arrow := "-->"
	if e.Link {
		arrow = "-.->"
	}
	if e.Label != "" {
		return fmt.Sprintf("%s %s|\"%s\"| %s", e.From, arrow, e.Label, e.To)
	}
	return fmt.Sprintf("%s %s %s", e.From, arrow, e.To)
}

func subgraphID(g *flow.Graph) string {
	return strings.TrimSuffix(g.StartID, "Start") + "chart"
}
