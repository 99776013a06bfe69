package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/damischa1/plcopen2flow/internal/flow"
)

// Cell geometry of the top-to-bottom layout.
const (
	cellWidth   = 260
	cellHeight  = 50
	cellGap     = 30
	columnWidth = cellWidth + 80
	marginX     = 40
	marginY     = 80
)

var shapeStyles = map[flow.Shape]string{
	flow.ShapeProcess:  "rounded=0;whiteSpace=wrap;html=1;",
	flow.ShapeDecision: "rhombus;whiteSpace=wrap;html=1;",
	flow.ShapeTerminal: "rounded=1;arcSize=50;whiteSpace=wrap;html=1;fillColor=#f5f5f5;",
}

// DrawIO returns g as a Draw.io document. Nodes are stacked top to bottom;
// every sub-graph gets its own column to the right of its caller.
func DrawIO(g *flow.Graph) string {
	var sb strings.Builder
	WriteDrawIO(&sb, g)
	return sb.String()
}

// WriteDrawIO writes g as a Draw.io document to w.
func WriteDrawIO(w io.Writer, g *flow.Graph) {
	fmt.Fprintln(w, "<mxfile>")
	writeHeader(&commentWriter{w: w}, "", g)
	fmt.Fprintf(w, "  <diagram name=\"%s\" id=\"diagram_1\">\n", xmlEscape(g.Name))
	fmt.Fprintln(w, "    <mxGraphModel dx=\"1422\" dy=\"881\" grid=\"1\" gridSize=\"10\" guides=\"1\" tooltips=\"1\" connect=\"1\" arrows=\"1\" fold=\"1\" page=\"1\" pageScale=\"1\" pageWidth=\"827\" pageHeight=\"1169\" math=\"0\" shadow=\"0\">")
	fmt.Fprintln(w, "      <root>")
	fmt.Fprintln(w, "        <mxCell id=\"0\"/>")
	fmt.Fprintln(w, "        <mxCell id=\"1\" parent=\"0\"/>")

	d := &drawio{w: w}
	d.graph(g, 0)

	fmt.Fprintln(w, "      </root>")
	fmt.Fprintln(w, "    </mxGraphModel>")
	fmt.Fprintln(w, "  </diagram>")
	fmt.Fprintln(w, "</mxfile>")
}

type drawio struct {
	w     io.Writer
	edges int
	cols  int
}

func (d *drawio) graph(g *flow.Graph, col int) {
	const indent = "        "
	x := marginX + col*columnWidth
	fmt.Fprintf(d.w, "%s<mxCell id=\"%s\" value=\"%s\" style=\"text;html=1;strokeColor=none;fillColor=none;align=center;fontStyle=1;\" vertex=\"1\" parent=\"1\">\n",
		indent, xmlEscape(titleID(g)), xmlEscape(g.Name))
	fmt.Fprintf(d.w, "%s  <mxGeometry x=\"%d\" y=\"20\" width=\"%d\" height=\"30\" as=\"geometry\"/>\n", indent, x, cellWidth)
	fmt.Fprintf(d.w, "%s</mxCell>\n", indent)

	for i, n := range g.Nodes {
		style := shapeStyles[n.Shape]
		if n.Style != "" {
			style += mermaidStyleToDrawIO(n.Style)
		}
		y := marginY + i*(cellHeight+cellGap)
		fmt.Fprintf(d.w, "%s<mxCell id=\"%s\" value=\"%s\" style=\"%s\" vertex=\"1\" parent=\"1\">\n",
			indent, xmlEscape(n.ID), xmlEscape(n.Label), style)
		fmt.Fprintf(d.w, "%s  <mxGeometry x=\"%d\" y=\"%d\" width=\"%d\" height=\"%d\" as=\"geometry\"/>\n",
			indent, x, y, cellWidth, cellHeight)
		fmt.Fprintf(d.w, "%s</mxCell>\n", indent)
	}
	for _, e := range g.Edges {
		d.edges++
		style := "edgeStyle=orthogonalEdgeStyle;rounded=0;html=1;"
		if e.Link {
			style += "dashed=1;"
		}
		fmt.Fprintf(d.w, "%s<mxCell id=\"e%d\" value=\"%s\" style=\"%s\" edge=\"1\" parent=\"1\" source=\"%s\" target=\"%s\">\n",
			indent, d.edges, xmlEscape(e.Label), style, xmlEscape(e.From), xmlEscape(e.To))
		fmt.Fprintf(d.w, "%s  <mxGeometry relative=\"1\" as=\"geometry\"/>\n", indent)
		fmt.Fprintf(d.w, "%s</mxCell>\n", indent)
	}
	for _, sub := range g.Subgraphs {
		d.cols++
		d.graph(sub, d.cols)
	}
}

func titleID(g *flow.Graph) string {
	return strings.TrimSuffix(g.StartID, "Start") + "title"
}

// mermaidStyleToDrawIO maps `fill:#x,stroke:#y,stroke-width:2px` onto the
// matching Draw.io style keys.
func mermaidStyleToDrawIO(style string) string {
	var sb strings.Builder
	for _, part := range strings.Split(style, ",") {
		k, v, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		v = strings.TrimSuffix(strings.TrimSpace(v), "px")
		switch strings.TrimSpace(k) {
		case "fill":
			sb.WriteString("fillColor=" + v + ";")
		case "stroke":
			sb.WriteString("strokeColor=" + v + ";")
		case "stroke-width":
			sb.WriteString("strokeWidth=" + v + ";")
		}
	}
	return sb.String()
}

func xmlEscape(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, "\"", "&quot;")
	return s
}

// commentWriter wraps header lines into one XML comment.
type commentWriter struct {
	w io.Writer
}

func (c *commentWriter) Write(p []byte) (int, error) {
	line := strings.TrimSpace(string(p))
	line = strings.ReplaceAll(line, "--", "- -")
	if _, err := fmt.Fprintf(c.w, "  <!-- %s -->\n", line); err != nil {
		return 0, err
	}
	return len(p), nil
}
