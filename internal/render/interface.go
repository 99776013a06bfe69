package render

import (
	"fmt"
	"strings"

	"github.com/damischa1/plcopen2flow/internal/catalog"
	"github.com/damischa1/plcopen2flow/internal/flow"
)

var visibility = map[string]string{
	"VAR_INPUT":    "+",
	"VAR_OUTPUT":   "+",
	"VAR_IN_OUT":   "+",
	"VAR_EXTERNAL": "#",
	"VAR":          "-",
	"VAR_TEMP":     "-",
}

// Interface returns a Mermaid class diagram listing the variables of c, or ""
// when c declares none. Public sections (inputs, outputs, in-outs) are marked
// `+`, externals `#` and locals `-`.
func Interface(c catalog.Component) string {
	if len(c.Vars) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("%% Interface\n")
	fmt.Fprintf(&sb, "%%%% Component: %s (%s)\n\n", c.Name, c.Kind.Label())
	sb.WriteString("classDiagram\n")
	fmt.Fprintf(&sb, "    class %s {\n", className(c.Name))
	fmt.Fprintf(&sb, "        <<%s>>\n", c.Kind)
	for _, v := range c.Vars {
		vis, ok := visibility[v.Section]
		if !ok {
			vis = "-"
		}
		typ := v.Type
		if typ == "" {
			typ = "Unknown"
		}
		fmt.Fprintf(&sb, "        %s%s %s\n", vis, memberType(typ), v.Name)
	}
	fmt.Fprintln(&sb, "    }")
	return sb.String()
}

// className maps a component name onto a Mermaid class identifier.
func className(name string) string {
	b := []byte(name)
	for i, c := range b {
		if !isAlnum(c) {
			b[i] = '_'
		}
	}
	if len(b) == 0 || !isAlpha(b[0]) {
		return "Class_" + string(b)
	}
	return string(b)
}

// memberType keeps a type name on one Mermaid member line.
func memberType(t string) string {
	t = strings.Join(strings.Fields(t), "_")
	return strings.NewReplacer("[", "~", "]", "~", "{", "(", "}", ")").Replace(t)
}

func isAlpha(c byte) bool { return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' }
func isAlnum(c byte) bool { return isAlpha(c) || c >= '0' && c <= '9' }

// Placeholder returns the fixed chart drawn for bodies that are not
// Structured Text (FBD, LD, SFC, CFC, IL): Start → body note → End.
func Placeholder(name, bodyType string) *flow.Graph {
	if bodyType == "" {
		bodyType = "unknown"
	}
	g := &flow.Graph{
		Name:    name,
		StartID: "Start",
		EndID:   "End",
		Note:    bodyType + " body, visualization is simplified",
	}
	g.Nodes = []flow.Node{
		{ID: "Start", Label: flow.Label("Start "+bodyType+": "+name, flow.DefaultNodeLabelMax), Shape: flow.ShapeTerminal},
		{ID: "Body", Label: flow.Label(bodyType+" network (not decomposed)", flow.DefaultNodeLabelMax), Shape: flow.ShapeProcess},
		{ID: "End", Label: flow.Label("End "+bodyType+": "+name, flow.DefaultNodeLabelMax), Shape: flow.ShapeTerminal},
	}
	g.Edges = []flow.Edge{
		{From: "Start", To: "Body"},
		{From: "Body", To: "End"},
	}
	return g
}
