package render

import (
	"encoding/xml"
	"reflect"
	"regexp"
	"strings"
	"testing"

	"github.com/damischa1/plcopen2flow/internal/catalog"
	"github.com/damischa1/plcopen2flow/internal/flow"
	"github.com/damischa1/plcopen2flow/internal/st"
)

type known map[string]bool

func (k known) Resolve(call, _ string) (string, bool) { return call, k[call] }

func graph(t *testing.T, src string) *flow.Graph {
	t.Helper()
	stmts, err := st.Parse(src)
	if err != nil {
		t.Fatalf("Parse(%q): %v", src, err)
	}
	g := (&flow.Builder{Linker: known{"Run": true}}).Build(stmts, "Main")
	g.Stats = flow.Measure(src)
	g.Stats.Statements = st.Count(stmts)
	return g
}

const sample = `IF x > 0 THEN
	y := 1;
ELSE
	Run();
END_IF
CASE s OF 1: a := SEL(g, 1, 2); 2: ; END_CASE`

func TestMermaidScenario(t *testing.T) {
	got := Mermaid(graph(t, "IF X > 0 THEN Y := 1; ELSE Y := -1; END_IF"))
	want := []string{
		"flowchart TD",
		`    Start(["Start: Main"])`,
		`    If1{{"IF X &gt; 0"}}`,
		`    N2["Y := 1"]`,
		`    N3["Y := -1"]`,
		`    IfEnd1["Continue after IF"]`,
		`    End(["End: Main"])`,
		"    Start --> If1",
		`    If1 -->|"True"| N2`,
		`    If1 -->|"False"| N3`,
		"    N2 --> IfEnd1",
		"    N3 --> IfEnd1",
		"    IfEnd1 --> End",
	}
	body := got[strings.Index(got, "flowchart TD"):]
	if lines := strings.Split(strings.TrimSpace(body), "\n"); !reflect.DeepEqual(lines, want) {
		t.Errorf("Mermaid() body =\n%s\nwant\n%s", strings.Join(lines, "\n"), strings.Join(want, "\n"))
	}
	if !strings.HasPrefix(got, "%% Flowchart: Main\n") {
		t.Errorf("missing header:\n%s", got)
	}
}

func TestMermaidCallStyle(t *testing.T) {
	out := Mermaid(graph(t, "Run();"))
	want := `    Call1["CALL: Run"]` + "\n    style Call1 " + flow.DefaultCallStyle + "\n"
	if !strings.Contains(out, want) {
		t.Errorf("style line does not follow the call node:\n%s", out)
	}
}

func TestMermaidHeader(t *testing.T) {
	out := Mermaid(graph(t, "a := 1;\nb := 2;"))
	for _, want := range []string{
		"%% Source: 2 lines (2 non-empty), 15 chars, longest line 7",
		"%% Graph: 2 statements, 4 nodes, 3 edges",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("header lacks %q:\n%s", want, out)
		}
	}
	empty := Mermaid((&flow.Builder{}).Empty("Idle"))
	if !strings.Contains(empty, "%% No ST code found") || !strings.Contains(empty, `End(["End: Idle (No Code)"])`) {
		t.Errorf("empty chart:\n%s", empty)
	}
}

func TestIdempotent(t *testing.T) {
	g := graph(t, sample)
	if a, b := Mermaid(g), Mermaid(g); a != b {
		t.Error("Mermaid output differs between calls")
	}
	if a, b := DrawIO(g), DrawIO(g); a != b {
		t.Error("DrawIO output differs between calls")
	}
}

var mermaidEdgeLine = regexp.MustCompile(`^\s*(\S+) -(?:->|\.->)(?:\|"[^"]*"\|)? (\S+)$`)

func mermaidEdges(out string) []string {
	var edges []string
	for _, line := range strings.Split(out, "\n") {
		if m := mermaidEdgeLine.FindStringSubmatch(line); m != nil {
			edges = append(edges, m[1]+">"+m[2])
		}
	}
	return edges
}

type mxCell struct {
	ID     string `xml:"id,attr"`
	Value  string `xml:"value,attr"`
	Vertex string `xml:"vertex,attr"`
	Edge   string `xml:"edge,attr"`
	Source string `xml:"source,attr"`
	Target string `xml:"target,attr"`
}

type mxFile struct {
	Diagram struct {
		Name  string   `xml:"name,attr"`
		Cells []mxCell `xml:"mxGraphModel>root>mxCell"`
	} `xml:"diagram"`
}

func parseDrawIO(t *testing.T, out string) mxFile {
	t.Helper()
	var f mxFile
	if err := xml.Unmarshal([]byte(out), &f); err != nil {
		t.Fatalf("DrawIO output is not XML: %v\n%s", err, out)
	}
	return f
}

func TestTopologyAcrossSyntaxes(t *testing.T) {
	g := graph(t, sample)
	f := parseDrawIO(t, DrawIO(g))

	var drawEdges []string
	vertices := map[string]string{}
	for _, c := range f.Diagram.Cells {
		switch {
		case c.Edge == "1":
			drawEdges = append(drawEdges, c.Source+">"+c.Target)
		case c.Vertex == "1":
			vertices[c.ID] = c.Value
		}
	}
	if got := mermaidEdges(Mermaid(g)); !reflect.DeepEqual(got, drawEdges) {
		t.Errorf("edges differ:\nmermaid %q\ndrawio  %q", got, drawEdges)
	}
	for _, n := range g.Nodes {
		if v, ok := vertices[n.ID]; !ok || v != n.Label {
			t.Errorf("node %s: drawio value %q, want %q", n.ID, v, n.Label)
		}
	}
	if f.Diagram.Name != "Main" {
		t.Errorf("diagram name = %q", f.Diagram.Name)
	}
}

func TestSubgraphs(t *testing.T) {
	parent := graph(t, "Run();")
	stmts, _ := st.Parse("x := 1;")
	sub := (&flow.Builder{Options: flow.Options{Prefix: "S1_"}}).Build(stmts, "Run")
	parent.Attach("Call1", sub)

	out := Mermaid(parent)
	for _, want := range []string{
		`    subgraph S1_chart["Run"]`,
		`        S1_N1["x := 1"]`,
		"        S1_N1 --> S1_End",
		"    end",
		"    Call1 -.-> S1_Start",
	} {
		if !strings.Contains(out, want+"\n") {
			t.Errorf("Mermaid lacks %q:\n%s", want, out)
		}
	}

	f := parseDrawIO(t, DrawIO(parent))
	var ids []string
	for _, c := range f.Diagram.Cells {
		if c.Vertex == "1" {
			ids = append(ids, c.ID)
		}
	}
	if want := "S1_N1"; !contains(ids, want) {
		t.Errorf("DrawIO cells %q lack %q", ids, want)
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func TestInterface(t *testing.T) {
	if got := Interface(catalog.Component{Name: "Empty"}); got != "" {
		t.Errorf("Interface() without vars = %q", got)
	}
	c := catalog.Component{
		Name: "FB_Motor",
		Kind: catalog.KindFunctionBlock,
		Vars: []catalog.Variable{
			{Name: "xStart", Type: "BOOL", Section: "VAR_INPUT"},
			{Name: "rSpeed", Type: "REAL", Section: "VAR_OUTPUT"},
			{Name: "aBuf", Type: "ARRAY [0..9] OF INT", Section: "VAR"},
			{Name: "gCfg", Type: "", Section: "VAR_EXTERNAL"},
		},
	}
	want := "%% Interface\n" +
		"%% Component: FB_Motor (FB)\n\n" +
		"classDiagram\n" +
		"    class FB_Motor {\n" +
		"        <<functionBlock>>\n" +
		"        +BOOL xStart\n" +
		"        +REAL rSpeed\n" +
		"        -ARRAY_~0..9~_OF_INT aBuf\n" +
		"        #Unknown gCfg\n" +
		"    }\n"
	if got := Interface(c); got != want {
		t.Errorf("Interface() =\n%s\nwant\n%s", got, want)
	}
}

func TestClassName(t *testing.T) {
	tests := map[string]string{
		"Main":          "Main",
		"Main.Init":     "Main_Init",
		"1st":           "Class_1st",
		"FB Motor-Ctrl": "FB_Motor_Ctrl",
	}
	for in, want := range tests {
		if got := className(in); got != want {
			t.Errorf("className(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPlaceholder(t *testing.T) {
	g := Placeholder("Sfc_Main", "SFC")
	out := Mermaid(g)
	for _, want := range []string{
		`Start(["Start SFC: Sfc_Main"])`,
		`Body["SFC network (not decomposed)"]`,
		"Start --> Body",
		"Body --> End",
		"%% SFC body, visualization is simplified",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("placeholder lacks %q:\n%s", want, out)
		}
	}
	parseDrawIO(t, DrawIO(g))
}

func TestMermaidStyleToDrawIO(t *testing.T) {
	got := mermaidStyleToDrawIO(flow.DefaultCallStyle)
	want := "fillColor=#e1f5fe;strokeColor=#01579b;strokeWidth=2;"
	if got != want {
		t.Errorf("mermaidStyleToDrawIO() = %q, want %q", got, want)
	}
}
