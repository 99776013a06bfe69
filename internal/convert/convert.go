// Package convert runs the parse → build → render pipeline over the
// components of a project and writes one set of diagram files per component.
//
// A failure in one component never stops the batch: the component gets an
// error chart, the failure is logged and counted, and the next component is
// converted.
package convert

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/damischa1/plcopen2flow/internal/catalog"
	"github.com/damischa1/plcopen2flow/internal/config"
	"github.com/damischa1/plcopen2flow/internal/flow"
	"github.com/damischa1/plcopen2flow/internal/logging"
	"github.com/damischa1/plcopen2flow/internal/render"
	"github.com/damischa1/plcopen2flow/internal/st"
)

// Converter converts components of one catalogue.
type Converter struct {
	Config    config.Config
	Catalogue *catalog.Catalogue
	Logger    *slog.Logger
}

// Result describes the conversion of one component.
type Result struct {
	Component string
	Kind      catalog.Kind
	Files     []string
	Nodes     int
	Edges     int
	Subgraphs int
	// Err is the parse or write failure, nil on success.
	Err error
}

// Report sums up a batch.
type Report struct {
	Written int
	Failed  int
	Skipped int
	Results []Result
}

// Errors returns the failures of the batch.
func (r Report) Errors() []error {
	var out []error
	for _, res := range r.Results {
		if res.Err != nil {
			out = append(out, res.Err)
		}
	}
	return out
}

func (c *Converter) log() *slog.Logger {
	if c.Logger == nil {
		return logging.Discard()
	}
	return c.Logger
}

// ConvertAll converts every component that passes the configured filters.
func (c *Converter) ConvertAll(components []catalog.Component) Report {
	var rep Report
	for _, comp := range components {
		if !c.Config.Selects(comp.Name, string(comp.Kind)) {
			rep.Skipped++
			c.log().Debug("skipped", "component", comp.Name, "kind", comp.Kind)
			continue
		}
		res, err := c.Convert(comp)
		rep.Results = append(rep.Results, res)
		if err != nil {
			rep.Failed++
			continue
		}
		rep.Written++
	}
	return rep
}

// Convert builds and writes the diagrams of one component. A parse error
// still writes the error chart; it is returned wrapped with the component
// name.
func (c *Converter) Convert(comp catalog.Component) (Result, error) {
	res := Result{Component: comp.Name, Kind: comp.Kind}

	g, parseErr := c.Graph(comp)
	res.Nodes, res.Edges, res.Subgraphs = countGraph(g)

	files, err := c.write(comp, g)
	res.Files = files
	if err != nil {
		res.Err = fmt.Errorf("%s: write: %w", comp.Name, err)
		c.log().Error("write failed", "component", comp.Name, "err", err)
		return res, res.Err
	}
	if parseErr != nil {
		res.Err = fmt.Errorf("%s: %w", comp.Name, parseErr)
		c.log().Error("parse failed", "component", comp.Name, "kind", comp.Kind, "err", parseErr)
		return res, res.Err
	}
	c.log().Info("converted",
		"component", comp.Name,
		"kind", comp.Kind,
		"nodes", res.Nodes,
		"edges", res.Edges,
		"files", len(files))
	return res, nil
}

func countGraph(g *flow.Graph) (nodes, edges, subs int) {
	nodes, edges = len(g.Nodes), len(g.Edges)
	for _, s := range g.Subgraphs {
		n, e, k := countGraph(s)
		nodes, edges, subs = nodes+n, edges+e, subs+k+1
	}
	return nodes, edges, subs
}

// ── Graphs ────────────────────────────────────────────────────────────────────

func (c *Converter) builder(prefix string) *flow.Builder {
	return &flow.Builder{
		Options: flow.Options{
			Prefix:       prefix,
			ExpandLoops:  c.Config.ExpandLoops,
			NodeLabelMax: c.Config.Labels.NodeMax,
			EdgeLabelMax: c.Config.Labels.EdgeMax,
			CallStyle:    c.Config.Labels.CallStyle,
		},
		Linker: c.Catalogue,
	}
}

// Graph builds the flowchart of comp. Non-ST bodies get the placeholder
// chart; a parse failure gets the error chart and the error.
func (c *Converter) Graph(comp catalog.Component) (*flow.Graph, error) {
	g, err := c.graph(comp, "")
	if c.Config.Hierarchical {
		h := &hierarchy{c: c, path: map[string]bool{comp.Name: true}}
		h.expand(g, 1)
	}
	return g, err
}

func (c *Converter) graph(comp catalog.Component, prefix string) (*flow.Graph, error) {
	if !comp.IsST() {
		return render.Placeholder(comp.Name, comp.BodyType), nil
	}
	b := c.builder(prefix)
	stmts, err := st.Parse(comp.Source)
	if err != nil {
		return b.Error(comp.Name, parseMessage(err)), err
	}
	g := b.Build(stmts, comp.Name)
	g.Stats = flow.Measure(comp.Source)
	g.Stats.Statements = st.Count(stmts)
	return g, nil
}

func parseMessage(err error) string {
	var pe *st.ParseError
	if errors.As(err, &pe) && pe.Msg != "" {
		return pe.Msg
	}
	return err.Error()
}

// hierarchy nests the charts of called components under their call nodes.
type hierarchy struct {
	c    *Converter
	n    int
	path map[string]bool // components on the current call path
}

func (h *hierarchy) expand(g *flow.Graph, depth int) {
	if depth > h.c.Config.MaxDepth {
		return
	}
	attached := map[string]string{} // callee → sub-chart Start id
	for _, call := range g.Calls() {
		if start, ok := attached[call.Call]; ok {
			g.Edges = append(g.Edges, flow.Edge{From: call.ID, To: start, Link: true})
			continue
		}
		if h.path[call.Call] {
			continue
		}
		comp, ok := h.c.Catalogue.Lookup(call.Call)
		if !ok {
			continue
		}
		h.n++
		sub, err := h.c.graph(comp, fmt.Sprintf("S%d_", h.n))
		if err != nil {
			h.c.log().Warn("sub-chart parse failed", "component", comp.Name, "err", err)
		}
		if sub.StartID == "Start" {
			// placeholder charts have fixed ids
			sub = prefixed(sub, fmt.Sprintf("S%d_", h.n))
		}
		g.Attach(call.ID, sub)
		attached[call.Call] = sub.StartID

		h.path[comp.Name] = true
		h.expand(sub, depth+1)
		delete(h.path, comp.Name)
	}
}

// prefixed returns a copy of g with every id prefixed.
func prefixed(g *flow.Graph, prefix string) *flow.Graph {
	out := *g
	out.StartID = prefix + g.StartID
	out.EndID = prefix + g.EndID
	out.Nodes = make([]flow.Node, len(g.Nodes))
	for i, n := range g.Nodes {
		n.ID = prefix + n.ID
		out.Nodes[i] = n
	}
	out.Edges = make([]flow.Edge, len(g.Edges))
	for i, e := range g.Edges {
		e.From, e.To = prefix+e.From, prefix+e.To
		out.Edges[i] = e
	}
	return &out
}

// ── Files ─────────────────────────────────────────────────────────────────────

var fileNameReplacer = strings.NewReplacer(
	"<", "_", ">", "_", ":", "_", "\"", "_",
	"/", "_", "\\", "_", "|", "_", "?", "_", "*", "_",
)

// SanitizeFileName replaces the characters Windows and Unix reject in file
// names with '_'.
func SanitizeFileName(name string) string {
	return fileNameReplacer.Replace(name)
}

// Dir returns the output directory of comp: the configured root plus the
// project folder, unless flat output is requested.
func (c *Converter) Dir(comp catalog.Component) string {
	dir := c.Config.OutDir
	if c.Config.Flat || comp.Folder == "" {
		return dir
	}
	parts := []string{dir}
	for _, seg := range strings.Split(comp.Folder, "/") {
		if seg = strings.TrimSpace(seg); seg != "" && seg != "." && seg != ".." {
			parts = append(parts, SanitizeFileName(seg))
		}
	}
	return filepath.Join(parts...)
}

func (c *Converter) write(comp catalog.Component, g *flow.Graph) ([]string, error) {
	dir := c.Dir(comp)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	base := filepath.Join(dir, SanitizeFileName(comp.Name))

	var files []string
	put := func(path, content string) error {
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return err
		}
		files = append(files, path)
		c.log().Debug("wrote", "component", comp.Name, "file", path, "bytes", len(content))
		return nil
	}

	if c.Config.Mermaid() {
		if err := put(base+"_logic.mmd", render.Mermaid(g)); err != nil {
			return files, err
		}
	}
	if c.Config.DrawIO() {
		if err := put(base+"_logic.drawio", render.DrawIO(g)); err != nil {
			return files, err
		}
	}
	if c.Config.Interface {
		if iface := render.Interface(comp); iface != "" {
			if err := put(base+"_interface.mmd", iface); err != nil {
				return files, err
			}
		}
	}
	return files, nil
}
