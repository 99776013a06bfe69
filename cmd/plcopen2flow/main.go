// plcopen2flow: PLCOpen XML (TC6) to flowchart converter
// Converts the Structured Text bodies of a PLCOpen XML export into Mermaid
// flowcharts and/or Draw.io diagrams.
//
// Reads a PLCOpen XML file (as exported by CoDeSys 3.5, TwinCAT 3, etc.)
// and writes one <name>_logic.mmd / <name>_logic.drawio file per program,
// function block, function, action and method found. The project folder
// structure is kept unless -flat is given.
//
// Calls to other components of the project are drawn as highlighted CALL
// nodes. With -hier the called components are nested as sub-graphs.
//
// Non-ST body types (FBD, Ladder, SFC, CFC) get a placeholder chart.
//
// Usage:
//
//	plcopen2flow -in <file.xml> [-out <dir>] [-format mermaid|drawio|both] [flags]
//
// Flags:
//
//	-in      input PLCOpen XML file (required)
//	-out     output root directory (default "flowcharts")
//	-format  mermaid, drawio or both (default "mermaid")
//	-config  YAML settings file; flags given explicitly override it
//	-hier    nest called components as sub-graphs
//	-depth   maximum sub-graph nesting with -hier (default 3)
//	-loops   decompose loop bodies instead of one node per loop
//	-iface   also write <name>_interface.mmd class diagrams
//	-flat    write all files to -out directly, no subdirectories
//	-kind    convert only these kinds, comma separated (program,functionBlock,...)
//	-list    print the components and their calls, write nothing
//	-pick    choose the components interactively
//	-v       debug logging
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/damischa1/plcopen2flow/internal/catalog"
	"github.com/damischa1/plcopen2flow/internal/config"
	"github.com/damischa1/plcopen2flow/internal/convert"
	"github.com/damischa1/plcopen2flow/internal/logging"
	"github.com/damischa1/plcopen2flow/internal/picker"
	"github.com/damischa1/plcopen2flow/internal/plcopen"
)

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("plcopen2flow", flag.ContinueOnError)
	fs.SetOutput(stderr)
	inFile := fs.String("in", "", "input PLCOpen XML file (required)")
	outDir := fs.String("out", "flowcharts", "output root directory")
	format := fs.String("format", config.FormatMermaid, "output format: mermaid, drawio or both")
	cfgFile := fs.String("config", "", "YAML settings file")
	hier := fs.Bool("hier", false, "nest called components as sub-graphs")
	depth := fs.Int("depth", 3, "maximum sub-graph nesting with -hier")
	loops := fs.Bool("loops", false, "decompose loop bodies")
	iface := fs.Bool("iface", false, "also write interface class diagrams")
	flat := fs.Bool("flat", false, "write all files flat, no subdirectories")
	kinds := fs.String("kind", "", "convert only these kinds, comma separated")
	list := fs.Bool("list", false, "print the components and their calls")
	pick := fs.Bool("pick", false, "choose the components interactively")
	verbose := fs.Bool("v", false, "debug logging")
	fs.Usage = func() {
		fmt.Fprint(stderr, "plcopen2flow: convert PLCOpen XML (TC6) ST code to Mermaid / Draw.io flowcharts\n\n")
		fmt.Fprintln(stderr, "Usage:")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *inFile == "" {
		fmt.Fprintln(stderr, "usage: plcopen2flow -in <file.xml> [-out <dir>] [-format mermaid|drawio|both]")
		return 1
	}

	cfg := config.Default()
	if *cfgFile != "" {
		var err error
		if cfg, err = config.Load(*cfgFile); err != nil {
			fmt.Fprintln(stderr, "cannot read config:", err)
			return 1
		}
	}
	// only flags on the command line override the file
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "out":
			cfg.OutDir = *outDir
		case "format":
			cfg.Format = *format
		case "hier":
			cfg.Hierarchical = *hier
		case "depth":
			cfg.MaxDepth = *depth
		case "loops":
			cfg.ExpandLoops = *loops
		case "iface":
			cfg.Interface = *iface
		case "flat":
			cfg.Flat = *flat
		case "kind":
			cfg.Kinds = splitList(*kinds)
		case "v":
			if *verbose {
				cfg.LogLevel = "debug"
			}
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(stderr, "invalid settings:", err)
		return 1
	}

	rec := logging.NewRecorder(logging.NewHandler(cfg.LogLevel, stderr))
	logger := slog.New(rec)

	proj, err := plcopen.ReadFile(*inFile)
	if err != nil {
		fmt.Fprintln(stderr, "cannot read input:", err)
		return 1
	}
	cat := catalog.New(proj.Components)
	logger.Debug("project read", "project", proj.Name, "components", cat.Len(), "folders", len(proj.Folders))

	if *list {
		printCatalogue(stdout, cat)
		return 0
	}

	components := cat.Components()
	if *pick {
		chosen, ok, err := picker.Run(components)
		if err != nil {
			fmt.Fprintln(stderr, "picker:", err)
			return 1
		}
		if !ok {
			fmt.Fprintln(stderr, "cancelled")
			return 0
		}
		components = chosen
	}

	conv := &convert.Converter{Config: cfg, Catalogue: cat, Logger: logger}
	rep := conv.ConvertAll(components)

	for _, res := range rep.Results {
		tag := ""
		if res.Err != nil {
			tag = failStyle.Render(" [FAILED]")
		}
		for _, f := range res.Files {
			fmt.Fprintf(stdout, "  %-10s  %s%s\n", res.Kind.Label(), f, tag)
		}
	}

	summary := fmt.Sprintf("Done: %d written, %d failed, %d skipped", rep.Written, rep.Failed, rep.Skipped)
	if rep.Failed > 0 {
		fmt.Fprintln(stdout, "\n"+failStyle.Render(summary))
		for _, e := range rec.Failures() {
			fmt.Fprintf(stdout, "  %s %s\n", failStyle.Render(e.Component), dimStyle.Render(fmt.Sprint(e.Attrs["err"])))
		}
		return 1
	}
	fmt.Fprintln(stdout, "\n"+okStyle.Render(summary))
	return 0
}

func printCatalogue(w io.Writer, cat *catalog.Catalogue) {
	for _, c := range cat.Components() {
		body := c.BodyType
		if body == "" {
			body = "ST"
		}
		name := c.Name
		if c.Parent != "" {
			// actions and methods follow their POU
			name = "  ." + c.ShortName()
		}
		fmt.Fprintf(w, "  %-10s  %-4s  %s", c.Kind.Label(), body, name)
		if c.Folder != "" {
			fmt.Fprint(w, dimStyle.Render("  ("+c.Folder+")"))
		}
		fmt.Fprintln(w)
		for _, call := range c.SubCalls {
			fmt.Fprintf(w, "      → %s\n", call)
		}
	}
	fmt.Fprintf(w, "\n%d components\n", cat.Len())
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
