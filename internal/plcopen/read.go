// Package plcopen reads PLCopen TC6 XML exports (CoDeSys 3.5, TwinCAT 3 and
// similar) and lists the components that carry code: POUs, their actions
// and their methods.
package plcopen

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/damischa1/plcopen2flow/internal/catalog"
)

// ErrNoProject is returned for XML documents that are not PLCopen projects.
var ErrNoProject = errors.New("plcopen: no <project> with POUs found")

// Project is the result of reading one export.
type Project struct {
	Name       string
	Components []catalog.Component
	// Folders maps object names and ObjectIds to their folder path in the
	// CoDeSys project tree, e.g. "Motion/Axes".
	Folders map[string]string
}

// ReadFile reads the PLCopen export at path.
func ReadFile(path string) (*Project, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	p, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Read decodes a PLCopen export. POUs come from <types><pous>, followed by
// the POUs CoDeSys stores under addData (skipped when already seen).
func Read(r io.Reader) (*Project, error) {
	var root node
	if err := xml.NewDecoder(r).Decode(&root); err != nil {
		return nil, fmt.Errorf("plcopen: decode: %w", err)
	}
	if root.XMLName.Local != "project" {
		return nil, ErrNoProject
	}

	p := &Project{
		Name:    root.child("contentHeader").attr("name"),
		Folders: projectFolders(&root),
	}
	seen := map[string]bool{}
	for _, pou := range root.child("types").child("pous").all("pou") {
		p.addPOU(pou, seen)
	}
	p.addDataPOUs(&root, seen)

	if len(seen) == 0 {
		return nil, ErrNoProject
	}
	return p, nil
}

func (p *Project) addPOU(pou *node, seen map[string]bool) {
	name := pou.attr("name")
	if name == "" || seen[name] {
		return
	}
	seen[name] = true

	c := p.component(pou, name, catalog.Kind(pou.attr("pouType")), "")
	c.Vars = variables(pou.child("interface"))
	p.Components = append(p.Components, c)

	for _, act := range pou.child("actions").all("action") {
		p.Components = append(p.Components,
			p.component(act, name+"."+act.attr("name"), catalog.KindAction, name))
	}
	for _, d := range pou.addData("method") {
		for _, m := range d.all("Method") {
			c := p.component(m, name+"."+m.attr("name"), catalog.KindMethod, name)
			c.Vars = variables(m.child("interface"))
			p.Components = append(p.Components, c)
		}
	}
}

// addDataPOUs collects the POUs CoDeSys nests in addData sections of the
// project, configurations and resources.
func (p *Project) addDataPOUs(n *node, seen map[string]bool) {
	for _, data := range n.child("addData").all("data") {
		for _, pou := range data.all("pou") {
			p.addPOU(pou, seen)
		}
		if res := data.child("resource"); res != nil {
			p.addDataPOUs(res, seen)
		}
	}
	for _, c := range n.Children {
		switch c.XMLName.Local {
		case "instances", "configurations", "configuration", "resource":
			p.addDataPOUs(c, seen)
		}
	}
}

func (p *Project) component(n *node, name string, kind catalog.Kind, parent string) catalog.Component {
	src, bodyType := bodyText(n.child("body"))
	c := catalog.Component{
		Name:     name,
		Kind:     kind,
		Source:   src,
		BodyType: bodyType,
		Parent:   parent,
		ObjectID: n.objectID(),
	}
	c.Folder = p.folder(c)
	return c
}

// folder finds the project-tree folder of c: by ObjectId first, then by
// name, then the folder of its parent POU.
func (p *Project) folder(c catalog.Component) string {
	if f, ok := p.Folders[c.ObjectID]; ok && c.ObjectID != "" {
		return f
	}
	if f, ok := p.Folders[c.Name]; ok {
		return f
	}
	if c.Parent != "" {
		return p.Folders[c.Parent]
	}
	return ""
}

// bodyText gets the code of a <body> element and its language. ST bodies are
// usually wrapped in <xhtml>; CFC bodies live in the body's addData.
func bodyText(body *node) (string, string) {
	if body == nil {
		return "", ""
	}
	if st := body.child("ST"); st != nil {
		if x := st.child("xhtml"); x != nil {
			return strings.TrimSpace(x.textDeep()), "ST"
		}
		return strings.TrimSpace(st.textDeep()), "ST"
	}
	for _, tag := range []string{"FBD", "LD", "SFC", "IL"} {
		if body.child(tag) != nil {
			return "", tag
		}
	}
	for _, d := range body.addData("cfc") {
		if d.child("CFC") != nil {
			return "", "CFC"
		}
	}
	return "", ""
}

var varSections = []struct {
	tag     string
	section string
}{
	{"inputVars", "VAR_INPUT"},
	{"outputVars", "VAR_OUTPUT"},
	{"inOutVars", "VAR_IN_OUT"},
	{"externalVars", "VAR_EXTERNAL"},
	{"localVars", "VAR"},
	{"tempVars", "VAR_TEMP"},
}

func variables(iface *node) []catalog.Variable {
	var out []catalog.Variable
	for _, sec := range varSections {
		for _, list := range iface.all(sec.tag) {
			for _, v := range list.all("variable") {
				out = append(out, catalog.Variable{
					Name:    v.attr("name"),
					Type:    typeName(v.child("type")),
					Section: sec.section,
				})
			}
		}
	}
	return out
}

// ── ProjectStructure folder resolution ────────────────────────────────────────

func projectFolders(root *node) map[string]string {
	folders := make(map[string]string)
	for _, data := range root.addData("projectstructure") {
		if ps := data.child("ProjectStructure"); ps != nil {
			walkProjectStructure(ps, "", folders)
		}
	}
	return folders
}

func walkProjectStructure(n *node, prefix string, folders map[string]string) {
	for _, c := range n.Children {
		switch c.XMLName.Local {
		case "Folder":
			path := c.attr("Name")
			if prefix != "" {
				path = prefix + "/" + path
			}
			walkProjectStructure(c, path, folders)
		case "Object":
			folders[c.attr("Name")] = prefix
			walkObjectIDs(c, prefix, folders)
		}
	}
}

// walkObjectIDs records the ObjectIds of obj and of the actions and methods
// nested in it. Nested names are not recorded since they are only unique
// within their POU.
func walkObjectIDs(obj *node, prefix string, folders map[string]string) {
	if id := obj.attr("ObjectId"); id != "" {
		folders[id] = prefix
	}
	for _, c := range obj.all("Object") {
		walkObjectIDs(c, prefix, folders)
	}
}
