// Package catalog holds the components found in a PLCopen document and the
// sub-call resolver that links them.
//
// A Catalogue is built once after the whole document has been scanned; from
// then on it is read-only and may be shared by any number of flowchart builds.
package catalog

import (
	"sort"
	"strings"
)

// Kind is the PLCopen flavour of a component.
type Kind string

const (
	KindProgram       Kind = "program"
	KindFunctionBlock Kind = "functionBlock"
	KindFunction      Kind = "function"
	KindAction        Kind = "action"
	KindMethod        Kind = "method"
)

// Label returns the short upper-case tag used in listings.
func (k Kind) Label() string {
	switch k {
	case KindProgram:
		return "PROGRAM"
	case KindFunctionBlock:
		return "FB"
	case KindFunction:
		return "FUNCTION"
	case KindAction:
		return "ACTION"
	case KindMethod:
		return "METHOD"
	default:
		return strings.ToUpper(string(k))
	}
}

// Variable is one interface variable of a component.
type Variable struct {
	Name    string
	Type    string
	Section string // VAR_INPUT, VAR_OUTPUT, VAR_IN_OUT, VAR, VAR_TEMP, VAR_EXTERNAL
}

// Component is a POU, action or method with its own ST source.
type Component struct {
	Name string // actions and methods are qualified: Parent.Action
	Kind Kind
	// Source is the raw body text; empty for non-ST bodies.
	Source   string
	BodyType string // ST, FBD, LD, SFC, CFC, IL
	Parent   string
	ObjectID string
	Folder   string
	Vars     []Variable
	// SubCalls is filled in by New.
	SubCalls []string
}

// ShortName returns the last segment of a qualified name.
func (c Component) ShortName() string {
	if i := strings.LastIndexByte(c.Name, '.'); i >= 0 {
		return c.Name[i+1:]
	}
	return c.Name
}

// IsST reports whether the component has a Structured Text body.
func (c Component) IsST() bool {
	return c.BodyType == "" || c.BodyType == "ST"
}

// Catalogue is an immutable name → component lookup.
type Catalogue struct {
	list   []Component
	byName map[string]int
	names  map[string]struct{}
}

// New builds the catalogue. It runs the sub-call resolver for every component
// only after all names are known, so forward references resolve.
func New(components []Component) *Catalogue {
	c := &Catalogue{
		list:   make([]Component, len(components)),
		byName: make(map[string]int, len(components)),
		names:  make(map[string]struct{}, len(components)),
	}
	copy(c.list, components)
	for i, comp := range c.list {
		if _, dup := c.byName[comp.Name]; dup {
			continue
		}
		c.byName[comp.Name] = i
		c.names[comp.Name] = struct{}{}
	}
	// instance names (fbMotor of type FB_Motor) are callable too
	callable := make(map[string]struct{}, len(c.names))
	for name := range c.names {
		callable[name] = struct{}{}
	}
	for _, comp := range c.list {
		for _, v := range comp.Vars {
			if _, ok := c.byName[v.Type]; ok {
				callable[v.Name] = struct{}{}
			}
		}
	}

	for i := range c.list {
		comp := &c.list[i]
		calls := FindCalls(comp.Source, callable, comp.Name)
		comp.SubCalls = make([]string, 0, len(calls))
		for _, call := range calls {
			if target, ok := c.Resolve(call, comp.Name); ok && target != comp.Name {
				comp.SubCalls = appendUnique(comp.SubCalls, target)
			}
		}
		sort.Strings(comp.SubCalls)
	}
	return c
}

// Components returns the catalogue entries in document order.
func (c *Catalogue) Components() []Component {
	out := make([]Component, len(c.list))
	copy(out, c.list)
	return out
}

// Len returns the number of components.
func (c *Catalogue) Len() int { return len(c.list) }

// Lookup returns the component with exactly this name.
func (c *Catalogue) Lookup(name string) (Component, bool) {
	i, ok := c.byName[name]
	if !ok {
		return Component{}, false
	}
	return c.list[i], true
}

// Resolve maps a call as written in the source of caller to a catalogue name.
// It tries, in order: the exact name, an action or method of the caller's
// parent (Action() inside Parent resolves to Parent.Action), an instance
// declared by the caller or its parent (fbMotor() resolves to the instance
// type, fbMotor.Start() to its method), and a unique component whose short
// name matches.
func (c *Catalogue) Resolve(call, caller string) (string, bool) {
	if c == nil || call == "" {
		return "", false
	}
	if _, ok := c.byName[call]; ok {
		return call, true
	}

	owner := caller
	if comp, ok := c.Lookup(caller); ok && comp.Parent != "" {
		owner = comp.Parent
	}
	if owner != "" {
		if _, ok := c.byName[owner+"."+call]; ok {
			return owner + "." + call, true
		}
	}
	if target, ok := c.instance(call, caller, owner); ok {
		return target, true
	}

	match := ""
	for _, comp := range c.list {
		if strings.HasSuffix(comp.Name, "."+call) {
			if match != "" && match != comp.Name {
				return "", false
			}
			match = comp.Name
		}
	}
	return match, match != ""
}

func (c *Catalogue) instance(call string, scopes ...string) (string, bool) {
	head, member, _ := strings.Cut(call, ".")
	for _, scope := range scopes {
		comp, ok := c.Lookup(scope)
		if !ok {
			continue
		}
		for _, v := range comp.Vars {
			if !strings.EqualFold(v.Name, head) {
				continue
			}
			if _, ok := c.byName[v.Type]; !ok {
				return "", false
			}
			if _, ok := c.byName[v.Type+"."+member]; ok && member != "" {
				return v.Type + "." + member, true
			}
			return v.Type, true
		}
	}
	return "", false
}

func appendUnique(list []string, s string) []string {
	for _, x := range list {
		if x == s {
			return list
		}
	}
	return append(list, s)
}
