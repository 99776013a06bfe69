package plcopen

import (
	"encoding/xml"
	"fmt"
	"strings"
)

// ── Generic XML node tree ─────────────────────────────────────────────────────
// The document is decoded into a generic tree and content is taken from known
// paths. Element names are compared by local name, so the TC6 namespace and
// the embedded xhtml namespace need no special handling.

type node struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Content  string     `xml:",chardata"`
	Children []*node    `xml:",any"`
}

func (n *node) attr(name string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func (n *node) child(localName string) *node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.XMLName.Local == localName {
			return c
		}
	}
	return nil
}

func (n *node) all(localName string) []*node {
	if n == nil {
		return nil
	}
	var out []*node
	for _, c := range n.Children {
		if c.XMLName.Local == localName {
			out = append(out, c)
		}
	}
	return out
}

// textDeep collects all text content within the node.
func (n *node) textDeep() string {
	if n == nil {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(n.Content)
	for _, c := range n.Children {
		sb.WriteString(c.textDeep())
	}
	return sb.String()
}

// addData returns the <data> children of n's <addData> whose name attribute
// contains key (e.g. "objectid", "method", "projectstructure").
func (n *node) addData(key string) []*node {
	var out []*node
	for _, d := range n.child("addData").all("data") {
		if strings.Contains(strings.ToLower(d.attr("name")), key) {
			out = append(out, d)
		}
	}
	return out
}

// objectID returns the CoDeSys ObjectId stored in n's addData.
func (n *node) objectID() string {
	for _, d := range n.addData("objectid") {
		if id := strings.TrimSpace(d.child("ObjectId").textDeep()); id != "" {
			return id
		}
	}
	return strings.TrimSpace(n.attr("ObjectId"))
}

// typeName gets a human-readable type name from a PLCopen <type> element.
func typeName(t *node) string {
	if t == nil {
		return ""
	}
	for _, c := range t.Children {
		tag := c.XMLName.Local
		switch strings.ToUpper(tag) {
		case "BOOL", "BYTE", "WORD", "DWORD", "LWORD",
			"SINT", "INT", "DINT", "LINT",
			"USINT", "UINT", "UDINT", "ULINT",
			"REAL", "LREAL",
			"TIME", "LTIME", "DATE", "TOD", "DT",
			"TIME_OF_DAY", "DATE_AND_TIME":
			return strings.ToUpper(tag)

		case "STRING", "WSTRING":
			if length := c.attr("length"); length != "" {
				return fmt.Sprintf("%s(%s)", strings.ToUpper(tag), length)
			}
			return strings.ToUpper(tag)

		case "DERIVED":
			return c.attr("name")

		case "POINTER":
			return "POINTER TO " + typeName(c.child("baseType"))

		case "ARRAY":
			var dims []string
			for _, d := range c.all("dimension") {
				dims = append(dims, d.attr("lower")+".."+d.attr("upper"))
			}
			if len(dims) == 0 {
				return "ARRAY"
			}
			return fmt.Sprintf("ARRAY[%s] OF %s", strings.Join(dims, ","), typeName(c.child("baseType")))

		case "STRUCT", "ENUM":
			return strings.ToUpper(tag)
		}
	}
	return ""
}
