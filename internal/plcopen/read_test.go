package plcopen

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/damischa1/plcopen2flow/internal/catalog"
)

const fixture = `<?xml version="1.0" encoding="utf-8"?>
<project xmlns="http://www.plcopen.org/xml/tc6_0200">
  <fileHeader companyName="" productName="CODESYS" productVersion="3.5" creationDateTime="2024-01-01T00:00:00"/>
  <contentHeader name="Conveyor.project"/>
  <types>
    <dataTypes/>
    <pous>
      <pou name="Main" pouType="program">
        <interface>
          <inputVars>
            <variable name="xStart"><type><BOOL/></type></variable>
          </inputVars>
          <localVars>
            <variable name="fbMotor"><type><derived name="FB_Motor"/></type></variable>
            <variable name="aBuf"><type><array><dimension lower="0" upper="9"/><baseType><INT/></baseType></array></type></variable>
            <variable name="sName"><type><string length="20"/></type></variable>
          </localVars>
        </interface>
        <body>
          <ST>
            <xhtml xmlns="http://www.w3.org/1999/xhtml">IF xStart THEN
  fbMotor(bRun := TRUE);
END_IF
IF a &lt; b THEN Init; END_IF</xhtml>
          </ST>
        </body>
        <actions>
          <action name="Init">
            <body><ST><xhtml xmlns="http://www.w3.org/1999/xhtml">x := 0;</xhtml></ST></body>
            <addData>
              <data name="http://www.3s-software.com/plcopenxml/objectid" handleUnknown="discard">
                <ObjectId>act-1</ObjectId>
              </data>
            </addData>
          </action>
        </actions>
        <addData>
          <data name="http://www.3s-software.com/plcopenxml/objectid" handleUnknown="discard">
            <ObjectId>pou-main</ObjectId>
          </data>
        </addData>
      </pou>
      <pou name="FB_Motor" pouType="functionBlock">
        <interface>
          <inputVars><variable name="bRun"><type><BOOL/></type></variable></inputVars>
        </interface>
        <body><ST><xhtml xmlns="http://www.w3.org/1999/xhtml">Start();</xhtml></ST></body>
        <addData>
          <data name="http://www.3s-software.com/plcopenxml/method" handleUnknown="implementation">
            <Method name="Start" ObjectId="m-1">
              <interface><outputVars><variable name="ok"><type><BOOL/></type></variable></outputVars></interface>
              <body><ST><xhtml xmlns="http://www.w3.org/1999/xhtml">ok := TRUE;</xhtml></ST></body>
            </Method>
          </data>
        </addData>
      </pou>
      <pou name="Ladder" pouType="program">
        <body><LD/></body>
      </pou>
    </pous>
  </types>
  <instances><configurations/></instances>
  <addData>
    <data name="http://www.3s-software.com/plcopenxml/pou" handleUnknown="implementation">
      <pou name="Main" pouType="program"><body><ST><xhtml>duplicate</xhtml></ST></body></pou>
      <pou name="Helper_Fn" pouType="function">
        <body><ST>y := 1;</ST></body>
      </pou>
    </data>
    <data name="http://www.3s-software.com/plcopenxml/projectstructure" handleUnknown="discard">
      <ProjectStructure>
        <Folder Name="Plant">
          <Object Name="Main" ObjectId="pou-main">
            <Object Name="Init" ObjectId="act-1"/>
          </Object>
          <Folder Name="Drives">
            <Object Name="FB_Motor" ObjectId="fb-1"/>
          </Folder>
        </Folder>
      </ProjectStructure>
    </data>
  </addData>
</project>`

func read(t *testing.T) *Project {
	t.Helper()
	p, err := Read(strings.NewReader(fixture))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	return p
}

func byName(p *Project) map[string]catalog.Component {
	m := map[string]catalog.Component{}
	for _, c := range p.Components {
		m[c.Name] = c
	}
	return m
}

func TestReadComponents(t *testing.T) {
	p := read(t)
	var names []string
	for _, c := range p.Components {
		names = append(names, c.Name)
	}
	want := []string{"Main", "Main.Init", "FB_Motor", "FB_Motor.Start", "Ladder", "Helper_Fn"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("components = %q, want %q", names, want)
	}
	if p.Name != "Conveyor.project" {
		t.Errorf("Name = %q", p.Name)
	}

	m := byName(p)
	tests := []struct {
		name     string
		kind     catalog.Kind
		parent   string
		bodyType string
		objectID string
		folder   string
	}{
		{"Main", catalog.KindProgram, "", "ST", "pou-main", "Plant"},
		{"Main.Init", catalog.KindAction, "Main", "ST", "act-1", "Plant"},
		{"FB_Motor", catalog.KindFunctionBlock, "", "ST", "", "Plant/Drives"},
		{"FB_Motor.Start", catalog.KindMethod, "FB_Motor", "ST", "m-1", "Plant/Drives"},
		{"Ladder", catalog.KindProgram, "", "LD", "", ""},
		{"Helper_Fn", catalog.KindFunction, "", "ST", "", ""},
	}
	for _, tt := range tests {
		c := m[tt.name]
		if c.Kind != tt.kind || c.Parent != tt.parent || c.BodyType != tt.bodyType ||
			c.ObjectID != tt.objectID || c.Folder != tt.folder {
			t.Errorf("%s = {kind %q parent %q body %q id %q folder %q}, want {%q %q %q %q %q}",
				tt.name, c.Kind, c.Parent, c.BodyType, c.ObjectID, c.Folder,
				tt.kind, tt.parent, tt.bodyType, tt.objectID, tt.folder)
		}
	}
}

func TestReadSource(t *testing.T) {
	m := byName(read(t))
	main := m["Main"].Source
	if !strings.HasPrefix(main, "IF xStart THEN") || !strings.Contains(main, "IF a < b THEN Init;") {
		t.Errorf("Main source = %q", main)
	}
	if got := m["Helper_Fn"].Source; got != "y := 1;" {
		t.Errorf("plain ST source = %q", got)
	}
	if got := m["Ladder"].Source; got != "" {
		t.Errorf("LD source = %q", got)
	}
}

func TestReadVariables(t *testing.T) {
	m := byName(read(t))
	want := []catalog.Variable{
		{Name: "xStart", Type: "BOOL", Section: "VAR_INPUT"},
		{Name: "fbMotor", Type: "FB_Motor", Section: "VAR"},
		{Name: "aBuf", Type: "ARRAY[0..9] OF INT", Section: "VAR"},
		{Name: "sName", Type: "STRING(20)", Section: "VAR"},
	}
	if got := m["Main"].Vars; !reflect.DeepEqual(got, want) {
		t.Errorf("Main vars = %+v, want %+v", got, want)
	}
	if got := m["FB_Motor.Start"].Vars; len(got) != 1 || got[0].Section != "VAR_OUTPUT" {
		t.Errorf("method vars = %+v", got)
	}
}

func TestReadCatalogue(t *testing.T) {
	cat := catalog.New(read(t).Components)
	main, _ := cat.Lookup("Main")
	if want := []string{"FB_Motor", "Main.Init"}; !reflect.DeepEqual(main.SubCalls, want) {
		t.Errorf("Main.SubCalls = %q, want %q", main.SubCalls, want)
	}
	fb, _ := cat.Lookup("FB_Motor")
	if want := []string{"FB_Motor.Start"}; !reflect.DeepEqual(fb.SubCalls, want) {
		t.Errorf("FB_Motor.SubCalls = %q, want %q", fb.SubCalls, want)
	}
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{"not a project", `<html><body/></html>`, ErrNoProject},
		{"no pous", `<project><types><pous/></types></project>`, ErrNoProject},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.doc))
			if !errors.Is(err, tt.want) {
				t.Errorf("Read() error = %v, want %v", err, tt.want)
			}
		})
	}
	if _, err := Read(strings.NewReader("<project>")); err == nil || errors.Is(err, ErrNoProject) {
		t.Errorf("truncated XML: error = %v", err)
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.xml")
	if err := os.WriteFile(path, []byte(fixture), 0o644); err != nil {
		t.Fatal(err)
	}
	p, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(p.Components) != 6 {
		t.Errorf("got %d components", len(p.Components))
	}
	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.xml")); err == nil {
		t.Error("ReadFile(missing) succeeded")
	}
}
