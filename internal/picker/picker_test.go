package picker

import (
	"reflect"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/damischa1/plcopen2flow/internal/catalog"
)

func items() []catalog.Component {
	return []catalog.Component{
		{Name: "Main", Kind: catalog.KindProgram, SubCalls: []string{"FB_Motor"}},
		{Name: "FB_Motor", Kind: catalog.KindFunctionBlock},
		{Name: "FB_Valve", Kind: catalog.KindFunctionBlock},
		{Name: "Main.Init", Kind: catalog.KindAction, Parent: "Main"},
	}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, keys ...tea.KeyMsg) Model {
	t.Helper()
	for _, k := range keys {
		next, _ := m.Update(k)
		m = next.(Model)
	}
	return m
}

func names(cs []catalog.Component) []string {
	var out []string
	for _, c := range cs {
		out = append(out, c.Name)
	}
	return out
}

func TestSelectionKeys(t *testing.T) {
	tests := []struct {
		name string
		keys []tea.KeyMsg
		want []string
	}{
		{"initial", nil, []string{"Main", "FB_Motor", "FB_Valve", "Main.Init"}},
		{"none", []tea.KeyMsg{runes("n")}, nil},
		{"programs", []tea.KeyMsg{runes("p")}, []string{"Main"}},
		{"function blocks", []tea.KeyMsg{runes("f")}, []string{"FB_Motor", "FB_Valve"}},
		{"all again", []tea.KeyMsg{runes("n"), runes("a")}, []string{"Main", "FB_Motor", "FB_Valve", "Main.Init"}},
		{"toggle first", []tea.KeyMsg{runes("n"), {Type: tea.KeySpace}}, []string{"Main"}},
		{"move and toggle", []tea.KeyMsg{runes("n"), runes("j"), runes("j"), runes("x")}, []string{"FB_Valve"}},
		{"arrows", []tea.KeyMsg{runes("n"), {Type: tea.KeyDown}, {Type: tea.KeyDown}, {Type: tea.KeyUp}, runes("x")}, []string{"FB_Motor"}},
		{"cursor stops at the top", []tea.KeyMsg{runes("n"), runes("k"), runes("k"), runes("x")}, []string{"Main"}},
		{"cursor stops at the bottom", []tea.KeyMsg{runes("n"), runes("j"), runes("j"), runes("j"), runes("j"), runes("x")}, []string{"Main.Init"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := press(t, New(items()), tt.keys...)
			if got := names(m.Selected()); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Selected() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConfirmAndCancel(t *testing.T) {
	m, cmd := New(items()).Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !m.(Model).done || cmd == nil {
		t.Error("enter should confirm and quit")
	}
	for _, k := range []tea.KeyMsg{runes("q"), {Type: tea.KeyEsc}, {Type: tea.KeyCtrlC}} {
		m, cmd := New(items()).Update(k)
		if !m.(Model).cancelled || cmd == nil {
			t.Errorf("%s should cancel and quit", k)
		}
	}
}

func TestFilter(t *testing.T) {
	m := press(t, New(items()), runes("/"))
	if !m.filtering {
		t.Fatal("/ should start filtering")
	}
	// letters go to the filter while it has focus
	m = press(t, m, runes("f"), runes("b"), runes("_"))
	if m.filter.Value() != "fb_" || len(m.Selected()) != 4 {
		t.Fatalf("filter = %q, selected %d", m.filter.Value(), len(m.Selected()))
	}
	if len(m.visible) != 2 {
		t.Fatalf("visible = %v, want the two function blocks", m.visible)
	}
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter}, runes("n"))
	if got := names(m.Selected()); !reflect.DeepEqual(got, []string{"Main", "Main.Init"}) {
		t.Errorf("n over filtered list: Selected() = %q", got)
	}
	if m.done {
		t.Error("enter in the filter should not confirm")
	}

	m = press(t, m, runes("/"), tea.KeyMsg{Type: tea.KeyEsc})
	if m.filtering || m.filter.Value() != "" || len(m.visible) != 4 {
		t.Errorf("esc should clear the filter: filtering=%v value=%q visible=%v", m.filtering, m.filter.Value(), m.visible)
	}
}

func TestFilterNoMatch(t *testing.T) {
	m := New(items())
	m.filter.SetValue("pump")
	m.applyFilter()
	if len(m.visible) != 0 || m.cursor != 0 {
		t.Errorf("visible = %v, cursor = %d", m.visible, m.cursor)
	}
	m = press(t, m, tea.KeyMsg{Type: tea.KeySpace})
	if len(m.Selected()) != 4 {
		t.Error("toggle on an empty list changed the selection")
	}
	if !strings.Contains(m.View(), "no component matches") {
		t.Error("view lacks the empty-list hint")
	}
}

func TestView(t *testing.T) {
	m := press(t, New(items()), runes("p"))
	v := m.View()
	for _, s := range []string{"1 of 4 selected", "Main", "FB_Motor", "space toggle"} {
		if !strings.Contains(v, s) {
			t.Errorf("view lacks %q:\n%s", s, v)
		}
	}
}

func TestWindowSize(t *testing.T) {
	next, _ := New(items()).Update(tea.WindowSizeMsg{Width: 80, Height: 3})
	m := next.(Model)
	if m.height != 1 {
		t.Errorf("height = %d, want 1", m.height)
	}
	m = press(t, m, runes("j"), runes("j"))
	if strings.Contains(m.View(), "Main.Init") {
		t.Error("rows outside the window were rendered")
	}
}
