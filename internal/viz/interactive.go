package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/flipsim/internal/config"
)

var sceneInfo = map[string]string{
	"dam_break":  "water column collapsing sideways",
	"water_drop": "sphere of water falling into a pool",
	"column":     "tall column around a small sphere",
}

const (
	stateMenu = iota
	stateConfig
)

// Choice is what the picker returns. Confirmed is false when the user
// quit without starting.
type Choice struct {
	Scene       string
	Solver      string
	Resolution  int
	Frames      int
	PICBlending float64
	Confirmed   bool
}

// Apply writes the choice over cfg.
func (c Choice) Apply(cfg *config.Config) {
	cfg.Solver.Kind = c.Solver
	cfg.Grid.Resolution = [3]int{c.Resolution, c.Resolution, c.Resolution}
	cfg.Run.Frames = c.Frames
	cfg.Solver.PICBlending = c.PICBlending
}

var pickerFields = []string{"solver", "resolution", "frames", "pic_blending"}

// Picker selects a scene and a handful of solver settings.
type Picker struct {
	state       int
	cursor      int
	fieldCursor int
	scenes      []string
	choice      Choice
}

// NewPicker lists scenes in the given order.
func NewPicker(scenes []string) Picker {
	return Picker{
		scenes: scenes,
		choice: Choice{Solver: "flip", Resolution: 32, Frames: 120, PICBlending: 0.05},
	}
}

// Choice is the current selection.
func (m Picker) Choice() Choice { return m.choice }

func (m Picker) Init() tea.Cmd { return nil }

func (m Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	if key.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.state == stateMenu {
		return m.menuKey(key)
	}
	return m.configKey(key)
}

func (m Picker) menuKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.scenes)-1 {
			m.cursor++
		}
	case "enter":
		if len(m.scenes) == 0 {
			return m, nil
		}
		m.choice.Scene = m.scenes[m.cursor]
		if p := config.GetPreset(m.choice.Scene); p != nil {
			m.choice.Frames = p.Run.Frames
		}
		m.state = stateConfig
	}
	return m, nil
}

func (m Picker) configKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "esc":
		m.state = stateMenu
	case "up", "k":
		if m.fieldCursor > 0 {
			m.fieldCursor--
		}
	case "down", "j":
		if m.fieldCursor < len(pickerFields)-1 {
			m.fieldCursor++
		}
	case "left", "h":
		m.adjust(-1)
	case "right", "l":
		m.adjust(1)
	case "enter", "s":
		m.choice.Confirmed = true
		return m, tea.Quit
	}
	return m, nil
}

func (m *Picker) adjust(dir int) {
	c := &m.choice
	switch pickerFields[m.fieldCursor] {
	case "solver":
		if c.Solver == "flip" {
			c.Solver = "pic"
		} else {
			c.Solver = "flip"
		}
	case "resolution":
		c.Resolution = max(8, min(c.Resolution+4*dir, 128))
	case "frames":
		c.Frames = max(1, c.Frames+10*dir)
	case "pic_blending":
		c.PICBlending = max(0, min(c.PICBlending+0.05*float64(dir), 1))
	}
}

func (m Picker) fieldValue(name string) string {
	switch name {
	case "solver":
		return m.choice.Solver
	case "resolution":
		return fmt.Sprintf("%d³", m.choice.Resolution)
	case "frames":
		return fmt.Sprintf("%d", m.choice.Frames)
	case "pic_blending":
		return fmt.Sprintf("%.2f", m.choice.PICBlending)
	}
	return ""
}

func (m Picker) View() string {
	if m.state == stateConfig {
		return m.viewConfig()
	}
	return m.viewMenu()
}

func keyHint(keys ...string) string {
	k := lipgloss.NewStyle().Foreground(CurrentTheme.Secondary).Bold(true)
	parts := make([]string, 0, len(keys)/2)
	for i := 0; i+1 < len(keys); i += 2 {
		parts = append(parts, k.Render(keys[i])+hintStyle().Render(" "+keys[i+1]))
	}
	return strings.Join(parts, "  ")
}

func (m Picker) viewMenu() string {
	var b strings.Builder
	b.WriteString("\n\n    " + titleStyle().Render("FLIPSIM") + "\n    " + hintStyle().Render("hybrid particle/grid fluid") + "\n    " + Separator(26) + "\n\n")
	selected := lipgloss.NewStyle().Foreground(CurrentTheme.Text).Bold(true)
	accent := lipgloss.NewStyle().Foreground(CurrentTheme.Accent)
	muted := lipgloss.NewStyle().Foreground(CurrentTheme.Muted)
	for i, name := range m.scenes {
		desc := sceneInfo[name]
		if i == m.cursor {
			b.WriteString(fmt.Sprintf("    %s %s  %s\n", titleStyle().Render("▸"), selected.Render(fmt.Sprintf("%-12s", name)), accent.Render(desc)))
		} else {
			b.WriteString(fmt.Sprintf("      %s  %s\n", muted.Render(fmt.Sprintf("%-12s", name)), muted.Render(desc)))
		}
	}
	b.WriteString("\n    " + keyHint("j/k", "navigate", "enter", "select", "q", "quit") + "\n")
	return b.String()
}

func (m Picker) viewConfig() string {
	var b strings.Builder
	b.WriteString("\n\n    " + titleStyle().Render(strings.ToUpper(m.choice.Scene)) + "\n    " + hintStyle().Render(sceneInfo[m.choice.Scene]) + "\n    " + Separator(26) + "\n\n")
	selected := lipgloss.NewStyle().Foreground(CurrentTheme.Text).Bold(true)
	accent := lipgloss.NewStyle().Foreground(CurrentTheme.Accent).Bold(true)
	muted := lipgloss.NewStyle().Foreground(CurrentTheme.Muted)
	for i, name := range pickerFields {
		val := m.fieldValue(name)
		if i == m.fieldCursor {
			b.WriteString(fmt.Sprintf("    %s %s %s\n", titleStyle().Render("▸"), selected.Render(fmt.Sprintf("%-14s", name)), accent.Render(val)))
		} else {
			b.WriteString(fmt.Sprintf("      %s %s\n", muted.Render(fmt.Sprintf("%-14s", name)), muted.Render(val)))
		}
	}
	b.WriteString("\n    " + keyHint("j/k", "select", "h/l", "adjust", "enter", "start", "esc", "back") + "\n")
	return b.String()
}

// RunPicker shows the picker full screen and returns the selection.
func RunPicker(scenes []string, opts ...tea.ProgramOption) (Choice, error) {
	opts = append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)
	final, err := tea.NewProgram(NewPicker(scenes), opts...).Run()
	if err != nil {
		return Choice{}, err
	}
	return final.(Picker).Choice(), nil
}
