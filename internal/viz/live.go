package viz

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/flipsim/internal/experiment"
	"github.com/san-kum/flipsim/internal/metrics"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	canvasWidth     = 60
	canvasHeight    = 24
	historyCapacity = 600
	gifPath         = "flipsim.gif"
)

// FrameMsg carries one finished frame. Positions is a copy owned by the
// receiver.
type FrameMsg struct {
	Snapshot  metrics.Snapshot
	Positions []r3.Vec
}

// DoneMsg reports the end of the run.
type DoneMsg struct{ Err error }

type tickMsg time.Time

type viewMode int

const (
	viewSide viewMode = iota
	viewTop
	viewOrbit
	numViews
)

func (v viewMode) String() string {
	switch v {
	case viewTop:
		return "top"
	case viewOrbit:
		return "orbit"
	}
	return "side"
}

// Model follows a running simulation. Frames arrive on msgs; cancel stops
// the producer when the user quits.
type Model struct {
	title        string
	totalFrames  int
	lower, upper r3.Vec
	msgs         <-chan tea.Msg
	cancel       func()

	latest    FrameMsg
	received  int
	energy    []float64
	div       []float64
	canvas    *Canvas
	camera    *Camera
	view      viewMode
	frozen    bool
	done      bool
	err       error
	spin      int
	showHelp  bool
	recording bool
	frames    []*image.Paletted
	status    string
}

// NewModel returns a live view of a run of totalFrames frames over the
// domain [lower, upper].
func NewModel(title string, totalFrames int, lower, upper r3.Vec, msgs <-chan tea.Msg, cancel func()) Model {
	return Model{
		title:       title,
		totalFrames: totalFrames,
		lower:       lower,
		upper:       upper,
		msgs:        msgs,
		cancel:      cancel,
		energy:      make([]float64, 0, historyCapacity),
		div:         make([]float64, 0, historyCapacity),
		canvas:      NewCanvas(canvasWidth, canvasHeight),
		camera:      NewCamera(),
	}
}

func listen(msgs <-chan tea.Msg) tea.Cmd {
	if msgs == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-msgs
		if !ok {
			return DoneMsg{}
		}
		return msg
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/10, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(listen(m.msgs), tick())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case FrameMsg:
		m.latest = msg
		m.received++
		if v, ok := msg.Snapshot.Get("kinetic_energy"); ok {
			m.energy = appendCapped(m.energy, v)
		}
		if v, ok := msg.Snapshot.Get("max_divergence"); ok {
			m.div = appendCapped(m.div, v)
		}
		if !m.frozen {
			m.draw()
			if m.recording {
				m.captureFrame()
			}
		}
		return m, listen(m.msgs)
	case DoneMsg:
		m.done = true
		m.err = msg.Err
		return m, nil
	case tickMsg:
		m.spin++
		if m.done {
			return m, nil
		}
		return m, tick()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		if m.cancel != nil {
			m.cancel()
		}
		return m, tea.Quit
	case " ":
		m.frozen = !m.frozen
	case "v":
		m.view = (m.view + 1) % numViews
	case "x":
		m.camera.Orbit(0.1, 0)
	case "X":
		m.camera.Orbit(-0.1, 0)
	case "y":
		m.camera.Orbit(0, 0.1)
	case "Y":
		m.camera.Orbit(0, -0.1)
	case "+", "=":
		m.camera.ZoomIn()
	case "-", "_":
		m.camera.ZoomOut()
	case "t":
		NextTheme()
	case "?":
		m.showHelp = !m.showHelp
	case "g":
		if m.recording {
			if err := m.saveGIF(gifPath); err != nil {
				m.status = "gif: " + err.Error()
			} else {
				m.status = fmt.Sprintf("saved %d frames to %s", len(m.frames), gifPath)
			}
			m.recording = false
			m.frames = nil
		} else {
			m.recording = true
			m.frames = make([]*image.Paletted, 0)
			m.status = "recording"
		}
	}
	m.draw()
	return m, nil
}

func appendCapped(s []float64, v float64) []float64 {
	s = append(s, v)
	if len(s) > historyCapacity {
		s = s[1:]
	}
	return s
}

func (m *Model) draw() {
	m.canvas.Clear()
	switch m.view {
	case viewTop:
		m.canvas.DrawParticles(m.latest.Positions, m.lower, m.upper, PlaneXZ)
	case viewOrbit:
		RenderOrbit(m.canvas, m.latest.Positions, m.lower, m.upper, m.camera)
	default:
		m.canvas.DrawParticles(m.latest.Positions, m.lower, m.upper, PlaneXY)
	}
}

func (m Model) statusLine() string {
	switch {
	case m.err != nil:
		return lipgloss.NewStyle().Foreground(CurrentTheme.Error).Bold(true).Render("FAILED")
	case m.done:
		return lipgloss.NewStyle().Foreground(CurrentTheme.Success).Bold(true).Render("DONE")
	case m.frozen:
		return lipgloss.NewStyle().Foreground(CurrentTheme.Warning).Bold(true).Render("FROZEN")
	}
	return lipgloss.NewStyle().Foreground(CurrentTheme.Primary).Bold(true).Render(AnimatedSpinner(m.spin) + " RUNNING")
}

func (m Model) View() string {
	var s strings.Builder
	s.WriteString(titleStyle().Render(strings.ToUpper(m.title)) + "\n")
	s.WriteString(m.statusLine() + "  " + hintStyle().Render(m.view.String()+" view") + "\n\n")

	fraction := 0.0
	if m.totalFrames > 0 {
		fraction = float64(m.received) / float64(m.totalFrames)
	}
	s.WriteString(ProgressBar(fraction, 30) + fmt.Sprintf(" %d/%d\n\n", m.received, m.totalFrames))

	if m.received > 0 {
		s.WriteString(MetricsTable(m.latest.Snapshot) + "\n\n")
	}
	if len(m.energy) > 1 {
		chart := asciigraph.Plot(m.energy, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("kinetic energy"))
		s.WriteString(lipgloss.NewStyle().Foreground(CurrentTheme.Secondary).Render(chart) + "\n\n")
	}
	if len(m.div) > 0 {
		s.WriteString(labelStyle().Render("divergence") + Sparkline(m.div, 30) + "\n")
	}
	if m.err != nil {
		s.WriteString("\n" + lipgloss.NewStyle().Foreground(CurrentTheme.Error).Width(40).Render(m.err.Error()) + "\n")
	}
	if m.status != "" {
		s.WriteString("\n" + hintStyle().Render(m.status) + "\n")
	}
	s.WriteString(hintStyle().Render("\nSP:Freeze V:View T:Theme G:Record ?:Help Q:Quit"))

	canvasView := lipgloss.NewStyle().Padding(1, 2).Foreground(CurrentTheme.Primary).Render(m.canvas.String())
	statsView := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(CurrentTheme.Muted).
		Padding(1, 2).
		Width(48).
		Render(s.String())
	body := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsView)
	if m.showHelp {
		return panelStyle().Render(helpText) + "\n" + body
	}
	return body
}

const helpText = `Space  freeze or unfreeze the display
V      cycle side, top and orbit views
X/Y    orbit the camera (shift reverses)
+/-    zoom the orbit view
T      cycle themes
G      start or stop GIF recording
?      toggle this help
Q      stop the run and quit`

// captureFrame rasterizes the canvas, one 4x4 block per Braille dot.
func (m *Model) captureFrame() {
	const dot = 4
	w, h := m.canvas.PixelWidth(), m.canvas.PixelHeight()
	img := image.NewPaletted(image.Rect(0, 0, w*dot, h*dot), color.Palette{color.Black, color.White})
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !m.canvas.IsSet(x, y) {
				continue
			}
			for py := 0; py < dot; py++ {
				for px := 0; px < dot; px++ {
					img.SetColorIndex(x*dot+px, y*dot+py, 1)
				}
			}
		}
	}
	m.frames = append(m.frames, img)
}

func (m *Model) saveGIF(path string) error {
	if len(m.frames) == 0 {
		return fmt.Errorf("no frames recorded")
	}
	anim := gif.GIF{}
	for _, frame := range m.frames {
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, 4)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := gif.EncodeAll(f, &anim); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Follow runs exp in the background and shows it in a Bubble Tea program.
// extra, when set, sees every frame before the display does. Quitting the
// program cancels the run, in which case the error is context.Canceled.
func Follow(ctx context.Context, exp *experiment.Experiment, extra experiment.Observer, opts ...tea.ProgramOption) (*experiment.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cfg := exp.Config()
	lower, upper := cfg.Bounds()
	msgs := make(chan tea.Msg, 4)
	title := fmt.Sprintf("%s · %s", cfg.Scene.Name, cfg.Solver.Kind)
	model := NewModel(title, cfg.Run.Frames, lower, upper, msgs, cancel)

	var (
		result *experiment.Result
		runErr error
	)
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		result, runErr = exp.Run(ctx, func(snap metrics.Snapshot, sim experiment.Simulation) error {
			if extra != nil {
				if err := extra(snap, sim); err != nil {
					return err
				}
			}
			msg := FrameMsg{
				Snapshot:  snap,
				Positions: append([]r3.Vec(nil), sim.ParticleSystemData().Positions()...),
			}
			select {
			case msgs <- msg:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		select {
		case msgs <- DoneMsg{Err: runErr}:
		case <-ctx.Done():
		}
	}()

	_, err := tea.NewProgram(model, opts...).Run()
	cancel()
	<-finished
	if err != nil {
		return result, err
	}
	return result, runErr
}
