package viz

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/flipsim/internal/metrics"
)

// Styles derive from CurrentTheme on every call so theme switches apply
// immediately.
func titleStyle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(CurrentTheme.Primary)
}

func labelStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(CurrentTheme.Muted).Width(20)
}

func valueStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(CurrentTheme.Text).Bold(true)
}

func panelStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(CurrentTheme.Secondary).
		Padding(0, 1)
}

func hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(CurrentTheme.Muted).Italic(true)
}

// AnimatedSpinner returns one frame of a Braille spinner.
func AnimatedSpinner(frame int) string {
	spinners := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	return spinners[frame%len(spinners)]
}

// ProgressBar renders a bar filled to fraction in [0, 1].
func ProgressBar(fraction float64, width int) string {
	filled := int(fraction * float64(width))
	filled = max(0, min(filled, width))
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	color := CurrentTheme.Warning
	if fraction >= 1 {
		color = CurrentTheme.Success
	}
	return lipgloss.NewStyle().Foreground(color).Render(bar)
}

var sparkChars = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline renders the last width values as a single row of bars.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return strings.Repeat("─", max(width, 0))
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	span := hi - lo
	if span == 0 || math.IsInf(span, 0) || math.IsNaN(span) {
		span = 1
	}

	var b strings.Builder
	for _, v := range values {
		idx := int((v - lo) / span * float64(len(sparkChars)-1))
		idx = max(0, min(idx, len(sparkChars)-1))
		b.WriteRune(sparkChars[idx])
	}
	return lipgloss.NewStyle().Foreground(CurrentTheme.Accent).Render(b.String())
}

// FormatValue prints counts as integers and everything else in %g.
func FormatValue(name string, v float64) string {
	switch name {
	case "particles", "pressure_iterations":
		return fmt.Sprintf("%d", int64(v))
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return lipgloss.NewStyle().Foreground(CurrentTheme.Error).Render(fmt.Sprint(v))
	}
	return fmt.Sprintf("%.6g", v)
}

// MetricsTable renders one labelled row per metric in snap.
func MetricsTable(snap metrics.Snapshot) string {
	var b strings.Builder
	b.WriteString(labelStyle().Render("frame") + valueStyle().Render(fmt.Sprintf("%d", snap.Frame)) + "\n")
	b.WriteString(labelStyle().Render("time") + valueStyle().Render(fmt.Sprintf("%.4fs", snap.Time)) + "\n")
	for i, name := range snap.Names {
		b.WriteString(labelStyle().Render(name) + valueStyle().Render(FormatValue(name, snap.Values[i])) + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// Summary renders a titled panel with the metrics of snap.
func Summary(title string, snap metrics.Snapshot) string {
	return panelStyle().Render(titleStyle().Render(title) + "\n\n" + MetricsTable(snap))
}

// Separator is a muted rule of the given width.
func Separator(width int) string {
	mid := width / 2
	left := strings.Repeat("─", max(mid-3, 0))
	right := strings.Repeat("─", max(width-mid-3, 0))
	return hintStyle().Render(left + " ◆ " + right)
}
