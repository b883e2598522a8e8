package downloader

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ProgressManager renders segment-fetch progress with Bubble Tea when
// stderr is an interactive terminal. All methods are nil-safe so callers
// can wire it unconditionally.
type ProgressManager struct {
	program *tea.Program
	done    chan struct{}
}

type fetchProgressMsg struct {
	done   int
	failed int
	total  int
}

type fetchFinishedMsg struct{}

var (
	fetchLabelStyle  = lipgloss.NewStyle().Bold(true)
	fetchFailedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	fetchCountStyle  = lipgloss.NewStyle().Faint(true)
)

type fetchModel struct {
	spinner  spinner.Model
	bar      progress.Model
	label    string
	done     int
	failed   int
	total    int
	finished bool
}

func newFetchModel(label string, total int) fetchModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return fetchModel{
		spinner: s,
		bar:     progress.New(progress.WithDefaultGradient()),
		label:   label,
		total:   total,
	}
}

func (m fetchModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m fetchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case fetchProgressMsg:
		m.done = msg.done
		m.failed = msg.failed
		m.total = msg.total
		return m, nil
	case fetchFinishedMsg:
		m.finished = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m, nil
	case tea.WindowSizeMsg:
		width := msg.Width - 40
		if width < 10 {
			width = 10
		}
		m.bar.Width = width
		return m, nil
	default:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
}

func (m fetchModel) View() string {
	if m.finished {
		return ""
	}
	percent := 0.0
	if m.total > 0 {
		percent = float64(m.done) / float64(m.total)
	}
	var b strings.Builder
	b.WriteString(m.spinner.View())
	b.WriteString(fetchLabelStyle.Render(m.label))
	b.WriteString(" ")
	b.WriteString(m.bar.ViewAs(percent))
	b.WriteString(fetchCountStyle.Render(fmt.Sprintf(" %d/%d", m.done, m.total)))
	if m.failed > 0 {
		b.WriteString(fetchFailedStyle.Render(fmt.Sprintf(" (%d failed)", m.failed)))
	}
	b.WriteString("\n")
	return b.String()
}

// NewProgressManager returns nil when progress rendering is disabled
// (quiet mode, JSON mode, or a non-interactive stderr).
func NewProgressManager(label string, total int, printer *Printer) *ProgressManager {
	if printer == nil || printer.quiet || !printer.interactive {
		return nil
	}
	program := tea.NewProgram(
		newFetchModel(label, total),
		tea.WithOutput(os.Stderr),
		tea.WithInput(nil),
	)
	pm := &ProgressManager{
		program: program,
		done:    make(chan struct{}),
	}
	go func() {
		defer close(pm.done)
		_, _ = program.Run()
	}()
	return pm
}

func (pm *ProgressManager) Update(done, failed, total int) {
	if pm == nil {
		return
	}
	pm.program.Send(fetchProgressMsg{done: done, failed: failed, total: total})
}

// Finish stops the renderer and waits briefly for the final frame to clear.
func (pm *ProgressManager) Finish() {
	if pm == nil {
		return
	}
	pm.program.Send(fetchFinishedMsg{})
	select {
	case <-pm.done:
	case <-time.After(2 * time.Second):
		pm.program.Kill()
	}
}
