package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/health"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	probeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

// ProbeMsg carries one readiness probe into the program.
type ProbeMsg health.Probe

// DoneMsg ends the program with the startup outcome.
type DoneMsg struct {
	Address string
	Probes  int
	Err     error
}

// StartFunc performs the startup, reporting each probe through onProbe.
type StartFunc func(ctx context.Context, onProbe func(health.Probe)) DoneMsg

// Model is the startup progress view.
type Model struct {
	title     string
	spinner   spinner.Model
	probe     *health.Probe
	result    *DoneMsg
	cancel    context.CancelFunc
	cancelled bool
}

// NewModel creates a progress model. cancel is called when the user
// interrupts; it may be nil.
func NewModel(title string, cancel context.CancelFunc) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = titleStyle
	return Model{
		title:   title,
		spinner: s,
		cancel:  cancel,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			if !m.cancelled && m.cancel != nil {
				m.cancel()
			}
			m.cancelled = true
		}
		return m, nil

	case ProbeMsg:
		p := health.Probe(msg)
		m.probe = &p
		return m, nil

	case DoneMsg:
		m.result = &msg
		return m, tea.Quit

	case spinner.TickMsg:
		if m.result != nil {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	if m.result != nil {
		if m.result.Err != nil {
			b.WriteString(errStyle.Render("✗ "+m.title+" failed") + "\n")
			b.WriteString(probeStyle.Render("  "+m.result.Err.Error()) + "\n")
			return b.String()
		}
		b.WriteString(okStyle.Render("✓ "+m.title) + "\n")
		b.WriteString(probeStyle.Render(fmt.Sprintf("  ready at %s after %d probe(s)", m.result.Address, m.result.Probes)) + "\n")
		return b.String()
	}

	b.WriteString(m.spinner.View() + " " + titleStyle.Render(m.title) + "\n")
	if m.probe != nil {
		b.WriteString(probeStyle.Render(fmt.Sprintf("  probe %d/%d: %s", m.probe.N, m.probe.Retries, m.probe.Outcome)) + "\n")
	} else {
		b.WriteString(probeStyle.Render("  waiting for first probe") + "\n")
	}

	if m.cancelled {
		b.WriteString(helpStyle.Render("\ncancelling...") + "\n")
	} else {
		b.WriteString(helpStyle.Render("\nq: cancel") + "\n")
	}
	return b.String()
}

// Result returns the outcome once the program has finished.
func (m Model) Result() (DoneMsg, bool) {
	if m.result == nil {
		return DoneMsg{}, false
	}
	return *m.result, true
}

// Cancelled reports whether the user interrupted the startup.
func (m Model) Cancelled() bool {
	return m.cancelled
}

// RunProgress runs start while rendering its probes. It returns once start
// has returned, with start's outcome.
func RunProgress(ctx context.Context, title string, start StartFunc, opts ...tea.ProgramOption) (DoneMsg, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewModel(title, cancel), opts...)

	finished := make(chan DoneMsg, 1)
	go func() {
		res := start(ctx, func(pr health.Probe) {
			p.Send(ProbeMsg(pr))
		})
		finished <- res
		p.Send(res)
	}()

	finalModel, err := p.Run()
	if err != nil {
		// The renderer failed; still wait for start so nothing outlives us.
		cancel()
		return <-finished, fmt.Errorf("error running progress view: %w", err)
	}

	if m, ok := finalModel.(Model); ok {
		if res, ok := m.Result(); ok {
			return res, nil
		}
	}
	return <-finished, nil
}
