package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/verlet/internal/dynamo"
)

var (
	cyan   = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white  = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	green  = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	red    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

const barWidth = 36

type progressMsg struct {
	step  int
	total int
	t     float64
}

type doneMsg struct{ err error }

type model struct {
	title    string
	cancel   context.CancelFunc
	start    time.Time
	step     int
	total    int
	t        float64
	stopping bool
	done     bool
	err      error
}

func newModel(title string, cancel context.CancelFunc) model {
	return model{title: title, cancel: cancel, start: time.Now()}
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			// the run reports back through doneMsg once it sees the cancellation
			if !m.stopping {
				m.stopping = true
				m.cancel()
			}
		}
		return m, nil
	case progressMsg:
		m.step, m.total, m.t = msg.step, msg.total, msg.t
		return m, nil
	case doneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	}
	return m, nil
}

func (m model) progress() float64 {
	if m.total == 0 {
		return 0
	}
	p := float64(m.step+1) / float64(m.total)
	if p > 1 {
		p = 1
	}
	return p
}

func (m model) View() string {
	var b strings.Builder

	statusIcon := green.Render("●")
	statusText := green.Render("running")
	switch {
	case m.done && m.err != nil:
		statusIcon = red.Render("✗")
		statusText = red.Render("failed")
	case m.done:
		statusText = green.Render("done")
	case m.stopping:
		statusIcon = yellow.Render("○")
		statusText = yellow.Render("stopping")
	}
	b.WriteString(fmt.Sprintf("\n   %s %s  %s\n", statusIcon, cyan.Render(m.title), statusText))

	progress := m.progress()
	filled := int(progress * float64(barWidth))
	bar := cyan.Render(strings.Repeat("━", filled)) + dimmer.Render(strings.Repeat("─", barWidth-filled))
	b.WriteString(fmt.Sprintf("   %s %s\n", bar, white.Render(fmt.Sprintf("%3.0f%%", progress*100))))

	elapsed := time.Since(m.start).Seconds()
	rate := 0.0
	if elapsed > 0 {
		rate = float64(m.step+1) / elapsed
	}
	b.WriteString(fmt.Sprintf("   %s  %s  %s\n",
		dim.Render(fmt.Sprintf("t=%.4f", m.t)),
		dim.Render(fmt.Sprintf("step %d/%d", m.step+1, m.total)),
		dim.Render(fmt.Sprintf("%.0f steps/s", rate))))

	if !m.done {
		b.WriteString("\n" + dim.Render("   q stop") + "\n")
	}
	return b.String()
}

// sender forwards observer callbacks to the program, at most once per whole
// percent of progress.
type sender struct {
	send func(tea.Msg)
	last int
}

func newSender(send func(tea.Msg)) *sender {
	return &sender{send: send, last: -1}
}

func (s *sender) OnStep(step, total int, t float64) {
	pct := 100 * (step + 1) / total
	if pct == s.last && step+1 < total {
		return
	}
	s.last = pct
	s.send(progressMsg{step: step, total: total, t: t})
}

// Watch runs fn with an observer wired to a progress view and returns fn's
// error. Pressing q cancels the context passed to fn.
func Watch(ctx context.Context, title string, fn func(ctx context.Context, obs dynamo.Observer) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newModel(title, cancel))

	errc := make(chan error, 1)
	go func() {
		err := fn(ctx, newSender(p.Send))
		errc <- err
		p.Send(doneMsg{err: err})
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-errc
		return err
	}
	return <-errc
}
