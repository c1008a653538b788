package browse

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/jobpulse/internal/aggregator"
)

var errCancelled = errors.New("cancelled")

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// SearchFunc runs one aggregation for the TUI.
type SearchFunc func(ctx context.Context) (*aggregator.Result, error)

type searchDoneMsg struct {
	res *aggregator.Result
	err error
}

type spinnerTickMsg struct{}

type loaderModel struct {
	label    string
	searchFn SearchFunc
	timeout  time.Duration
	frame    int
	result   *aggregator.Result
	err      error
	done     bool
}

func (m loaderModel) Init() tea.Cmd {
	return tea.Batch(m.doSearch(), m.tick())
}

func (m loaderModel) doSearch() tea.Cmd {
	searchFn, timeout := m.searchFn, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		res, err := searchFn(ctx)
		return searchDoneMsg{res: res, err: err}
	}
}

func (m loaderModel) tick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(time.Time) tea.Msg {
		return spinnerTickMsg{}
	})
}

func (m loaderModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case searchDoneMsg:
		m.result = msg.res
		m.err = msg.err
		m.done = true
		return m, tea.Quit
	case spinnerTickMsg:
		m.frame = (m.frame + 1) % len(spinnerFrames)
		return m, m.tick()
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.done = true
			m.err = errCancelled
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m loaderModel) View() string {
	if m.done {
		return ""
	}
	spinner := lipgloss.NewStyle().Foreground(lipgloss.Color("33")).Render(spinnerFrames[m.frame])
	return fmt.Sprintf("%s Searching %s...\n", spinner, m.label)
}

// RunLoader shows a spinner while the aggregation runs. It renders inline
// (no alt screen).
func RunLoader(label string, timeout time.Duration, searchFn SearchFunc) (*aggregator.Result, error) {
	m := loaderModel{
		label:    label,
		searchFn: searchFn,
		timeout:  timeout,
	}
	p := tea.NewProgram(m)
	result, err := p.Run()
	if err != nil {
		return nil, err
	}
	final := result.(loaderModel)
	return final.result, final.err
}
