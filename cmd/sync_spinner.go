package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type syncDoneMsg struct {
	err error
}

type syncSpinnerModel struct {
	spinner spinner.Model
	label   string
	run     tea.Cmd
	err     error
	done    bool
}

func newSyncSpinnerModel(label string, run tea.Cmd) syncSpinnerModel {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
	)

	return syncSpinnerModel{
		spinner: s,
		label:   label,
		run:     run,
	}
}

func (m syncSpinnerModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.run)
}

func (m syncSpinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case syncDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m syncSpinnerModel) View() string {
	if m.done {
		return ""
	}

	return fmt.Sprintf("%s %s", m.spinner.View(), m.label)
}

func runSyncSpinner(ctx context.Context, output io.Writer, label string, run func(context.Context) error) error {
	runCmd := func() tea.Msg {
		return syncDoneMsg{err: run(ctx)}
	}

	p := tea.NewProgram(
		newSyncSpinnerModel(label, runCmd),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	result, ok := finalModel.(syncSpinnerModel)
	if !ok {
		return fmt.Errorf("unexpected final spinner model type %T", finalModel)
	}

	return result.err
}
