package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type historySyncDoneMsg struct {
	err error
}

type historySyncSpinnerModel struct {
	spinner spinner.Model
	label   string
	sync    tea.Cmd
	err     error
	done    bool
}

func newHistorySyncSpinnerModel(label string, sync tea.Cmd) historySyncSpinnerModel {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
	)

	return historySyncSpinnerModel{
		spinner: s,
		label:   label,
		sync:    sync,
	}
}

func (m historySyncSpinnerModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.sync)
}

func (m historySyncSpinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case historySyncDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m historySyncSpinnerModel) View() string {
	if m.done {
		return ""
	}

	return fmt.Sprintf("%s %s", m.spinner.View(), m.label)
}

func runHistorySyncSpinner(ctx context.Context, output io.Writer, sync func(context.Context) error) error {
	syncCmd := func() tea.Msg {
		return historySyncDoneMsg{err: sync(ctx)}
	}

	p := tea.NewProgram(
		newHistorySyncSpinnerModel("Syncing history...", syncCmd),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	result, ok := finalModel.(historySyncSpinnerModel)
	if !ok {
		return fmt.Errorf("unexpected final spinner model type %T", finalModel)
	}

	return result.err
}
