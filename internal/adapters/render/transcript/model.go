package transcript

import (
	"errors"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/careguide/careguide-cli/internal/domain"
)

var ErrUnexpectedRenderModel = errors.New("unexpected final bubbletea model type")

type renderReadyMsg struct{}

type model struct {
	messages []domain.Message
	opts     RenderOptions
	styles   styles
	output   string
}

func newModel(messages []domain.Message, opts RenderOptions) model {
	return model{
		messages: messages,
		opts:     opts,
		styles:   newStyles(),
	}
}

func (m model) Init() tea.Cmd {
	return func() tea.Msg {
		return renderReadyMsg{}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg.(type) {
	case renderReadyMsg:
		m.output = renderView(m.messages, m.opts, m.styles)
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m model) View() string {
	return m.output
}

func Render(messages []domain.Message, opts RenderOptions) (string, error) {
	p := tea.NewProgram(
		newModel(messages, opts),
		tea.WithInput(nil),
		tea.WithOutput(io.Discard),
	)

	finalModel, err := p.Run()
	if err != nil {
		return "", err
	}

	rendered, ok := finalModel.(model)
	if !ok {
		return "", ErrUnexpectedRenderModel
	}

	return rendered.View(), nil
}
