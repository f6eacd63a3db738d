package status

import (
	"errors"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Sakenfor/pixsim7-sub009/internal/domain"
)

var ErrUnexpectedRenderModel = errors.New("unexpected final bubbletea model type")

type renderReadyMsg struct{}

type model struct {
	accounts []domain.ProviderAccount
	health   domain.JwtHealthReport
	opts     RenderOptions
	styles   styles
	output   string
}

func newModel(accounts []domain.ProviderAccount, health domain.JwtHealthReport, opts RenderOptions) model {
	return model{
		accounts: accounts,
		health:   health,
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
		m.output = renderView(m.accounts, m.health, m.opts, m.styles)
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m model) View() string {
	return m.output
}

// Render produces the one-shot directory view through a headless
// bubbletea program, so styling behaves identically in and out of a TTY.
func Render(accounts []domain.ProviderAccount, health domain.JwtHealthReport, opts RenderOptions) (string, error) {
	p := tea.NewProgram(
		newModel(accounts, health, opts),
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
