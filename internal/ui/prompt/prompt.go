package prompt

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/bnema/addonctl/internal/ui/styles"
)

// ErrCancelled is returned when the user aborts the prompt
var ErrCancelled = errors.New("prompt cancelled")

// Model is a single line input prompt
type Model struct {
	label     string
	input     textinput.Model
	submitted bool
	cancelled bool
}

// NewModel creates a prompt. Secret input is masked.
func NewModel(label, placeholder string, secret bool) Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 512
	ti.Width = 40
	if secret {
		ti.EchoMode = textinput.EchoPassword
		ti.EchoCharacter = '•'
	}
	ti.Focus()

	return Model{label: label, input: ti}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.Type {
		case tea.KeyEnter:
			m.submitted = true
			return m, tea.Quit
		case tea.KeyEsc, tea.KeyCtrlC:
			m.cancelled = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.submitted || m.cancelled {
		return ""
	}
	return styles.NormalText.Bold(true).Render(m.label) + " " + m.input.View() + "\n" +
		styles.Help.Render("enter:confirm  esc:cancel") + "\n"
}

// Value returns the entered text
func (m Model) Value() string {
	return strings.TrimSpace(m.input.Value())
}

// Cancelled reports whether the prompt was aborted
func (m Model) Cancelled() bool {
	return m.cancelled
}

// Ask runs a prompt on the terminal and returns the entered value
func Ask(label, placeholder string, secret bool) (string, error) {
	final, err := tea.NewProgram(NewModel(label, placeholder, secret)).Run()
	if err != nil {
		return "", err
	}
	m := final.(Model)
	if m.Cancelled() {
		return "", ErrCancelled
	}
	return m.Value(), nil
}
