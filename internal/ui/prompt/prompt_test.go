package prompt

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

func typeText(m Model, s string) Model {
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return next.(Model)
}

func TestPromptSubmit(t *testing.T) {
	m := typeText(NewModel("Email:", "", false), " me@example.com ")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)

	assert.NotNil(t, cmd)
	assert.False(t, m.Cancelled())
	assert.Equal(t, "me@example.com", m.Value())
	assert.Empty(t, m.View())
}

func TestPromptSecretIsMasked(t *testing.T) {
	m := typeText(NewModel("Password:", "", true), "hunter2")
	assert.NotContains(t, m.View(), "hunter2")
	assert.Equal(t, "hunter2", m.Value())
}

func TestPromptCancel(t *testing.T) {
	next, _ := NewModel("Email:", "", false).Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.True(t, next.(Model).Cancelled())
}
