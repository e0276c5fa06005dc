package addons

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bnema/addonctl/internal/addons"
	"github.com/bnema/addonctl/internal/editor"
	"github.com/bnema/addonctl/internal/ui/styles"
)

// Commands run editor network operations off the UI goroutine

func (m Model) add(url string) tea.Cmd {
	return func() tea.Msg {
		entry, err := m.editor.Add(m.ctx, url)
		if err != nil {
			return opDoneMsg{err: err}
		}
		return opDoneMsg{message: "Added " + entry.Name()}
	}
}

func (m Model) commitEdit(name, url string) tea.Cmd {
	return func() tea.Msg {
		changed, err := m.editor.CommitEdit(m.ctx, name, url)
		if err != nil {
			return opDoneMsg{err: err}
		}
		if !changed {
			return opDoneMsg{message: "No changes"}
		}
		return opDoneMsg{message: "Saved changes"}
	}
}

func (m Model) refresh() tea.Msg {
	result, err := m.editor.Refresh(m.ctx)
	if err != nil {
		return opDoneMsg{err: err}
	}
	msg := fmt.Sprintf("Pulled %s", styles.FormatCount(len(result.Merged), "addon", "addons"))
	var extra []string
	if result.Added > 0 {
		extra = append(extra, fmt.Sprintf("%d new", result.Added))
	}
	if result.Orphaned > 0 {
		extra = append(extra, fmt.Sprintf("%d no longer on the account", result.Orphaned))
	}
	if len(extra) > 0 {
		msg += " (" + strings.Join(extra, ", ") + ")"
	}
	return opDoneMsg{message: msg}
}

func (m Model) save() tea.Msg {
	n, err := m.editor.Save(m.ctx)
	if err != nil {
		return opDoneMsg{err: err}
	}
	return opDoneMsg{message: fmt.Sprintf("Pushed %s", styles.FormatCount(n, "enabled addon", "enabled addons"))}
}

func (m Model) checkHealth() tea.Msg {
	report, err := m.editor.CheckHealth(m.ctx)
	if err != nil {
		return opDoneMsg{err: err}
	}
	if report.Failed > 0 {
		return opDoneMsg{err: fmt.Errorf("%d of %d addons are unreachable", report.Failed, report.Failed+report.Succeeded)}
	}
	return opDoneMsg{message: fmt.Sprintf("All %s reachable", styles.FormatCount(report.Succeeded, "addon", "addons"))}
}

func (m Model) autoUpdate() tea.Msg {
	report, err := m.editor.AutoUpdate(m.ctx)
	if err != nil {
		return opDoneMsg{err: err}
	}
	msg := fmt.Sprintf("Updated %s", styles.FormatCount(report.Updated, "addon", "addons"))
	if report.Failed > 0 {
		msg += fmt.Sprintf(", %d failed", report.Failed)
	}
	if report.Skipped > 0 {
		msg += fmt.Sprintf(", %d pinned", report.Skipped)
	}
	return opDoneMsg{message: msg}
}

// describe turns editor errors into short user-facing messages
func describe(err error) string {
	switch {
	case errors.Is(err, addons.ErrReadOnly):
		return "Read-only: you are viewing another account"
	case errors.Is(err, addons.ErrBusy):
		return "Another operation is in progress"
	case errors.Is(err, editor.ErrNoEdit):
		return "No edit in progress"
	case addons.IsAuthError(err):
		return "Your session has expired, log in again"
	default:
		return err.Error()
	}
}
