package addons

import (
	"fmt"
	"strings"

	"github.com/bnema/addonctl/internal/addons"
	"github.com/bnema/addonctl/internal/ui/styles"
)

// View renders the UI
func (m Model) View() string {
	var content string

	switch m.state {
	case viewList:
		content = m.viewList()
	case viewAdd:
		content = m.viewAdd()
	case viewEdit:
		content = m.viewEdit()
	case viewConfirmRemove, viewConfirmRemoveSelected:
		content = m.viewConfirmRemove()
	case viewConfirmQuit:
		content = m.viewConfirmQuit()
	case viewProgress:
		content = m.viewProgress()
	case viewInfo:
		content = m.viewInfo()
	case viewHistory:
		content = m.viewHistory()
	}

	return styles.App.Render(content)
}

func (m Model) viewList() string {
	var s strings.Builder

	s.WriteString(m.list.View())

	counts := m.editor.Counts()
	summary := fmt.Sprintf("%d enabled, %d disabled", counts.Enabled, counts.Disabled)
	if counts.Selected > 0 {
		summary += fmt.Sprintf(", %d selected", counts.Selected)
	}
	s.WriteString("\n" + styles.MutedText.Render(summary))

	if m.errorMsg != "" {
		s.WriteString("\n" + styles.FormatError(m.errorMsg))
	} else if m.statusMsg != "" {
		s.WriteString("\n" + styles.FormatSuccess(m.statusMsg))
	}

	help := "e:toggle  space:select  K/J:move  i:add  c:edit  d:remove  u:undo  ctrl+r:redo  r:pull  s:push  C:check  U:update  h:history  q:quit"
	if m.editor.ReadOnly() {
		help = "r:pull  C:check  enter:info  q:quit"
	}
	s.WriteString("\n" + styles.Help.Render(help))

	return s.String()
}

func (m Model) viewAdd() string {
	var s strings.Builder

	s.WriteString(styles.Title.Render("Add Addon") + "\n\n")
	s.WriteString("Enter the manifest URL:\n\n")
	s.WriteString(m.urlInput.View() + "\n\n")
	s.WriteString(styles.Help.Render("enter:add  esc:cancel"))

	return s.String()
}

func (m Model) viewEdit() string {
	var s strings.Builder

	s.WriteString(styles.Title.Render("Edit Addon") + "\n\n")
	if session, ok := m.editor.Editing(); ok {
		s.WriteString(styles.MutedText.Render(fmt.Sprintf("#%d %s", session.Index+1, session.OriginalURL)) + "\n\n")
	}
	s.WriteString("Name:\n" + m.nameInput.View() + "\n\n")
	s.WriteString("Manifest URL:\n" + m.urlInput.View() + "\n\n")
	s.WriteString(styles.MutedText.Render("Changing the URL fetches the manifest again.") + "\n\n")
	s.WriteString(styles.Help.Render("tab:switch field  enter:save  esc:cancel"))

	return s.String()
}

func (m Model) viewConfirmRemove() string {
	var s strings.Builder

	s.WriteString(styles.Title.Render("Remove Addon") + "\n\n")
	if m.state == viewConfirmRemoveSelected {
		n := m.editor.Counts().Selected
		s.WriteString(fmt.Sprintf("Remove %s?\n", styles.Highlighted.Render(styles.FormatCount(n, "selected addon", "selected addons"))))
	} else {
		name := ""
		if m.selected != nil {
			name = m.selected.Name()
		}
		s.WriteString(fmt.Sprintf("Are you sure you want to remove %s?\n", styles.Highlighted.Render(name)))
	}
	s.WriteString("You can undo this until you push.\n\n")
	s.WriteString(styles.Help.Render("y:confirm  n/esc:cancel"))

	return s.String()
}

func (m Model) viewConfirmQuit() string {
	var s strings.Builder

	s.WriteString(styles.Title.Render("Unsaved Changes") + "\n\n")
	s.WriteString("Your changes have not been pushed to your account.\n\n")
	s.WriteString(styles.Help.Render("y:quit anyway  s:push  n/esc:cancel"))

	return s.String()
}

func (m Model) viewProgress() string {
	return m.spinner.View() + " " + m.progressMsg
}

func (m Model) viewInfo() string {
	var s strings.Builder

	if m.selected == nil {
		return "No addon selected"
	}
	e := m.selected

	s.WriteString(styles.Title.Render("Addon Info") + "\n\n")

	s.WriteString(styles.AddonName.Render(e.Name()) + "\n")
	if e.Manifest.Description != "" {
		s.WriteString(styles.MutedText.Render(e.Manifest.Description) + "\n")
	}
	s.WriteString("\n")

	s.WriteString(fmt.Sprintf("ID:        %s\n", e.Manifest.ID))
	if e.Manifest.Version != "" {
		s.WriteString(fmt.Sprintf("Version:   %s\n", e.Manifest.Version))
	}
	if len(e.Manifest.Types) > 0 {
		s.WriteString(fmt.Sprintf("Types:     %s\n", strings.Join(e.Manifest.Types, ", ")))
	}
	s.WriteString(fmt.Sprintf("URL:       %s\n", e.TransportURL))
	if d := addons.Domain(e.TransportURL); d != "" {
		s.WriteString(fmt.Sprintf("Domain:    %s\n", d))
	}
	s.WriteString(fmt.Sprintf("Status:    %s\n", styles.FormatEnabled(e.IsEnabled)))
	if e.DisableAutoUpdate {
		s.WriteString("Updates:   " + styles.FormatAutoUpdateOff() + "\n")
	}
	if f := styles.FormatFlags(e.Flags); f != "" {
		s.WriteString("Flags:     " + f + "\n")
	}
	if e.Err != "" {
		s.WriteString("Health:    " + styles.ErrorText.Render(e.Err) + "\n")
	}

	s.WriteString("\n" + styles.Help.Render("esc/enter:back"))

	return s.String()
}

func (m Model) viewHistory() string {
	var s strings.Builder

	s.WriteString(styles.Title.Render("History") + "\n\n")

	undo := m.editor.UndoActions()
	redo := m.editor.RedoActions()
	if len(undo) == 0 && len(redo) == 0 {
		s.WriteString(styles.MutedText.Render("No changes since the last pull or push") + "\n")
	}

	for i := range redo {
		s.WriteString("  " + styles.MutedText.Render("↷ "+redo[i]) + "\n")
	}
	for i := len(undo) - 1; i >= 0; i-- {
		line := "  " + styles.Arrow.String() + " " + undo[i]
		if i == len(undo)-1 {
			line = "  " + styles.Highlighted.Render("● "+undo[i])
		}
		s.WriteString(line + "\n")
	}

	s.WriteString("\n" + styles.Help.Render("esc:back"))

	return s.String()
}
