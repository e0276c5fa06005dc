package addons

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/bnema/addonctl/internal/addons"
	"github.com/bnema/addonctl/internal/editor"
	"github.com/bnema/addonctl/internal/ui/styles"
)

// View states
type viewState int

const (
	viewList viewState = iota
	viewAdd
	viewEdit
	viewConfirmRemove
	viewConfirmRemoveSelected
	viewConfirmQuit
	viewProgress
	viewInfo
	viewHistory
)

// entryItem implements list.Item for bubbles/list
type entryItem struct {
	entry addons.Entry
	index int
}

func (i entryItem) Title() string {
	mark := "  "
	if i.entry.Selected {
		mark = styles.Selected.Render("* ")
	}
	name := i.entry.Name()
	if !i.entry.IsEnabled {
		return mark + styles.MutedText.Render(name)
	}
	return mark + name
}

func (i entryItem) Description() string {
	var parts []string

	if v := i.entry.Manifest.Version; v != "" {
		parts = append(parts, "v"+v)
	}
	if d := addons.Domain(i.entry.TransportURL); d != "" {
		parts = append(parts, styles.AddonDomain.Render(d))
	}
	parts = append(parts, styles.FormatEnabled(i.entry.IsEnabled))
	if f := styles.FormatFlags(i.entry.Flags); f != "" {
		parts = append(parts, f)
	}
	if i.entry.DisableAutoUpdate {
		parts = append(parts, styles.FormatAutoUpdateOff())
	}
	if h := styles.FormatHealth(i.entry.Status); h != "" {
		parts = append(parts, h)
	}

	return strings.Join(parts, " | ")
}

func (i entryItem) FilterValue() string {
	return i.entry.Name() + " " + i.entry.TransportURL
}

// Model is the main TUI model
type Model struct {
	ctx       context.Context
	editor    *editor.Editor
	list      list.Model
	urlInput  textinput.Model
	nameInput textinput.Model
	spinner   spinner.Model
	keys      KeyMap

	state         viewState
	width, height int

	selected    *addons.Entry
	statusMsg   string
	errorMsg    string
	progressMsg string
}

// NewModel creates a new TUI model editing the collection held by ed
func NewModel(ctx context.Context, ed *editor.Editor) Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(styles.Primary).
		BorderForeground(styles.Primary)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(styles.Muted).
		BorderForeground(styles.Primary)

	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = "Addons"
	l.Styles.Title = styles.Title
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.DisableQuitKeybindings()

	urlInput := textinput.New()
	urlInput.Placeholder = "https://example.com/manifest.json"
	urlInput.CharLimit = 2048
	urlInput.Width = 60

	nameInput := textinput.New()
	nameInput.Placeholder = "Display name"
	nameInput.CharLimit = 256
	nameInput.Width = 60

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.Spinner

	m := Model{
		ctx:       ctx,
		editor:    ed,
		list:      l,
		urlInput:  urlInput,
		nameInput: nameInput,
		spinner:   s,
		keys:      DefaultKeyMap(),
		state:     viewList,
	}
	m.syncItems()
	return m
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Messages
type (
	// opDoneMsg reports the result of an editor operation run in the background
	opDoneMsg struct {
		message string
		err     error
	}
)

// syncItems rebuilds the list from the editor, keeping the cursor in range
func (m *Model) syncItems() {
	entries := m.editor.Entries()
	items := make([]list.Item, len(entries))
	for i := range entries {
		items[i] = entryItem{entry: entries[i], index: i}
	}
	cursor := m.list.Index()
	m.list.SetItems(items)
	if cursor >= len(items) {
		cursor = len(items) - 1
	}
	if cursor >= 0 {
		m.list.Select(cursor)
	}

	title := "Addons"
	if m.editor.ReadOnly() {
		title += " " + styles.FormatReadOnlyBadge()
	} else if m.editor.HasUnsavedChanges() {
		title += " " + styles.FormatDirtyBadge()
	}
	m.list.Title = title
}

func (m Model) current() (int, bool) {
	item, ok := m.list.SelectedItem().(entryItem)
	if !ok {
		return -1, false
	}
	return item.index, true
}

// report records the outcome of a synchronous editor call
func (m *Model) report(message string, err error) {
	m.statusMsg, m.errorMsg = "", ""
	if err != nil {
		m.errorMsg = describe(err)
	} else {
		m.statusMsg = message
	}
	m.syncItems()
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		h, v := styles.App.GetFrameSize()
		m.list.SetSize(msg.Width-h, msg.Height-v-3)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		switch m.state {
		case viewList:
			return m.updateList(msg)
		case viewAdd:
			return m.updateAdd(msg)
		case viewEdit:
			return m.updateEdit(msg)
		case viewConfirmRemove, viewConfirmRemoveSelected:
			return m.updateConfirmRemove(msg)
		case viewConfirmQuit:
			return m.updateConfirmQuit(msg)
		case viewInfo, viewHistory:
			if key.Matches(msg, m.keys.Back, m.keys.Info, m.keys.Quit, m.keys.History) {
				m.state = viewList
				m.selected = nil
			}
			return m, nil
		case viewProgress:
			return m, nil
		}

	case opDoneMsg:
		m.state = viewList
		m.progressMsg = ""
		m.report(msg.message, msg.err)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	index, hasCurrent := m.current()

	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.editor.HasUnsavedChanges() && !m.editor.ReadOnly() {
			m.state = viewConfirmQuit
			return m, nil
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.Toggle) && hasCurrent:
		m.report("Toggled", m.editor.Toggle(index))
		return m, nil

	case key.Matches(msg, m.keys.Select) && hasCurrent:
		entry, err := m.editor.Entry(index)
		if err == nil {
			err = m.editor.Select(index, !entry.Selected)
		}
		m.report("", err)
		m.list.CursorDown()
		return m, nil

	case key.Matches(msg, m.keys.SelectAll):
		m.report("", m.editor.SelectAll())
		return m, nil

	case key.Matches(msg, m.keys.ClearSelection):
		m.report("", m.editor.ClearSelection())
		return m, nil

	case key.Matches(msg, m.keys.EnableSelected):
		n, err := m.editor.EnableSelected()
		m.report(fmt.Sprintf("Enabled %s", styles.FormatCount(n, "addon", "addons")), err)
		return m, nil

	case key.Matches(msg, m.keys.DisableSel):
		n, err := m.editor.DisableSelected()
		m.report(fmt.Sprintf("Disabled %s", styles.FormatCount(n, "addon", "addons")), err)
		return m, nil

	case key.Matches(msg, m.keys.MoveUp) && hasCurrent:
		return m.move(index, index-1, m.editor.MoveUp)

	case key.Matches(msg, m.keys.MoveDown) && hasCurrent:
		return m.move(index, index+1, m.editor.MoveDown)

	case key.Matches(msg, m.keys.MoveTop) && hasCurrent:
		return m.move(index, 0, m.editor.MoveToTop)

	case key.Matches(msg, m.keys.MoveBottom) && hasCurrent:
		return m.move(index, m.editor.Len()-1, m.editor.MoveToBottom)

	case key.Matches(msg, m.keys.AutoUpdate) && hasCurrent:
		entry, err := m.editor.Entry(index)
		if err == nil {
			err = m.editor.SetAutoUpdate(index, entry.DisableAutoUpdate)
		}
		m.report("Auto-update preference changed", err)
		return m, nil

	case key.Matches(msg, m.keys.Add):
		if m.editor.ReadOnly() {
			m.report("", addons.ErrReadOnly)
			return m, nil
		}
		m.state = viewAdd
		m.urlInput.SetValue("")
		m.urlInput.Focus()
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Edit) && hasCurrent:
		session, err := m.editor.BeginEdit(index)
		if err != nil {
			m.report("", err)
			return m, nil
		}
		m.state = viewEdit
		m.nameInput.SetValue(session.Name)
		m.urlInput.SetValue(session.URL)
		m.nameInput.Focus()
		m.urlInput.Blur()
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Remove) && hasCurrent:
		if m.editor.ReadOnly() {
			m.report("", addons.ErrReadOnly)
			return m, nil
		}
		entry, err := m.editor.Entry(index)
		if err != nil {
			m.report("", err)
			return m, nil
		}
		m.selected = &entry
		m.state = viewConfirmRemove
		return m, nil

	case key.Matches(msg, m.keys.RemoveSelected):
		if m.editor.Counts().Selected == 0 {
			m.report("", fmt.Errorf("%w: no addons selected", addons.ErrValidation))
			return m, nil
		}
		m.state = viewConfirmRemoveSelected
		return m, nil

	case key.Matches(msg, m.keys.Undo):
		action, ok, err := m.editor.Undo()
		m.report(historyMessage("Undid", "undo", action, ok), err)
		return m, nil

	case key.Matches(msg, m.keys.Redo):
		action, ok, err := m.editor.Redo()
		m.report(historyMessage("Redid", "redo", action, ok), err)
		return m, nil

	case key.Matches(msg, m.keys.History):
		m.state = viewHistory
		return m, nil

	case key.Matches(msg, m.keys.Info) && hasCurrent:
		entry, err := m.editor.Entry(index)
		if err == nil {
			m.selected = &entry
			m.state = viewInfo
		}
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		return m.run("Pulling addons from your account...", m.refresh)

	case key.Matches(msg, m.keys.Save):
		return m.run("Pushing addons to your account...", m.save)

	case key.Matches(msg, m.keys.Check):
		return m.run("Checking addon health...", m.checkHealth)

	case key.Matches(msg, m.keys.Update):
		return m.run("Updating addon manifests...", m.autoUpdate)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// move runs a reorder and keeps the cursor on the moved entry
func (m Model) move(from, to int, fn func(int) error) (tea.Model, tea.Cmd) {
	err := fn(from)
	m.report("", err)
	if err == nil && to >= 0 && to < m.editor.Len() {
		m.list.Select(to)
	}
	return m, nil
}

func (m Model) run(message string, op tea.Cmd) (tea.Model, tea.Cmd) {
	m.state = viewProgress
	m.progressMsg = message
	m.statusMsg, m.errorMsg = "", ""
	return m, tea.Batch(op, m.spinner.Tick)
}

func (m Model) updateAdd(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyEnter:
		url := strings.TrimSpace(m.urlInput.Value())
		if url == "" {
			return m, nil
		}
		m.urlInput.Blur()
		return m.run("Fetching manifest...", m.add(url))

	case key.Matches(msg, m.keys.Back):
		m.urlInput.Blur()
		m.state = viewList
		return m, nil
	}

	var cmd tea.Cmd
	m.urlInput, cmd = m.urlInput.Update(msg)
	return m, cmd
}

func (m Model) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyEnter:
		name, url := m.nameInput.Value(), strings.TrimSpace(m.urlInput.Value())
		m.nameInput.Blur()
		m.urlInput.Blur()
		return m.run("Saving changes...", m.commitEdit(name, url))

	case key.Matches(msg, m.keys.Back):
		m.editor.CancelEdit()
		m.nameInput.Blur()
		m.urlInput.Blur()
		m.state = viewList
		return m, nil

	case key.Matches(msg, m.keys.NextField):
		if m.nameInput.Focused() {
			m.nameInput.Blur()
			m.urlInput.Focus()
		} else {
			m.urlInput.Blur()
			m.nameInput.Focus()
		}
		return m, textinput.Blink
	}

	var cmd tea.Cmd
	if m.nameInput.Focused() {
		m.nameInput, cmd = m.nameInput.Update(msg)
	} else {
		m.urlInput, cmd = m.urlInput.Update(msg)
	}
	return m, cmd
}

func (m Model) updateConfirmRemove(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		if m.state == viewConfirmRemoveSelected {
			n, err := m.editor.RemoveSelected()
			m.report(fmt.Sprintf("Removed %s", styles.FormatCount(n, "addon", "addons")), err)
		} else if m.selected != nil {
			index := m.editor.Entries().Index(m.selected.TransportURL)
			err := m.editor.Remove(index)
			m.report("Removed "+m.selected.Name(), err)
		}
		m.state = viewList
		m.selected = nil
		return m, nil

	case key.Matches(msg, m.keys.Back), msg.String() == "n":
		m.state = viewList
		m.selected = nil
		return m, nil
	}

	return m, nil
}

func (m Model) updateConfirmQuit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Save):
		return m.run("Pushing addons to your account...", m.save)
	case key.Matches(msg, m.keys.Back), msg.String() == "n":
		m.state = viewList
	}
	return m, nil
}

func historyMessage(verb, noun, action string, ok bool) string {
	if !ok {
		return "Nothing to " + noun
	}
	return verb + ": " + action
}
