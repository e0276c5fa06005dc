package addons

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines keyboard shortcuts
type KeyMap struct {
	Toggle         key.Binding
	Select         key.Binding
	SelectAll      key.Binding
	ClearSelection key.Binding
	EnableSelected key.Binding
	DisableSel     key.Binding
	MoveUp         key.Binding
	MoveDown       key.Binding
	MoveTop        key.Binding
	MoveBottom     key.Binding
	AutoUpdate     key.Binding
	Add            key.Binding
	Edit           key.Binding
	Remove         key.Binding
	RemoveSelected key.Binding
	Undo           key.Binding
	Redo           key.Binding
	History        key.Binding
	Refresh        key.Binding
	Save           key.Binding
	Check          key.Binding
	Update         key.Binding
	Info           key.Binding
	Quit           key.Binding
	Back           key.Binding
	Confirm        key.Binding
	NextField      key.Binding
}

// DefaultKeyMap returns the default key bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Toggle: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "enable/disable"),
		),
		Select: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "select"),
		),
		SelectAll: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "select all"),
		),
		ClearSelection: key.NewBinding(
			key.WithKeys("A"),
			key.WithHelp("A", "clear selection"),
		),
		EnableSelected: key.NewBinding(
			key.WithKeys("E"),
			key.WithHelp("E", "enable selected"),
		),
		DisableSel: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "disable selected"),
		),
		MoveUp: key.NewBinding(
			key.WithKeys("K", "shift+up"),
			key.WithHelp("K", "move up"),
		),
		MoveDown: key.NewBinding(
			key.WithKeys("J", "shift+down"),
			key.WithHelp("J", "move down"),
		),
		MoveTop: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "move to top"),
		),
		MoveBottom: key.NewBinding(
			key.WithKeys("B"),
			key.WithHelp("B", "move to bottom"),
		),
		AutoUpdate: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "pin/unpin version"),
		),
		Add: key.NewBinding(
			key.WithKeys("i", "+"),
			key.WithHelp("i", "add"),
		),
		Edit: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "edit"),
		),
		Remove: key.NewBinding(
			key.WithKeys("d", "delete"),
			key.WithHelp("d", "remove"),
		),
		RemoveSelected: key.NewBinding(
			key.WithKeys("X"),
			key.WithHelp("X", "remove selected"),
		),
		Undo: key.NewBinding(
			key.WithKeys("u", "ctrl+z"),
			key.WithHelp("u", "undo"),
		),
		Redo: key.NewBinding(
			key.WithKeys("ctrl+r", "ctrl+y"),
			key.WithHelp("ctrl+r", "redo"),
		),
		History: key.NewBinding(
			key.WithKeys("h"),
			key.WithHelp("h", "history"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "pull"),
		),
		Save: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "push"),
		),
		Check: key.NewBinding(
			key.WithKeys("C"),
			key.WithHelp("C", "check health"),
		),
		Update: key.NewBinding(
			key.WithKeys("U"),
			key.WithHelp("U", "update all"),
		),
		Info: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "info"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "confirm"),
		),
		NextField: key.NewBinding(
			key.WithKeys("tab", "shift+tab"),
			key.WithHelp("tab", "next field"),
		),
	}
}
