package styles

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/bnema/addonctl/internal/addons"
)

// Color palette - coherent with charmbracelet style
var (
	Primary   = lipgloss.Color("#7D56F4") // Purple (charmbracelet brand)
	Secondary = lipgloss.Color("#FF79C6") // Pink accent
	Success   = lipgloss.Color("#50FA7B") // Green
	Warning   = lipgloss.Color("#FFB86C") // Orange
	Error     = lipgloss.Color("#FF5555") // Red
	Muted     = lipgloss.Color("#6272A4") // Muted blue-gray
	Text      = lipgloss.Color("#F8F8F2") // Light text
)

// Base styles
var (
	// Title style for headers
	Title = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FFFDF5")).
		Background(Primary).
		Padding(0, 1).
		Bold(true)

	// Normal text
	NormalText = lipgloss.NewStyle().
			Foreground(Text)

	// Muted text
	MutedText = lipgloss.NewStyle().
			Foreground(Muted)

	// Success text
	SuccessText = lipgloss.NewStyle().
			Foreground(Success)

	// Warning text
	WarningText = lipgloss.NewStyle().
			Foreground(Warning)

	// Error text
	ErrorText = lipgloss.NewStyle().
			Foreground(Error)

	// Selected item
	Selected = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	// Highlighted (focused)
	Highlighted = lipgloss.NewStyle().
			Foreground(Secondary).
			Bold(true)

	// App container
	App = lipgloss.NewStyle().
		Padding(1, 2)

	// Help text
	Help = lipgloss.NewStyle().
		Foreground(Muted)

	// Spinner
	Spinner = lipgloss.NewStyle().
		Foreground(Primary)
)

// Symbols
var (
	CheckMark = lipgloss.NewStyle().Foreground(Success).SetString("✓")
	CrossMark = lipgloss.NewStyle().Foreground(Error).SetString("✗")
	Arrow     = lipgloss.NewStyle().Foreground(Primary).SetString("→")
)

// Entry styles for list display
var (
	AddonName = lipgloss.NewStyle().
			Foreground(Text).
			Bold(true)

	AddonVersion = lipgloss.NewStyle().
			Foreground(Muted)

	AddonDomain = lipgloss.NewStyle().
			Foreground(Muted).
			Italic(true)

	AddonEnabled = lipgloss.NewStyle().
			Foreground(Success)

	AddonDisabled = lipgloss.NewStyle().
			Foreground(Warning)

	AddonLocked = lipgloss.NewStyle().
			Foreground(Muted)
)

// FormatEnabled returns a styled enabled/disabled indicator
func FormatEnabled(enabled bool) string {
	if enabled {
		return AddonEnabled.Render("enabled")
	}
	return AddonDisabled.Render("disabled")
}

// FormatHealth returns a styled health check result, empty when unchecked
func FormatHealth(status addons.Status) string {
	switch status {
	case addons.StatusOK:
		return SuccessText.Render("online")
	case addons.StatusError:
		return ErrorText.Render("unreachable")
	case addons.StatusChecking:
		return MutedText.Render("checking")
	default:
		return ""
	}
}

// FormatFlags returns the badges of server-owned flags
func FormatFlags(flags addons.Flags) string {
	var parts []string
	if flags.Official {
		parts = append(parts, OfficialBadge.Render("official"))
	}
	if flags.Protected {
		parts = append(parts, AddonLocked.Render("protected"))
	}
	return strings.Join(parts, " ")
}

// FormatAutoUpdateOff returns the indicator shown for pinned entries
func FormatAutoUpdateOff() string {
	return PinnedBadge.Render("pinned")
}

// FormatSuccess formats a success message
func FormatSuccess(msg string) string {
	return CheckMark.String() + " " + SuccessText.Render(msg)
}

// FormatError formats an error message
func FormatError(msg string) string {
	return CrossMark.String() + " " + ErrorText.Render(msg)
}

// FormatWarning formats a warning message
func FormatWarning(msg string) string {
	return WarningText.Render("! " + msg)
}

// Badges
var (
	OfficialBadge = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	PinnedBadge = lipgloss.NewStyle().
			Foreground(Secondary)

	ReadOnlyBadge = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#000000")).
			Background(Warning).
			Bold(true).
			Padding(0, 1)

	DirtyBadge = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#000000")).
			Background(Secondary).
			Bold(true).
			Padding(0, 1)
)

// FormatReadOnlyBadge returns the badge shown while monitoring another account
func FormatReadOnlyBadge() string {
	return ReadOnlyBadge.Render("READ-ONLY")
}

// FormatDirtyBadge returns the badge shown when local changes are not pushed
func FormatDirtyBadge() string {
	return DirtyBadge.Render("UNSAVED")
}

// FormatCount formats a count with its noun, e.g. "3 addons"
func FormatCount(n int, singular, pluralForm string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", singular)
	}
	return fmt.Sprintf("%d %s", n, pluralForm)
}
