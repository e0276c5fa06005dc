package progress

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"

	"github.com/bnema/addonctl/internal/ui/styles"
)

type glyphs struct {
	done, failed, running, pending, warning string
}

var (
	asciiGlyphs = glyphs{done: "+", failed: "x", running: "*", pending: "o", warning: "!"}
	nerdGlyphs  = glyphs{done: "\uf00c", failed: "\uf00d", running: "\uf110", pending: "\uf111", warning: "\uf071"}
)

// currentGlyphs picks Nerd Font icons when ADDONCTL_NERD_FONTS=1
func currentGlyphs() glyphs {
	if os.Getenv("ADDONCTL_NERD_FONTS") == "1" {
		return nerdGlyphs
	}
	return asciiGlyphs
}

func icon(state State) string {
	g := currentGlyphs()
	switch state {
	case StateDone:
		return lipgloss.NewStyle().Foreground(styles.Success).Render(g.done)
	case StateFailed:
		return lipgloss.NewStyle().Foreground(styles.Error).Render(g.failed)
	case StateRunning:
		return lipgloss.NewStyle().Foreground(styles.Primary).Render(g.running)
	default:
		return lipgloss.NewStyle().Foreground(styles.Muted).Render(g.pending)
	}
}

func textStyle(state State) lipgloss.Style {
	switch state {
	case StateDone:
		return styles.SuccessText
	case StateFailed:
		return styles.ErrorText
	case StateRunning:
		return styles.NormalText.Bold(true)
	default:
		return styles.MutedText
	}
}

func line(state State, message string) string {
	return fmt.Sprintf("  %s %s", icon(state), textStyle(state).Render(message))
}

// PrintInProgress prints a step that has started, without animation
func PrintInProgress(message string) {
	fmt.Println(line(StateRunning, message))
}

// PrintComplete prints a finished step
func PrintComplete(message string) {
	fmt.Println(line(StateDone, message))
}

// PrintError prints a failed step
func PrintError(message string) {
	fmt.Println(line(StateFailed, message))
}

func PrintWarning(message string) {
	warn := lipgloss.NewStyle().Foreground(styles.Warning).Render(currentGlyphs().warning)
	fmt.Printf("  %s %s\n", warn, styles.WarningText.Render(message))
}

// PrintDetail prints a line indented under the previous step
func PrintDetail(detail string) {
	fmt.Printf("      %s\n", styles.MutedText.Render(detail))
}

func PrintNewline() {
	fmt.Println()
}
