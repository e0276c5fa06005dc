package cmd

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/bnema/addonctl/internal/ui/progress"
	addonsui "github.com/bnema/addonctl/internal/ui/addons"
	"github.com/bnema/addonctl/internal/ui/styles"
)

var addonsCmd = &cobra.Command{
	Use:   "addons",
	Short: "Manage the account's addon collection",
	Long: `Manage the addon collection of the signed-in account.

When run without subcommands, opens an interactive TUI with undo/redo.
Subcommands edit the locally cached collection; nothing reaches the
account until 'addons push'.

Examples:
  addonctl addons                         # Interactive TUI
  addonctl addons list                    # List the collection
  addonctl addons add <manifest-url>      # Add an addon
  addonctl addons move <addon> --top      # Reorder
  addonctl addons disable <addon>         # Keep locally, do not push
  addonctl addons push                    # Push enabled addons`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := getApp(ctx)
		if err != nil {
			return err
		}
		if _, err := a.requireSession(ctx); err != nil {
			return err
		}

		if a.editor.Len() == 0 {
			if err := pull(cmd, a); err != nil {
				getLogger().Warn("Initial pull failed", "error", err)
			}
		}

		model := addonsui.NewModel(ctx, a.editor)
		p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("error running TUI: %w", err)
		}
		return nil
	},
}

var addonsPullCmd = &cobra.Command{
	Use:     "pull",
	Aliases: []string{"refresh"},
	Short:   "Fetch the account's collection and merge it locally",
	Long: `Fetch the collection from the account and reconcile it with the local one.

Local order, enabled state, auto-update exclusions and custom names are kept.
Local addons missing from the account are kept but disabled. New addons are
appended. Undo history is cleared.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp(cmd.Context())
		if err != nil {
			return err
		}
		if _, err := a.requireSession(cmd.Context()); err != nil {
			return err
		}
		return pull(cmd, a)
	},
}

var addonsPushCmd = &cobra.Command{
	Use:     "push",
	Aliases: []string{"save"},
	Short:   "Push enabled addons to the account",
	Long: `Push the enabled addons, in order, to the account. Disabled addons stay
in the local collection only. Every successful push is recorded in the
journal (see 'addonctl journal').`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := getApp(ctx)
		if err != nil {
			return err
		}
		if _, err := a.requireSession(ctx); err != nil {
			return err
		}

		c := a.editor.Counts()
		return progress.Run(ctx, "Pushing addons", progress.Task{
			Name: fmt.Sprintf("Push %s", styles.FormatCount(c.Enabled, "enabled addon", "enabled addons")),
			Run: func(ctx context.Context) (string, error) {
				n, err := a.editor.Save(ctx)
				if err != nil {
					return "", describe(err)
				}
				return styles.FormatCount(n, "addon", "addons") + " on account", nil
			},
		})
	},
}

// pull refreshes the collection and prints a one-line summary
func pull(cmd *cobra.Command, a *app) error {
	progress.PrintInProgress("Fetching addons")
	result, err := a.editor.Refresh(cmd.Context())
	if err != nil {
		progress.PrintError("Failed to fetch addons")
		return describe(err)
	}

	msg := fmt.Sprintf("%s in collection", styles.FormatCount(len(result.Merged), "addon", "addons"))
	if result.Added > 0 {
		msg += fmt.Sprintf(", %d new", result.Added)
	}
	progress.PrintComplete(msg)
	if result.Orphaned > 0 {
		progress.PrintWarning(fmt.Sprintf("%s only exist locally and were disabled",
			styles.FormatCount(result.Orphaned, "addon", "addons")))
	}
	return nil
}

func init() {
	addonsCmd.AddCommand(addonsPullCmd, addonsPushCmd)
	rootCmd.AddCommand(addonsCmd)
}
