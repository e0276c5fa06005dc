package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/bnema/addonctl/internal/ui/styles"
)

var (
	moveTop    bool
	moveBottom bool
	moveUp     bool
	moveDown   bool
	moveTo     int

	editURL  string
	editName string
)

var addonsAddCmd = &cobra.Command{
	Use:     "add <manifest-url>",
	Aliases: []string{"install"},
	Short:   "Add an addon by its manifest URL",
	Long: `Fetch the manifest served at the URL and append the addon, enabled, to
the collection. The same addon cannot be added twice, even with a different
configuration query string.

Examples:
  addonctl addons add https://example.com/manifest.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp(cmd.Context())
		if err != nil {
			return err
		}
		entry, err := a.editor.Add(cmd.Context(), args[0])
		if err != nil {
			return describe(err)
		}
		fmt.Println(styles.FormatSuccess(fmt.Sprintf("Added %s %s",
			entry.Name(), styles.AddonVersion.Render(entry.Manifest.Version))))
		return nil
	},
}

var addonsMoveCmd = &cobra.Command{
	Use:   "move <addon> [position]",
	Short: "Change the position of an addon",
	Long: `Move an addon within the collection. The account receives addons in
collection order.

Examples:
  addonctl addons move "Cinemeta" --top
  addonctl addons move 5 --up
  addonctl addons move 5 2`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp(cmd.Context())
		if err != nil {
			return err
		}
		index, err := a.editor.Find(args[0])
		if err != nil {
			return err
		}

		entry, err := a.editor.Entry(index)
		if err != nil {
			return err
		}

		target := moveTo
		if len(args) == 2 {
			if target, err = strconv.Atoi(args[1]); err != nil {
				return fmt.Errorf("invalid position %q", args[1])
			}
		}

		switch {
		case moveTop:
			err = a.editor.MoveToTop(index)
		case moveBottom:
			err = a.editor.MoveToBottom(index)
		case moveUp:
			err = a.editor.MoveUp(index)
		case moveDown:
			err = a.editor.MoveDown(index)
		case target > 0:
			err = a.editor.Move(index, target-1)
		default:
			return errors.New("specify a position or one of --top, --bottom, --up, --down")
		}
		if err != nil {
			return describe(err)
		}

		fmt.Println(styles.FormatSuccess(fmt.Sprintf("%s is now at position %d",
			entry.Name(), indexOf(a, entry.TransportURL)+1)))
		return nil
	},
}

var addonsEnableCmd = &cobra.Command{
	Use:   "enable <addon>...",
	Short: "Enable addons so they are pushed to the account",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setEnabled(cmd, args, true)
	},
}

var addonsDisableCmd = &cobra.Command{
	Use:   "disable <addon>...",
	Short: "Disable addons, keeping them in the local collection only",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setEnabled(cmd, args, false)
	},
}

// setEnabled selects the referenced addons and applies the change as one
// undoable action
func setEnabled(cmd *cobra.Command, refs []string, enabled bool) error {
	a, err := getApp(cmd.Context())
	if err != nil {
		return err
	}

	if len(refs) == 1 {
		index, err := a.editor.Find(refs[0])
		if err != nil {
			return err
		}
		if err := a.editor.SetEnabled(index, enabled); err != nil {
			return describe(err)
		}
		entry, _ := a.editor.Entry(index)
		fmt.Println(styles.FormatSuccess(fmt.Sprintf("%s %s", entry.Name(), styles.FormatEnabled(enabled))))
		return nil
	}

	if err := a.editor.ClearSelection(); err != nil {
		return describe(err)
	}
	for _, ref := range refs {
		index, err := a.editor.Find(ref)
		if err != nil {
			_ = a.editor.ClearSelection()
			return err
		}
		if err := a.editor.Select(index, true); err != nil {
			return describe(err)
		}
	}

	var n int
	if enabled {
		n, err = a.editor.EnableSelected()
	} else {
		n, err = a.editor.DisableSelected()
	}
	if err != nil {
		return describe(err)
	}
	fmt.Println(styles.FormatSuccess(fmt.Sprintf("%s %s",
		styles.FormatCount(n, "addon", "addons"), styles.FormatEnabled(enabled))))
	return nil
}

var addonsRenameCmd = &cobra.Command{
	Use:   "rename <addon> <name>",
	Short: "Set a custom display name",
	Long: `Set the display name of an addon. Custom names survive pulls and
manifest updates.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp(cmd.Context())
		if err != nil {
			return err
		}
		index, err := a.editor.Find(args[0])
		if err != nil {
			return err
		}
		if err := a.editor.Rename(index, args[1]); err != nil {
			return describe(err)
		}
		fmt.Println(styles.FormatSuccess(fmt.Sprintf("Renamed to %s", args[1])))
		return nil
	},
}

var addonsEditCmd = &cobra.Command{
	Use:   "edit <addon>",
	Short: "Change the name or transport URL of an addon",
	Long: `Change the display name and/or transport URL of an addon. A new URL is
fetched first; the edit is only applied when its manifest is valid.

Examples:
  addonctl addons edit 2 --url "https://example.com/config=abc/manifest.json"
  addonctl addons edit Cinemeta --name "Catalogs"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp(cmd.Context())
		if err != nil {
			return err
		}
		index, err := a.editor.Find(args[0])
		if err != nil {
			return err
		}

		session, err := a.editor.BeginEdit(index)
		if err != nil {
			return describe(err)
		}
		name, url := session.Name, session.URL
		if cmd.Flags().Changed("name") {
			name = editName
		}
		if cmd.Flags().Changed("url") {
			url = editURL
		}

		changed, err := a.editor.CommitEdit(cmd.Context(), name, url)
		if err != nil {
			a.editor.CancelEdit()
			return describe(err)
		}
		if !changed {
			fmt.Println("Nothing to change")
			return nil
		}
		fmt.Println(styles.FormatSuccess("Addon updated"))
		return nil
	},
}

var addonsAutoUpdateCmd = &cobra.Command{
	Use:   "autoupdate <addon> <on|off>",
	Short: "Include or exclude an addon from 'addons update'",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		enabled, err := parseSwitch(args[1])
		if err != nil {
			return err
		}
		a, err := getApp(cmd.Context())
		if err != nil {
			return err
		}
		index, err := a.editor.Find(args[0])
		if err != nil {
			return err
		}
		if err := a.editor.SetAutoUpdate(index, enabled); err != nil {
			return describe(err)
		}
		entry, _ := a.editor.Entry(index)
		if enabled {
			fmt.Println(styles.FormatSuccess(entry.Name() + " follows manifest updates"))
		} else {
			fmt.Println(styles.FormatSuccess(entry.Name() + " " + styles.FormatAutoUpdateOff()))
		}
		return nil
	},
}

func parseSwitch(s string) (bool, error) {
	switch s {
	case "on", "true", "yes", "1":
		return true, nil
	case "off", "false", "no", "0":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", s)
}

// indexOf resolves ref again after the collection changed, -1 when gone
func indexOf(a *app, ref string) int {
	i, err := a.editor.Find(ref)
	if err != nil {
		return -1
	}
	return i
}

func init() {
	addonsMoveCmd.Flags().BoolVar(&moveTop, "top", false, "Move to the top")
	addonsMoveCmd.Flags().BoolVar(&moveBottom, "bottom", false, "Move to the bottom")
	addonsMoveCmd.Flags().BoolVar(&moveUp, "up", false, "Move up one position")
	addonsMoveCmd.Flags().BoolVar(&moveDown, "down", false, "Move down one position")
	addonsMoveCmd.Flags().IntVar(&moveTo, "to", 0, "Move to a 1-based position")
	addonsMoveCmd.MarkFlagsMutuallyExclusive("top", "bottom", "up", "down", "to")

	addonsEditCmd.Flags().StringVar(&editURL, "url", "", "New transport URL")
	addonsEditCmd.Flags().StringVar(&editName, "name", "", "New display name")
	addonsEditCmd.MarkFlagsOneRequired("url", "name")

	addonsCmd.AddCommand(addonsAddCmd, addonsMoveCmd, addonsEnableCmd, addonsDisableCmd,
		addonsRenameCmd, addonsEditCmd, addonsAutoUpdateCmd)
}
