package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bnema/addonctl/internal/ui/styles"
)

var removeForce bool

var addonsRemoveCmd = &cobra.Command{
	Use:     "remove <addon>",
	Aliases: []string{"rm", "delete", "uninstall"},
	Short:   "Remove an addon from the collection",
	Long: `Remove an addon from the local collection. The account is only updated
by 'addons push'.

An addon is referenced by transport URL, manifest id, name or position.

Examples:
  addonctl addons remove "Torrent Streams"
  addonctl addons remove 3 --force`,
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
		entry, err := a.editor.Entry(index)
		if err != nil {
			return err
		}

		if !removeForce {
			fmt.Printf("Remove addon %s?\n", styles.Highlighted.Render(entry.Name()))
			fmt.Printf("  URL: %s\n", entry.TransportURL)
			if entry.IsEnabled {
				fmt.Println("  It is removed from the account on the next push.")
			}

			fmt.Print("\nConfirm? [y/N] ")
			reader := bufio.NewReader(os.Stdin)
			response, _ := reader.ReadString('\n')
			response = strings.TrimSpace(strings.ToLower(response))

			if response != "y" && response != "yes" {
				fmt.Println("Cancelled.")
				return nil
			}
		}

		if err := a.editor.Remove(index); err != nil {
			return describe(err)
		}

		fmt.Println(styles.FormatSuccess(fmt.Sprintf("Addon %s removed", entry.Name())))
		return nil
	},
}

func init() {
	addonsRemoveCmd.Flags().BoolVarP(&removeForce, "force", "f", false, "Skip confirmation prompt")
	addonsCmd.AddCommand(addonsRemoveCmd)
}
