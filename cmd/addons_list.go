package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bnema/addonctl/internal/addons"
	"github.com/bnema/addonctl/internal/ui/styles"
)

var (
	listEnabledOnly bool
	listJSON        bool
)

var addonsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List the addon collection",
	Long: `List the locally cached collection in push order.

The # column is the position accepted by the other addons subcommands.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp(cmd.Context())
		if err != nil {
			return err
		}

		entries := a.editor.Entries()
		if listEnabledOnly {
			entries = entries.Enabled()
		}

		if listJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(entries)
		}

		if len(entries) == 0 {
			fmt.Println("No addons in collection")
			fmt.Println("\nFetch your account's addons with: addonctl addons pull")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			styles.Title.Render("#"),
			styles.Title.Render("NAME"),
			styles.Title.Render("VERSION"),
			styles.Title.Render("STATUS"),
			styles.Title.Render("DOMAIN"),
			styles.Title.Render("FLAGS"),
		)

		for i, e := range entries {
			version := e.Manifest.Version
			if version == "" {
				version = "-"
			}
			flags := styles.FormatFlags(e.Flags)
			if e.DisableAutoUpdate {
				flags += " " + styles.FormatAutoUpdateOff()
			}
			_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
				i+1,
				e.Name(),
				version,
				styles.FormatEnabled(e.IsEnabled),
				styles.AddonDomain.Render(addons.Domain(e.TransportURL)),
				flags,
			)
		}
		_ = w.Flush()

		c := a.editor.Counts()
		fmt.Printf("\n%s, %d enabled\n", styles.FormatCount(c.Total, "addon", "addons"), c.Enabled)
		if a.editor.ReadOnly() {
			fmt.Println(styles.FormatReadOnlyBadge())
		}
		return nil
	},
}

func init() {
	addonsListCmd.Flags().BoolVar(&listEnabledOnly, "enabled", false, "Only list enabled addons")
	addonsListCmd.Flags().BoolVar(&listJSON, "json", false, "Print the collection as JSON")
	addonsCmd.AddCommand(addonsListCmd)
}
