package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/bnema/addonctl/internal/ui/styles"
)

var profilesCmd = &cobra.Command{
	Use:     "profiles",
	Aliases: []string{"profile"},
	Short:   "Save and load named addon collections",
	Long: `Profiles are named snapshots of the local collection kept on this machine.
Loading a profile replaces the collection as one undoable change; run
'addons push' to apply it to the account.`,
}

var profilesSaveCmd = &cobra.Command{
	Use:   "save <name>",
	Short: "Save the current collection as a profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := getApp(ctx)
		if err != nil {
			return err
		}
		db, err := a.openProfiles()
		if err != nil {
			return err
		}
		info, _ := a.session.Status(ctx)

		p, err := db.Save(ctx, args[0], info.Email, a.editor.Entries())
		if err != nil {
			return err
		}
		fmt.Println(styles.FormatSuccess(fmt.Sprintf("Saved profile %s (%s)",
			styles.Highlighted.Render(p.Name), styles.FormatCount(len(p.Addons), "addon", "addons"))))
		return nil
	},
}

var profilesListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List saved profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := getApp(ctx)
		if err != nil {
			return err
		}
		db, err := a.openProfiles()
		if err != nil {
			return err
		}
		list, err := db.List(ctx)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Println("No profiles saved")
			fmt.Println("\nSave one with: addonctl profiles save <name>")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			styles.Title.Render("NAME"),
			styles.Title.Render("ADDONS"),
			styles.Title.Render("ACCOUNT"),
			styles.Title.Render("UPDATED"),
		)
		for _, p := range list {
			account := p.Email
			if account == "" {
				account = "-"
			}
			_, _ = fmt.Fprintf(w, "%s\t%d\t%s\t%s\n",
				p.Name, p.Count, account, styles.MutedText.Render(humanize.Time(p.UpdatedAt)))
		}
		return w.Flush()
	},
}

var profilesLoadCmd = &cobra.Command{
	Use:   "load <name>",
	Short: "Replace the collection with a saved profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := getApp(ctx)
		if err != nil {
			return err
		}
		db, err := a.openProfiles()
		if err != nil {
			return err
		}
		p, err := db.Get(ctx, args[0])
		if err != nil {
			return err
		}
		if err := a.editor.Replace(p.Addons, "Loaded profile "+p.Name); err != nil {
			return describe(err)
		}
		fmt.Println(styles.FormatSuccess(fmt.Sprintf("Loaded profile %s (%s)",
			styles.Highlighted.Render(p.Name), styles.FormatCount(len(p.Addons), "addon", "addons"))))
		fmt.Println("\nRun 'addonctl addons push' to apply it to your account")
		return nil
	},
}

var profilesRenameCmd = &cobra.Command{
	Use:   "rename <name> <new-name>",
	Short: "Rename a profile",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := getApp(ctx)
		if err != nil {
			return err
		}
		db, err := a.openProfiles()
		if err != nil {
			return err
		}
		if err := db.Rename(ctx, args[0], args[1]); err != nil {
			return err
		}
		fmt.Println(styles.FormatSuccess(fmt.Sprintf("Renamed %s to %s", args[0], args[1])))
		return nil
	},
}

var profilesDeleteCmd = &cobra.Command{
	Use:     "delete <name>",
	Aliases: []string{"rm"},
	Short:   "Delete a profile",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := getApp(ctx)
		if err != nil {
			return err
		}
		db, err := a.openProfiles()
		if err != nil {
			return err
		}
		if err := db.Delete(ctx, args[0]); err != nil {
			return err
		}
		fmt.Println(styles.FormatSuccess("Deleted profile " + args[0]))
		return nil
	},
}

func init() {
	profilesCmd.AddCommand(profilesSaveCmd, profilesListCmd, profilesLoadCmd, profilesRenameCmd, profilesDeleteCmd)
	rootCmd.AddCommand(profilesCmd)
}
