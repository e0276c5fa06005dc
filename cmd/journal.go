package cmd

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/bnema/addonctl/internal/backup"
	"github.com/bnema/addonctl/internal/ui/styles"
)

var journalLimit int

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Browse and restore previously pushed collections",
	Long: `Every successful push is committed to a local git repository, one file
per account. The journal lists those pushes and restores any of them into
the local collection.`,
}

var journalListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls", "log"},
	Short:   "List pushes of the current account",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := getApp(ctx)
		if err != nil {
			return err
		}
		j, err := a.requireJournal()
		if err != nil {
			return err
		}
		info, err := a.requireSession(ctx)
		if err != nil {
			return err
		}

		entries, err := j.List(info.Email)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No pushes recorded yet")
			return nil
		}
		if journalLimit > 0 && len(entries) > journalLimit {
			entries = entries[:journalLimit]
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			styles.Title.Render("#"),
			styles.Title.Render("ID"),
			styles.Title.Render("ADDONS"),
			styles.Title.Render("PUSHED"),
		)
		for i, e := range entries {
			_, _ = fmt.Fprintf(w, "%d\t%s\t%d\t%s\n",
				i+1, styles.AddonVersion.Render(e.ID()), e.Count, styles.MutedText.Render(humanize.Time(e.When)))
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Printf("\nJournal: %s\n", j.Dir())
		return nil
	},
}

var journalRestoreCmd = &cobra.Command{
	Use:   "restore <id|#>",
	Short: "Load a pushed collection into the local collection",
	Long: `Replace the local collection with one recorded in the journal, by
position in 'journal list' or commit id prefix. The restore is undoable and
only reaches the account on 'addons push'.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := getApp(ctx)
		if err != nil {
			return err
		}
		j, err := a.requireJournal()
		if err != nil {
			return err
		}
		info, err := a.requireSession(ctx)
		if err != nil {
			return err
		}

		collection, entry, err := j.Restore(info.Email, args[0])
		if err != nil {
			return err
		}
		if err := a.editor.Replace(collection, "Restored "+entry.Label()); err != nil {
			return describe(err)
		}
		fmt.Println(styles.FormatSuccess(fmt.Sprintf("Restored %s from %s",
			styles.FormatCount(len(collection), "addon", "addons"), humanize.Time(entry.When))))
		return nil
	},
}

func (a *app) requireJournal() (*backup.Journal, error) {
	if a.journal == nil {
		return nil, errors.New("push journal is unavailable, see the log for details")
	}
	return a.journal, nil
}

func init() {
	journalListCmd.Flags().IntVarP(&journalLimit, "limit", "n", 0, "Show at most n entries")
	journalCmd.AddCommand(journalListCmd, journalRestoreCmd)
	rootCmd.AddCommand(journalCmd)
}
