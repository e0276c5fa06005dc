package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bnema/addonctl/internal/editor"
	"github.com/bnema/addonctl/internal/ui/progress"
	"github.com/bnema/addonctl/internal/ui/styles"
)

var addonsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that every addon's manifest is reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := getApp(ctx)
		if err != nil {
			return err
		}

		var report *editor.BulkReport
		err = progress.Run(ctx, "Checking addons", progress.Task{
			Name: "Fetch " + styles.FormatCount(a.editor.Len(), "manifest", "manifests"),
			Run: func(ctx context.Context) (string, error) {
				var err error
				report, err = a.editor.CheckHealth(ctx)
				if err != nil {
					return "", describe(err)
				}
				return fmt.Sprintf("%d online, %d unreachable", report.Succeeded, report.Failed), nil
			},
		})
		if err != nil {
			return err
		}

		printReportErrors(report)
		return nil
	},
}

var addonsUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Refresh manifests of addons not excluded from updates",
	Long: `Refetch the manifest of every addon that is not pinned (see 'addons
autoupdate') and apply new versions as a single undoable change. Custom
names are kept. Run 'addons push' to send the result to the account.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := getApp(ctx)
		if err != nil {
			return err
		}

		var report *editor.BulkReport
		err = progress.Run(ctx, "Updating addons", progress.Task{
			Name: "Fetch manifests",
			Run: func(ctx context.Context) (string, error) {
				var err error
				report, err = a.editor.AutoUpdate(ctx)
				if err != nil {
					return "", describe(err)
				}
				detail := fmt.Sprintf("%d updated", report.Updated)
				if report.Skipped > 0 {
					detail += fmt.Sprintf(", %d pinned", report.Skipped)
				}
				return detail, nil
			},
		})
		if err != nil {
			return err
		}

		printReportErrors(report)
		if report.Updated > 0 {
			fmt.Println("\nRun 'addonctl addons push' to apply the updates to your account")
		}
		return nil
	},
}

func printReportErrors(report *editor.BulkReport) {
	if report == nil || len(report.Errors) == 0 {
		return
	}
	progress.PrintNewline()
	progress.PrintWarning(styles.FormatCount(report.Failed, "addon failed", "addons failed"))
	for _, e := range report.Errors {
		progress.PrintDetail(e)
	}
}

func init() {
	addonsCmd.AddCommand(addonsCheckCmd, addonsUpdateCmd)
}
