package cmd

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/bnema/addonctl/internal/transfer"
	"github.com/bnema/addonctl/internal/ui/styles"
)

var (
	exportFormat string
	importFormat string
)

var addonsExportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write the collection to a JSON or YAML file",
	Long: `Export the local collection, including disabled addons and custom names.
Without a file the document is written to stdout.

Examples:
  addonctl addons export backup.yaml
  addonctl addons export --format json > addons.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp(cmd.Context())
		if err != nil {
			return err
		}

		name := exportFormat
		if name == "" && len(args) == 1 {
			name = filepath.Ext(args[0])
		}
		format, err := formatOrDefault(name)
		if err != nil {
			return err
		}

		var buf bytes.Buffer
		if err := transfer.Export(&buf, a.editor.Entries(), format); err != nil {
			return err
		}

		if len(args) == 0 {
			_, err := io.Copy(os.Stdout, &buf)
			return err
		}
		size := buf.Len()
		if err := os.WriteFile(args[0], buf.Bytes(), 0644); err != nil {
			return fmt.Errorf("failed to write export: %w", err)
		}
		fmt.Println(styles.FormatSuccess(fmt.Sprintf("Exported %s to %s (%s)",
			styles.FormatCount(a.editor.Len(), "addon", "addons"), args[0], humanize.Bytes(uint64(size)))))
		return nil
	},
}

var addonsImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the collection with an exported file",
	Long: `Replace the local collection with the contents of an exported file. The
import is a single undoable change; run 'addons push' to apply it to the
account. Use "-" to read from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp(cmd.Context())
		if err != nil {
			return err
		}

		name := importFormat
		if name == "" {
			name = filepath.Ext(args[0])
		}
		format, err := formatOrDefault(name)
		if err != nil {
			return err
		}

		var r io.Reader = os.Stdin
		if args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()
			r = f
		}

		collection, err := transfer.Import(r, format)
		if err != nil {
			return err
		}
		if err := a.editor.Replace(collection, "Imported "+filepath.Base(args[0])); err != nil {
			return describe(err)
		}
		fmt.Println(styles.FormatSuccess(fmt.Sprintf("Imported %s",
			styles.FormatCount(len(collection), "addon", "addons"))))
		return nil
	},
}

func formatOrDefault(name string) (transfer.Format, error) {
	if name == "" || name == "-" {
		return transfer.FormatJSON, nil
	}
	return transfer.ParseFormat(name)
}

func init() {
	addonsExportCmd.Flags().StringVarP(&exportFormat, "format", "F", "", "Output format: json or yaml (default from file extension)")
	addonsImportCmd.Flags().StringVarP(&importFormat, "format", "F", "", "Input format: json or yaml (default from file extension)")
	addonsCmd.AddCommand(addonsExportCmd, addonsImportCmd)
}
