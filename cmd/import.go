package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/invoice-cli/internal/ingest"
)

var (
	importFile    string
	importReplace bool
	importSheet   string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import customer records from an .xlsx or .json file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		ws, closeFn, err := openWorkspace(ctx, "store")
		if err != nil {
			return err
		}
		defer closeFn()

		opts := xlsxOptions()
		if importSheet != "" {
			opts.SheetName = importSheet
		}
		records, err := ingest.ReadFile(importFile, opts)
		if err != nil {
			return eris.Wrap(err, "read records")
		}

		n, err := ws.Import(ctx, records, importReplace)
		if err != nil {
			return err
		}

		zap.L().Info("import complete",
			zap.Int("records", n),
			zap.String("file", importFile),
		)
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d records from %s\n", n, importFile)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importFile, "file", "", "path to .xlsx or .json file (required)")
	importCmd.Flags().BoolVar(&importReplace, "replace", false, "clear the workspace before importing")
	importCmd.Flags().StringVar(&importSheet, "sheet", "", "spreadsheet tab (default from config)")
	_ = importCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importCmd)
}
