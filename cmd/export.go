package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/invoice-cli/internal/ingest"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the corrected records to an .xlsx or .json file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		ws, closeFn, err := openWorkspace(ctx, "store")
		if err != nil {
			return err
		}
		defer closeFn()

		recs, err := ws.Export(ctx)
		if err != nil {
			return err
		}
		if err := ingest.WriteFile(exportOut, recs, xlsxOptions()); err != nil {
			return eris.Wrap(err, "export")
		}

		zap.L().Info("export complete", zap.Int("records", len(recs)), zap.String("file", exportOut))
		fmt.Fprintf(cmd.OutOrStdout(), "exported %d records to %s\n", len(recs), exportOut)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output .xlsx or .json path (required)")
	_ = exportCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(exportCmd)
}
