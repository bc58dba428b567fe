package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/invoice-cli/internal/format"
	"github.com/sells-group/invoice-cli/internal/invoice"
	"github.com/sells-group/invoice-cli/internal/store"
)

var (
	bulkIDs    []string
	bulkSearch string
	bulkField  string
	bulkOp     string
	bulkAmount float64
)

var bulkCmd = &cobra.Command{
	Use:   "bulk",
	Short: "Apply one arithmetic change to a field across several records",
	Long: `Applies --op with --amount to --field on every selected record, each from
its own current value, clamped at zero. Fields: tarifa_fp, tarifa_comp_fp,
tarifa_egs, outros (or any input field / record key). Operations: set,
add_percent, sub_percent, add_value.

Select records with --ids, or with --search to match name or installation.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if len(bulkIDs) == 0 && bulkSearch == "" {
			return eris.New("select records with --ids or --search")
		}

		ws, closeFn, err := openWorkspace(ctx, "store")
		if err != nil {
			return err
		}
		defer closeFn()

		ids := bulkIDs
		if len(ids) == 0 {
			recs, err := ws.List(ctx, store.RecordFilter{Search: bulkSearch})
			if err != nil {
				return err
			}
			for _, r := range recs {
				ids = append(ids, r.Key())
			}
			if len(ids) == 0 {
				return eris.Errorf("no records match %q", bulkSearch)
			}
		}

		sum, err := ws.Bulk(ctx, ids, bulkField, invoice.Operation(bulkOp), bulkAmount)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s %s %v on %d records\n", sum.Field, sum.Op, sum.Amount, sum.Updated)
		for _, r := range sum.Records {
			fmt.Fprintf(out, "  %s  %s  total %s  economia %s\n", r.ID, r.Nome, format.Money(r.TotalPagar), format.Money(r.EconomiaMes))
		}
		return nil
	},
}

func init() {
	bulkCmd.Flags().StringSliceVar(&bulkIDs, "ids", nil, "comma-separated record ids")
	bulkCmd.Flags().StringVar(&bulkSearch, "search", "", "select records by name or installation")
	bulkCmd.Flags().StringVar(&bulkField, "field", "", "field to change (required)")
	bulkCmd.Flags().StringVar(&bulkOp, "op", string(invoice.OpSet), "set, add_percent, sub_percent or add_value")
	bulkCmd.Flags().Float64Var(&bulkAmount, "amount", 0, "operation amount")
	_ = bulkCmd.MarkFlagRequired("field")
	rootCmd.AddCommand(bulkCmd)
}
