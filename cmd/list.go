package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/invoice-cli/internal/format"
	"github.com/sells-group/invoice-cli/internal/store"
)

var (
	listSearch string
	listLimit  int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List records in the workspace",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		ws, closeFn, err := openWorkspace(ctx, "store")
		if err != nil {
			return err
		}
		defer closeFn()

		recs, err := ws.List(ctx, store.RecordFilter{Search: listSearch, Limit: listLimit})
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNOME\tINSTALAÇÃO\tMÊS\tTOTAL A PAGAR\tECONOMIA")
		for _, r := range recs {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
				r.ID, r.Nome, r.Instalacao, r.ReferenceMonth(),
				format.Money(r.TotalPagar), format.Money(r.EconomiaMes),
			)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d records\n", len(recs))
		return nil
	},
}

func init() {
	listCmd.Flags().StringVar(&listSearch, "search", "", "filter by name or installation")
	listCmd.Flags().IntVar(&listLimit, "limit", 0, "max records to show (0 = all)")
	rootCmd.AddCommand(listCmd)
}
