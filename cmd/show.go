package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/invoice-cli/internal/format"
	"github.com/sells-group/invoice-cli/internal/invoice"
	"github.com/sells-group/invoice-cli/internal/workspace"
)

var showJSON bool

var showCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show a record's billing fields as the editor sees them",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		ws, closeFn, err := openWorkspace(ctx, "store")
		if err != nil {
			return err
		}
		defer closeFn()

		view, err := ws.Open(ctx, args[0])
		if err != nil {
			return err
		}
		return printView(cmd.OutOrStdout(), view, showJSON)
	},
}

// printView writes the record header and one line per registry field.
func printView(w io.Writer, view *workspace.View, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	}

	rec := view.Record
	fmt.Fprintf(w, "%s  %s  (instalação %s)\n", rec.ID, rec.Nome, rec.Instalacao)
	if view.Values.Edited {
		fmt.Fprintln(w, "edited")
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FIELD\tLABEL\tVALUE\tSOURCE")
	for _, f := range invoice.Default.Fields() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			f.Name, f.Label, format.Value(f.Name, view.Values.Get(f.Name)), view.Values.ProvenanceOf(f.Name))
	}
	return tw.Flush()
}

func init() {
	showCmd.Flags().BoolVar(&showJSON, "json", false, "print the record and value set as JSON")
	rootCmd.AddCommand(showCmd)
}
