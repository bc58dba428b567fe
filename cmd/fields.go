package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/invoice-cli/internal/invoice"
)

var fieldsCmd = &cobra.Command{
	Use:   "fields",
	Short: "List editable and derived billing fields",
	RunE: func(cmd *cobra.Command, _ []string) error {
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "FIELD\tKIND\tUNIT\tLABEL\tDEPENDS ON")
		for _, f := range invoice.Default.Fields() {
			deps := make([]string, len(f.DependsOn))
			for i, d := range f.DependsOn {
				deps[i] = string(d)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", f.Name, f.Kind, f.Unit, f.Label, strings.Join(deps, ", "))
		}
		return tw.Flush()
	},
}

var conflictCmd = &cobra.Command{
	Use:   "conflict FIELD",
	Short: "Show which fields can be held fixed when editing a derived field",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := invoice.FieldName(args[0])
		f := invoice.Default.Lookup(name)
		if f == nil {
			return eris.Wrapf(invoice.ErrUnknownField, "%q", name)
		}

		out := cmd.OutOrStdout()
		c := invoice.Default.DetectConflict(name)
		if c == nil {
			if f.Kind == invoice.KindMetric {
				fmt.Fprintf(out, "%s is computed and cannot be edited\n", name)
			} else {
				fmt.Fprintf(out, "%s is an input; edit it directly\n", name)
			}
			return nil
		}

		fmt.Fprintf(out, "%s (%s) is derived; choose a field to hold fixed with --hold %s=FIELD\n", c.Field, c.Label, c.Field)
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "HOLD\tADJUSTS\tDESCRIPTION")
		for _, o := range c.Options {
			abs := make([]string, len(o.Absorbs))
			for i, a := range o.Absorbs {
				abs[i] = string(a)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\n", o.Field, strings.Join(abs, ", "), o.Description)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(fieldsCmd)
	rootCmd.AddCommand(conflictCmd)
}
