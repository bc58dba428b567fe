package main

import (
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/invoice-cli/internal/invoice"
)

var (
	editSets  []string
	editHolds []string
	editFile  string
	editJSON  bool
)

// editFileSpec is the YAML layout accepted by --file.
//
//	edits:
//	  - field: economia
//	    value: 50
//	resolutions:
//	  economia: total_sem
type editFileSpec struct {
	Edits       []invoice.Edit      `yaml:"edits"`
	Resolutions invoice.Resolutions `yaml:"resolutions"`
}

var editCmd = &cobra.Command{
	Use:   "edit ID",
	Short: "Edit billing fields on a record and recalculate it",
	Long: `Applies edits in order. Inputs are assigned and every dependent total is
recalculated. Derived totals (total_sem, fatura_cgd, total_com, economia)
need a field held fixed: pass --hold FIELD=HELD (see "invoice-cli conflict FIELD").

Edits from --file are applied before --set edits.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		edits, resolutions, err := collectEdits(editFile, editSets, editHolds)
		if err != nil {
			return err
		}
		if len(edits) == 0 {
			return eris.New("nothing to edit: pass --set or --file")
		}

		ws, closeFn, err := openWorkspace(ctx, "store")
		if err != nil {
			return err
		}
		defer closeFn()

		view, err := ws.Edit(ctx, args[0], edits, resolutions)
		if err != nil {
			return err
		}
		return printView(cmd.OutOrStdout(), view, editJSON)
	},
}

// collectEdits merges the edit file with flag edits and holds.
func collectEdits(path string, sets, holds []string) ([]invoice.Edit, invoice.Resolutions, error) {
	var edits []invoice.Edit
	resolutions := invoice.Resolutions{}

	if path != "" {
		spec, err := loadEditFile(path)
		if err != nil {
			return nil, nil, err
		}
		edits = append(edits, spec.Edits...)
		for k, v := range spec.Resolutions {
			resolutions[k] = v
		}
	}

	for _, s := range sets {
		name, raw, err := splitAssignment(s)
		if err != nil {
			return nil, nil, eris.Wrap(err, "--set")
		}
		v, err := parseValue(raw)
		if err != nil {
			return nil, nil, eris.Wrapf(err, "--set %s", name)
		}
		edits = append(edits, invoice.Edit{Field: invoice.FieldName(name), Value: v})
	}

	for _, h := range holds {
		name, held, err := splitAssignment(h)
		if err != nil {
			return nil, nil, eris.Wrap(err, "--hold")
		}
		resolutions[invoice.FieldName(name)] = invoice.FieldName(held)
	}

	return edits, resolutions, nil
}

func loadEditFile(path string) (*editFileSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "read edit file")
	}
	var spec editFileSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, eris.Wrapf(err, "parse edit file %s", path)
	}
	return &spec, nil
}

func splitAssignment(s string) (string, string, error) {
	name, value, ok := strings.Cut(s, "=")
	name, value = strings.TrimSpace(name), strings.TrimSpace(value)
	if !ok || name == "" || value == "" {
		return "", "", eris.Errorf("expected FIELD=VALUE, got %q", s)
	}
	return name, value, nil
}

// parseValue accepts "0.95" and "0,95".
func parseValue(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return 0, eris.Wrapf(err, "parse %q", s)
	}
	return v, nil
}

func init() {
	editCmd.Flags().StringArrayVar(&editSets, "set", nil, "FIELD=VALUE edit, repeatable, applied in order")
	editCmd.Flags().StringArrayVar(&editHolds, "hold", nil, "DERIVED=FIELD to hold fixed when editing a derived total")
	editCmd.Flags().StringVar(&editFile, "file", "", "YAML file with edits and resolutions")
	editCmd.Flags().BoolVar(&editJSON, "json", false, "print the result as JSON")
	rootCmd.AddCommand(editCmd)
}
