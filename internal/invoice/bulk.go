package invoice

import (
	"math"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/invoice-cli/internal/model"
)

// Operation is a bulk arithmetic transform.
type Operation string

const (
	OpSet        Operation = "set"
	OpAddPercent Operation = "add_percent"
	OpSubPercent Operation = "sub_percent"
	OpAddValue   Operation = "add_value"
)

// Operations lists every supported bulk operation.
var Operations = []Operation{OpSet, OpAddPercent, OpSubPercent, OpAddValue}

// Apply returns the transformed value, clamped at zero.
func (op Operation) Apply(current, amount float64) (float64, error) {
	var next float64
	switch op {
	case OpSet:
		next = amount
	case OpAddPercent:
		next = current * (1 + amount/100)
	case OpSubPercent:
		next = current * (1 - amount/100)
	case OpAddValue:
		next = current + amount
	default:
		return 0, eris.Wrapf(ErrUnknownOperation, "%q", op)
	}
	if next < 0 {
		next = 0
	}
	return next, nil
}

// bulkAliases maps public field names (record keys) to editor fields.
// Editor field names are accepted as-is.
var bulkAliases = map[string]FieldName{
	"dist_consumo_qtd":  FieldConsumption,
	"dist_consumo_tar":  FieldConsumptionTariff,
	"dist_comp_qtd":     FieldOffset,
	"dist_comp_tar":     FieldOffsetTariff,
	"dist_outros":       FieldOther,
	"det_credito_tar":   FieldContributionTariff,
	"det_credito_total": FieldContribution,
}

// ResolveBulkField maps a public alias to the input field it edits.
func ResolveBulkField(alias string) (FieldName, error) {
	name := FieldName(alias)
	if mapped, ok := bulkAliases[alias]; ok {
		name = mapped
	}
	f := Default.Lookup(name)
	if f == nil {
		return "", eris.Wrapf(ErrUnknownField, "bulk %q", alias)
	}
	if f.Kind != KindInput {
		return "", eris.Wrapf(ErrDerivedField, "bulk %q", alias)
	}
	return name, nil
}

// ApplyBulkAction applies op with amount to field on every record whose key
// is in selected. Each record's new value is computed from its own pre-edit
// value and then recalculated as a single input edit. Unselected records are
// returned as the same pointers. Records are independent, so they are
// processed concurrently up to the corrector's worker limit.
func (c *Corrector) ApplyBulkAction(records []*model.CustomerRecord, selected map[string]bool, field string, op Operation, amount float64) ([]*model.CustomerRecord, error) {
	name, err := ResolveBulkField(field)
	if err != nil {
		return nil, err
	}
	if _, err := op.Apply(0, 0); err != nil {
		return nil, err
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return nil, eris.Wrapf(ErrNonFinite, "bulk %q", field)
	}

	out := make([]*model.CustomerRecord, len(records))
	var g errgroup.Group
	g.SetLimit(c.workers)

	for i, rec := range records {
		if !selected[rec.Key()] {
			out[i] = rec
			continue
		}
		g.Go(func() error {
			current := c.Open(rec).Get(name)
			next, err := op.Apply(current, amount)
			if err != nil {
				return err
			}
			res, err := c.Recalculate(rec, []Edit{{Field: name, Value: next}}, nil)
			if err != nil {
				return eris.Wrapf(err, "bulk: record %s", rec.Key())
			}
			out[i] = res.Record
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
