package invoice

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/invoice-cli/internal/model"
)

// Propagate recomputes every derived field after the input field edited
// changed. With an empty field name it only refreshes the environmental
// metrics and passes everything else through, which is the path for viewing
// a record without mutating it.
//
// The caller's value set is not modified.
func Propagate(v ValueSet, edited FieldName) (ValueSet, error) {
	out := v.Clone()
	if edited == "" {
		computeMetrics(out)
		return out, nil
	}

	f := Default.Lookup(edited)
	if f == nil {
		return v, eris.Wrapf(ErrUnknownField, "propagate %q", edited)
	}
	switch f.Kind {
	case KindMetric:
		return v, eris.Wrapf(ErrReadOnlyField, "propagate %q", edited)
	case KindDerived:
		return v, eris.Wrapf(ErrDerivedField, "propagate %q", edited)
	}

	switch edited {
	case FieldContributionTariff:
		out.FixedContribution = false
	case FieldContribution:
		out.FixedContribution = true
		pinContributionTariff(out, model.ProvenanceDerived)
	case FieldOffset:
		if out.FixedContribution {
			pinContributionTariff(out, model.ProvenanceDerived)
		}
	}

	out.Edited = true
	derive(out)
	return out, nil
}

// pinContributionTariff back-derives the effective contribution tariff from
// a pinned contribution amount. Skipped when there is no offset energy.
func pinContributionTariff(v ValueSet, p model.Provenance) {
	if t, ok := safeDiv(v.Get(FieldContribution), v.Get(FieldOffset)); ok {
		v.set(FieldContributionTariff, t, p)
	}
}

// derive recomputes the contribution amount (unless pinned) and every
// formula field in registry order.
func derive(v ValueSet) {
	if !v.FixedContribution {
		v.set(FieldContribution, v.Get(FieldOffset)*v.Get(FieldContributionTariff), model.ProvenanceComputed)
	}
	for _, f := range Default.Order() {
		v.set(f.Name, f.Formula(v), model.ProvenanceComputed)
	}
}

// computeMetrics refreshes the environmental metrics only.
func computeMetrics(v ValueSet) {
	for _, f := range Default.Order() {
		if f.Kind == KindMetric {
			v.set(f.Name, f.Formula(v), model.ProvenanceComputed)
		}
	}
}
