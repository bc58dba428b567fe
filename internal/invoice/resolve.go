package invoice

import (
	"math"

	"github.com/rotisserie/eris"

	"github.com/sells-group/invoice-cli/internal/model"
)

// solver back-solves the absorbing input(s) so that the edited derived field
// evaluates to target. Solvers work from inputs only, so a value set whose
// totals came verbatim from the spreadsheet resolves the same way as one that
// has already been propagated.
type solver func(v *ValueSet, target float64)

// solvers is the closed case list, keyed by edited field then held field.
// Each pair must also appear in the registry's Holds for that field.
var solvers = map[FieldName]map[FieldName]solver{
	FieldSavings: {
		// Savings reduces to offset credit minus contribution, so with the
		// baseline (and therefore the distributor total) fixed only the
		// contribution can move.
		FieldBaselineTotal: func(v *ValueSet, target float64) {
			pinContribution(v, offsetValue(*v)-target)
		},
		// Holding the combined total: the delta goes into other charges and
		// the contribution moves the opposite way so the sum stays put.
		FieldCombinedTotal: func(v *ValueSet, target float64) {
			delta := target - (offsetValue(*v) - v.Get(FieldContribution))
			v.set(FieldOther, v.Get(FieldOther)+delta, model.ProvenanceDerived)
			pinContribution(v, v.Get(FieldContribution)-delta)
		},
	},
	FieldCombinedTotal: {
		FieldDistributorTotal: func(v *ValueSet, target float64) {
			pinContribution(v, target-distributorTotal(*v))
		},
		FieldContribution: func(v *ValueSet, target float64) {
			other := target - v.Get(FieldContribution) - (consumptionValue(*v) - offsetValue(*v))
			v.set(FieldOther, other, model.ProvenanceDerived)
		},
	},
	FieldDistributorTotal: {
		FieldOffsetTariff: func(v *ValueSet, target float64) {
			v.set(FieldOther, target-consumptionValue(*v)+offsetValue(*v), model.ProvenanceDerived)
		},
		FieldOther: func(v *ValueSet, target float64) {
			num := consumptionValue(*v) + v.Get(FieldOther) - target
			if t, ok := safeDiv(num, v.Get(FieldOffset)); ok {
				v.set(FieldOffsetTariff, t, model.ProvenanceDerived)
			}
		},
	},
	FieldBaselineTotal: {
		FieldConsumptionTariff: func(v *ValueSet, target float64) {
			v.set(FieldOther, target-consumptionValue(*v), model.ProvenanceDerived)
		},
		FieldOther: func(v *ValueSet, target float64) {
			if t, ok := safeDiv(target-v.Get(FieldOther), v.Get(FieldConsumption)); ok {
				v.set(FieldConsumptionTariff, t, model.ProvenanceDerived)
			}
		},
	},
}

func distributorTotal(v ValueSet) float64 {
	return Round(Default.Lookup(FieldDistributorTotal).Formula(v), UnitCurrency.Places())
}

// pinContribution fixes the contribution amount and back-derives its tariff.
func pinContribution(v *ValueSet, amount float64) {
	v.set(FieldContribution, amount, model.ProvenanceDerived)
	v.FixedContribution = true
	pinContributionTariff(*v, model.ProvenanceDerived)
}

// ResolveConflict applies an edit to a derived field. hold names the sibling
// field the operator chose to keep fixed; the registry documents which input
// absorbs the change for each choice. Afterwards every derived field is
// re-derived from the resulting inputs.
//
// Pairs not listed in the registry are rejected with ErrUnsupportedHold.
// A zero denominator skips the back-solve and leaves the absorber unchanged.
func ResolveConflict(v ValueSet, edited FieldName, value float64, hold FieldName) (ValueSet, error) {
	f := Default.Lookup(edited)
	if f == nil {
		return v, eris.Wrapf(ErrUnknownField, "resolve %q", edited)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return v, eris.Wrapf(ErrNonFinite, "resolve %q", edited)
	}
	if f.Kind != KindDerived || f.Hold(hold) == nil {
		return v, eris.Wrapf(ErrUnsupportedHold, "resolve %q holding %q", edited, hold)
	}
	solve, ok := solvers[edited][hold]
	if !ok {
		return v, eris.Wrapf(ErrUnsupportedHold, "resolve %q holding %q", edited, hold)
	}

	if edited == FieldSavings && value < 0 {
		value = 0
	}

	out := v.Clone()
	solve(&out, value)
	out.Edited = true
	derive(out)
	out.Provenance[edited] = model.ProvenanceEdited
	return out, nil
}
