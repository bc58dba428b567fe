package invoice

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/sells-group/invoice-cli/internal/model"
)

// ValueSet is the editor's working state for one customer: a flat map of
// field values plus the contribution mode and whether any edit happened.
type ValueSet struct {
	Values            map[FieldName]float64          `json:"values"`
	FixedContribution bool                           `json:"fixed_contribution"`
	Edited            bool                           `json:"edited"`
	Provenance        map[FieldName]model.Provenance `json:"provenance,omitempty"`
}

// NewValueSet returns an empty value set.
func NewValueSet() ValueSet {
	return ValueSet{
		Values:     make(map[FieldName]float64),
		Provenance: make(map[FieldName]model.Provenance),
	}
}

// Get returns the value of name, zero when absent.
func (v ValueSet) Get(name FieldName) float64 {
	return v.Values[name]
}

// Clone returns a deep copy so callers can mutate it freely.
func (v ValueSet) Clone() ValueSet {
	out := ValueSet{
		Values:            make(map[FieldName]float64, len(v.Values)),
		FixedContribution: v.FixedContribution,
		Edited:            v.Edited,
		Provenance:        make(map[FieldName]model.Provenance, len(v.Provenance)),
	}
	for k, val := range v.Values {
		out.Values[k] = val
	}
	for k, p := range v.Provenance {
		out.Provenance[k] = p
	}
	return out
}

// ProvenanceOf returns where the value of name came from.
func (v ValueSet) ProvenanceOf(name FieldName) model.Provenance {
	if p, ok := v.Provenance[name]; ok {
		return p
	}
	return model.ProvenanceSheet
}

// set stores value rounded to the precision of the field's unit.
func (v ValueSet) set(name FieldName, value float64, p model.Provenance) {
	unit := UnitCurrency
	if f := Default.Lookup(name); f != nil {
		unit = f.Unit
	}
	v.Values[name] = Round(value, unit.Places())
	if v.Provenance != nil {
		v.Provenance[name] = p
	}
}

var half = decimal.New(5, -1)

// Round rounds half up to the given number of decimals. It works on the
// shortest decimal representation of value, so 2.675 rounds to 2.68.
// Non-finite values are returned unchanged.
func Round(value float64, places int32) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return value
	}
	d := decimal.NewFromFloat(value).Shift(places).Add(half).Floor().Shift(-places)
	return d.InexactFloat64()
}

// safeDiv returns num/den, or ok=false when den is zero or the result is not finite.
func safeDiv(num, den float64) (float64, bool) {
	if den == 0 {
		return 0, false
	}
	q := num / den
	if math.IsNaN(q) || math.IsInf(q, 0) {
		return 0, false
	}
	return q, true
}
