// Package invoice implements the bidirectional invoice recalculation engine:
// a field registry with declared formulas, forward propagation from edited
// inputs, and back-solving when an operator edits a derived total directly.
//
// Everything here is pure and synchronous. Callers own persistence.
package invoice

import (
	"fmt"
	"math"
	"sort"
)

// FieldName identifies one billing quantity. Names match the editor's field ids.
type FieldName string

const (
	FieldConsumption        FieldName = "consumo_fp"
	FieldOffset             FieldName = "cred_fp"
	FieldConsumptionTariff  FieldName = "tarifa_fp"
	FieldOffsetTariff       FieldName = "tarifa_comp_fp"
	FieldOther              FieldName = "outros"
	FieldContributionTariff FieldName = "tarifa_egs"
	FieldContribution       FieldName = "boleto_egs"

	FieldBaselineTotal    FieldName = "total_sem"
	FieldDistributorTotal FieldName = "fatura_cgd"
	FieldCombinedTotal    FieldName = "total_com"
	FieldSavings          FieldName = "economia"

	FieldCO2   FieldName = "co2"
	FieldTrees FieldName = "arvores"
)

// Environmental conversion factors.
const (
	CO2PerKWh      = 0.07
	TreesPerTonCO2 = 8.0
)

// Kind classifies how a field gets its value.
type Kind string

const (
	KindInput   Kind = "input"   // set by the source record or the operator
	KindDerived Kind = "derived" // formula over other fields; editable through a hold
	KindMetric  Kind = "metric"  // formula over other fields; never editable
)

// Unit is the physical unit of a field. It also decides rounding precision.
type Unit string

const (
	UnitKWh           Unit = "kWh"
	UnitCurrency      Unit = "BRL"
	UnitTariff        Unit = "BRL/kWh"
	UnitKg            Unit = "kg"
	UnitDimensionless Unit = ""
)

// Places returns the number of decimals values of this unit are rounded to.
func (u Unit) Places() int32 {
	if u == UnitTariff {
		return 6
	}
	return 2
}

// HoldOption is one field an operator may hold fixed when editing a derived
// field, together with the inputs that absorb the change.
type HoldOption struct {
	Field       FieldName   `json:"field"`
	Absorbs     []FieldName `json:"absorbs"`
	Description string      `json:"description"`
}

// Field describes one quantity in the invoice.
type Field struct {
	Name      FieldName                `json:"name"`
	Label     string                   `json:"label"`
	Kind      Kind                     `json:"kind"`
	Unit      Unit                     `json:"unit"`
	DependsOn []FieldName              `json:"depends_on,omitempty"`
	Formula   func(v ValueSet) float64 `json:"-"`
	Holds     []HoldOption             `json:"holds,omitempty"`
}

// ConflictSet returns the fields a back-solve on this field may alter.
func (f *Field) ConflictSet() []FieldName {
	seen := make(map[FieldName]bool)
	var out []FieldName
	for _, h := range f.Holds {
		for _, a := range h.Absorbs {
			if !seen[a] {
				seen[a] = true
				out = append(out, a)
			}
		}
	}
	return out
}

// Hold returns the hold option for name, or nil if name may not be held.
func (f *Field) Hold(name FieldName) *HoldOption {
	for i := range f.Holds {
		if f.Holds[i].Field == name {
			return &f.Holds[i]
		}
	}
	return nil
}

// Registry is an indexed, dependency-ordered collection of fields.
type Registry struct {
	fields []Field
	byName map[FieldName]*Field
	order  []*Field // derived and metric fields, dependencies first
}

// NewRegistry indexes fields. Formula fields must be declared after every
// field they depend on; NewRegistry panics otherwise, so a bad declaration
// fails at init rather than producing stale values at runtime.
func NewRegistry(fields []Field) *Registry {
	r := &Registry{
		fields: fields,
		byName: make(map[FieldName]*Field, len(fields)),
	}
	for i := range r.fields {
		f := &r.fields[i]
		if _, dup := r.byName[f.Name]; dup {
			panic(fmt.Sprintf("invoice: duplicate field %q", f.Name))
		}
		for _, dep := range f.DependsOn {
			if _, ok := r.byName[dep]; !ok {
				panic(fmt.Sprintf("invoice: field %q depends on %q which is not declared before it", f.Name, dep))
			}
		}
		if f.Kind != KindInput {
			if f.Formula == nil {
				panic(fmt.Sprintf("invoice: field %q has no formula", f.Name))
			}
			r.order = append(r.order, f)
		}
		r.byName[f.Name] = f
	}
	return r
}

// Lookup returns the field named name, or nil.
func (r *Registry) Lookup(name FieldName) *Field {
	return r.byName[name]
}

// Fields returns every field in declaration order.
func (r *Registry) Fields() []Field {
	return r.fields
}

// Order returns formula fields in evaluation order.
func (r *Registry) Order() []*Field {
	return r.order
}

// Conflict describes an under-determined edit: the derived field that was
// edited and the fields the operator may choose to hold fixed.
type Conflict struct {
	Field   FieldName    `json:"field"`
	Label   string       `json:"label"`
	Options []HoldOption `json:"options"`
}

// DetectConflict reports whether editing name directly needs a hold choice.
// It returns nil for inputs, metrics and unknown fields.
func (r *Registry) DetectConflict(name FieldName) *Conflict {
	f := r.Lookup(name)
	if f == nil || f.Kind != KindDerived {
		return nil
	}
	return &Conflict{Field: f.Name, Label: f.Label, Options: f.Holds}
}

// Inputs returns the names of every input field, sorted.
func (r *Registry) Inputs() []FieldName {
	var out []FieldName
	for _, f := range r.fields {
		if f.Kind == KindInput {
			out = append(out, f.Name)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Default is the registry of the distributed-generation invoice.
var Default = NewRegistry(defaultFields())

func consumptionValue(v ValueSet) float64 {
	return v.Get(FieldConsumption) * v.Get(FieldConsumptionTariff)
}

func offsetValue(v ValueSet) float64 {
	return v.Get(FieldOffset) * v.Get(FieldOffsetTariff)
}

func defaultFields() []Field {
	return []Field{
		{Name: FieldConsumption, Label: "Consumo FP", Kind: KindInput, Unit: UnitKWh},
		{Name: FieldOffset, Label: "Energia compensada FP", Kind: KindInput, Unit: UnitKWh},
		{Name: FieldConsumptionTariff, Label: "Tarifa FP", Kind: KindInput, Unit: UnitTariff},
		{Name: FieldOffsetTariff, Label: "Tarifa compensada FP", Kind: KindInput, Unit: UnitTariff},
		{Name: FieldOther, Label: "Outros/CIP", Kind: KindInput, Unit: UnitCurrency},
		{Name: FieldContributionTariff, Label: "Tarifa média EGS", Kind: KindInput, Unit: UnitTariff},
		{Name: FieldContribution, Label: "Boleto EGS", Kind: KindInput, Unit: UnitCurrency},
		{
			Name:      FieldBaselineTotal,
			Label:     "Total sem GD",
			Kind:      KindDerived,
			Unit:      UnitCurrency,
			DependsOn: []FieldName{FieldConsumption, FieldConsumptionTariff, FieldOther},
			Formula: func(v ValueSet) float64 {
				return consumptionValue(v) + v.Get(FieldOther)
			},
			Holds: []HoldOption{
				{
					Field:       FieldConsumptionTariff,
					Absorbs:     []FieldName{FieldOther},
					Description: "Mantém a tarifa FP; a diferença vai para Outros",
				},
				{
					Field:       FieldOther,
					Absorbs:     []FieldName{FieldConsumptionTariff},
					Description: "Mantém Outros; recalcula a tarifa FP",
				},
			},
		},
		{
			Name:      FieldDistributorTotal,
			Label:     "Fatura distribuidora com GD",
			Kind:      KindDerived,
			Unit:      UnitCurrency,
			DependsOn: []FieldName{FieldConsumption, FieldConsumptionTariff, FieldOffset, FieldOffsetTariff, FieldOther},
			Formula: func(v ValueSet) float64 {
				return consumptionValue(v) - offsetValue(v) + v.Get(FieldOther)
			},
			Holds: []HoldOption{
				{
					Field:       FieldOffsetTariff,
					Absorbs:     []FieldName{FieldOther},
					Description: "Mantém a tarifa compensada; a diferença vai para Outros",
				},
				{
					Field:       FieldOther,
					Absorbs:     []FieldName{FieldOffsetTariff},
					Description: "Mantém Outros; recalcula a tarifa compensada",
				},
			},
		},
		{
			Name:      FieldCombinedTotal,
			Label:     "Total com GD",
			Kind:      KindDerived,
			Unit:      UnitCurrency,
			DependsOn: []FieldName{FieldDistributorTotal, FieldContribution},
			Formula: func(v ValueSet) float64 {
				return v.Get(FieldDistributorTotal) + v.Get(FieldContribution)
			},
			Holds: []HoldOption{
				{
					Field:       FieldDistributorTotal,
					Absorbs:     []FieldName{FieldContribution},
					Description: "Mantém a fatura da distribuidora; ajusta o boleto EGS",
				},
				{
					Field:       FieldContribution,
					Absorbs:     []FieldName{FieldOther},
					Description: "Mantém o boleto EGS; a diferença vai para Outros",
				},
			},
		},
		{
			Name:      FieldSavings,
			Label:     "Economia no mês",
			Kind:      KindDerived,
			Unit:      UnitCurrency,
			DependsOn: []FieldName{FieldBaselineTotal, FieldCombinedTotal},
			Formula: func(v ValueSet) float64 {
				return math.Max(0, v.Get(FieldBaselineTotal)-v.Get(FieldCombinedTotal))
			},
			Holds: []HoldOption{
				{
					Field:       FieldBaselineTotal,
					Absorbs:     []FieldName{FieldContribution},
					Description: "Mantém o total sem GD; ajusta o boleto EGS",
				},
				{
					Field:       FieldCombinedTotal,
					Absorbs:     []FieldName{FieldOther, FieldContribution},
					Description: "Mantém o total com GD; a diferença vai para Outros e o boleto compensa",
				},
			},
		},
		{
			Name:      FieldCO2,
			Label:     "CO2 evitado",
			Kind:      KindMetric,
			Unit:      UnitKg,
			DependsOn: []FieldName{FieldOffset},
			Formula: func(v ValueSet) float64 {
				return v.Get(FieldOffset) * CO2PerKWh
			},
		},
		{
			Name:      FieldTrees,
			Label:     "Árvores equivalentes",
			Kind:      KindMetric,
			Unit:      UnitDimensionless,
			DependsOn: []FieldName{FieldCO2},
			Formula: func(v ValueSet) float64 {
				return v.Get(FieldCO2) / 1000.0 * TreesPerTonCO2
			},
		},
	}
}
