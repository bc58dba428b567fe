package invoice

import (
	"math"

	"github.com/rotisserie/eris"

	"github.com/sells-group/invoice-cli/internal/model"
)

// Edit is one operator change: a new value for a single field.
type Edit struct {
	Field FieldName `json:"field" yaml:"field"`
	Value float64   `json:"value" yaml:"value"`
}

// Resolutions maps an edited derived field to the field held fixed for it.
type Resolutions map[FieldName]FieldName

// Result is a recalculated record together with the value set that produced
// it, which the caller keeps to resume the editing session.
type Result struct {
	Record *model.CustomerRecord `json:"record"`
	Values ValueSet              `json:"values"`
}

// RecalculateInvoice applies edits, in order, to the record's editor state.
// The baseline is session when non-nil, otherwise Extract(rec). Input edits
// are assigned and propagated; derived edits go through ResolveConflict with
// the hold named in resolutions.
//
// Errors only signal malformed edits (unknown or read-only field, derived
// field without a resolution, non-finite value). On error nothing is applied.
// rec is never modified.
func RecalculateInvoice(rec *model.CustomerRecord, session *ValueSet, edits []Edit, resolutions Resolutions) (Result, error) {
	var v ValueSet
	if session != nil {
		v = session.Clone()
	} else {
		v = Extract(rec)
	}

	for _, e := range edits {
		next, err := applyEdit(v, e, resolutions)
		if err != nil {
			return Result{}, err
		}
		v = next
	}
	if len(edits) == 0 {
		v, _ = Propagate(v, "")
	}

	return Result{Record: ToRecord(rec, v), Values: v}, nil
}

func applyEdit(v ValueSet, e Edit, resolutions Resolutions) (ValueSet, error) {
	f := Default.Lookup(e.Field)
	if f == nil {
		return v, eris.Wrapf(ErrUnknownField, "edit %q", e.Field)
	}
	if math.IsNaN(e.Value) || math.IsInf(e.Value, 0) {
		return v, eris.Wrapf(ErrNonFinite, "edit %q", e.Field)
	}

	switch f.Kind {
	case KindMetric:
		return v, eris.Wrapf(ErrReadOnlyField, "edit %q", e.Field)
	case KindDerived:
		hold, ok := resolutions[e.Field]
		if !ok || hold == "" {
			return v, eris.Wrapf(ErrUnresolvedConflict, "edit %q", e.Field)
		}
		return ResolveConflict(v, e.Field, e.Value, hold)
	}

	out := v.Clone()
	out.set(e.Field, e.Value, model.ProvenanceEdited)
	return Propagate(out, e.Field)
}

// ToRecord maps a value set back onto a copy of rec. A value set that was
// never edited leaves every spreadsheet field verbatim and only refreshes the
// environmental metrics.
func ToRecord(rec *model.CustomerRecord, v ValueSet) *model.CustomerRecord {
	out := *rec
	out.Co2Evitado = v.Get(FieldCO2)
	out.ArvoresEquivalentes = v.Get(FieldTrees)
	if !v.Edited {
		return &out
	}

	money := UnitCurrency.Places()
	offset := v.Get(FieldOffset)

	out.DistConsumoQtd = v.Get(FieldConsumption)
	out.DistConsumoTar = v.Get(FieldConsumptionTariff)
	out.DistConsumoTotal = Round(consumptionValue(v), money)
	out.DistCompQtd = offset
	out.DistCompTar = v.Get(FieldOffsetTariff)
	out.DistCompTotal = -Round(offsetValue(v), money)
	out.DistOutros = v.Get(FieldOther)
	out.DistTotal = v.Get(FieldDistributorTotal)

	out.DetCreditoQtd = offset
	out.DetCreditoTar = v.Get(FieldContributionTariff)
	out.DetCreditoTotal = v.Get(FieldContribution)
	out.TotalPagar = v.Get(FieldContribution)

	out.EconTotalSem = v.Get(FieldBaselineTotal)
	out.EconTotalCom = v.Get(FieldCombinedTotal)
	out.EconomiaMes = v.Get(FieldSavings)
	return &out
}
