package invoice

import "github.com/sells-group/invoice-cli/internal/model"

// Extract builds the editor's value set from a customer record. Totals are
// taken as ground truth, not recomputed. Two tariffs are reverse-derived when
// the source left them empty; both carry a provenance flag so the operator
// can tell them apart from supplied values.
func Extract(rec *model.CustomerRecord) ValueSet {
	v := NewValueSet()

	offset := rec.DetCreditoQtd
	if offset == 0 {
		offset = rec.DistCompQtd
	}
	contribution := rec.DetCreditoTotal
	if contribution == 0 {
		contribution = rec.TotalPagar
	}

	sheet := map[FieldName]float64{
		FieldConsumption:        rec.DistConsumoQtd,
		FieldOffset:             offset,
		FieldConsumptionTariff:  rec.DistConsumoTar,
		FieldOffsetTariff:       rec.DistCompTar,
		FieldOther:              rec.DistOutros,
		FieldContributionTariff: rec.DetCreditoTar,
		FieldContribution:       contribution,
		FieldBaselineTotal:      rec.EconTotalSem,
		FieldDistributorTotal:   rec.DistTotal,
		FieldCombinedTotal:      rec.EconTotalCom,
		FieldSavings:            rec.EconomiaMes,
	}
	for name, val := range sheet {
		v.Values[name] = val
		v.Provenance[name] = model.ProvenanceSheet
	}

	// Offset tariff lost upstream: recover it from the distributor formula.
	if v.Get(FieldOffsetTariff) == 0 && offset > 0 && v.Get(FieldDistributorTotal) > 0 {
		num := consumptionValue(v) - v.Get(FieldDistributorTotal) + v.Get(FieldOther)
		if t, ok := safeDiv(num, offset); ok && t > 0 {
			v.set(FieldOffsetTariff, t, model.ProvenanceRepaired)
		}
	}

	if v.Get(FieldContributionTariff) == 0 && contribution > 0 {
		if t, ok := safeDiv(contribution, offset); ok {
			v.set(FieldContributionTariff, t, model.ProvenanceDerived)
		}
	}

	v.FixedContribution = true
	computeMetrics(v)
	return v
}
