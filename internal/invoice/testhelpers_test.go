package invoice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/invoice-cli/internal/model"
)

// scenarioValues is 500 kWh at 0.90, 400 kWh offset at 0.70, 10.00 other
// charges and a formula-driven contribution at 0.60/kWh, fully derived.
func scenarioValues(t *testing.T) ValueSet {
	t.Helper()
	v := NewValueSet()
	v.Values[FieldConsumption] = 500
	v.Values[FieldOffset] = 400
	v.Values[FieldConsumptionTariff] = 0.90
	v.Values[FieldOffsetTariff] = 0.70
	v.Values[FieldOther] = 10
	v.Values[FieldContributionTariff] = 0.60
	out, err := Propagate(v, FieldContributionTariff)
	require.NoError(t, err)
	return out
}

// scenarioRecord is the spreadsheet row matching scenarioValues, with the
// contribution supplied as a closed amount.
func scenarioRecord() *model.CustomerRecord {
	return &model.CustomerRecord{
		ID:                  "uc-1",
		Nome:                "Padaria Central",
		Instalacao:          "10/1111111-1",
		EmissaoISO:          "2025-03-10",
		DistConsumoQtd:      500,
		DistConsumoTar:      0.90,
		DistConsumoTotal:    450,
		DistCompQtd:         400,
		DistCompTar:         0.70,
		DistCompTotal:       -280,
		DistOutros:          10,
		DistTotal:           180,
		DetCreditoQtd:       400,
		DetCreditoTar:       0.60,
		DetCreditoTotal:     240,
		TotalPagar:          240,
		EconTotalSem:        460,
		EconTotalCom:        420,
		EconomiaMes:         40,
		EconomiaTotal:       312.5,
		Co2Evitado:          1, // stale on purpose; metrics are always recomputed
		ArvoresEquivalentes: 1,
	}
}

// assertConserved checks the totals identities that must hold after every
// propagation or resolution.
func assertConserved(t *testing.T, v ValueSet) {
	t.Helper()
	assert.InDelta(t, v.Get(FieldDistributorTotal)+v.Get(FieldContribution), v.Get(FieldCombinedTotal), 0.005,
		"distributor + contribution == combined")
	want := v.Get(FieldBaselineTotal) - v.Get(FieldCombinedTotal)
	if want < 0 {
		want = 0
	}
	assert.InDelta(t, want, v.Get(FieldSavings), 0.005, "baseline - combined == savings (floored)")
	assert.GreaterOrEqual(t, v.Get(FieldSavings), 0.0)
}
