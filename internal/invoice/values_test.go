package invoice

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/invoice-cli/internal/model"
)

func TestRound(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		value  float64
		places int32
		want   float64
	}{
		{"half up cents", 2.675, 2, 2.68},
		{"binary noise", 1.005, 2, 1.01},
		{"tariff noise", 0.9 * 1.1, 6, 0.99},
		{"already rounded", 185, 2, 185},
		{"negative half goes up", -1.005, 2, -1.0},
		{"negative below half", -1.004, 2, -1.0},
		{"six places", 0.5624999, 6, 0.5625},
		{"zero", 0, 2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Round(tt.value, tt.places))
		})
	}
}

func TestRound_NonFinitePassesThrough(t *testing.T) {
	t.Parallel()
	assert.True(t, math.IsNaN(Round(math.NaN(), 2)))
	assert.True(t, math.IsInf(Round(math.Inf(1), 2), 1))
}

func TestValueSet_CloneIsIndependent(t *testing.T) {
	t.Parallel()

	v := NewValueSet()
	v.Values[FieldOther] = 10
	v.Provenance[FieldOther] = model.ProvenanceSheet

	c := v.Clone()
	c.Values[FieldOther] = 20
	c.Provenance[FieldOther] = model.ProvenanceEdited

	assert.InDelta(t, 10.0, v.Get(FieldOther), 0.0001)
	assert.Equal(t, model.ProvenanceSheet, v.ProvenanceOf(FieldOther))
}

func TestValueSet_ProvenanceDefaultsToSheet(t *testing.T) {
	t.Parallel()
	assert.Equal(t, model.ProvenanceSheet, NewValueSet().ProvenanceOf(FieldConsumption))
}

func TestSafeDiv(t *testing.T) {
	t.Parallel()

	q, ok := safeDiv(10, 4)
	assert.True(t, ok)
	assert.InDelta(t, 2.5, q, 0.0001)

	_, ok = safeDiv(10, 0)
	assert.False(t, ok)

	_, ok = safeDiv(math.Inf(1), 1)
	assert.False(t, ok)
}
