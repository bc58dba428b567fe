package invoice

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessions_GetPutDelete(t *testing.T) {
	t.Parallel()

	s := NewSessions()
	assert.Nil(t, s.Get("a"))

	v := scenarioValues(t)
	s.Put("a", v)
	assert.Equal(t, 1, s.Len())

	got := s.Get("a")
	require.NotNil(t, got)
	got.Values[FieldOther] = 999
	assert.InDelta(t, 10.0, s.Get("a").Get(FieldOther), 0.001, "Get returns a copy")

	v.Values[FieldOther] = 555
	assert.InDelta(t, 10.0, s.Get("a").Get(FieldOther), 0.001, "Put stores a copy")

	s.Delete("a")
	assert.Nil(t, s.Get("a"))
	assert.Zero(t, s.Len())
}

func TestSessions_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	s := NewSessions()
	v := scenarioValues(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Put("k", v)
			_ = s.Get("k")
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, s.Len())
}

func TestCorrector_RecalculateKeepsSession(t *testing.T) {
	t.Parallel()

	c := NewCorrector(nil, 0)
	rec := scenarioRecord()

	_, err := c.Recalculate(rec, []Edit{{Field: FieldOther, Value: 20}}, nil)
	require.NoError(t, err)
	require.NotNil(t, c.Sessions().Get(rec.Key()))

	res, err := c.Recalculate(rec, []Edit{{Field: FieldConsumption, Value: 600}}, nil)
	require.NoError(t, err)
	assert.InDelta(t, 20.0, res.Record.DistOutros, 0.001)

	assert.InDelta(t, 20.0, c.Open(rec).Get(FieldOther), 0.001)

	c.Reset(rec)
	assert.Nil(t, c.Sessions().Get(rec.Key()))
	assert.InDelta(t, 10.0, c.Open(rec).Get(FieldOther), 0.001)
}

func TestCorrector_ViewDoesNotOpenSession(t *testing.T) {
	t.Parallel()

	c := NewCorrector(NewSessions(), 2)
	_, err := c.Recalculate(scenarioRecord(), nil, nil)
	require.NoError(t, err)
	assert.Zero(t, c.Sessions().Len())
}
