package invoice

import "github.com/sells-group/invoice-cli/internal/model"

// Corrector runs recalculations against a Sessions side table so that
// reopening a record resumes from its last edited state.
type Corrector struct {
	sessions *Sessions
	workers  int
}

// NewCorrector returns a Corrector. A nil sessions table gets a fresh one;
// workers bounds bulk-edit parallelism and defaults to 1.
func NewCorrector(sessions *Sessions, workers int) *Corrector {
	if sessions == nil {
		sessions = NewSessions()
	}
	if workers < 1 {
		workers = 1
	}
	return &Corrector{sessions: sessions, workers: workers}
}

// Sessions returns the side table backing c.
func (c *Corrector) Sessions() *Sessions {
	return c.sessions
}

// Open returns the current value set for rec without mutating anything.
func (c *Corrector) Open(rec *model.CustomerRecord) ValueSet {
	if s := c.sessions.Get(rec.Key()); s != nil {
		v, _ := Propagate(*s, "")
		return v
	}
	return Extract(rec)
}

// Recalculate applies edits to rec starting from its open session, if any,
// and records the resulting value set as the new session.
func (c *Corrector) Recalculate(rec *model.CustomerRecord, edits []Edit, resolutions Resolutions) (Result, error) {
	key := rec.Key()
	res, err := RecalculateInvoice(rec, c.sessions.Get(key), edits, resolutions)
	if err != nil {
		return Result{}, err
	}
	if len(edits) > 0 {
		c.sessions.Put(key, res.Values)
	}
	return res, nil
}

// Reset discards the session for rec.
func (c *Corrector) Reset(rec *model.CustomerRecord) {
	c.sessions.Delete(rec.Key())
}
