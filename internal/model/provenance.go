package model

// Provenance records where a field's current value came from.
type Provenance string

const (
	ProvenanceSheet    Provenance = "sheet"    // taken verbatim from the source record
	ProvenanceRepaired Provenance = "repaired" // reverse-derived to recover missing upstream data
	ProvenanceDerived  Provenance = "derived"  // back-derived from another authoritative value
	ProvenanceEdited   Provenance = "edited"   // typed by the operator
	ProvenanceComputed Provenance = "computed" // recomputed by a formula
)

// Authoritative reports whether the value was supplied directly rather than
// guessed by a repair heuristic.
func (p Provenance) Authoritative() bool {
	return p != ProvenanceRepaired
}
