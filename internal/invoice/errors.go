package invoice

import "github.com/rotisserie/eris"

// Caller contract violations. Ordinary numeric edits never produce these.
var (
	ErrUnknownField       = eris.New("invoice: unknown field")
	ErrReadOnlyField      = eris.New("invoice: field is computed and cannot be edited")
	ErrDerivedField       = eris.New("invoice: derived field cannot be propagated forward")
	ErrUnresolvedConflict = eris.New("invoice: derived field edited without a field to hold fixed")
	ErrUnsupportedHold    = eris.New("invoice: field cannot be held fixed for this edit")
	ErrNonFinite          = eris.New("invoice: value is not a finite number")
	ErrUnknownOperation   = eris.New("invoice: unknown bulk operation")
)
