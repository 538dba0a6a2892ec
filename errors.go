package mesh

import "errors"

// Error classes. Every error returned by mesh and its sub-packages wraps
// exactly one of these, so callers can classify failures with errors.Is.
var (
	// ErrIO reports that a file could not be opened or read.
	ErrIO = errors.New("mesh: i/o error")

	// ErrParse reports malformed or unsupported file content.
	ErrParse = errors.New("mesh: parse error")

	// ErrValidation reports inconsistent sizes or out-of-range values
	// detected before data reaches the GPU.
	ErrValidation = errors.New("mesh: validation error")

	// ErrArgument reports an invalid enumerated value or a malformed argument.
	ErrArgument = errors.New("mesh: invalid argument")

	// ErrNotFound reports a reference to an attribute or resource that does
	// not exist. It is also a validation error.
	ErrNotFound = &classError{msg: "mesh: not found", parent: ErrValidation}
)

// classError is an error class nested inside another class.
type classError struct {
	msg    string
	parent error
}

func (e *classError) Error() string { return e.msg }

func (e *classError) Unwrap() error { return e.parent }
