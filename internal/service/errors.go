package service

import "errors"

// Kind classifies the failure of a contact operation.
type Kind int

const (
	// KindStorage is any failure of the storage backend.
	KindStorage Kind = iota
	// KindInvalid is a malformed request, e.g. a body that is not JSON.
	KindInvalid
	// KindNotFound means that no contact has the requested id.
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindNotFound:
		return "not found"
	default:
		return "storage"
	}
}

// Error is returned by every failing contact operation. Message describes the
// operation, Err is the underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// invalidInput builds the error for a request that could not be parsed.
func invalidInput(message string, err error) *Error {
	return &Error{Kind: KindInvalid, Message: message, Err: err}
}

// KindOf returns the kind of err. Errors that did not come from this package
// count as storage failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStorage
}
