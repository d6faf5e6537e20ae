package errors

import (
	goerrors "errors"

	"github.com/kochabx/blaze/core/validator"
)

// Kind classifies a failure by where it happened
type Kind string

const (
	// KindUnexpected anything not recognized as a network failure
	KindUnexpected Kind = "unexpected"
	// KindValidation rejected on the client before dispatch
	KindValidation Kind = "validation"
	// KindServer the server responded with an error status
	KindServer Kind = "server"
	// KindNoResponse the request left the client but no response arrived
	KindNoResponse Kind = "no_response"
	// KindSetup the request failed before dispatch
	KindSetup Kind = "setup"
)

// Kinder is implemented by errors that know their kind
type Kinder interface {
	Kind() Kind
}

// KindOf reports the kind of the first error in err's chain that declares one.
// Validation errors from core/validator are KindValidation.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var k Kinder
	if goerrors.As(err, &k) {
		return k.Kind()
	}
	if validator.IsValidationError(err) {
		return KindValidation
	}
	return KindUnexpected
}

// IsKind reports whether err is of the given kind
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
