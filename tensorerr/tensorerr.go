// Package tensorerr implements the error taxonomy described in spec.md §6:
// every failure carries a named Kind, a formatted message, and the call site
// that raised it.
package tensorerr

import (
	"fmt"
	"runtime"
)

// Kind enumerates the named failure categories surfaced by the tensor
// engine, autograd driver, NN layer, and persistence format.
type Kind int

const (
	// ArrayInitFailure signals an allocation failure or ndim > MAX_NDIM.
	ArrayInitFailure Kind = iota
	// InvalidIdx signals an out-of-range array access.
	InvalidIdx
	// NonBroadcastable signals two shapes are not broadcast-compatible.
	NonBroadcastable
	// ShapeMismatch signals contraction dimensions disagree (e.g. matmul).
	ShapeMismatch
	// InvalidArray signals a rank precondition violation.
	InvalidArray
	// InvalidDtype signals a dtype unsupported for the requested operation.
	InvalidDtype
	// DtypeMismatch signals two operands do not share a dtype.
	DtypeMismatch
	// RepeatedArrayDims signals a transpose permutation repeats an axis.
	RepeatedArrayDims
	// InvalidDim signals a transpose permutation references an out-of-range axis.
	InvalidDim
	// TensorInitFailure signals requires_grad requested on a non-float dtype.
	TensorInitFailure
	// InvalidGrad signals a grad read on a tensor that does not require grad.
	InvalidGrad
	// InvalidBackwardPass signals backward invoked on a non-requires_grad tensor.
	InvalidBackwardPass
	// GradInitFailure signals a missing seed for a non-scalar backward call.
	GradInitFailure
	// InvalidNumInputsOutputs signals a grad-rule contract violation.
	InvalidNumInputsOutputs
	// EnvPushFailure signals a push onto a locked arena.
	EnvPushFailure
	// EnvResolveFailure signals both candidate arenas are locked.
	EnvResolveFailure
	// PrngInitFailure signals a PRNG initialization failure.
	PrngInitFailure
	// InvalidLowHigh signals an invalid [low, high) range for a random draw.
	InvalidLowHigh
	// FileReadFailure signals an I/O read failure.
	FileReadFailure
	// FileWriteFailure signals an I/O write failure.
	FileWriteFailure
	// FileFormatError signals a malformed file (e.g. bad magic).
	FileFormatError
)

// names mirrors spec.md §6's table for diagnostic rendering.
var names = map[Kind]string{
	ArrayInitFailure:        "ArrayInitFailure",
	InvalidIdx:              "InvalidIdx",
	NonBroadcastable:        "NonBroadcastable",
	ShapeMismatch:           "ShapeMismatch",
	InvalidArray:            "InvalidArray",
	InvalidDtype:            "InvalidDtype",
	DtypeMismatch:           "DtypeMismatch",
	RepeatedArrayDims:       "RepeatedArrayDims",
	InvalidDim:              "InvalidDim",
	TensorInitFailure:       "TensorInitFailure",
	InvalidGrad:             "InvalidGrad",
	InvalidBackwardPass:     "InvalidBackwardPass",
	GradInitFailure:         "GradInitFailure",
	InvalidNumInputsOutputs: "InvalidNumInputsOutputs",
	EnvPushFailure:          "EnvPushFailure",
	EnvResolveFailure:       "EnvResolveFailure",
	PrngInitFailure:         "PrngInitFailure",
	InvalidLowHigh:          "InvalidLowHigh",
	FileReadFailure:         "FileReadFailure",
	FileWriteFailure:        "FileWriteFailure",
	FileFormatError:         "FileFormatError",
}

// String returns the kind's diagnostic name.
func (k Kind) String() string {
	if n, ok := names[k]; ok {
		return n
	}

	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is the concrete error type raised by every operation in this module.
type Error struct {
	Kind    Kind
	Message string
	Site    string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s (at %s)", e.Kind, e.Message, e.Site)
}

// New constructs an *Error tagged with kind, capturing the immediate caller
// as the source location per spec.md §7.
func New(kind Kind, format string, args ...any) *Error {
	site := "unknown"
	if _, file, line, ok := runtime.Caller(1); ok {
		site = fmt.Sprintf("%s:%d", file, line)
	}

	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Site:    site,
	}
}

// KindOf extracts the Kind tagged on err, if any. Returns false if err is
// nil or was not produced by this package.
func KindOf(err error) (Kind, bool) {
	if err == nil {
		return 0, false
	}

	if te, ok := err.(*Error); ok { //nolint:errorlint // direct tag extraction, not sentinel matching
		return te.Kind, true
	}

	return 0, false
}

// Is enables errors.Is matching against another *Error: the two match when
// their Kinds are equal. Kind is not itself an error value, so it cannot be
// passed to errors.Is directly (see KindOf for the common usage pattern).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error) //nolint:errorlint // Kind-tag comparison, intentional
	if !ok {
		return false
	}

	return e.Kind == t.Kind
}
