package reimport

import (
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// Kind classifies pipeline failures.
type Kind int

const (
	KindInputValidation Kind = iota + 1
	KindLookup
	KindAssetConstruction
	KindSerialization
	KindArchiveWrite
	KindNonFatal
	KindInvariant
)

var kindNames = map[Kind]string{
	KindInputValidation:   "input validation",
	KindLookup:            "lookup",
	KindAssetConstruction: "asset construction",
	KindSerialization:     "serialization",
	KindArchiveWrite:      "archive write",
	KindNonFatal:          "resource",
	KindInvariant:         "invariant violation",
}

// String returns the kind name.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is a classified pipeline failure.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Fatal reports whether the error is a broken invariant rather than a
// recoverable user or data error.
func (e *Error) Fatal() bool {
	return e.Kind == KindInvariant
}

// IsFatal reports whether err carries a fatal pipeline error.
func IsFatal(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Fatal()
}

// KindOf returns the kind of the pipeline error in err's chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// invariant records a stack trace; print with %+v.
func invariant(op, format string, args ...any) *Error {
	return &Error{Kind: KindInvariant, Op: op, Err: pkgerrors.Errorf(format, args...)}
}
