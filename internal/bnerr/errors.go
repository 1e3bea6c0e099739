/*
Package bnerr defines barn's closed set of error kinds and the wrapped
error type every package in this module returns through. It sits below
internal/index, internal/barrel, internal/loader, and internal/scanner
so all of them can classify and construct the same error shape without
importing the root barn package, which imports them.
*/
package bnerr

import "fmt"

// Kind is one of the closed set of failure classes barn can surface.
type Kind string

const (
	InvalidResource           Kind = "InvalidResource"
	InvalidResourceData       Kind = "InvalidResourceData"
	InvalidAttributeValue     Kind = "InvalidAttributeValue"
	Serialization             Kind = "Serialization"
	Deserialization           Kind = "Deserialization"
	EnvOpen                   Kind = "EnvOpen"
	DbConfig                  Kind = "DbConfig"
	TxBegin                   Kind = "TxBegin"
	TxCommit                  Kind = "TxCommit"
	TxWrite                   Kind = "TxWrite"
	TxRead                    Kind = "TxRead"
	ResourceNotFound          Kind = "ResourceNotFound"
	UnknownResourceName       Kind = "UnknownResourceName"
	UnsupportedIndexValueType Kind = "UnsupportedIndexValueType"
	BadSearchFilter           Kind = "BadSearchFilter"
)

// Error is the concrete error type returned at barn's public boundary.
type Error struct {
	Kind  Kind
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("barn: %s: %s: %v", e.Kind, e.Msg, e.Cause)
	}
	return fmt.Sprintf("barn: %s: %s", e.Kind, e.Msg)
}

// Unwrap exposes the underlying cause to errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New constructs an Error with no underlying cause.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap constructs an Error carrying an underlying cause.
func Wrap(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, Cause: cause}
}

// Is reports whether err is a *Error of the given kind.
func Is(err error, kind Kind) bool {
	for err != nil {
		if be, ok := err.(*Error); ok {
			return be.Kind == kind
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = unwrapper.Unwrap()
	}
	return false
}
