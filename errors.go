package barn

import "github.com/kayyagari/barn/internal/bnerr"

// Kind is barn's closed set of failure classes.
type Kind = bnerr.Kind

// Error is the concrete error type every public barn operation
// returns on failure.
type Error = bnerr.Error

// The closed set of error kinds.
const (
	InvalidResource           = bnerr.InvalidResource
	InvalidResourceData       = bnerr.InvalidResourceData
	InvalidAttributeValue     = bnerr.InvalidAttributeValue
	Serialization             = bnerr.Serialization
	Deserialization           = bnerr.Deserialization
	EnvOpen                   = bnerr.EnvOpen
	DbConfigError             = bnerr.DbConfig
	TxBegin                   = bnerr.TxBegin
	TxCommit                  = bnerr.TxCommit
	TxWrite                   = bnerr.TxWrite
	TxRead                    = bnerr.TxRead
	ResourceNotFound          = bnerr.ResourceNotFound
	UnknownResourceName       = bnerr.UnknownResourceName
	UnsupportedIndexValueType = bnerr.UnsupportedIndexValueType
	BadSearchFilter           = bnerr.BadSearchFilter
)

// Is reports whether err is a *Error of the given kind.
func Is(err error, kind Kind) bool {
	return bnerr.Is(err, kind)
}
