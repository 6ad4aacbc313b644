package db

import "errors"

// Sentinel errors for database operations.
var (
	ErrKeyNotFound       = errors.New("db: key not found")
	ErrUnsupportedDriver = errors.New("db: unsupported driver")
)

// Op names used for error context.
const (
	OpCount  = "COUNT"
	OpSelect = "SELECT"
	OpQuery  = "QUERY"
	OpScan   = "SCAN"
	OpGet    = "GET"
	OpSet    = "SET"
	OpDel    = "DEL"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
