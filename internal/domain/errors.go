package domain

import "errors"

var (
	// ErrInvalidDescriptor signals a package descriptor that cannot be parsed.
	ErrInvalidDescriptor = errors.New("invalid package descriptor")
	// ErrUnknownSource signals an external source that is neither registered nor loadable.
	ErrUnknownSource = errors.New("unknown external source")
	// ErrInvalidIdentifier signals a field or table name that is not a plain identifier.
	ErrInvalidIdentifier = errors.New("invalid identifier")
	// ErrBackendUnavailable signals that no query execution backend is configured.
	ErrBackendUnavailable = errors.New("search backend unavailable")
)
