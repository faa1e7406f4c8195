package types

import "errors"

// Sentinel errors for querybuilder operations.
var (
	// ErrNoFields indicates a builder was configured without any field.
	// At least one field is required before a default rule can be created.
	ErrNoFields = errors.New("at least one field must be configured")

	// ErrEmptyQuery indicates an input document holds no node.
	ErrEmptyQuery = errors.New("query document is empty")

	// ErrInvalidCombinator indicates a group combinator other than and/or.
	ErrInvalidCombinator = errors.New("combinator must be and or or")

	// ErrUnknownProperty indicates a rule property that cannot be changed.
	ErrUnknownProperty = errors.New("unknown rule property")

	// ErrInvalidCatalog indicates a field catalog that cannot back a builder.
	ErrInvalidCatalog = errors.New("invalid field catalog")

	// ErrFilterNameRequired indicates a filter saved without a root name.
	ErrFilterNameRequired = errors.New("saved filter requires a name")

	// ErrFilterNotFound indicates no saved filter exists with the given name.
	ErrFilterNotFound = errors.New("saved filter not found")

	// ErrFilterExists indicates a saved filter name is already taken.
	ErrFilterExists = errors.New("saved filter already exists")

	// ErrSessionNotFound indicates an unknown editor session id.
	ErrSessionNotFound = errors.New("editor session not found")

	// ErrTooManySessions indicates the editor session limit was reached.
	ErrTooManySessions = errors.New("too many editor sessions")
)
