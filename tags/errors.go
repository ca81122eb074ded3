package tags

import "github.com/teranos/tagteam/errors"

var (
	// ErrBlankTagName is returned when a tag name is empty or whitespace-only.
	ErrBlankTagName = errors.Mark(errors.New("tag name is blank"), errors.ErrInvalidRequest)

	// ErrDuplicateTagName is returned when creating a tag whose name already
	// exists, compared case-insensitively.
	ErrDuplicateTagName = errors.Mark(errors.New("duplicate tag name"), errors.ErrConflict)

	// ErrUnknownKind is returned by a strict Registry for refs of unregistered kinds.
	ErrUnknownKind = errors.Mark(errors.New("unknown taggable kind"), errors.ErrInvalidRequest)

	// ErrUnknownGroup is returned when a context group is not declared for a kind.
	ErrUnknownGroup = errors.Mark(errors.New("unknown tagging group"), errors.ErrNotFound)

	// ErrInvalidColumn is returned when a caller-supplied SQL identifier is rejected.
	ErrInvalidColumn = errors.Mark(errors.New("invalid column identifier"), errors.ErrInvalidRequest)
)
