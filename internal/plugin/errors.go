package plugin

import (
	"errors"
	"fmt"
)

// ErrMetaDisable is returned when disabling a plugin that has children.
var ErrMetaDisable = errors.New("meta plugins cannot be disabled")

// DuplicateTagError represents a second declaration of a tag under the same parent
type DuplicateTagError struct {
	Parent string
	Tag    string
}

// Error implements the error interface
func (e *DuplicateTagError) Error() string {
	return fmt.Sprintf("duplicate definition of %q under %q", e.Tag, e.Parent)
}

// UnknownTagError represents a lookup of a tag that was never declared
type UnknownTagError struct {
	Parent string
	Tag    string
}

// Error implements the error interface
func (e *UnknownTagError) Error() string {
	return fmt.Sprintf("unknown plugin %q under %q", e.Tag, e.Parent)
}

// InvalidTagError represents a tag that cannot be used as a path segment
type InvalidTagError struct {
	Tag    string
	Reason string
}

// Error implements the error interface
func (e *InvalidTagError) Error() string {
	return fmt.Sprintf("invalid tag %q: %s", e.Tag, e.Reason)
}

// DefinitionError represents a failure while building a plugin tree. No part of
// the tree is usable once it is returned.
type DefinitionError struct {
	Path          string
	OriginalError error
}

// Error implements the error interface
func (e *DefinitionError) Error() string {
	return fmt.Sprintf("definition of %q failed: %v", e.Path, e.OriginalError)
}

// Unwrap returns the original error for error unwrapping
func (e *DefinitionError) Unwrap() error {
	return e.OriginalError
}
