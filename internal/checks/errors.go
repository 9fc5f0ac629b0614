package checks

import (
	"fmt"
	"strings"
)

// UnknownKindError is returned when a definition names an unregistered check.
type UnknownKindError struct {
	Kind  string
	Known []string
}

func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("unknown check kind %q (known: %s)", e.Kind, strings.Join(e.Known, ", "))
}

// DuplicateKindError is returned when a kind is registered twice.
type DuplicateKindError struct {
	Kind string
}

func (e *DuplicateKindError) Error() string {
	return fmt.Sprintf("check kind %q already registered", e.Kind)
}

// MissingArgError is returned by a check that lacks a required argument.
type MissingArgError struct {
	Check string
	Arg   string
}

func (e *MissingArgError) Error() string {
	return fmt.Sprintf("%s check: missing argument %q", e.Check, e.Arg)
}
