package command

import (
	"errors"
	"fmt"
	"strings"
)

// Common resolution errors. Typed wrappers below carry detail and unwrap
// to these sentinels so callers can branch with errors.Is.
var (
	// ErrUnknown indicates a token matched no segment at its depth.
	ErrUnknown = errors.New("unknown command")

	// ErrAmbiguous indicates a token prefix-matched more than one
	// segment with no exact winner.
	ErrAmbiguous = errors.New("ambiguous command")

	// ErrIncomplete indicates the input ended before reaching a
	// registered command.
	ErrIncomplete = errors.New("incomplete command")

	// ErrTooManyArguments indicates trailing tokens beyond the
	// command's argument list.
	ErrTooManyArguments = errors.New("too many arguments")
)

// UnknownCommandError reports a token that matched nothing.
type UnknownCommandError struct {
	Token string
	Depth int
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("unknown command %q at position %d", e.Token, e.Depth+1)
}

func (e *UnknownCommandError) Unwrap() error {
	return ErrUnknown
}

// AmbiguityError reports a token that prefix-matched several segments.
// Candidates are the canonical segment names, sorted.
type AmbiguityError struct {
	Token      string
	Depth      int
	Candidates []string
}

func (e *AmbiguityError) Error() string {
	return fmt.Sprintf("ambiguous command %q: matches %s",
		e.Token, strings.Join(e.Candidates, ", "))
}

func (e *AmbiguityError) Unwrap() error {
	return ErrAmbiguous
}

// IncompleteCommandError reports input that stopped at an intermediate
// node that is not itself a registered command.
type IncompleteCommandError struct {
	// Path is the canonical prefix that was matched.
	Path []string

	// Expected lists the segments that could follow.
	Expected []string
}

func (e *IncompleteCommandError) Error() string {
	return fmt.Sprintf("incomplete command %q: expected one of %s",
		strings.Join(e.Path, " "), strings.Join(e.Expected, ", "))
}

func (e *IncompleteCommandError) Unwrap() error {
	return ErrIncomplete
}

// TooManyArgumentsError reports trailing tokens that no argument accepts.
type TooManyArgumentsError struct {
	Command string
	Extra   []string
}

func (e *TooManyArgumentsError) Error() string {
	return fmt.Sprintf("too many arguments for %q: %s",
		e.Command, strings.Join(e.Extra, " "))
}

func (e *TooManyArgumentsError) Unwrap() error {
	return ErrTooManyArguments
}

// UnknownFlagError reports a -flag token naming no argument of the
// resolved command. Rejecting these keeps a typo like -q=typo from being
// swallowed as a positional value.
type UnknownFlagError struct {
	Command string
	Token   string
}

func (e *UnknownFlagError) Error() string {
	return fmt.Sprintf("unknown flag %q for %q", e.Token, e.Command)
}

func (e *UnknownFlagError) Unwrap() error {
	return ErrTooManyArguments
}

// MissingArgumentError reports a required argument that was not supplied.
type MissingArgumentError struct {
	Command  string
	Argument string
}

func (e *MissingArgumentError) Error() string {
	return fmt.Sprintf("missing required argument <%s> for %q", e.Argument, e.Command)
}

func (e *MissingArgumentError) Unwrap() error {
	return ErrIncomplete
}
