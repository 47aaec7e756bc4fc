// Package command implements the CCC command table and the abbreviation
// resolution engine that expands partial command paths typed by humans or
// agents into canonical commands.
package command

// DefaultMinPrefix is the shortest abbreviation accepted for a path
// segment unless a spec overrides it.
const DefaultMinPrefix = 2

// ArgSpec describes one argument accepted after a command path.
type ArgSpec struct {
	// Name is the canonical argument name, used as the key in
	// ResolvedCommand.Args and matched by the name=value form.
	Name string

	// Flag is an optional short flag; a token -n=value binds to the
	// argument whose Flag is "n".
	Flag string

	// Required arguments must be present after parsing.
	Required bool

	// FreeForm arguments receive the free string following "--" on the
	// command line. Their values are never abbreviation-matched.
	FreeForm bool
}

// Spec is one immutable entry in the command registry.
type Spec struct {
	// Path is the ordered sequence of canonical segment names,
	// e.g. ["session", "start"].
	Path []string

	// MinPrefix overrides DefaultMinPrefix per segment. A zero or
	// missing entry means the default applies.
	MinPrefix []int

	// Aliases maps explicitly registered short tokens to the canonical
	// segment they stand for. This is the only way a one-character
	// token can match a segment.
	Aliases map[string]string

	// Args is the ordered positional argument list.
	Args []ArgSpec

	// Short is a one-line description shown by help.
	Short string
}

// Name returns the canonical path joined with spaces.
func (s Spec) Name() string {
	out := ""
	for i, seg := range s.Path {
		if i > 0 {
			out += " "
		}
		out += seg
	}
	return out
}

// minPrefixAt returns the minimum abbreviation length for the segment at
// the given depth.
func (s Spec) minPrefixAt(depth int) int {
	if depth < len(s.MinPrefix) && s.MinPrefix[depth] > 0 {
		return s.MinPrefix[depth]
	}
	return DefaultMinPrefix
}

// ResolvedCommand is the outcome of a successful resolution. It is created
// per invocation and discarded after dispatch.
type ResolvedCommand struct {
	// Path is the canonical command path.
	Path []string

	// Args maps argument names to raw string values. Values are passed
	// through verbatim; only path segments are abbreviation-matched.
	Args map[string]string

	// RawInput preserves the original tokens for error messages.
	RawInput []string
}

// Name returns the canonical path joined with spaces.
func (rc *ResolvedCommand) Name() string {
	return Spec{Path: rc.Path}.Name()
}

// Arg returns the value bound to name, or "" if absent.
func (rc *ResolvedCommand) Arg(name string) string {
	return rc.Args[name]
}

// HasArg reports whether an argument was provided.
func (rc *ResolvedCommand) HasArg(name string) bool {
	_, ok := rc.Args[name]
	return ok
}
