package command

import (
	"sort"
	"strings"
)

// Resolver expands abbreviated token sequences against a registry.
//
// Tokens are matched depth by depth: an exact segment name always wins, a
// unique case-insensitive prefix of at least two characters wins next, and
// anything else is an error. Once a registered command's path is fully
// consumed the remaining tokens are bound to its arguments verbatim.
type Resolver struct {
	registry *Registry
}

// NewResolver creates a resolver over the given registry.
func NewResolver(registry *Registry) *Resolver {
	return &Resolver{registry: registry}
}

// Resolve turns raw tokens (plus an optional free string captured after
// "--") into a canonical command. All failures are typed; nothing is ever
// guessed or silently defaulted.
func (r *Resolver) Resolve(tokens []string, free string) (*ResolvedCommand, error) {
	cur := r.registry.root
	path := []string{}

	i := 0
	for i < len(tokens) {
		tok := tokens[i]
		next, err := cur.match(tok, i)
		if err != nil {
			return nil, err
		}
		if next == nil {
			// No segment matched; the rest are arguments for the
			// command matched so far, if there is one.
			break
		}
		cur = next
		path = append(path, cur.segment)
		i++
	}

	if cur.terminal == nil {
		if len(cur.children) > 0 && i >= len(tokens) {
			return nil, &IncompleteCommandError{Path: path, Expected: cur.childSegments()}
		}
		// Trailing token matched nothing and the partial path is not
		// itself a command.
		if i < len(tokens) {
			return nil, &UnknownCommandError{Token: tokens[i], Depth: i}
		}
		return nil, &IncompleteCommandError{Path: path, Expected: cur.childSegments()}
	}

	rc := &ResolvedCommand{
		Path:     append([]string{}, cur.terminal.Path...),
		Args:     map[string]string{},
		RawInput: append([]string{}, tokens...),
	}
	if err := bindArgs(cur.terminal, rc, tokens[i:], free); err != nil {
		return nil, err
	}
	return rc, nil
}

// match finds the child reached by one token, or nil when the token is not
// a path segment. Exact matches (canonical name or registered alias) take
// precedence over prefix matches at the same depth.
func (n *node) match(tok string, depth int) (*node, error) {
	lower := strings.ToLower(tok)

	if child, ok := n.children[lower]; ok {
		return child, nil
	}
	for _, child := range n.children {
		if _, ok := child.aliases[lower]; ok {
			return child, nil
		}
	}

	// Prefix matching needs at least two characters; shorter tokens only
	// match via the explicit aliases above.
	if len(lower) < DefaultMinPrefix {
		if len(n.children) == 0 {
			return nil, nil
		}
		if n.terminal != nil {
			return nil, nil // argument position
		}
		return nil, &UnknownCommandError{Token: tok, Depth: depth}
	}

	var hits []*node
	for _, child := range n.children {
		if len(lower) >= child.minPrefix && strings.HasPrefix(child.segment, lower) {
			hits = append(hits, child)
		}
	}

	switch len(hits) {
	case 0:
		if n.terminal != nil {
			return nil, nil // argument position
		}
		if len(n.children) == 0 {
			return nil, nil
		}
		return nil, &UnknownCommandError{Token: tok, Depth: depth}
	case 1:
		return hits[0], nil
	default:
		names := make([]string, len(hits))
		for i, h := range hits {
			names[i] = h.segment
		}
		sort.Strings(names)
		return nil, &AmbiguityError{Token: tok, Depth: depth, Candidates: names}
	}
}

// bindArgs parses the tokens after the command path against the spec's
// argument list. Supports the -f=value flag form and name=value, with
// positional order for the rest. Argument values are never abbreviated.
func bindArgs(spec *Spec, rc *ResolvedCommand, rest []string, free string) error {
	var extra []string

	nextPositional := func() *ArgSpec {
		for idx := range spec.Args {
			a := &spec.Args[idx]
			if a.FreeForm {
				continue
			}
			if _, bound := rc.Args[a.Name]; !bound {
				return a
			}
		}
		return nil
	}

	for _, tok := range rest {
		if name, value, ok := splitAssignment(spec, tok); ok {
			rc.Args[name] = value
			continue
		}
		// A dash token that names no registered flag is a typo, not a
		// positional value. Literal dash-leading values can still be
		// passed via the name=value form.
		if len(tok) > 1 && strings.HasPrefix(tok, "-") {
			return &UnknownFlagError{Command: spec.Name(), Token: tok}
		}
		if a := nextPositional(); a != nil {
			rc.Args[a.Name] = tok
			continue
		}
		extra = append(extra, tok)
	}

	if len(extra) > 0 {
		return &TooManyArgumentsError{Command: spec.Name(), Extra: extra}
	}

	if free != "" {
		bound := false
		for _, a := range spec.Args {
			if a.FreeForm {
				rc.Args[a.Name] = free
				bound = true
				break
			}
		}
		if !bound {
			return &TooManyArgumentsError{Command: spec.Name(), Extra: []string{free}}
		}
	}

	for _, a := range spec.Args {
		if a.Required {
			if _, ok := rc.Args[a.Name]; !ok {
				return &MissingArgumentError{Command: spec.Name(), Argument: a.Name}
			}
		}
	}
	return nil
}

// splitAssignment matches -f=value and name=value forms against the spec.
// Tokens that merely contain "=" but name no known argument stay verbatim,
// so free-form values like key=val survive as positional arguments.
func splitAssignment(spec *Spec, tok string) (name, value string, ok bool) {
	eq := strings.IndexByte(tok, '=')
	if eq <= 0 {
		return "", "", false
	}
	key := tok[:eq]
	val := tok[eq+1:]

	if strings.HasPrefix(key, "-") {
		flag := strings.TrimLeft(key, "-")
		for _, a := range spec.Args {
			if a.Flag != "" && a.Flag == flag {
				return a.Name, val, true
			}
			if a.Name == flag {
				return a.Name, val, true
			}
		}
		return "", "", false
	}

	for _, a := range spec.Args {
		if a.Name == key {
			return a.Name, val, true
		}
	}
	return "", "", false
}
