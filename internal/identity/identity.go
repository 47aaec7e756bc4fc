// Package identity maps agent aliases to canonical agent identities.
//
// The alias table is built once at startup and treated as read-only for
// the rest of the run. Normalization is a pure function of the input
// alias: the same alias always yields the same canonical name and short
// alias.
package identity

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Identity is one canonical agent identity.
type Identity struct {
	// RawAlias is the alias as typed, e.g. "cl2".
	RawAlias string

	// Name is the canonical agent name, e.g. "Claude-2".
	Name string

	// Short is the display alias derived from the canonical name,
	// e.g. "CL2".
	Short string

	// Role is the agent's role in the collective, e.g. "Innovation-Driver".
	Role string
}

// Definition declares one agent for table construction.
type Definition struct {
	Alias string `yaml:"alias"`
	Name  string `yaml:"name"`
	Role  string `yaml:"role"`
}

// ErrUnknownIdentity is the sentinel for unrecognized aliases.
var ErrUnknownIdentity = errors.New("unknown agent identity")

// UnknownIdentityError reports an alias outside the table, carrying the
// known aliases so the CLI can suggest corrections.
type UnknownIdentityError struct {
	Alias string
	Known []string
}

func (e *UnknownIdentityError) Error() string {
	return fmt.Sprintf("unknown agent %q (known: %s)", e.Alias, strings.Join(e.Known, ", "))
}

func (e *UnknownIdentityError) Unwrap() error {
	return ErrUnknownIdentity
}

// Table is the process-wide identity table.
type Table struct {
	byKey map[string]Identity
	order []Identity
}

// Builtin returns the fixed agent definitions the collective ships with.
func Builtin() []Definition {
	return []Definition{
		{Alias: "cl1", Name: "Claude-1", Role: "Legacy-Guardian"},
		{Alias: "cl2", Name: "Claude-2", Role: "Innovation-Driver"},
		{Alias: "ai1", Name: "Aider-1", Role: "Quality-Controller"},
		{Alias: "ai2", Name: "Aider-2", Role: "Assistant"},
	}
}

// NewTable builds the identity table. Short aliases are derived from the
// canonical names; any collision between distinct agents' aliases, names,
// or derived short aliases is a construction error, never a silent
// overwrite. Redefining an agent (same canonical name) replaces the
// earlier entry rather than duplicating it.
func NewTable(defs []Definition) (*Table, error) {
	t := &Table{byKey: map[string]Identity{}}
	position := map[string]int{}
	for _, def := range defs {
		if def.Alias == "" || def.Name == "" {
			return nil, fmt.Errorf("agent definition needs alias and name: %+v", def)
		}
		short, err := ShortAlias(def.Name)
		if err != nil {
			return nil, fmt.Errorf("agent %q: %w", def.Name, err)
		}
		id := Identity{
			RawAlias: strings.ToLower(def.Alias),
			Name:     def.Name,
			Short:    short,
			Role:     def.Role,
		}
		keys := []string{id.RawAlias, strings.ToLower(id.Name), strings.ToLower(id.Short)}
		for _, key := range keys {
			if prior, ok := t.byKey[key]; ok && prior.Name != id.Name {
				return nil, fmt.Errorf("alias %q of agent %q collides with agent %q",
					key, id.Name, prior.Name)
			}
		}
		if pos, ok := position[id.Name]; ok {
			old := t.order[pos]
			delete(t.byKey, old.RawAlias)
			delete(t.byKey, strings.ToLower(old.Name))
			delete(t.byKey, strings.ToLower(old.Short))
			t.order[pos] = id
		} else {
			position[id.Name] = len(t.order)
			t.order = append(t.order, id)
		}
		for _, key := range keys {
			t.byKey[key] = id
		}
	}
	return t, nil
}

// ShortAlias derives the display alias from a canonical name: the first
// two letters uppercased plus the trailing numeric suffix. Claude-2
// becomes CL2, Aider-1 becomes AI1.
func ShortAlias(name string) (string, error) {
	letters := ""
	for _, r := range name {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' {
			letters += string(r)
			continue
		}
		break
	}
	if len(letters) < 2 {
		return "", fmt.Errorf("cannot derive short alias from %q", name)
	}
	digits := ""
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] < '0' || name[i] > '9' {
			break
		}
		digits = string(name[i]) + digits
	}
	return strings.ToUpper(letters[:2]) + digits, nil
}

// Normalize resolves a raw alias, canonical name, or short alias to its
// identity. Input is case-insensitive; output preserves the registered
// casing. The returned identity records the alias as typed.
func (t *Table) Normalize(raw string) (Identity, error) {
	id, ok := t.byKey[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return Identity{}, &UnknownIdentityError{Alias: raw, Known: t.Aliases()}
	}
	id.RawAlias = raw
	return id, nil
}

// All returns the identities in registration order.
func (t *Table) All() []Identity {
	out := make([]Identity, len(t.order))
	copy(out, t.order)
	return out
}

// Aliases returns the primary aliases, sorted, for error messages.
func (t *Table) Aliases() []string {
	out := make([]string, len(t.order))
	for i, id := range t.order {
		out[i] = id.RawAlias
	}
	sort.Strings(out)
	return out
}
