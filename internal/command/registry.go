package command

import (
	"fmt"
	"sort"
	"strings"
)

// Registry holds the command tree. It is populated once at startup and
// read-only afterwards; there is no runtime registration.
type Registry struct {
	specs []Spec
	root  *node
}

// node is one level of the command tree. A node may carry a terminal spec
// (the path so far is itself a command) and children (deeper segments),
// which is how commands valid at intermediate depth work.
type node struct {
	segment   string
	depth     int
	minPrefix int
	aliases   map[string]string
	terminal  *Spec
	children  map[string]*node
}

// NewRegistry builds and validates the command tree. Validation failures
// are programming errors in the command table, so they fail fast here
// rather than at query time.
func NewRegistry(specs []Spec) (*Registry, error) {
	r := &Registry{
		specs: specs,
		root:  &node{depth: -1, children: map[string]*node{}},
	}
	for i := range specs {
		if err := r.insert(&specs[i]); err != nil {
			return nil, err
		}
	}
	if err := r.root.validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// MustRegistry is NewRegistry for static tables known to be valid.
func MustRegistry(specs []Spec) *Registry {
	r, err := NewRegistry(specs)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Registry) insert(spec *Spec) error {
	if len(spec.Path) == 0 {
		return fmt.Errorf("command spec with empty path")
	}
	cur := r.root
	for depth, seg := range spec.Path {
		seg = strings.ToLower(seg)
		child, ok := cur.children[seg]
		if !ok {
			child = &node{
				segment:   seg,
				depth:     depth,
				minPrefix: spec.minPrefixAt(depth),
				aliases:   map[string]string{},
				children:  map[string]*node{},
			}
			cur.children[seg] = child
		}
		for alias, target := range spec.Aliases {
			if strings.EqualFold(target, seg) {
				cur.children[seg].recordAlias(strings.ToLower(alias))
			}
		}
		cur = child
	}
	if cur.terminal != nil {
		return fmt.Errorf("duplicate command path %q", spec.Name())
	}
	cur.terminal = spec
	return nil
}

func (n *node) recordAlias(alias string) {
	if n.aliases == nil {
		n.aliases = map[string]string{}
	}
	n.aliases[alias] = n.segment
}

// validate enforces the build-time ambiguity invariant: sibling segments
// must be distinct, and no explicit alias may collide with a sibling
// segment or another sibling's alias.
func (n *node) validate() error {
	seen := map[string]string{}
	for seg := range n.children {
		seen[seg] = seg
	}
	for seg, child := range n.children {
		for alias := range child.aliases {
			if _, ok := n.children[alias]; ok {
				return fmt.Errorf("alias %q of %q collides with a sibling segment", alias, seg)
			}
			if prior, ok := seen[alias]; ok && prior != seg {
				return fmt.Errorf("alias %q of %q collides with %q", alias, seg, prior)
			}
			seen[alias] = seg
		}
	}
	for _, child := range n.children {
		if err := child.validate(); err != nil {
			return err
		}
	}
	return nil
}

// Lookup returns the spec registered at the exact canonical path.
func (r *Registry) Lookup(path []string) (Spec, bool) {
	cur := r.root
	for _, seg := range path {
		child, ok := cur.children[strings.ToLower(seg)]
		if !ok {
			return Spec{}, false
		}
		cur = child
	}
	if cur.terminal == nil {
		return Spec{}, false
	}
	return *cur.terminal, true
}

// All returns every registered spec ordered by canonical name.
func (r *Registry) All() []Spec {
	out := make([]Spec, len(r.specs))
	copy(out, r.specs)
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// childSegments returns the sorted canonical segment names below a node.
func (n *node) childSegments() []string {
	segs := make([]string, 0, len(n.children))
	for seg := range n.children {
		segs = append(segs, seg)
	}
	sort.Strings(segs)
	return segs
}
