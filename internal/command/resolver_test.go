package command

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testSpecs mirrors the shape of the real command table, plus a pair of
// siblings where one name is a prefix of the other so exact-match
// precedence is exercised.
func testSpecs() []Spec {
	return []Spec{
		{Path: []string{"help"}, Args: []ArgSpec{{Name: "section"}}},
		{Path: []string{"version"}},
		{Path: []string{"config", "show"}},
		{Path: []string{"session", "start"}, Args: []ArgSpec{
			{Name: "agent", Required: true},
			{Name: "name", Flag: "n"},
		}},
		{Path: []string{"session", "save"}, Args: []ArgSpec{
			{Name: "agent", Required: true},
			{Name: "name", Flag: "n"},
			{Name: "note", FreeForm: true},
		}},
		{Path: []string{"session", "end"}, Args: []ArgSpec{{Name: "agent", Required: true}}},
		{Path: []string{"session", "management", "list"}},
		{Path: []string{"context"}, Args: []ArgSpec{{Name: "agent"}}},
		{Path: []string{"context", "to"}, Args: []ArgSpec{
			{Name: "agent", Required: true},
			{Name: "message", FreeForm: true, Required: true},
		}},
		{Path: []string{"context", "clear"}, Args: []ArgSpec{{Name: "agent", Required: true}}},
		{Path: []string{"archive"}},
		{Path: []string{"archiveall"}},
		{Path: []string{"query"}, Aliases: map[string]string{"q": "query"}},
	}
}

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()
	registry, err := NewRegistry(testSpecs())
	require.NoError(t, err)
	return NewResolver(registry)
}

func TestResolveCanonicalPaths(t *testing.T) {
	r := newTestResolver(t)

	tests := []struct {
		name     string
		tokens   []string
		wantPath string
		wantArgs map[string]string
	}{
		{
			name:     "full path",
			tokens:   []string{"session", "start", "cl2"},
			wantPath: "session start",
			wantArgs: map[string]string{"agent": "cl2"},
		},
		{
			name:     "full path uppercase",
			tokens:   []string{"SESSION", "Start", "cl2"},
			wantPath: "session start",
			wantArgs: map[string]string{"agent": "cl2"},
		},
		{
			name:     "minimum unique prefixes",
			tokens:   []string{"se", "sta", "cl2"},
			wantPath: "session start",
			wantArgs: map[string]string{"agent": "cl2"},
		},
		{
			name:     "three deep abbreviated",
			tokens:   []string{"se", "ma", "li"},
			wantPath: "session management list",
			wantArgs: map[string]string{},
		},
		{
			name:     "intermediate depth command",
			tokens:   []string{"context"},
			wantPath: "context",
			wantArgs: map[string]string{},
		},
		{
			name:     "intermediate command with argument",
			tokens:   []string{"context", "cl2"},
			wantPath: "context",
			wantArgs: map[string]string{"agent": "cl2"},
		},
		{
			name:     "exact match beats sibling prefix",
			tokens:   []string{"archive"},
			wantPath: "archive",
			wantArgs: map[string]string{},
		},
		{
			name:     "longer prefix selects the longer sibling",
			tokens:   []string{"archivea"},
			wantPath: "archiveall",
			wantArgs: map[string]string{},
		},
		{
			name:     "registered one-character alias",
			tokens:   []string{"q"},
			wantPath: "query",
			wantArgs: map[string]string{},
		},
		{
			name:     "flag form",
			tokens:   []string{"se", "sav", "cl2", "-n=build"},
			wantPath: "session save",
			wantArgs: map[string]string{"agent": "cl2", "name": "build"},
		},
		{
			name:     "name=value form",
			tokens:   []string{"se", "sav", "cl2", "name=build"},
			wantPath: "session save",
			wantArgs: map[string]string{"agent": "cl2", "name": "build"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc, err := r.Resolve(tt.tokens, "")
			require.NoError(t, err)
			assert.Equal(t, tt.wantPath, rc.Name())
			assert.Equal(t, tt.wantArgs, rc.Args)
			assert.Equal(t, tt.tokens, rc.RawInput)
		})
	}
}

func TestResolveAmbiguity(t *testing.T) {
	r := newTestResolver(t)

	_, err := r.Resolve([]string{"co"}, "")
	var ambErr *AmbiguityError
	require.ErrorAs(t, err, &ambErr)
	assert.True(t, errors.Is(err, ErrAmbiguous))
	assert.Equal(t, []string{"config", "context"}, ambErr.Candidates)
	assert.Equal(t, "co", ambErr.Token)
	assert.Equal(t, 0, ambErr.Depth)
}

func TestResolveAmbiguousSiblingPrefix(t *testing.T) {
	r := newTestResolver(t)

	// "arch" prefixes both archive and archiveall with no exact winner.
	_, err := r.Resolve([]string{"arch"}, "")
	var ambErr *AmbiguityError
	require.ErrorAs(t, err, &ambErr)
	assert.Equal(t, []string{"archive", "archiveall"}, ambErr.Candidates)
}

func TestResolveErrors(t *testing.T) {
	r := newTestResolver(t)

	tests := []struct {
		name     string
		tokens   []string
		free     string
		sentinel error
	}{
		{name: "unknown top level", tokens: []string{"bogus"}, sentinel: ErrUnknown},
		{name: "unknown at depth", tokens: []string{"session", "bogus"}, sentinel: ErrUnknown},
		{name: "one character token", tokens: []string{"s"}, sentinel: ErrUnknown},
		{name: "incomplete path", tokens: []string{"session"}, sentinel: ErrIncomplete},
		{name: "incomplete deeper", tokens: []string{"se", "management"}, sentinel: ErrIncomplete},
		{name: "missing required argument", tokens: []string{"session", "start"}, sentinel: ErrIncomplete},
		{name: "too many arguments", tokens: []string{"session", "end", "cl2", "extra"}, sentinel: ErrTooManyArguments},
		{name: "free string without free-form argument", tokens: []string{"version"}, free: "stray", sentinel: ErrTooManyArguments},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Resolve(tt.tokens, tt.free)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.sentinel)
		})
	}
}

func TestResolveErrorDetails(t *testing.T) {
	r := newTestResolver(t)

	_, err := r.Resolve([]string{"session", "bogus"}, "")
	var unknownErr *UnknownCommandError
	require.ErrorAs(t, err, &unknownErr)
	assert.Equal(t, "bogus", unknownErr.Token)
	assert.Equal(t, 1, unknownErr.Depth)

	_, err = r.Resolve([]string{"session"}, "")
	var incErr *IncompleteCommandError
	require.ErrorAs(t, err, &incErr)
	assert.Equal(t, []string{"session"}, incErr.Path)
	assert.Equal(t, []string{"end", "management", "save", "start"}, incErr.Expected)

	_, err = r.Resolve([]string{"session", "end", "cl2", "x", "y"}, "")
	var tooErr *TooManyArgumentsError
	require.ErrorAs(t, err, &tooErr)
	assert.Equal(t, []string{"x", "y"}, tooErr.Extra)
}

func TestResolveFreeFormArgument(t *testing.T) {
	r := newTestResolver(t)

	rc, err := r.Resolve([]string{"context", "to", "cl1"}, "please check the build")
	require.NoError(t, err)
	assert.Equal(t, "context to", rc.Name())
	assert.Equal(t, "cl1", rc.Arg("agent"))
	assert.Equal(t, "please check the build", rc.Arg("message"))

	// The message is required for context to.
	_, err = r.Resolve([]string{"context", "to", "cl1"}, "")
	assert.ErrorIs(t, err, ErrIncomplete)
}

func TestArgumentValuesAreNeverAbbreviated(t *testing.T) {
	r := newTestResolver(t)

	// "sta" is a valid abbreviation for the start segment, but as an
	// argument value it must pass through verbatim.
	rc, err := r.Resolve([]string{"session", "end", "sta"}, "")
	require.NoError(t, err)
	assert.Equal(t, "sta", rc.Arg("agent"))

	// Unknown key=value tokens stay verbatim too.
	rc, err = r.Resolve([]string{"session", "end", "topic=infra"}, "")
	require.NoError(t, err)
	assert.Equal(t, "topic=infra", rc.Arg("agent"))
}

func TestUnknownFlagIsRejected(t *testing.T) {
	r := newTestResolver(t)

	tests := []struct {
		name   string
		tokens []string
	}{
		{"mistyped flag", []string{"session", "start", "cl2", "-q=typo"}},
		{"bare dash token", []string{"session", "start", "cl2", "-q"}},
		{"double dash flag", []string{"session", "save", "cl2", "--nmae=build"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Resolve(tt.tokens, "")
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrTooManyArguments)

			var flagErr *UnknownFlagError
			require.ErrorAs(t, err, &flagErr)
			assert.Equal(t, tt.tokens[len(tt.tokens)-1], flagErr.Token)
		})
	}
}

func TestDashValuePassesViaAssignmentForm(t *testing.T) {
	r := newTestResolver(t)

	rc, err := r.Resolve([]string{"session", "start", "cl2", "name=-dashed"}, "")
	require.NoError(t, err)
	assert.Equal(t, "-dashed", rc.Arg("name"))
}
