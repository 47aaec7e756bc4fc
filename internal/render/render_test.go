package render

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/collctx/ccc/internal/identity"
)

func TestSentTruncatesOnRuneBoundary(t *testing.T) {
	r := New(false)
	to := identity.Identity{Name: "Claude-2", Short: "CL2"}

	body := "a" + strings.Repeat("é", 60)
	out := r.Sent(to, body)

	require.True(t, utf8.ValidString(out))
	assert.Contains(t, out, "a"+strings.Repeat("é", 47)+"…")
	assert.NotContains(t, out, strings.Repeat("é", 48))
}

func TestSentShortBodyIsVerbatim(t *testing.T) {
	r := New(false)
	to := identity.Identity{Name: "Aider-1", Short: "AI1"}

	out := r.Sent(to, "short note")
	assert.Equal(t, "sent to Aider-1: short note\n", out)
}

func TestExpansionEchoesOnlyWhenAbbreviated(t *testing.T) {
	r := New(false)

	assert.Equal(t, "Expanded: se sta -> session start\n",
		r.Expansion([]string{"se", "sta"}, "session start"))
	assert.Empty(t, r.Expansion([]string{"session", "start"}, "session start"))
}
