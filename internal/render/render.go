// Package render provides output formatting for terminal and agent
// consumption. Presentation lives here; the dispatcher and stores stay
// free of formatting concerns.
package render

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/collctx/ccc/internal/contextlog"
	"github.com/collctx/ccc/internal/identity"
	"github.com/collctx/ccc/internal/store"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Renderer handles output formatting.
type Renderer struct {
	pretty bool
}

// New creates a new renderer.
func New(pretty bool) *Renderer {
	return &Renderer{pretty: pretty}
}

// StdoutIsTerminal reports whether stdout is a tty; callers use it to
// pick the pretty default.
func StdoutIsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// Expansion shows how abbreviated input was resolved, the way the
// commander has always echoed expansions back to the operator.
func (r *Renderer) Expansion(raw []string, resolved string) string {
	typed := strings.Join(raw, " ")
	if typed == resolved {
		return ""
	}
	if r.pretty {
		return fmt.Sprintf("%s %s → %s\n", dimStyle.Render("Expanded:"), typed, resolved)
	}
	return fmt.Sprintf("Expanded: %s -> %s\n", typed, resolved)
}

// Session formats one session after a lifecycle operation.
func (r *Renderer) Session(sess *store.Session, verb string) string {
	var sb strings.Builder

	if r.pretty {
		sb.WriteString(headerStyle.Render(fmt.Sprintf("Session %s", verb)) + "\n")
		sb.WriteString(strings.Repeat("─", 50) + "\n")
	} else {
		sb.WriteString(fmt.Sprintf("Session %s\n", verb))
	}
	fmt.Fprintf(&sb, "  ID:       %s\n", sess.ID)
	fmt.Fprintf(&sb, "  Agent:    %s (%s)\n", sess.Agent, sess.AgentShort)
	fmt.Fprintf(&sb, "  Status:   %s\n", r.status(sess.Status))
	fmt.Fprintf(&sb, "  Updated:  %s\n", sess.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
	if len(sess.Metadata) > 0 {
		fmt.Fprintf(&sb, "  Metadata: %d entries\n", len(sess.Metadata))
	}
	return sb.String()
}

// Sessions formats a listing, most recently touched first.
func (r *Renderer) Sessions(sessions []*store.Session) string {
	if len(sessions) == 0 {
		return "No sessions found\n"
	}

	var sb strings.Builder
	if r.pretty {
		sb.WriteString(headerStyle.Render("Sessions") + "\n")
		sb.WriteString(strings.Repeat("─", 72) + "\n")
	}
	for _, sess := range sessions {
		age := dimStyle.Render(humanAge(sess.UpdatedAt))
		if !r.pretty {
			age = humanAge(sess.UpdatedAt)
		}
		fmt.Fprintf(&sb, "%s %-28s %-10s %-9s %s\n",
			r.statusGlyph(sess.Status), sess.ID, sess.AgentShort, sess.Status, age)
	}
	return sb.String()
}

// Messages formats an agent's context document, oldest first.
func (r *Renderer) Messages(owner identity.Identity, messages []contextlog.Message) string {
	var sb strings.Builder

	title := fmt.Sprintf("Context for %s (%s)", owner.Name, owner.Short)
	if r.pretty {
		sb.WriteString(headerStyle.Render(title) + "\n")
		sb.WriteString(strings.Repeat("─", 60) + "\n")
	} else {
		sb.WriteString(title + "\n")
	}

	if len(messages) == 0 {
		sb.WriteString("  (no messages)\n")
		return sb.String()
	}
	for _, msg := range messages {
		ts := msg.SentAt.Local().Format("2006-01-02 15:04")
		if r.pretty {
			fmt.Fprintf(&sb, "%s %s\n", dimStyle.Render(ts), color.CyanString(msg.From))
		} else {
			fmt.Fprintf(&sb, "[%s] %s\n", ts, msg.From)
		}
		for _, line := range strings.Split(msg.Body, "\n") {
			fmt.Fprintf(&sb, "    %s\n", line)
		}
	}
	return sb.String()
}

// Sent confirms a delivered message.
func (r *Renderer) Sent(to identity.Identity, body string) string {
	preview := body
	if runes := []rune(preview); len(runes) > 48 {
		preview = string(runes[:48]) + "…"
	}
	if r.pretty {
		return fmt.Sprintf("%s message to %s (%s): %s\n",
			color.GreenString("✓"), to.Name, to.Short, preview)
	}
	return fmt.Sprintf("sent to %s: %s\n", to.Name, preview)
}

// Identities formats the known agent table for config output and
// unknown-identity guidance.
func (r *Renderer) Identities(agents []identity.Identity) string {
	var sb strings.Builder
	for _, id := range agents {
		fmt.Fprintf(&sb, "  %-4s %-10s %-5s %s\n", id.RawAlias, id.Name, id.Short, id.Role)
	}
	return sb.String()
}

func (r *Renderer) status(s store.Status) string {
	if !r.pretty {
		return string(s)
	}
	switch s {
	case store.StatusActive:
		return color.GreenString(string(s))
	case store.StatusSaved:
		return color.YellowString(string(s))
	default:
		return color.HiBlackString(string(s))
	}
}

func (r *Renderer) statusGlyph(s store.Status) string {
	if !r.pretty {
		switch s {
		case store.StatusActive:
			return "*"
		case store.StatusSaved:
			return "+"
		default:
			return "-"
		}
	}
	switch s {
	case store.StatusActive:
		return color.GreenString("●")
	case store.StatusSaved:
		return color.YellowString("●")
	default:
		return color.HiBlackString("○")
	}
}

func humanAge(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
