package dispatch

import (
	"github.com/collctx/ccc/internal/command"
)

// Specs is the fixed command table. It is registered once at process
// start; adding a command means adding a Spec here and a case to the
// dispatcher's switch.
func Specs() []command.Spec {
	return []command.Spec{
		{
			Path:  []string{"help"},
			Args:  []command.ArgSpec{{Name: "section"}},
			Short: "Show help, optionally for one section",
		},
		{
			Path:  []string{"version"},
			Short: "Show version information",
		},
		{
			Path:  []string{"config", "show"},
			Short: "Show configuration and known agents",
		},
		{
			Path: []string{"session", "start"},
			Args: []command.ArgSpec{
				{Name: "agent", Required: true},
				{Name: "name", Flag: "n"},
			},
			Short: "Start (or resume) a session for an agent",
		},
		{
			Path: []string{"session", "save"},
			Args: []command.ArgSpec{
				{Name: "agent", Required: true},
				{Name: "name", Flag: "n"},
				{Name: "note", FreeForm: true},
			},
			Short: "Save an agent's session state",
		},
		{
			Path: []string{"session", "end"},
			Args: []command.ArgSpec{
				{Name: "agent", Required: true},
			},
			Short: "End (archive) an agent's active session",
		},
		{
			Path: []string{"session", "management", "list"},
			Args: []command.ArgSpec{
				{Name: "agent", Flag: "a"},
				{Name: "pattern", Flag: "p"},
			},
			Short: "List sessions, most recently touched first",
		},
		{
			Path: []string{"session", "management", "save"},
			Args: []command.ArgSpec{
				{Name: "name", Required: true},
				{Name: "note", FreeForm: true},
			},
			Short: "Save a session by name",
		},
		{
			Path: []string{"session", "management", "archive"},
			Args: []command.ArgSpec{
				{Name: "name", Required: true},
			},
			Short: "Archive a session by name",
		},
		{
			Path:  []string{"context"},
			Args:  []command.ArgSpec{{Name: "agent"}},
			Short: "Read own context, or another agent's",
		},
		{
			Path: []string{"context", "to"},
			Args: []command.ArgSpec{
				{Name: "agent", Required: true},
				{Name: "message", FreeForm: true, Required: true},
			},
			Short: "Send a message to an agent (or \"all\")",
		},
		{
			Path: []string{"context", "clear"},
			Args: []command.ArgSpec{
				{Name: "agent", Required: true},
			},
			Short: "Clear an agent's context document",
		},
	}
}
