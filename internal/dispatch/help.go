package dispatch

import (
	"fmt"

	"github.com/collctx/ccc/internal/command"
)

func (d *Dispatcher) handleHelp(rc *command.ResolvedCommand) error {
	switch rc.Arg("section") {
	case "", "all":
		d.printCompactHelp()
	case "core":
		fmt.Fprint(d.deps.Out, `[CORE] COMMANDS:
  ccc help                   Show compact help
  ccc help <section>         Help for core, session, or context
  ccc version                Show version info
  ccc config show            Show configuration and known agents
`)
	case "session":
		fmt.Fprint(d.deps.Out, `[SESSION] MANAGEMENT:
  ccc session start <agent> [-n=<name>]   Start or resume a session
  ccc session save <agent> [-n=<name>]    Save session state (note after --)
  ccc session end <agent>                 End (archive) the active session
  ccc session management list             List sessions, newest activity first
  ccc session management save <name>      Save a session by name
  ccc session management archive <name>   Archive a session by name

  Agents: cl1 (Claude-1), cl2 (Claude-2), ai1 (Aider-1), ai2 (Aider-2)
`)
	case "context":
		fmt.Fprint(d.deps.Out, `[CONTEXT] MULTI-AGENT SYSTEM:
  ccc context                          Read own messages (needs CCC_AGENT)
  ccc context <agent>                  Read another agent's messages
  ccc context to <agent> -- <message>  Send a message
  ccc context to all -- <message>      Broadcast to every other agent
  ccc context clear <agent>            Clear an agent's context document
`)
	default:
		return fmt.Errorf("unknown help section %q (try core, session, context)", rc.Arg("section"))
	}
	return nil
}

func (d *Dispatcher) printCompactHelp() {
	fmt.Fprintf(d.deps.Out, "ccc %s - Collective Context Commander\n", d.deps.Version)
	fmt.Fprint(d.deps.Out, `Usage: ccc <command> [args...]

`)
	for _, spec := range d.registry.All() {
		fmt.Fprintf(d.deps.Out, "  %-34s %s\n", usageLine(spec), spec.Short)
	}
	fmt.Fprint(d.deps.Out, `
Commands abbreviate: at least 2 letters per segment, e.g. "ccc se sta cl2".
Argument values are never abbreviated.
`)
}

func usageLine(spec command.Spec) string {
	line := spec.Name()
	for _, a := range spec.Args {
		switch {
		case a.FreeForm:
			line += " -- <" + a.Name + ">"
		case a.Flag != "":
			line += " [-" + a.Flag + "=<" + a.Name + ">]"
		case a.Required:
			line += " <" + a.Name + ">"
		default:
			line += " [" + a.Name + "]"
		}
	}
	return line
}
