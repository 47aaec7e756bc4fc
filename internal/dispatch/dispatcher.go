// Package dispatch wires the abbreviation resolver to the session store
// and context router, and maps every failure to a stable exit code.
package dispatch

import (
	"fmt"
	"io"
	"strings"

	"github.com/collctx/ccc/internal/command"
	"github.com/collctx/ccc/internal/contextlog"
	"github.com/collctx/ccc/internal/identity"
	"github.com/collctx/ccc/internal/logging"
	"github.com/collctx/ccc/internal/render"
	"github.com/collctx/ccc/internal/store"
)

// Deps carries the collaborators a Dispatcher needs. Everything is
// injected; the dispatcher owns no ambient state.
type Deps struct {
	Agents   *identity.Table
	Sessions *store.Store
	Contexts *contextlog.Router
	Renderer *render.Renderer
	Out      io.Writer

	// Self is the invoking agent's alias (from CCC_AGENT); may be empty
	// for operators who always name agents explicitly.
	Self string

	Version    string
	ConfigRoot string
}

// Dispatcher is the top-level entry point for one invocation.
type Dispatcher struct {
	registry *command.Registry
	resolver *command.Resolver
	deps     Deps
	log      *logging.Logger
}

// New builds a dispatcher over the fixed command table.
func New(deps Deps) (*Dispatcher, error) {
	registry, err := command.NewRegistry(Specs())
	if err != nil {
		return nil, err
	}
	return &Dispatcher{
		registry: registry,
		resolver: command.NewResolver(registry),
		deps:     deps,
		log:      logging.New("dispatch"),
	}, nil
}

// Dispatch resolves the tokens and runs the matched command. The free
// string is everything after "--" on the command line.
func (d *Dispatcher) Dispatch(tokens []string, free string) error {
	if len(tokens) == 0 {
		d.printCompactHelp()
		return nil
	}

	rc, err := d.resolver.Resolve(tokens, free)
	if err != nil {
		d.log.Warn("resolve_failed", map[string]any{"input": strings.Join(tokens, " ")}, err)
		return err
	}

	// Only the command tokens take part in the expansion echo; whatever
	// followed them was bound as arguments.
	typed := tokens
	if len(rc.Path) < len(typed) {
		typed = tokens[:len(rc.Path)]
	}
	if echo := d.deps.Renderer.Expansion(typed, rc.Name()); echo != "" {
		fmt.Fprint(d.deps.Out, echo)
	}

	// The closed set of commands. The resolver only ever produces paths
	// from Specs, so an unhandled case here is a programming error.
	switch rc.Name() {
	case "help":
		return d.handleHelp(rc)
	case "version":
		return d.handleVersion(rc)
	case "config show":
		return d.handleConfigShow(rc)
	case "session start":
		return d.handleSessionStart(rc)
	case "session save":
		return d.handleSessionSave(rc)
	case "session end":
		return d.handleSessionEnd(rc)
	case "session management list":
		return d.handleManagementList(rc)
	case "session management save":
		return d.handleManagementSave(rc)
	case "session management archive":
		return d.handleManagementArchive(rc)
	case "context":
		return d.handleContextRead(rc)
	case "context to":
		return d.handleContextSend(rc)
	case "context clear":
		return d.handleContextClear(rc)
	default:
		return fmt.Errorf("command %q resolved but has no handler", rc.Name())
	}
}

func (d *Dispatcher) handleVersion(*command.ResolvedCommand) error {
	fmt.Fprintf(d.deps.Out, "ccc %s - Collective Context Commander\n", d.deps.Version)
	return nil
}

func (d *Dispatcher) handleConfigShow(*command.ResolvedCommand) error {
	fmt.Fprintf(d.deps.Out, "Config root: %s\n", d.deps.ConfigRoot)
	if d.deps.Self != "" {
		if self, err := d.deps.Agents.Normalize(d.deps.Self); err == nil {
			fmt.Fprintf(d.deps.Out, "Instance:    %s (%s)\n", self.Name, self.Short)
		}
	}
	fmt.Fprintf(d.deps.Out, "Agents:\n%s", d.deps.Renderer.Identities(d.deps.Agents.All()))
	return nil
}

func (d *Dispatcher) handleSessionStart(rc *command.ResolvedCommand) error {
	agent, err := d.deps.Agents.Normalize(rc.Arg("agent"))
	if err != nil {
		return err
	}
	sess, err := d.deps.Sessions.Create(agent, rc.Arg("name"))
	if err != nil {
		return err
	}
	verb := "started"
	if !sess.CreatedAt.Equal(sess.UpdatedAt) {
		verb = "resumed"
	}
	fmt.Fprint(d.deps.Out, d.deps.Renderer.Session(sess, verb))
	return nil
}

func (d *Dispatcher) handleSessionSave(rc *command.ResolvedCommand) error {
	agent, err := d.deps.Agents.Normalize(rc.Arg("agent"))
	if err != nil {
		return err
	}

	id := rc.Arg("name")
	if id == "" {
		active, err := d.deps.Sessions.ActiveFor(agent)
		if err != nil {
			return err
		}
		id = active.ID
	}

	sess, err := d.deps.Sessions.Save(id, d.savePatch(rc.Arg("note")))
	if err != nil {
		return err
	}
	fmt.Fprint(d.deps.Out, d.deps.Renderer.Session(sess, "saved"))
	return nil
}

func (d *Dispatcher) handleSessionEnd(rc *command.ResolvedCommand) error {
	agent, err := d.deps.Agents.Normalize(rc.Arg("agent"))
	if err != nil {
		return err
	}
	active, err := d.deps.Sessions.ActiveFor(agent)
	if err != nil {
		return err
	}
	sess, err := d.deps.Sessions.Archive(active.ID)
	if err != nil {
		return err
	}
	fmt.Fprint(d.deps.Out, d.deps.Renderer.Session(sess, "ended"))
	return nil
}

func (d *Dispatcher) handleManagementList(rc *command.ResolvedCommand) error {
	filter := store.Filter{Pattern: rc.Arg("pattern")}
	if alias := rc.Arg("agent"); alias != "" {
		agent, err := d.deps.Agents.Normalize(alias)
		if err != nil {
			return err
		}
		filter.Agent = agent.Name
	}
	sessions, err := d.deps.Sessions.List(filter)
	if err != nil {
		return err
	}
	fmt.Fprint(d.deps.Out, d.deps.Renderer.Sessions(sessions))
	return nil
}

func (d *Dispatcher) handleManagementSave(rc *command.ResolvedCommand) error {
	sess, err := d.deps.Sessions.Save(rc.Arg("name"), d.savePatch(rc.Arg("note")))
	if err != nil {
		return err
	}
	fmt.Fprint(d.deps.Out, d.deps.Renderer.Session(sess, "saved"))
	return nil
}

func (d *Dispatcher) handleManagementArchive(rc *command.ResolvedCommand) error {
	sess, err := d.deps.Sessions.Archive(rc.Arg("name"))
	if err != nil {
		return err
	}
	fmt.Fprint(d.deps.Out, d.deps.Renderer.Session(sess, "archived"))
	return nil
}

func (d *Dispatcher) handleContextRead(rc *command.ResolvedCommand) error {
	if alias := rc.Arg("agent"); alias != "" {
		target, err := d.deps.Agents.Normalize(alias)
		if err != nil {
			return err
		}
		requester := target
		if d.deps.Self != "" {
			if self, err := d.deps.Agents.Normalize(d.deps.Self); err == nil {
				requester = self
			}
		}
		messages, err := d.deps.Contexts.ReadOther(requester, target)
		if err != nil {
			return err
		}
		fmt.Fprint(d.deps.Out, d.deps.Renderer.Messages(target, messages))
		return nil
	}

	self, err := d.self()
	if err != nil {
		return err
	}
	messages, err := d.deps.Contexts.ReadOwn(self)
	if err != nil {
		return err
	}
	fmt.Fprint(d.deps.Out, d.deps.Renderer.Messages(self, messages))
	return nil
}

func (d *Dispatcher) handleContextSend(rc *command.ResolvedCommand) error {
	from, err := d.self()
	if err != nil {
		return err
	}
	body := rc.Arg("message")

	if strings.EqualFold(rc.Arg("agent"), "all") {
		for _, to := range d.deps.Agents.All() {
			if to.Name == from.Name {
				continue
			}
			if _, err := d.deps.Contexts.Send(from, to, body); err != nil {
				return err
			}
			fmt.Fprint(d.deps.Out, d.deps.Renderer.Sent(to, body))
		}
		return nil
	}

	to, err := d.deps.Agents.Normalize(rc.Arg("agent"))
	if err != nil {
		return err
	}
	if _, err := d.deps.Contexts.Send(from, to, body); err != nil {
		return err
	}
	fmt.Fprint(d.deps.Out, d.deps.Renderer.Sent(to, body))
	return nil
}

func (d *Dispatcher) handleContextClear(rc *command.ResolvedCommand) error {
	agent, err := d.deps.Agents.Normalize(rc.Arg("agent"))
	if err != nil {
		return err
	}
	dropped, err := d.deps.Contexts.Clear(agent)
	if err != nil {
		return err
	}
	fmt.Fprintf(d.deps.Out, "Cleared %d message(s) for %s\n", dropped, agent.Name)
	return nil
}

// self resolves the invoking agent from CCC_AGENT.
func (d *Dispatcher) self() (identity.Identity, error) {
	if d.deps.Self == "" {
		return identity.Identity{}, fmt.Errorf("no agent identity configured: set CCC_AGENT or name an agent explicitly")
	}
	return d.deps.Agents.Normalize(d.deps.Self)
}

func (d *Dispatcher) savePatch(note string) map[string]string {
	patch := map[string]string{}
	if note != "" {
		patch["note"] = note
	}
	if d.deps.Self != "" {
		patch["saved_by"] = d.deps.Self
	}
	return patch
}
