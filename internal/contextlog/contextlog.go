// Package contextlog routes short textual messages between agents.
//
// Every agent owns one context document: an append-only JSON Lines log of
// the messages addressed to it. Sending from A to B appends to B's
// document, never to A's own. Documents grow monotonically until an
// operator clears them.
package contextlog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/collctx/ccc/internal/identity"
	"github.com/collctx/ccc/internal/lockfile"
	"github.com/collctx/ccc/internal/logging"
)

// ErrCorrupt indicates a context document line that does not parse.
var ErrCorrupt = errors.New("corrupt context document")

// CorruptError carries the owning agent and offending line number.
type CorruptError struct {
	Agent string
	Line  int
	Cause error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("corrupt context document for %s (line %d): %v", e.Agent, e.Line, e.Cause)
}

func (e *CorruptError) Unwrap() error {
	return ErrCorrupt
}

// Message is one routed context message.
type Message struct {
	ID     string    `json:"id"`
	From   string    `json:"from"`
	To     string    `json:"to"`
	Body   string    `json:"body"`
	SentAt time.Time `json:"sent_at"`
}

// Router reads and writes per-agent context documents.
type Router struct {
	dir     string
	lockDir string

	lockTimeout    time.Duration
	lockStaleAfter time.Duration

	now func() time.Time
	log *logging.Logger
}

// Option configures a Router.
type Option func(*Router)

// WithLockTimeout bounds lock acquisition for sends and clears.
func WithLockTimeout(d time.Duration) Option {
	return func(r *Router) { r.lockTimeout = d }
}

// WithLockStaleAfter sets the stale-lock reclaim threshold.
func WithLockStaleAfter(d time.Duration) Option {
	return func(r *Router) { r.lockStaleAfter = d }
}

// WithClock injects the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Router) { r.now = now }
}

// New creates a context router over the given directories.
func New(contextDir, locksDir string, opts ...Option) (*Router, error) {
	for _, dir := range []string{contextDir, locksDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}
	r := &Router{
		dir:            contextDir,
		lockDir:        locksDir,
		lockTimeout:    2 * time.Second,
		lockStaleAfter: 30 * time.Second,
		now:            time.Now,
		log:            logging.New("context"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Send appends a message to the recipient's document. Both identities
// have already passed normalization, so this cannot invent an agent.
func (r *Router) Send(from, to identity.Identity, body string) (*Message, error) {
	msg := &Message{
		ID:     uuid.NewString(),
		From:   from.Name,
		To:     to.Name,
		Body:   body,
		SentAt: r.now().UTC(),
	}

	err := r.withDocumentLock(to, func() error {
		messages, err := r.readDocument(to)
		if err != nil {
			return err
		}
		return r.writeDocument(to, append(messages, *msg))
	})
	if err != nil {
		return nil, err
	}
	r.log.Info("context_send", map[string]any{"from": from.Name, "to": to.Name})
	return msg, nil
}

// ReadOwn returns the agent's accumulated messages, oldest first. This is
// a log, not a set: insertion order is the contract.
func (r *Router) ReadOwn(agent identity.Identity) ([]Message, error) {
	return r.readDocument(agent)
}

// ReadOther returns another agent's document. This is a local
// collaboration tool; identity validity is the only gate.
func (r *Router) ReadOther(requester, target identity.Identity) ([]Message, error) {
	_ = requester
	return r.readDocument(target)
}

// Clear atomically empties an agent's document and returns how many
// messages were dropped.
func (r *Router) Clear(agent identity.Identity) (int, error) {
	cleared := 0
	err := r.withDocumentLock(agent, func() error {
		messages, err := r.readDocument(agent)
		if err != nil {
			return err
		}
		cleared = len(messages)
		return r.writeDocument(agent, nil)
	})
	if err != nil {
		return 0, err
	}
	r.log.Info("context_clear", map[string]any{"agent": agent.Name, "dropped": cleared})
	return cleared, nil
}

func (r *Router) withDocumentLock(agent identity.Identity, fn func() error) error {
	return lockfile.WithLock(r.lockDir, "context-"+agent.Name, r.lockTimeout, r.lockStaleAfter, fn)
}

func (r *Router) path(agent identity.Identity) string {
	return filepath.Join(r.dir, agent.Name+".jsonl")
}

func (r *Router) readDocument(agent identity.Identity) ([]Message, error) {
	data, err := os.ReadFile(r.path(agent))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read context for %s: %w", agent.Name, err)
	}

	var messages []Message
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, &CorruptError{Agent: agent.Name, Line: line, Cause: err}
		}
		messages = append(messages, msg)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read context for %s: %w", agent.Name, err)
	}
	return messages, nil
}

// writeDocument commits a full replacement of the document so readers,
// which take no lock, always see a complete log.
func (r *Router) writeDocument(agent identity.Identity, messages []Message) error {
	var buf bytes.Buffer
	for _, msg := range messages {
		data, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("marshal message %s: %w", msg.ID, err)
		}
		buf.Write(data)
		buf.WriteByte('\n')
	}

	tmp, err := os.CreateTemp(r.dir, agent.Name+".*.tmp")
	if err != nil {
		return fmt.Errorf("write context for %s: %w", agent.Name, err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write context for %s: %w", agent.Name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("write context for %s: %w", agent.Name, err)
	}
	if err := os.Rename(tmpPath, r.path(agent)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("commit context for %s: %w", agent.Name, err)
	}
	return nil
}
