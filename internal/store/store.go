// Package store persists session records for the collective.
//
// Each session is one JSON file under the sessions directory. Writes take
// a per-record lock, then commit a full replacement of the serialized
// record via temp file and rename, so concurrent readers never observe a
// partially written record and never need locks of their own.
package store

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/oklog/ulid/v2"

	"github.com/collctx/ccc/internal/identity"
	"github.com/collctx/ccc/internal/lockfile"
	"github.com/collctx/ccc/internal/logging"
)

// Store is the sole writer of session records.
type Store struct {
	dir     string
	lockDir string

	lockTimeout    time.Duration
	lockStaleAfter time.Duration

	// now is injectable for deterministic ordering tests.
	now func() time.Time

	log *logging.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLockTimeout bounds lock acquisition for mutating operations.
func WithLockTimeout(d time.Duration) Option {
	return func(s *Store) { s.lockTimeout = d }
}

// WithLockStaleAfter sets the stale-lock reclaim threshold.
func WithLockStaleAfter(d time.Duration) Option {
	return func(s *Store) { s.lockStaleAfter = d }
}

// WithClock injects the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates a session store over the given directories.
func New(sessionsDir, locksDir string, opts ...Option) (*Store, error) {
	for _, dir := range []string{sessionsDir, locksDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}
	s := &Store{
		dir:            sessionsDir,
		lockDir:        locksDir,
		lockTimeout:    2 * time.Second,
		lockStaleAfter: 30 * time.Second,
		now:            time.Now,
		log:            logging.New("store"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Create starts a session for an agent. With an explicit name the id is
// that name; otherwise it is derived from the agent's short alias plus a
// ULID, so derived ids sort by creation time.
//
// A collision with an existing record is an error, with one sanctioned
// exception: starting against the agent's own Saved session resumes it
// (Saved -> Active). Archived records never come back.
func (s *Store) Create(agent identity.Identity, explicitName string) (*Session, error) {
	id := explicitName
	if id == "" {
		id = s.deriveID(agent)
	}
	if err := validateID(id); err != nil {
		return nil, err
	}

	var out *Session
	err := s.withRecordLock(id, func() error {
		existing, err := s.read(id)
		switch {
		case err == nil:
			if existing.Agent == agent.Name && existing.Status == StatusSaved {
				// Resume: Saved -> Active on explicit start.
				existing.Status = StatusActive
				existing.UpdatedAt = s.now()
				out = existing
				return s.write(existing)
			}
			return &DuplicateError{ID: id, Agent: existing.Agent}
		case IsNotFound(err):
			now := s.now()
			out = &Session{
				ID:         id,
				Agent:      agent.Name,
				AgentShort: agent.Short,
				Status:     StatusActive,
				CreatedAt:  now,
				UpdatedAt:  now,
				Metadata:   map[string]string{},
			}
			return s.write(out)
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("session_create", map[string]any{"id": out.ID, "agent": out.Agent})
	return out.clone(), nil
}

// Save merges the metadata patch into the session (last-write-wins per
// key), stamps UpdatedAt, and marks the session Saved.
func (s *Store) Save(id string, patch map[string]string) (*Session, error) {
	var out *Session
	err := s.withRecordLock(id, func() error {
		sess, err := s.read(id)
		if err != nil {
			return err
		}
		if sess.Archived() {
			return fmt.Errorf("save %s: %w", id, ErrArchived)
		}
		if sess.Metadata == nil {
			sess.Metadata = map[string]string{}
		}
		for k, v := range patch {
			sess.Metadata[k] = v
		}
		sess.Status = StatusSaved
		sess.UpdatedAt = s.now()
		out = sess
		return s.write(sess)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("session_save", map[string]any{"id": id})
	return out.clone(), nil
}

// Archive moves a session to its terminal state. Idempotent: archiving an
// archived session succeeds without touching the record.
func (s *Store) Archive(id string) (*Session, error) {
	var out *Session
	err := s.withRecordLock(id, func() error {
		sess, err := s.read(id)
		if err != nil {
			return err
		}
		if sess.Archived() {
			out = sess
			return nil
		}
		sess.Status = StatusArchived
		sess.UpdatedAt = s.now()
		out = sess
		return s.write(sess)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("session_archive", map[string]any{"id": id})
	return out.clone(), nil
}

// Get retrieves one session. Readers take no lock; the writer's
// atomic-replace discipline guarantees a consistent snapshot.
func (s *Store) Get(id string) (*Session, error) {
	sess, err := s.read(id)
	if err != nil {
		return nil, err
	}
	return sess.clone(), nil
}

// List returns sessions matching the filter, most recently touched first,
// so operators see active work at the top. Corrupt records are skipped
// and logged rather than failing the whole listing.
func (s *Store) List(f Filter) ([]*Session, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	var out []*Session
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		sess, err := s.read(strings.TrimSuffix(name, ".json"))
		if err != nil {
			s.log.Warn("session_skip_corrupt", map[string]any{"record": name}, err)
			continue
		}
		if !f.matches(sess) {
			continue
		}
		out = append(out, sess.clone())
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// ActiveFor returns the agent's most recently touched active session.
func (s *Store) ActiveFor(agent identity.Identity) (*Session, error) {
	sessions, err := s.List(Filter{Agent: agent.Name, Status: StatusActive})
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, &NotFoundError{ID: "active session for " + agent.Name}
	}
	return sessions[0], nil
}

func (f Filter) matches(sess *Session) bool {
	if f.Agent != "" && sess.Agent != f.Agent {
		return false
	}
	if f.Status != "" && sess.Status != f.Status {
		return false
	}
	if f.Pattern != "" {
		ok, err := doublestar.Match(f.Pattern, sess.ID)
		if err != nil || !ok {
			return false
		}
	}
	return true
}

func (s *Store) withRecordLock(id string, fn func() error) error {
	return lockfile.WithLock(s.lockDir, "session-"+id, s.lockTimeout, s.lockStaleAfter, fn)
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

func (s *Store) deriveID(agent identity.Identity) string {
	entropy := ulid.Monotonic(rand.New(rand.NewSource(s.now().UnixNano())), 0)
	id := ulid.MustNew(ulid.Timestamp(s.now()), entropy)
	return strings.ToLower(agent.Short) + "-" + strings.ToLower(id.String())
}

// validateID keeps ids usable as file names.
func validateID(id string) error {
	if id == "" || id != filepath.Base(id) || strings.ContainsAny(id, " \t\n") {
		return fmt.Errorf("invalid session id %q", id)
	}
	return nil
}

func (s *Store) read(id string) (*Session, error) {
	data, err := os.ReadFile(s.path(id))
	if os.IsNotExist(err) {
		return nil, &NotFoundError{ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("read session %s: %w", id, err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, &CorruptError{ID: id, Path: s.path(id), Cause: err}
	}
	if sess.ID != id {
		return nil, &CorruptError{ID: id, Path: s.path(id),
			Cause: fmt.Errorf("record id %q does not match file name", sess.ID)}
	}
	return &sess, nil
}

// write commits a full replacement of the record: temp file in the same
// directory, then rename.
func (s *Store) write(sess *Session) error {
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", sess.ID, err)
	}

	tmp, err := os.CreateTemp(s.dir, sess.ID+".*.tmp")
	if err != nil {
		return fmt.Errorf("write session %s: %w", sess.ID, err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write session %s: %w", sess.ID, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("write session %s: %w", sess.ID, err)
	}
	if err := os.Rename(tmpPath, s.path(sess.ID)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("commit session %s: %w", sess.ID, err)
	}
	return nil
}
