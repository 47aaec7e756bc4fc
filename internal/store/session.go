package store

import (
	"time"
)

// Status is the session lifecycle state. Transitions: Active -> Saved ->
// Archived, Active -> Archived directly, and Saved -> Active when work
// resumes. Nothing leaves Archived.
type Status string

const (
	StatusActive   Status = "active"
	StatusSaved    Status = "saved"
	StatusArchived Status = "archived"
)

// Session is one persisted unit of work state for an agent. Exactly one
// on-disk record exists per id; the Store is the sole writer.
type Session struct {
	// ID is unique within the store: an explicit name, or a derived
	// short-alias-plus-ULID id.
	ID string `json:"id"`

	// Agent is the owning agent's canonical name, e.g. "Claude-2".
	Agent string `json:"agent"`

	// AgentShort is the display alias, e.g. "CL2".
	AgentShort string `json:"agent_short"`

	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Metadata is an open string-to-string mapping merged
	// last-write-wins per key by Save.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Archived reports whether the session reached its terminal state.
func (s *Session) Archived() bool {
	return s.Status == StatusArchived
}

// clone returns a deep copy so callers never alias store-internal state.
func (s *Session) clone() *Session {
	out := *s
	if s.Metadata != nil {
		out.Metadata = make(map[string]string, len(s.Metadata))
		for k, v := range s.Metadata {
			out.Metadata[k] = v
		}
	}
	return &out
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	// Agent matches the owning agent's canonical name.
	Agent string

	// Status matches the lifecycle state.
	Status Status

	// Pattern is a glob matched against session ids, e.g. "build-*".
	Pattern string
}
