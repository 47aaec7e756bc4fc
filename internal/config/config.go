// Package config provides centralized configuration for the ccc tool.
// It is the single place that reads the environment; everything else
// receives paths and settings as values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/collctx/ccc/internal/identity"
)

// Env holds all CCC environment variables.
type Env struct {
	// ConfigRoot is the state directory (CCC_CONFIG_ROOT, default ~/.ccc).
	ConfigRoot string

	// Agent is the alias of the invoking agent (CCC_AGENT). Required
	// for "read own context" and as the sender of messages.
	Agent string

	// LogLevel is the structured log threshold (CCC_LOG_LEVEL,
	// default "warn").
	LogLevel string

	// LockTimeout bounds how long a mutating operation waits for a
	// record lock (CCC_LOCK_TIMEOUT, default 2s).
	LockTimeout time.Duration

	// LockStaleAfter is the age past which a leftover lock from a
	// crashed process is reclaimed (CCC_LOCK_STALE, default 30s).
	LockStaleAfter time.Duration
}

var (
	env     *Env
	envOnce sync.Once
)

// Environment returns the singleton environment configuration.
// Thread-safe, loads once on first call.
func Environment() *Env {
	envOnce.Do(func() {
		env = &Env{
			ConfigRoot:     getEnvDefault("CCC_CONFIG_ROOT", defaultRoot()),
			Agent:          os.Getenv("CCC_AGENT"),
			LogLevel:       getEnvDefault("CCC_LOG_LEVEL", "warn"),
			LockTimeout:    getDurationDefault("CCC_LOCK_TIMEOUT", 2*time.Second),
			LockStaleAfter: getDurationDefault("CCC_LOCK_STALE", 30*time.Second),
		}
	})
	return env
}

// ResetEnvironment resets the cached environment (for testing).
func ResetEnvironment() {
	envOnce = sync.Once{}
	env = nil
}

func defaultRoot() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".ccc")
}

func getEnvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDurationDefault(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

// Paths holds the standard directories under the config root.
type Paths struct {
	// Root is the config root directory.
	Root string

	// Sessions holds one JSON record per session id.
	Sessions string

	// Context holds one append log per agent.
	Context string

	// Locks holds the per-record lock files.
	Locks string

	// AgentsFile is the optional agents.yaml extending the builtin
	// identity table.
	AgentsFile string
}

// NewPaths lays out the directories under an injected root. Directory
// discovery (XDG and friends) is the caller's concern, not ours.
func NewPaths(root string) *Paths {
	return &Paths{
		Root:       root,
		Sessions:   filepath.Join(root, "sessions"),
		Context:    filepath.Join(root, "context"),
		Locks:      filepath.Join(root, "locks"),
		AgentsFile: filepath.Join(root, "agents.yaml"),
	}
}

// Ensure creates the directory tree.
func (p *Paths) Ensure() error {
	for _, dir := range []string{p.Root, p.Sessions, p.Context, p.Locks} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

// agentsFile is the on-disk shape of agents.yaml.
type agentsFile struct {
	Agents []identity.Definition `yaml:"agents"`
}

// LoadAgents returns the builtin agent definitions merged with any
// declared in agents.yaml: a yaml definition whose alias or name matches a
// builtin replaces that builtin, others are appended. A missing file is
// not an error; a malformed one is.
func LoadAgents(path string) ([]identity.Definition, error) {
	defs := identity.Builtin()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return defs, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var extra agentsFile
	if err := yaml.Unmarshal(data, &extra); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	for _, def := range extra.Agents {
		defs = mergeDefinition(defs, def)
	}
	return defs, nil
}

func mergeDefinition(defs []identity.Definition, def identity.Definition) []identity.Definition {
	for i := range defs {
		if strings.EqualFold(defs[i].Alias, def.Alias) || strings.EqualFold(defs[i].Name, def.Name) {
			defs[i] = def
			return defs
		}
	}
	return append(defs, def)
}
