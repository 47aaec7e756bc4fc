// Package logging provides structured JSON logging for ccc components.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// Level represents log severity
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

var levelRank = map[Level]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// Event represents a structured log event
type Event struct {
	Timestamp string         `json:"ts"`
	Level     Level          `json:"level"`
	Component string         `json:"component"`
	Event     string         `json:"event"`
	Agent     string         `json:"agent,omitempty"`
	Session   string         `json:"session,omitempty"`
	Error     string         `json:"error,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// Logger provides structured logging. Events below the threshold are
// dropped so normal CLI output stays quiet.
type Logger struct {
	component string
	agent     string
	session   string
	threshold Level
	out       io.Writer
}

// New creates a new logger for a component. The threshold comes from
// CCC_LOG_LEVEL and defaults to warn.
func New(component string) *Logger {
	threshold := Level(os.Getenv("CCC_LOG_LEVEL"))
	if _, ok := levelRank[threshold]; !ok {
		threshold = LevelWarn
	}
	return &Logger{
		component: component,
		agent:     os.Getenv("CCC_AGENT"),
		threshold: threshold,
		out:       os.Stderr,
	}
}

// WithAgent sets the agent context
func (l *Logger) WithAgent(agent string) *Logger {
	out := *l
	out.agent = agent
	return &out
}

// WithSession sets the session context
func (l *Logger) WithSession(session string) *Logger {
	out := *l
	out.session = session
	return &out
}

// WithOutput redirects the logger (for testing).
func (l *Logger) WithOutput(w io.Writer) *Logger {
	out := *l
	out.out = w
	return &out
}

// log emits a structured log event
func (l *Logger) log(level Level, event string, extra map[string]any, err error) {
	if levelRank[level] < levelRank[l.threshold] {
		return
	}
	e := Event{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     level,
		Component: l.component,
		Event:     event,
		Agent:     l.agent,
		Session:   l.session,
		Extra:     extra,
	}
	if err != nil {
		e.Error = err.Error()
	}

	data, _ := json.Marshal(e)
	fmt.Fprintln(l.out, string(data))
}

// Debug logs a debug event
func (l *Logger) Debug(event string, extra map[string]any) {
	l.log(LevelDebug, event, extra, nil)
}

// Info logs an info event
func (l *Logger) Info(event string, extra map[string]any) {
	l.log(LevelInfo, event, extra, nil)
}

// Warn logs a warning event
func (l *Logger) Warn(event string, extra map[string]any, err error) {
	l.log(LevelWarn, event, extra, err)
}

// Error logs an error event
func (l *Logger) Error(event string, extra map[string]any, err error) {
	l.log(LevelError, event, extra, err)
}
