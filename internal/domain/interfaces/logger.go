// Package interfaces defines core domain contracts.
//
//nolint:revive // Package name 'interfaces' is intentional for domain layer
package interfaces

import "sync"

// Logger defines the interface for structured logging
type Logger interface {
	// Debug logs debug-level messages
	Debug(msg string, fields ...Field)

	// Info logs informational messages
	Info(msg string, fields ...Field)

	// Warn logs warning messages
	Warn(msg string, fields ...Field)

	// Error logs error messages
	Error(msg string, fields ...Field)

	// Named returns a sub-logger scoped to one pipeline component
	Named(name string) Logger
}

// Field represents a structured log field
type Field struct {
	Key   string
	Value interface{}
}

// F creates a new Field (convenience function)
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// NoOpLogger is a logger that does nothing (useful for tests)
type NoOpLogger struct{}

// Debug does nothing (no-op implementation)
func (n *NoOpLogger) Debug(_ string, _ ...Field) {}

// Info does nothing (no-op implementation)
func (n *NoOpLogger) Info(_ string, _ ...Field) {}

// Warn does nothing (no-op implementation)
func (n *NoOpLogger) Warn(_ string, _ ...Field) {}

// Error does nothing (no-op implementation)
func (n *NoOpLogger) Error(_ string, _ ...Field) {}

// Named returns the same no-op logger
func (n *NoOpLogger) Named(_ string) Logger { return n }

// Entry is one message captured by a MemoryLogger
type Entry struct {
	Level   string
	Name    string
	Message string
	Fields  []Field
}

// MemoryLogger records every message in memory so tests can assert on them
type MemoryLogger struct {
	mu      *sync.Mutex
	entries *[]Entry
	name    string
}

// NewMemoryLogger creates an empty MemoryLogger
func NewMemoryLogger() *MemoryLogger {
	return &MemoryLogger{mu: &sync.Mutex{}, entries: &[]Entry{}}
}

// Debug records a debug-level message
func (m *MemoryLogger) Debug(msg string, fields ...Field) { m.record("DEBUG", msg, fields) }

// Info records an informational message
func (m *MemoryLogger) Info(msg string, fields ...Field) { m.record("INFO", msg, fields) }

// Warn records a warning message
func (m *MemoryLogger) Warn(msg string, fields ...Field) { m.record("WARN", msg, fields) }

// Error records an error message
func (m *MemoryLogger) Error(msg string, fields ...Field) { m.record("ERROR", msg, fields) }

// Named returns a logger sharing the same entry list under a new name
func (m *MemoryLogger) Named(name string) Logger {
	child := *m
	if child.name != "" {
		name = child.name + "." + name
	}
	child.name = name
	return &child
}

// Entries returns a snapshot of everything recorded so far
func (m *MemoryLogger) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Entry(nil), (*m.entries)...)
}

// HasEntry reports whether a message was recorded at the given level
func (m *MemoryLogger) HasEntry(level, msg string) bool {
	for _, e := range m.Entries() {
		if e.Level == level && e.Message == msg {
			return true
		}
	}
	return false
}

func (m *MemoryLogger) record(level, msg string, fields []Field) {
	m.mu.Lock()
	defer m.mu.Unlock()
	*m.entries = append(*m.entries, Entry{Level: level, Name: m.name, Message: msg, Fields: fields})
}
