package flow

import (
	"context"
	"fmt"
	"sync"

	"github.com/jlevy/markform/form"
)

// Store provides read/write access to sessions, using the context for
// routing so one flow can serve many concurrent conversations.
type Store interface {
	Init(ctx context.Context) (*Session, error)
	Read(ctx context.Context) (*Session, error)
	Write(ctx context.Context, session *Session) error
	Remove(ctx context.Context) error
}

type sessionKeyContext struct{}

const defaultSessionKey = "default"

// WithSessionKey sets the routing key for session storage in the context.
func WithSessionKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, sessionKeyContext{}, key)
}

// SessionKeyFromContext gets the routing key from the context.
func SessionKeyFromContext(ctx context.Context) (string, bool) {
	value := ctx.Value(sessionKeyContext{})
	if value == nil {
		return "", false
	}
	key, ok := value.(string)
	return key, ok
}

func sessionKeyOrDefault(ctx context.Context) string {
	if key, ok := SessionKeyFromContext(ctx); ok && key != "" {
		return key
	}
	return defaultSessionKey
}

// MemoryStore is an in-memory Store for tests and local usage. Each session
// gets its own fresh form built from the schema.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	schema   *form.Schema
}

func NewMemoryStore(schema *form.Schema) *MemoryStore {
	return &MemoryStore{
		sessions: map[string]*Session{},
		schema:   schema,
	}
}

func (m *MemoryStore) Init(ctx context.Context) (*Session, error) {
	f, err := form.New(m.schema)
	if err != nil {
		return nil, fmt.Errorf("init session form: %w", err)
	}
	return &Session{Phase: PhaseCollecting, Form: f}, nil
}

func (m *MemoryStore) Read(ctx context.Context) (*Session, error) {
	m.mu.RLock()
	session, ok := m.sessions[sessionKeyOrDefault(ctx)]
	m.mu.RUnlock()
	if ok {
		return session, nil
	}
	return m.Init(ctx)
}

func (m *MemoryStore) Write(ctx context.Context, session *Session) error {
	if session.Phase == "" {
		session.Phase = PhaseCollecting
	}
	m.mu.Lock()
	m.sessions[sessionKeyOrDefault(ctx)] = session
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Remove(ctx context.Context) error {
	m.mu.Lock()
	delete(m.sessions, sessionKeyOrDefault(ctx))
	m.mu.Unlock()
	return nil
}
