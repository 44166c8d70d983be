package game

import (
	"errors"
	"math/rand"
	"sync"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrNotHost         = errors.New("not host")
)

// Manager tracks presentation sessions by code. The server runs in
// single-session mode: the most recently created session is the active
// one the screens attach to.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	active   string
}

func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*Session)}
}

// Create starts a new session and makes it the active one.
func (m *Manager) Create(cfg SessionConfig) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	code := randomCode(5)
	for m.sessions[code] != nil {
		code = randomCode(5)
	}
	s := newSession(code, cfg)
	m.sessions[code] = s
	m.active = code
	return s
}

func (m *Manager) Get(code string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.sessions[code]
	if s == nil {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Active returns the active session code and session, or "" and nil.
func (m *Manager) Active() (string, *Session) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.active == "" {
		return "", nil
	}
	return m.active, m.sessions[m.active]
}

// Authorize checks a host token against a session.
func (m *Manager) Authorize(code, hostToken string) (*Session, error) {
	s, err := m.Get(code)
	if err != nil {
		return nil, err
	}
	if s.HostToken != hostToken {
		return nil, ErrNotHost
	}
	return s, nil
}

func randomCode(n int) string {
	letters := []rune("ABCDEFGHJKLMNPQRSTUVWXYZ23456789")
	b := make([]rune, n)
	for i := range b {
		b[i] = letters[rand.Intn(len(letters))]
	}
	return string(b)
}
