// internal/service/auth/manager.go
package auth

import (
	"context"
	"sync"

	"lms-web/internal/domain/auth"
	"lms-web/internal/metrics"

	"go.uber.org/zap"
)

// SessionStore is the durable side of the session.
type SessionStore interface {
	Load(ctx context.Context) auth.Session
	Save(ctx context.Context, s auth.Session) error
	Clear(ctx context.Context) error
	Credential(ctx context.Context) (string, bool)
}

// BootstrapCookie is the persisted inbound cookie that can seed a session.
type BootstrapCookie interface {
	Value(ctx context.Context) (string, bool)
	Clear(ctx context.Context) error
}

// Transition reasons reported to listeners.
const (
	ReasonResolved = "resolved"
	ReasonLogin    = "login"
	ReasonRegister = "register"
	ReasonLogout   = "logout"
	ReasonRejected = "rejected"
)

// Transition is delivered to listeners after every publish.
type Transition struct {
	Reason string
	State  auth.SessionState
}

// Listener must not block and must not call back into the Manager's writers.
type Listener func(Transition)

// Manager owns the published session. Writers go through the store first
// and publish second, one at a time, so storage and memory never disagree.
type Manager struct {
	writeMu sync.Mutex

	mu      sync.RWMutex
	session auth.Session
	loading bool

	ready     chan struct{}
	readyOnce sync.Once

	listenersMu sync.RWMutex
	listeners   map[int]Listener
	nextID      int

	store   SessionStore
	cookie  BootstrapCookie
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewManager(store SessionStore, cookie BootstrapCookie, m *metrics.Metrics, logger *zap.Logger) *Manager {
	return &Manager{
		loading:   true,
		ready:     make(chan struct{}),
		listeners: make(map[int]Listener),
		store:     store,
		cookie:    cookie,
		metrics:   m,
		logger:    logger,
	}
}

// Snapshot returns a copy of the published session.
func (m *Manager) Snapshot() auth.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copySession(m.session)
}

// State returns what the presentation layer sees.
func (m *Manager) State() auth.SessionState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return auth.StateOf(m.session, m.loading)
}

// Ready is closed once the startup resolution has settled.
func (m *Manager) Ready() <-chan struct{} {
	return m.ready
}

// Subscribe registers l and returns a function that removes it.
func (m *Manager) Subscribe(l Listener) func() {
	m.listenersMu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = l
	m.listenersMu.Unlock()

	return func() {
		m.listenersMu.Lock()
		delete(m.listeners, id)
		m.listenersMu.Unlock()
	}
}

// Credential reads the persisted credential for the request authorizer.
func (m *Manager) Credential(ctx context.Context) (string, bool) {
	return m.store.Credential(ctx)
}

// settle publishes the resolved session and clears the loading flag.
// The resolver has already written s through the store.
func (m *Manager) settle(s auth.Session) {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	m.mu.Lock()
	m.session = copySession(s)
	m.loading = false
	m.mu.Unlock()

	m.readyOnce.Do(func() { close(m.ready) })
	m.publish(ReasonResolved)
}

// Establish writes s through the store and publishes it.
// Nothing is published when the write fails.
func (m *Manager) Establish(ctx context.Context, s auth.Session, reason string) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	if err := m.store.Save(ctx, s); err != nil {
		return err
	}

	m.mu.Lock()
	m.session = copySession(s)
	m.mu.Unlock()

	m.publish(reason)
	return nil
}

// Teardown clears storage and the bootstrap cookie, then publishes an
// empty session. Storage failures are logged; the in-memory session is
// always cleared.
func (m *Manager) Teardown(ctx context.Context, reason string) {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	m.teardownLocked(ctx, reason)
}

// Reject tears the session down when credential is the one currently
// published. A rejection while signed out, or of a credential that has
// since been replaced, changes nothing.
func (m *Manager) Reject(ctx context.Context, credential string) {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	m.mu.RLock()
	current := m.session
	m.mu.RUnlock()

	if !current.Authenticated() || current.Credential != credential {
		m.logger.Debug("ignoring rejection of inactive credential")
		return
	}

	m.logger.Warn("session rejected by backend, signing out",
		zap.String("user_id", current.Identity.ID),
	)
	m.teardownLocked(ctx, ReasonRejected)
}

func (m *Manager) teardownLocked(ctx context.Context, reason string) {
	// the caller's request may already be cancelled
	ctx = context.WithoutCancel(ctx)

	if err := m.store.Clear(ctx); err != nil {
		m.logger.Error("failed to clear session storage", zap.String("reason", reason), zap.Error(err))
	}
	if m.cookie != nil {
		if err := m.cookie.Clear(ctx); err != nil {
			m.logger.Error("failed to clear bootstrap cookie", zap.String("reason", reason), zap.Error(err))
		}
	}

	m.mu.Lock()
	m.session = auth.Session{}
	m.mu.Unlock()

	m.metrics.Teardown(reason)
	m.publish(reason)
}

func (m *Manager) publish(reason string) {
	state := m.State()
	m.metrics.SetAuthenticated(state.IsAuthenticated)

	m.listenersMu.RLock()
	listeners := make([]Listener, 0, len(m.listeners))
	for _, l := range m.listeners {
		listeners = append(listeners, l)
	}
	m.listenersMu.RUnlock()

	t := Transition{Reason: reason, State: state}
	for _, l := range listeners {
		l(t)
	}
}

func copySession(s auth.Session) auth.Session {
	if s.Identity == nil {
		return s
	}
	id := *s.Identity
	return auth.Session{Credential: s.Credential, Identity: &id}
}
