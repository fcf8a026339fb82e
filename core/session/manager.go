package session

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/eaduck/client/core"
	"github.com/eaduck/client/core/sched"
)

const watchdogKey = "session-watchdog"

// Manager owns the authentication state transitions:
// ANONYMOUS -> AUTHENTICATING -> AUTHENTICATED -> (REFRESHING) -> AUTHENTICATED | ANONYMOUS.
// It is the single writer of the Credential; readers observe the identity
// through Subscribe.
type Manager struct {
	store  Store
	gw     Gateway
	sched  *sched.Scheduler
	clock  clockwork.Clock
	logger core.Logger

	sessionTTL       time.Duration
	inactivityTTL    time.Duration
	watchdogInterval time.Duration

	mu           sync.Mutex
	cred         *Credential
	ident        *Identity
	lastActivity time.Time
	refreshing   bool
	subs         []func(*Identity)
}

func NewManager(store Store, gw Gateway, scheduler *sched.Scheduler, clock clockwork.Clock, logger core.Logger) *Manager {
	return &Manager{
		store:            store,
		gw:               gw,
		sched:            scheduler,
		clock:            clock,
		logger:           logger,
		sessionTTL:       core.Conf.GetDuration("sessionTtl"),
		inactivityTTL:    core.Conf.GetDuration("inactivityTtl"),
		watchdogInterval: core.Conf.GetDuration("watchdogInterval"),
	}
}

// Init restores persisted state. A credential without a cached identity
// triggers a profile fetch; if that fails the session is discarded.
func (m *Manager) Init(ctx context.Context) error {
	st, err := m.store.Load()
	if err != nil {
		return err
	}
	if st == nil {
		return nil
	}

	now := m.clock.Now().UTC()
	if now.Sub(st.Credential.LastUsedAt) > m.sessionTTL {
		return m.store.Clear()
	}

	m.mu.Lock()
	cred := st.Credential
	m.cred = &cred
	m.ident = st.Identity
	m.lastActivity = now
	m.mu.Unlock()

	if st.Identity == nil {
		ident, err := m.gw.Me(ctx)
		if err != nil {
			m.logger.Warn("session: could not restore profile, logging out", err)
			m.Logout()
			return nil
		}
		m.mu.Lock()
		m.ident = &ident
		m.persistLocked()
		m.mu.Unlock()
	}

	m.notify(m.CurrentIdentity())
	return m.startWatchdog()
}

// Login authenticates against the gateway. On failure the manager stays
// anonymous and the gateway's error is returned unchanged.
func (m *Manager) Login(ctx context.Context, creds Credentials) (Identity, error) {
	if err := creds.Validate(); err != nil {
		return Identity{}, err
	}

	res, err := m.gw.Login(ctx, creds.Email, creds.Password)
	if err != nil {
		return Identity{}, err
	}

	now := m.clock.Now().UTC()
	m.mu.Lock()
	m.cred = &Credential{Token: res.Token, IssuedAt: now, LastUsedAt: now}
	m.lastActivity = now
	m.mu.Unlock()

	ident, err := m.gw.Me(ctx)
	if err != nil {
		m.Logout()
		return Identity{}, err
	}

	m.mu.Lock()
	m.ident = &ident
	m.persistLocked()
	m.mu.Unlock()

	m.notify(&ident)
	if err := m.startWatchdog(); err != nil {
		return Identity{}, err
	}
	return ident, nil
}

// IsAuthenticated reports whether a non-expired credential is present.
// An expired credential is cleared as a side effect and subscribers are
// notified of the anonymous state.
func (m *Manager) IsAuthenticated() bool {
	m.mu.Lock()
	if m.cred == nil {
		m.mu.Unlock()
		return false
	}
	if m.clock.Now().UTC().Sub(m.cred.LastUsedAt) > m.sessionTTL {
		subs := m.logoutLocked()
		m.mu.Unlock()
		m.emit(subs, nil)
		return false
	}
	m.mu.Unlock()
	return true
}

// TouchActivity records observed user interaction; it feeds the inactivity
// watchdog only and does not extend the credential's TTL.
func (m *Manager) TouchActivity() {
	m.mu.Lock()
	m.lastActivity = m.clock.Now().UTC()
	m.mu.Unlock()
}

// CurrentIdentity returns the cached identity, or nil when anonymous.
func (m *Manager) CurrentIdentity() *Identity {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ident == nil {
		return nil
	}
	ident := *m.ident
	return &ident
}

// Token exposes the current credential's token; the gateway uses it as its
// token source. Empty when anonymous.
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cred == nil {
		return ""
	}
	return m.cred.Token
}

// Subscribe registers an identity observer. The current value is emitted
// immediately; nil means anonymous.
func (m *Manager) Subscribe(fn func(*Identity)) {
	m.mu.Lock()
	m.subs = append(m.subs, fn)
	var cur *Identity
	if m.ident != nil {
		ident := *m.ident
		cur = &ident
	}
	m.mu.Unlock()
	fn(cur)
}

// Logout clears the credential, the identity and the watchdog; idempotent.
func (m *Manager) Logout() {
	m.mu.Lock()
	subs := m.logoutLocked()
	m.mu.Unlock()
	m.emit(subs, nil)
}

// logoutLocked clears all session state and returns the subscribers to
// notify, or nil when there was nothing to clear. Callers must emit after
// releasing the lock.
func (m *Manager) logoutLocked() []func(*Identity) {
	if m.cred == nil && m.ident == nil {
		return nil
	}
	m.cred = nil
	m.ident = nil
	m.sched.Cancel(watchdogKey)
	if err := m.store.Clear(); err != nil {
		m.logger.Error("session: clearing stored state failed", err)
	}
	return append(m.subs[:0:0], m.subs...)
}

func (m *Manager) startWatchdog() error {
	return m.sched.Register(watchdogKey, m.watchdogInterval, m.watchdogTick)
}

// watchdogTick runs every watchdogInterval while authenticated. Inactivity
// past the TTL forces a logout; otherwise the token is refreshed. A tick that
// would overlap an unfinished refresh is skipped, not queued.
func (m *Manager) watchdogTick(ctx context.Context) {
	m.mu.Lock()
	if m.cred == nil || m.refreshing {
		m.mu.Unlock()
		return
	}
	now := m.clock.Now().UTC()
	if now.Sub(m.lastActivity) >= m.inactivityTTL || now.Sub(m.cred.LastUsedAt) > m.sessionTTL {
		subs := m.logoutLocked()
		m.mu.Unlock()
		m.emit(subs, nil)
		return
	}
	m.refreshing = true
	token := m.cred.Token
	m.mu.Unlock()

	newToken, err := m.gw.Refresh(ctx, token)

	m.mu.Lock()
	m.refreshing = false
	if m.cred == nil || m.cred.Token != token { // logged out or rotated meanwhile
		m.mu.Unlock()
		return
	}
	if err != nil {
		m.logger.Warn("session: token refresh failed, logging out", err)
		subs := m.logoutLocked()
		m.mu.Unlock()
		m.emit(subs, nil)
		return
	}
	m.cred.Token = newToken
	m.cred.LastUsedAt = m.clock.Now().UTC()
	m.persistLocked()
	m.mu.Unlock()
}

func (m *Manager) persistLocked() {
	if m.cred == nil {
		return
	}
	st := &State{Credential: *m.cred, Identity: m.ident}
	if err := m.store.Save(st); err != nil {
		m.logger.Error("session: persisting state failed", err)
	}
}

func (m *Manager) notify(ident *Identity) {
	m.mu.Lock()
	subs := append(m.subs[:0:0], m.subs...)
	m.mu.Unlock()
	m.emit(subs, ident)
}

func (m *Manager) emit(subs []func(*Identity), ident *Identity) {
	for _, fn := range subs {
		fn(ident)
	}
}
