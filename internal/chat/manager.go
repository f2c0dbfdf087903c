package chat

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/design-review/backend/internal/projects"
	"github.com/design-review/backend/internal/responder"
	"github.com/design-review/backend/internal/upload"
	"go.uber.org/zap"
)

// DefaultMaxSessions limits concurrent sessions to bound memory use.
const DefaultMaxSessions = 100

var (
	ErrNotFound        = errors.New("session not found")
	ErrTooManySessions = errors.New("too many active sessions")
	ErrUnknownSurface  = errors.New("unknown chat surface")
	ErrManagerClosed   = errors.New("session manager closed")
)

// Manager owns the live chat sessions.
type Manager struct {
	sessions map[string]*Session
	mu       sync.RWMutex
	closed   bool

	surfaces map[string]Surface
	tracker  *upload.Tracker
	projects projects.Repository
	catalog  *responder.Catalog
	logger   *zap.Logger

	maxSessions int
	ctx         context.Context
	cancel      context.CancelFunc
}

// Option configures a Manager.
type Option func(*managerOptions)

type managerOptions struct {
	logger      *zap.Logger
	maxSessions int
	catalog     *responder.Catalog
	rng         *rand.Rand
	replyDelay  *time.Duration
	presetScale float64
}

// WithLogger sets the manager logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *managerOptions) { o.logger = l }
}

// WithMaxSessions caps the number of live sessions.
func WithMaxSessions(n int) Option {
	return func(o *managerOptions) { o.maxSessions = n }
}

// WithCatalog replaces the embedded response catalog.
func WithCatalog(c *responder.Catalog) Option {
	return func(o *managerOptions) { o.catalog = c }
}

// WithRand makes template picks deterministic.
func WithRand(r *rand.Rand) Option {
	return func(o *managerOptions) { o.rng = r }
}

// WithReplyDelay overrides every surface's reply and acknowledgement delay.
func WithReplyDelay(d time.Duration) Option {
	return func(o *managerOptions) { o.replyDelay = &d }
}

// WithPresetScale multiplies every surface's progress intervals.
func WithPresetScale(f float64) Option {
	return func(o *managerOptions) { o.presetScale = f }
}

// NewManager creates a session manager. repo may be nil, which disables
// project creation.
func NewManager(tracker *upload.Tracker, repo projects.Repository, opts ...Option) *Manager {
	o := managerOptions{logger: zap.NewNop(), maxSessions: DefaultMaxSessions}
	for _, opt := range opts {
		opt(&o)
	}
	if o.catalog == nil {
		o.catalog = responder.DefaultCatalog()
	}

	surfaces := DefaultSurfaces(o.catalog, o.rng)
	for name, s := range surfaces {
		if o.replyDelay != nil {
			s.ReplyDelay = *o.replyDelay
			s.AckDelay = *o.replyDelay
		}
		if o.presetScale > 0 {
			s.Preset = s.Preset.Scaled(o.presetScale)
		}
		surfaces[name] = s
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		sessions:    make(map[string]*Session),
		surfaces:    surfaces,
		tracker:     tracker,
		projects:    repo,
		catalog:     o.catalog,
		logger:      o.logger,
		maxSessions: o.maxSessions,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Surfaces lists the available surfaces by name.
func (m *Manager) Surfaces() []SurfaceInfo {
	out := make([]SurfaceInfo, 0, len(m.surfaces))
	for _, s := range m.surfaces {
		out = append(out, s.Info())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Create opens a session on the named surface.
func (m *Manager) Create(surface string) (*Session, error) {
	cfg, ok := m.surfaces[surface]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSurface, surface)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrManagerClosed
	}
	if m.maxSessions > 0 && len(m.sessions) >= m.maxSessions {
		return nil, ErrTooManySessions
	}

	s := newSession(m.ctx, m, cfg)
	m.sessions[s.ID] = s
	m.logger.Info("session created", zap.String("session", shortID(s.ID)), zap.String("surface", surface))
	return s, nil
}

// Get returns a session and marks it active.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		s.touch()
	}
	return s, ok
}

// CloseSession closes and forgets a session.
func (m *Manager) CloseSession(id string) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if ok {
		s.Close()
		m.logger.Info("session closed", zap.String("session", shortID(id)))
	}
	return ok
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CleanupIdle closes sessions with no activity for longer than maxAge and
// returns how many were closed.
func (m *Manager) CleanupIdle(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	m.mu.Lock()
	var stale []*Session
	for id, s := range m.sessions {
		if s.idleSince().Before(cutoff) {
			stale = append(stale, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range stale {
		s.Close()
		m.logger.Info("cleaned up idle session",
			zap.String("session", shortID(s.ID)),
			zap.Duration("idle", time.Since(s.idleSince()).Round(time.Second)))
	}
	return len(stale)
}

// Close closes every session and refuses new ones.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	sessions := make([]*Session, 0, len(m.sessions))
	for id, s := range m.sessions {
		sessions = append(sessions, s)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	m.cancel()
	for _, s := range sessions {
		s.Close()
	}
}
