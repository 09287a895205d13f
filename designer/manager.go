package designer

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"promo-designer/models"
)

// Default canvas display size the storefront designer renders at.
const (
	DefaultCanvasWidth  = 1000.0
	DefaultCanvasHeight = 800.0
)

// Session is one buyer's designer: an orchestrator plus bookkeeping for
// idle expiry.
type Session struct {
	ID string
	*Orchestrator

	createdAt  time.Time
	lastActive time.Time
}

// Manager owns the live designer sessions, keyed by uuid, and reaps the
// ones idle past the TTL.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	meta      MetadataProvider
	resolver  TemplateResolver
	snapshots *SnapshotStore

	ttl time.Duration
}

// NewManager creates a session manager. A ttl of zero disables reaping.
func NewManager(meta MetadataProvider, resolver TemplateResolver, snapshots *SnapshotStore, ttl time.Duration) *Manager {
	m := &Manager{
		sessions:  make(map[string]*Session),
		meta:      meta,
		resolver:  resolver,
		snapshots: snapshots,
		ttl:       ttl,
	}
	if ttl > 0 {
		go m.reapLoop()
	}
	return m
}

// Open creates a session and runs the initial product transition
func (m *Manager) Open(ctx context.Context, productKey string) (*Session, error) {
	surface := NewSurface(DefaultCanvasWidth, DefaultCanvasHeight)
	surface.MeasureText = MeasureText

	sess := &Session{
		ID:           uuid.NewString(),
		Orchestrator: NewOrchestrator(m.meta, m.resolver, m.snapshots, surface),
		createdAt:    time.Now(),
		lastActive:   time.Now(),
	}

	if err := sess.SelectProduct(ctx, productKey); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[sess.ID] = sess
	m.mu.Unlock()

	log.Printf("✓ Designer session opened: id=%s product=%s", sess.ID, productKey)
	return sess, nil
}

// Get returns a live session and refreshes its idle clock
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %q: %w", id, models.ErrNotFound)
	}
	sess.lastActive = time.Now()
	return sess, nil
}

// Close removes a session
func (m *Manager) Close(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// Count returns the number of live sessions
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) reapLoop() {
	ticker := time.NewTicker(m.ttl / 2)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-m.ttl)
		m.mu.Lock()
		for id, sess := range m.sessions {
			if sess.lastActive.Before(cutoff) {
				delete(m.sessions, id)
				log.Printf("🧹 Reaped idle designer session: id=%s", id)
			}
		}
		m.mu.Unlock()
	}
}
