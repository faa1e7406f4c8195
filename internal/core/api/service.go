// Package api provides the gRPC query editor service.
package api

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/solatis/querybuilder/internal/catalog"
	"github.com/solatis/querybuilder/internal/core/config"
	"github.com/solatis/querybuilder/internal/core/observability"
	"github.com/solatis/querybuilder/internal/core/store"
	"github.com/solatis/querybuilder/internal/rules"
	"github.com/solatis/querybuilder/internal/types"
)

// QueryEditorService implements QueryEditorServer.
// Thin orchestration layer delegating to the rules, catalog and store packages.
type QueryEditorService struct {
	catalog *catalog.Catalog
	cfg     *config.ServerConfig
	store   *store.Store // nil disables Save and List
	metrics *observability.Metrics

	mu       sync.Mutex
	sessions map[string]*session
}

// NewQueryEditorService creates service instance with dependencies.
func NewQueryEditorService(cat *catalog.Catalog, st *store.Store, metrics *observability.Metrics, cfg *config.ServerConfig) (*QueryEditorService, error) {
	if cat == nil {
		return nil, fmt.Errorf("catalog cannot be nil")
	}
	if metrics == nil {
		return nil, fmt.Errorf("metrics cannot be nil")
	}
	if cfg == nil {
		return nil, fmt.Errorf("cfg cannot be nil")
	}

	return &QueryEditorService{
		catalog:  cat,
		cfg:      cfg,
		store:    st,
		metrics:  metrics,
		sessions: make(map[string]*session),
	}, nil
}

// session is one open editor. Its mutex serializes edits to the builder.
type session struct {
	id string

	mu       sync.Mutex
	builder  *rules.Builder
	version  int64 // committed snapshots, including the initial one
	advanced bool  // caller left the normal view

	// Set by the most recent property change notification.
	lastProp   rules.Property
	lastRuleID string
}

// newSession builds a session around query. selectedColumn, when set, names
// the field of new default rules.
func (s *QueryEditorService) newSession(query types.Node, selectedColumn string) (*session, error) {
	sess := &session{id: types.NewSessionID()}

	opts := s.catalog.Options()
	s.cfg.Builder.Apply(&opts)
	if selectedColumn != "" {
		opts.SelectedColumn = func() string { return selectedColumn }
	}
	opts.OnChange = func(_ *types.Group, prop rules.Property, ruleID string) {
		sess.version++
		sess.lastProp, sess.lastRuleID = prop, ruleID
		s.metrics.Notifications.Inc()
	}
	opts.OnAdvanced = func() { sess.advanced = true }

	b, err := rules.NewBuilder(query, opts)
	if err != nil {
		return nil, err
	}
	sess.builder = b
	return sess, nil
}

// register adds sess unless the session limit is reached.
func (s *QueryEditorService) register(sess *session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.sessions) >= s.cfg.MaxSessions {
		s.metrics.SessionRejected()
		log.Warn().Int("max", s.cfg.MaxSessions).Msg("Max sessions limit reached")
		return types.ErrTooManySessions
	}
	s.sessions[sess.id] = sess
	s.metrics.SessionOpened()
	log.Debug().Str("session_id", sess.id).Msg("Session opened")
	return nil
}

func (s *QueryEditorService) lookup(id string) (*session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, types.ErrSessionNotFound)
	}
	return sess, nil
}

func (s *QueryEditorService) remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return fmt.Errorf("session %s: %w", id, types.ErrSessionNotFound)
	}
	delete(s.sessions, id)
	s.metrics.SessionClosed()
	log.Debug().Str("session_id", id).Msg("Session closed")
	return nil
}

// SessionCount returns the number of open sessions.
func (s *QueryEditorService) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
