package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/vokinneberg/research-assistant/internal/assistant"
)

type entry struct {
	controller *assistant.Controller
	lastSeen   time.Time
}

// Store keeps one controller per browser session and drops idle ones
type Store struct {
	searcher assistant.Searcher
	ttl      time.Duration
	interval time.Duration
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	cron   *cron.Cron

	mu       sync.Mutex
	sessions map[string]*entry

	// swept tracks searches of removed sessions that are still winding down
	swept sync.WaitGroup
}

// NewStore creates a session store. Sessions idle for longer than ttl are
// removed by sweeps run every interval once Start is called.
func NewStore(searcher assistant.Searcher, ttl, interval time.Duration) *Store {
	ctx, cancel := context.WithCancel(context.Background())
	return &Store{
		searcher: searcher,
		ttl:      ttl,
		interval: interval,
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
		cron:     cron.New(),
		sessions: make(map[string]*entry),
	}
}

// Create starts a new session and returns its ID and controller
func (s *Store) Create() (string, *assistant.Controller) {
	id := uuid.NewString()
	c := assistant.NewController(s.ctx, s.searcher)

	s.mu.Lock()
	s.sessions[id] = &entry{controller: c, lastSeen: s.now()}
	s.mu.Unlock()

	slog.Debug("Session created", "session_id", id)
	return id, c
}

// Get returns the controller of session id and marks the session as seen
func (s *Store) Get(id string) (*assistant.Controller, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	e.lastSeen = s.now()
	return e.controller, true
}

// Len returns the number of live sessions
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep closes and removes sessions not seen since now minus the TTL.
// It returns the number of sessions removed.
func (s *Store) Sweep(now time.Time) int {
	var expired []*assistant.Controller

	s.mu.Lock()
	for id, e := range s.sessions {
		if now.Sub(e.lastSeen) > s.ttl {
			expired = append(expired, e.controller)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, c := range expired {
		c.Close()
		s.swept.Add(1)
		go func(c *assistant.Controller) {
			defer s.swept.Done()
			c.Wait()
		}(c)
	}
	if len(expired) > 0 {
		slog.Info("Expired sessions swept", "count", len(expired))
	}
	return len(expired)
}

// Start schedules periodic sweeps
func (s *Store) Start() error {
	schedule := fmt.Sprintf("@every %s", s.interval)
	if _, err := s.cron.AddFunc(schedule, func() { s.Sweep(s.now()) }); err != nil {
		return fmt.Errorf("failed to schedule session sweep: %w", err)
	}
	s.cron.Start()
	return nil
}

// Stop halts sweeping, cancels every in-flight search and waits for them,
// including searches of sessions already swept
func (s *Store) Stop() {
	<-s.cron.Stop().Done()
	s.cancel()

	s.mu.Lock()
	controllers := make([]*assistant.Controller, 0, len(s.sessions))
	for _, e := range s.sessions {
		controllers = append(controllers, e.controller)
	}
	s.mu.Unlock()

	for _, c := range controllers {
		c.Close()
		c.Wait()
	}
	s.swept.Wait()
}
