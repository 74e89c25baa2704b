package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/haiku-studio/internal/core/domain"
	"github.com/kirillkom/haiku-studio/internal/core/ports"
)

// Session is one UI instance with its own pipeline.
type Session struct {
	ID        string
	CreatedAt time.Time
	Pipeline  *PipelineOrchestrator

	lastSeen time.Time
}

// SessionRegistry owns the live sessions of the API process. Sessions idle
// for longer than the TTL are removed by Sweep together with their images.
type SessionRegistry struct {
	newPipeline func() *PipelineOrchestrator
	blobs       ports.ObjectStorage
	ttl         time.Duration
	now         func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewSessionRegistry(newPipeline func() *PipelineOrchestrator, blobs ports.ObjectStorage, ttl time.Duration) *SessionRegistry {
	return &SessionRegistry{
		newPipeline: newPipeline,
		blobs:       blobs,
		ttl:         ttl,
		now:         time.Now,
		sessions:    make(map[string]*Session),
	}
}

func (r *SessionRegistry) Create() *Session {
	now := r.now().UTC()
	session := &Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		Pipeline:  r.newPipeline(),
		lastSeen:  now,
	}
	r.mu.Lock()
	r.sessions[session.ID] = session
	r.mu.Unlock()
	return session
}

// Get returns the session and marks it as recently used.
func (r *SessionRegistry) Get(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "get session", errors.New("session "+id+" does not exist"))
	}
	session.lastSeen = r.now().UTC()
	return session, nil
}

func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *SessionRegistry) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	session, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return domain.WrapError(domain.ErrNotFound, "delete session", errors.New("session "+id+" does not exist"))
	}
	r.releaseImages(ctx, session)
	return nil
}

// Sweep removes idle sessions and returns how many were dropped.
func (r *SessionRegistry) Sweep(ctx context.Context) int {
	if r.ttl <= 0 {
		return 0
	}
	cutoff := r.now().UTC().Add(-r.ttl)

	r.mu.Lock()
	var expired []*Session
	for id, session := range r.sessions {
		if session.lastSeen.Before(cutoff) {
			expired = append(expired, session)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, session := range expired {
		r.releaseImages(ctx, session)
	}
	if len(expired) > 0 {
		slog.Info("sessions_swept", "count", len(expired))
	}
	return len(expired)
}

// Run sweeps on every tick until ctx is done.
func (r *SessionRegistry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

func (r *SessionRegistry) releaseImages(ctx context.Context, session *Session) {
	if n := ReleaseImages(ctx, r.blobs, session.Pipeline.Images()); n > 0 {
		slog.Debug("session_images_released", "session_id", session.ID, "count", n)
	}
}
