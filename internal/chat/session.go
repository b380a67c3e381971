// Package chat drives the conversational registration flow: per-session
// transcripts, a model-backed agent, and pluggable session stores with
// TTL eviction so abandoned kiosk conversations are reclaimed.
package chat

import (
	"context"
	"errors"
	"time"

	"github.com/eventflow/checkin-backend/internal/llm"
)

// ErrSessionNotFound is returned for unknown, expired or completed sessions.
var ErrSessionNotFound = errors.New("session not found")

// Session steps.
const (
	StepGreeting      = "greeting"
	StepAwaitingPhoto = "awaiting_photo"
)

// Session is the transcript state of one in-progress chat registration.
type Session struct {
	ID        string            `json:"id"`
	Messages  []llm.Message     `json:"messages"`
	Collected map[string]string `json:"collected,omitempty"`
	Step      string            `json:"step"`
	CreatedAt time.Time         `json:"createdAt"`
}

// SessionStore holds sessions between chat turns. Implementations
// expire idle sessions after the configured TTL; Put refreshes it.
type SessionStore interface {
	Get(ctx context.Context, id string) (*Session, error)
	Put(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}
