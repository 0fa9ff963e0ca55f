package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"bistroPulse/internal/shared/auth"
)

var (
	ErrNotFound  = errors.New("session not found")
	ErrMissingID = errors.New("missing session id")
)

// CookieName is the browser cookie carrying the session id.
const CookieName = "bp_session"

// Session is the per-browser key-value state the console reads at action time:
// the bearer token for the REST API, the user id and the role.
type Session struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	Role      auth.Role `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store persists sessions by id.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, sess *Session) error
	Delete(ctx context.Context, id string) error
}

// New builds a session for validated claims with a fresh id.
func New(token string, claims *auth.Claims, now time.Time) *Session {
	return &Session{
		ID:        uuid.NewString(),
		Token:     strings.TrimSpace(token),
		UserID:    claims.Subject,
		Role:      claims.PrimaryRole(),
		CreatedAt: now.UTC(),
	}
}

// TokenSource reads the bearer token of one session at call time, so a token refreshed
// through POST /api/session is picked up by pages that are already mounted.
type TokenSource struct {
	store Store
	id    string
}

func NewTokenSource(store Store, id string) *TokenSource {
	return &TokenSource{store: store, id: strings.TrimSpace(id)}
}

func (s *TokenSource) Token(ctx context.Context) (string, error) {
	if s.id == "" {
		return "", ErrMissingID
	}
	sess, err := s.store.Get(ctx, s.id)
	if err != nil {
		return "", err
	}
	return sess.Token, nil
}
