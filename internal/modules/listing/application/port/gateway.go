package port

import (
	"context"
	"errors"

	"bistroPulse/internal/modules/listing/domain"
)

var (
	ErrForbidden = errors.New("backend rejected the request")
	ErrNotFound  = errors.New("backend resource not found")
	// ErrUnexpectedStatus covers every other non-2xx response.
	ErrUnexpectedStatus = errors.New("backend returned an unexpected status")
	// ErrInvalidPayload is returned when a response body does not decode into the entity.
	ErrInvalidPayload = errors.New("backend returned an invalid payload")
	// ErrUnsupported is returned by gateways for entities that do not support an operation.
	ErrUnsupported = errors.New("operation not supported for entity")
)

// Gateway is the backend surface a list page talks to. Every call is one round trip; no retries.
type Gateway interface {
	List(ctx context.Context) ([]domain.Entity, error)
	Delete(ctx context.Context, id string) error
	// SetStatus persists the status carried by the already-toggled entity.
	SetStatus(ctx context.Context, entity domain.Entity) error
	Update(ctx context.Context, entity domain.Entity) error
}

// Validator checks an edited entity before it is sent.
// A nil map means the entity is valid; otherwise keys are field names.
type Validator interface {
	Validate(entity domain.Entity) map[string]string
}

// TokenSource yields the bearer token for backend calls.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func(ctx context.Context) (string, error)

func (f TokenFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

// StaticToken always yields the same token.
type StaticToken string

func (s StaticToken) Token(context.Context) (string, error) { return string(s), nil }
