package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrMutationInFlight rejects a second mutation on an entity whose previous one has not settled.
	ErrMutationInFlight = errors.New("a change to this item is still being saved")
	// ErrConfirmationDeclined is returned when a destructive action was not confirmed.
	ErrConfirmationDeclined = errors.New("action not confirmed")
	ErrEntityNotFound       = errors.New("item not found in list")
	ErrNotToggleable        = errors.New("item has no toggleable status")
	ErrPageClosed           = errors.New("page closed")
)

// ErrorKind classifies failures the way the list page renders them.
type ErrorKind string

const (
	// ErrorKindFetch is a failed initial list load, rendered as a page level error.
	ErrorKindFetch ErrorKind = "fetch"
	// ErrorKindMutation is a failed server call after an optimistic change, rendered as a rollback and a toast.
	ErrorKindMutation ErrorKind = "mutation"
	// ErrorKindValidation is invalid input caught before any network call, rendered next to the field.
	ErrorKindValidation ErrorKind = "validation"
)

// Failure is an error a list page can render.
type Failure struct {
	Kind    ErrorKind         `json:"kind"`
	Entity  string            `json:"entity"`
	Op      string            `json:"op"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
	Err     error             `json:"-"`
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("%s %s %s: %s", f.Kind, f.Entity, f.Op, f.Message)
	}
	return fmt.Sprintf("%s %s %s: %s: %v", f.Kind, f.Entity, f.Op, f.Message, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// FetchFailure wraps a list load error.
func FetchFailure(entity string, err error) *Failure {
	return &Failure{Kind: ErrorKindFetch, Entity: entity, Op: "load", Message: "could not load " + entity, Err: err}
}

// MutationFailure wraps a server-side rejection of an optimistic change.
func MutationFailure(entity, op, message string, err error) *Failure {
	return &Failure{Kind: ErrorKindMutation, Entity: entity, Op: op, Message: message, Err: err}
}

// ValidationFailure reports field errors detected before any network call.
func ValidationFailure(entity, op string, fields map[string]string) *Failure {
	return &Failure{Kind: ErrorKindValidation, Entity: entity, Op: op, Message: "invalid input", Fields: fields}
}

// KindOf returns the failure kind carried by err, or "" when err is not a Failure.
func KindOf(err error) ErrorKind {
	var failure *Failure
	if errors.As(err, &failure) {
		return failure.Kind
	}
	return ""
}
