package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"

	"bistroPulse/internal/shared/auth"
)

func ownerClaims() *auth.Claims {
	return &auth.Claims{Role: "owner", RegisteredClaims: jwt.RegisteredClaims{Subject: "owner-1"}}
}

func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	sess := New(" tok-1 ", ownerClaims(), time.Now())
	if sess.ID == "" || sess.Token != "tok-1" || sess.Role != auth.RoleOwner {
		t.Fatalf("unexpected session: %+v", sess)
	}
	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := store.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded.UserID != "owner-1" || loaded.Token != "tok-1" {
		t.Fatalf("unexpected loaded session: %+v", loaded)
	}

	token, err := NewTokenSource(store, sess.ID).Token(ctx)
	if err != nil || token != "tok-1" {
		t.Fatalf("token source returned %q, %v", token, err)
	}

	if err := store.Delete(ctx, sess.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, sess.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if _, err := store.Get(ctx, " "); !errors.Is(err, ErrMissingID) {
		t.Fatalf("expected ErrMissingID, got %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore(time.Hour))
}

func TestMemoryStoreExpires(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	current := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return current }

	sess := New("tok", ownerClaims(), current)
	if err := store.Save(context.Background(), sess); err != nil {
		t.Fatalf("save: %v", err)
	}
	current = current.Add(2 * time.Minute)
	if _, err := store.Get(context.Background(), sess.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected expired session, got %v", err)
	}
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := NewRedisStore(client, time.Hour)
	exerciseStore(t, store)

	sess := New("tok-2", ownerClaims(), time.Now())
	if err := store.Save(context.Background(), sess); err != nil {
		t.Fatalf("save: %v", err)
	}
	if ttl := mr.TTL("bistropulse:session:" + sess.ID); ttl != time.Hour {
		t.Fatalf("expected ttl to be set, got %s", ttl)
	}
	mr.FastForward(2 * time.Hour)
	if _, err := store.Get(context.Background(), sess.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected expired session, got %v", err)
	}
}

func TestNewRedisClientFailsWithoutServer(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	if _, err := NewRedisClient(context.Background(), addr, "", 0); err == nil {
		t.Fatal("expected ping failure")
	}
}
