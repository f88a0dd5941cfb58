package session

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore(0)
	ctx := context.Background()

	s := New("Backend Engineer Intern", "intern", "", time.Now())
	s.Append(SpeakerAssistant, "Tell me about yourself.", time.Now())

	if err := store.Put(ctx, s); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := store.Get(ctx, s.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Role != s.Role || len(got.History) != 1 {
		t.Fatalf("unexpected session: %+v", got)
	}

	got.Append(SpeakerUser, "I like Go.", time.Now())
	again, _ := store.Get(ctx, s.ID)
	if len(again.History) != 1 {
		t.Fatalf("mutating a returned session must not change the store, history=%d", len(again.History))
	}

	if err := store.Remove(ctx, s.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := store.Get(ctx, s.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	stale := New("QA", "intern", "", now)
	fresh := New("QA", "junior", "", now)
	_ = store.Put(ctx, stale)

	now = now.Add(50 * time.Minute)
	_ = store.Put(ctx, fresh)

	now = now.Add(15 * time.Minute)
	if _, err := store.Get(ctx, stale.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected expired session, got %v", err)
	}
	if _, err := store.Get(ctx, fresh.ID); err != nil {
		t.Fatalf("fresh session expired early: %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("expected lazy removal on get, len=%d", store.Len())
	}

	now = now.Add(time.Hour)
	if removed := store.Sweep(); removed != 1 {
		t.Fatalf("expected 1 swept entry, got %d", removed)
	}
	if store.Len() != 0 {
		t.Fatalf("expected empty store, len=%d", store.Len())
	}
}

func TestMemoryStoreRejectsMissingID(t *testing.T) {
	if err := NewMemoryStore(0).Put(context.Background(), &Session{}); err == nil {
		t.Fatalf("expected error for empty id")
	}
}

func TestSessionWindow(t *testing.T) {
	s := New("SRE", "intern", "linux", time.Now())
	for i := 0; i < 14; i++ {
		s.Append(SpeakerUser, string(rune('a'+i)), time.Now())
	}

	w := s.Window(10)
	if len(w) != 10 || w[0].Content != "e" || w[9].Content != "n" {
		t.Fatalf("unexpected window: %+v", w)
	}
	if len(s.Window(0)) != 14 || len(s.Window(20)) != 14 {
		t.Fatalf("window must return whole history when n is 0 or larger than history")
	}
}

func TestNewGeneratesUniqueIDs(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		id := New("r", "l", "", time.Now()).ID
		if len(id) != 36 {
			t.Fatalf("unexpected id format %q", id)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = struct{}{}
	}
}
