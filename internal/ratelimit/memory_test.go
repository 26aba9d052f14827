package ratelimit

import (
	"context"
	"testing"
	"time"
)

// クリーンアップゴルーチンを起動せず、固定クロックで検証するためのヘルパー
func newTestMemoryStore(now *time.Time) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*windowEntry),
		stopCh:  make(chan struct{}),
		now:     func() time.Time { return *now },
	}
}

func TestMemoryStore_Incr_CountsWithinWindow(t *testing.T) {
	now := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	s := newTestMemoryStore(&now)

	for i := 1; i <= 4; i++ {
		count, retryAfter, err := s.Incr(context.Background(), "203.0.113.1:/api/auth/login", time.Minute)
		if err != nil {
			t.Fatalf("Incr failed: %v", err)
		}
		if count != i {
			t.Errorf("count = %d, want %d", count, i)
		}
		if retryAfter != time.Minute {
			t.Errorf("retryAfter = %v, want %v", retryAfter, time.Minute)
		}
	}
}

func TestMemoryStore_Incr_ResetsAfterWindow(t *testing.T) {
	now := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	s := newTestMemoryStore(&now)

	key := "203.0.113.1:/api/auth/send-otp"

	for i := 0; i < 3; i++ {
		if _, _, err := s.Incr(context.Background(), key, time.Minute); err != nil {
			t.Fatalf("Incr failed: %v", err)
		}
	}

	// ウィンドウ満了後はカウントが1から再開する
	now = now.Add(time.Minute)

	count, retryAfter, err := s.Incr(context.Background(), key, time.Minute)
	if err != nil {
		t.Fatalf("Incr failed: %v", err)
	}
	if count != 1 {
		t.Errorf("count after window expiry = %d, want 1", count)
	}
	if retryAfter != time.Minute {
		t.Errorf("retryAfter = %v, want %v", retryAfter, time.Minute)
	}
}

func TestMemoryStore_Incr_RetryAfterDecreases(t *testing.T) {
	now := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	s := newTestMemoryStore(&now)

	key := "client:/api/votes"

	if _, _, err := s.Incr(context.Background(), key, time.Minute); err != nil {
		t.Fatalf("Incr failed: %v", err)
	}

	now = now.Add(40 * time.Second)

	_, retryAfter, err := s.Incr(context.Background(), key, time.Minute)
	if err != nil {
		t.Fatalf("Incr failed: %v", err)
	}
	if retryAfter != 20*time.Second {
		t.Errorf("retryAfter = %v, want 20s", retryAfter)
	}
}

func TestMemoryStore_Incr_IndependentKeys(t *testing.T) {
	now := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	s := newTestMemoryStore(&now)

	if _, _, err := s.Incr(context.Background(), "a:/api/auth/login", time.Minute); err != nil {
		t.Fatalf("Incr failed: %v", err)
	}
	if _, _, err := s.Incr(context.Background(), "a:/api/auth/login", time.Minute); err != nil {
		t.Fatalf("Incr failed: %v", err)
	}

	count, _, err := s.Incr(context.Background(), "b:/api/auth/login", time.Minute)
	if err != nil {
		t.Fatalf("Incr failed: %v", err)
	}
	if count != 1 {
		t.Errorf("count for different client = %d, want 1", count)
	}

	count, _, err = s.Incr(context.Background(), "a:/api/votes", time.Minute)
	if err != nil {
		t.Fatalf("Incr failed: %v", err)
	}
	if count != 1 {
		t.Errorf("count for different route = %d, want 1", count)
	}
}

func TestMemoryStore_Cleanup_RemovesExpiredEntries(t *testing.T) {
	now := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	s := newTestMemoryStore(&now)

	if _, _, err := s.Incr(context.Background(), "old", time.Minute); err != nil {
		t.Fatalf("Incr failed: %v", err)
	}

	now = now.Add(30 * time.Second)

	if _, _, err := s.Incr(context.Background(), "fresh", time.Minute); err != nil {
		t.Fatalf("Incr failed: %v", err)
	}

	now = now.Add(30 * time.Second) // "old"のウィンドウのみ満了

	s.cleanup()

	if got := s.EntryCount(); got != 1 {
		t.Errorf("EntryCount after cleanup = %d, want 1", got)
	}
}

func TestNewMemoryStore_StopTerminatesCleanup(t *testing.T) {
	s := NewMemoryStore(10 * time.Millisecond)
	s.Stop()
	// Stop後にパニックしないこと
	if _, _, err := s.Incr(context.Background(), "k", time.Minute); err != nil {
		t.Fatalf("Incr failed: %v", err)
	}
}
