package ratelimit

import (
	"context"
	"sync"
	"time"
)

// windowEntry はキーごとの固定ウィンドウの状態を保持する。
type windowEntry struct {
	count   int
	resetAt time.Time
}

// MemoryStore はプロセス内の固定ウィンドウカウンタ。
// バックグラウンドで期限切れエントリのクリーンアップを行う。
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*windowEntry
	stopCh  chan struct{}

	now func() time.Time // テスト用に差し替え可能
}

// NewMemoryStore は新しいMemoryStoreを生成し、
// クリーンアップのバックグラウンドゴルーチンを開始する。
func NewMemoryStore(cleanupInterval time.Duration) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]*windowEntry),
		stopCh:  make(chan struct{}),
		now:     time.Now,
	}

	go s.cleanupLoop(cleanupInterval)

	return s
}

// Stop はクリーンアップのバックグラウンドゴルーチンを停止する。
func (s *MemoryStore) Stop() {
	close(s.stopCh)
}

// Incr はStoreインターフェースを実装する。
func (s *MemoryStore) Incr(_ context.Context, key string, window time.Duration) (int, time.Duration, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || !now.Before(e.resetAt) {
		// 新しいウィンドウを開始する
		e = &windowEntry{resetAt: now.Add(window)}
		s.entries[key] = e
	}

	e.count++

	return e.count, e.resetAt.Sub(now), nil
}

// EntryCount は現在保持しているウィンドウエントリ数を返す。
// テストおよびメトリクス用。
func (s *MemoryStore) EntryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *MemoryStore) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCh:
			return
		}
	}
}

// cleanup はウィンドウが満了したエントリを削除する。
func (s *MemoryStore) cleanup() {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, e := range s.entries {
		if !now.Before(e.resetAt) {
			delete(s.entries, key)
		}
	}
}

var _ Store = (*MemoryStore)(nil)
