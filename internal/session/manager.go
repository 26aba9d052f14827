// Package session は永続ログインセッションのライフサイクル管理を提供する。
//
// セッションレコードの作成・破棄・lastSeen更新はこのパッケージが専有する。
// 認証フォールバック解決（authパッケージ）はセッションを読み取るのみ。
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/shiawase/internal/model"
	"github.com/hitoshi/shiawase/internal/repository"
)

// touchTimeout はベストエフォートのlastSeen更新に許容する時間。
const touchTimeout = 5 * time.Second

// Manager は永続セッションのライフサイクルを管理する。
type Manager struct {
	repo repository.SessionRepository
	ttl  time.Duration
	now  func() time.Time
}

// NewManager はManagerを生成する。ttlはセッションの有効期間（通常30日）。
func NewManager(repo repository.SessionRepository, ttl time.Duration) *Manager {
	return &Manager{
		repo: repo,
		ttl:  ttl,
		now:  time.Now,
	}
}

// Create は新しい永続セッションを作成し、セッションIDを返す。
// IDは256ビットの暗号論的乱数をhexエンコードしたもの（64文字）。
// ログイン成功ごとに1回呼び出される。
func (m *Manager) Create(ctx context.Context, userID, userAgent, ipAddress string) (string, error) {
	id, err := generateSessionID()
	if err != nil {
		return "", fmt.Errorf("failed to generate session ID: %w", err)
	}

	now := m.now()
	s := &model.Session{
		ID:        id,
		UserID:    userID,
		UserAgent: userAgent,
		IPAddress: ipAddress,
		ExpiresAt: now.Add(m.ttl),
		CreatedAt: now,
	}

	if err := m.repo.Create(ctx, s); err != nil {
		return "", fmt.Errorf("failed to save session: %w", err)
	}

	return id, nil
}

// Destroy は指定セッションを削除する。存在しないIDに対しても成功する（冪等）。
func (m *Manager) Destroy(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := m.repo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to destroy session: %w", err)
	}
	return nil
}

// Touch はlastSeenをベストエフォートで更新する。
// 失敗はログに記録するのみで、呼び出し元には伝播しない。
func (m *Manager) Touch(ctx context.Context, sessionID string) {
	if err := m.repo.UpdateLastSeen(ctx, sessionID, m.now()); err != nil {
		slog.Warn("session touch failed",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
	}
}

// TouchAsync はリクエスト処理をブロックせずにlastSeenを更新する。
// リクエストのコンテキストに紐付けない（レスポンス返却後も完了を待たない）。
func (m *Manager) TouchAsync(sessionID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), touchTimeout)
		defer cancel()
		m.Touch(ctx, sessionID)
	}()
}

// generateSessionID は暗号論的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
