package model

import "time"

// Session はユーザーの永続ログインセッションを表す。
// 1ユーザーがデバイスごとに複数のセッションを持てる。
// LastSeenはセッションフォールバック解決のたびにベストエフォートで更新される。
type Session struct {
	ID        string
	UserID    string
	UserAgent string
	IPAddress string
	LastSeen  *time.Time
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired は指定時刻においてセッションが期限切れかどうかを返す。
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
