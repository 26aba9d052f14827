// Package model はドメインモデルを定義する。
package model

import "time"

// ユーザーに付与されるロール。
const (
	RoleParticipant = "participant"
	RoleAdmin       = "admin"
)

// 登録フローの進行状態。
const (
	RegistrationPending  = "pending"
	RegistrationComplete = "complete"
)

// User はコンテスト参加ユーザーを表す。
// PasswordHashはAPIレスポンスに含めてはならない。
type User struct {
	ID                 string
	Email              string
	Name               string
	Phone              string
	Bio                string
	ProfileImage       string
	PasswordHash       string
	Roles              []string
	EmailVerified      bool
	RegistrationStatus string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// HasRole は指定ロールを保持しているかどうかを返す。
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}
