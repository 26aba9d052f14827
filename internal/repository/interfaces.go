// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/shiawase/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// Create はユーザーを作成する。メールアドレス重複はエラーを返す。
	Create(ctx context.Context, user *model.User) error

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	// メールアドレスは小文字に正規化して保存・検索する。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// UpdateProfile は名前・電話番号・自己紹介・プロフィール画像を更新する。
	UpdateProfile(ctx context.Context, user *model.User) error

	// MarkEmailVerified は指定メールアドレスのユーザーを検証済みにする。
	MarkEmailVerified(ctx context.Context, email string) error
}

// SessionRepository は永続セッションの永続化インターフェース。
// セッションのライフサイクル管理はsessionパッケージが専有し、
// 認証フォールバック解決（authパッケージ）は読み取りのみ行う。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error

	// FindActiveByID は期限内のセッションを取得する。
	// 期限切れまたは未存在の場合はnilを返す。
	FindActiveByID(ctx context.Context, id string) (*model.Session, error)

	// UpdateLastSeen はlastSeenを更新する。対象が存在しなくてもエラーにしない。
	UpdateLastSeen(ctx context.Context, id string, at time.Time) error

	// DeleteByID は指定IDのセッションを削除する。存在しないIDでもエラーにしない（冪等）。
	DeleteByID(ctx context.Context, id string) error
}

// OTPRepository はワンタイムパスワードの永続化インターフェース。
type OTPRepository interface {
	// Create はOTPを作成する。
	Create(ctx context.Context, otp *model.OTP) error

	// InvalidateByEmail は指定メールアドレスの未使用OTPを全て使用済みにする。
	InvalidateByEmail(ctx context.Context, email string) error

	// FindValid は未使用かつ期限内のOTPを検索する。見つからない場合はnilを返す。
	FindValid(ctx context.Context, email, code, otpType string) (*model.OTP, error)

	// MarkUsed は指定OTPを使用済みにする。
	MarkUsed(ctx context.Context, id string) error
}

// VoteRepository は投票データの永続化インターフェース。
type VoteRepository interface {
	// FindByUserAndResource はユーザーとリソースの組で投票を検索する。
	// 見つからない場合はnilを返す。
	FindByUserAndResource(ctx context.Context, userID, resourceType, resourceID string) (*model.Vote, error)

	// Create は投票を作成する。
	Create(ctx context.Context, vote *model.Vote) error

	// Delete は指定IDの投票を削除する。
	Delete(ctx context.Context, id string) error

	// DeleteByUserAndResource はユーザーとリソースの組で投票を削除する。
	// 削除が行われたかどうかを返す。
	DeleteByUserAndResource(ctx context.Context, userID, resourceType, resourceID string) (bool, error)

	// CountByResource はリソースへの投票数を返す。
	CountByResource(ctx context.Context, resourceType, resourceID string) (int, error)
}
