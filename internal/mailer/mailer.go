// Package mailer はアプリケーションからの送信メールを抽象化する。
package mailer

import "context"

// Mailer はメール送信のインターフェース。
// OTP送信など認証フローから利用する。
type Mailer interface {
	// Send は1通のメールを送信する。
	Send(ctx context.Context, to, subject, body string) error
}
