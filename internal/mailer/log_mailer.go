package mailer

import (
	"context"
	"log/slog"
)

// LogMailer は実際の送信を行わず、メール内容をログに記録する実装。
// 開発環境およびSMTP未設定時に使用する。
type LogMailer struct{}

// NewLogMailer はLogMailerを生成する。
func NewLogMailer() *LogMailer {
	return &LogMailer{}
}

// Send はメール内容をログに記録する。常に成功する。
func (m *LogMailer) Send(_ context.Context, to, subject, body string) error {
	slog.Info("mail (not sent, log only)",
		slog.String("to", to),
		slog.String("subject", subject),
		slog.String("body", body),
	)
	return nil
}

var _ Mailer = (*LogMailer)(nil)
