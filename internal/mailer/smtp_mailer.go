package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"golang.org/x/time/rate"
)

// SMTPMailer はSMTP経由でメールを送信する実装。
// 送信レートをx/time/rateで制御し、SMTPサーバーへの送信集中を避ける。
type SMTPMailer struct {
	addr    string // host:port
	from    string
	limiter *rate.Limiter

	// テスト用に差し替え可能な送信関数
	sendMail func(addr, from string, to []string, msg []byte) error
}

// NewSMTPMailer はSMTPMailerを生成する。
// perMinuteは1分あたりの最大送信数。
func NewSMTPMailer(addr, from string, perMinute int) *SMTPMailer {
	return &SMTPMailer{
		addr:    addr,
		from:    from,
		limiter: rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), perMinute),
		sendMail: func(addr, from string, to []string, msg []byte) error {
			return smtp.SendMail(addr, nil, from, to, msg)
		},
	}
}

// Send はSMTPで1通のメールを送信する。
// レート上限を超える場合はトークンが補充されるまでブロックする。
func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	if err := m.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("mail rate wait canceled: %w", err)
	}

	msg := buildMessage(m.from, to, subject, body)
	if err := m.sendMail(m.addr, m.from, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", to, err)
	}
	return nil
}

// buildMessage はRFC 5322形式のメールメッセージを組み立てる。
func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	b.WriteString("\r\n")
	return []byte(b.String())
}

var _ Mailer = (*SMTPMailer)(nil)
