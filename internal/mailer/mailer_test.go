package mailer

import (
	"context"
	"strings"
	"testing"

	"golang.org/x/time/rate"
)

func TestLogMailer_Send_AlwaysSucceeds(t *testing.T) {
	m := NewLogMailer()
	if err := m.Send(context.Background(), "user@example.com", "subject", "body"); err != nil {
		t.Errorf("Send should not fail: %v", err)
	}
}

func TestSMTPMailer_Send_DeliversMessage(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte

	m := NewSMTPMailer("smtp.example.com:587", "no-reply@shiawase.example", 60)
	m.sendMail = func(addr, from string, to []string, msg []byte) error {
		gotAddr = addr
		gotFrom = from
		gotTo = to
		gotMsg = msg
		return nil
	}

	err := m.Send(context.Background(), "user@example.com", "認証コード", "コード: 123456")
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if gotAddr != "smtp.example.com:587" {
		t.Errorf("addr = %q", gotAddr)
	}
	if gotFrom != "no-reply@shiawase.example" {
		t.Errorf("from = %q", gotFrom)
	}
	if len(gotTo) != 1 || gotTo[0] != "user@example.com" {
		t.Errorf("to = %v", gotTo)
	}

	msg := string(gotMsg)
	for _, want := range []string{
		"To: user@example.com",
		"Subject: 認証コード",
		"コード: 123456",
		"Content-Type: text/plain; charset=UTF-8",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message should contain %q:\n%s", want, msg)
		}
	}
}

// レート上限到達時にコンテキストキャンセルで中断できること
func TestSMTPMailer_Send_CanceledWhileWaiting(t *testing.T) {
	m := NewSMTPMailer("smtp.example.com:587", "no-reply@shiawase.example", 1)
	m.sendMail = func(string, string, []string, []byte) error { return nil }
	// バーストを使い切る
	m.limiter = rate.NewLimiter(rate.Limit(1.0/3600.0), 1)
	if err := m.Send(context.Background(), "a@example.com", "s", "b"); err != nil {
		t.Fatalf("first Send failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := m.Send(ctx, "b@example.com", "s", "b"); err == nil {
		t.Error("Send should fail when context is canceled while waiting")
	}
}
