package auth

import (
	"context"
	"sync"
	"time"

	"github.com/hitoshi/shiawase/internal/model"
)

// mockUserRepo はUserRepositoryの関数フィールド型モック。
type mockUserRepo struct {
	createFunc            func(ctx context.Context, user *model.User) error
	findByIDFunc          func(ctx context.Context, id string) (*model.User, error)
	findByEmailFunc       func(ctx context.Context, email string) (*model.User, error)
	updateProfileFunc     func(ctx context.Context, user *model.User) error
	markEmailVerifiedFunc func(ctx context.Context, email string) error
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, user)
	}
	return nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.findByEmailFunc != nil {
		return m.findByEmailFunc(ctx, email)
	}
	return nil, nil
}

func (m *mockUserRepo) UpdateProfile(ctx context.Context, user *model.User) error {
	if m.updateProfileFunc != nil {
		return m.updateProfileFunc(ctx, user)
	}
	return nil
}

func (m *mockUserRepo) MarkEmailVerified(ctx context.Context, email string) error {
	if m.markEmailVerifiedFunc != nil {
		return m.markEmailVerifiedFunc(ctx, email)
	}
	return nil
}

// mockOTPRepo はOTPRepositoryの関数フィールド型モック。
type mockOTPRepo struct {
	createFunc            func(ctx context.Context, otp *model.OTP) error
	invalidateByEmailFunc func(ctx context.Context, email string) error
	findValidFunc         func(ctx context.Context, email, code, otpType string) (*model.OTP, error)
	markUsedFunc          func(ctx context.Context, id string) error
}

func (m *mockOTPRepo) Create(ctx context.Context, otp *model.OTP) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, otp)
	}
	return nil
}

func (m *mockOTPRepo) InvalidateByEmail(ctx context.Context, email string) error {
	if m.invalidateByEmailFunc != nil {
		return m.invalidateByEmailFunc(ctx, email)
	}
	return nil
}

func (m *mockOTPRepo) FindValid(ctx context.Context, email, code, otpType string) (*model.OTP, error) {
	if m.findValidFunc != nil {
		return m.findValidFunc(ctx, email, code, otpType)
	}
	return nil, nil
}

func (m *mockOTPRepo) MarkUsed(ctx context.Context, id string) error {
	if m.markUsedFunc != nil {
		return m.markUsedFunc(ctx, id)
	}
	return nil
}

// mockSessionRepo はSessionRepositoryの関数フィールド型モック。
// セッションフォールバック解決のテストで使用する。
type mockSessionRepo struct {
	mu sync.Mutex

	createFunc         func(ctx context.Context, session *model.Session) error
	findActiveByIDFunc func(ctx context.Context, id string) (*model.Session, error)
	deleteByIDFunc     func(ctx context.Context, id string) error

	touched   []string
	touchedCh chan string
}

func (m *mockSessionRepo) Create(ctx context.Context, session *model.Session) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, session)
	}
	return nil
}

func (m *mockSessionRepo) FindActiveByID(ctx context.Context, id string) (*model.Session, error) {
	if m.findActiveByIDFunc != nil {
		return m.findActiveByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockSessionRepo) UpdateLastSeen(_ context.Context, id string, _ time.Time) error {
	m.mu.Lock()
	m.touched = append(m.touched, id)
	m.mu.Unlock()
	if m.touchedCh != nil {
		m.touchedCh <- id
	}
	return nil
}

func (m *mockSessionRepo) DeleteByID(ctx context.Context, id string) error {
	if m.deleteByIDFunc != nil {
		return m.deleteByIDFunc(ctx, id)
	}
	return nil
}

// mockMailer は送信内容を記録するMailerモック。
type mockMailer struct {
	mu       sync.Mutex
	sent     []sentMail
	sendFunc func(ctx context.Context, to, subject, body string) error
}

type sentMail struct {
	to      string
	subject string
	body    string
}

func (m *mockMailer) Send(ctx context.Context, to, subject, body string) error {
	if m.sendFunc != nil {
		return m.sendFunc(ctx, to, subject, body)
	}
	m.mu.Lock()
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	m.mu.Unlock()
	return nil
}

// mockGoogleVerifier はGoogleTokenVerifierの関数フィールド型モック。
type mockGoogleVerifier struct {
	verifyFunc func(ctx context.Context, idToken string) (*GoogleUserInfo, error)
}

func (m *mockGoogleVerifier) VerifyIDToken(ctx context.Context, idToken string) (*GoogleUserInfo, error) {
	if m.verifyFunc != nil {
		return m.verifyFunc(ctx, idToken)
	}
	return nil, nil
}
