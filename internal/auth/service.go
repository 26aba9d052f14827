package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/shiawase/internal/mailer"
	"github.com/hitoshi/shiawase/internal/metrics"
	"github.com/hitoshi/shiawase/internal/model"
	"github.com/hitoshi/shiawase/internal/repository"
	"github.com/hitoshi/shiawase/internal/security"
	"github.com/hitoshi/shiawase/internal/session"
	"github.com/hitoshi/shiawase/internal/token"
)

// ハンドラー層でHTTPステータスに対応付けるためのセンチネルエラー。
var (
	// ErrInvalidInput は入力値の形式不正を示す（400）。
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmailTaken はメールアドレスが登録済みであることを示す（409）。
	ErrEmailTaken = errors.New("user with this email already exists")

	// ErrInvalidCredentials はメールアドレスまたはパスワードの不一致を示す（401）。
	// どちらが誤っているかは区別しない。
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUserNotFound は対象ユーザーが存在しないことを示す（404）。
	ErrUserNotFound = errors.New("user not found")

	// ErrOTPInvalid はOTPコードの不一致・期限切れ・使用済みを示す（400）。
	ErrOTPInvalid = errors.New("invalid or expired OTP")
)

const (
	bcryptCost = 12
	otpTTL     = 10 * time.Minute
)

var (
	emailPattern   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	otpCodePattern = regexp.MustCompile(`^\d{6}$`)
)

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	AccessTokenTTL time.Duration // アクセストークン有効期間（通常7日）
	PendingTTL     time.Duration // 登録途中トークン有効期間（通常1時間）
	ResetTokenTTL  time.Duration // パスワードリセットトークン有効期間（通常15分）
}

// Service は登録・ログイン・OTP・Googleサインインのビジネスロジックを提供する。
type Service struct {
	users     repository.UserRepository
	otps      repository.OTPRepository
	tokens    *token.Service
	sessions  *session.Manager
	mail      mailer.Mailer
	google    GoogleTokenVerifier
	sanitizer security.ProfileSanitizerService
	collector metrics.MetricsCollector
	config    ServiceConfig
}

// NewService はServiceを生成する。
func NewService(
	users repository.UserRepository,
	otps repository.OTPRepository,
	tokens *token.Service,
	sessions *session.Manager,
	mail mailer.Mailer,
	google GoogleTokenVerifier,
	sanitizer security.ProfileSanitizerService,
	collector metrics.MetricsCollector,
	config ServiceConfig,
) *Service {
	return &Service{
		users:     users,
		otps:      otps,
		tokens:    tokens,
		sessions:  sessions,
		mail:      mail,
		google:    google,
		sanitizer: sanitizer,
		collector: collector,
		config:    config,
	}
}

// RegisterInput は登録リクエストの入力。
type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Phone    string
}

// RegisterResult は登録結果。PendingTokenはメール検証完了までの仮トークン。
type RegisterResult struct {
	User         *model.User
	PendingToken string
}

// Register は新規ユーザーを未検証状態で作成し、検証用OTPをメール送信する。
// メールアドレスは小文字に正規化する。重複登録はErrEmailTaken。
func (s *Service) Register(ctx context.Context, input RegisterInput) (*RegisterResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	if email == "" || input.Password == "" || input.Name == "" {
		return nil, fmt.Errorf("%w: email, password, and name are required", ErrInvalidInput)
	}
	if !emailPattern.MatchString(email) {
		return nil, fmt.Errorf("%w: invalid email format", ErrInvalidInput)
	}
	if len(input.Password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidInput)
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.issueOTP(ctx, email, model.OTPTypeEmailVerification); err != nil {
		return nil, err
	}

	now := time.Now()
	user := &model.User{
		ID:                 uuid.New().String(),
		Email:              email,
		Name:               s.sanitizer.SanitizeText(input.Name),
		Phone:              strings.TrimSpace(input.Phone),
		PasswordHash:       string(hash),
		Roles:              []string{model.RoleParticipant},
		EmailVerified:      false,
		RegistrationStatus: model.RegistrationPending,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	pendingToken, err := s.tokens.Sign(user.ID, user.Email, user.Roles, token.PurposeEmailVerification, s.config.PendingTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign pending token: %w", err)
	}

	slog.Info("user registered", slog.String("user_id", user.ID), slog.String("email", email))

	return &RegisterResult{User: user, PendingToken: pendingToken}, nil
}

// Credentials はログイン成功時に発行される資格情報一式。
type Credentials struct {
	User      *model.User
	Token     string
	SessionID string
}

// Login はメールアドレスとパスワードでユーザーを認証し、
// 7日アクセストークンと30日永続セッションを発行する。
// ユーザー不在とパスワード不一致は同一のエラーを返す。
func (s *Service) Login(ctx context.Context, email, password, userAgent, ipAddress string) (*Credentials, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		s.collector.RecordLogin(metrics.ResultFailure)
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.collector.RecordLogin(metrics.ResultFailure)
		return nil, ErrInvalidCredentials
	}

	creds, err := s.issueCredentials(ctx, user, userAgent, ipAddress)
	if err != nil {
		return nil, err
	}

	s.collector.RecordLogin(metrics.ResultSuccess)
	slog.Info("user logged in", slog.String("user_id", user.ID))

	return creds, nil
}

// Logout は永続セッションを破棄する。セッション未存在でも成功する（冪等）。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessions.Destroy(ctx, sessionID); err != nil {
		return err
	}
	slog.Info("user logged out")
	return nil
}

// SendOTP は6桁のワンタイムパスワードを生成しメール送信する。
// 同一メールアドレスの未使用OTPは無効化される。
// password_resetの場合は対象ユーザーの存在を要求する。
func (s *Service) SendOTP(ctx context.Context, email, otpType string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	if email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	if otpType != model.OTPTypeEmailVerification && otpType != model.OTPTypePasswordReset {
		return fmt.Errorf("%w: unknown OTP type: %s", ErrInvalidInput, otpType)
	}

	if otpType == model.OTPTypePasswordReset {
		user, err := s.users.FindByEmail(ctx, email)
		if err != nil {
			return fmt.Errorf("failed to find user: %w", err)
		}
		if user == nil {
			return ErrUserNotFound
		}
	}

	return s.issueOTP(ctx, email, otpType)
}

// VerifyOTPResult はOTP検証の結果。
// email_verificationではUser/Token/SessionIDが、
// password_resetではResetTokenが設定される。
type VerifyOTPResult struct {
	User       *model.User
	Token      string
	SessionID  string
	ResetToken string
}

// VerifyOTP はOTPコードを検証し、用途に応じた資格情報を発行する。
// コードは単回使用であり、検証成功の時点で使用済みになる。
func (s *Service) VerifyOTP(ctx context.Context, email, code, otpType, userAgent, ipAddress string) (*VerifyOTPResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	if email == "" || code == "" {
		return nil, fmt.Errorf("%w: email and OTP are required", ErrInvalidInput)
	}
	if !otpCodePattern.MatchString(code) {
		return nil, fmt.Errorf("%w: invalid OTP format", ErrInvalidInput)
	}

	record, err := s.otps.FindValid(ctx, email, code, otpType)
	if err != nil {
		return nil, fmt.Errorf("failed to find OTP: %w", err)
	}
	if record == nil {
		return nil, ErrOTPInvalid
	}

	if err := s.otps.MarkUsed(ctx, record.ID); err != nil {
		return nil, fmt.Errorf("failed to mark OTP used: %w", err)
	}

	switch otpType {
	case model.OTPTypeEmailVerification:
		if err := s.users.MarkEmailVerified(ctx, email); err != nil {
			return nil, fmt.Errorf("failed to mark email verified: %w", err)
		}

		user, err := s.users.FindByEmail(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("failed to find user: %w", err)
		}
		if user == nil {
			return nil, ErrUserNotFound
		}

		creds, err := s.issueCredentials(ctx, user, userAgent, ipAddress)
		if err != nil {
			return nil, err
		}

		slog.Info("email verified", slog.String("user_id", user.ID))
		return &VerifyOTPResult{User: creds.User, Token: creds.Token, SessionID: creds.SessionID}, nil

	case model.OTPTypePasswordReset:
		resetToken, err := s.tokens.Sign("", email, nil, token.PurposePasswordReset, s.config.ResetTokenTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to sign reset token: %w", err)
		}

		slog.Info("OTP verified for password reset", slog.String("email", email))
		return &VerifyOTPResult{ResetToken: resetToken}, nil

	default:
		return nil, fmt.Errorf("%w: unknown OTP type: %s", ErrInvalidInput, otpType)
	}
}

// GoogleSignIn はGoogleのIDトークンでユーザーを認証する。
// 未登録の場合は検証済みユーザーを自動作成する。
func (s *Service) GoogleSignIn(ctx context.Context, idToken, userAgent, ipAddress string) (*Credentials, error) {
	info, err := s.google.VerifyIDToken(ctx, idToken)
	if err != nil {
		s.collector.RecordLogin(metrics.ResultFailure)
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}

	email := strings.ToLower(info.Email)

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if user == nil {
		now := time.Now()
		user = &model.User{
			ID:                 uuid.New().String(),
			Email:              email,
			Name:               s.sanitizer.SanitizeText(info.Name),
			ProfileImage:       info.Picture,
			Roles:              []string{model.RoleParticipant},
			EmailVerified:      true,
			RegistrationStatus: model.RegistrationComplete,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		slog.Info("new user created via google sign-in", slog.String("user_id", user.ID))
	} else if !user.EmailVerified {
		// Googleが検証済みのメールアドレスは再検証を要求しない
		if err := s.users.MarkEmailVerified(ctx, email); err != nil {
			return nil, fmt.Errorf("failed to mark email verified: %w", err)
		}
		user.EmailVerified = true
	}

	creds, err := s.issueCredentials(ctx, user, userAgent, ipAddress)
	if err != nil {
		return nil, err
	}

	s.collector.RecordLogin(metrics.ResultSuccess)
	slog.Info("user logged in via google", slog.String("user_id", user.ID))

	return creds, nil
}

// GetUser は指定IDのユーザーを取得する。
func (s *Service) GetUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// UpdateProfileInput はプロフィール更新の入力。
type UpdateProfileInput struct {
	Name         string
	Phone        string
	Bio          string
	ProfileImage string
}

// UpdateProfile は自由記述フィールドをサニタイズした上でプロフィールを更新する。
func (s *Service) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*model.User, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	name := s.sanitizer.SanitizeText(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if err := s.sanitizer.ValidateImageURL(input.ProfileImage); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	user.Name = name
	user.Phone = strings.TrimSpace(input.Phone)
	user.Bio = s.sanitizer.SanitizeText(input.Bio)
	user.ProfileImage = input.ProfileImage
	user.UpdatedAt = time.Now()

	if err := s.users.UpdateProfile(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return user, nil
}

// issueOTP は既存の未使用OTPを無効化した上で新しいOTPを発行しメール送信する。
func (s *Service) issueOTP(ctx context.Context, email, otpType string) error {
	if err := s.otps.InvalidateByEmail(ctx, email); err != nil {
		return fmt.Errorf("failed to invalidate previous OTPs: %w", err)
	}

	code, err := generateOTPCode()
	if err != nil {
		return err
	}

	now := time.Now()
	record := &model.OTP{
		ID:        uuid.New().String(),
		Email:     email,
		Code:      code,
		Type:      otpType,
		ExpiresAt: now.Add(otpTTL),
		CreatedAt: now,
	}

	if err := s.otps.Create(ctx, record); err != nil {
		return fmt.Errorf("failed to save OTP: %w", err)
	}

	subject := "メールアドレスの確認コード"
	if otpType == model.OTPTypePasswordReset {
		subject = "パスワード再設定の確認コード"
	}
	body := fmt.Sprintf("確認コード: %s\nこのコードは10分間有効です。", code)

	if err := s.mail.Send(ctx, email, subject, body); err != nil {
		return fmt.Errorf("failed to send OTP mail: %w", err)
	}

	slog.Info("OTP sent", slog.String("email", email), slog.String("type", otpType))
	return nil
}

// issueCredentials は7日アクセストークンと30日永続セッションを発行する。
func (s *Service) issueCredentials(ctx context.Context, user *model.User, userAgent, ipAddress string) (*Credentials, error) {
	accessToken, err := s.tokens.Sign(user.ID, user.Email, user.Roles, token.PurposeAccess, s.config.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	sessionID, err := s.sessions.Create(ctx, user.ID, userAgent, ipAddress)
	if err != nil {
		return nil, err
	}

	return &Credentials{User: user, Token: accessToken, SessionID: sessionID}, nil
}
