package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/hitoshi/shiawase/internal/model"
)

// PostgresOTPRepo はPostgreSQLを使用したOTPリポジトリ。
type PostgresOTPRepo struct {
	db *sql.DB
}

// NewPostgresOTPRepo はPostgresOTPRepoを生成する。
func NewPostgresOTPRepo(db *sql.DB) *PostgresOTPRepo {
	return &PostgresOTPRepo{db: db}
}

// Create はOTPを作成する。
func (r *PostgresOTPRepo) Create(ctx context.Context, otp *model.OTP) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO otps (id, email, code, type, used, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		otp.ID, strings.ToLower(otp.Email), otp.Code, otp.Type, otp.Used,
		otp.ExpiresAt, otp.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create otp: %w", err)
	}
	return nil
}

// InvalidateByEmail は指定メールアドレスの未使用OTPを全て使用済みにする。
func (r *PostgresOTPRepo) InvalidateByEmail(ctx context.Context, email string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE otps SET used = true WHERE email = $1 AND used = false`,
		strings.ToLower(email),
	)
	if err != nil {
		return fmt.Errorf("failed to invalidate otps: %w", err)
	}
	return nil
}

// FindValid は未使用かつ期限内のOTPを検索する。見つからない場合はnilを返す。
func (r *PostgresOTPRepo) FindValid(ctx context.Context, email, code, otpType string) (*model.OTP, error) {
	otp := &model.OTP{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, code, type, used, expires_at, created_at
		 FROM otps
		 WHERE email = $1 AND code = $2 AND type = $3
		   AND used = false AND expires_at > now()`,
		strings.ToLower(email), code, otpType,
	).Scan(&otp.ID, &otp.Email, &otp.Code, &otp.Type, &otp.Used,
		&otp.ExpiresAt, &otp.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find otp: %w", err)
	}

	return otp, nil
}

// MarkUsed は指定OTPを使用済みにする。
func (r *PostgresOTPRepo) MarkUsed(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE otps SET used = true WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark otp used: %w", err)
	}
	return nil
}

// compile-time interface check
var _ OTPRepository = (*PostgresOTPRepo)(nil)
