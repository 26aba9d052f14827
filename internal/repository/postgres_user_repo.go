package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/hitoshi/shiawase/internal/model"
)

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// Create はユーザーを作成する。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, name, phone, bio, profile_image, password_hash,
		                    roles, email_verified, registration_status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		user.ID, strings.ToLower(user.Email), user.Name, user.Phone, user.Bio,
		user.ProfileImage, user.PasswordHash, pq.Array(user.Roles),
		user.EmailVerified, user.RegistrationStatus, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	return r.findOne(ctx,
		`SELECT id, email, name, phone, bio, profile_image, password_hash,
		        roles, email_verified, registration_status, created_at, updated_at
		 FROM users WHERE id = $1`,
		id,
	)
}

// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx,
		`SELECT id, email, name, phone, bio, profile_image, password_hash,
		        roles, email_verified, registration_status, created_at, updated_at
		 FROM users WHERE email = $1`,
		strings.ToLower(email),
	)
}

// UpdateProfile は名前・電話番号・自己紹介・プロフィール画像を更新する。
func (r *PostgresUserRepo) UpdateProfile(ctx context.Context, user *model.User) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users
		 SET name = $2, phone = $3, bio = $4, profile_image = $5, updated_at = now()
		 WHERE id = $1`,
		user.ID, user.Name, user.Phone, user.Bio, user.ProfileImage,
	)
	if err != nil {
		return fmt.Errorf("failed to update user profile: %w", err)
	}
	return nil
}

// MarkEmailVerified は指定メールアドレスのユーザーを検証済みにする。
func (r *PostgresUserRepo) MarkEmailVerified(ctx context.Context, email string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET email_verified = true, updated_at = now() WHERE email = $1`,
		strings.ToLower(email),
	)
	if err != nil {
		return fmt.Errorf("failed to mark email verified: %w", err)
	}
	return nil
}

func (r *PostgresUserRepo) findOne(ctx context.Context, query string, arg any) (*model.User, error) {
	user := &model.User{}
	var roles pq.StringArray

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Email, &user.Name, &user.Phone, &user.Bio,
		&user.ProfileImage, &user.PasswordHash, &roles,
		&user.EmailVerified, &user.RegistrationStatus,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	user.Roles = roles
	return user, nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
