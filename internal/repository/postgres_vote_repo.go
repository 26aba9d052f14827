package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/shiawase/internal/model"
)

// PostgresVoteRepo はPostgreSQLを使用した投票リポジトリ。
type PostgresVoteRepo struct {
	db *sql.DB
}

// NewPostgresVoteRepo はPostgresVoteRepoを生成する。
func NewPostgresVoteRepo(db *sql.DB) *PostgresVoteRepo {
	return &PostgresVoteRepo{db: db}
}

// FindByUserAndResource はユーザーとリソースの組で投票を検索する。見つからない場合はnilを返す。
func (r *PostgresVoteRepo) FindByUserAndResource(ctx context.Context, userID, resourceType, resourceID string) (*model.Vote, error) {
	vote := &model.Vote{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, resource_type, resource_id, created_at
		 FROM votes
		 WHERE user_id = $1 AND resource_type = $2 AND resource_id = $3`,
		userID, resourceType, resourceID,
	).Scan(&vote.ID, &vote.UserID, &vote.ResourceType, &vote.ResourceID, &vote.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find vote: %w", err)
	}

	return vote, nil
}

// Create は投票を作成する。
func (r *PostgresVoteRepo) Create(ctx context.Context, vote *model.Vote) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO votes (id, user_id, resource_type, resource_id, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		vote.ID, vote.UserID, vote.ResourceType, vote.ResourceID, vote.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create vote: %w", err)
	}
	return nil
}

// Delete は指定IDの投票を削除する。
func (r *PostgresVoteRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM votes WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete vote: %w", err)
	}
	return nil
}

// DeleteByUserAndResource はユーザーとリソースの組で投票を削除し、削除有無を返す。
func (r *PostgresVoteRepo) DeleteByUserAndResource(ctx context.Context, userID, resourceType, resourceID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM votes
		 WHERE user_id = $1 AND resource_type = $2 AND resource_id = $3`,
		userID, resourceType, resourceID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete vote: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return affected > 0, nil
}

// CountByResource はリソースへの投票数を返す。
func (r *PostgresVoteRepo) CountByResource(ctx context.Context, resourceType, resourceID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM votes WHERE resource_type = $1 AND resource_id = $2`,
		resourceType, resourceID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count votes: %w", err)
	}
	return count, nil
}

// compile-time interface check
var _ VoteRepository = (*PostgresVoteRepo)(nil)
