// Package vote は参加者プロフィール・エントリーへの投票（いいね）の
// ビジネスロジックを提供する。
package vote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/shiawase/internal/model"
	"github.com/hitoshi/shiawase/internal/repository"
)

var (
	// ErrInvalidResource はリソース指定の形式不正を示す（400）。
	ErrInvalidResource = errors.New("invalid resource")

	// ErrVoteNotFound は削除対象の投票が存在しないことを示す（404）。
	ErrVoteNotFound = errors.New("vote not found")
)

// resourceIDPattern は投票対象IDとして許容する形式。
var resourceIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,100}$`)

// Service は投票に関するビジネスロジックを提供する。
type Service struct {
	votes repository.VoteRepository
}

// NewService はServiceを生成する。
func NewService(votes repository.VoteRepository) *Service {
	return &Service{votes: votes}
}

// Status は投票の集計結果。
type Status struct {
	ResourceType string
	ResourceID   string
	Count        int
	UserHasVoted bool
}

// ToggleResult は投票トグルの結果。
type ToggleResult struct {
	Action       string // "added" または "removed"
	Count        int
	UserHasVoted bool
}

// Toggle は投票のトグル操作を行う。
// 既存の投票があれば取り消し、なければ新規に投票する。
func (s *Service) Toggle(ctx context.Context, userID, resourceType, resourceID string) (*ToggleResult, error) {
	if err := validateResource(resourceType, resourceID); err != nil {
		return nil, err
	}

	existing, err := s.votes.FindByUserAndResource(ctx, userID, resourceType, resourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to find vote: %w", err)
	}

	result := &ToggleResult{}

	if existing != nil {
		if err := s.votes.Delete(ctx, existing.ID); err != nil {
			return nil, fmt.Errorf("failed to delete vote: %w", err)
		}
		result.Action = "removed"
		result.UserHasVoted = false
		slog.Info("vote removed",
			slog.String("user_id", userID),
			slog.String("resource", resourceType+":"+resourceID),
		)
	} else {
		v := &model.Vote{
			ID:           uuid.New().String(),
			UserID:       userID,
			ResourceType: resourceType,
			ResourceID:   resourceID,
			CreatedAt:    time.Now(),
		}
		if err := s.votes.Create(ctx, v); err != nil {
			return nil, fmt.Errorf("failed to create vote: %w", err)
		}
		result.Action = "added"
		result.UserHasVoted = true
		slog.Info("vote added",
			slog.String("user_id", userID),
			slog.String("resource", resourceType+":"+resourceID),
		)
	}

	count, err := s.votes.CountByResource(ctx, resourceType, resourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to count votes: %w", err)
	}
	result.Count = count

	return result, nil
}

// GetStatus はリソースの投票数と、指定ユーザーの投票有無を返す。
// userIDが空の場合（未認証）はUserHasVotedを常にfalseとする。
func (s *Service) GetStatus(ctx context.Context, userID, resourceType, resourceID string) (*Status, error) {
	if err := validateResource(resourceType, resourceID); err != nil {
		return nil, err
	}

	count, err := s.votes.CountByResource(ctx, resourceType, resourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to count votes: %w", err)
	}

	status := &Status{
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Count:        count,
	}

	if userID != "" {
		existing, err := s.votes.FindByUserAndResource(ctx, userID, resourceType, resourceID)
		if err != nil {
			return nil, fmt.Errorf("failed to find vote: %w", err)
		}
		status.UserHasVoted = existing != nil
	}

	return status, nil
}

// Remove は指定ユーザーの投票を削除する。
// 対象が存在しない場合はErrVoteNotFoundを返す。
func (s *Service) Remove(ctx context.Context, userID, resourceType, resourceID string) error {
	if err := validateResource(resourceType, resourceID); err != nil {
		return err
	}

	deleted, err := s.votes.DeleteByUserAndResource(ctx, userID, resourceType, resourceID)
	if err != nil {
		return fmt.Errorf("failed to delete vote: %w", err)
	}
	if !deleted {
		return ErrVoteNotFound
	}

	slog.Info("vote deleted",
		slog.String("user_id", userID),
		slog.String("resource", resourceType+":"+resourceID),
	)
	return nil
}

// validateResource はリソース種別とID形式を検証する。
func validateResource(resourceType, resourceID string) error {
	if resourceType == "" || resourceID == "" {
		return fmt.Errorf("%w: resourceType and resourceId are required", ErrInvalidResource)
	}
	if resourceType != model.VoteResourceContestant && resourceType != model.VoteResourceEntry {
		return fmt.Errorf("%w: invalid resourceType", ErrInvalidResource)
	}
	if !resourceIDPattern.MatchString(resourceID) {
		return fmt.Errorf("%w: invalid resourceId format", ErrInvalidResource)
	}
	return nil
}
