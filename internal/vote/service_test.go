package vote

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/shiawase/internal/model"
)

// mockVoteRepo はVoteRepositoryの関数フィールド型モック。
type mockVoteRepo struct {
	findFunc            func(ctx context.Context, userID, resourceType, resourceID string) (*model.Vote, error)
	createFunc          func(ctx context.Context, vote *model.Vote) error
	deleteFunc          func(ctx context.Context, id string) error
	deleteByUserFunc    func(ctx context.Context, userID, resourceType, resourceID string) (bool, error)
	countByResourceFunc func(ctx context.Context, resourceType, resourceID string) (int, error)
}

func (m *mockVoteRepo) FindByUserAndResource(ctx context.Context, userID, resourceType, resourceID string) (*model.Vote, error) {
	if m.findFunc != nil {
		return m.findFunc(ctx, userID, resourceType, resourceID)
	}
	return nil, nil
}

func (m *mockVoteRepo) Create(ctx context.Context, vote *model.Vote) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, vote)
	}
	return nil
}

func (m *mockVoteRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func (m *mockVoteRepo) DeleteByUserAndResource(ctx context.Context, userID, resourceType, resourceID string) (bool, error) {
	if m.deleteByUserFunc != nil {
		return m.deleteByUserFunc(ctx, userID, resourceType, resourceID)
	}
	return false, nil
}

func (m *mockVoteRepo) CountByResource(ctx context.Context, resourceType, resourceID string) (int, error) {
	if m.countByResourceFunc != nil {
		return m.countByResourceFunc(ctx, resourceType, resourceID)
	}
	return 0, nil
}

func TestService_Toggle_AddsWhenNoExistingVote(t *testing.T) {
	var created *model.Vote
	repo := &mockVoteRepo{
		createFunc: func(_ context.Context, v *model.Vote) error {
			created = v
			return nil
		},
		countByResourceFunc: func(context.Context, string, string) (int, error) {
			return 5, nil
		},
	}
	svc := NewService(repo)

	result, err := svc.Toggle(context.Background(), "user-1", model.VoteResourceContestant, "alice-42")
	if err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}

	if result.Action != "added" {
		t.Errorf("Action = %q, want added", result.Action)
	}
	if !result.UserHasVoted {
		t.Error("UserHasVoted should be true after adding")
	}
	if result.Count != 5 {
		t.Errorf("Count = %d, want 5", result.Count)
	}
	if created == nil || created.UserID != "user-1" {
		t.Errorf("created vote = %+v", created)
	}
}

func TestService_Toggle_RemovesExistingVote(t *testing.T) {
	deletedID := ""
	repo := &mockVoteRepo{
		findFunc: func(_ context.Context, userID, rt, rid string) (*model.Vote, error) {
			return &model.Vote{ID: "vote-1", UserID: userID, ResourceType: rt, ResourceID: rid}, nil
		},
		deleteFunc: func(_ context.Context, id string) error {
			deletedID = id
			return nil
		},
		countByResourceFunc: func(context.Context, string, string) (int, error) {
			return 4, nil
		},
	}
	svc := NewService(repo)

	result, err := svc.Toggle(context.Background(), "user-1", model.VoteResourceEntry, "entry-1")
	if err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}

	if result.Action != "removed" {
		t.Errorf("Action = %q, want removed", result.Action)
	}
	if result.UserHasVoted {
		t.Error("UserHasVoted should be false after removing")
	}
	if deletedID != "vote-1" {
		t.Errorf("deleted ID = %q", deletedID)
	}
}

func TestService_ValidatesResource(t *testing.T) {
	svc := NewService(&mockVoteRepo{})

	tests := []struct {
		name         string
		resourceType string
		resourceID   string
	}{
		{"空のリソース種別", "", "abc"},
		{"未知のリソース種別", "sponsor", "abc"},
		{"空のリソースID", model.VoteResourceContestant, ""},
		{"使用不可文字を含むID", model.VoteResourceContestant, "a/b"},
		{"101文字のID", model.VoteResourceContestant, string(make([]byte, 101))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Toggle(context.Background(), "u", tt.resourceType, tt.resourceID); !errors.Is(err, ErrInvalidResource) {
				t.Errorf("Toggle error = %v, want ErrInvalidResource", err)
			}
			if _, err := svc.GetStatus(context.Background(), "u", tt.resourceType, tt.resourceID); !errors.Is(err, ErrInvalidResource) {
				t.Errorf("GetStatus error = %v, want ErrInvalidResource", err)
			}
			if err := svc.Remove(context.Background(), "u", tt.resourceType, tt.resourceID); !errors.Is(err, ErrInvalidResource) {
				t.Errorf("Remove error = %v, want ErrInvalidResource", err)
			}
		})
	}
}

// 未認証（userID空）の場合、UserHasVotedは常にfalseで投票検索を行わないこと
func TestService_GetStatus_AnonymousUser(t *testing.T) {
	repo := &mockVoteRepo{
		findFunc: func(context.Context, string, string, string) (*model.Vote, error) {
			t.Error("vote lookup should not happen for anonymous users")
			return nil, nil
		},
		countByResourceFunc: func(context.Context, string, string) (int, error) {
			return 12, nil
		},
	}
	svc := NewService(repo)

	status, err := svc.GetStatus(context.Background(), "", model.VoteResourceContestant, "alice-42")
	if err != nil {
		t.Fatalf("GetStatus failed: %v", err)
	}

	if status.Count != 12 {
		t.Errorf("Count = %d", status.Count)
	}
	if status.UserHasVoted {
		t.Error("UserHasVoted should be false for anonymous users")
	}
}

func TestService_GetStatus_AuthenticatedUser(t *testing.T) {
	repo := &mockVoteRepo{
		findFunc: func(_ context.Context, userID, _, _ string) (*model.Vote, error) {
			if userID == "voter" {
				return &model.Vote{ID: "v1"}, nil
			}
			return nil, nil
		},
	}
	svc := NewService(repo)

	status, err := svc.GetStatus(context.Background(), "voter", model.VoteResourceEntry, "entry-1")
	if err != nil {
		t.Fatalf("GetStatus failed: %v", err)
	}
	if !status.UserHasVoted {
		t.Error("UserHasVoted should be true")
	}
}

func TestService_Remove_NotFound(t *testing.T) {
	svc := NewService(&mockVoteRepo{})

	err := svc.Remove(context.Background(), "user-1", model.VoteResourceContestant, "alice-42")
	if !errors.Is(err, ErrVoteNotFound) {
		t.Errorf("error = %v, want ErrVoteNotFound", err)
	}
}

func TestService_Remove_Success(t *testing.T) {
	repo := &mockVoteRepo{
		deleteByUserFunc: func(context.Context, string, string, string) (bool, error) {
			return true, nil
		},
	}
	svc := NewService(repo)

	if err := svc.Remove(context.Background(), "user-1", model.VoteResourceContestant, "alice-42"); err != nil {
		t.Errorf("Remove failed: %v", err)
	}
}
