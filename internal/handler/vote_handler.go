package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/shiawase/internal/middleware"
	"github.com/hitoshi/shiawase/internal/vote"
)

// VoteServiceInterface は投票ハンドラーが必要とするサービスインターフェース。
type VoteServiceInterface interface {
	Toggle(ctx context.Context, userID, resourceType, resourceID string) (*vote.ToggleResult, error)
	GetStatus(ctx context.Context, userID, resourceType, resourceID string) (*vote.Status, error)
	Remove(ctx context.Context, userID, resourceType, resourceID string) error
}

// VoteHandler は投票関連のHTTPハンドラー。
type VoteHandler struct {
	service  VoteServiceInterface
	resolver middleware.IdentityResolver
}

// NewVoteHandler はVoteHandlerを生成する。
// resolverはGET /api/votesの任意認証（未認証でも閲覧可能）に使用する。
func NewVoteHandler(service VoteServiceInterface, resolver middleware.IdentityResolver) *VoteHandler {
	return &VoteHandler{
		service:  service,
		resolver: resolver,
	}
}

// Toggle は投票のトグル操作を処理する。
// POST /api/votes （Cookie認証可）
func (h *VoteHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var body struct {
		ResourceType string `json:"resourceType"`
		ResourceID   string `json:"resourceId"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	result, err := h.service.Toggle(r.Context(), userID, body.ResourceType, body.ResourceID)
	if err != nil {
		writeVoteError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"action":       result.Action,
		"count":        result.Count,
		"userHasVoted": result.UserHasVoted,
	})
}

// GetStatus はリソースの投票数を返す。
// 認証は任意であり、認証済みの場合のみuserHasVotedが意味を持つ。
// GET /api/votes?resourceType=...&resourceId=...
func (h *VoteHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	userID := ""
	if id := h.resolver.Resolve(r); id != nil {
		userID = id.UserID
	}

	query := r.URL.Query()
	status, err := h.service.GetStatus(r.Context(), userID, query.Get("resourceType"), query.Get("resourceId"))
	if err != nil {
		writeVoteError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"resourceType": status.ResourceType,
		"resourceId":   status.ResourceID,
		"count":        status.Count,
		"userHasVoted": status.UserHasVoted,
	})
}

// Remove は投票の明示的な取り消しを処理する。
// DELETE /api/votes?resourceType=...&resourceId=... （Cookie認証可）
func (h *VoteHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	query := r.URL.Query()
	if err := h.service.Remove(r.Context(), userID, query.Get("resourceType"), query.Get("resourceId")); err != nil {
		writeVoteError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Vote removed",
	})
}

// writeVoteError は投票サービスのエラーをHTTPステータスに対応付ける。
func writeVoteError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, vote.ErrInvalidResource):
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, vote.ErrVoteNotFound):
		middleware.WriteError(w, http.StatusNotFound, "Vote not found")
	default:
		slog.Error("vote handler error", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
	}
}
