// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/hitoshi/shiawase/internal/middleware"
	"github.com/hitoshi/shiawase/internal/model"
)

// userResponse はAPIレスポンス用のユーザー表現。
// パスワードハッシュは含めない。
type userResponse struct {
	ID                 string    `json:"id"`
	Email              string    `json:"email"`
	Name               string    `json:"name"`
	Phone              string    `json:"phone,omitempty"`
	Bio                string    `json:"bio,omitempty"`
	ProfileImage       string    `json:"profileImage,omitempty"`
	Roles              []string  `json:"roles"`
	EmailVerified      bool      `json:"emailVerified"`
	RegistrationStatus string    `json:"registrationStatus"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// toUserResponse はドメインモデルをAPIレスポンス表現に変換する。
func toUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:                 u.ID,
		Email:              u.Email,
		Name:               u.Name,
		Phone:              u.Phone,
		Bio:                u.Bio,
		ProfileImage:       u.ProfileImage,
		Roles:              u.Roles,
		EmailVerified:      u.EmailVerified,
		RegistrationStatus: u.RegistrationStatus,
		CreatedAt:          u.CreatedAt,
		UpdatedAt:          u.UpdatedAt,
	}
}

// respondJSON はJSONレスポンスを書き込む。
func respondJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// decodeJSON はリクエストボディをJSONとして読み取る。
// 不正なボディの場合は400を書き込み、falseを返す。
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}
	return true
}

// requestIP はセッションメタデータ用のクライアントIPを決定する。
func requestIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return r.RemoteAddr
}
