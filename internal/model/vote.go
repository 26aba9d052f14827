package model

import "time"

// 投票対象のリソース種別。
const (
	VoteResourceContestant = "contestant"
	VoteResourceEntry      = "entry"
)

// Vote は参加者プロフィールまたはエントリーへの「いいね」を表す。
// (UserID, ResourceType, ResourceID) の組でユニーク。
type Vote struct {
	ID           string
	UserID       string
	ResourceType string
	ResourceID   string
	CreatedAt    time.Time
}
