package model

import (
	"fmt"
	"time"
)

// InviteStatus は招待の状態を表す。
type InviteStatus string

const (
	// InviteStatusSent は発行済みで未使用の招待を示す。
	InviteStatusSent InviteStatus = "sent"
	// InviteStatusAccepted はサインアップに使用済みの招待を示す。
	InviteStatusAccepted InviteStatus = "accepted"
	// InviteStatusRevoked は発行者により無効化された招待を示す。
	InviteStatusRevoked InviteStatus = "revoked"
)

// ParseInviteStatus は文字列をInviteStatusに変換する。
// 未知の値はエラーを返す。DBからの読み出し時に使用する。
func ParseInviteStatus(s string) (InviteStatus, error) {
	switch InviteStatus(s) {
	case InviteStatusSent, InviteStatusAccepted, InviteStatusRevoked:
		return InviteStatus(s), nil
	default:
		return "", fmt.Errorf("unknown invite status: %q", s)
	}
}

// Invite は既存ユーザーが発行するサインアップ招待を表す。
type Invite struct {
	ID        string
	SenderID  string
	Status    InviteStatus
	CreatedAt time.Time
}
