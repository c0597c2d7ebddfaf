// Package invite はサインアップ招待のドメインロジックを提供する。
package invite

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/routinely/internal/model"
	"github.com/hitoshi/routinely/internal/repository"
)

// Service は招待管理のサービス層。
// 招待の発行、無効化、招待URLの組み立てを提供する。
type Service struct {
	invites repository.InviteRepository
	baseURL string
}

// NewService はServiceの新しいインスタンスを生成する。
// baseURLは招待URLの組み立てに使われる（例: https://routinely.example.com）。
func NewService(invites repository.InviteRepository, baseURL string) *Service {
	return &Service{
		invites: invites,
		baseURL: baseURL,
	}
}

// CreatedInvite は発行された招待と共有用URLを表す。
type CreatedInvite struct {
	Invite *model.Invite
	URL    string
}

// Create は新しい招待を発行し、共有用URLを返す。
// 招待IDはサインイン開始URLのクエリパラメータとして埋め込まれる。
func (s *Service) Create(ctx context.Context, senderID string) (*CreatedInvite, error) {
	inv := &model.Invite{
		ID:        uuid.NewString(),
		SenderID:  senderID,
		Status:    model.InviteStatusSent,
		CreatedAt: time.Now(),
	}
	if err := s.invites.Create(ctx, inv); err != nil {
		return nil, fmt.Errorf("招待の作成に失敗しました: %w", err)
	}

	return &CreatedInvite{
		Invite: inv,
		URL:    s.inviteURL(inv.ID),
	}, nil
}

// Revoke は発行者自身の招待を無効化する。
// 他ユーザーの招待は存在を漏らさないよう未検出として扱う。
// 使用済みの招待は無効化できない。
func (s *Service) Revoke(ctx context.Context, senderID, inviteID string) error {
	inv, err := s.invites.FindByID(ctx, inviteID)
	if err != nil {
		return fmt.Errorf("招待の取得に失敗しました: %w", err)
	}
	if inv == nil || inv.SenderID != senderID {
		return model.NewInviteInvalidError()
	}
	if inv.Status != model.InviteStatusSent {
		return model.NewInviteInvalidError()
	}

	if err := s.invites.UpdateStatus(ctx, inviteID, model.InviteStatusRevoked); err != nil {
		return fmt.Errorf("招待の無効化に失敗しました: %w", err)
	}

	return nil
}

// inviteURL は招待IDからサインイン開始URLを組み立てる。
func (s *Service) inviteURL(inviteID string) string {
	return fmt.Sprintf("%s/auth/google?invite=%s", s.baseURL, url.QueryEscape(inviteID))
}
