package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/routinely/internal/model"
	"github.com/hitoshi/routinely/internal/repository"
	"github.com/hitoshi/routinely/internal/session"
)

var (
	// ErrInviteRequired は招待制が有効なとき、招待なしの新規
	// サインアップが拒否されたことを示す。
	ErrInviteRequired = errors.New("invite required for signup")

	// ErrInviteInvalid は提示された招待が存在しないか使用不能
	// （使用済み・無効化済み）であることを示す。
	ErrInviteInvalid = errors.New("invite is invalid or already used")
)

// MetricsRecorder は認証フローの計測インターフェース。
type MetricsRecorder interface {
	RecordLoginSuccess()
	RecordLoginFailure(reason string)
	ObserveOAuthExchange(d time.Duration)
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	// SessionMaxAge はログインセッションの有効期間。
	SessionMaxAge time.Duration
	// InviteRequired がtrueの場合、新規サインアップに有効な招待が必要。
	// 既存ユーザーのログインには影響しない。
	InviteRequired bool
}

// Service はOAuthコールバックのオーケストレーションを担う。
// トークン交換、プロファイル取得、ユーザー照合、セッション確立を
// 1つのログイン操作としてまとめる。
type Service struct {
	provider Provider
	users    repository.UserRepository
	invites  repository.InviteRepository
	store    session.Store
	codec    *session.CookieCodec
	avatars  *AvatarFetcher
	metrics  MetricsRecorder
	config   ServiceConfig
}

// NewService はServiceを生成する。
// avatarsとmetricsはnil許容で、nilの場合は該当機能がスキップされる。
func NewService(
	provider Provider,
	users repository.UserRepository,
	invites repository.InviteRepository,
	store session.Store,
	codec *session.CookieCodec,
	avatars *AvatarFetcher,
	metrics MetricsRecorder,
	config ServiceConfig,
) *Service {
	return &Service{
		provider: provider,
		users:    users,
		invites:  invites,
		store:    store,
		codec:    codec,
		avatars:  avatars,
		metrics:  metrics,
		config:   config,
	}
}

// LoginURL はOAuthプロバイダーの認可URLを返す。
func (s *Service) LoginURL(state string) string {
	return s.provider.AuthCodeURL(state)
}

// HandleCallback はOAuthコールバックを処理し、セッションCookieに
// 設定する署名付き値を返す。
//
// 処理の流れ:
//  1. 認可コードをアクセストークンに交換
//  2. プロファイル取得
//  3. (provider, subject) でユーザーを照合。新規なら招待を検証した上で
//     user+accountを作成（同時初回ログインでも1ユーザーに収束する）
//  4. 新規作成時は招待を使用済みにし、アバターをベストエフォートで取得
//  5. サーバー側セッションを作成して保存
//
// どのステップで失敗してもセッションは作られない。
func (s *Service) HandleCallback(ctx context.Context, code, inviteToken string) (string, error) {
	exchangeStart := time.Now()
	accessToken, err := s.provider.Exchange(ctx, code)
	if err != nil {
		s.recordFailure("exchange")
		return "", err
	}
	s.observeExchange(time.Since(exchangeStart))

	profile, err := s.provider.FetchProfile(ctx, accessToken)
	if err != nil {
		s.recordFailure("profile")
		return "", err
	}

	user, created, err := s.reconcileUser(ctx, profile, inviteToken)
	if err != nil {
		s.recordFailure("reconcile")
		return "", err
	}

	if created {
		s.acceptInvite(ctx, inviteToken)
		s.fetchAvatar(ctx, user.ID, profile.Picture)
	}

	sess, err := session.New()
	if err != nil {
		s.recordFailure("session")
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	sessionUser := model.SessionUser{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
	}
	if err := sess.Set(session.UserKey, sessionUser); err != nil {
		s.recordFailure("session")
		return "", err
	}
	sess.SetExpiry(time.Now().Add(s.config.SessionMaxAge))

	cookieValue, err := s.store.Save(ctx, sess)
	if err != nil {
		s.recordFailure("session")
		return "", fmt.Errorf("failed to save session: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordLoginSuccess()
	}
	slog.Info("login completed",
		slog.String("user_id", user.ID),
		slog.String("provider", s.provider.Name()),
		slog.Bool("created", created))
	return cookieValue, nil
}

// Logout はセッションを破棄する。
// Cookie値が不正な場合は破棄対象が存在しないため何もしない（冪等）。
func (s *Service) Logout(ctx context.Context, cookieValue string) error {
	id, err := s.codec.Decode(cookieValue)
	if err != nil {
		return nil
	}
	if err := s.store.Destroy(ctx, id); err != nil {
		return fmt.Errorf("failed to destroy session: %w", err)
	}
	return nil
}

// reconcileUser は(provider, subject)でユーザーを照合し、
// 新規の場合は招待ポリシーを適用した上で作成する。
func (s *Service) reconcileUser(ctx context.Context, profile *Profile, inviteToken string) (*model.User, bool, error) {
	providerName := s.provider.Name()

	existing, err := s.users.FindByAccount(ctx, providerName, profile.Subject)
	if err != nil {
		return nil, false, fmt.Errorf("failed to look up account: %w", err)
	}
	if existing != nil {
		return existing, false, nil
	}

	// 新規サインアップ。招待制が有効な場合はここで検証する。
	if s.config.InviteRequired {
		if err := s.validateInvite(ctx, inviteToken); err != nil {
			return nil, false, err
		}
	}

	now := time.Now()
	user := &model.User{
		ID:        uuid.NewString(),
		Email:     profile.Email,
		Name:      profile.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	account := &model.Account{
		Provider:  providerName,
		Subject:   profile.Subject,
		UserID:    user.ID,
		CreatedAt: now,
	}
	result, created, err := s.users.UpsertByAccount(ctx, account, user)
	if err != nil {
		return nil, false, fmt.Errorf("failed to upsert user: %w", err)
	}
	return result, created, nil
}

// validateInvite は招待トークンの有効性を検証する。
func (s *Service) validateInvite(ctx context.Context, inviteToken string) error {
	if inviteToken == "" {
		return ErrInviteRequired
	}
	invite, err := s.invites.FindByID(ctx, inviteToken)
	if err != nil {
		return fmt.Errorf("failed to look up invite: %w", err)
	}
	if invite == nil || invite.Status != model.InviteStatusSent {
		return ErrInviteInvalid
	}
	return nil
}

// acceptInvite は招待を使用済みにする。失敗はログインを妨げない。
func (s *Service) acceptInvite(ctx context.Context, inviteToken string) {
	if inviteToken == "" {
		return
	}
	if err := s.invites.UpdateStatus(ctx, inviteToken, model.InviteStatusAccepted); err != nil {
		slog.Warn("failed to mark invite as accepted",
			slog.String("invite_id", inviteToken),
			slog.String("error", err.Error()))
	}
}

// fetchAvatar はアバター画像をベストエフォートで取得・保存する。
// 失敗してもログインは成功させ、警告ログのみ残す。
func (s *Service) fetchAvatar(ctx context.Context, userID, pictureURL string) {
	if s.avatars == nil || pictureURL == "" {
		return
	}
	data, mime, err := s.avatars.Fetch(ctx, pictureURL)
	if err != nil {
		slog.Warn("failed to fetch avatar",
			slog.String("user_id", userID),
			slog.String("error", err.Error()))
		return
	}
	if err := s.users.UpdateAvatar(ctx, userID, data, mime); err != nil {
		slog.Warn("failed to save avatar",
			slog.String("user_id", userID),
			slog.String("error", err.Error()))
	}
}

func (s *Service) recordFailure(reason string) {
	if s.metrics != nil {
		s.metrics.RecordLoginFailure(reason)
	}
}

func (s *Service) observeExchange(d time.Duration) {
	if s.metrics != nil {
		s.metrics.ObserveOAuthExchange(d)
	}
}
