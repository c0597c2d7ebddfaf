package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/routinely/internal/model"
	"github.com/hitoshi/routinely/internal/session"
)

// mockProvider はProviderのテスト用モック。
type mockProvider struct {
	nameFunc         func() string
	authCodeURLFunc  func(state string) string
	exchangeFunc     func(ctx context.Context, code string) (string, error)
	fetchProfileFunc func(ctx context.Context, accessToken string) (*Profile, error)
}

func (m *mockProvider) Name() string {
	if m.nameFunc != nil {
		return m.nameFunc()
	}
	return "google"
}

func (m *mockProvider) AuthCodeURL(state string) string {
	if m.authCodeURLFunc != nil {
		return m.authCodeURLFunc(state)
	}
	return "https://example.com/auth?state=" + state
}

func (m *mockProvider) Exchange(ctx context.Context, code string) (string, error) {
	return m.exchangeFunc(ctx, code)
}

func (m *mockProvider) FetchProfile(ctx context.Context, accessToken string) (*Profile, error) {
	return m.fetchProfileFunc(ctx, accessToken)
}

// mockUserRepo はUserRepositoryのテスト用モック。
type mockUserRepo struct {
	findByIDFunc        func(ctx context.Context, id string) (*model.User, error)
	findByAccountFunc   func(ctx context.Context, provider, subject string) (*model.User, error)
	upsertByAccountFunc func(ctx context.Context, account *model.Account, user *model.User) (*model.User, bool, error)
	updateAvatarFunc    func(ctx context.Context, id string, data []byte, mime string) error
	deleteByIDFunc      func(ctx context.Context, id string) error
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	return m.findByIDFunc(ctx, id)
}

func (m *mockUserRepo) FindByAccount(ctx context.Context, provider, subject string) (*model.User, error) {
	return m.findByAccountFunc(ctx, provider, subject)
}

func (m *mockUserRepo) UpsertByAccount(ctx context.Context, account *model.Account, user *model.User) (*model.User, bool, error) {
	return m.upsertByAccountFunc(ctx, account, user)
}

func (m *mockUserRepo) UpdateAvatar(ctx context.Context, id string, data []byte, mime string) error {
	if m.updateAvatarFunc != nil {
		return m.updateAvatarFunc(ctx, id, data, mime)
	}
	return nil
}

func (m *mockUserRepo) DeleteByID(ctx context.Context, id string) error {
	return m.deleteByIDFunc(ctx, id)
}

// mockInviteRepo はInviteRepositoryのテスト用モック。
type mockInviteRepo struct {
	findByIDFunc     func(ctx context.Context, id string) (*model.Invite, error)
	createFunc       func(ctx context.Context, invite *model.Invite) error
	updateStatusFunc func(ctx context.Context, id string, status model.InviteStatus) error
}

func (m *mockInviteRepo) FindByID(ctx context.Context, id string) (*model.Invite, error) {
	return m.findByIDFunc(ctx, id)
}

func (m *mockInviteRepo) Create(ctx context.Context, invite *model.Invite) error {
	return m.createFunc(ctx, invite)
}

func (m *mockInviteRepo) UpdateStatus(ctx context.Context, id string, status model.InviteStatus) error {
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, id, status)
	}
	return nil
}

func okProvider() *mockProvider {
	return &mockProvider{
		exchangeFunc: func(ctx context.Context, code string) (string, error) {
			return "access-token", nil
		},
		fetchProfileFunc: func(ctx context.Context, accessToken string) (*Profile, error) {
			return &Profile{Subject: "sub-1", Email: "taro@example.com", Name: "Taro"}, nil
		},
	}
}

func newTestService(t *testing.T, provider Provider, users *mockUserRepo, invites *mockInviteRepo, config ServiceConfig) (*Service, *session.MemoryStore, *session.CookieCodec) {
	t.Helper()
	codec := session.NewCookieCodec("test-secret")
	store := session.NewMemoryStore(codec)
	if config.SessionMaxAge == 0 {
		config.SessionMaxAge = time.Hour
	}
	svc := NewService(provider, users, invites, store, codec, nil, nil, config)
	return svc, store, codec
}

// 初回ログインでユーザーとセッションが作られることを検証。
// モックは実リポジトリと同様に、渡されたuserをそのまま返す。
// IDとタイムスタンプの採番はサービス側の責務であることをここで固定する。
func TestService_HandleCallback_FirstLogin(t *testing.T) {
	var upsertedAccount *model.Account
	var upsertedUser *model.User
	users := &mockUserRepo{
		findByAccountFunc: func(ctx context.Context, provider, subject string) (*model.User, error) {
			return nil, nil
		},
		upsertByAccountFunc: func(ctx context.Context, account *model.Account, user *model.User) (*model.User, bool, error) {
			upsertedAccount = account
			upsertedUser = user
			return user, true, nil
		},
	}
	svc, store, codec := newTestService(t, okProvider(), users, &mockInviteRepo{}, ServiceConfig{})

	cookieValue, err := svc.HandleCallback(context.Background(), "auth-code", "")
	if err != nil {
		t.Fatalf("HandleCallback() error = %v", err)
	}
	if upsertedAccount == nil || upsertedUser == nil {
		t.Fatal("UpsertByAccount was not called")
	}
	if upsertedAccount.Provider != "google" || upsertedAccount.Subject != "sub-1" {
		t.Errorf("upserted account = %+v", upsertedAccount)
	}

	// リポジトリに渡されるuserはID・タイムスタンプが採番済みであること
	if upsertedUser.ID == "" {
		t.Error("user handed to UpsertByAccount has empty ID")
	}
	if upsertedUser.CreatedAt.IsZero() || upsertedUser.UpdatedAt.IsZero() {
		t.Errorf("user timestamps not set: created_at=%v updated_at=%v",
			upsertedUser.CreatedAt, upsertedUser.UpdatedAt)
	}
	if upsertedAccount.UserID != upsertedUser.ID {
		t.Errorf("account.UserID = %q, want %q", upsertedAccount.UserID, upsertedUser.ID)
	}
	if upsertedAccount.CreatedAt.IsZero() {
		t.Error("account.CreatedAt not set")
	}

	// 返されたCookie値からセッションが復元できること
	id, err := codec.Decode(cookieValue)
	if err != nil {
		t.Fatalf("cookie value did not verify: %v", err)
	}
	sess, err := store.Load(context.Background(), id)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if sess == nil {
		t.Fatal("session was not saved")
	}
	var su model.SessionUser
	ok, err := sess.Get(session.UserKey, &su)
	if err != nil || !ok {
		t.Fatalf("session user missing: ok=%v err=%v", ok, err)
	}
	if su.ID != upsertedUser.ID || su.Email != "taro@example.com" {
		t.Errorf("session user = %+v, want ID %q", su, upsertedUser.ID)
	}
	if su.ID == "" {
		t.Error("session user has empty ID; session middleware would reject it")
	}
	if sess.ExpiresAt == nil {
		t.Error("session expiry was not set")
	}
}

// 既存ユーザーの再ログインで新規作成が行われないことを検証
func TestService_HandleCallback_ExistingUser(t *testing.T) {
	existing := &model.User{ID: "user-1", Email: "taro@example.com", Name: "Taro"}
	users := &mockUserRepo{
		findByAccountFunc: func(ctx context.Context, provider, subject string) (*model.User, error) {
			return existing, nil
		},
		upsertByAccountFunc: func(ctx context.Context, account *model.Account, user *model.User) (*model.User, bool, error) {
			t.Fatal("UpsertByAccount should not be called for an existing user")
			return nil, false, nil
		},
	}
	// 招待制が有効でも既存ユーザーのログインは通る
	svc, _, codec := newTestService(t, okProvider(), users, &mockInviteRepo{}, ServiceConfig{InviteRequired: true})

	cookieValue, err := svc.HandleCallback(context.Background(), "auth-code", "")
	if err != nil {
		t.Fatalf("HandleCallback() error = %v", err)
	}
	if _, err := codec.Decode(cookieValue); err != nil {
		t.Errorf("cookie value did not verify: %v", err)
	}
}

// トークン交換の失敗でセッションが作られないことを検証
func TestService_HandleCallback_ExchangeFailure(t *testing.T) {
	provider := okProvider()
	provider.exchangeFunc = func(ctx context.Context, code string) (string, error) {
		return "", &UpstreamError{Op: "exchange", Err: errors.New("boom")}
	}
	users := &mockUserRepo{
		findByAccountFunc: func(ctx context.Context, provider, subject string) (*model.User, error) {
			t.Fatal("FindByAccount should not be called when exchange fails")
			return nil, nil
		},
	}
	svc, _, _ := newTestService(t, provider, users, &mockInviteRepo{}, ServiceConfig{})

	_, err := svc.HandleCallback(context.Background(), "bad-code", "")
	if err == nil {
		t.Fatal("HandleCallback() error = nil, want error")
	}
	if !IsUpstreamError(err) {
		t.Errorf("error = %v, want UpstreamError", err)
	}
}

// 招待制のもとで招待なしの新規サインアップが拒否されることを検証
func TestService_HandleCallback_InviteRequired(t *testing.T) {
	users := &mockUserRepo{
		findByAccountFunc: func(ctx context.Context, provider, subject string) (*model.User, error) {
			return nil, nil
		},
		upsertByAccountFunc: func(ctx context.Context, account *model.Account, user *model.User) (*model.User, bool, error) {
			t.Fatal("UpsertByAccount should not be called without a valid invite")
			return nil, false, nil
		},
	}
	svc, _, _ := newTestService(t, okProvider(), users, &mockInviteRepo{}, ServiceConfig{InviteRequired: true})

	_, err := svc.HandleCallback(context.Background(), "auth-code", "")
	if !errors.Is(err, ErrInviteRequired) {
		t.Errorf("error = %v, want ErrInviteRequired", err)
	}
}

// 無効な招待でのサインアップが拒否されることを検証
func TestService_HandleCallback_InviteInvalid(t *testing.T) {
	tests := []struct {
		name   string
		invite *model.Invite
	}{
		{"unknown invite", nil},
		{"accepted invite", &model.Invite{ID: "inv-1", Status: model.InviteStatusAccepted}},
		{"revoked invite", &model.Invite{ID: "inv-1", Status: model.InviteStatusRevoked}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := &mockUserRepo{
				findByAccountFunc: func(ctx context.Context, provider, subject string) (*model.User, error) {
					return nil, nil
				},
			}
			invites := &mockInviteRepo{
				findByIDFunc: func(ctx context.Context, id string) (*model.Invite, error) {
					return tt.invite, nil
				},
			}
			svc, _, _ := newTestService(t, okProvider(), users, invites, ServiceConfig{InviteRequired: true})

			_, err := svc.HandleCallback(context.Background(), "auth-code", "inv-1")
			if !errors.Is(err, ErrInviteInvalid) {
				t.Errorf("error = %v, want ErrInviteInvalid", err)
			}
		})
	}
}

// 有効な招待でのサインアップが成功し、招待が使用済みになることを検証
func TestService_HandleCallback_InviteAccepted(t *testing.T) {
	users := &mockUserRepo{
		findByAccountFunc: func(ctx context.Context, provider, subject string) (*model.User, error) {
			return nil, nil
		},
		upsertByAccountFunc: func(ctx context.Context, account *model.Account, user *model.User) (*model.User, bool, error) {
			return user, true, nil
		},
	}
	var acceptedID string
	var acceptedStatus model.InviteStatus
	invites := &mockInviteRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.Invite, error) {
			return &model.Invite{ID: id, Status: model.InviteStatusSent}, nil
		},
		updateStatusFunc: func(ctx context.Context, id string, status model.InviteStatus) error {
			acceptedID = id
			acceptedStatus = status
			return nil
		},
	}
	svc, _, _ := newTestService(t, okProvider(), users, invites, ServiceConfig{InviteRequired: true})

	if _, err := svc.HandleCallback(context.Background(), "auth-code", "inv-1"); err != nil {
		t.Fatalf("HandleCallback() error = %v", err)
	}
	if acceptedID != "inv-1" || acceptedStatus != model.InviteStatusAccepted {
		t.Errorf("invite update = (%q, %q), want (inv-1, accepted)", acceptedID, acceptedStatus)
	}
}

// ログアウトでセッションが破棄されることを検証
func TestService_Logout(t *testing.T) {
	users := &mockUserRepo{
		findByAccountFunc: func(ctx context.Context, provider, subject string) (*model.User, error) {
			return &model.User{ID: "user-1"}, nil
		},
	}
	svc, store, codec := newTestService(t, okProvider(), users, &mockInviteRepo{}, ServiceConfig{})

	cookieValue, err := svc.HandleCallback(context.Background(), "auth-code", "")
	if err != nil {
		t.Fatalf("HandleCallback() error = %v", err)
	}

	if err := svc.Logout(context.Background(), cookieValue); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}

	id, _ := codec.Decode(cookieValue)
	sess, err := store.Load(context.Background(), id)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if sess != nil {
		t.Error("session still exists after logout")
	}

	// 同じ値での再ログアウトも不正Cookieでのログアウトもエラーにならない
	if err := svc.Logout(context.Background(), cookieValue); err != nil {
		t.Errorf("repeated Logout() error = %v", err)
	}
	if err := svc.Logout(context.Background(), "garbage"); err != nil {
		t.Errorf("Logout() with invalid cookie error = %v", err)
	}
}

// LoginURLがプロバイダーの認可URLにstateを渡すことを検証
func TestService_LoginURL(t *testing.T) {
	provider := okProvider()
	provider.authCodeURLFunc = func(state string) string {
		return "https://idp.example.com/auth?state=" + state
	}
	svc, _, _ := newTestService(t, provider, &mockUserRepo{}, &mockInviteRepo{}, ServiceConfig{})

	got := svc.LoginURL("abc")
	if got != "https://idp.example.com/auth?state=abc" {
		t.Errorf("LoginURL() = %q", got)
	}
}
