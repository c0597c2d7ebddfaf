package handler

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/routinely/internal/auth"
	"github.com/hitoshi/routinely/internal/middleware"
	"github.com/hitoshi/routinely/internal/model"
	"github.com/hitoshi/routinely/internal/session"
)

const (
	// oauthStateCookie はコールバックのCSRF検証に使うstateを保持する。
	oauthStateCookie = "oauth_state"
	// inviteCookie はサインアップ時の招待IDをOAuthリダイレクトを跨いで保持する。
	inviteCookie = "invite"
	// oauthFlowMaxAge はstateと招待Cookieの有効期間（秒）。
	oauthFlowMaxAge = 600
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	// LoginURL はOAuthプロバイダーの認可URLを返す。
	LoginURL(state string) string
	// HandleCallback は認可コードからセッションを確立し、
	// Cookieに設定する署名付き値を返す。
	HandleCallback(ctx context.Context, code, inviteToken string) (string, error)
	// Logout はセッションを破棄する（冪等）。
	Logout(ctx context.Context, cookieValue string) error
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	BaseURL       string
	CookieDomain  string
	CookieSecure  bool
	SessionMaxAge int // セッションCookieの有効期間（秒）
}

// AuthHandler はOAuth認証関連のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	config  AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service: service,
		config:  config,
	}
}

// Login はGoogle OAuthフローを開始する。
// GET /auth/google?invite=xxx
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	state, err := generateState()
	if err != nil {
		slog.Error("failed to generate oauth state", slog.String("error", err.Error()))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	// stateをCookieに保存（CSRF対策）
	h.setFlowCookie(w, oauthStateCookie, state, oauthFlowMaxAge)

	// 招待付きサインアップの場合、招待IDをコールバックまで持ち越す
	if invite := r.URL.Query().Get("invite"); invite != "" {
		h.setFlowCookie(w, inviteCookie, invite, oauthFlowMaxAge)
	}

	http.Redirect(w, r, h.service.LoginURL(state), http.StatusTemporaryRedirect)
}

// Callback はOAuthコールバックを処理する。
// GET /auth/authorized?code=xxx&state=yyy
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	// 1. stateの検証（CSRF対策）。比較は定数時間で行う
	state := r.URL.Query().Get("state")
	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || state == "" || !hmac.Equal([]byte(stateCookie.Value), []byte(state)) {
		slog.Warn("oauth state mismatch",
			slog.String("query_state", state),
		)
		http.Error(w, "invalid state parameter", http.StatusBadRequest)
		return
	}
	h.setFlowCookie(w, oauthStateCookie, "", -1)

	// 2. 認可コードの取得
	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing authorization code", http.StatusBadRequest)
		return
	}

	// 3. 招待IDの取り出し（なければ空）
	inviteToken := ""
	if c, err := r.Cookie(inviteCookie); err == nil {
		inviteToken = c.Value
	}
	h.setFlowCookie(w, inviteCookie, "", -1)

	// 4. 認証処理
	cookieValue, err := h.service.HandleCallback(r.Context(), code, inviteToken)
	if err != nil {
		h.handleCallbackError(w, r, err)
		return
	}

	// 5. セッションCookieを設定してトップへリダイレクト
	session.SetCookie(w, cookieValue, session.CookieOptions{
		Domain: h.config.CookieDomain,
		Secure: h.config.CookieSecure,
		MaxAge: h.config.SessionMaxAge,
	})
	http.Redirect(w, r, h.config.BaseURL, http.StatusTemporaryRedirect)
}

// handleCallbackError はコールバック処理のエラーを応答に変換する。
// プロバイダー側の障害はログイン失敗としてサインインへ戻し、
// 招待ポリシー違反は403、それ以外（永続化障害等）は500にする。
func (h *AuthHandler) handleCallbackError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case auth.IsUpstreamError(err):
		slog.Warn("oauth upstream failure", slog.String("error", err.Error()))
		http.Redirect(w, r, h.config.BaseURL+"/?login=failed", http.StatusTemporaryRedirect)
	case errors.Is(err, auth.ErrInviteRequired):
		writeAPIErrorResponse(w, http.StatusForbidden, model.NewInviteRequiredError())
	case errors.Is(err, auth.ErrInviteInvalid):
		writeAPIErrorResponse(w, http.StatusForbidden, model.NewInviteInvalidError())
	default:
		slog.Error("oauth callback failed", slog.String("error", err.Error()))
		writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
			Code:     "INTERNAL_ERROR",
			Message:  "内部エラーが発生しました。",
			Category: "system",
			Action:   "しばらく待ってから再度お試しください。",
		})
	}
}

// Logout はセッションを破棄する。
// GET /logout
// 未ログイン状態でのアクセスもエラーにしない（冪等）。
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(session.CookieName)
	if err == nil && cookie.Value != "" {
		if logoutErr := h.service.Logout(r.Context(), cookie.Value); logoutErr != nil {
			slog.Error("failed to logout", slog.String("error", logoutErr.Error()))
			// ログアウト失敗してもCookieはクリアする
		}
	}

	session.ClearCookie(w, session.CookieOptions{
		Domain: h.config.CookieDomain,
		Secure: h.config.CookieSecure,
	})
	http.Redirect(w, r, h.config.BaseURL, http.StatusTemporaryRedirect)
}

// Protected は現在のログインユーザー情報を返す。
// GET /protected （セッションミドルウェアの背後に配置）
func (h *AuthHandler) Protected(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}

// setFlowCookie はOAuthフロー中だけ生きる短命Cookieを設定する。
func (h *AuthHandler) setFlowCookie(w http.ResponseWriter, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// generateState はCSRF対策用のランダムなstate値を生成する。
func generateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
