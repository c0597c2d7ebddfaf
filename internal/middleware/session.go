// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hitoshi/routinely/internal/model"
	"github.com/hitoshi/routinely/internal/session"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// userContextKey はリクエストコンテキストにログインユーザーを格納するためのキー。
var userContextKey = contextKey("session_user")

// NewSessionMiddleware はセッションCookieを検証し、ログインユーザーを
// リクエストコンテキストに注入するミドルウェアを返す。
//
// 認証に失敗したリクエストはloginPathへリダイレクトする:
//   - Cookieなし、署名不正、未知のセッションID、期限切れはすべて
//     「未ログイン」として同一に扱い、307でサインインへ誘導する
//   - ストア障害（接続断・ペイロード破損）のみ500を返す。
//     認証済みユーザーを誤ってサインインへ送らないため
func NewSessionMiddleware(store session.Store, codec *session.CookieCodec, loginPath string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(session.CookieName)
			if err != nil || cookie.Value == "" {
				redirectToLogin(w, r, loginPath)
				return
			}

			// 署名検証: 改ざんされたCookieはCookieなしと同様に扱う
			id, err := codec.Decode(cookie.Value)
			if err != nil {
				redirectToLogin(w, r, loginPath)
				return
			}

			sess, err := store.Load(r.Context(), id)
			if err != nil {
				slog.Error("failed to load session",
					slog.String("error", err.Error()),
				)
				WriteInternalServerError(w)
				return
			}
			if sess == nil {
				// 未知のIDまたは期限切れ
				redirectToLogin(w, r, loginPath)
				return
			}

			var user model.SessionUser
			ok, err := sess.Get(session.UserKey, &user)
			if err != nil {
				slog.Error("failed to read session user",
					slog.String("error", err.Error()),
				)
				WriteInternalServerError(w)
				return
			}
			if !ok || user.ID == "" {
				redirectToLogin(w, r, loginPath)
				return
			}

			ctx := ContextWithUser(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// redirectToLogin は未認証リクエストをサインインへ誘導する。
func redirectToLogin(w http.ResponseWriter, r *http.Request, loginPath string) {
	http.Redirect(w, r, loginPath, http.StatusTemporaryRedirect)
}

// UserFromContext はリクエストコンテキストからログインユーザーを取得する。
// セッションミドルウェアを通過したリクエストでのみ有効。
func UserFromContext(ctx context.Context) (model.SessionUser, error) {
	user, ok := ctx.Value(userContextKey).(model.SessionUser)
	if !ok || user.ID == "" {
		return model.SessionUser{}, fmt.Errorf("session user not found in context")
	}
	return user, nil
}

// UserIDFromContext はリクエストコンテキストからユーザーIDを取得する。
func UserIDFromContext(ctx context.Context) (string, error) {
	user, err := UserFromContext(ctx)
	if err != nil {
		return "", err
	}
	return user.ID, nil
}

// ContextWithUser はコンテキストにログインユーザーを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithUser(ctx context.Context, user model.SessionUser) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}
