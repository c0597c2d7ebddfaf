package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/routinely/internal/metrics"
	"github.com/hitoshi/routinely/internal/middleware"
	"github.com/hitoshi/routinely/internal/session"
	"github.com/prometheus/client_golang/prometheus"
)

// loginPath は未認証リクエストのリダイレクト先。
const loginPath = "/auth/google"

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionStore session.Store
	CookieCodec  *session.CookieCodec
	RateLimiter  *middleware.RateLimiter
	Logger       *slog.Logger

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// ルーティン
	RoutineService RoutineServiceInterface

	// 招待
	InviteService InviteServiceInterface

	// メトリクス（nilの場合 /metrics は公開しない）
	MetricsGatherer prometheus.Gatherer
	// MetricsRecorder はレスポンスステータスの記録先（nil許容）
	MetricsRecorder middleware.HTTPStatusRecorder
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → Logging →（保護ルートのみ）Session → CSRF → RateLimit(General)
//
// 認証ルート（/auth/*, /logout）はセッションミドルウェアの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// 全ルート共通のミドルウェア
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	if deps.MetricsRecorder != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.MetricsRecorder))
	}

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	routineHandler := NewRoutineHandler(deps.RoutineService)
	inviteHandler := NewInviteHandler(deps.InviteService)

	csrfConfig := middleware.CSRFConfig{
		CookieSecure: deps.AuthConfig.CookieSecure,
		CookieDomain: deps.AuthConfig.CookieDomain,
	}

	// --- 認証不要のルート ---

	// ヘルスチェック
	r.Get("/health", healthHandler)

	// メトリクス
	if deps.MetricsGatherer != nil {
		r.Handle("/metrics", metrics.SetupMetricsRoute(deps.MetricsGatherer))
	}

	// OAuthフロー。ログイン開始はIPごとのレート制限を適用する
	r.With(deps.RateLimiter.LoginMiddleware()).Get("/auth/google", authHandler.Login)
	r.Get("/auth/authorized", authHandler.Callback)
	r.Get("/logout", authHandler.Logout)

	// CSRFトークン取得（フロントエンドが状態変更リクエスト前に呼ぶ）
	r.Method(http.MethodGet, "/api/csrf-token", middleware.NewCSRFTokenHandler(csrfConfig))

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → CSRF → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionStore, deps.CookieCodec, loginPath))
		r.Use(middleware.NewCSRFMiddleware(csrfConfig))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// ログインユーザー情報
		r.Get("/protected", authHandler.Protected)

		// ルーティン管理
		r.Route("/api/routines", func(r chi.Router) {
			r.Get("/", routineHandler.List)
			r.Post("/", routineHandler.Create)
			r.Delete("/{id}", routineHandler.Delete)
		})

		// 実施記録
		r.Post("/api/entries/toggle", routineHandler.ToggleEntry)

		// 招待管理
		r.Route("/api/invites", func(r chi.Router) {
			r.Post("/", inviteHandler.Create)
			r.Delete("/{id}", inviteHandler.Revoke)
		})
	})

	return r
}

// healthHandler は死活監視用のエンドポイント。
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
