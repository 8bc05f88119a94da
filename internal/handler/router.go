package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/chatman/internal/metrics"
	"github.com/hitoshi/chatman/internal/middleware"
)

// HealthChecker はヘルスチェックで利用するDB疎通確認インターフェース。
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	HealthChecker     HealthChecker
	SessionFinder     middleware.SessionFinder
	UserFinder        middleware.UserFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// メトリクス
	Metrics  *metrics.Collector
	Gatherer prometheus.Gatherer

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// ルーム
	RoomService RoomServiceInterface

	// ユーザー
	UserService UserServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → Metrics → Session → RateLimit
//
// 認証ルート（/auth/*）、/health、/metrics はSessionミドルウェアの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// 全ルートに効くミドルウェア
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(slog.Default()))
	if deps.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.Metrics))
	}

	authHandler := NewAuthHandler(deps.AuthService, deps.Metrics, deps.AuthConfig)
	roomHandler := NewRoomHandler(deps.RoomService)
	userHandler := NewUserHandler(deps.UserService)

	// --- 認証不要のルート ---

	r.Get("/health", newHealthHandler(deps.HealthChecker))

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", authHandler.Signup)
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
	})

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → RateLimit（操作別）
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder, deps.UserFinder))

		// ルーム管理
		r.Route("/api/rooms", func(r chi.Router) {
			r.Get("/", roomHandler.ListRooms)
			r.Get("/mine", roomHandler.ListCurrentUserRooms)

			// POST /api/rooms - ルーム作成（作成専用レート制限）
			r.With(deps.RateLimiter.Middleware(middleware.OpCreateRoom)).
				Post("/", roomHandler.CreateRoom)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", roomHandler.GetRoom)
				r.Delete("/", roomHandler.DeleteRoom)

				// DELETE /api/rooms/{id}/members/{memberId} - メンバー削除（既定レート制限）
				r.With(deps.RateLimiter.Middleware(middleware.OpDefault)).
					Delete("/members/{memberId}", roomHandler.RemoveMember)
			})
		})

		// ユーザー管理
		r.Route("/api/users", func(r chi.Router) {
			r.Get("/", userHandler.ListUsers)
			r.Get("/{id}", userHandler.GetUser)
		})

		// 自分のプロフィール（更新系はプロフィール専用レート制限）
		r.Route("/api/me", func(r chi.Router) {
			r.Get("/", userHandler.Me)
			r.With(deps.RateLimiter.Middleware(middleware.OpProfile)).
				Put("/color", userHandler.SetColor)
			r.With(deps.RateLimiter.Middleware(middleware.OpProfile)).
				Put("/links", userHandler.SetLinks)
		})
	})

	return r
}

// newHealthHandler はDB疎通を確認するヘルスチェックハンドラーを返す。
func newHealthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if checker != nil {
			if err := checker.Ping(r.Context()); err != nil {
				slog.Error("health check failed", slog.String("error", err.Error()))
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{"status": "unhealthy"})
				return
			}
		}

		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}
