package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nadeemsangrasi/creator-vault-sub004/internal/metrics"
	"github.com/nadeemsangrasi/creator-vault-sub004/internal/middleware"
)

// healthCheckTimeout は/healthでのDB疎通確認のタイムアウト。
const healthCheckTimeout = 2 * time.Second

// HealthChecker はヘルスチェックでのDB疎通確認に必要なインターフェース。
// *sql.DBが満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Verifier          middleware.TokenVerifier
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger

	// メトリクス（nilの場合は計測しない）
	Metrics         *metrics.Collector
	MetricsGatherer prometheus.Gatherer

	// ヘルスチェック
	HealthChecker HealthChecker

	// サービス
	AuthService AuthServiceInterface
	IdeaService IdeaServiceInterface
	UserService UserServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// 横断ミドルウェアの実行順序:
//
//	RequestID → Logging → Metrics → Recovery → CORS → SecurityHeaders
//
// 認証済みルートはさらに Auth → (OwnershipGuard) → RateLimit(General) を通り、
// サインアップ・ログインは代わりにIP単位のRateLimit(Auth)を通る。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// 横断ミドルウェア（全ルートに効く）
	r.Use(middleware.NewRequestIDMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.HTTPMiddleware())
	}
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())

	// Metricsがnilの場合に非nilインターフェースへ変換しないよう明示的に分岐する
	var authFailures middleware.AuthFailureRecorder
	var ideaMetrics IdeaMetricsRecorder
	if deps.Metrics != nil {
		authFailures = deps.Metrics
		ideaMetrics = deps.Metrics
	}

	authHandler := NewAuthHandler(deps.AuthService)
	ideaHandler := NewIdeaHandler(deps.IdeaService, ideaMetrics)
	userHandler := NewUserHandler(deps.UserService)

	authMW := middleware.NewAuthMiddleware(deps.Verifier, authFailures)
	authLimitMW := deps.RateLimiter.AuthEndpointMiddleware()
	generalLimitMW := deps.RateLimiter.GeneralMiddleware()

	// --- 認証不要のルート ---

	// 死活確認（DB疎通を含む）
	r.Get("/health", newHealthHandler(deps.HealthChecker))

	// Prometheusスクレイプ
	if deps.MetricsGatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.MetricsGatherer))
	}

	// サインアップ・ログイン（IP単位のレート制限付き）
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(authLimitMW).Post("/signup", authHandler.Signup)
		r.With(authLimitMW).Post("/login", authHandler.Login)
	})

	// --- 認証が必要なルート ---
	r.Group(func(r chi.Router) {
		r.Use(authMW)

		// 現在ユーザー情報
		r.With(generalLimitMW).Get("/api/v1/auth/me", authHandler.Me)

		// 退会（パスに{user_id}を含まないため所有者ガード対象外）
		r.With(generalLimitMW).Delete("/api/v1/users/me", userHandler.Withdraw)

		// アイデア管理
		// ミドルウェアスタック: OwnershipGuard → RateLimit(General)
		r.Route("/api/v1/{user_id}/ideas", func(r chi.Router) {
			r.Use(middleware.NewOwnershipGuardMiddleware())
			r.Use(generalLimitMW)

			r.Post("/", ideaHandler.CreateIdea)
			r.Get("/", ideaHandler.ListIdeas)
			r.Get("/stats", ideaHandler.GetIdeaStats)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", ideaHandler.GetIdea)
				r.Patch("/", ideaHandler.UpdateIdeaPartial)
				r.Put("/", ideaHandler.UpdateIdeaFull)
				r.Delete("/", ideaHandler.DeleteIdea)
			})
		})
	})

	return r
}

// newHealthHandler は/healthエンドポイントのハンドラーを返す。
// checkerがDBへ疎通できない場合は503を返す。
func newHealthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if checker != nil {
			ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
			defer cancel()

			if err := checker.PingContext(ctx); err != nil {
				slog.Warn("health check failed",
					slog.String("request_id", middleware.RequestIDFromContext(r.Context())),
					slog.String("error", err.Error()),
				)
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{"status": "unavailable"})
				return
			}
		}

		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}
