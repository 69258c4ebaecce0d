// Package handler はHTTPハンドラーとルーティングを提供する。
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/newswatch/internal/metrics"
	"github.com/hitoshi/newswatch/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	Logger          *slog.Logger
	HealthChecker   HealthChecker
	MetricsGatherer prometheus.Gatherer

	// ミドルウェア依存
	SessionToucher middleware.SessionToucher
	RateLimiter    *middleware.RateLimiter

	// SessionChecker がnilの場合、/session/status は登録しない
	SessionChecker SessionChecker

	NewsService NewsServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → SecurityHeaders → (/api) Session → RateLimit
//
// /health と /metrics は認証不要。/session/status はセッションを延長しない。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware(deps.Logger))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewSecurityHeadersMiddleware())

	newsHandler := NewNewsHandler(deps.NewsService)

	// --- 認証不要のルート ---
	r.Get("/health", NewHealthHandler(deps.HealthChecker))
	if deps.MetricsGatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.MetricsGatherer))
	}
	if deps.SessionChecker != nil {
		r.Get("/session/status", NewSessionStatusHandler(deps.SessionChecker))
	}

	// --- 認証が必要なルート ---
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionToucher))
		r.Use(deps.RateLimiter.Middleware())

		r.Get("/news", newsHandler.ListMatches)
		r.Delete("/news/outdated", newsHandler.ExpireOutdated)
		r.Post("/scrape", newsHandler.Scrape)
	})

	return r
}
