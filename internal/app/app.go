// Package app はサブコマンドごとの依存関係の組み立てと起動を行う。
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/newswatch/internal/config"
	"github.com/hitoshi/newswatch/internal/database"
	"github.com/hitoshi/newswatch/internal/handler"
	"github.com/hitoshi/newswatch/internal/logger"
	"github.com/hitoshi/newswatch/internal/metrics"
	"github.com/hitoshi/newswatch/internal/middleware"
	"github.com/hitoshi/newswatch/internal/news"
	"github.com/hitoshi/newswatch/internal/repository"
	"github.com/hitoshi/newswatch/internal/security"
	"github.com/hitoshi/newswatch/internal/synonym"
	"github.com/hitoshi/newswatch/internal/user"
	"github.com/hitoshi/newswatch/internal/worker/cleanup"
	fetchpkg "github.com/hitoshi/newswatch/internal/worker/fetch"
)

// Init はアプリケーションの初期化を行う。
// JSON構造化ログをセットアップし、環境変数からConfigを読み込む。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 設定読み込み前にログを使えるようにする
	logger.SetupDefault(w)

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case CommandWorker:
		return runWorker(ctx, cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	case CommandScrape:
		return runScrape(ctx, cfg)
	case CommandExpire:
		return runExpire(ctx, cfg)
	default:
		return runServe(ctx, cfg)
	}
}

// components はサブコマンド間で共通の依存関係を保持する。
type components struct {
	db        *sql.DB
	userRepo  *repository.PostgresUserRepo
	runner    *news.Runner
	collector *metrics.Collector
	registry  *prometheus.Registry
	closers   []func() error
}

// Close は保持している接続を逆順に閉じる。
func (c *components) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			slog.Warn("failed to close resource", slog.String("error", err.Error()))
		}
	}
}

// buildComponents はDB接続を開き、スクレイプと照合に必要な依存関係をワイヤリングする。
func buildComponents(ctx context.Context, cfg *config.Config) (*components, error) {
	l := slog.Default()

	// 1. DB接続
	db, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	c := &components{db: db, closers: []func() error{db.Close}}
	l.Info("database connection established")

	// 2. メトリクス
	c.registry = prometheus.NewRegistry()
	c.collector = metrics.NewCollector(c.registry)

	// 3. リポジトリ
	feedRepo := repository.NewPostgresFeedRepo(db)
	newsRepo := repository.NewPostgresNewsRepo(db)
	c.userRepo = repository.NewPostgresUserRepo(db)

	// 4. フィード取得
	ssrfGuard := security.NewSSRFGuard(cfg.FetchAllowedPorts...)
	fetcher := fetchpkg.NewFetcher(ssrfGuard, l, c.collector, cfg.FetchTimeout, cfg.FetchMaxSize)
	scraper := fetchpkg.NewScraper(fetcher, l, c.collector, cfg.FetchMaxConcurrent, cfg.FetchTimeout)

	// 5. 類義語検索（REDIS_URLが設定されている場合のみキャッシュを使う）
	client := synonym.NewClient(
		&http.Client{Timeout: cfg.SynonymTimeout},
		l, cfg.SynonymEndpoint, cfg.SynonymMax, cfg.SynonymRatePerSec,
	)
	var lookup news.SynonymLookup = client
	if cfg.RedisURL != "" {
		rdb, err := synonym.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			l.Warn("Redisに接続できないため類義語キャッシュを無効にします",
				slog.String("error", err.Error()),
			)
		} else {
			c.closers = append(c.closers, rdb.Close)
			lookup = synonym.NewCachedLookup(client, synonym.NewRedisCache(rdb), cfg.SynonymCacheTTL, l)
		}
	}

	// 6. オーケストレーション
	matcher := news.NewMatcher(lookup, l, c.collector)
	c.runner = news.NewRunner(feedRepo, newsRepo, scraper, matcher, l, c.collector, time.Now)

	return c, nil
}

// runServe はAPIサーバーモードで起動する。
// ctxがキャンセルされるとグレースフルシャットダウンを行う。
func runServe(ctx context.Context, cfg *config.Config) error {
	c, err := buildComponents(ctx, cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	rateLimiter := middleware.NewRateLimiter(middleware.NewRateLimiterConfig(cfg.RateLimitGeneral))
	defer rateLimiter.Stop()

	userService := user.NewService(c.userRepo, cfg.SessionTimeout, slog.Default(), time.Now)

	router := handler.NewRouter(&handler.RouterDeps{
		Logger:          slog.Default(),
		HealthChecker:   c.db,
		MetricsGatherer: c.registry,
		SessionToucher:  userService,
		RateLimiter:     rateLimiter,
		SessionChecker:  userService,
		NewsService:     c.runner,
	})

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		// スクレイプサイクルを同期実行するため書き込みタイムアウトは長めに取る
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	return serveUntilDone(ctx, server, "API server")
}

// runWorker はワーカーモードで起動する。
// cronスケジューラでスクレイプと期限切れ削除を定期実行し、/metricsを公開する。
func runWorker(ctx context.Context, cfg *config.Config) error {
	c, err := buildComponents(ctx, cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	cleanupJob := cleanup.NewCleanupJob(c.runner, slog.Default(), cfg.NewsRetentionDays)

	scheduler, err := fetchpkg.NewScheduler(c.runner, cleanupJob, slog.Default(), cfg.ScrapeSchedule, cfg.ExpireSchedule)
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	metricsServer := &http.Server{
		Addr:        ":" + cfg.ServerPort,
		Handler:     metrics.SetupMetricsRoute(c.registry),
		ReadTimeout: 15 * time.Second,
	}
	go func() {
		if err := serveUntilDone(ctx, metricsServer, "worker metrics server"); err != nil {
			slog.Error("worker metrics server error", slog.String("error", err.Error()))
		}
	}()

	slog.Info("worker starting",
		slog.String("scrape_schedule", cfg.ScrapeSchedule),
		slog.String("expire_schedule", cfg.ExpireSchedule),
		slog.Int("retention_days", cfg.NewsRetentionDays),
		slog.Int("max_concurrent", cfg.FetchMaxConcurrent),
	)

	// スケジューラをメインgoroutineで実行（ブロッキング）
	scheduler.Start(ctx)

	slog.Info("worker stopped gracefully")
	return nil
}

// runScrape はスクレイプサイクルを1回実行して終了する。
func runScrape(ctx context.Context, cfg *config.Config) error {
	c, err := buildComponents(ctx, cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	saved, err := c.runner.RunScrapeCycle(ctx)
	if err != nil {
		return fmt.Errorf("scrape failed: %w", err)
	}

	slog.Info("scrape completed", slog.Int("news_saved", saved))
	return nil
}

// runExpire は期限切れ記事の削除を1回実行して終了する。
func runExpire(ctx context.Context, cfg *config.Config) error {
	c, err := buildComponents(ctx, cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	return cleanup.NewCleanupJob(c.runner, slog.Default(), cfg.NewsRetentionDays).Run(ctx)
}

// serveUntilDone はserverを起動し、ctxがキャンセルされたらシャットダウンする。
func serveUntilDone(ctx context.Context, server *http.Server, name string) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info(name+" starting", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("%s listen error: %w", name, err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down " + name + "...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("%s shutdown failed: %w", name, err)
	}

	slog.Info(name + " stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	version, err := database.RunMigrations(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully", slog.Uint64("schema_version", uint64(version)))
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
