package news

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hitoshi/newswatch/internal/metrics"
	"github.com/hitoshi/newswatch/internal/model"
	"github.com/hitoshi/newswatch/internal/repository"
)

// Runner は呼び出しごとに新しいServiceを生成して処理を委譲する。
// 取り込み範囲は生成のたびに計算されるため、日付をまたいで稼働するプロセスでも前日分を対象にできる。
// 生成したService間でスクレイプサイクルのロックを共有する。
type Runner struct {
	feedRepo repository.FeedRepository
	newsRepo repository.NewsRepository
	scraper  Scraper
	matcher  *Matcher
	logger   *slog.Logger
	metrics  metrics.MetricsCollector
	now      func() time.Time

	running sync.Mutex
}

// NewRunner はRunnerの新しいインスタンスを生成する。
func NewRunner(
	feedRepo repository.FeedRepository,
	newsRepo repository.NewsRepository,
	scraper Scraper,
	matcher *Matcher,
	logger *slog.Logger,
	collector metrics.MetricsCollector,
	now func() time.Time,
) *Runner {
	if now == nil {
		now = time.Now
	}
	return &Runner{
		feedRepo: feedRepo,
		newsRepo: newsRepo,
		scraper:  scraper,
		matcher:  matcher,
		logger:   logger,
		metrics:  collector,
		now:      now,
	}
}

// Service は現在時刻で取り込み範囲を確定したServiceを生成する。
func (r *Runner) Service() *Service {
	return newService(r.feedRepo, r.newsRepo, r.scraper, r.matcher, r.logger, r.metrics, r.now, &r.running)
}

// RunScrapeCycle は新しいServiceでスクレイプサイクルを実行する。
func (r *Runner) RunScrapeCycle(ctx context.Context) (int, error) {
	return r.Service().RunScrapeCycle(ctx)
}

// RetrieveAndMatch は保存済み記事のキーワード照合を行う。
func (r *Runner) RetrieveAndMatch(ctx context.Context, feedIDs []int64, keywords []string, useSynonyms bool) (model.MatchReport, error) {
	return r.Service().RetrieveAndMatch(ctx, feedIDs, keywords, useSynonyms)
}

// ExpireOldNews は期限切れ記事を削除する。
func (r *Runner) ExpireOldNews(ctx context.Context, daysInterval int) (int64, error) {
	return r.Service().ExpireOldNews(ctx, daysInterval)
}
