package news

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/newswatch/internal/metrics"
	"github.com/hitoshi/newswatch/internal/model"
	"github.com/hitoshi/newswatch/internal/repository"
)

// DefaultRetentionDays は期限切れ削除の既定日数。
const DefaultRetentionDays = 7

// Scraper は全フィードからの記事収集のインターフェース。
type Scraper interface {
	// ScrapeAll はフィードの入力順・エントリ順を保ったまま、採用された記事を連結して返す。
	// 個別フィードの取得失敗は結果から除外され、エラーにはならない。
	ScrapeAll(ctx context.Context, feeds []model.Feed, mapper *Mapper) []model.News
}

// Service はスクレイプ、キーワード照合付き取得、期限切れ削除を束ねるサービス層。
// 取り込み範囲（Window）は生成時に1回だけ計算される。
type Service struct {
	feedRepo repository.FeedRepository
	newsRepo repository.NewsRepository
	scraper  Scraper
	matcher  *Matcher
	mapper   *Mapper
	logger   *slog.Logger
	metrics  metrics.MetricsCollector

	// running はスクレイプサイクルの多重実行を防ぐ。Runner経由で生成した場合は共有される。
	running *sync.Mutex
}

// NewService はServiceの新しいインスタンスを生成する。
// nowは取り込み範囲の計算と公開日時の補完に使う。nilの場合はtime.Nowを使う。
// collectorはnilでもよい。
func NewService(
	feedRepo repository.FeedRepository,
	newsRepo repository.NewsRepository,
	scraper Scraper,
	matcher *Matcher,
	logger *slog.Logger,
	collector metrics.MetricsCollector,
	now func() time.Time,
) *Service {
	return newService(feedRepo, newsRepo, scraper, matcher, logger, collector, now, &sync.Mutex{})
}

func newService(
	feedRepo repository.FeedRepository,
	newsRepo repository.NewsRepository,
	scraper Scraper,
	matcher *Matcher,
	logger *slog.Logger,
	collector metrics.MetricsCollector,
	now func() time.Time,
	running *sync.Mutex,
) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		feedRepo: feedRepo,
		newsRepo: newsRepo,
		scraper:  scraper,
		matcher:  matcher,
		mapper:   NewMapper(NewWindow(now()), now),
		logger:   logger,
		metrics:  collector,
		running:  running,
	}
}

// Window はこのサービスが使う取り込み範囲を返す。
func (s *Service) Window() Window {
	return s.mapper.Window()
}

// RunScrapeCycle は全フィードから記事を収集して保存し、保存件数を返す。
// 既に別のサイクルが実行中の場合は model.ErrScrapeInProgress を返す。
func (s *Service) RunScrapeCycle(ctx context.Context) (int, error) {
	if !s.running.TryLock() {
		return 0, model.ErrScrapeInProgress
	}
	defer s.running.Unlock()

	start := time.Now()
	logger := s.logger.With(slog.String("cycle_id", uuid.NewString()))

	feeds, err := s.feedRepo.ListAll(ctx)
	if err != nil {
		logger.Error("フィード一覧の取得に失敗しました",
			slog.String("operation", "feeds.list_all"),
			slog.String("error", err.Error()),
		)
		return 0, fmt.Errorf("フィード一覧の取得に失敗: %w", err)
	}

	window := s.mapper.Window()
	logger.Info("スクレイプサイクルを開始します",
		slog.Int("feed_count", len(feeds)),
		slog.String("window_lower", FormatDate(window.Lower)),
		slog.String("window_upper", FormatDate(window.Upper)),
	)

	records := s.scraper.ScrapeAll(ctx, feeds, s.mapper)

	saved, err := s.newsRepo.SaveAll(ctx, records)
	if err != nil {
		logger.Error("記事の保存に失敗しました",
			slog.String("operation", "news.save_all"),
			slog.Int("news_count", len(records)),
			slog.String("error", err.Error()),
		)
		return 0, fmt.Errorf("記事の保存に失敗: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordNewsSaved(saved)
	}

	logger.Info("スクレイプサイクルが完了しました",
		slog.Int("feed_count", len(feeds)),
		slog.Int("news_scraped", len(records)),
		slog.Int("news_saved", saved),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)

	return saved, nil
}

// RetrieveAndMatch は指定フィードの保存済み記事を取得し、キーワード照合の結果を返す。
// feedIDsが空の場合は全記事を対象とする。
func (s *Service) RetrieveAndMatch(ctx context.Context, feedIDs []int64, keywords []string, useSynonyms bool) (model.MatchReport, error) {
	records, err := s.newsRepo.ListByFeedIDs(ctx, feedIDs)
	if err != nil {
		s.logger.Error("記事の取得に失敗しました",
			slog.String("operation", "news.list_by_feed_ids"),
			slog.Any("feed_ids", feedIDs),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("記事の取得に失敗: %w", err)
	}

	report := s.matcher.Match(ctx, records, keywords, useSynonyms)

	s.logger.Info("キーワード照合が完了しました",
		slog.Int("news_count", len(records)),
		slog.Int("keyword_count", len(keywords)),
		slog.Bool("synonyms", useSynonyms),
		slog.Int("matched_count", len(report)),
	)

	return report, nil
}

// ExpireOldNews は公開日時がdaysInterval日より古い記事を削除し、削除件数を返す。
// daysIntervalが0以下の場合はDefaultRetentionDaysを使う。
func (s *Service) ExpireOldNews(ctx context.Context, daysInterval int) (int64, error) {
	if daysInterval <= 0 {
		daysInterval = DefaultRetentionDays
	}

	deleted, err := s.newsRepo.DeleteOutdated(ctx, daysInterval)
	if err != nil {
		s.logger.Error("期限切れ記事の削除に失敗しました",
			slog.String("operation", "news.delete_outdated"),
			slog.Int("days_interval", daysInterval),
			slog.String("error", err.Error()),
		)
		return 0, fmt.Errorf("期限切れ記事の削除に失敗: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordNewsExpired(deleted)
	}

	s.logger.Info("期限切れ記事を削除しました",
		slog.Int("days_interval", daysInterval),
		slog.Int64("deleted_count", deleted),
	)

	return deleted, nil
}
