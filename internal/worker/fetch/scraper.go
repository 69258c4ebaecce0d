package fetch

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/hitoshi/newswatch/internal/metrics"
	"github.com/hitoshi/newswatch/internal/model"
	"github.com/hitoshi/newswatch/internal/news"
)

// EntrySource はフィードURLから検証前のエントリを取得するインターフェース。
type EntrySource interface {
	Fetch(ctx context.Context, feedURL string) ([]model.RawEntry, error)
}

var _ news.Scraper = (*Scraper)(nil)

// Scraper は全フィードを並列に取得し、採用された記事を入力順に連結する。
// semaphoreパターンで最大並列数を制御し、フィードごとにタイムアウトを設定する。
type Scraper struct {
	source         EntrySource
	logger         *slog.Logger
	metrics        metrics.MetricsCollector
	maxConcurrency int
	feedTimeout    time.Duration
}

// NewScraper はScraperの新しいインスタンスを生成する。
// maxConcurrencyが0以下の場合はデフォルト値10を使用する。
// feedTimeoutが0以下の場合はフィード単位のタイムアウトを設定しない。
func NewScraper(
	source EntrySource,
	logger *slog.Logger,
	collector metrics.MetricsCollector,
	maxConcurrency int,
	feedTimeout time.Duration,
) *Scraper {
	if maxConcurrency <= 0 {
		maxConcurrency = 10
	}
	return &Scraper{
		source:         source,
		logger:         logger,
		metrics:        collector,
		maxConcurrency: maxConcurrency,
		feedTimeout:    feedTimeout,
	}
}

// ScrapeAll は各フィードを取得し、mapperで判定・変換した記事を返す。
// 結果はフィードの入力順、フィード内ではエントリの文書順に並ぶ。
// 取得に失敗したフィードと形状不正のエントリはログに記録して除外する。
func (s *Scraper) ScrapeAll(ctx context.Context, feeds []model.Feed, mapper *news.Mapper) []model.News {
	results := make([][]model.News, len(feeds))

	// semaphoreパターンで並列数を制御
	sem := make(chan struct{}, s.maxConcurrency)
	var wg sync.WaitGroup

	for i, feed := range feeds {
		wg.Add(1)
		sem <- struct{}{} // semaphore取得（ブロック）

		go func(i int, feed model.Feed) {
			defer wg.Done()
			defer func() { <-sem }() // semaphore解放

			results[i] = s.scrapeFeed(ctx, feed, mapper)
		}(i, feed)
	}

	wg.Wait()

	var total int
	for _, r := range results {
		total += len(r)
	}
	records := make([]model.News, 0, total)
	for _, r := range results {
		records = append(records, r...)
	}
	return records
}

// scrapeFeed は1件のフィードを取得して採用された記事を返す。失敗時はnilを返す。
func (s *Scraper) scrapeFeed(ctx context.Context, feed model.Feed, mapper *news.Mapper) []model.News {
	start := time.Now()

	fetchCtx := ctx
	if s.feedTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, s.feedTimeout)
		defer cancel()
	}

	entries, err := s.source.Fetch(fetchCtx, feed.Link)
	if err != nil {
		reason := FailureReason(err)
		s.logger.Warn("フィードの取得に失敗したためスキップします",
			slog.Int64("feed_id", feed.ID),
			slog.String("feed_url", feed.Link),
			slog.String("reason", reason),
			slog.String("error", err.Error()),
		)
		if s.metrics != nil {
			s.metrics.RecordFetchFailure(feed.ID, reason)
		}
		return nil
	}

	var records []model.News
	rejected := 0
	for _, entry := range entries {
		record, admitted, err := mapper.Map(feed.ID, entry)
		if err != nil {
			var mappingErr *model.MappingError
			field := "unknown"
			if errors.As(err, &mappingErr) {
				field = mappingErr.Field
			}
			s.logger.Warn("形状不正のエントリをスキップします",
				slog.Int64("feed_id", feed.ID),
				slog.String("field", field),
				slog.String("error", err.Error()),
			)
			if s.metrics != nil {
				s.metrics.RecordMappingDefect(field)
			}
			rejected++
			continue
		}
		if !admitted {
			rejected++
			continue
		}
		records = append(records, record)
	}

	if s.metrics != nil {
		s.metrics.RecordFetchSuccess(feed.ID)
		s.metrics.RecordEntries(len(records), rejected)
	}

	s.logger.Info("フィードの取得が完了しました",
		slog.Int64("feed_id", feed.ID),
		slog.String("feed_url", feed.Link),
		slog.Int("entries_total", len(entries)),
		slog.Int("entries_admitted", len(records)),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)

	return records
}
