package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/hitoshi/newswatch/internal/metrics"
	"github.com/hitoshi/newswatch/internal/model"
)

// ErrBlockedURL はSSRF検証でURLが拒否されたことを示す。
var ErrBlockedURL = errors.New("feed URL is blocked")

// ErrUnparsable はレスポンスをフィードとして解釈できなかったことを示す。
var ErrUnparsable = errors.New("feed could not be parsed")

// SSRFValidator はSSRF検証のインターフェース。
type SSRFValidator interface {
	ValidateURL(rawURL string) error
	NewSafeClient(timeout time.Duration, maxResponseSize int64) *http.Client
}

// Fetcher は個別フィードのHTTPフェッチとパースを行い、検証前のエントリを返す。
// SSRF検証、レスポンスサイズ制限、gofeedによるパースを実行する。
type Fetcher struct {
	ssrfGuard   SSRFValidator
	logger      *slog.Logger
	metrics     metrics.MetricsCollector
	timeout     time.Duration
	maxBodySize int64
}

// NewFetcher はFetcherの新しいインスタンスを生成する。collectorはnilでもよい。
func NewFetcher(
	ssrfGuard SSRFValidator,
	logger *slog.Logger,
	collector metrics.MetricsCollector,
	timeout time.Duration,
	maxBodySize int64,
) *Fetcher {
	return &Fetcher{
		ssrfGuard:   ssrfGuard,
		logger:      logger,
		metrics:     collector,
		timeout:     timeout,
		maxBodySize: maxBodySize,
	}
}

// Fetch はフィードを取得してパースし、エントリを文書順で返す。
// 取得・パースに失敗した場合は *model.TransportError を返す。
func (f *Fetcher) Fetch(ctx context.Context, feedURL string) ([]model.RawEntry, error) {
	start := time.Now()

	if err := f.ssrfGuard.ValidateURL(feedURL); err != nil {
		return nil, &model.TransportError{URL: feedURL, Err: fmt.Errorf("%w: %v", ErrBlockedURL, err)}
	}

	client := f.ssrfGuard.NewSafeClient(f.timeout, f.maxBodySize)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, &model.TransportError{URL: feedURL, Err: fmt.Errorf("リクエスト作成に失敗: %w", err)}
	}

	req.Header.Set("User-Agent", "Newswatch/1.0 Feed Scraper")
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml, */*")

	resp, err := client.Do(req)
	if err != nil {
		return nil, &model.TransportError{URL: feedURL, Err: err}
	}
	defer resp.Body.Close()

	if f.metrics != nil {
		f.metrics.RecordHTTPStatus(resp.StatusCode)
		f.metrics.RecordFetchLatency(time.Since(start))
	}

	if !IsSuccessStatus(resp.StatusCode) {
		return nil, &model.TransportError{URL: feedURL, StatusCode: resp.StatusCode}
	}

	// レスポンスボディを読み込み（最大サイズ制限付き）
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return nil, &model.TransportError{URL: feedURL, Err: fmt.Errorf("レスポンス読み取りに失敗: %w", err)}
	}

	parser := gofeed.NewParser()
	parsedFeed, err := parser.ParseString(string(body))
	if err != nil {
		return nil, &model.TransportError{URL: feedURL, Err: fmt.Errorf("%w: %v", ErrUnparsable, err)}
	}

	entries := convertGofeedItems(parsedFeed.Items)

	f.logger.Debug("フィードを取得しました",
		slog.String("feed_url", feedURL),
		slog.Int("http_status", resp.StatusCode),
		slog.Int("entries", len(entries)),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)

	return entries, nil
}

// convertGofeedItems はgofeedの記事をmodel.RawEntryに変換する。
// gofeedは欠落したタイトルを空文字列として返すため、Titleは常に設定される。
// Linkが得られない場合のみnilのままとなる。
func convertGofeedItems(items []*gofeed.Item) []model.RawEntry {
	entries := make([]model.RawEntry, 0, len(items))

	for _, item := range items {
		if item == nil {
			continue
		}

		title := item.Title
		entry := model.RawEntry{Title: &title}

		link := item.Link
		// LinkがなくGUIDがURL形式の場合はGUIDをLinkとして使用
		if link == "" && (strings.HasPrefix(item.GUID, "http://") || strings.HasPrefix(item.GUID, "https://")) {
			link = item.GUID
		}
		if link != "" {
			entry.Link = &link
		}

		// Descriptionが空の場合はContentを使用
		summary := item.Description
		if summary == "" {
			summary = item.Content
		}
		if summary != "" {
			entry.Summary = &summary
		}

		// 公開日時。更新日時しか持たないエントリは公開日時なしとして扱う
		if item.PublishedParsed != nil {
			t := *item.PublishedParsed
			entry.Published = &t
		}

		entries = append(entries, entry)
	}

	return entries
}
