// Package synonym はキーワード照合で使う類義語の取得機能を提供する。
// Datamuse APIのクライアントと、Redisによる結果キャッシュを含む。
package synonym

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"golang.org/x/time/rate"
)

const (
	// DefaultEndpoint はDatamuse APIのエンドポイント。
	DefaultEndpoint = "https://api.datamuse.com/words"
	// DefaultMax は1語あたりに取得する類義語の既定件数。
	DefaultMax = 5
)

// Client はDatamuse APIのクライアント。
// rel_synクエリで類義語を取得し、外部APIへの呼び出し頻度をトークンバケットで制限する。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	endpoint   string
	max        int
	limiter    *rate.Limiter
}

// NewClient はClientの新しいインスタンスを生成する。
// endpointが空の場合はDefaultEndpoint、maxが0以下の場合はDefaultMaxを使う。
// ratePerSecが0以下の場合は呼び出し頻度を制限しない。
func NewClient(httpClient *http.Client, logger *slog.Logger, endpoint string, max int, ratePerSec float64) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if max <= 0 {
		max = DefaultMax
	}
	limit := rate.Inf
	if ratePerSec > 0 {
		limit = rate.Limit(ratePerSec)
	}
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		endpoint:   endpoint,
		max:        max,
		limiter:    rate.NewLimiter(limit, 1),
	}
}

// datamuseWord はDatamuse APIのレスポンス要素。
type datamuseWord struct {
	Word  string `json:"word"`
	Score int    `json:"score"`
}

// Lookup はwordの類義語をスコア順に最大max件返す。該当なしの場合は空スライスを返す。
func (c *Client) Lookup(ctx context.Context, word string) ([]string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("レート制限の待機に失敗しました: %w", err)
	}

	reqURL, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("エンドポイントURLのパースに失敗しました: %w", err)
	}
	q := reqURL.Query()
	q.Set("rel_syn", word)
	q.Set("max", strconv.Itoa(c.max))
	reqURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("User-Agent", "Newswatch/1.0 Feed Scraper")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("類義語APIの呼び出しに失敗しました",
			slog.String("word", word),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("類義語APIがエラーステータスを返しました",
			slog.String("word", word),
			slog.Int("http_status", resp.StatusCode),
		)
		return nil, fmt.Errorf("類義語APIがステータス %d を返しました", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	var result []datamuseWord
	if err := json.Unmarshal(body, &result); err != nil {
		c.logger.Error("類義語APIのレスポンスのパースに失敗しました",
			slog.String("word", word),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}

	words := make([]string, 0, len(result))
	for _, w := range result {
		if w.Word == "" {
			continue
		}
		words = append(words, w.Word)
		if len(words) == c.max {
			break
		}
	}

	return words, nil
}
