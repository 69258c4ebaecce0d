package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/hitoshi/newswatch/internal/model"
)

// NewsServiceInterface はニュースハンドラーが必要とするサービスインターフェース。
// news.Runnerが実装する。
type NewsServiceInterface interface {
	// RunScrapeCycle は全フィードをスクレイプして保存し、保存件数を返す。
	RunScrapeCycle(ctx context.Context) (int, error)
	// RetrieveAndMatch は保存済み記事をキーワードで照合する。
	RetrieveAndMatch(ctx context.Context, feedIDs []int64, keywords []string, useSynonyms bool) (model.MatchReport, error)
	// ExpireOldNews は古い記事を削除し、削除件数を返す。
	ExpireOldNews(ctx context.Context, daysInterval int) (int64, error)
}

// NewsHandler はニュース記事のHTTPハンドラー。
type NewsHandler struct {
	service NewsServiceInterface
}

// NewNewsHandler はNewsHandlerを生成する。
func NewNewsHandler(service NewsServiceInterface) *NewsHandler {
	return &NewsHandler{service: service}
}

// --- レスポンス型 ---

// newsMatchResponse は照合結果1件分のレスポンス。
type newsMatchResponse struct {
	ID          int64    `json:"id"`
	FeedID      int64    `json:"feed_id"`
	Title       string   `json:"title"`
	Link        string   `json:"link"`
	Description string   `json:"description"`
	PublishDate string   `json:"publish_date"`
	Keywords    []string `json:"keywords"`
}

// matchListResponse は照合結果一覧のレスポンス。
type matchListResponse struct {
	Matches []newsMatchResponse `json:"matches"`
	Count   int                 `json:"count"`
}

type scrapeResponse struct {
	Saved int `json:"saved"`
}

type expireResponse struct {
	Deleted int64 `json:"deleted"`
}

// ListMatches は保存済み記事をキーワードで照合した結果を返す。
// GET /api/news?feed_ids=1,2&keywords=a,b&synonyms=true
func (h *NewsHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	feedIDs, err := parseFeedIDs(q.Get("feed_ids"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	keywords := splitCSV(q.Get("keywords"))
	if len(keywords) == 0 {
		handleServiceError(w, model.NewKeywordsRequiredError())
		return
	}

	// 解釈できない値は類義語展開なしとして扱う
	useSynonyms, _ := strconv.ParseBool(q.Get("synonyms"))

	report, err := h.service.RetrieveAndMatch(r.Context(), feedIDs, keywords, useSynonyms)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := matchListResponse{
		Matches: make([]newsMatchResponse, 0, len(report)),
		Count:   len(report),
	}
	for _, m := range report {
		resp.Matches = append(resp.Matches, newsMatchResponse{
			ID:          m.News.ID,
			FeedID:      m.News.FeedID,
			Title:       m.News.Title,
			Link:        m.News.Link,
			Description: m.News.Description,
			PublishDate: m.News.PublishDate,
			Keywords:    m.Keywords,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// Scrape はスクレイプサイクルを1回実行する。
// POST /api/scrape
func (h *NewsHandler) Scrape(w http.ResponseWriter, r *http.Request) {
	saved, err := h.service.RunScrapeCycle(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, scrapeResponse{Saved: saved})
}

// ExpireOutdated は保持期間を過ぎた記事を削除する。
// DELETE /api/news/outdated?days=7
func (h *NewsHandler) ExpireOutdated(w http.ResponseWriter, r *http.Request) {
	days := 0
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			handleServiceError(w, model.NewInvalidDaysError(raw))
			return
		}
		days = n
	}

	deleted, err := h.service.ExpireOldNews(r.Context(), days)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, expireResponse{Deleted: deleted})
}

// parseFeedIDs はカンマ区切りのフィードIDを解析する。空文字列の場合はnilを返す。
func parseFeedIDs(raw string) ([]int64, error) {
	parts := splitCSV(raw)
	if len(parts) == 0 {
		return nil, nil
	}

	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil || id <= 0 {
			return nil, model.NewInvalidFeedIDsError(raw)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// splitCSV はカンマ区切りの値を前後の空白を除いて分割する。空要素は除外する。
func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
