package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/hitoshi/newswatch/internal/middleware"
	"github.com/hitoshi/newswatch/internal/model"
)

// --- モック定義 ---

// mockNewsService はNewsServiceInterfaceのモック実装。
type mockNewsService struct {
	runScrapeCycleFn   func(ctx context.Context) (int, error)
	retrieveAndMatchFn func(ctx context.Context, feedIDs []int64, keywords []string, useSynonyms bool) (model.MatchReport, error)
	expireOldNewsFn    func(ctx context.Context, daysInterval int) (int64, error)
}

func (m *mockNewsService) RunScrapeCycle(ctx context.Context) (int, error) {
	if m.runScrapeCycleFn != nil {
		return m.runScrapeCycleFn(ctx)
	}
	return 0, nil
}

func (m *mockNewsService) RetrieveAndMatch(ctx context.Context, feedIDs []int64, keywords []string, useSynonyms bool) (model.MatchReport, error) {
	if m.retrieveAndMatchFn != nil {
		return m.retrieveAndMatchFn(ctx, feedIDs, keywords, useSynonyms)
	}
	return nil, nil
}

func (m *mockNewsService) ExpireOldNews(ctx context.Context, daysInterval int) (int64, error) {
	if m.expireOldNewsFn != nil {
		return m.expireOldNewsFn(ctx, daysInterval)
	}
	return 0, nil
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) middleware.ErrorResponseBody {
	t.Helper()
	var body middleware.ErrorResponseBody
	if err := json.NewDecoder(w.Result().Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return body
}

// --- GET /api/news テスト ---

func TestNewsHandler_ListMatches_Success(t *testing.T) {
	svc := &mockNewsService{
		retrieveAndMatchFn: func(ctx context.Context, feedIDs []int64, keywords []string, useSynonyms bool) (model.MatchReport, error) {
			if !reflect.DeepEqual(feedIDs, []int64{1, 2}) {
				t.Errorf("feedIDs = %v, want [1 2]", feedIDs)
			}
			if !reflect.DeepEqual(keywords, []string{"cat", "dog"}) {
				t.Errorf("keywords = %v, want [cat dog]", keywords)
			}
			if !useSynonyms {
				t.Error("useSynonyms = false, want true")
			}
			return model.MatchReport{
				{
					News: model.News{
						ID:          10,
						FeedID:      1,
						Title:       "Cats rule",
						Link:        "https://example.com/cats",
						Description: "All about cats",
						PublishDate: "2024-03-15 08:00:00",
					},
					Keywords: []string{"cat"},
				},
			}, nil
		},
	}
	h := NewNewsHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/news?feed_ids=1,%202&keywords=cat,dog&synonyms=true", nil)
	w := httptest.NewRecorder()

	h.ListMatches(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d, body = %s", w.Code, http.StatusOK, w.Body.String())
	}

	var resp matchListResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Count != 1 || len(resp.Matches) != 1 {
		t.Fatalf("count = %d, matches = %d, want 1", resp.Count, len(resp.Matches))
	}
	got := resp.Matches[0]
	if got.ID != 10 || got.PublishDate != "2024-03-15 08:00:00" {
		t.Errorf("match = %+v", got)
	}
	if !reflect.DeepEqual(got.Keywords, []string{"cat"}) {
		t.Errorf("keywords = %v, want [cat]", got.Keywords)
	}
}

func TestNewsHandler_ListMatches_NoFeedIDsMeansAll(t *testing.T) {
	var gotFeedIDs []int64
	called := false
	svc := &mockNewsService{
		retrieveAndMatchFn: func(ctx context.Context, feedIDs []int64, keywords []string, useSynonyms bool) (model.MatchReport, error) {
			called = true
			gotFeedIDs = feedIDs
			if useSynonyms {
				t.Error("useSynonyms = true, want false")
			}
			return nil, nil
		},
	}
	h := NewNewsHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/news?keywords=cat", nil)
	w := httptest.NewRecorder()

	h.ListMatches(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !called {
		t.Fatal("RetrieveAndMatch が呼ばれていません")
	}
	if gotFeedIDs != nil {
		t.Errorf("feedIDs = %v, want nil", gotFeedIDs)
	}

	var resp matchListResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Matches == nil || len(resp.Matches) != 0 {
		t.Errorf("matches = %v, want empty array", resp.Matches)
	}
}

func TestNewsHandler_ListMatches_ValidationErrors(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		wantCode string
	}{
		{"キーワード未指定", "/api/news", model.ErrCodeKeywordsRequired},
		{"キーワードが空白のみ", "/api/news?keywords=%20,%20", model.ErrCodeKeywordsRequired},
		{"フィードIDが数値でない", "/api/news?feed_ids=abc&keywords=cat", model.ErrCodeInvalidFeedIDs},
		{"フィードIDが負数", "/api/news?feed_ids=-1&keywords=cat", model.ErrCodeInvalidFeedIDs},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockNewsService{
				retrieveAndMatchFn: func(ctx context.Context, feedIDs []int64, keywords []string, useSynonyms bool) (model.MatchReport, error) {
					t.Fatal("バリデーションエラー時にサービスが呼ばれました")
					return nil, nil
				},
			}
			h := NewNewsHandler(svc)

			w := httptest.NewRecorder()
			h.ListMatches(w, httptest.NewRequest(http.MethodGet, tt.query, nil))

			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}
			if body := decodeError(t, w); body.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", body.Code, tt.wantCode)
			}
		})
	}
}

func TestNewsHandler_ListMatches_ServiceError(t *testing.T) {
	svc := &mockNewsService{
		retrieveAndMatchFn: func(ctx context.Context, feedIDs []int64, keywords []string, useSynonyms bool) (model.MatchReport, error) {
			return nil, errors.New("db down")
		},
	}
	h := NewNewsHandler(svc)

	w := httptest.NewRecorder()
	h.ListMatches(w, httptest.NewRequest(http.MethodGet, "/api/news?keywords=cat", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	if body := decodeError(t, w); body.Code != "INTERNAL_ERROR" {
		t.Errorf("code = %q, want %q", body.Code, "INTERNAL_ERROR")
	}
}

// --- POST /api/scrape テスト ---

func TestNewsHandler_Scrape_Success(t *testing.T) {
	h := NewNewsHandler(&mockNewsService{
		runScrapeCycleFn: func(ctx context.Context) (int, error) {
			return 12, nil
		},
	})

	w := httptest.NewRecorder()
	h.Scrape(w, httptest.NewRequest(http.MethodPost, "/api/scrape", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var resp scrapeResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Saved != 12 {
		t.Errorf("saved = %d, want 12", resp.Saved)
	}
}

func TestNewsHandler_Scrape_InProgressReturns409(t *testing.T) {
	h := NewNewsHandler(&mockNewsService{
		runScrapeCycleFn: func(ctx context.Context) (int, error) {
			return 0, model.ErrScrapeInProgress
		},
	})

	w := httptest.NewRecorder()
	h.Scrape(w, httptest.NewRequest(http.MethodPost, "/api/scrape", nil))

	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", w.Code, http.StatusConflict)
	}
	if body := decodeError(t, w); body.Code != model.ErrCodeScrapeInProgress {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeScrapeInProgress)
	}
}

// --- DELETE /api/news/outdated テスト ---

func TestNewsHandler_ExpireOutdated(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		wantDays int
	}{
		{"日数指定あり", "/api/news/outdated?days=30", 30},
		{"日数指定なしはサービスの既定値", "/api/news/outdated", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotDays int
			h := NewNewsHandler(&mockNewsService{
				expireOldNewsFn: func(ctx context.Context, daysInterval int) (int64, error) {
					gotDays = daysInterval
					return 4, nil
				},
			})

			w := httptest.NewRecorder()
			h.ExpireOutdated(w, httptest.NewRequest(http.MethodDelete, tt.query, nil))

			if w.Code != http.StatusOK {
				t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
			}
			if gotDays != tt.wantDays {
				t.Errorf("daysInterval = %d, want %d", gotDays, tt.wantDays)
			}
			var resp expireResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Deleted != 4 {
				t.Errorf("deleted = %d, want 4", resp.Deleted)
			}
		})
	}
}

func TestNewsHandler_ExpireOutdated_InvalidDays(t *testing.T) {
	for _, raw := range []string{"abc", "0", "-3"} {
		t.Run(raw, func(t *testing.T) {
			h := NewNewsHandler(&mockNewsService{
				expireOldNewsFn: func(ctx context.Context, daysInterval int) (int64, error) {
					t.Fatal("不正な日数でサービスが呼ばれました")
					return 0, nil
				},
			})

			w := httptest.NewRecorder()
			h.ExpireOutdated(w, httptest.NewRequest(http.MethodDelete, "/api/news/outdated?days="+raw, nil))

			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}
			if body := decodeError(t, w); body.Code != model.ErrCodeInvalidDays {
				t.Errorf("code = %q, want %q", body.Code, model.ErrCodeInvalidDays)
			}
		})
	}
}

func TestSplitCSV(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{"", nil},
		{"a", []string{"a"}},
		{" a , b ,,c ", []string{"a", "b", "c"}},
		{",,", nil},
	}
	for _, tt := range tests {
		if got := splitCSV(tt.raw); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("splitCSV(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}
