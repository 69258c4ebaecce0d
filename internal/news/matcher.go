package news

import (
	"context"
	"log/slog"
	"strings"

	"github.com/hitoshi/newswatch/internal/metrics"
	"github.com/hitoshi/newswatch/internal/model"
)

// maxSynonyms は1キーワードあたりに照合へ使う類義語の上限。
const maxSynonyms = 5

// SynonymLookup は類義語検索のインターフェース。
type SynonymLookup interface {
	// Lookup はwordの類義語を返す。該当なしの場合は空スライスを返す。
	Lookup(ctx context.Context, word string) ([]string, error)
}

// Matcher は記事とキーワードの部分一致照合を行う。
type Matcher struct {
	synonyms SynonymLookup
	logger   *slog.Logger
	metrics  metrics.MetricsCollector
}

// NewMatcher はMatcherの新しいインスタンスを生成する。
// synonymsがnilの場合、類義語展開は常にキーワードのみとなる。collectorはnilでもよい。
func NewMatcher(synonyms SynonymLookup, logger *slog.Logger, collector metrics.MetricsCollector) *Matcher {
	return &Matcher{
		synonyms: synonyms,
		logger:   logger,
		metrics:  collector,
	}
}

// Match は各記事について、タイトルと説明文を連結して小文字化した本文に
// キーワード（useSynonymsがtrueの場合はその類義語も含む）が部分文字列として
// 含まれるかを判定する。
//
// 連結は区切り文字なしで行うため、タイトル末尾と説明文先頭をまたいだ一致も起こり得る。
// 照合は大文字小文字を区別しない部分一致で、"Cat" は "the CATalog" にも一致する。
// 結果は記事の入力順、キーワードの指定順を保持し、1件もヒットしない記事は含まない。
func (m *Matcher) Match(ctx context.Context, records []model.News, keywords []string, useSynonyms bool) model.MatchReport {
	candidates := make([][]string, len(keywords))
	for i, keyword := range keywords {
		candidates[i] = m.expand(ctx, keyword, useSynonyms)
	}

	var report model.MatchReport
	for _, record := range records {
		content := strings.ToLower(record.Title + record.Description)

		var hits []string
		for i, keyword := range keywords {
			if containsAny(content, candidates[i]) {
				hits = append(hits, keyword)
			}
		}

		if len(hits) > 0 {
			report = append(report, model.NewsMatch{News: record, Keywords: hits})
		}
	}

	return report
}

// expand はキーワードの照合候補を小文字化して返す。先頭は常にキーワード自身。
// 類義語検索に失敗した場合はキーワードのみで照合する。
func (m *Matcher) expand(ctx context.Context, keyword string, useSynonyms bool) []string {
	words := []string{strings.ToLower(keyword)}
	if !useSynonyms || m.synonyms == nil {
		return words
	}

	synonyms, err := m.synonyms.Lookup(ctx, keyword)
	if err != nil {
		m.logger.Warn("類義語の取得に失敗したためキーワードのみで照合します",
			slog.String("keyword", keyword),
			slog.String("error", err.Error()),
		)
		if m.metrics != nil {
			m.metrics.RecordSynonymLookupFailure()
		}
		return words
	}

	if len(synonyms) > maxSynonyms {
		synonyms = synonyms[:maxSynonyms]
	}
	for _, s := range synonyms {
		words = append(words, strings.ToLower(s))
	}
	return words
}

// containsAny はcontentがwordsのいずれかを含むかを返す。空文字列は一致とみなさない。
func containsAny(content string, words []string) bool {
	for _, w := range words {
		if w != "" && strings.Contains(content, w) {
			return true
		}
	}
	return false
}
