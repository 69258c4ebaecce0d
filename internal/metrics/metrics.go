// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// スクレイパーやサービス層から利用する。
type MetricsCollector interface {
	RecordFetchSuccess(feedID int64)
	RecordFetchFailure(feedID int64, reason string)
	RecordHTTPStatus(statusCode int)
	RecordFetchLatency(duration time.Duration)
	RecordEntries(admitted, rejected int)
	RecordMappingDefect(field string)
	RecordNewsSaved(count int)
	RecordNewsExpired(count int64)
	RecordSynonymLookupFailure()
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	fetchSuccess   prometheus.Counter
	fetchFail      *prometheus.CounterVec
	httpStatus     *prometheus.CounterVec
	fetchLatency   prometheus.Histogram
	entries        *prometheus.CounterVec
	mappingDefects *prometheus.CounterVec
	newsSaved      prometheus.Counter
	newsExpired    prometheus.Counter
	synonymFail    prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		fetchSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "newswatch_fetch_success_total",
			Help: "フィード取得成功の合計数",
		}),
		fetchFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newswatch_fetch_fail_total",
			Help: "フィード取得失敗の合計数",
		}, []string{"reason"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newswatch_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		fetchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "newswatch_fetch_latency_seconds",
			Help:    "フィード取得のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		entries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newswatch_entries_total",
			Help: "取り込み判定したエントリ数",
		}, []string{"result"}),
		mappingDefects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newswatch_mapping_defects_total",
			Help: "必須フィールド欠落によりスキップしたエントリ数",
		}, []string{"field"}),
		newsSaved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "newswatch_news_saved_total",
			Help: "保存した記事の合計数",
		}),
		newsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "newswatch_news_expired_total",
			Help: "期限切れとして削除した記事の合計数",
		}),
		synonymFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "newswatch_synonym_lookup_fail_total",
			Help: "類義語検索失敗の合計数",
		}),
	}

	reg.MustRegister(
		c.fetchSuccess,
		c.fetchFail,
		c.httpStatus,
		c.fetchLatency,
		c.entries,
		c.mappingDefects,
		c.newsSaved,
		c.newsExpired,
		c.synonymFail,
	)

	return c
}

// RecordFetchSuccess はフィード取得成功を記録する。
func (c *Collector) RecordFetchSuccess(feedID int64) {
	c.fetchSuccess.Inc()
}

// RecordFetchFailure はフィード取得失敗を理由別に記録する。
func (c *Collector) RecordFetchFailure(feedID int64, reason string) {
	c.fetchFail.WithLabelValues(reason).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordFetchLatency はフィード取得のレイテンシを記録する。
func (c *Collector) RecordFetchLatency(duration time.Duration) {
	c.fetchLatency.Observe(duration.Seconds())
}

// RecordEntries は取り込み判定の結果件数を記録する。
func (c *Collector) RecordEntries(admitted, rejected int) {
	c.entries.WithLabelValues("admitted").Add(float64(admitted))
	c.entries.WithLabelValues("rejected").Add(float64(rejected))
}

// RecordMappingDefect は形状不正エントリを欠落フィールド別に記録する。
func (c *Collector) RecordMappingDefect(field string) {
	c.mappingDefects.WithLabelValues(field).Inc()
}

// RecordNewsSaved は保存した記事数を記録する。
func (c *Collector) RecordNewsSaved(count int) {
	c.newsSaved.Add(float64(count))
}

// RecordNewsExpired は削除した記事数を記録する。
func (c *Collector) RecordNewsExpired(count int64) {
	c.newsExpired.Add(float64(count))
}

// RecordSynonymLookupFailure は類義語検索の失敗を記録する。
func (c *Collector) RecordSynonymLookupFailure() {
	c.synonymFail.Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)
