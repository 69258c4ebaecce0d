package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// TestNewCollector_ReturnsNonNil はCollectorが正常に生成されることを検証する。
func TestNewCollector_ReturnsNonNil(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	if c == nil {
		t.Fatal("expected non-nil Collector")
	}
}

// TestRecordFetchSuccess_IncrementsCounter はフィード取得成功カウンタが増加することを検証する。
func TestRecordFetchSuccess_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordFetchSuccess(1)
	c.RecordFetchSuccess(1)

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	found := false
	for _, mf := range metrics {
		if mf.GetName() == "newswatch_fetch_success_total" {
			found = true
			if len(mf.GetMetric()) != 1 {
				t.Fatalf("expected 1 metric, got %d", len(mf.GetMetric()))
			}
			val := mf.GetMetric()[0].GetCounter().GetValue()
			if val != 2 {
				t.Errorf("fetch_success_total = %v, want 2", val)
			}
		}
	}
	if !found {
		t.Error("newswatch_fetch_success_total metric not found")
	}
}

// TestRecordFetchFailure_CountsByReason はフィード取得失敗が理由ラベル別に集計されることを検証する。
func TestRecordFetchFailure_CountsByReason(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordFetchFailure(2, "timeout")
	c.RecordFetchFailure(3, "timeout")
	c.RecordFetchFailure(4, "http_status")

	if got := testutil.ToFloat64(c.fetchFail.WithLabelValues("timeout")); got != 2 {
		t.Errorf("fetch_fail_total{reason=timeout} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.fetchFail.WithLabelValues("http_status")); got != 1 {
		t.Errorf("fetch_fail_total{reason=http_status} = %v, want 1", got)
	}
}

// TestRecordHTTPStatus_IncrementsCounterWithLabel はHTTPステータスカウンタがラベル付きで増加することを検証する。
func TestRecordHTTPStatus_IncrementsCounterWithLabel(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(404)

	if got := testutil.CollectAndCount(c.httpStatus); got != 2 {
		t.Fatalf("expected 2 label combinations, got %d", got)
	}
	if got := testutil.ToFloat64(c.httpStatus.WithLabelValues("200")); got != 2 {
		t.Errorf("http_status_total{status_code=200} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.httpStatus.WithLabelValues("404")); got != 1 {
		t.Errorf("http_status_total{status_code=404} = %v, want 1", got)
	}
}

// TestRecordFetchLatency_ObservesHistogram はレイテンシのヒストグラムに値が記録されることを検証する。
func TestRecordFetchLatency_ObservesHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordFetchLatency(100 * time.Millisecond)
	c.RecordFetchLatency(2 * time.Second)

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	found := false
	for _, mf := range metrics {
		if mf.GetName() == "newswatch_fetch_latency_seconds" {
			found = true
			h := mf.GetMetric()[0].GetHistogram()
			if h.GetSampleCount() != 2 {
				t.Errorf("sample_count = %d, want 2", h.GetSampleCount())
			}
			// 合計は0.1 + 2.0 = 2.1秒
			if h.GetSampleSum() < 2.0 || h.GetSampleSum() > 2.2 {
				t.Errorf("sample_sum = %v, want ~2.1", h.GetSampleSum())
			}
		}
	}
	if !found {
		t.Error("newswatch_fetch_latency_seconds metric not found")
	}
}

// TestRecordEntries_SplitsAdmittedAndRejected は採用・不採用件数が別ラベルで加算されることを検証する。
func TestRecordEntries_SplitsAdmittedAndRejected(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordEntries(3, 7)
	c.RecordEntries(1, 0)

	if got := testutil.ToFloat64(c.entries.WithLabelValues("admitted")); got != 4 {
		t.Errorf("entries_total{result=admitted} = %v, want 4", got)
	}
	if got := testutil.ToFloat64(c.entries.WithLabelValues("rejected")); got != 7 {
		t.Errorf("entries_total{result=rejected} = %v, want 7", got)
	}
}

// TestRecordMappingDefect_CountsByField は形状不正が欠落フィールド別に集計されることを検証する。
func TestRecordMappingDefect_CountsByField(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordMappingDefect("link")
	c.RecordMappingDefect("link")
	c.RecordMappingDefect("title")

	if got := testutil.ToFloat64(c.mappingDefects.WithLabelValues("link")); got != 2 {
		t.Errorf("mapping_defects_total{field=link} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.mappingDefects.WithLabelValues("title")); got != 1 {
		t.Errorf("mapping_defects_total{field=title} = %v, want 1", got)
	}
}

// TestRecordNewsSavedAndExpired_AddCounts は保存件数・削除件数が加算されることを検証する。
func TestRecordNewsSavedAndExpired_AddCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordNewsSaved(10)
	c.RecordNewsSaved(5)
	c.RecordNewsExpired(4)

	if got := testutil.ToFloat64(c.newsSaved); got != 15 {
		t.Errorf("news_saved_total = %v, want 15", got)
	}
	if got := testutil.ToFloat64(c.newsExpired); got != 4 {
		t.Errorf("news_expired_total = %v, want 4", got)
	}
}

// TestRecordSynonymLookupFailure_IncrementsCounter は類義語検索失敗カウンタが増加することを検証する。
func TestRecordSynonymLookupFailure_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSynonymLookupFailure()

	if got := testutil.ToFloat64(c.synonymFail); got != 1 {
		t.Errorf("synonym_lookup_fail_total = %v, want 1", got)
	}
}

// TestNewCollector_DuplicateRegistrationPanics は同一レジストリへの二重登録がpanicすることを検証する。
func TestNewCollector_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	_ = NewCollector(reg)

	defer func() {
		if r := recover(); r == nil {
			t.Error("二重登録でpanicすることを期待したが、panicしなかった")
		}
	}()
	_ = NewCollector(reg)
}
