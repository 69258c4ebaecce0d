// Package news はニュース記事の正規化、取り込み判定、キーワード照合と
// それらを束ねるスクレイプサービスを提供する。
package news

import "time"

// DateLayout は永続化される公開日時の正規形式（YYYY-MM-DD HH:MM:SS）。
// 既存レコードとの互換のため変更してはならない。
const DateLayout = "2006-01-02 15:04:05"

// FormatDate は日時を正規形式の文字列に変換する。
// タイムゾーン変換は行わず、tが持つロケーションの壁時計時刻をそのまま出力する。
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
