// Package model はドメインモデルを定義する。
package model

import "time"

// DescriptionPlaceholder は要約が存在しない、または空の場合に使う説明文。
const DescriptionPlaceholder = "No description provided."

// RawEntry はフィードパーサーから取得した検証前のエントリを表す。
// nilのフィールドは元のエントリに存在しなかったことを示す。
type RawEntry struct {
	Title     *string
	Link      *string
	Summary   *string
	Published *time.Time
}

// News は検証・正規化済みのニュース記事を表す。
// IDは保存時に採番され、保存前は0。
// Descriptionは空にならず、PublishDateは常に "YYYY-MM-DD HH:MM:SS" 形式。
type News struct {
	ID          int64
	FeedID      int64
	Title       string
	Link        string
	Description string
	PublishDate string
}

// NewsMatch は1件の記事と、その記事にヒットしたキーワードの組。
// Keywordsはキーワードの指定順を保持する。
type NewsMatch struct {
	News     News
	Keywords []string
}

// MatchReport はキーワード照合の結果。
// 入力記事の順序を保持し、ヒットが0件の記事は含まない。
type MatchReport []NewsMatch

// Lookup は指定IDの記事にヒットしたキーワードを返す。
// 結果に含まれない場合はfalseを返す。
func (r MatchReport) Lookup(newsID int64) ([]string, bool) {
	for _, m := range r {
		if m.News.ID == newsID {
			return m.Keywords, true
		}
	}
	return nil, false
}
