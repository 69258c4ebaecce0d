package news

import (
	"time"

	"github.com/hitoshi/newswatch/internal/model"
)

// Window は記事の取り込み対象となる公開日時の範囲（前日0時〜当日0時）。
// 上下限とも境界を含まない。
type Window struct {
	Lower time.Time
	Upper time.Time
}

// NewWindow はnowの日付の0時を上限、その24時間前を下限とするWindowを生成する。
// サービス生成時に1回だけ計算し、以後のサイクルでは再計算しない。
func NewWindow(now time.Time) Window {
	upper := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return Window{
		Lower: upper.Add(-24 * time.Hour),
		Upper: upper,
	}
}

// Contains はtが範囲内（境界を含まない）にあるかを返す。
func (w Window) Contains(t time.Time) bool {
	return t.After(w.Lower) && t.Before(w.Upper)
}

// Admit はエントリを取り込むかを判定する。
//   - 公開日時なし: タイトルが空でなければ取り込む
//   - 公開日時あり: タイトルが空でなく、かつ公開日時が範囲内なら取り込む
//
// タイトル自体が存在しないエントリは形状不正として *model.MappingError を返す。
func (w Window) Admit(entry model.RawEntry) (bool, error) {
	if entry.Title == nil {
		return false, &model.MappingError{Field: "title"}
	}
	if *entry.Title == "" {
		return false, nil
	}
	if entry.Published == nil {
		return true, nil
	}
	return w.Contains(*entry.Published), nil
}
