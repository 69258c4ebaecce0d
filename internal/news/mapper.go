package news

import (
	"time"

	"github.com/hitoshi/newswatch/internal/model"
)

// Mapper は取り込み判定を行い、採用したエントリをmodel.Newsに変換する。
type Mapper struct {
	window Window
	now    func() time.Time
}

// NewMapper はMapperの新しいインスタンスを生成する。
// nowは公開日時を持たないエントリの日時補完に使う。
func NewMapper(window Window, now func() time.Time) *Mapper {
	if now == nil {
		now = time.Now
	}
	return &Mapper{
		window: window,
		now:    now,
	}
}

// Window は判定に使う取り込み範囲を返す。
func (m *Mapper) Window() Window {
	return m.window
}

// Map はエントリを判定し、採用された場合はmodel.Newsを返す。
// 不採用の場合は第2戻り値がfalseになる。
// 判定や変換に必要なフィールドが欠けている場合は *model.MappingError を返す。
func (m *Mapper) Map(feedID int64, entry model.RawEntry) (model.News, bool, error) {
	admitted, err := m.window.Admit(entry)
	if err != nil {
		return model.News{}, false, err
	}
	if !admitted {
		return model.News{}, false, nil
	}

	if entry.Link == nil {
		return model.News{}, false, &model.MappingError{Field: "link"}
	}

	published := m.now()
	if entry.Published != nil {
		published = *entry.Published
	}

	return model.News{
		FeedID:      feedID,
		Title:       *entry.Title,
		Link:        *entry.Link,
		Description: NormalizeDescription(entry.Summary),
		PublishDate: FormatDate(published),
	}, true, nil
}
