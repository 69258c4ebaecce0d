package news

import (
	"strings"

	"github.com/hitoshi/newswatch/internal/model"
)

// NormalizeDescription はフィードの要約から説明文を生成する。
// 最初の '<' 以降を切り捨て、残りが空白のみの場合や要約自体が存在しない場合は
// model.DescriptionPlaceholder を返す。'<' を含まない文字列はそのまま返す。
func NormalizeDescription(summary *string) string {
	if summary == nil {
		return model.DescriptionPlaceholder
	}

	text := *summary
	if i := strings.IndexByte(text, '<'); i >= 0 {
		text = text[:i]
	}

	if strings.TrimSpace(text) == "" {
		return model.DescriptionPlaceholder
	}
	return text
}
