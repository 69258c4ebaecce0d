// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/newswatch/internal/model"
)

// FeedRepository はフィードデータの永続化インターフェース。
type FeedRepository interface {
	// ListAll は登録済みの全フィードをID昇順で返す。
	ListAll(ctx context.Context) ([]model.Feed, error)
}

// NewsRepository はニュース記事の永続化インターフェース。
type NewsRepository interface {
	// ListByFeedIDs は指定フィードに属する記事をID昇順で返す。
	// feedIDsが空の場合は全記事を返す。
	ListByFeedIDs(ctx context.Context, feedIDs []int64) ([]model.News, error)

	// SaveAll は記事を1トランザクションで保存し、保存件数を返す。
	// 保存に成功した記事には採番されたIDが設定される。
	// 重複チェックは行わない。
	SaveAll(ctx context.Context, news []model.News) (int, error)

	// DeleteOutdated は公開日時がdaysInterval日より古い記事を削除し、削除件数を返す。
	DeleteOutdated(ctx context.Context, daysInterval int) (int64, error)
}

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByAuthKey は認証キーでユーザーを検索する。見つからない場合はnilを返す。
	FindByAuthKey(ctx context.Context, authKey string) (*model.User, error)

	// UpdateLastActivity はユーザーの最終アクセス日時を更新し、更新件数を返す。
	UpdateLastActivity(ctx context.Context, userID int64, at time.Time) (int64, error)
}
