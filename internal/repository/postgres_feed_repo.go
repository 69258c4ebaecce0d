package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/newswatch/internal/model"
)

// PostgresFeedRepo はPostgreSQLを使用したフィードリポジトリ。
type PostgresFeedRepo struct {
	db *sql.DB
}

// NewPostgresFeedRepo はPostgresFeedRepoを生成する。
func NewPostgresFeedRepo(db *sql.DB) *PostgresFeedRepo {
	return &PostgresFeedRepo{db: db}
}

// ListAll は登録済みの全フィードをID昇順で返す。
func (r *PostgresFeedRepo) ListAll(ctx context.Context) ([]model.Feed, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, website_id, name, link FROM feeds ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("フィード一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var feeds []model.Feed
	for rows.Next() {
		var feed model.Feed
		if err := rows.Scan(&feed.ID, &feed.WebsiteID, &feed.Name, &feed.Link); err != nil {
			return nil, fmt.Errorf("フィードのスキャンに失敗しました: %w", err)
		}
		feeds = append(feeds, feed)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("フィード一覧の走査に失敗しました: %w", err)
	}

	return feeds, nil
}
