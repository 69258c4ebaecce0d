package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/newswatch/internal/model"
)

// publishDateColumn はpublish_dateを "YYYY-MM-DD HH:MM:SS" 形式で読み出す式。
const publishDateColumn = `to_char(publish_date, 'YYYY-MM-DD HH24:MI:SS')`

// PostgresNewsRepo はPostgreSQLを使用したニュース記事リポジトリ。
type PostgresNewsRepo struct {
	db *sql.DB
}

// NewPostgresNewsRepo はPostgresNewsRepoを生成する。
func NewPostgresNewsRepo(db *sql.DB) *PostgresNewsRepo {
	return &PostgresNewsRepo{db: db}
}

// ListByFeedIDs は指定フィードに属する記事をID昇順で返す。
// feedIDsが空の場合は全記事を返す。
func (r *PostgresNewsRepo) ListByFeedIDs(ctx context.Context, feedIDs []int64) ([]model.News, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if len(feedIDs) == 0 {
		rows, err = r.db.QueryContext(ctx,
			`SELECT id, feed_id, title, link, description, `+publishDateColumn+`
			 FROM news ORDER BY id`,
		)
	} else {
		rows, err = r.db.QueryContext(ctx,
			`SELECT id, feed_id, title, link, description, `+publishDateColumn+`
			 FROM news WHERE feed_id = ANY($1) ORDER BY id`,
			pq.Array(feedIDs),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("記事の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var records []model.News
	for rows.Next() {
		var n model.News
		if err := rows.Scan(&n.ID, &n.FeedID, &n.Title, &n.Link, &n.Description, &n.PublishDate); err != nil {
			return nil, fmt.Errorf("記事のスキャンに失敗しました: %w", err)
		}
		records = append(records, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("記事一覧の走査に失敗しました: %w", err)
	}

	return records, nil
}

// SaveAll は記事を1トランザクションで保存し、保存件数を返す。
// 保存した記事には採番されたIDを設定する。重複チェックは行わない。
func (r *PostgresNewsRepo) SaveAll(ctx context.Context, news []model.News) (int, error) {
	if len(news) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO news (feed_id, title, link, description, publish_date)
		 VALUES ($1, $2, $3, $4, $5::timestamp)
		 RETURNING id`,
	)
	if err != nil {
		return 0, fmt.Errorf("INSERT文の準備に失敗しました: %w", err)
	}
	defer stmt.Close()

	ids := make([]int64, len(news))
	for i, n := range news {
		if err := stmt.QueryRowContext(ctx,
			n.FeedID, n.Title, n.Link, n.Description, n.PublishDate,
		).Scan(&ids[i]); err != nil {
			return 0, fmt.Errorf("記事の保存に失敗しました (feed_id=%d, link=%s): %w", n.FeedID, n.Link, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}

	// コミット成功後にIDを反映する
	for i := range news {
		news[i].ID = ids[i]
	}

	return len(news), nil
}

// DeleteOutdated は公開日時がdaysInterval日より古い記事を削除し、削除件数を返す。
func (r *PostgresNewsRepo) DeleteOutdated(ctx context.Context, daysInterval int) (int64, error) {
	interval := fmt.Sprintf("%d days", daysInterval)

	result, err := r.db.ExecContext(ctx,
		`DELETE FROM news WHERE publish_date < now() - $1::interval`,
		interval,
	)
	if err != nil {
		return 0, fmt.Errorf("期限切れ記事の削除に失敗しました: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("削除件数の取得に失敗しました: %w", err)
	}

	return deleted, nil
}
