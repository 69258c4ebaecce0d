package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/newswatch/internal/model"
)

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// FindByAuthKey は認証キーでユーザーを検索する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByAuthKey(ctx context.Context, authKey string) (*model.User, error) {
	user := &model.User{}
	var lastActivity sql.NullTime

	err := r.db.QueryRowContext(ctx,
		`SELECT id, auth_key, last_activity FROM users WHERE auth_key = $1`,
		authKey,
	).Scan(&user.ID, &user.AuthKey, &lastActivity)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by auth key: %w", err)
	}

	if lastActivity.Valid {
		t := lastActivity.Time
		user.LastActivity = &t
	}

	return user, nil
}

// UpdateLastActivity はユーザーの最終アクセス日時を更新し、更新件数を返す。
func (r *PostgresUserRepo) UpdateLastActivity(ctx context.Context, userID int64, at time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET last_activity = $1 WHERE id = $2`,
		at, userID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to update last activity: %w", err)
	}

	updated, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return updated, nil
}
