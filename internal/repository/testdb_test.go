package repository

import (
	"database/sql"
	"os"
	"testing"

	"github.com/hitoshi/newswatch/internal/database"
)

// openTestDB はTEST_DATABASE_URLのデータベースにマイグレーションを適用して返す。
// 未設定または接続できない場合はテストをスキップする。
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL が未設定のためスキップします")
	}

	db, err := database.Open(dbURL)
	if err != nil {
		t.Fatalf("データベースへの接続に失敗: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("テスト用データベースに接続できません（スキップ）: %v", err)
	}
	if _, err := database.RunMigrations(dbURL); err != nil {
		db.Close()
		t.Fatalf("マイグレーション実行に失敗: %v", err)
	}

	if _, err := db.Exec(`TRUNCATE news, feeds, websites, users RESTART IDENTITY CASCADE`); err != nil {
		db.Close()
		t.Fatalf("テーブルの初期化に失敗: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

// insertFeed はテスト用のサイトとフィードを作成し、フィードIDを返す。
func insertFeed(t *testing.T, db *sql.DB, name, link string) int64 {
	t.Helper()

	var websiteID, feedID int64
	if err := db.QueryRow(
		`INSERT INTO websites (name, link) VALUES ($1, $2) RETURNING id`,
		name, link,
	).Scan(&websiteID); err != nil {
		t.Fatalf("websites挿入に失敗: %v", err)
	}
	if err := db.QueryRow(
		`INSERT INTO feeds (website_id, name, link) VALUES ($1, $2, $3) RETURNING id`,
		websiteID, name, link+"/rss",
	).Scan(&feedID); err != nil {
		t.Fatalf("feeds挿入に失敗: %v", err)
	}
	return feedID
}
