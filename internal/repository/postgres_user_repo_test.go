package repository

import (
	"context"
	"testing"
	"time"
)

func TestPostgresUserRepo_ImplementsInterface(t *testing.T) {
	var _ UserRepository = (*PostgresUserRepo)(nil)
}

func TestPostgresUserRepo_FindByAuthKey_NotFound(t *testing.T) {
	db := openTestDB(t)
	repo := NewPostgresUserRepo(db)

	user, err := repo.FindByAuthKey(context.Background(), "missing")
	if err != nil {
		t.Fatalf("FindByAuthKey() がエラーを返した: %v", err)
	}
	if user != nil {
		t.Errorf("user = %+v, want nil", user)
	}
}

func TestPostgresUserRepo_UpdateLastActivity(t *testing.T) {
	db := openTestDB(t)
	repo := NewPostgresUserRepo(db)

	var userID int64
	if err := db.QueryRow(`INSERT INTO users (auth_key) VALUES ('key-1') RETURNING id`).Scan(&userID); err != nil {
		t.Fatalf("users挿入に失敗: %v", err)
	}

	user, err := repo.FindByAuthKey(context.Background(), "key-1")
	if err != nil {
		t.Fatalf("FindByAuthKey() がエラーを返した: %v", err)
	}
	if user == nil || user.ID != userID {
		t.Fatalf("user = %+v, want id %d", user, userID)
	}
	if user.LastActivity != nil {
		t.Errorf("LastActivity = %v, want nil", user.LastActivity)
	}

	at := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	updated, err := repo.UpdateLastActivity(context.Background(), userID, at)
	if err != nil {
		t.Fatalf("UpdateLastActivity() がエラーを返した: %v", err)
	}
	if updated != 1 {
		t.Errorf("updated = %d, want 1", updated)
	}

	user, err = repo.FindByAuthKey(context.Background(), "key-1")
	if err != nil {
		t.Fatalf("FindByAuthKey() がエラーを返した: %v", err)
	}
	if user.LastActivity == nil || !user.LastActivity.Equal(at) {
		t.Errorf("LastActivity = %v, want %v", user.LastActivity, at)
	}

	if updated, _ := repo.UpdateLastActivity(context.Background(), userID+100, at); updated != 0 {
		t.Errorf("存在しないユーザーの updated = %d, want 0", updated)
	}
}
