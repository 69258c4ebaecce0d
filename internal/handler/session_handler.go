package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hitoshi/newswatch/internal/middleware"
	"github.com/hitoshi/newswatch/internal/model"
)

// SessionChecker はセッションタイムアウト判定のインターフェース。user.Serviceが実装する。
type SessionChecker interface {
	IsUserTimedOut(ctx context.Context, authKey string) (bool, error)
}

// NewSessionStatusHandler は認証キーのセッションがタイムアウトしているかを返すハンドラーを返す。
// 最終アクセス日時は更新しないため、セッションを延長せずに状態だけを確認できる。
// GET /session/status
func NewSessionStatusHandler(checker SessionChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authKey := r.Header.Get(middleware.AuthKeyHeader)
		if authKey == "" {
			middleware.WriteAPIError(w, model.NewUnauthorizedError())
			return
		}

		timedOut, err := checker.IsUserTimedOut(r.Context(), authKey)
		if err != nil {
			slog.Error("セッション状態の確認に失敗しました", slog.String("error", err.Error()))
			middleware.WriteInternalServerError(w)
			return
		}

		writeJSON(w, http.StatusOK, map[string]bool{"timed_out": timedOut})
	}
}
