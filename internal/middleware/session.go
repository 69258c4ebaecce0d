// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hitoshi/newswatch/internal/model"
)

// AuthKeyHeader は認証キーを受け取るリクエストヘッダ名。
const AuthKeyHeader = "X-Auth-Key"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

var (
	userIDContextKey  = contextKey("user_id")
	authKeyContextKey = contextKey("auth_key")
)

// SessionToucher は認証キーの検証と最終アクセス日時の更新に必要なインターフェース。
// user.Serviceが実装する。
type SessionToucher interface {
	Touch(ctx context.Context, authKey string) (*model.User, error)
}

// NewSessionMiddleware はX-Auth-Keyヘッダからユーザーを解決し、
// セッションタイムアウトを検証するミドルウェアを返す。
// 有効なユーザーは最終アクセス日時が更新され、ユーザーIDと認証キーがコンテキストに注入される。
func NewSessionMiddleware(toucher SessionToucher) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authKey := r.Header.Get(AuthKeyHeader)
			if authKey == "" {
				WriteAPIError(w, model.NewUnauthorizedError())
				return
			}

			u, err := toucher.Touch(r.Context(), authKey)
			switch {
			case errors.Is(err, model.ErrUnknownUser):
				WriteAPIError(w, model.NewUnauthorizedError())
				return
			case errors.Is(err, model.ErrSessionTimedOut):
				WriteAPIError(w, model.NewSessionTimedOutError())
				return
			case err != nil:
				slog.Error("セッションの検証に失敗しました",
					slog.String("error", err.Error()),
				)
				WriteInternalServerError(w)
				return
			}

			ctx := ContextWithUser(r.Context(), u.ID, authKey)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext はリクエストコンテキストからユーザーIDを取得する。
// セッションミドルウェアを通過したリクエストでのみ有効。
func UserIDFromContext(ctx context.Context) (int64, error) {
	userID, ok := ctx.Value(userIDContextKey).(int64)
	if !ok || userID == 0 {
		return 0, fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}

// AuthKeyFromContext はリクエストコンテキストから認証キーを取得する。
func AuthKeyFromContext(ctx context.Context) (string, error) {
	authKey, ok := ctx.Value(authKeyContextKey).(string)
	if !ok || authKey == "" {
		return "", fmt.Errorf("auth key not found in context")
	}
	return authKey, nil
}

// ContextWithUser はコンテキストにユーザーIDと認証キーを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithUser(ctx context.Context, userID int64, authKey string) context.Context {
	if ru, ok := ctx.Value(requestUserContextKey).(*requestUser); ok {
		ru.userID = userID
	}
	ctx = context.WithValue(ctx, userIDContextKey, userID)
	return context.WithValue(ctx, authKeyContextKey, authKey)
}
