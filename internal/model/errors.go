// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"fmt"
)

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, news, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodeSessionTimedOut   = "SESSION_TIMED_OUT"
	ErrCodeInvalidFeedIDs    = "INVALID_FEED_IDS"
	ErrCodeKeywordsRequired  = "KEYWORDS_REQUIRED"
	ErrCodeInvalidDays       = "INVALID_DAYS"
	ErrCodeScrapeInProgress  = "SCRAPE_IN_PROGRESS"
	ErrCodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternal          = "INTERNAL_ERROR"
)

// NewUnauthorizedError は認証キー未指定・不明時のエラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "X-Auth-Key ヘッダに有効な認証キーを指定してください。",
	}
}

// NewSessionTimedOutError はセッションタイムアウト時のエラーを生成する。
func NewSessionTimedOutError() *APIError {
	return &APIError{
		Code:     ErrCodeSessionTimedOut,
		Message:  "一定時間操作がなかったためセッションがタイムアウトしました。",
		Category: "auth",
		Action:   "再度ログインして新しい認証キーを取得してください。",
	}
}

// NewInvalidFeedIDsError は不正なフィードID指定のエラーを生成する。
func NewInvalidFeedIDsError(raw string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidFeedIDs,
		Message:  fmt.Sprintf("無効なフィードIDです: %s", raw),
		Category: "validation",
		Action:   "feed_ids にはカンマ区切りの整数を指定してください。",
	}
}

// NewKeywordsRequiredError はキーワード未指定のエラーを生成する。
func NewKeywordsRequiredError() *APIError {
	return &APIError{
		Code:     ErrCodeKeywordsRequired,
		Message:  "キーワードが指定されていません。",
		Category: "validation",
		Action:   "keywords にカンマ区切りでキーワードを1つ以上指定してください。",
	}
}

// NewInvalidDaysError は不正な保持日数指定のエラーを生成する。
func NewInvalidDaysError(raw string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidDays,
		Message:  fmt.Sprintf("無効な日数です: %s", raw),
		Category: "validation",
		Action:   "days には1以上の整数を指定してください。",
	}
}

// NewScrapeInProgressError はスクレイプサイクル実行中のエラーを生成する。
func NewScrapeInProgressError() *APIError {
	return &APIError{
		Code:     ErrCodeScrapeInProgress,
		Message:  "スクレイプサイクルが既に実行中です。",
		Category: "news",
		Action:   "実行中のサイクルが完了してから再度お試しください。",
	}
}

// NewRateLimitExceededError はレート制限超過のエラーを生成する。
func NewRateLimitExceededError() *APIError {
	return &APIError{
		Code:     ErrCodeRateLimitExceeded,
		Message:  "リクエストが多すぎます。",
		Category: "system",
		Action:   "Retry-After ヘッダの秒数だけ待ってから再度お試しください。",
	}
}

// NewInternalError は内部エラーを生成する。詳細はログのみに記録する。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// ErrScrapeInProgress はスクレイプサイクルの多重実行を検出したことを示す。
var ErrScrapeInProgress = errors.New("scrape cycle already in progress")

// ErrMissingField はエントリに必須フィールドが存在しないことを示す。
var ErrMissingField = errors.New("required field is missing")

// MappingError はフィードエントリの形状不正を表す。
// 該当エントリのみスキップし、バッチ全体は継続する。
type MappingError struct {
	Field string
}

// Error はerrorインターフェースを実装する。
func (e *MappingError) Error() string {
	return fmt.Sprintf("entry field %q: %v", e.Field, ErrMissingField)
}

// Unwrap はErrMissingFieldを返す。
func (e *MappingError) Unwrap() error {
	return ErrMissingField
}

// TransportError はフィード取得の失敗を表す。
// StatusCodeはHTTPレスポンスを受信できた場合のみ0以外になる。
type TransportError struct {
	URL        string
	StatusCode int
	Err        error
}

// Error はerrorインターフェースを実装する。
func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: HTTP status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

// Unwrap は原因となったエラーを返す。
func (e *TransportError) Unwrap() error {
	return e.Err
}

// ErrUnknownUser は認証キーに対応するユーザーが存在しないことを示す。
var ErrUnknownUser = errors.New("unknown auth key")

// ErrSessionTimedOut は最終アクセスからセッションタイムアウト時間を超過したことを示す。
var ErrSessionTimedOut = errors.New("session timed out")
