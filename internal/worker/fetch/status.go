package fetch

import (
	"context"
	"errors"
	"net"

	"github.com/hitoshi/newswatch/internal/model"
)

// 取得失敗の理由ラベル。メトリクスとログで使用する。
const (
	ReasonBlocked    = "blocked"
	ReasonTimeout    = "timeout"
	ReasonHTTPStatus = "http_status"
	ReasonParse      = "parse"
	ReasonRequest    = "request"
)

// IsSuccessStatus はフィード本文を解釈してよいHTTPステータスかを返す。
func IsSuccessStatus(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}

// FailureReason は取得エラーを理由ラベルに分類する。
func FailureReason(err error) string {
	var transportErr *model.TransportError
	if errors.As(err, &transportErr) && transportErr.StatusCode != 0 {
		return ReasonHTTPStatus
	}

	var netErr net.Error
	switch {
	case errors.Is(err, ErrBlockedURL):
		return ReasonBlocked
	case errors.Is(err, ErrUnparsable):
		return ReasonParse
	case errors.Is(err, context.DeadlineExceeded):
		return ReasonTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		return ReasonTimeout
	default:
		return ReasonRequest
	}
}
