package news

import (
	"bytes"
	"log/slog"
	"time"
)

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// fixedClock は常に同じ時刻を返す時計を生成する。
func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
