// Package cleanup は期限切れ記事の自動削除ジョブを提供する。
// 公開日時が保持日数（デフォルト7日）より古い記事を日次バッチで削除する。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// DefaultRetentionDays は記事の保持日数の既定値。
const DefaultRetentionDays = 7

// Expirer は期限切れ記事の削除処理のインターフェース。
type Expirer interface {
	ExpireOldNews(ctx context.Context, daysInterval int) (int64, error)
}

// CleanupJob は保持期間を超過した記事の自動削除ジョブ。
// 冪等な削除処理で、削除対象がない場合もエラーにならない。
type CleanupJob struct {
	expirer       Expirer
	logger        *slog.Logger
	RetentionDays int // 記事の保持日数（デフォルト: 7）
}

// NewCleanupJob は新しいCleanupJobを生成する。
// retentionDaysが0以下の場合はDefaultRetentionDaysを使う。
func NewCleanupJob(expirer Expirer, logger *slog.Logger, retentionDays int) *CleanupJob {
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}
	return &CleanupJob{
		expirer:       expirer,
		logger:        logger,
		RetentionDays: retentionDays,
	}
}

// Run は保持期間を超過した記事を削除する。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()

	deletedCount, err := j.expirer.ExpireOldNews(ctx, j.RetentionDays)
	if err != nil {
		j.logger.Error("記事クリーンアップジョブの実行に失敗しました",
			slog.String("error", err.Error()),
			slog.Int("retention_days", j.RetentionDays),
		)
		return fmt.Errorf("記事クリーンアップの実行に失敗: %w", err)
	}

	duration := time.Since(start)
	j.logger.Info("記事クリーンアップジョブが完了しました",
		slog.Int64("deleted_count", deletedCount),
		slog.Int("retention_days", j.RetentionDays),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}
