// Package fetch はフィードのバックグラウンド取得処理を提供する。
// フェッチャー、並列スクレイパー、cronスケジューラを含む。
package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/hitoshi/newswatch/internal/model"
)

// ScrapeRunner はスクレイプサイクルの実行インターフェース。
type ScrapeRunner interface {
	RunScrapeCycle(ctx context.Context) (int, error)
}

// Job は定期実行されるバッチジョブのインターフェース。
type Job interface {
	Run(ctx context.Context) error
}

// Scheduler はスクレイプと期限切れ削除をcron式に従って実行する。
// 前回のジョブが実行中の場合、次の起動はスキップされる。
type Scheduler struct {
	cron      *cron.Cron
	runner    ScrapeRunner
	expireJob Job
	logger    *slog.Logger
	scrape    cron.Schedule
	expire    cron.Schedule
}

// NewScheduler はSchedulerの新しいインスタンスを生成する。
// scrapeSpec・expireSpecは標準の5フィールドcron式（@daily等の記述子も可）。
func NewScheduler(runner ScrapeRunner, expireJob Job, logger *slog.Logger, scrapeSpec, expireSpec string) (*Scheduler, error) {
	scrape, err := cron.ParseStandard(scrapeSpec)
	if err != nil {
		return nil, fmt.Errorf("スクレイプスケジュールが不正です: %w", err)
	}
	expire, err := cron.ParseStandard(expireSpec)
	if err != nil {
		return nil, fmt.Errorf("削除スケジュールが不正です: %w", err)
	}

	cl := cronLogger{logger: logger}
	return &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(cl),
			cron.SkipIfStillRunning(cl),
		)),
		runner:    runner,
		expireJob: expireJob,
		logger:    logger,
		scrape:    scrape,
		expire:    expire,
	}, nil
}

// Start はスケジューラを起動し、コンテキストがキャンセルされるまでブロックする。
// 停止時は実行中のジョブの完了を待つ。
func (s *Scheduler) Start(ctx context.Context) {
	s.cron.Schedule(s.scrape, cron.FuncJob(func() {
		if err := s.RunScrapeOnce(ctx); err != nil {
			s.logger.Error("スクレイプジョブの実行に失敗しました",
				slog.String("error", err.Error()),
			)
		}
	}))
	s.cron.Schedule(s.expire, cron.FuncJob(func() {
		if err := s.RunExpireOnce(ctx); err != nil {
			s.logger.Error("期限切れ削除ジョブの実行に失敗しました",
				slog.String("error", err.Error()),
			)
		}
	}))

	s.cron.Start()
	s.logger.Info("スケジューラを開始しました",
		slog.Time("next_scrape", s.scrape.Next(time.Now())),
		slog.Time("next_expire", s.expire.Next(time.Now())),
	)

	<-ctx.Done()

	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.logger.Info("スケジューラを停止しました")
}

// RunScrapeOnce はスクレイプサイクルを1回実行する。
// 別のサイクルが実行中の場合はスキップし、エラーとしない。
func (s *Scheduler) RunScrapeOnce(ctx context.Context) error {
	saved, err := s.runner.RunScrapeCycle(ctx)
	if errors.Is(err, model.ErrScrapeInProgress) {
		s.logger.Warn("スクレイプサイクルが実行中のためスキップしました")
		return nil
	}
	if err != nil {
		return err
	}

	s.logger.Info("スクレイプジョブが完了しました",
		slog.Int("news_saved", saved),
	)
	return nil
}

// RunExpireOnce は期限切れ削除ジョブを1回実行する。
func (s *Scheduler) RunExpireOnce(ctx context.Context) error {
	return s.expireJob.Run(ctx)
}

// cronLogger はcron.Loggerをslogに橋渡しする。
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append(keysAndValues, "error", err.Error())...)
}
