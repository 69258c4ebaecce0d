// Package user はユーザーのセッションタイムアウト判定を提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/newswatch/internal/model"
	"github.com/hitoshi/newswatch/internal/repository"
)

// DefaultSessionTimeout は最終アクセスからのセッション有効時間の既定値。
const DefaultSessionTimeout = 5 * time.Minute

// Service はユーザーのセッション管理のサービス層。
// 認証キーの発行は行わず、発行済みキーの有効性と最終アクセス日時のみを扱う。
type Service struct {
	userRepo repository.UserRepository
	timeout  time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
// timeoutが0以下の場合はDefaultSessionTimeout、nowがnilの場合はtime.Nowを使う。
func NewService(
	userRepo repository.UserRepository,
	timeout time.Duration,
	logger *slog.Logger,
	now func() time.Time,
) *Service {
	if timeout <= 0 {
		timeout = DefaultSessionTimeout
	}
	if now == nil {
		now = time.Now
	}
	return &Service{
		userRepo: userRepo,
		timeout:  timeout,
		logger:   logger,
		now:      now,
	}
}

// IsUserTimedOut はauthKeyのユーザーがタイムアウトしているかを返す。
// ユーザーが存在しない場合と最終アクセスが未記録の場合もタイムアウトとみなす。
// 最終アクセス日時は更新しない。
func (s *Service) IsUserTimedOut(ctx context.Context, authKey string) (bool, error) {
	_, timedOut, err := s.check(ctx, authKey, s.now())
	return timedOut, err
}

// Touch はauthKeyのユーザーを検証し、有効であれば最終アクセス日時を現在時刻に更新する。
// ユーザーが存在しない場合は model.ErrUnknownUser、
// タイムアウトしている場合は model.ErrSessionTimedOut を返す。
func (s *Service) Touch(ctx context.Context, authKey string) (*model.User, error) {
	now := s.now()
	u, timedOut, err := s.check(ctx, authKey, now)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, model.ErrUnknownUser
	}
	if timedOut {
		s.logger.Info("セッションがタイムアウトしました",
			slog.Int64("user_id", u.ID),
		)
		return nil, model.ErrSessionTimedOut
	}

	if _, err := s.userRepo.UpdateLastActivity(ctx, u.ID, now); err != nil {
		return nil, fmt.Errorf("最終アクセス日時の更新に失敗しました: %w", err)
	}
	u.LastActivity = &now

	return u, nil
}

// check はauthKeyのユーザーを取得し、nowの時点でタイムアウトしているかを判定する。
func (s *Service) check(ctx context.Context, authKey string, now time.Time) (*model.User, bool, error) {
	u, err := s.userRepo.FindByAuthKey(ctx, authKey)
	if err != nil {
		return nil, false, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	return u, s.timedOut(u, now), nil
}

func (s *Service) timedOut(u *model.User, now time.Time) bool {
	if u == nil || u.LastActivity == nil {
		return true
	}
	return now.Sub(*u.LastActivity) > s.timeout
}
