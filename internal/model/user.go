// Package model はドメインモデルを定義する。
package model

import "time"

// User はAPIを利用するユーザーを表す。
// AuthKeyは発行済みの認証キーで、LastActivityは最終アクセス日時（未記録ならnil）。
type User struct {
	ID           int64
	AuthKey      string
	LastActivity *time.Time
}
