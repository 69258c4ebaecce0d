// Package model はドメインモデルを定義する。
package model

// Website はフィードを束ねる配信元サイトを表す。
type Website struct {
	ID   int64
	Name string
	Link string
}

// Feed はスクレイプ対象のRSS/Atomフィードを表す。
// パイプラインからは読み取り専用の参照データとして扱う。
type Feed struct {
	ID        int64
	WebsiteID int64
	Name      string
	Link      string
}
