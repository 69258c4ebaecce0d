package synonym

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// cacheKeyPrefix はキャッシュキーの接頭辞。
const cacheKeyPrefix = "newswatch:synonyms:"

// Source は類義語の取得元のインターフェース。
type Source interface {
	Lookup(ctx context.Context, word string) ([]string, error)
}

// Cache は類義語キャッシュのインターフェース。
type Cache interface {
	// Get はキャッシュ済みの類義語を返す。未登録の場合は第2戻り値がfalseになる。
	Get(ctx context.Context, key string) ([]string, bool, error)
	Set(ctx context.Context, key string, words []string, ttl time.Duration) error
}

// NewRedisClient はredis://形式のURLからクライアントを生成し、疎通を確認する。
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("REDIS_URLのパースに失敗しました: %w", err)
	}

	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("Redisへの接続に失敗しました: %w", err)
	}

	return rdb, nil
}

// RedisCache はRedisを使用した類義語キャッシュ。値はJSON配列で保存する。
type RedisCache struct {
	rdb *redis.Client
}

// NewRedisCache はRedisCacheを生成する。
func NewRedisCache(rdb *redis.Client) *RedisCache {
	return &RedisCache{rdb: rdb}
}

// Get はキャッシュ済みの類義語を返す。
func (c *RedisCache) Get(ctx context.Context, key string) ([]string, bool, error) {
	bs, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("キャッシュの取得に失敗しました: %w", err)
	}

	var words []string
	if err := json.Unmarshal(bs, &words); err != nil {
		return nil, false, fmt.Errorf("キャッシュ値のパースに失敗しました: %w", err)
	}
	return words, true, nil
}

// Set は類義語をttl付きで保存する。
func (c *RedisCache) Set(ctx context.Context, key string, words []string, ttl time.Duration) error {
	if words == nil {
		words = []string{}
	}
	bs, err := json.Marshal(words)
	if err != nil {
		return fmt.Errorf("キャッシュ値のエンコードに失敗しました: %w", err)
	}
	if err := c.rdb.Set(ctx, key, bs, ttl).Err(); err != nil {
		return fmt.Errorf("キャッシュの保存に失敗しました: %w", err)
	}
	return nil
}

// CachedLookup はキャッシュを経由して類義語を取得する。
// キャッシュの読み書きに失敗しても取得元の結果をそのまま返す。
type CachedLookup struct {
	source Source
	cache  Cache
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedLookup はCachedLookupを生成する。
func NewCachedLookup(source Source, cache Cache, ttl time.Duration, logger *slog.Logger) *CachedLookup {
	return &CachedLookup{
		source: source,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

// Lookup はキャッシュにあればその値を、なければ取得元に問い合わせて結果を保存する。
// 取得元のエラーはキャッシュせずに返す。
func (l *CachedLookup) Lookup(ctx context.Context, word string) ([]string, error) {
	key := cacheKeyPrefix + strings.ToLower(word)

	words, ok, err := l.cache.Get(ctx, key)
	if err != nil {
		l.logger.Warn("類義語キャッシュの取得に失敗しました",
			slog.String("word", word),
			slog.String("error", err.Error()),
		)
	} else if ok {
		return words, nil
	}

	words, err = l.source.Lookup(ctx, word)
	if err != nil {
		return nil, err
	}

	if err := l.cache.Set(ctx, key, words, l.ttl); err != nil {
		l.logger.Warn("類義語キャッシュの保存に失敗しました",
			slog.String("word", word),
			slog.String("error", err.Error()),
		)
	}

	return words, nil
}
