package domain

import "context"

// Префиксы ключей кеша — единое место, чтобы не расползались по коду.
const (
	CacheNS        = "cache:"               // namespace всех ответов
	CachePostsNS   = "cache:/api/v1/posts*" // паттерн инвалидации постов
	CacheKeyJTI    = "jti:"                 // блэклист токенов
	CacheKeyRateNS = "rate:"                // окна rate-limiter'а
)

// Ключ ответа: namespace + полный URI запроса (включая query string).
// Порядок параметров не канонизируется — разные порядки дают разные ключи.
func CacheKeyRequest(uri string) string { return CacheNS + uri }

// Простой k/v интерфейс с TTL и перечислением ключей по паттерну.
// Реализация — Redis; при недоступности все операции деградируют в no-op.
type Cache interface {
	// Available — можно ли вообще ходить в кеш (включён и не деградировал)
	Available() bool
	// Enabled — включён ли кеш конфигом (для readiness-отчёта)
	Enabled() bool
	// Get возвращает nil без ошибки, если ключа нет
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, val []byte, ttlSeconds int) error
	Del(ctx context.Context, keys ...string) error
	// Keys — перечисление по glob-паттерну (для пакетной инвалидации)
	Keys(ctx context.Context, pattern string) ([]string, error)
	// Incr с установкой TTL на первом инкременте окна
	IncrWindow(ctx context.Context, key string, ttlSeconds int) (int64, error)
	Ping(context.Context) error
	Close()
}
