package redisx

import (
	"context"
	"errors"
	"log"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache — адаптер go-redis с отслеживанием деградации: ошибка связности
// переводит кеш в degraded, фоновый пинг возвращает его в строй.
// Слой выше при Available()==false проходит мимо кеша.
type Cache struct {
	rdb     *redis.Client
	logger  *log.Logger
	enabled bool
	healthy atomic.Bool
	stop    chan struct{}
}

type Config struct {
	Enabled  bool
	Addr     string
	DB       int
	Password string
}

const repingInterval = 30 * time.Second

func New(cfg Config, logger *log.Logger) *Cache {
	c := &Cache{logger: logger, enabled: cfg.Enabled, stop: make(chan struct{})}
	if !cfg.Enabled {
		logger.Println("caching disabled via config")
		return c
	}
	c.rdb = redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		DB:       cfg.DB,
		Password: cfg.Password,
	})
	go c.repingLoop()
	return c
}

func (c *Cache) Available() bool { return c.enabled && c.healthy.Load() }

// Enabled — включён ли кеш конфигом (независимо от деградации)
func (c *Cache) Enabled() bool { return c.enabled }

func (c *Cache) Ping(ctx context.Context) error {
	if !c.enabled {
		return nil
	}
	err := c.rdb.Ping(ctx).Err()
	if err != nil {
		c.logger.Printf("PING failed: %v", err)
		c.healthy.Store(false)
		return err
	}
	if !c.healthy.Swap(true) {
		c.logger.Println("PING ok, cache available")
	}
	return nil
}

// Фоновое восстановление после деградации
func (c *Cache) repingLoop() {
	t := time.NewTicker(repingInterval)
	defer t.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-t.C:
			if c.healthy.Load() {
				continue
			}
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			_ = c.Ping(ctx)
			cancel()
		}
	}
}

func (c *Cache) Close() {
	close(c.stop)
	if c.rdb == nil {
		c.logger.Println("nothing to close")
		return
	}
	if err := c.rdb.Close(); err != nil {
		c.logger.Printf("error while closing: %v", err)
		return
	}
	c.logger.Println("closed")
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	if !c.Available() {
		return nil, nil
	}
	b, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		c.logger.Printf("GET %q: miss", key)
		return nil, nil
	}
	if err != nil {
		c.fail("GET", key, err)
		return nil, err
	}
	c.logger.Printf("GET %q: hit (%d bytes)", key, len(b))
	return b, nil
}

func (c *Cache) Set(ctx context.Context, key string, val []byte, ttlSeconds int) error {
	if !c.Available() {
		return nil
	}
	var ttl time.Duration
	if ttlSeconds > 0 {
		ttl = time.Duration(ttlSeconds) * time.Second
	}
	if err := c.rdb.Set(ctx, key, val, ttl).Err(); err != nil {
		c.fail("SET", key, err)
		return err
	}
	c.logger.Printf("SET %q ok (ttl=%ds)", key, ttlSeconds)
	return nil
}

func (c *Cache) Del(ctx context.Context, keys ...string) error {
	if !c.Available() || len(keys) == 0 {
		return nil
	}
	n, err := c.rdb.Del(ctx, keys...).Result()
	if err != nil {
		c.fail("DEL", "", err)
		return err
	}
	c.logger.Printf("DEL: deleted=%d", n)
	return nil
}

func (c *Cache) Keys(ctx context.Context, pattern string) ([]string, error) {
	if !c.Available() {
		return nil, nil
	}
	keys, err := c.rdb.Keys(ctx, pattern).Result()
	if err != nil {
		c.fail("KEYS", pattern, err)
		return nil, err
	}
	c.logger.Printf("KEYS %q: %d", pattern, len(keys))
	return keys, nil
}

// IncrWindow: счётчик с TTL, взводимым на первом инкременте окна
func (c *Cache) IncrWindow(ctx context.Context, key string, ttlSeconds int) (int64, error) {
	if !c.Available() {
		return 0, nil
	}
	n, err := c.rdb.Incr(ctx, key).Result()
	if err != nil {
		c.fail("INCR", key, err)
		return 0, err
	}
	if n == 1 && ttlSeconds > 0 {
		if err := c.rdb.Expire(ctx, key, time.Duration(ttlSeconds)*time.Second).Err(); err != nil {
			c.fail("EXPIRE", key, err)
		}
	}
	return n, nil
}

// SetNX — для блэклиста токенов
func (c *Cache) SetNX(ctx context.Context, key string, val []byte, ttlSeconds int) (bool, error) {
	if !c.Available() {
		return false, nil
	}
	var ttl time.Duration
	if ttlSeconds > 0 {
		ttl = time.Duration(ttlSeconds) * time.Second
	}
	ok, err := c.rdb.SetNX(ctx, key, val, ttl).Result()
	if err != nil {
		c.fail("SETNX", key, err)
		return false, err
	}
	return ok, nil
}

func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	if !c.Available() {
		return false, nil
	}
	n, err := c.rdb.Exists(ctx, key).Result()
	if err != nil {
		c.fail("EXISTS", key, err)
		return false, err
	}
	return n == 1, nil
}

// fail логирует ошибку и, если это проблема связности, деградирует кеш
func (c *Cache) fail(op, key string, err error) {
	c.logger.Printf("%s %q failed: %v", op, key, err)
	if isConnErr(err) && c.healthy.Swap(false) {
		c.logger.Println("degraded: passing through until ping succeeds")
	}
}

func isConnErr(err error) bool {
	if err == nil || errors.Is(err, redis.Nil) {
		return false
	}
	// контекстные отмены не считаем деградацией бекенда
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}
