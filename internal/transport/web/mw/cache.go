package mw

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/EgorLis/blog-api/internal/domain"
)

// CacheStore — то, что middleware требуется от кеша.
// Реализация — infra/cache/redis; в тестах — фейк.
type CacheStore interface {
	Available() bool
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, val []byte, ttlSeconds int) error
	Keys(ctx context.Context, pattern string) ([]string, error)
	Del(ctx context.Context, keys ...string) error
}

// CachePage — cache-aside вокруг read-only хендлера с per-route TTL.
//
// Недоступный кеш прозрачен: запрос идёт прямо в хендлер. Участвуют только
// GET/HEAD-запросы. Ключ — префикс + полный URI с query string (без канонизации
// порядка параметров). Попадание отдаётся с fromCache=true, хендлер не
// выполняется. Ошибка чтения кеша трактуется как промах (fail open). Промах
// выполняет хендлер через перехватывающий writer; успешный JSON-ответ
// сохраняется после отправки клиенту, ошибка записи только логируется.
func CachePage(store CacheStore, ttlSeconds int, l *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !store.Available() || (r.Method != http.MethodGet && r.Method != http.MethodHead) {
				next.ServeHTTP(w, r)
				return
			}

			key := domain.CacheKeyRequest(r.URL.RequestURI())
			reqID := RequestIDFromCtx(r.Context())

			if b, err := store.Get(r.Context(), key); err != nil {
				l.Printf("lvl=error req_id=%s msg=\"cache get failed, falling through\" key=%q err=%q",
					reqID, key, err)
			} else if b != nil {
				if writeCached(w, b) {
					return
				}
				// битая запись — идём как при промахе
				l.Printf("lvl=error req_id=%s msg=\"cached payload is not json\" key=%q", reqID, key)
			}

			// промах: выполняем хендлер, перехватывая тело ответа
			cw := &captureWriter{ResponseWriter: w}
			next.ServeHTTP(cw, r)

			if cw.status != http.StatusOK || !jsonContent(cw.Header().Get("Content-Type")) {
				return
			}
			// ответ клиенту уже ушёл; ошибка сохранения его не касается
			if err := store.Set(r.Context(), key, cw.buf.Bytes(), ttlSeconds); err != nil {
				l.Printf("lvl=error req_id=%s msg=\"cache set failed\" key=%q err=%q", reqID, key, err)
			}
		})
	}
}

// writeCached добавляет к сохранённому конверту маркер fromCache и отдаёт его
func writeCached(w http.ResponseWriter, b []byte) bool {
	var payload map[string]any
	if err := json.Unmarshal(b, &payload); err != nil {
		return false
	}
	payload["fromCache"] = true
	out, err := json.Marshal(payload)
	if err != nil {
		return false
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
	return true
}

func jsonContent(ct string) bool {
	return strings.HasPrefix(ct, "application/json")
}

// captureWriter пишет клиенту и параллельно копит тело для кеша
type captureWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
}

func (c *captureWriter) WriteHeader(code int) {
	if c.status == 0 {
		c.status = code
	}
	c.ResponseWriter.WriteHeader(code)
}

func (c *captureWriter) Write(b []byte) (int, error) {
	if c.status == 0 {
		c.status = http.StatusOK
	}
	c.buf.Write(b)
	return c.ResponseWriter.Write(b)
}

// Invalidator сбрасывает закешированные ответы по glob-паттерну ключей.
// Вызывается мутациями до отправки их ответа: клиент, увидевший успех записи,
// уже не получит устаревший кеш (узкая гонка с in-flight чтениями
// ограничена TTL).
type Invalidator struct {
	Cache CacheStore
	Log   *log.Logger
}

// Invalidate — KEYS по паттерну и один пакетный DEL.
// Молча выходит при недоступном кеше; ошибки только логируются.
func (inv Invalidator) Invalidate(ctx context.Context, pattern string) {
	if !inv.Cache.Available() {
		return
	}
	keys, err := inv.Cache.Keys(ctx, pattern)
	if err != nil {
		inv.Log.Printf("lvl=error msg=\"invalidate keys failed\" pattern=%q err=%q", pattern, err)
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := inv.Cache.Del(ctx, keys...); err != nil {
		inv.Log.Printf("lvl=error msg=\"invalidate del failed\" pattern=%q err=%q", pattern, err)
		return
	}
	inv.Log.Printf("lvl=info msg=\"cache invalidated\" pattern=%q keys=%d", pattern, len(keys))
}
