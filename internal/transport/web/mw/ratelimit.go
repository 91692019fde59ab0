package mw

import (
	"context"
	"log"
	"net"
	"net/http"
	"strconv"

	"github.com/EgorLis/blog-api/internal/domain"
)

// Counter — окно-счётчик для rate limiter'а (Redis INCR+EXPIRE)
type Counter interface {
	Available() bool
	IncrWindow(ctx context.Context, key string, ttlSeconds int) (int64, error)
}

const rateWindowSeconds = 60

// RateLimit — фиксированное минутное окно по IP клиента.
// Недоступный счётчик пропускает всех (та же fail-open политика, что у кеша).
func RateLimit(counter Counter, perMinute int, l *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if perMinute <= 0 || !counter.Available() {
				next.ServeHTTP(w, r)
				return
			}
			key := domain.CacheKeyRateNS + clientIP(r)
			n, err := counter.IncrWindow(r.Context(), key, rateWindowSeconds)
			if err != nil {
				l.Printf("lvl=error req_id=%s msg=\"rate counter failed, passing through\" err=%q",
					RequestIDFromCtx(r.Context()), err)
				next.ServeHTTP(w, r)
				return
			}
			if n > int64(perMinute) {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", strconv.Itoa(rateWindowSeconds))
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"success":false,"message":"too many requests"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
