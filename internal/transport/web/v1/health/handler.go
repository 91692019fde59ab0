package health

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/EgorLis/blog-api/internal/domain"
	"github.com/EgorLis/blog-api/internal/transport/web/logx"
	"github.com/EgorLis/blog-api/internal/transport/web/mw"
	v1 "github.com/EgorLis/blog-api/internal/transport/web/v1"
)

type Pinger interface {
	Ping(context.Context) error
}

// CachePinger — кеш дополнительно сообщает, включён ли он конфигом,
// чтобы readiness отличал "выключен" от "здоров"
type CachePinger interface {
	Pinger
	Enabled() bool
}

type Handler struct {
	Log   *log.Logger
	DB    Pinger
	Cache CachePinger
}

// Liveness godoc
// @Summary      Liveness probe
// @Description  Жив ли процесс (не зависит от БД/кэша)
// @Tags         health
// @Produce      json
// @Success      200 {object} domain.APIEnvelope
// @Router       /api/v1/healthz [get]
func (h *Handler) Liveness(w http.ResponseWriter, r *http.Request) {
	const op = "health.liveness"
	logx.Info(h.Log, mw.RequestIDFromCtx(r.Context()), op, "ok")
	v1.WriteOKData(w, "ok")
}

// Readiness godoc
// @Summary      Readiness probe
// @Description  Готовность: пинг БД обязателен; деградировавший кеш не валит
// @Description  readiness — сервис работает и без него.
// @Tags         health
// @Produce      json
// @Success      200 {object} domain.APIEnvelope
// @Failure      500 {object} domain.APIEnvelope
// @Router       /api/v1/readyz [get]
func (h *Handler) Readiness(w http.ResponseWriter, r *http.Request) {
	const op = "health.readiness"
	reqID := mw.RequestIDFromCtx(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.DB.Ping(ctx); err != nil {
		logx.Error(h.Log, reqID, op, "db ping failed", err)
		v1.WriteDomainError(w, domain.ErrUnexpected)
		return
	}

	cache := "ok"
	if !h.Cache.Enabled() {
		cache = "disabled"
	} else if err := h.Cache.Ping(ctx); err != nil {
		logx.Error(h.Log, reqID, op, "cache ping failed", err)
		cache = "degraded"
	}

	logx.Info(h.Log, reqID, op, "ready", "cache", cache)
	v1.WriteOKData(w, map[string]string{"db": "ok", "cache": cache})
}
