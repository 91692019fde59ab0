package post

import (
	"context"
	"log"

	"github.com/EgorLis/blog-api/internal/domain"
	"github.com/EgorLis/blog-api/internal/transport/web/mw"
)

type Handler struct {
	Log   *log.Logger
	Posts domain.PostsRepo
	Inv   mw.Invalidator
}

// invalidate сбрасывает кеш постов после успешной мутации,
// до записи ответа клиенту
func (h *Handler) invalidate(ctx context.Context) {
	h.Inv.Invalidate(ctx, domain.CachePostsNS)
}
