package post

import (
	"net/http"

	"github.com/EgorLis/blog-api/internal/transport/web/logx"
	"github.com/EgorLis/blog-api/internal/transport/web/mw"
	v1 "github.com/EgorLis/blog-api/internal/transport/web/v1"
)

// GetOne godoc
// @Summary     Get single post
// @Description Чтение поста увеличивает views на 1 (попадание в кеш — нет).
// @Tags        posts
// @Produce     json
// @Param       id path string true "post id"
// @Success     200 {object} domain.APIEnvelope
// @Failure     404 {object} domain.APIEnvelope
// @Router      /api/v1/posts/{id} [get]
func (h *Handler) GetOne(w http.ResponseWriter, r *http.Request) {
	const op = "posts.get_one"
	reqID := mw.RequestIDFromCtx(r.Context())

	id, err := v1.IDFromPath(r)
	if err != nil {
		logx.Error(h.Log, reqID, op, "bad post id", err, "raw", r.PathValue("id"))
		v1.WriteDomainError(w, err)
		return
	}

	// побочный эффект чтения: views += 1 тем же запросом
	p, err := h.Posts.IncrementViews(r.Context(), id)
	if err != nil {
		logx.Error(h.Log, reqID, op, "post not found", err, "post_id", id)
		v1.WriteDomainError(w, err)
		return
	}

	logx.Info(h.Log, reqID, op, "ok", "post_id", p.ID, "views", p.Views)
	v1.WriteOKData(w, p)
}
