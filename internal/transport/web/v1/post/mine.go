package post

import (
	"net/http"

	"github.com/EgorLis/blog-api/internal/domain"
	"github.com/EgorLis/blog-api/internal/transport/web/logx"
	"github.com/EgorLis/blog-api/internal/transport/web/mw"
	v1 "github.com/EgorLis/blog-api/internal/transport/web/v1"
)

// Mine godoc
// @Summary     List caller's posts
// @Description Свои посты в любом статусе, новые сверху, без кеша.
// @Tags        posts
// @Produce     json
// @Security    BearerAuth
// @Param       page  query int false "page (1-based)"
// @Param       limit query int false "page size"
// @Success     200 {object} domain.APIEnvelope
// @Router      /api/v1/posts/my [get]
func (h *Handler) Mine(w http.ResponseWriter, r *http.Request) {
	const op = "posts.mine"
	reqID := mw.RequestIDFromCtx(r.Context())

	me, ok := domain.UserFromCtx(r.Context())
	if !ok {
		v1.WriteDomainError(w, domain.ErrUnauth)
		return
	}

	page, err := h.Posts.PostsByAuthor(r.Context(), me.ID, r.URL.Query())
	if err != nil {
		logx.Error(h.Log, reqID, op, "list failed", err, "author", me.ID)
		v1.WriteDomainError(w, err)
		return
	}

	logx.Info(h.Log, reqID, op, "ok", "author", me.ID, "count", len(page.Items))
	v1.WriteEnvelope(w, http.StatusOK, domain.OkList(
		page.Items,
		len(page.Items),
		domain.NewPagination(page.Page, page.Limit, page.Total),
	))
}
