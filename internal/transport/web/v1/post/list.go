package post

import (
	"net/http"

	"github.com/EgorLis/blog-api/internal/domain"
	"github.com/EgorLis/blog-api/internal/transport/web/logx"
	"github.com/EgorLis/blog-api/internal/transport/web/mw"
	v1 "github.com/EgorLis/blog-api/internal/transport/web/v1"
)

// List godoc
// @Summary     List published posts
// @Description Публичная выдача: фильтры, поиск, сортировка, проекция, пагинация.
// @Tags        posts
// @Produce     json
// @Param       page   query int    false "page (1-based)"
// @Param       limit  query int    false "page size (max 100)"
// @Param       sort   query string false "comma-separated, '-' prefix for desc"
// @Param       fields query string false "comma-separated projection"
// @Param       search query string false "full-text search in title/content"
// @Success     200 {object} domain.APIEnvelope
// @Router      /api/v1/posts [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	const op = "posts.list"
	reqID := mw.RequestIDFromCtx(r.Context())

	page, err := h.Posts.PostsList(r.Context(), domain.PostList{
		Params: r.URL.Query(),
		Status: domain.StatusPublished, // публичная выдача — только published
	})
	if err != nil {
		logx.Error(h.Log, reqID, op, "list failed", err)
		v1.WriteDomainError(w, err)
		return
	}

	logx.Info(h.Log, reqID, op, "ok", "count", len(page.Items), "total", page.Total)
	v1.WriteEnvelope(w, http.StatusOK, domain.OkList(
		pageData(page),
		len(page.Items),
		domain.NewPagination(page.Page, page.Limit, page.Total),
	))
}
