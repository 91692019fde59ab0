package post

import (
	"net/http"

	"github.com/EgorLis/blog-api/internal/domain"
	"github.com/EgorLis/blog-api/internal/transport/web/logx"
	"github.com/EgorLis/blog-api/internal/transport/web/mw"
	v1 "github.com/EgorLis/blog-api/internal/transport/web/v1"
)

// Delete godoc
// @Summary     Delete post
// @Description Разрешено владельцу или админу.
// @Tags        posts
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "post id"
// @Success     200 {object} domain.APIEnvelope
// @Failure     403 {object} domain.APIEnvelope
// @Failure     404 {object} domain.APIEnvelope
// @Router      /api/v1/posts/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	const op = "posts.delete"
	reqID := mw.RequestIDFromCtx(r.Context())

	me, ok := domain.UserFromCtx(r.Context())
	if !ok {
		v1.WriteDomainError(w, domain.ErrUnauth)
		return
	}
	id, err := v1.IDFromPath(r)
	if err != nil {
		v1.WriteDomainError(w, err)
		return
	}

	existing, err := h.Posts.PostByID(r.Context(), id)
	if err != nil {
		logx.Error(h.Log, reqID, op, "post not found", err, "post_id", id)
		v1.WriteDomainError(w, err)
		return
	}
	if !existing.Editable(me) {
		logx.Error(h.Log, reqID, op, "forbidden", domain.ErrForbidden,
			"post_id", id, "user_id", me.ID)
		v1.WriteDomainError(w, domain.ErrForbidden)
		return
	}

	if err := h.Posts.PostDelete(r.Context(), id); err != nil {
		logx.Error(h.Log, reqID, op, "delete failed", err, "post_id", id)
		v1.WriteDomainError(w, err)
		return
	}

	h.invalidate(r.Context())

	logx.Info(h.Log, reqID, op, "ok", "post_id", id)
	v1.WriteEnvelope(w, http.StatusOK, domain.OkMessage("post deleted successfully"))
}
