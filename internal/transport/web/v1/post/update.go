package post

import (
	"encoding/json"
	"net/http"

	"github.com/EgorLis/blog-api/internal/domain"
	"github.com/EgorLis/blog-api/internal/transport/web/logx"
	"github.com/EgorLis/blog-api/internal/transport/web/mw"
	v1 "github.com/EgorLis/blog-api/internal/transport/web/v1"
)

// Update godoc
// @Summary     Update post
// @Description Частичное обновление; разрешено владельцу или админу.
// @Tags        posts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string        true "post id"
// @Param       request body updateRequest true "fields to update"
// @Success     200 {object} domain.APIEnvelope
// @Failure     403 {object} domain.APIEnvelope
// @Failure     404 {object} domain.APIEnvelope
// @Router      /api/v1/posts/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	const op = "posts.update"
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

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logx.Error(h.Log, reqID, op, "bad json", err)
		v1.WriteDomainError(w, domain.ErrBadParams)
		return
	}
	if err := v1.Validate.Struct(req); err != nil {
		logx.Error(h.Log, reqID, op, "validation failed", err)
		v1.WriteValidationErrors(w, v1.FieldErrors(err))
		return
	}
	patch := req.patch()
	if patch.Empty() {
		v1.WriteDomainError(w, domain.ErrBadParams)
		return
	}

	p, err := h.Posts.PostUpdate(r.Context(), id, patch)
	if err != nil {
		logx.Error(h.Log, reqID, op, "update failed", err, "post_id", id)
		v1.WriteDomainError(w, err)
		return
	}

	h.invalidate(r.Context())

	logx.Info(h.Log, reqID, op, "ok", "post_id", p.ID, "version", p.Version)
	v1.WriteOKData(w, p)
}
