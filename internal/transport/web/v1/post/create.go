package post

import (
	"encoding/json"
	"net/http"

	"github.com/EgorLis/blog-api/internal/domain"
	"github.com/EgorLis/blog-api/internal/transport/web/logx"
	"github.com/EgorLis/blog-api/internal/transport/web/mw"
	v1 "github.com/EgorLis/blog-api/internal/transport/web/v1"
)

// Create godoc
// @Summary     Create post
// @Description Автором становится аутентифицированный пользователь.
// @Tags        posts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body createRequest true "post payload"
// @Success     201 {object} domain.APIEnvelope
// @Failure     400 {object} domain.APIEnvelope
// @Failure     401 {object} domain.APIEnvelope
// @Router      /api/v1/posts [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	const op = "posts.create"
	reqID := mw.RequestIDFromCtx(r.Context())

	me, ok := domain.UserFromCtx(r.Context())
	if !ok {
		v1.WriteDomainError(w, domain.ErrUnauth)
		return
	}

	var req createRequest
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

	status := domain.PostStatus(req.Status)
	if status == "" {
		status = domain.StatusDraft
	}
	p, err := h.Posts.CreatePost(r.Context(), domain.Post{
		Title:    req.Title,
		Content:  req.Content,
		AuthorID: me.ID,
		Status:   status,
		Tags:     req.Tags,
		Category: req.Category,
	})
	if err != nil {
		logx.Error(h.Log, reqID, op, "create failed", err)
		v1.WriteDomainError(w, err)
		return
	}

	h.invalidate(r.Context())

	logx.Info(h.Log, reqID, op, "ok", "post_id", p.ID, "author", me.ID)
	v1.WriteCreated(w, p)
}
