package user

import (
	"net/http"

	"github.com/EgorLis/blog-api/internal/domain"
	"github.com/EgorLis/blog-api/internal/transport/web/logx"
	"github.com/EgorLis/blog-api/internal/transport/web/mw"
	v1 "github.com/EgorLis/blog-api/internal/transport/web/v1"
)

// List godoc
// @Summary     List users (admin)
// @Tags        users
// @Produce     json
// @Security    BearerAuth
// @Param       page  query int    false "page (1-based)"
// @Param       limit query int    false "page size"
// @Param       sort  query string false "comma-separated, '-' prefix for desc"
// @Success     200 {object} domain.APIEnvelope
// @Failure     403 {object} domain.APIEnvelope
// @Router      /api/v1/users [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	const op = "users.list"
	reqID := mw.RequestIDFromCtx(r.Context())

	me, ok := domain.UserFromCtx(r.Context())
	if !ok {
		v1.WriteDomainError(w, domain.ErrUnauth)
		return
	}
	if !me.IsAdmin() {
		logx.Error(h.Log, reqID, op, "forbidden", domain.ErrForbidden, "user_id", me.ID)
		v1.WriteDomainError(w, domain.ErrForbidden)
		return
	}

	page, err := h.Users.UsersList(r.Context(), r.URL.Query())
	if err != nil {
		logx.Error(h.Log, reqID, op, "list failed", err)
		v1.WriteDomainError(w, err)
		return
	}

	logx.Info(h.Log, reqID, op, "ok", "count", len(page.Items))
	v1.WriteEnvelope(w, http.StatusOK, domain.OkList(
		page.Items,
		len(page.Items),
		domain.NewPagination(page.Page, page.Limit, page.Total),
	))
}

// GetOne godoc
// @Summary     Get user profile
// @Description Доступно самому пользователю или админу.
// @Tags        users
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "user id"
// @Success     200 {object} domain.APIEnvelope
// @Failure     403 {object} domain.APIEnvelope
// @Failure     404 {object} domain.APIEnvelope
// @Router      /api/v1/users/{id} [get]
func (h *Handler) GetOne(w http.ResponseWriter, r *http.Request) {
	const op = "users.get_one"
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
	if !canManage(me, id) {
		v1.WriteDomainError(w, domain.ErrForbidden)
		return
	}

	u, err := h.Users.UserByID(r.Context(), id)
	if err != nil {
		logx.Error(h.Log, reqID, op, "user not found", err, "user_id", id)
		v1.WriteDomainError(w, err)
		return
	}

	logx.Info(h.Log, reqID, op, "ok", "user_id", u.ID)
	v1.WriteOKData(w, u)
}
