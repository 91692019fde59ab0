package user

import (
	"encoding/json"
	"net/http"

	"github.com/EgorLis/blog-api/internal/domain"
	"github.com/EgorLis/blog-api/internal/transport/web/logx"
	"github.com/EgorLis/blog-api/internal/transport/web/mw"
	v1 "github.com/EgorLis/blog-api/internal/transport/web/v1"
)

// Update godoc
// @Summary     Update user
// @Description Частичное обновление профиля; смена роли — только админ.
// @Tags        users
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string        true "user id"
// @Param       request body updateRequest true "fields to update"
// @Success     200 {object} domain.APIEnvelope
// @Failure     403 {object} domain.APIEnvelope
// @Failure     404 {object} domain.APIEnvelope
// @Router      /api/v1/users/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	const op = "users.update"
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
		logx.Error(h.Log, reqID, op, "forbidden", domain.ErrForbidden,
			"user_id", me.ID, "target", id)
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
	// роль меняет только админ
	if req.Role != nil && !me.IsAdmin() {
		v1.WriteDomainError(w, domain.ErrForbidden)
		return
	}

	patch := domain.UserPatch{Name: req.Name, Email: req.Email}
	if req.Role != nil {
		role := domain.Role(*req.Role)
		patch.Role = &role
	}
	if req.Password != nil {
		hash, err := h.Hasher.Hash(*req.Password)
		if err != nil {
			logx.Error(h.Log, reqID, op, "hash failed", err)
			v1.WriteDomainError(w, domain.ErrUnexpected)
			return
		}
		b := []byte(hash)
		patch.PassHash = &b
	}
	if patch.Empty() {
		v1.WriteDomainError(w, domain.ErrBadParams)
		return
	}

	u, err := h.Users.UserUpdate(r.Context(), id, patch)
	if err != nil {
		logx.Error(h.Log, reqID, op, "update failed", err, "user_id", id)
		v1.WriteDomainError(w, err)
		return
	}

	logx.Info(h.Log, reqID, op, "ok", "user_id", u.ID)
	v1.WriteOKData(w, u)
}

// Delete godoc
// @Summary     Delete user
// @Description Доступно самому пользователю или админу; посты удаляются каскадом.
// @Tags        users
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "user id"
// @Success     200 {object} domain.APIEnvelope
// @Failure     403 {object} domain.APIEnvelope
// @Failure     404 {object} domain.APIEnvelope
// @Router      /api/v1/users/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	const op = "users.delete"
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

	if err := h.Users.UserDelete(r.Context(), id); err != nil {
		logx.Error(h.Log, reqID, op, "delete failed", err, "user_id", id)
		v1.WriteDomainError(w, err)
		return
	}

	logx.Info(h.Log, reqID, op, "ok", "user_id", id)
	v1.WriteEnvelope(w, http.StatusOK, domain.OkMessage("user deleted successfully"))
}
