package auth

import (
	"net/http"
	"strings"

	"github.com/EgorLis/blog-api/internal/domain"
	"github.com/EgorLis/blog-api/internal/transport/web/logx"
	"github.com/EgorLis/blog-api/internal/transport/web/mw"
	v1 "github.com/EgorLis/blog-api/internal/transport/web/v1"
)

// Logout godoc
// @Summary     Revoke current token
// @Description jti токена попадает в блэклист до его собственного истечения.
// @Tags        auth
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} domain.APIEnvelope
// @Failure     401 {object} domain.APIEnvelope
// @Router      /api/v1/auth/logout [delete]
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	const op = "auth.logout"
	reqID := mw.RequestIDFromCtx(r.Context())

	raw := bearer(r)
	if raw == "" {
		v1.WriteDomainError(w, domain.ErrUnauth)
		return
	}
	claims, err := h.Tokens.Parse(r.Context(), raw)
	if err != nil {
		logx.Error(h.Log, reqID, op, "parse token failed", err)
		v1.WriteDomainError(w, domain.ErrUnauth)
		return
	}

	if err := h.Blacklist.Revoke(r.Context(), claims.JTI, claims.ExpiresAt); err != nil {
		logx.Error(h.Log, reqID, op, "revoke failed", err, "jti", claims.JTI)
		v1.WriteDomainError(w, domain.ErrUnexpected)
		return
	}

	logx.Info(h.Log, reqID, op, "ok", "user_id", claims.UserID, "jti", claims.JTI)
	v1.WriteEnvelope(w, http.StatusOK, domain.OkMessage("logged out"))
}

func bearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
