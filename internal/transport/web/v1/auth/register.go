package auth

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/EgorLis/blog-api/internal/domain"
	"github.com/EgorLis/blog-api/internal/transport/web/logx"
	"github.com/EgorLis/blog-api/internal/transport/web/mw"
	v1 "github.com/EgorLis/blog-api/internal/transport/web/v1"
)

type Handler struct {
	Log       *log.Logger
	Users     domain.UsersRepo
	Hasher    domain.PasswordHasher
	Tokens    domain.TokenManager
	Blacklist domain.TokenBlacklist
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type tokenResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

// Register godoc
// @Summary     Register new user
// @Description Создаёт пользователя с ролью user и сразу выдаёт JWT.
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body registerRequest true "name, email, password"
// @Success     201 {object} domain.APIEnvelope
// @Failure     400 {object} domain.APIEnvelope
// @Failure     409 {object} domain.APIEnvelope
// @Router      /api/v1/auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	const op = "auth.register"
	reqID := mw.RequestIDFromCtx(r.Context())

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logx.Error(h.Log, reqID, op, "bad json", err)
		v1.WriteDomainError(w, domain.ErrBadParams)
		return
	}
	if err := v1.Validate.Struct(req); err != nil {
		logx.Error(h.Log, reqID, op, "validation failed", err, "email", req.Email)
		v1.WriteValidationErrors(w, v1.FieldErrors(err))
		return
	}

	hash, err := h.Hasher.Hash(req.Password)
	if err != nil {
		logx.Error(h.Log, reqID, op, "hash failed", err)
		v1.WriteDomainError(w, domain.ErrUnexpected)
		return
	}

	u, err := h.Users.CreateUser(r.Context(), domain.User{
		Name:     req.Name,
		Email:    req.Email,
		PassHash: []byte(hash),
		Role:     domain.RoleUser,
	})
	if err != nil {
		logx.Error(h.Log, reqID, op, "create user failed", err, "email", req.Email)
		v1.WriteDomainError(w, err)
		return
	}

	token, _, err := h.Tokens.Issue(r.Context(), u)
	if err != nil {
		logx.Error(h.Log, reqID, op, "issue token failed", err, "user_id", u.ID)
		v1.WriteDomainError(w, domain.ErrUnexpected)
		return
	}

	logx.Info(h.Log, reqID, op, "ok", "user_id", u.ID, "email", u.Email)
	v1.WriteEnvelope(w, http.StatusCreated,
		domain.OkData(tokenResponse{Token: token, User: u}))
}
