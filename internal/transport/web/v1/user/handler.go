package user

import (
	"log"

	"github.com/EgorLis/blog-api/internal/domain"
)

type Handler struct {
	Log    *log.Logger
	Users  domain.UsersRepo
	Hasher domain.PasswordHasher
}

// Самого себя или любого — если админ
func canManage(me domain.User, target domain.UserID) bool {
	return me.ID == target || me.IsAdmin()
}

type updateRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=2,max=100"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Password *string `json:"password" validate:"omitempty,min=8"`
	Role     *string `json:"role" validate:"omitempty,oneof=user admin"`
}
