package web

import "github.com/EgorLis/blog-api/internal/domain"

type Repos struct {
	Users domain.UsersRepo
	Posts domain.PostsRepo
}

type AuthDeps struct {
	Hasher    domain.PasswordHasher
	Tokens    domain.TokenManager
	Blacklist domain.TokenBlacklist
}
