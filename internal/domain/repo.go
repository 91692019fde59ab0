package domain

import (
	"context"
	"net/url"
)

// Параметры выборки постов: сырые query-параметры запроса плюс
// базовый фильтр (публичная выдача — только published).
type PostList struct {
	Params url.Values
	Status PostStatus // "" — без ограничения по статусу
}

// Страница выборки + всё, что нужно для метаданных пагинации
type PostPage struct {
	Items []Post
	Total int64
	Page  int
	Limit int
	// Непустой — активная проекция (json-имена полей)
	Fields []string
}

type UserPage struct {
	Items []User
	Total int64
	Page  int
	Limit int
}

type UsersRepo interface {
	Close()
	Ping(context.Context) error
	CreateUser(ctx context.Context, u User) (User, error)
	UserByEmail(ctx context.Context, email string) (User, error)
	UserByID(ctx context.Context, id UserID) (User, error)
	UsersList(ctx context.Context, params url.Values) (UserPage, error)
	UserUpdate(ctx context.Context, id UserID, p UserPatch) (User, error)
	UserDelete(ctx context.Context, id UserID) error
}

type PostsRepo interface {
	CreatePost(ctx context.Context, p Post) (Post, error)
	PostByID(ctx context.Context, id PostID) (Post, error)
	// Инкремент счётчика просмотров одним UPDATE (побочный эффект чтения)
	IncrementViews(ctx context.Context, id PostID) (Post, error)
	PostsList(ctx context.Context, f PostList) (PostPage, error)
	PostsByAuthor(ctx context.Context, author UserID, params url.Values) (PostPage, error)
	PostUpdate(ctx context.Context, id PostID, p PostPatch) (Post, error)
	PostDelete(ctx context.Context, id PostID) error
}

// Частичное обновление пользователя
type UserPatch struct {
	Name     *string
	Email    *string
	Role     *Role
	PassHash *[]byte
}

func (p UserPatch) Empty() bool {
	return p.Name == nil && p.Email == nil && p.Role == nil && p.PassHash == nil
}
