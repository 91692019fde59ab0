package domain

import (
	"time"

	"github.com/google/uuid"
)

// Базовые идентификаторы
type UserID = uuid.UUID
type PostID = uuid.UUID

// Роли пользователей (правило owner-or-admin в хендлерах)
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Статусы поста
type PostStatus string

const (
	StatusDraft     PostStatus = "draft"
	StatusPublished PostStatus = "published"
)

func ValidStatus(s PostStatus) bool {
	return s == StatusDraft || s == StatusPublished
}

// Пользователь
type User struct {
	ID        UserID    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	PassHash  []byte    `json:"-"` // никогда не отдаём наружу
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// Автор в развёрнутом виде — подмешивается к постам при чтении
type PostAuthor struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Пост
type Post struct {
	ID          PostID      `json:"id"`
	Title       string      `json:"title,omitempty"`
	Content     string      `json:"content,omitempty"`
	AuthorID    UserID      `json:"author"`
	Author      *PostAuthor `json:"authorInfo,omitempty"`
	Status      PostStatus  `json:"status,omitempty"`
	Tags        []string    `json:"tags,omitempty"`
	Category    string      `json:"category,omitempty"`
	Views       int64       `json:"views"`
	PublishedAt *time.Time  `json:"publishedAt,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`

	// Техническая ревизия (в выдачу по умолчанию не попадает)
	Version int64 `json:"-"`
}

// Владелец или админ — может менять/удалять пост
func (p Post) Editable(by User) bool {
	return p.AuthorID == by.ID || by.IsAdmin()
}

// Частичное обновление поста: nil — поле не трогаем
type PostPatch struct {
	Title    *string
	Content  *string
	Status   *PostStatus
	Tags     *[]string
	Category *string
}

func (p PostPatch) Empty() bool {
	return p.Title == nil && p.Content == nil && p.Status == nil &&
		p.Tags == nil && p.Category == nil
}
