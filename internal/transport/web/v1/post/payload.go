package post

import "github.com/EgorLis/blog-api/internal/domain"

type createRequest struct {
	Title    string   `json:"title" validate:"required,min=5,max=100"`
	Content  string   `json:"content" validate:"required,min=10"`
	Status   string   `json:"status" validate:"omitempty,oneof=draft published"`
	Tags     []string `json:"tags" validate:"omitempty,dive,min=1,max=50"`
	Category string   `json:"category" validate:"omitempty,max=50"`
}

// Всё опционально: частичное обновление, nil — поле не трогаем
type updateRequest struct {
	Title    *string   `json:"title" validate:"omitempty,min=5,max=100"`
	Content  *string   `json:"content" validate:"omitempty,min=10"`
	Status   *string   `json:"status" validate:"omitempty,oneof=draft published"`
	Tags     *[]string `json:"tags" validate:"omitempty,dive,min=1,max=50"`
	Category *string   `json:"category" validate:"omitempty,max=50"`
}

func (u updateRequest) patch() domain.PostPatch {
	p := domain.PostPatch{
		Title:    u.Title,
		Content:  u.Content,
		Tags:     u.Tags,
		Category: u.Category,
	}
	if u.Status != nil {
		s := domain.PostStatus(*u.Status)
		p.Status = &s
	}
	return p
}
