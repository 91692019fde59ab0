package post

import "github.com/EgorLis/blog-api/internal/domain"

// projected сводит пост к карте из выбранных json-полей.
// Идентичность (id, author) присутствует всегда — её гарантирует выборка.
func projected(p domain.Post, fields []string) map[string]any {
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		switch f {
		case "id":
			out["id"] = p.ID
		case "title":
			out["title"] = p.Title
		case "content":
			out["content"] = p.Content
		case "author":
			out["author"] = p.AuthorID
		case "status":
			out["status"] = p.Status
		case "tags":
			out["tags"] = p.Tags
		case "category":
			out["category"] = p.Category
		case "views":
			out["views"] = p.Views
		case "publishedAt":
			out["publishedAt"] = p.PublishedAt
		case "createdAt":
			out["createdAt"] = p.CreatedAt
		case "updatedAt":
			out["updatedAt"] = p.UpdatedAt
		}
	}
	return out
}

// pageData — данные страницы: структуры при полной выдаче,
// карты — при активной проекции полей
func pageData(page domain.PostPage) any {
	if page.Fields == nil {
		return page.Items
	}
	out := make([]map[string]any, 0, len(page.Items))
	for _, p := range page.Items {
		out = append(out, projected(p, page.Fields))
	}
	return out
}
