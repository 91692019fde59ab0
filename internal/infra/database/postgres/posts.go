package postgres

import (
	"context"
	"net/url"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/EgorLis/blog-api/internal/domain"
	"github.com/EgorLis/blog-api/internal/query"
)

// Схема выборки постов: какие параметры запроса во что транслируются.
// Полнотекстовый поиск — по GIN-индексу из миграции 0001.
var postSchema = query.Schema{
	Filterable: map[string]query.Field{
		"status":      {Col: "status"},
		"category":    {Col: "category"},
		"author":      {Col: "author_id"},
		"views":       {Col: "views", Kind: query.KindInt},
		"createdAt":   {Col: "created_at", Kind: query.KindTime},
		"publishedAt": {Col: "published_at", Kind: query.KindTime},
	},
	FilterExprs: map[string]string{
		"tags": "? = ANY(tags)",
	},
	Sortable: map[string]string{
		"title":       "title",
		"status":      "status",
		"category":    "category",
		"views":       "views",
		"createdAt":   "created_at",
		"publishedAt": "published_at",
	},
	Selectable: map[string]string{
		"id":          "id",
		"title":       "title",
		"content":     "content",
		"author":      "author_id",
		"status":      "status",
		"tags":        "tags",
		"category":    "category",
		"views":       "views",
		"publishedAt": "published_at",
		"createdAt":   "created_at",
		"updatedAt":   "updated_at",
	},
	DefaultColumns: []string{
		"id", "title", "content", "author_id", "status", "tags",
		"category", "views", "published_at", "created_at", "updated_at",
	},
	IdentityFields: []string{"id", "author"},
	SearchExpr:     "to_tsvector('english', title || ' ' || content) @@ plainto_tsquery('english', ?)",
	DefaultSort:    "created_at DESC",
}

// Полный набор колонок для точечных операций (с ревизией)
const postColumns = "id, title, content, author_id, status, tags, category, views, published_at, version, created_at, updated_at"

func scanPost(row interface{ Scan(...any) error }) (domain.Post, error) {
	var p domain.Post
	err := row.Scan(
		&p.ID, &p.Title, &p.Content, &p.AuthorID, &p.Status, &p.Tags,
		&p.Category, &p.Views, &p.PublishedAt, &p.Version, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

// scanDest — назначение скана для json-поля при активной проекции
func scanDest(p *domain.Post, field string) any {
	switch field {
	case "id":
		return &p.ID
	case "title":
		return &p.Title
	case "content":
		return &p.Content
	case "author":
		return &p.AuthorID
	case "status":
		return &p.Status
	case "tags":
		return &p.Tags
	case "category":
		return &p.Category
	case "views":
		return &p.Views
	case "publishedAt":
		return &p.PublishedAt
	case "createdAt":
		return &p.CreatedAt
	case "updatedAt":
		return &p.UpdatedAt
	}
	return nil
}

// authors — имя и почта авторов одним запросом (id IN (...))
func (r *PGRepo) authors(ctx context.Context, ids []domain.UserID) (map[domain.UserID]domain.PostAuthor, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := r.qb().Select("id", "name", "email").From(r.table("users")).Where(sq.Eq{"id": ids})
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[domain.UserID]domain.PostAuthor, len(ids))
	for rows.Next() {
		var id domain.UserID
		var a domain.PostAuthor
		if err := rows.Scan(&id, &a.Name, &a.Email); err != nil {
			return nil, err
		}
		out[id] = a
	}
	return out, rows.Err()
}

// attachAuthor подмешивает автора к одиночному посту
func (r *PGRepo) attachAuthor(ctx context.Context, p *domain.Post) error {
	m, err := r.authors(ctx, []domain.UserID{p.AuthorID})
	if err != nil {
		return err
	}
	if a, ok := m[p.AuthorID]; ok {
		p.Author = &a
	}
	return nil
}

// attachAuthors — то же для страницы выборки, авторы дедуплицируются
func (r *PGRepo) attachAuthors(ctx context.Context, items []domain.Post) error {
	ids := make([]domain.UserID, 0, len(items))
	seen := make(map[domain.UserID]struct{}, len(items))
	for _, p := range items {
		if _, ok := seen[p.AuthorID]; !ok {
			seen[p.AuthorID] = struct{}{}
			ids = append(ids, p.AuthorID)
		}
	}
	m, err := r.authors(ctx, ids)
	if err != nil {
		return err
	}
	for i := range items {
		if a, ok := m[items[i].AuthorID]; ok {
			items[i].Author = &a
		}
	}
	return nil
}

func (r *PGRepo) CreatePost(ctx context.Context, p domain.Post) (domain.Post, error) {
	if p.Tags == nil {
		p.Tags = []string{}
	}
	q := r.qb().Insert(r.table("posts")).
		Columns("title", "content", "author_id", "status", "tags", "category").
		Values(p.Title, p.Content, p.AuthorID, p.Status, p.Tags, p.Category).
		Suffix("RETURNING " + postColumns)

	sqlStr, args, _ := q.ToSql()
	r.logSQL("CreatePost", sqlStr, args)

	start := time.Now()
	out, err := scanPost(r.pool.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		r.logger.Printf("CreatePost scan error after %s: %v", time.Since(start), err)
		return domain.Post{}, mapErr(err)
	}
	r.logger.Printf("CreatePost ok in %s id=%s title=%q", time.Since(start), out.ID, out.Title)
	return out, nil
}

func (r *PGRepo) PostByID(ctx context.Context, id domain.PostID) (domain.Post, error) {
	q := r.qb().Select(postColumns).From(r.table("posts")).Where(sq.Eq{"id": id})
	sqlStr, args, _ := q.ToSql()
	r.logSQL("PostByID", sqlStr, args)

	start := time.Now()
	p, err := scanPost(r.pool.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		r.logger.Printf("PostByID scan error after %s: %v", time.Since(start), err)
		return domain.Post{}, mapErr(err)
	}
	if err := r.attachAuthor(ctx, &p); err != nil {
		r.logger.Printf("PostByID author lookup error: %v", err)
		return domain.Post{}, err
	}
	r.logger.Printf("PostByID ok in %s id=%s", time.Since(start), p.ID)
	return p, nil
}

// IncrementViews: счётчик растёт ровно на 1 одним UPDATE (атомарность строки)
func (r *PGRepo) IncrementViews(ctx context.Context, id domain.PostID) (domain.Post, error) {
	q := r.qb().Update(r.table("posts")).
		Set("views", sq.Expr("views + 1")).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + postColumns)
	sqlStr, args, _ := q.ToSql()
	r.logSQL("IncrementViews", sqlStr, args)

	start := time.Now()
	p, err := scanPost(r.pool.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		r.logger.Printf("IncrementViews error after %s: %v", time.Since(start), err)
		return domain.Post{}, mapErr(err)
	}
	if err := r.attachAuthor(ctx, &p); err != nil {
		r.logger.Printf("IncrementViews author lookup error: %v", err)
		return domain.Post{}, err
	}
	r.logger.Printf("IncrementViews ok in %s id=%s views=%d", time.Since(start), p.ID, p.Views)
	return p, nil
}

func (r *PGRepo) PostsList(ctx context.Context, f domain.PostList) (domain.PostPage, error) {
	sel := r.qb().Select().From(r.table("posts"))
	cnt := r.qb().Select("COUNT(*)").From(r.table("posts"))
	if f.Status != "" {
		cond := sq.Eq{"status": f.Status}
		sel = sel.Where(cond)
		cnt = cnt.Where(cond)
	}

	feats := query.New(sel, cnt, postSchema, f.Params).Apply()

	sqlStr, args, err := feats.Select().ToSql()
	if err != nil {
		return domain.PostPage{}, err
	}
	r.logSQL("PostsList", sqlStr, args)

	start := time.Now()
	rows, err := r.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		r.logger.Printf("PostsList query error after %s: %v", time.Since(start), err)
		return domain.PostPage{}, err
	}
	defer rows.Close()

	items := make([]domain.Post, 0, feats.Limit())
	fields := feats.Fields()
	for rows.Next() {
		var p domain.Post
		var err error
		if fields == nil {
			err = rows.Scan(
				&p.ID, &p.Title, &p.Content, &p.AuthorID, &p.Status, &p.Tags,
				&p.Category, &p.Views, &p.PublishedAt, &p.CreatedAt, &p.UpdatedAt,
			)
		} else {
			dest := make([]any, 0, len(fields))
			for _, f := range fields {
				dest = append(dest, scanDest(&p, f))
			}
			err = rows.Scan(dest...)
		}
		if err != nil {
			r.logger.Printf("PostsList scan error: %v", err)
			return domain.PostPage{}, err
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		r.logger.Printf("PostsList rows error: %v", err)
		return domain.PostPage{}, err
	}

	// при проекции полей автора не подмешиваем
	if fields == nil {
		if err := r.attachAuthors(ctx, items); err != nil {
			r.logger.Printf("PostsList authors lookup error: %v", err)
			return domain.PostPage{}, err
		}
	}

	// total под тем же фильтром
	cntStr, cntArgs, err := feats.Count().ToSql()
	if err != nil {
		return domain.PostPage{}, err
	}
	r.logSQL("PostsList.count", cntStr, cntArgs)
	var total int64
	if err := r.pool.QueryRow(ctx, cntStr, cntArgs...).Scan(&total); err != nil {
		r.logger.Printf("PostsList count error: %v", err)
		return domain.PostPage{}, err
	}

	r.logger.Printf("PostsList ok in %s count=%d total=%d", time.Since(start), len(items), total)
	return domain.PostPage{
		Items: items, Total: total,
		Page: feats.Page(), Limit: feats.Limit(), Fields: fields,
	}, nil
}

// Посты автора, новые сверху, без кеша и проекций
func (r *PGRepo) PostsByAuthor(ctx context.Context, author domain.UserID, params url.Values) (domain.PostPage, error) {
	page, limit := query.PageLimit(params)
	cond := sq.Eq{"author_id": author}

	q := r.qb().Select(postColumns).From(r.table("posts")).
		Where(cond).
		OrderBy("created_at DESC").
		Offset(uint64((page - 1) * limit)).Limit(uint64(limit))
	sqlStr, args, _ := q.ToSql()
	r.logSQL("PostsByAuthor", sqlStr, args)

	start := time.Now()
	rows, err := r.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		r.logger.Printf("PostsByAuthor query error after %s: %v", time.Since(start), err)
		return domain.PostPage{}, err
	}
	defer rows.Close()

	var items []domain.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			r.logger.Printf("PostsByAuthor scan error: %v", err)
			return domain.PostPage{}, err
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return domain.PostPage{}, err
	}

	cntStr, cntArgs, _ := r.qb().Select("COUNT(*)").From(r.table("posts")).Where(cond).ToSql()
	var total int64
	if err := r.pool.QueryRow(ctx, cntStr, cntArgs...).Scan(&total); err != nil {
		return domain.PostPage{}, err
	}

	r.logger.Printf("PostsByAuthor ok in %s count=%d", time.Since(start), len(items))
	return domain.PostPage{Items: items, Total: total, Page: page, Limit: limit}, nil
}

func (r *PGRepo) PostUpdate(ctx context.Context, id domain.PostID, p domain.PostPatch) (domain.Post, error) {
	q := r.qb().Update(r.table("posts")).Where(sq.Eq{"id": id})
	if p.Title != nil {
		q = q.Set("title", *p.Title)
	}
	if p.Content != nil {
		q = q.Set("content", *p.Content)
	}
	if p.Tags != nil {
		q = q.Set("tags", *p.Tags)
	}
	if p.Category != nil {
		q = q.Set("category", *p.Category)
	}
	if p.Status != nil {
		q = q.Set("status", *p.Status)
		if *p.Status == domain.StatusPublished {
			// publishedAt выставляется ровно один раз, при первом переходе
			q = q.Set("published_at", sq.Expr("COALESCE(published_at, now())"))
		}
	}
	q = q.Set("version", sq.Expr("version + 1")).
		Set("updated_at", sq.Expr("now()")).
		Suffix("RETURNING " + postColumns)

	sqlStr, args, _ := q.ToSql()
	r.logSQL("PostUpdate", sqlStr, args)

	start := time.Now()
	out, err := scanPost(r.pool.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		r.logger.Printf("PostUpdate error after %s: %v", time.Since(start), err)
		return domain.Post{}, mapErr(err)
	}
	r.logger.Printf("PostUpdate ok in %s id=%s version=%d", time.Since(start), out.ID, out.Version)
	return out, nil
}

func (r *PGRepo) PostDelete(ctx context.Context, id domain.PostID) error {
	q := r.qb().Delete(r.table("posts")).Where(sq.Eq{"id": id})
	sqlStr, args, _ := q.ToSql()
	r.logSQL("PostDelete", sqlStr, args)

	start := time.Now()
	tag, err := r.pool.Exec(ctx, sqlStr, args...)
	if err != nil {
		r.logger.Printf("PostDelete exec error after %s: %v", time.Since(start), err)
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		r.logger.Printf("PostDelete no rows affected in %s", time.Since(start))
		return domain.ErrNotFound
	}
	r.logger.Printf("PostDelete ok in %s id=%s", time.Since(start), id)
	return nil
}
