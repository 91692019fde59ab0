package postgres

import (
	"context"
	"net/url"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/EgorLis/blog-api/internal/domain"
	"github.com/EgorLis/blog-api/internal/query"
)

var userSchema = query.Schema{
	Filterable: map[string]query.Field{
		"name":      {Col: "name"},
		"email":     {Col: "email"},
		"role":      {Col: "role"},
		"createdAt": {Col: "created_at", Kind: query.KindTime},
	},
	Sortable: map[string]string{
		"name":      "name",
		"email":     "email",
		"createdAt": "created_at",
	},
	Selectable: map[string]string{
		"id":        "id",
		"name":      "name",
		"email":     "email",
		"role":      "role",
		"createdAt": "created_at",
	},
	DefaultColumns: []string{"id", "name", "email", "pass_hash", "role", "created_at"},
	IdentityFields: []string{"id"},
	DefaultSort:    "created_at DESC",
}

const userColumns = "id, name, email, pass_hash, role, created_at"

func scanUser(row interface{ Scan(...any) error }) (domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PassHash, &u.Role, &u.CreatedAt)
	return u, err
}

func (r *PGRepo) CreateUser(ctx context.Context, u domain.User) (domain.User, error) {
	q := r.qb().Insert(r.table("users")).
		Columns("name", "email", "pass_hash", "role").
		Values(u.Name, u.Email, u.PassHash, u.Role).
		Suffix("RETURNING " + userColumns)

	sqlStr, args, _ := q.ToSql()
	r.logSQL("CreateUser", sqlStr, args)

	start := time.Now()
	out, err := scanUser(r.pool.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		r.logger.Printf("CreateUser scan error after %s: %v", time.Since(start), err)
		return domain.User{}, mapErr(err)
	}
	r.logger.Printf("CreateUser ok in %s id=%s email=%s", time.Since(start), out.ID, out.Email)
	return out, nil
}

func (r *PGRepo) UserByEmail(ctx context.Context, email string) (domain.User, error) {
	q := r.qb().Select(userColumns).From(r.table("users")).Where(sq.Eq{"email": email})
	sqlStr, args, _ := q.ToSql()
	r.logSQL("UserByEmail", sqlStr, args)

	start := time.Now()
	u, err := scanUser(r.pool.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		r.logger.Printf("UserByEmail scan error after %s: %v", time.Since(start), err)
		return domain.User{}, mapErr(err)
	}
	r.logger.Printf("UserByEmail ok in %s id=%s", time.Since(start), u.ID)
	return u, nil
}

func (r *PGRepo) UserByID(ctx context.Context, id domain.UserID) (domain.User, error) {
	q := r.qb().Select(userColumns).From(r.table("users")).Where(sq.Eq{"id": id})
	sqlStr, args, _ := q.ToSql()
	r.logSQL("UserByID", sqlStr, args)

	start := time.Now()
	u, err := scanUser(r.pool.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		r.logger.Printf("UserByID scan error after %s: %v", time.Since(start), err)
		return domain.User{}, mapErr(err)
	}
	r.logger.Printf("UserByID ok in %s id=%s", time.Since(start), u.ID)
	return u, nil
}

// Пользовательская выборка тем же конвейером, но без поиска и проекций
// (отдаём всегда полный профиль, пароль прячет json-тег)
func (r *PGRepo) UsersList(ctx context.Context, params url.Values) (domain.UserPage, error) {
	// проекция полей пользователей не поддерживается
	clean := url.Values{}
	for k, v := range params {
		if k == "fields" {
			continue
		}
		clean[k] = v
	}

	sel := r.qb().Select().From(r.table("users"))
	cnt := r.qb().Select("COUNT(*)").From(r.table("users"))
	feats := query.New(sel, cnt, userSchema, clean).Apply()

	sqlStr, args, err := feats.Select().ToSql()
	if err != nil {
		return domain.UserPage{}, err
	}
	r.logSQL("UsersList", sqlStr, args)

	start := time.Now()
	rows, err := r.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		r.logger.Printf("UsersList query error after %s: %v", time.Since(start), err)
		return domain.UserPage{}, err
	}
	defer rows.Close()

	var items []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			r.logger.Printf("UsersList scan error: %v", err)
			return domain.UserPage{}, err
		}
		items = append(items, u)
	}
	if err := rows.Err(); err != nil {
		return domain.UserPage{}, err
	}

	cntStr, cntArgs, err := feats.Count().ToSql()
	if err != nil {
		return domain.UserPage{}, err
	}
	var total int64
	if err := r.pool.QueryRow(ctx, cntStr, cntArgs...).Scan(&total); err != nil {
		return domain.UserPage{}, err
	}

	r.logger.Printf("UsersList ok in %s count=%d total=%d", time.Since(start), len(items), total)
	return domain.UserPage{Items: items, Total: total, Page: feats.Page(), Limit: feats.Limit()}, nil
}

func (r *PGRepo) UserUpdate(ctx context.Context, id domain.UserID, p domain.UserPatch) (domain.User, error) {
	q := r.qb().Update(r.table("users")).Where(sq.Eq{"id": id})
	if p.Name != nil {
		q = q.Set("name", *p.Name)
	}
	if p.Email != nil {
		q = q.Set("email", *p.Email)
	}
	if p.Role != nil {
		q = q.Set("role", *p.Role)
	}
	if p.PassHash != nil {
		q = q.Set("pass_hash", *p.PassHash)
	}
	q = q.Suffix("RETURNING " + userColumns)

	// без единого Set билдер не соберёт UPDATE
	sqlStr, args, err := q.ToSql()
	if err != nil {
		r.logger.Printf("UserUpdate build error: %v", err)
		return domain.User{}, domain.ErrBadParams
	}
	r.logSQL("UserUpdate", sqlStr, args)

	start := time.Now()
	u, err := scanUser(r.pool.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		r.logger.Printf("UserUpdate error after %s: %v", time.Since(start), err)
		return domain.User{}, mapErr(err)
	}
	r.logger.Printf("UserUpdate ok in %s id=%s", time.Since(start), u.ID)
	return u, nil
}

func (r *PGRepo) UserDelete(ctx context.Context, id domain.UserID) error {
	q := r.qb().Delete(r.table("users")).Where(sq.Eq{"id": id})
	sqlStr, args, _ := q.ToSql()
	r.logSQL("UserDelete", sqlStr, args)

	start := time.Now()
	tag, err := r.pool.Exec(ctx, sqlStr, args...)
	if err != nil {
		r.logger.Printf("UserDelete exec error after %s: %v", time.Since(start), err)
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	r.logger.Printf("UserDelete ok in %s id=%s", time.Since(start), id)
	return nil
}
