// Package query собирает выборку из плоских query-параметров запроса:
// фильтры, полнотекстовый поиск, сортировка, проекция полей и пагинация
// поверх squirrel-билдера. Каждая стадия — no-op, если её параметр не задан.
package query

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
)

// Параметры, которые не являются фильтрами
var reserved = map[string]struct{}{
	"page": {}, "sort": {}, "limit": {}, "fields": {}, "search": {},
}

const (
	DefaultPage  = 1
	DefaultLimit = 10
	// Верхняя граница limit: защита от неограниченных выборок
	MaxLimit = 100
)

// FieldKind — тип колонки. Значение фильтра приводится к типу колонки,
// а не угадывается по форме: "2024" для текстовой колонки остаётся строкой.
type FieldKind int

const (
	KindText FieldKind = iota
	KindInt
	KindTime
)

// Field — колонка SQL и её тип
type Field struct {
	Col  string
	Kind FieldKind
}

// Schema описывает, какие параметры ресурс разрешает в выборке.
// Ключи — имена полей в API (json), значения — колонки SQL.
type Schema struct {
	Filterable map[string]Field
	// Кастомные предикаты равенства (один '?'), например containment по массиву
	FilterExprs map[string]string
	Sortable    map[string]string
	Selectable  map[string]string
	// Колонки выдачи по умолчанию (всё, кроме технической ревизии)
	DefaultColumns []string
	// Колонки идентичности — присутствуют в любой проекции
	IdentityFields []string
	// Полнотекстовый предикат с одним '?', пустой — поиск не поддерживается
	SearchExpr  string
	DefaultSort string
}

// Features владеет билдером выборки (мутируется по стадиям) и
// read-only картой параметров.
type Features struct {
	sel    sq.SelectBuilder
	count  sq.SelectBuilder
	schema Schema
	params url.Values

	page   int
	limit  int
	fields []string // выбранные json-поля; nil — проекция по умолчанию
}

// New принимает базовые билдеры (без колонок у sel; count уже с COUNT(*)).
// Базовые условия (например, status=published) вешаются на оба до вызова.
func New(sel, count sq.SelectBuilder, s Schema, params url.Values) *Features {
	return &Features{sel: sel, count: count, schema: s, params: params,
		page: DefaultPage, limit: DefaultLimit}
}

// Apply прогоняет все стадии в штатном порядке.
func (f *Features) Apply() *Features {
	return f.Filter().Search().Sort().LimitFields().Paginate()
}

// Filter: каждый параметр вне служебного списка — ограничение на колонку.
// Суффикс-оператор в скобках (views[gte]=10) разбирается явно в типизированное
// сравнение, без сериализации и regexp-перезаписи.
func (f *Features) Filter() *Features {
	for rawKey, vals := range f.params {
		if _, skip := reserved[rawKey]; skip {
			continue
		}
		key, op := splitOperator(rawKey)
		if expr, ok := f.schema.FilterExprs[key]; ok && op == "" {
			for _, v := range vals {
				f.where(sq.Expr(expr, v))
			}
			continue
		}
		fld, ok := f.schema.Filterable[key]
		if !ok {
			continue // неизвестное поле игнорируем
		}
		for _, v := range vals {
			val, ok := convertValue(v, fld.Kind)
			if !ok {
				continue // значение не приводится к типу колонки
			}
			f.where(comparison(fld.Col, op, val))
		}
	}
	return f
}

// Search: полнотекстовое ограничение, семантика — на стороне индекса БД.
func (f *Features) Search() *Features {
	term := f.params.Get("search")
	if term == "" || f.schema.SearchExpr == "" {
		return f
	}
	f.where(sq.Expr(f.schema.SearchExpr, term))
	return f
}

// Sort: список полей через запятую, ведущий '-' — по убыванию.
// Без параметра — сортировка по умолчанию (новые сверху).
func (f *Features) Sort() *Features {
	var orders []string
	for _, field := range strings.Split(f.params.Get("sort"), ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		dir := "ASC"
		if strings.HasPrefix(field, "-") {
			dir = "DESC"
			field = field[1:]
		}
		if col, ok := f.schema.Sortable[field]; ok {
			orders = append(orders, col+" "+dir)
		}
	}
	if len(orders) == 0 {
		orders = []string{f.schema.DefaultSort}
	}
	f.sel = f.sel.OrderBy(orders...)
	return f
}

// LimitFields: проекция по списку fields; идентичность включается всегда.
func (f *Features) LimitFields() *Features {
	raw := f.params.Get("fields")
	if raw == "" {
		f.sel = f.sel.Columns(f.schema.DefaultColumns...)
		return f
	}

	seen := map[string]struct{}{}
	var jsonFields []string
	var cols []string
	add := func(field string) {
		col, ok := f.schema.Selectable[field]
		if !ok {
			return
		}
		if _, dup := seen[field]; dup {
			return
		}
		seen[field] = struct{}{}
		jsonFields = append(jsonFields, field)
		cols = append(cols, col)
	}
	for _, id := range f.schema.IdentityFields {
		add(id)
	}
	for _, field := range strings.Split(raw, ",") {
		add(strings.TrimSpace(field))
	}

	if len(cols) == 0 {
		f.sel = f.sel.Columns(f.schema.DefaultColumns...)
		return f
	}
	f.fields = jsonFields
	f.sel = f.sel.Columns(cols...)
	return f
}

// Paginate: page (с 1) и limit → OFFSET/LIMIT. Нечисловые значения — дефолты.
func (f *Features) Paginate() *Features {
	f.page = intParam(f.params.Get("page"), DefaultPage)
	f.limit = intParam(f.params.Get("limit"), DefaultLimit)
	if f.limit > MaxLimit {
		f.limit = MaxLimit
	}
	offset := (f.page - 1) * f.limit
	f.sel = f.sel.Offset(uint64(offset)).Limit(uint64(f.limit))
	return f
}

// Select — итоговый билдер выборки
func (f *Features) Select() sq.SelectBuilder { return f.sel }

// Count — билдер COUNT(*) под теми же фильтрами (без sort/limit)
func (f *Features) Count() sq.SelectBuilder { return f.count }

func (f *Features) Page() int  { return f.page }
func (f *Features) Limit() int { return f.limit }

// Fields — json-поля проекции; nil, если действует набор по умолчанию
func (f *Features) Fields() []string { return f.fields }

func (f *Features) where(cond sq.Sqlizer) {
	f.sel = f.sel.Where(cond)
	f.count = f.count.Where(cond)
}

// splitOperator выделяет скобочный суффикс: "views[gte]" -> ("views", "gte")
func splitOperator(key string) (field, op string) {
	open := strings.IndexByte(key, '[')
	if open <= 0 || !strings.HasSuffix(key, "]") {
		return key, ""
	}
	cand := key[open+1 : len(key)-1]
	switch cand {
	case "gte", "gt", "lte", "lt":
		return key[:open], cand
	}
	return key, ""
}

func comparison(col, op string, v any) sq.Sqlizer {
	switch op {
	case "gte":
		return sq.GtOrEq{col: v}
	case "gt":
		return sq.Gt{col: v}
	case "lte":
		return sq.LtOrEq{col: v}
	case "lt":
		return sq.Lt{col: v}
	default:
		return sq.Eq{col: v}
	}
}

// convertValue приводит строковый параметр к типу колонки.
// Непригодное значение отбрасывается вместе с фильтром.
func convertValue(s string, k FieldKind) (any, bool) {
	switch k {
	case KindInt:
		n, err := strconv.ParseInt(s, 10, 64)
		return n, err == nil
	case KindTime:
		t, err := time.Parse(time.RFC3339, s)
		return t, err == nil
	default:
		return s, true
	}
}

func intParam(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return def
	}
	return n
}

// PageLimit — page/limit из параметров без построения Features
// (нужно хендлерам для метаданных пагинации).
func PageLimit(params url.Values) (page, limit int) {
	page = intParam(params.Get("page"), DefaultPage)
	limit = intParam(params.Get("limit"), DefaultLimit)
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}
