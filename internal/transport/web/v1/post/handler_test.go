package post

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EgorLis/blog-api/internal/domain"
	"github.com/EgorLis/blog-api/internal/transport/web/mw"
)

var testLog = log.New(io.Discard, "", 0)

// fakePosts — PostsRepo в памяти
type fakePosts struct {
	posts map[domain.PostID]domain.Post

	lastList   domain.PostList
	listPage   domain.PostPage
	listErr    error
	authorPage domain.PostPage
}

func newFakePosts() *fakePosts {
	return &fakePosts{posts: map[domain.PostID]domain.Post{}}
}

func (f *fakePosts) CreatePost(_ context.Context, p domain.Post) (domain.Post, error) {
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	if p.Status == domain.StatusPublished {
		now := time.Now()
		p.PublishedAt = &now
	}
	f.posts[p.ID] = p
	return p, nil
}

func (f *fakePosts) PostByID(_ context.Context, id domain.PostID) (domain.Post, error) {
	p, ok := f.posts[id]
	if !ok {
		return domain.Post{}, domain.ErrNotFound
	}
	return p, nil
}

func (f *fakePosts) IncrementViews(_ context.Context, id domain.PostID) (domain.Post, error) {
	p, ok := f.posts[id]
	if !ok {
		return domain.Post{}, domain.ErrNotFound
	}
	p.Views++
	f.posts[id] = p
	return p, nil
}

func (f *fakePosts) PostsList(_ context.Context, l domain.PostList) (domain.PostPage, error) {
	f.lastList = l
	return f.listPage, f.listErr
}

func (f *fakePosts) PostsByAuthor(_ context.Context, author domain.UserID, _ url.Values) (domain.PostPage, error) {
	var items []domain.Post
	for _, p := range f.posts {
		if p.AuthorID == author {
			items = append(items, p)
		}
	}
	if f.authorPage.Items != nil {
		return f.authorPage, nil
	}
	return domain.PostPage{Items: items, Total: int64(len(items)), Page: 1, Limit: 10}, nil
}

func (f *fakePosts) PostUpdate(_ context.Context, id domain.PostID, patch domain.PostPatch) (domain.Post, error) {
	p, ok := f.posts[id]
	if !ok {
		return domain.Post{}, domain.ErrNotFound
	}
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.Content != nil {
		p.Content = *patch.Content
	}
	if patch.Status != nil {
		p.Status = *patch.Status
		if p.Status == domain.StatusPublished && p.PublishedAt == nil {
			now := time.Now()
			p.PublishedAt = &now
		}
	}
	if patch.Tags != nil {
		p.Tags = *patch.Tags
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	p.Version++
	p.UpdatedAt = time.Now()
	f.posts[id] = p
	return p, nil
}

func (f *fakePosts) PostDelete(_ context.Context, id domain.PostID) error {
	if _, ok := f.posts[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.posts, id)
	return nil
}

// fakeStore — минимальный CacheStore для проверки инвалидации
type fakeStore struct {
	data     map[string][]byte
	patterns []string
}

func newFakeStore() *fakeStore { return &fakeStore{data: map[string][]byte{}} }

func (f *fakeStore) Available() bool { return true }
func (f *fakeStore) Get(context.Context, string) ([]byte, error) {
	return nil, nil
}
func (f *fakeStore) Set(_ context.Context, key string, val []byte, _ int) error {
	f.data[key] = val
	return nil
}
func (f *fakeStore) Keys(_ context.Context, pattern string) ([]string, error) {
	f.patterns = append(f.patterns, pattern)
	out := make([]string, 0, len(f.data))
	for k := range f.data {
		out = append(out, k)
	}
	return out, nil
}
func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func newHandler(repo *fakePosts, store *fakeStore) *Handler {
	return &Handler{
		Log:   testLog,
		Posts: repo,
		Inv:   mw.Invalidator{Cache: store, Log: testLog},
	}
}

func asUser(req *http.Request, u domain.User) *http.Request {
	return req.WithContext(domain.WithUser(req.Context(), u))
}

func author() domain.User {
	return domain.User{ID: uuid.New(), Name: "ivan", Email: "ivan@example.com", Role: domain.RoleUser}
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) domain.APIEnvelope {
	t.Helper()
	var env domain.APIEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestCreate_SetsCallerAsAuthor(t *testing.T) {
	repo := newFakePosts()
	h := newHandler(repo, newFakeStore())
	me := author()

	body := `{"title":"Going with Go","content":"Long enough content here"}`
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/posts", strings.NewReader(body)), me)
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	env := decode(t, rec)
	assert.True(t, env.Success)

	require.Len(t, repo.posts, 1)
	for _, p := range repo.posts {
		assert.Equal(t, me.ID, p.AuthorID)
		// статус по умолчанию — черновик
		assert.Equal(t, domain.StatusDraft, p.Status)
		assert.Nil(t, p.PublishedAt)
	}
}

func TestCreate_ValidationErrors(t *testing.T) {
	h := newHandler(newFakePosts(), newFakeStore())

	body := `{"title":"abc","content":"short"}`
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/posts", strings.NewReader(body)), author())
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode(t, rec)
	assert.False(t, env.Success)
	require.NotEmpty(t, env.Errors)

	fields := make([]string, 0, len(env.Errors))
	for _, fe := range env.Errors {
		fields = append(fields, fe.Field)
	}
	// поля в ошибках именуются по json-тегам
	assert.Contains(t, fields, "title")
	assert.Contains(t, fields, "content")
}

func TestCreate_InvalidatesPostsCache(t *testing.T) {
	store := newFakeStore()
	store.data["cache:/api/v1/posts?page=1"] = []byte(`{}`)
	h := newHandler(newFakePosts(), store)

	body := `{"title":"Going with Go","content":"Long enough content here"}`
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/posts", strings.NewReader(body)), author())
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Empty(t, store.data)
	require.Len(t, store.patterns, 1)
	assert.Equal(t, domain.CachePostsNS, store.patterns[0])
}

func TestGetOne_IncrementsViews(t *testing.T) {
	repo := newFakePosts()
	h := newHandler(repo, newFakeStore())
	me := author()
	p, err := repo.CreatePost(context.Background(), domain.Post{
		Title: "Going with Go", Content: "Long enough content", AuthorID: me.ID,
		Status: domain.StatusPublished,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/posts/"+p.ID.String(), nil)
	req.SetPathValue("id", p.ID.String())
	rec := httptest.NewRecorder()
	h.GetOne(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), repo.posts[p.ID].Views)

	rec = httptest.NewRecorder()
	h.GetOne(rec, req)
	assert.Equal(t, int64(2), repo.posts[p.ID].Views)
}

func TestGetOne_ReturnsAuthorInfo(t *testing.T) {
	repo := newFakePosts()
	h := newHandler(repo, newFakeStore())
	me := author()
	p, err := repo.CreatePost(context.Background(), domain.Post{
		Title: "Going with Go", Content: "Long enough content", AuthorID: me.ID,
		Status: domain.StatusPublished,
	})
	require.NoError(t, err)
	// репозиторий подмешивает автора при чтении
	stored := repo.posts[p.ID]
	stored.Author = &domain.PostAuthor{Name: me.Name, Email: me.Email}
	repo.posts[p.ID] = stored

	req := httptest.NewRequest(http.MethodGet, "/api/v1/posts/"+p.ID.String(), nil)
	req.SetPathValue("id", p.ID.String())
	rec := httptest.NewRecorder()
	h.GetOne(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	env := decode(t, rec)
	data, ok := env.Data.(map[string]any)
	require.True(t, ok)
	info, ok := data["authorInfo"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, me.Name, info["name"])
	assert.Equal(t, me.Email, info["email"])
}

func TestGetOne_BadID(t *testing.T) {
	h := newHandler(newFakePosts(), newFakeStore())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/posts/not-a-uuid", nil)
	req.SetPathValue("id", "not-a-uuid")
	rec := httptest.NewRecorder()
	h.GetOne(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetOne_NotFound(t *testing.T) {
	h := newHandler(newFakePosts(), newFakeStore())

	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/posts/"+id, nil)
	req.SetPathValue("id", id)
	rec := httptest.NewRecorder()
	h.GetOne(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, decode(t, rec).Success)
}

func TestUpdate_ForbiddenForStranger(t *testing.T) {
	repo := newFakePosts()
	store := newFakeStore()
	h := newHandler(repo, store)
	p, err := repo.CreatePost(context.Background(), domain.Post{
		Title: "Going with Go", Content: "Long enough content", AuthorID: uuid.New(),
	})
	require.NoError(t, err)

	body := `{"title":"Hijacked title"}`
	req := asUser(httptest.NewRequest(http.MethodPut, "/api/v1/posts/"+p.ID.String(),
		strings.NewReader(body)), author())
	req.SetPathValue("id", p.ID.String())
	rec := httptest.NewRecorder()
	h.Update(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Going with Go", repo.posts[p.ID].Title)
	assert.Empty(t, store.patterns)
}

func TestUpdate_AdminAllowed(t *testing.T) {
	repo := newFakePosts()
	h := newHandler(repo, newFakeStore())
	p, err := repo.CreatePost(context.Background(), domain.Post{
		Title: "Going with Go", Content: "Long enough content", AuthorID: uuid.New(),
	})
	require.NoError(t, err)

	admin := domain.User{ID: uuid.New(), Role: domain.RoleAdmin}
	body := `{"status":"published"}`
	req := asUser(httptest.NewRequest(http.MethodPut, "/api/v1/posts/"+p.ID.String(),
		strings.NewReader(body)), admin)
	req.SetPathValue("id", p.ID.String())
	rec := httptest.NewRecorder()
	h.Update(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	updated := repo.posts[p.ID]
	assert.Equal(t, domain.StatusPublished, updated.Status)
	assert.NotNil(t, updated.PublishedAt)
	assert.Equal(t, int64(1), updated.Version)
}

func TestUpdate_EmptyPatchRejected(t *testing.T) {
	repo := newFakePosts()
	h := newHandler(repo, newFakeStore())
	me := author()
	p, err := repo.CreatePost(context.Background(), domain.Post{
		Title: "Going with Go", Content: "Long enough content", AuthorID: me.ID,
	})
	require.NoError(t, err)

	req := asUser(httptest.NewRequest(http.MethodPut, "/api/v1/posts/"+p.ID.String(),
		strings.NewReader(`{}`)), me)
	req.SetPathValue("id", p.ID.String())
	rec := httptest.NewRecorder()
	h.Update(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDelete_OwnerOnly(t *testing.T) {
	repo := newFakePosts()
	store := newFakeStore()
	store.data["cache:/api/v1/posts"] = []byte(`{}`)
	h := newHandler(repo, store)
	me := author()
	p, err := repo.CreatePost(context.Background(), domain.Post{
		Title: "Going with Go", Content: "Long enough content", AuthorID: me.ID,
	})
	require.NoError(t, err)

	// чужой — 403
	req := asUser(httptest.NewRequest(http.MethodDelete, "/api/v1/posts/"+p.ID.String(), nil), author())
	req.SetPathValue("id", p.ID.String())
	rec := httptest.NewRecorder()
	h.Delete(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Len(t, repo.posts, 1)

	// владелец — успех + инвалидация кеша
	req = asUser(httptest.NewRequest(http.MethodDelete, "/api/v1/posts/"+p.ID.String(), nil), me)
	req.SetPathValue("id", p.ID.String())
	rec = httptest.NewRecorder()
	h.Delete(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	env := decode(t, rec)
	assert.True(t, env.Success)
	assert.Equal(t, "post deleted successfully", env.Message)
	assert.Empty(t, repo.posts)
	assert.Empty(t, store.data)
}

func TestList_EnvelopeAndBaseFilter(t *testing.T) {
	repo := newFakePosts()
	repo.listPage = domain.PostPage{
		Items: []domain.Post{{ID: uuid.New(), Title: "a"}, {ID: uuid.New(), Title: "b"}},
		Total: 12, Page: 2, Limit: 2,
	}
	h := newHandler(repo, newFakeStore())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/posts?page=2&limit=2", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	// публичная выдача ограничена опубликованными
	assert.Equal(t, domain.StatusPublished, repo.lastList.Status)

	env := decode(t, rec)
	assert.True(t, env.Success)
	require.NotNil(t, env.Count)
	assert.Equal(t, 2, *env.Count)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, 2, env.Pagination.Page)
	assert.Equal(t, int64(12), env.Pagination.Total)
	assert.Equal(t, 6, env.Pagination.TotalPages)
	assert.True(t, env.Pagination.HasNextPage)
	assert.True(t, env.Pagination.HasPrevPage)
}

func TestList_ProjectionReturnsMaps(t *testing.T) {
	repo := newFakePosts()
	id := uuid.New()
	authorID := uuid.New()
	repo.listPage = domain.PostPage{
		Items:  []domain.Post{{ID: id, Title: "a", Content: "hidden", AuthorID: authorID, Views: 7}},
		Total:  1, Page: 1, Limit: 10,
		Fields: []string{"id", "author", "title", "views"},
	}
	h := newHandler(repo, newFakeStore())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/posts?fields=title,views", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var raw struct {
		Data []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	require.Len(t, raw.Data, 1)
	item := raw.Data[0]
	assert.Equal(t, id.String(), item["id"])
	assert.Equal(t, authorID.String(), item["author"])
	assert.Equal(t, "a", item["title"])
	assert.Equal(t, float64(7), item["views"])
	// невыбранные поля не попадают в выдачу
	assert.NotContains(t, item, "content")
	assert.NotContains(t, item, "status")
}

func TestMine_RequiresAuthAndReturnsOwn(t *testing.T) {
	repo := newFakePosts()
	h := newHandler(repo, newFakeStore())
	me := author()
	_, err := repo.CreatePost(context.Background(), domain.Post{
		Title: "Mine", Content: "Long enough content", AuthorID: me.ID,
	})
	require.NoError(t, err)
	_, err = repo.CreatePost(context.Background(), domain.Post{
		Title: "Foreign", Content: "Long enough content", AuthorID: uuid.New(),
	})
	require.NoError(t, err)

	// без пользователя в контексте — 401
	rec := httptest.NewRecorder()
	h.Mine(rec, httptest.NewRequest(http.MethodGet, "/api/v1/posts/my", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	h.Mine(rec, asUser(httptest.NewRequest(http.MethodGet, "/api/v1/posts/my", nil), me))
	require.Equal(t, http.StatusOK, rec.Code)
	env := decode(t, rec)
	require.NotNil(t, env.Count)
	assert.Equal(t, 1, *env.Count)
}
