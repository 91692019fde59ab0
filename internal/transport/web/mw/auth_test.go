package mw

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EgorLis/blog-api/internal/domain"
)

type fakeTokens struct {
	claims domain.TokenClaims
	err    error
	seen   string
}

func (f *fakeTokens) Issue(context.Context, domain.User) (domain.Token, domain.TokenClaims, error) {
	return "", domain.TokenClaims{}, errors.New("not implemented")
}

func (f *fakeTokens) Parse(_ context.Context, t domain.Token) (domain.TokenClaims, error) {
	f.seen = t
	return f.claims, f.err
}

type fakeBlacklist struct {
	revoked map[string]bool
}

func (f *fakeBlacklist) Revoke(_ context.Context, jti string, _ time.Time) error {
	if f.revoked == nil {
		f.revoked = map[string]bool{}
	}
	f.revoked[jti] = true
	return nil
}

func (f *fakeBlacklist) IsRevoked(_ context.Context, jti string) (bool, error) {
	return f.revoked[jti], nil
}

func validClaims() domain.TokenClaims {
	return domain.TokenClaims{
		JTI:    uuid.NewString(),
		UserID: uuid.New(),
		Email:  "ivan@example.com",
		Role:   domain.RoleUser,
	}
}

func TestRequireAuth_PutsUserInContext(t *testing.T) {
	tokens := &fakeTokens{claims: validClaims()}
	var got domain.User
	h := RequireAuth(AuthDeps{Tokens: tokens, Blacklist: &fakeBlacklist{}},
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := domain.UserFromCtx(r.Context())
			require.True(t, ok)
			got = u
			w.WriteHeader(http.StatusOK)
		}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/posts/my", nil)
	req.Header.Set("Authorization", "Bearer some.jwt.token")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "some.jwt.token", tokens.seen)
	assert.Equal(t, tokens.claims.UserID, got.ID)
	assert.Equal(t, tokens.claims.Email, got.Email)
	assert.Equal(t, tokens.claims.Role, got.Role)
}

func TestRequireAuth_MissingHeader(t *testing.T) {
	h := RequireAuth(AuthDeps{Tokens: &fakeTokens{claims: validClaims()}, Blacklist: &fakeBlacklist{}},
		http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			t.Fatal("handler must not run")
		}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/posts/my", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"not authenticated"}`, rec.Body.String())
}

func TestRequireAuth_BadScheme(t *testing.T) {
	h := RequireAuth(AuthDeps{Tokens: &fakeTokens{claims: validClaims()}, Blacklist: &fakeBlacklist{}},
		http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			t.Fatal("handler must not run")
		}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/posts/my", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuth_ParseError(t *testing.T) {
	tokens := &fakeTokens{err: errors.New("token is expired")}
	h := RequireAuth(AuthDeps{Tokens: tokens, Blacklist: &fakeBlacklist{}},
		http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			t.Fatal("handler must not run")
		}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/posts/my", nil)
	req.Header.Set("Authorization", "Bearer expired.jwt")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuth_RevokedToken(t *testing.T) {
	claims := validClaims()
	bl := &fakeBlacklist{}
	require.NoError(t, bl.Revoke(context.Background(), claims.JTI, time.Now().Add(time.Hour)))

	h := RequireAuth(AuthDeps{Tokens: &fakeTokens{claims: claims}, Blacklist: bl},
		http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			t.Fatal("handler must not run")
		}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/posts/my", nil)
	req.Header.Set("Authorization", "Bearer revoked.jwt")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestExtractBearer(t *testing.T) {
	assert.Equal(t, "abc", extractBearer("Bearer abc"))
	assert.Equal(t, "abc", extractBearer("bearer abc"))
	assert.Empty(t, extractBearer(""))
	assert.Empty(t, extractBearer("Bearer"))
	assert.Empty(t, extractBearer("Token abc"))
}
