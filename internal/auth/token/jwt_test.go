package token

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EgorLis/blog-api/internal/domain"
)

func testUser() domain.User {
	return domain.User{
		ID:    uuid.New(),
		Name:  "ivan",
		Email: "ivan@example.com",
		Role:  domain.RoleAdmin,
	}
}

func TestIssueParse_Roundtrip(t *testing.T) {
	m := New("test-secret", "blog-api", time.Hour)
	ctx := context.Background()
	u := testUser()

	raw, issued, err := m.Issue(ctx, u)
	require.NoError(t, err)
	require.NotEmpty(t, raw)
	require.NotEmpty(t, issued.JTI)

	parsed, err := m.Parse(ctx, raw)
	require.NoError(t, err)

	assert.Equal(t, issued.JTI, parsed.JTI)
	assert.Equal(t, u.ID, parsed.UserID)
	assert.Equal(t, u.Email, parsed.Email)
	assert.Equal(t, domain.RoleAdmin, parsed.Role)
	assert.WithinDuration(t, time.Now().Add(time.Hour), parsed.ExpiresAt, time.Minute)
}

func TestParse_WrongSecret(t *testing.T) {
	ctx := context.Background()
	raw, _, err := New("secret-a", "blog-api", time.Hour).Issue(ctx, testUser())
	require.NoError(t, err)

	_, err = New("secret-b", "blog-api", time.Hour).Parse(ctx, raw)
	assert.Error(t, err)
}

func TestParse_Expired(t *testing.T) {
	ctx := context.Background()
	m := New("test-secret", "blog-api", -time.Minute)

	raw, _, err := m.Issue(ctx, testUser())
	require.NoError(t, err)

	_, err = m.Parse(ctx, raw)
	assert.Error(t, err)
}

func TestParse_Garbage(t *testing.T) {
	m := New("test-secret", "blog-api", time.Hour)
	_, err := m.Parse(context.Background(), "not.a.token")
	assert.Error(t, err)
}

func TestIssue_UniqueJTI(t *testing.T) {
	m := New("test-secret", "blog-api", time.Hour)
	ctx := context.Background()
	u := testUser()

	_, a, err := m.Issue(ctx, u)
	require.NoError(t, err)
	_, b, err := m.Issue(ctx, u)
	require.NoError(t, err)

	assert.NotEqual(t, a.JTI, b.JTI)
}
