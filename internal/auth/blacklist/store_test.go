package blacklist

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeKV struct {
	data map[string]int // key -> ttl seconds
}

func (f *fakeKV) SetNX(_ context.Context, key string, _ []byte, ttlSeconds int) (bool, error) {
	if f.data == nil {
		f.data = map[string]int{}
	}
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	f.data[key] = ttlSeconds
	return true, nil
}

func (f *fakeKV) Exists(_ context.Context, key string) (bool, error) {
	_, ok := f.data[key]
	return ok, nil
}

func TestRevokeIsRevoked(t *testing.T) {
	kv := &fakeKV{}
	s := NewStore(kv, "jti:")
	ctx := context.Background()

	revoked, err := s.IsRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, s.Revoke(ctx, "abc", time.Now().Add(time.Hour)))

	revoked, err = s.IsRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, revoked)

	// TTL не длиннее срока жизни токена
	ttl := kv.data["jti:abc"]
	assert.Greater(t, ttl, 3500)
	assert.LessOrEqual(t, ttl, 3600)
}

func TestRevoke_ExpiredTokenStillStored(t *testing.T) {
	kv := &fakeKV{}
	s := NewStore(kv, "jti:")

	require.NoError(t, s.Revoke(context.Background(), "old", time.Now().Add(-time.Hour)))

	// отрицательный TTL заменяется минимальным положительным
	assert.Equal(t, 60, kv.data["jti:old"])
}

func TestNewStore_DefaultPrefix(t *testing.T) {
	kv := &fakeKV{}
	s := NewStore(kv, "")

	require.NoError(t, s.Revoke(context.Background(), "abc", time.Now().Add(time.Hour)))
	assert.Contains(t, kv.data, "jti:abc")
}
