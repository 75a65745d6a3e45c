package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/sailboard/dashboard/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSession() *core.Session {
	return &core.Session{
		Token: "opaque-token",
		User:  core.User{ID: "1", Name: "Ada", Email: "ada@example.com", Role: "admin"},
	}
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "1",
		"exp": exp.Unix(),
	})
	s, err := tok.SignedString([]byte("secret"))
	require.NoError(t, err)
	return s
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	s := NewMemoryStore()

	got, err := s.Load()
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, s.Save(testSession()))
	got, err = s.Load()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "opaque-token", got.Token)
	assert.True(t, got.IsAdmin())

	require.NoError(t, s.Clear())
	got, err = s.Load()
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryStore_SaveNil(t *testing.T) {
	assert.Error(t, NewMemoryStore().Save(nil))
}

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	s := NewFileStore(path)

	got, err := s.Load()
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, s.Save(testSession()))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err = s.Load()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "ada@example.com", got.User.Email)

	require.NoError(t, s.Clear())
	require.NoError(t, s.Clear(), "clearing twice is not an error")

	got, err = s.Load()
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewFileStore(path).Load()
	assert.Error(t, err)
}

func TestExpired(t *testing.T) {
	now := time.Now()

	past := &core.Session{Token: signedToken(t, now.Add(-time.Hour))}
	future := &core.Session{Token: signedToken(t, now.Add(time.Hour))}

	assert.True(t, Expired(past, now))
	assert.False(t, Expired(future, now))
	assert.False(t, Expired(testSession(), now), "opaque tokens never expire client-side")
	assert.False(t, Expired(nil, now))
}

func TestExpiresAt(t *testing.T) {
	exp := time.Unix(1_900_000_000, 0)
	got, ok := ExpiresAt(signedToken(t, exp))
	require.True(t, ok)
	assert.Equal(t, exp.Unix(), got.Unix())

	_, ok = ExpiresAt("not-a-jwt")
	assert.False(t, ok)
}
