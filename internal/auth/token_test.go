package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/lshigami/Assessa/internal/apperror"
	"github.com/lshigami/Assessa/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testUser() *model.User {
	return &model.User{ID: 7, Name: "Alice", Email: "alice@example.com", Role: model.RoleHR}
}

func TestIssueAndVerify(t *testing.T) {
	m := newTokenManager("secret", time.Hour)

	token, err := m.Issue(testUser())
	require.NoError(t, err)

	claims, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "Alice", claims.Name)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.True(t, claims.IsHR())
	assert.False(t, claims.IsCandidate())
}

func TestVerify_Expired(t *testing.T) {
	m := newTokenManager("secret", time.Hour)
	issuedAt := time.Now().Add(-2 * time.Hour)
	m.now = func() time.Time { return issuedAt }
	token, err := m.Issue(testUser())
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.Verify(token)
	assert.True(t, apperror.Is(err, apperror.KindUnauthorized))
}

func TestVerify_WrongSecret(t *testing.T) {
	token, err := newTokenManager("one", time.Hour).Issue(testUser())
	require.NoError(t, err)

	_, err = newTokenManager("two", time.Hour).Verify(token)
	assert.True(t, apperror.Is(err, apperror.KindUnauthorized))
}

func TestVerify_Garbage(t *testing.T) {
	m := newTokenManager("secret", time.Hour)
	for _, raw := range []string{"", "not-a-token", "a.b.c"} {
		_, err := m.Verify(raw)
		assert.True(t, apperror.Is(err, apperror.KindUnauthorized), raw)
	}
}

func TestVerify_RejectsUnknownRole(t *testing.T) {
	claims := jwt.MapClaims{
		"userId": 1,
		"role":   "admin",
		"exp":    time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = newTokenManager("secret", time.Hour).Verify(token)
	assert.True(t, apperror.Is(err, apperror.KindUnauthorized))
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret!", hash)

	ok, err := CheckPassword(hash, "s3cret!")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = CheckPassword(hash, "wrong")
	require.NoError(t, err)
	assert.False(t, ok)
}
