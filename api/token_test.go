package api

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linesmerrill/police-case-api/models"
)

var testSecret = []byte("test-secret")

func TestIssueAndParseToken(t *testing.T) {
	actor := models.Actor{ID: 42, NationalID: "1234567890", Roles: []models.Role{models.RoleDetective, models.RoleBaseUser}}
	token, err := IssueToken(testSecret, actor, time.Hour)
	require.NoError(t, err)

	got, err := ParseToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, actor, got)
}

func TestParseToken_Rejects(t *testing.T) {
	actor := models.Actor{ID: 7, Roles: []models.Role{models.RoleChief}}

	expired, err := IssueToken(testSecret, actor, -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken(testSecret, expired)
	assert.Error(t, err)

	other, err := IssueToken([]byte("other"), actor, time.Hour)
	require.NoError(t, err)
	_, err = ParseToken(testSecret, other)
	assert.Error(t, err)

	unknownRole := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Roles: []string{"mayor"},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "7",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := unknownRole.SignedString(testSecret)
	require.NoError(t, err)
	_, err = ParseToken(testSecret, signed)
	assert.EqualError(t, err, `token names unknown role "mayor"`)

	_, err = ParseToken(testSecret, "garbage")
	assert.Error(t, err)
}
