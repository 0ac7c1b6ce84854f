package api

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/linesmerrill/police-case-api/models"
)

// Claims are the identity claims issued by the identity provider
type Claims struct {
	Roles      []string `json:"roles"`
	NationalID string   `json:"nationalId,omitempty"`
	Superuser  bool     `json:"superuser,omitempty"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 token for actor, valid for ttl
func IssueToken(secret []byte, actor models.Actor, ttl time.Duration) (string, error) {
	roles := make([]string, 0, len(actor.Roles))
	for _, r := range actor.Roles {
		roles = append(roles, string(r))
	}
	now := time.Now()
	claims := Claims{
		Roles:      roles,
		NationalID: actor.NationalID,
		Superuser:  actor.IsSuperuser,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(actor.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseToken verifies an HS256 token and returns the actor it names.
// Unknown roles are rejected rather than ignored.
func ParseToken(secret []byte, token string) (models.Actor, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return models.Actor{}, fmt.Errorf("failed to parse token, %w", err)
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return models.Actor{}, errors.New("token subject is not a user id")
	}
	actor := models.Actor{ID: id, NationalID: claims.NationalID, IsSuperuser: claims.Superuser}
	for _, name := range claims.Roles {
		role, ok := models.ParseRole(name)
		if !ok {
			return models.Actor{}, fmt.Errorf("token names unknown role %q", name)
		}
		actor.Roles = append(actor.Roles, role)
	}
	return actor, nil
}
