package api

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/shaj13/go-guardian/auth"
	"github.com/shaj13/go-guardian/auth/strategies/basic"
	"github.com/shaj13/go-guardian/auth/strategies/bearer"
	"github.com/shaj13/go-guardian/store"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/linesmerrill/police-case-api/models"
	"github.com/linesmerrill/police-case-api/workflow"
)

const (
	extNationalID = "nationalId"
	extSuperuser  = "superuser"

	// tokens are re-verified after this long even if still cached
	tokenCacheTTL = 10 * time.Minute
)

// Authenticator verifies bearer tokens issued by the identity provider and
// the basic-auth service account used by operators
type Authenticator struct {
	guardian     auth.Authenticator
	cache        store.Cache
	secret       []byte
	serviceUser  string
	servicePHash []byte
}

// NewAuthenticator wires the go-guardian strategies. An empty serviceUser
// disables the service account.
func NewAuthenticator(ctx context.Context, jwtSecret, serviceUser, servicePasswordHash string) *Authenticator {
	a := &Authenticator{
		guardian:     auth.New(),
		cache:        store.NewFIFO(ctx, tokenCacheTTL),
		secret:       []byte(jwtSecret),
		serviceUser:  serviceUser,
		servicePHash: []byte(servicePasswordHash),
	}
	a.guardian.EnableStrategy(bearer.CachedStrategyKey, bearer.New(a.validateToken, a.cache))
	a.guardian.EnableStrategy(basic.StrategyKey, basic.New(a.validateServiceAccount, a.cache))
	return a
}

func (a *Authenticator) validateToken(_ context.Context, _ *http.Request, token string) (auth.Info, error) {
	actor, err := ParseToken(a.secret, token)
	if err != nil {
		return nil, err
	}
	groups := make([]string, 0, len(actor.Roles))
	for _, r := range actor.Roles {
		groups = append(groups, string(r))
	}
	id := strconv.FormatInt(actor.ID, 10)
	return auth.NewDefaultUser(id, id, groups, map[string][]string{
		extNationalID: {actor.NationalID},
		extSuperuser:  {strconv.FormatBool(actor.IsSuperuser)},
	}), nil
}

func (a *Authenticator) validateServiceAccount(_ context.Context, _ *http.Request, username, password string) (auth.Info, error) {
	if a.serviceUser == "" || len(a.servicePHash) == 0 {
		return nil, errors.New("service account disabled")
	}
	usernameHash := sha256.Sum256([]byte(username))
	expectedUsernameHash := sha256.Sum256([]byte(a.serviceUser))
	usernameMatch := subtle.ConstantTimeCompare(usernameHash[:], expectedUsernameHash[:]) == 1

	if err := bcrypt.CompareHashAndPassword(a.servicePHash, []byte(password)); err != nil {
		return nil, fmt.Errorf("failed to compare password")
	}
	if !usernameMatch {
		return nil, fmt.Errorf("invalid credentials")
	}
	return auth.NewDefaultUser(username, "0", nil, nil), nil
}

// actorFromInfo rebuilds the actor from a cached bearer identity
func actorFromInfo(info auth.Info) (models.Actor, error) {
	id, err := strconv.ParseInt(info.ID(), 10, 64)
	if err != nil {
		return models.Actor{}, fmt.Errorf("bad user id %q", info.ID())
	}
	actor := models.Actor{ID: id}
	for _, g := range info.Groups() {
		role, ok := models.ParseRole(g)
		if !ok {
			return models.Actor{}, fmt.Errorf("unknown role %q", g)
		}
		actor.Roles = append(actor.Roles, role)
	}
	ext := info.Extensions()
	if v := ext[extNationalID]; len(v) > 0 {
		actor.NationalID = v[0]
	}
	if v := ext[extSuperuser]; len(v) > 0 {
		actor.IsSuperuser = v[0] == "true"
	}
	return actor, nil
}

func unauthorized(w http.ResponseWriter, r *http.Request, err error) {
	zap.S().Debugw("unauthorized", "url", r.URL, "error", err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error": "unauthorized"}`))
}

// Middleware authenticates the bearer token and stores the resolved
// principal in the request context
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info, err := a.guardian.Strategy(bearer.CachedStrategyKey).Authenticate(r.Context(), r)
		if err != nil {
			unauthorized(w, r, err)
			return
		}
		actor, err := actorFromInfo(info)
		if err != nil {
			unauthorized(w, r, err)
			return
		}
		zap.S().Debugf("User %s Authenticated", info.UserName())
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), workflow.Resolve(actor))))
	})
}

// ServiceMiddleware admits only the basic-auth service account. Requests run
// as the system principal.
func (a *Authenticator) ServiceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info, err := a.guardian.Strategy(basic.StrategyKey).Authenticate(r.Context(), r)
		if err != nil {
			unauthorized(w, r, err)
			return
		}
		zap.S().Infow("service account authenticated", "user", info.UserName(), "path", r.URL.Path)
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), workflow.System)))
	})
}
