package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/linesmerrill/police-case-api/models"
	"github.com/linesmerrill/police-case-api/workflow"
)

func newTestAuthenticator(t *testing.T) *Authenticator {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return NewAuthenticator(ctx, string(testSecret), "ops", string(hash))
}

func principalEcho(got *workflow.Principal) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFromContext(r.Context())
		if ok {
			*got = p
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestMiddleware_BearerToken(t *testing.T) {
	a := newTestAuthenticator(t)
	actor := models.Actor{ID: 9, NationalID: "0011223344", Roles: []models.Role{models.RoleSergeant}}
	token, err := IssueToken(testSecret, actor, time.Hour)
	require.NoError(t, err)

	var got workflow.Principal
	h := a.Middleware(principalEcho(&got))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/cases", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		require.Equal(t, http.StatusNoContent, rr.Code)
	}
	assert.Equal(t, int64(9), got.ID())
	assert.Equal(t, "0011223344", got.Actor.NationalID)
	assert.True(t, got.HasRole(models.RoleSergeant))
	assert.True(t, got.Can(workflow.CapReadAll))
	assert.False(t, got.Superuser())
}

func TestMiddleware_Unauthorized(t *testing.T) {
	a := newTestAuthenticator(t)
	h := a.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	for _, header := range []string{"", "Bearer nope", "Basic b3BzOmh1bnRlcjI="} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/cases", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code, header)
		assert.JSONEq(t, `{"error": "unauthorized"}`, rr.Body.String())
	}
}

func TestServiceMiddleware(t *testing.T) {
	a := newTestAuthenticator(t)
	var got workflow.Principal
	h := a.ServiceMiddleware(principalEcho(&got))

	req := httptest.NewRequest(http.MethodPost, "/ops/jobs/x", nil)
	req.SetBasicAuth("ops", "hunter2")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusNoContent, rr.Code)
	assert.True(t, got.Superuser())

	req = httptest.NewRequest(http.MethodPost, "/ops/jobs/x", nil)
	req.SetBasicAuth("ops", "wrong")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestServiceMiddleware_Disabled(t *testing.T) {
	a := NewAuthenticator(context.Background(), string(testSecret), "", "")
	h := a.ServiceMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))
	req := httptest.NewRequest(http.MethodPost, "/ops/jobs/x", nil)
	req.SetBasicAuth("", "")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestHTTPMetrics_Middleware(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)

	r := mux.NewRouter()
	r.Use(m.Middleware)
	r.HandleFunc("/api/v1/cases/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"1", "2"} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/cases/"+id, nil))
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
	}
	assert.Equal(t, float64(2), testutil.ToFloat64(m.requests.WithLabelValues("/api/v1/cases/{id}", http.MethodGet, "404")))
}

func TestTimeoutMiddleware(t *testing.T) {
	var deadline time.Time
	h := TimeoutMiddleware(50 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deadline, _ = r.Context().Deadline()
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, deadline.IsZero())
}

func TestWithQueryTimeout(t *testing.T) {
	ctx, cancel := WithQueryTimeout(context.Background())
	defer cancel()
	deadline, ok := ctx.Deadline()
	assert.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(QueryTimeout), deadline, time.Second)
}
