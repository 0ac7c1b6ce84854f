package handlers

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/linesmerrill/police-case-api/api"
	"github.com/linesmerrill/police-case-api/api/scheduler"
	"github.com/linesmerrill/police-case-api/config"
	"github.com/linesmerrill/police-case-api/databases"
	"github.com/linesmerrill/police-case-api/models"
	"github.com/linesmerrill/police-case-api/notify"
	"github.com/linesmerrill/police-case-api/workflow"
)

const testSecret = "test-secret"

type fakeJobs struct {
	affected int
	err      error
}

func (f fakeJobs) RunJob(_ context.Context, name string) (bool, int, error) {
	if name != scheduler.JobExpireStalePayments {
		return false, 0, scheduler.ErrUnknownJob
	}
	return true, f.affected, f.err
}

func newTestApp(t *testing.T, jobs JobRunner) *App {
	t.Helper()
	return newTestAppWith(t, jobs, workflow.Options{Logger: zap.NewNop()})
}

func newTestAppWith(t *testing.T, jobs JobRunner, opts workflow.Options) *App {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	reg := prometheus.NewRegistry()
	a := &App{
		Config:   config.Config{StripeWebhookSecret: "whsec_test"},
		Engine:   workflow.New(databases.NewMemoryStore(), opts),
		Hub:      notify.NewHub(),
		Auth:     api.NewAuthenticator(ctx, testSecret, "ops", string(hash)),
		Metrics:  api.NewHTTPMetrics(reg),
		Gatherer: reg,
		Jobs:     jobs,
	}
	a.Initialize()
	return a
}

func executeRequest(a *App, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	a.Router.ServeHTTP(rr, req)
	return rr
}

func checkResponseCode(t *testing.T, expected, actual int) {
	t.Helper()
	if expected != actual {
		t.Errorf("Expected response code %d. Got %d\n", expected, actual)
	}
}

func bearer(t *testing.T, id int64, roles ...models.Role) string {
	t.Helper()
	token, err := api.IssueToken([]byte(testSecret), models.Actor{ID: id, NationalID: "0000000001", Roles: roles}, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func errorBody(t *testing.T, rr *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var m models.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &m))
	return m
}

func TestUnknownRoute(t *testing.T) {
	a := newTestApp(t, nil)
	req, _ := http.NewRequest("GET", "/asdf", nil)
	response := executeRequest(a, req)

	checkResponseCode(t, http.StatusNotFound, response.Code)
}

func TestHealthCheckRoute(t *testing.T) {
	a := newTestApp(t, nil)
	req, _ := http.NewRequest("GET", "/health", nil)
	response := executeRequest(a, req)

	checkResponseCode(t, http.StatusOK, response.Code)
	if !strings.Contains(response.Body.String(), "alive") {
		t.Errorf("Expected 'alive' in the reponse. Got '%s'", response.Body.String())
	}
}

func TestApp_ComplaintUnauthorized(t *testing.T) {
	a := newTestApp(t, nil)
	req, _ := http.NewRequest("POST", "/api/v1/complaints", strings.NewReader(`{}`))
	response := executeRequest(a, req)
	checkResponseCode(t, http.StatusUnauthorized, response.Code)

	req, _ = http.NewRequest("POST", "/api/v1/complaints", strings.NewReader(`{}`))
	req.Header.Add("Authorization", "Bearer asdfasdf")
	response = executeRequest(a, req)
	checkResponseCode(t, http.StatusUnauthorized, response.Code)
}

func TestApp_CreateComplaint(t *testing.T) {
	a := newTestApp(t, nil)
	req, _ := http.NewRequest("POST", "/api/v1/complaints",
		strings.NewReader(`{"title":"Stolen bike","description":"taken from the yard","severity":1}`))
	req.Header.Add("Authorization", bearer(t, 1, models.RoleComplainant))
	response := executeRequest(a, req)

	checkResponseCode(t, http.StatusCreated, response.Code)
	var cs models.Case
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &cs))
	assert.Equal(t, models.CaseUnderReview, cs.Details.Status)
	assert.Equal(t, int64(1), cs.Details.CreatedBy)
	assert.NotEmpty(t, response.Header().Get("X-Request-ID"))
}

func TestApp_RejectsUnknownFields(t *testing.T) {
	a := newTestApp(t, nil)
	req, _ := http.NewRequest("POST", "/api/v1/complaints", strings.NewReader(`{"title":"x","bogus":true}`))
	req.Header.Add("Authorization", bearer(t, 1, models.RoleComplainant))
	response := executeRequest(a, req)

	checkResponseCode(t, http.StatusBadRequest, response.Code)
	assert.Equal(t, "validation_error", errorBody(t, response).Error)
}

func TestApp_ErrorKinds(t *testing.T) {
	a := newTestApp(t, nil)
	tests := []struct {
		name   string
		method string
		path   string
		body   string
		auth   string
		status int
		kind   string
	}{
		{"denied", "POST", "/api/v1/scenes", `{"title":"Fire","severity":2}`, bearer(t, 10, models.RoleCadet), http.StatusForbidden, "permission_denied"},
		{"missing case", "GET", "/api/v1/cases/999", "", bearer(t, 60, models.RoleChief), http.StatusNotFound, "not_found"},
		{"bad id", "GET", "/api/v1/cases/abc", "", bearer(t, 60, models.RoleChief), http.StatusBadRequest, "validation_error"},
		{"invalid input", "POST", "/api/v1/scenes", `{"title":"","severity":2}`, bearer(t, 60, models.RoleChief), http.StatusBadRequest, "validation_error"},
		{"dashboard denied", "GET", "/api/v1/reports/global", "", bearer(t, 10, models.RoleCadet), http.StatusForbidden, "permission_denied"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			req.Header.Add("Authorization", tt.auth)
			response := executeRequest(a, req)

			checkResponseCode(t, tt.status, response.Code)
			assert.Equal(t, tt.kind, errorBody(t, response).Error)
		})
	}
}

func TestApp_SceneThenTake(t *testing.T) {
	a := newTestApp(t, nil)
	req, _ := http.NewRequest("POST", "/api/v1/scenes", strings.NewReader(`{"title":"Bank robbery","severity":3}`))
	req.Header.Add("Authorization", bearer(t, 60, models.RoleChief))
	response := executeRequest(a, req)
	checkResponseCode(t, http.StatusCreated, response.Code)

	req, _ = http.NewRequest("POST", "/api/v1/cases/1/take", nil)
	req.Header.Add("Authorization", bearer(t, 30, models.RoleDetective))
	response = executeRequest(a, req)
	checkResponseCode(t, http.StatusOK, response.Code)

	req, _ = http.NewRequest("POST", "/api/v1/cases/1/take", nil)
	req.Header.Add("Authorization", bearer(t, 31, models.RoleDetective))
	response = executeRequest(a, req)
	checkResponseCode(t, http.StatusConflict, response.Code)

	req, _ = http.NewRequest("GET", "/api/v1/cases/1/logs", nil)
	req.Header.Add("Authorization", bearer(t, 50, models.RoleCaptain))
	response = executeRequest(a, req)
	checkResponseCode(t, http.StatusOK, response.Code)
	var logs []models.CaseLog
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &logs))
	assert.Len(t, logs, 2)
}

func TestApp_WebhookRejectsBadSignature(t *testing.T) {
	a := newTestApp(t, nil)
	req, _ := http.NewRequest("POST", "/api/v1/payments/webhook", strings.NewReader(`{"type":"checkout.session.completed"}`))
	req.Header.Add("Stripe-Signature", "t=1,v1=bad")
	response := executeRequest(a, req)

	checkResponseCode(t, http.StatusBadRequest, response.Code)
	assert.Equal(t, "validation_error", errorBody(t, response).Error)
}

type stubGateway struct{}

func (stubGateway) StartCheckout(_ context.Context, payment models.BailPayment) (workflow.Checkout, error) {
	return workflow.Checkout{Authority: fmt.Sprintf("cs_%d", payment.ID), RedirectURL: "https://checkout.example"}, nil
}

func signedWebhook(t *testing.T, payload string) *http.Request {
	t.Helper()
	now := time.Now()
	sig := webhook.ComputeSignature(now, []byte(payload), "whsec_test")
	req, _ := http.NewRequest("POST", "/api/v1/payments/webhook", strings.NewReader(payload))
	req.Header.Add("Stripe-Signature", fmt.Sprintf("t=%d,v1=%s", now.Unix(), hex.EncodeToString(sig)))
	return req
}

func TestApp_WebhookAcknowledgesExpiredPayment(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	a := newTestAppWith(t, nil, workflow.Options{
		Clock:   func() time.Time { return now },
		Gateway: stubGateway{},
		Logger:  zap.NewNop(),
	})
	ctx := context.Background()
	as := func(id int64, role models.Role) workflow.Principal {
		return workflow.Resolve(models.Actor{ID: id, NationalID: fmt.Sprintf("%010d", id), Roles: []models.Role{role}})
	}
	person := int64(77)

	cs, err := a.Engine.FormSceneCase(ctx, as(60, models.RoleChief), workflow.SceneInput{Title: "Robbery", Severity: models.SeverityLevel2})
	require.NoError(t, err)
	_, err = a.Engine.DetectiveTakeCase(ctx, as(30, models.RoleDetective), cs.ID)
	require.NoError(t, err)
	s, err := a.Engine.AddSuspect(ctx, as(30, models.RoleDetective), cs.ID, workflow.SuspectInput{FullName: "John Doe", NationalID: "9990001112", PersonID: &person})
	require.NoError(t, err)
	sub, err := a.Engine.SubmitMainSuspects(ctx, as(30, models.RoleDetective), cs.ID, []int64{s.ID}, "seen on camera")
	require.NoError(t, err)
	_, err = a.Engine.SergeantReview(ctx, as(40, models.RoleSergeant), sub.ID, true, "agreed")
	require.NoError(t, err)
	pay, err := a.Engine.CreatePayment(ctx, as(40, models.RoleSergeant), workflow.PaymentInput{CaseID: cs.ID, SuspectID: s.ID, Amount: 5000})
	require.NoError(t, err)
	_, _, err = a.Engine.StartGateway(ctx, as(person, models.RoleBaseUser), pay.ID)
	require.NoError(t, err)

	now = now.Add(25 * time.Hour)
	n, err := a.Engine.ExpireStalePayments(ctx, 24*time.Hour)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	response := executeRequest(a, signedWebhook(t, fmt.Sprintf(
		`{"id":"evt_1","object":"event","type":"checkout.session.completed","data":{"object":{"id":"cs_1","object":"checkout.session","client_reference_id":"%d","payment_status":"paid","payment_intent":"pi_late"}}}`,
		pay.ID)))
	checkResponseCode(t, http.StatusOK, response.Code)
	assert.Contains(t, response.Body.String(), `"status":"expired"`)

	summary, err := a.Engine.CaseSummary(ctx, workflow.System, cs.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentFailed, summary.Payments[0].Details.Status)
	assert.Equal(t, workflow.ExpiredRef, summary.Payments[0].Details.PaymentRef)
}

func TestApp_HighAlertIsPublic(t *testing.T) {
	a := newTestApp(t, nil)
	req, _ := http.NewRequest("GET", "/api/v1/high-alert", nil)
	response := executeRequest(a, req)

	checkResponseCode(t, http.StatusOK, response.Code)
	assert.JSONEq(t, `[]`, response.Body.String())
}

func TestApp_WebSocketRequiresToken(t *testing.T) {
	a := newTestApp(t, nil)
	req, _ := http.NewRequest("GET", "/ws", nil)
	response := executeRequest(a, req)

	checkResponseCode(t, http.StatusUnauthorized, response.Code)
}

func TestApp_RunJob(t *testing.T) {
	a := newTestApp(t, fakeJobs{affected: 3})

	req, _ := http.NewRequest("POST", "/ops/jobs/expire_stale_payments", nil)
	response := executeRequest(a, req)
	checkResponseCode(t, http.StatusUnauthorized, response.Code)

	req, _ = http.NewRequest("POST", "/ops/jobs/expire_stale_payments", nil)
	req.SetBasicAuth("ops", "hunter2")
	response = executeRequest(a, req)
	checkResponseCode(t, http.StatusOK, response.Code)
	assert.JSONEq(t, `{"job":"expire_stale_payments","ran":true,"affected":3}`, response.Body.String())

	req, _ = http.NewRequest("POST", "/ops/jobs/reindex", nil)
	req.SetBasicAuth("ops", "hunter2")
	response = executeRequest(a, req)
	checkResponseCode(t, http.StatusNotFound, response.Code)
}

func TestApp_RunJobFailure(t *testing.T) {
	a := newTestApp(t, fakeJobs{err: errors.New("lock database unavailable")})
	req, _ := http.NewRequest("POST", "/ops/jobs/expire_stale_payments", nil)
	req.SetBasicAuth("ops", "hunter2")
	response := executeRequest(a, req)

	checkResponseCode(t, http.StatusInternalServerError, response.Code)
}

func TestApp_MetricsEndpoint(t *testing.T) {
	a := newTestApp(t, nil)
	req, _ := http.NewRequest("GET", "/api/v1/high-alert", nil)
	executeRequest(a, req)

	req, _ = http.NewRequest("GET", "/metrics", nil)
	response := executeRequest(a, req)
	checkResponseCode(t, http.StatusOK, response.Code)
	assert.Contains(t, response.Body.String(), `police_case_http_requests_total{code="200",method="GET",route="/api/v1/high-alert"} 1`)
}
