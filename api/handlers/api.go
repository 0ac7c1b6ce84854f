package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/linesmerrill/police-case-api/api"
	"github.com/linesmerrill/police-case-api/config"
	"github.com/linesmerrill/police-case-api/models"
	"github.com/linesmerrill/police-case-api/notify"
	"github.com/linesmerrill/police-case-api/workflow"
)

// App stores the router and the services behind it, so it can be reused
type App struct {
	Router   *mux.Router
	Config   config.Config
	Engine   *workflow.Engine
	Hub      *notify.Hub
	Auth     *api.Authenticator
	Metrics  *api.HTTPMetrics
	Gatherer prometheus.Gatherer
	Jobs     JobRunner
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	r := mux.NewRouter()
	if a.Metrics != nil {
		r.Use(a.Metrics.Middleware)
	}

	c := Case{Engine: a.Engine}
	s := Suspect{Engine: a.Engine}
	pay := Payment{Engine: a.Engine, WebhookSecret: a.Config.StripeWebhookSecret}
	tip := Tip{Engine: a.Engine}
	board := Board{Engine: a.Engine}
	report := Report{Engine: a.Engine}
	n := Notification{Hub: a.Hub}

	// healthchex
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	gatherer := a.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods("GET")

	if a.Hub != nil {
		r.Handle("/ws", tokenFromQuery(a.Auth.Middleware(http.HandlerFunc(n.WebSocketHandler)))).Methods("GET")
	}

	if a.Jobs != nil {
		o := Ops{Jobs: a.Jobs}
		r.Handle("/ops/jobs/{job}", a.Auth.ServiceMiddleware(http.HandlerFunc(o.RunJobHandler))).Methods("POST")
	}

	apiCreate := r.PathPrefix("/api/v1").Subrouter()
	apiCreate.Use(api.TimeoutMiddleware(2 * api.QueryTimeout))
	secured := func(h http.HandlerFunc) http.Handler { return a.Auth.Middleware(h) }

	apiCreate.Handle("/complaints", secured(c.CreateComplaintHandler)).Methods("POST")
	apiCreate.Handle("/complaints/{case_id}", secured(c.ResubmitComplaintHandler)).Methods("PUT")
	apiCreate.Handle("/complaints/{case_id}/intern-review", secured(c.InternReviewHandler)).Methods("POST")
	apiCreate.Handle("/complaints/{case_id}/complainants/{complainant_id}/intern-review", secured(c.InternReviewComplainantHandler)).Methods("POST")
	apiCreate.Handle("/complaints/{case_id}/officer-review", secured(c.OfficerReviewHandler)).Methods("POST")

	apiCreate.Handle("/scenes", secured(c.CreateSceneHandler)).Methods("POST")
	apiCreate.Handle("/scenes/{case_id}/review", secured(c.ReviewSceneHandler)).Methods("POST")
	apiCreate.Handle("/scenes/{case_id}/complainants", secured(c.AddSceneComplainantHandler)).Methods("POST")

	apiCreate.Handle("/cases", secured(c.CasesHandler)).Methods("GET")
	apiCreate.Handle("/cases/{case_id}", secured(c.CaseSummaryHandler)).Methods("GET")
	apiCreate.Handle("/cases/{case_id}/logs", secured(c.CaseLogsHandler)).Methods("GET")
	apiCreate.Handle("/cases/{case_id}/take", secured(c.TakeCaseHandler)).Methods("POST")
	apiCreate.Handle("/cases/{case_id}/detective", secured(c.AssignDetectiveHandler)).Methods("PUT")

	apiCreate.Handle("/cases/{case_id}/suspects", secured(s.AddSuspectHandler)).Methods("POST")
	apiCreate.Handle("/cases/{case_id}/suspects/{suspect_id}/assessment", secured(s.AssessmentHandler)).Methods("PUT")
	apiCreate.Handle("/cases/{case_id}/suspect-submissions", secured(s.SubmitMainSuspectsHandler)).Methods("POST")
	apiCreate.Handle("/suspect-submissions/{submission_id}/review", secured(s.SergeantReviewHandler)).Methods("POST")
	apiCreate.Handle("/interrogations/{interrogation_id}/captain-decision", secured(s.CaptainDecisionHandler)).Methods("POST")
	apiCreate.Handle("/interrogations/{interrogation_id}/chief-review", secured(s.ChiefReviewHandler)).Methods("POST")
	apiCreate.Handle("/cases/{case_id}/verdict", secured(s.VerdictHandler)).Methods("POST")

	apiCreate.Handle("/cases/{case_id}/board", secured(board.BoardHandler)).Methods("GET")
	apiCreate.Handle("/cases/{case_id}/board/nodes", secured(board.AddNodeHandler)).Methods("POST")
	apiCreate.Handle("/cases/{case_id}/board/edges", secured(board.ConnectNodesHandler)).Methods("POST")
	apiCreate.Handle("/board/nodes/{node_id}/position", secured(board.MoveNodeHandler)).Methods("PUT")

	apiCreate.Handle("/payments", secured(pay.CreatePaymentHandler)).Methods("POST")
	apiCreate.Handle("/payments/{payment_id}/checkout", secured(pay.CheckoutHandler)).Methods("POST")
	// signed by Stripe, no bearer token
	apiCreate.Handle("/payments/webhook", http.HandlerFunc(pay.WebhookHandler)).Methods("POST")

	apiCreate.Handle("/tips", secured(tip.SubmitTipHandler)).Methods("POST")
	apiCreate.Handle("/tips/{tip_id}/officer-review", secured(tip.OfficerReviewTipHandler)).Methods("POST")
	apiCreate.Handle("/tips/{tip_id}/detective-review", secured(tip.DetectiveReviewTipHandler)).Methods("POST")
	apiCreate.Handle("/rewards/verify", secured(tip.VerifyClaimHandler)).Methods("POST")

	apiCreate.Handle("/reports/global", secured(report.GlobalReportHandler)).Methods("GET")
	apiCreate.Handle("/high-alert", http.HandlerFunc(report.HighAlertHandler)).Methods("GET")

	return r
}

// Initialize builds the router from the services already set on the App
func (a *App) Initialize() {
	a.Router = a.New()
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}
