package handlers

import (
	"net/http"

	"github.com/linesmerrill/police-case-api/api"
	"github.com/linesmerrill/police-case-api/models"
	"github.com/linesmerrill/police-case-api/workflow"
)

// Case serves case formation, complaint review and case reads
type Case struct {
	Engine *workflow.Engine
}

// CreateComplaintHandler opens a complaint case for the caller
func (c Case) CreateComplaintHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var in workflow.ComplaintInput
	if !decode(w, r, &in) {
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	cs, err := c.Engine.FormComplaintCase(ctx, p, in)
	if err != nil {
		writeError(w, err, "failed to form complaint case")
		return
	}
	writeJSON(w, http.StatusCreated, cs)
}

// ResubmitComplaintHandler replaces the case fields of a returned complaint
func (c Case) ResubmitComplaintHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	caseID, ok := pathID(w, r, "case_id")
	if !ok {
		return
	}
	var in workflow.ResubmitInput
	if !decode(w, r, &in) {
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	sub, err := c.Engine.ResubmitComplaint(ctx, p, caseID, in)
	if err != nil {
		writeError(w, err, "failed to resubmit complaint")
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

// InternReviewHandler records the cadet gate of a complaint
func (c Case) InternReviewHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	caseID, ok := pathID(w, r, "case_id")
	if !ok {
		return
	}
	var in decision
	if !decode(w, r, &in) {
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	sub, err := c.Engine.InternReview(ctx, p, caseID, in.Approved, in.Note)
	if err != nil {
		writeError(w, err, "failed to record intern review")
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

// InternReviewComplainantHandler resolves one complainant of a complaint
func (c Case) InternReviewComplainantHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	caseID, ok := pathID(w, r, "case_id")
	if !ok {
		return
	}
	complainantID, ok := pathID(w, r, "complainant_id")
	if !ok {
		return
	}
	var in decision
	if !decode(w, r, &in) {
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	cp, err := c.Engine.InternReviewComplainant(ctx, p, caseID, complainantID, in.Approved, in.Note)
	if err != nil {
		writeError(w, err, "failed to review complainant")
		return
	}
	writeJSON(w, http.StatusOK, cp)
}

// OfficerReviewHandler records the officer gate of a complaint
func (c Case) OfficerReviewHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	caseID, ok := pathID(w, r, "case_id")
	if !ok {
		return
	}
	var in decision
	if !decode(w, r, &in) {
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	sub, err := c.Engine.OfficerReview(ctx, p, caseID, in.Approved, in.Note)
	if err != nil {
		writeError(w, err, "failed to record officer review")
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

// CreateSceneHandler opens a scene case
func (c Case) CreateSceneHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var in workflow.SceneInput
	if !decode(w, r, &in) {
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	cs, err := c.Engine.FormSceneCase(ctx, p, in)
	if err != nil {
		writeError(w, err, "failed to form scene case")
		return
	}
	writeJSON(w, http.StatusCreated, cs)
}

// ReviewSceneHandler approves or denies a scene report awaiting a superior
func (c Case) ReviewSceneHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	caseID, ok := pathID(w, r, "case_id")
	if !ok {
		return
	}
	var in decision
	if !decode(w, r, &in) {
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	review := c.Engine.DenyScene
	if in.Approved {
		review = c.Engine.ApproveScene
	}
	cs, err := review(ctx, p, caseID, in.Note)
	if err != nil {
		writeError(w, err, "failed to review scene")
		return
	}
	writeJSON(w, http.StatusOK, cs)
}

// AddSceneComplainantHandler attaches a complainant to a scene case
func (c Case) AddSceneComplainantHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	caseID, ok := pathID(w, r, "case_id")
	if !ok {
		return
	}
	var in struct {
		UserID int64 `json:"userID"`
	}
	if !decode(w, r, &in) {
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	cp, err := c.Engine.AddSceneComplainant(ctx, p, caseID, in.UserID)
	if err != nil {
		writeError(w, err, "failed to add complainant")
		return
	}
	writeJSON(w, http.StatusCreated, cp)
}

// TakeCaseHandler lets a detective take an open case
func (c Case) TakeCaseHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	caseID, ok := pathID(w, r, "case_id")
	if !ok {
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	cs, err := c.Engine.DetectiveTakeCase(ctx, p, caseID)
	if err != nil {
		writeError(w, err, "failed to take case")
		return
	}
	writeJSON(w, http.StatusOK, cs)
}

// AssignDetectiveHandler lets a supervisor assign the case detective
func (c Case) AssignDetectiveHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	caseID, ok := pathID(w, r, "case_id")
	if !ok {
		return
	}
	var in struct {
		DetectiveID int64 `json:"detectiveID"`
	}
	if !decode(w, r, &in) {
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	cs, err := c.Engine.AssignDetective(ctx, p, caseID, in.DetectiveID)
	if err != nil {
		writeError(w, err, "failed to assign detective")
		return
	}
	writeJSON(w, http.StatusOK, cs)
}

// CasesHandler lists the cases visible to the caller, optionally by ?status=
func (c Case) CasesHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	cases, err := c.Engine.ListCases(ctx, p, models.CaseStatus(r.URL.Query().Get("status")))
	if err != nil {
		writeError(w, err, "failed to list cases")
		return
	}
	if cases == nil {
		cases = []models.Case{}
	}
	writeJSON(w, http.StatusOK, cases)
}

// CaseSummaryHandler returns the case with its parties and progress
func (c Case) CaseSummaryHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	caseID, ok := pathID(w, r, "case_id")
	if !ok {
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	summary, err := c.Engine.CaseSummary(ctx, p, caseID)
	if err != nil {
		writeError(w, err, "failed to get case summary")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// CaseLogsHandler returns the audit trail of a case, oldest first
func (c Case) CaseLogsHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	caseID, ok := pathID(w, r, "case_id")
	if !ok {
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	logs, err := c.Engine.CaseLogs(ctx, p, caseID)
	if err != nil {
		writeError(w, err, "failed to get case logs")
		return
	}
	if logs == nil {
		logs = []models.CaseLog{}
	}
	writeJSON(w, http.StatusOK, logs)
}
