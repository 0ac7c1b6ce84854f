package handlers

import (
	"net/http"

	"github.com/linesmerrill/police-case-api/api"
	"github.com/linesmerrill/police-case-api/workflow"
)

// Suspect serves suspects, main-suspect submissions, interrogations and verdicts
type Suspect struct {
	Engine *workflow.Engine
}

// AddSuspectHandler registers a suspect on a case
func (s Suspect) AddSuspectHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	caseID, ok := pathID(w, r, "case_id")
	if !ok {
		return
	}
	var in workflow.SuspectInput
	if !decode(w, r, &in) {
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	sp, err := s.Engine.AddSuspect(ctx, p, caseID, in)
	if err != nil {
		writeError(w, err, "failed to add suspect")
		return
	}
	writeJSON(w, http.StatusCreated, sp)
}

// SubmitMainSuspectsHandler sends the detective's main suspects to a sergeant
func (s Suspect) SubmitMainSuspectsHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	caseID, ok := pathID(w, r, "case_id")
	if !ok {
		return
	}
	var in struct {
		SuspectIDs []int64 `json:"suspectIDs"`
		Reason     string  `json:"reason"`
	}
	if !decode(w, r, &in) {
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	sub, err := s.Engine.SubmitMainSuspects(ctx, p, caseID, in.SuspectIDs, in.Reason)
	if err != nil {
		writeError(w, err, "failed to submit main suspects")
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

// SergeantReviewHandler approves or rejects a pending suspect submission
func (s Suspect) SergeantReviewHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	submissionID, ok := pathID(w, r, "submission_id")
	if !ok {
		return
	}
	var in struct {
		Approved bool   `json:"approved"`
		Message  string `json:"message"`
	}
	if !decode(w, r, &in) {
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	sub, err := s.Engine.SergeantReview(ctx, p, submissionID, in.Approved, in.Message)
	if err != nil {
		writeError(w, err, "failed to review submission")
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

// AssessmentHandler records the detective or sergeant interrogation score
func (s Suspect) AssessmentHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	caseID, ok := pathID(w, r, "case_id")
	if !ok {
		return
	}
	suspectID, ok := pathID(w, r, "suspect_id")
	if !ok {
		return
	}
	var in workflow.AssessmentInput
	if !decode(w, r, &in) {
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	it, err := s.Engine.RecordAssessment(ctx, p, caseID, suspectID, in)
	if err != nil {
		writeError(w, err, "failed to record assessment")
		return
	}
	writeJSON(w, http.StatusOK, it)
}

// CaptainDecisionHandler records the captain's ruling on an interrogation
func (s Suspect) CaptainDecisionHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	interrogationID, ok := pathID(w, r, "interrogation_id")
	if !ok {
		return
	}
	var in workflow.CaptainInput
	if !decode(w, r, &in) {
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	it, err := s.Engine.CaptainDecision(ctx, p, interrogationID, in)
	if err != nil {
		writeError(w, err, "failed to record captain decision")
		return
	}
	writeJSON(w, http.StatusOK, it)
}

// ChiefReviewHandler records the chief's review of an escalated interrogation
func (s Suspect) ChiefReviewHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	interrogationID, ok := pathID(w, r, "interrogation_id")
	if !ok {
		return
	}
	var in decision
	if !decode(w, r, &in) {
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	it, err := s.Engine.ChiefReview(ctx, p, interrogationID, in.Approved, in.Note)
	if err != nil {
		writeError(w, err, "failed to record chief review")
		return
	}
	writeJSON(w, http.StatusOK, it)
}

// VerdictHandler registers the court verdict for a suspect and closes the case
func (s Suspect) VerdictHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	caseID, ok := pathID(w, r, "case_id")
	if !ok {
		return
	}
	var in workflow.VerdictInput
	if !decode(w, r, &in) {
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	session, err := s.Engine.RegisterVerdict(ctx, p, caseID, in)
	if err != nil {
		writeError(w, err, "failed to register verdict")
		return
	}
	writeJSON(w, http.StatusCreated, session)
}
