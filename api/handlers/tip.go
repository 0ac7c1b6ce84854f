package handlers

import (
	"net/http"

	"github.com/linesmerrill/police-case-api/api"
	"github.com/linesmerrill/police-case-api/workflow"
)

// Tip serves citizen tips and reward verification
type Tip struct {
	Engine *workflow.Engine
}

// SubmitTipHandler records a citizen tip
func (t Tip) SubmitTipHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var in workflow.TipInput
	if !decode(w, r, &in) {
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	tip, err := t.Engine.SubmitTip(ctx, p, in)
	if err != nil {
		writeError(w, err, "failed to submit tip")
		return
	}
	writeJSON(w, http.StatusCreated, tip)
}

// OfficerReviewTipHandler is the officer gate of a tip
func (t Tip) OfficerReviewTipHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	tipID, ok := pathID(w, r, "tip_id")
	if !ok {
		return
	}
	var in struct {
		Valid bool   `json:"valid"`
		Note  string `json:"note"`
	}
	if !decode(w, r, &in) {
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	tip, err := t.Engine.OfficerReviewTip(ctx, p, tipID, in.Valid, in.Note)
	if err != nil {
		writeError(w, err, "failed to review tip")
		return
	}
	writeJSON(w, http.StatusOK, tip)
}

// DetectiveReviewTipHandler is the detective gate, a useful tip issues a reward claim
func (t Tip) DetectiveReviewTipHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	tipID, ok := pathID(w, r, "tip_id")
	if !ok {
		return
	}
	var in struct {
		Useful bool   `json:"useful"`
		Note   string `json:"note"`
		Amount int64  `json:"amount"`
	}
	if !decode(w, r, &in) {
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	review, err := t.Engine.DetectiveReviewTip(ctx, p, tipID, in.Useful, in.Note, in.Amount)
	if err != nil {
		writeError(w, err, "failed to review tip")
		return
	}
	writeJSON(w, http.StatusOK, review)
}

// VerifyClaimHandler looks up a reward claim by national id and code
func (t Tip) VerifyClaimHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var in struct {
		NationalID string `json:"nationalID"`
		Code       string `json:"code"`
	}
	if !decode(w, r, &in) {
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	v, err := t.Engine.VerifyClaim(ctx, p, in.NationalID, in.Code)
	if err != nil {
		writeError(w, err, "failed to verify reward claim")
		return
	}
	writeJSON(w, http.StatusOK, v)
}
