package handlers

import (
	"net/http"

	"github.com/linesmerrill/police-case-api/api"
	"github.com/linesmerrill/police-case-api/models"
	"github.com/linesmerrill/police-case-api/workflow"
)

// Report serves the dashboard report and the public high alert list
type Report struct {
	Engine *workflow.Engine
}

// GlobalReportHandler returns the department-wide counters
func (rp Report) GlobalReportHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	report, err := rp.Engine.GlobalReport(ctx, p)
	if err != nil {
		writeError(w, err, "failed to build global report")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// HighAlertHandler returns the ranked most-wanted list
func (rp Report) HighAlertHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	list, err := rp.Engine.HighAlertList(ctx)
	if err != nil {
		writeError(w, err, "failed to build high alert list")
		return
	}
	if list == nil {
		list = []models.HighAlertEntry{}
	}
	writeJSON(w, http.StatusOK, list)
}
