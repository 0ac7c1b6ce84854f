package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/linesmerrill/police-case-api/api"
	"github.com/linesmerrill/police-case-api/config"
	"github.com/linesmerrill/police-case-api/models"
	"github.com/linesmerrill/police-case-api/workflow"
)

// maxBodyBytes caps JSON request bodies
const maxBodyBytes = 1 << 20

var kindStatus = map[workflow.Kind]int{
	workflow.KindValidation:       http.StatusBadRequest,
	workflow.KindPermissionDenied: http.StatusForbidden,
	workflow.KindConflict:         http.StatusConflict,
	workflow.KindLocked:           http.StatusLocked,
	workflow.KindNotFound:         http.StatusNotFound,
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(b)
}

func writeKind(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, models.ErrorResponse{Error: kind, Message: message})
}

// writeError maps workflow error kinds to status codes. Anything else is an
// internal failure and is logged.
func writeError(w http.ResponseWriter, err error, message string) {
	if kind := workflow.KindOf(err); kind != "" {
		var we *workflow.Error
		errors.As(err, &we)
		writeKind(w, kindStatus[kind], string(kind), we.Message)
		return
	}
	if errors.Is(err, context.DeadlineExceeded) {
		writeKind(w, http.StatusRequestTimeout, "timeout", "the request took too long to process")
		return
	}
	config.ErrorStatus(message, http.StatusInternalServerError, w, err)
}

func validation(w http.ResponseWriter, format string, args ...interface{}) {
	writeKind(w, http.StatusBadRequest, string(workflow.KindValidation), fmt.Sprintf(format, args...))
}

// decode reads a JSON body into v, unknown fields are rejected
func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		validation(w, "invalid request body: %v", err)
		return false
	}
	return true
}

// pathID parses a positive integer path variable
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		validation(w, "%s must be a positive integer, got %q", name, raw)
		return 0, false
	}
	return id, true
}

// principal returns the caller resolved by the auth middleware
func principal(w http.ResponseWriter, r *http.Request) (workflow.Principal, bool) {
	p, ok := api.PrincipalFromContext(r.Context())
	if !ok {
		writeKind(w, http.StatusUnauthorized, "unauthorized", "missing principal")
	}
	return p, ok
}

// decision is the body of every approve/reject review
type decision struct {
	Approved bool   `json:"approved"`
	Note     string `json:"note"`
}
