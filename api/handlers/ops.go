package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/linesmerrill/police-case-api/api/scheduler"
)

// JobRunner runs a maintenance job on demand, *scheduler.Scheduler satisfies it
type JobRunner interface {
	RunJob(ctx context.Context, name string) (ran bool, affected int, err error)
}

// Ops serves operator endpoints behind the service account
type Ops struct {
	Jobs JobRunner
}

// RunJobHandler triggers a scheduler job now
func (o Ops) RunJobHandler(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["job"]
	ran, affected, err := o.Jobs.RunJob(r.Context(), name)
	if errors.Is(err, scheduler.ErrUnknownJob) {
		writeKind(w, http.StatusNotFound, "not_found", err.Error())
		return
	}
	if err != nil {
		writeError(w, err, "failed to run job")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"job":      name,
		"ran":      ran,
		"affected": affected,
	})
}
