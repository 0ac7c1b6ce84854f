package workflow

import "github.com/linesmerrill/police-case-api/models"

type state[S any] interface {
	~string
	CanTransitionTo(next S) bool
}

// advance is the only place status and stage fields change. Edges missing
// from the entity's transition table are rejected as Conflict.
func advance[S state[S]](entity string, id int64, cur *S, to S) error {
	if !(*cur).CanTransitionTo(to) {
		return conflictf("%s %d cannot move from %s to %s", entity, id, *cur, to)
	}
	*cur = to
	return nil
}

// checkPhase validates the derived interrogation state after its fields were edited
func checkPhase(id int64, before, after models.InterrogationDetails) error {
	from, to := before.Phase(), after.Phase()
	if !from.CanTransitionTo(to) {
		return conflictf("interrogation %d cannot move from %s to %s", id, from, to)
	}
	return nil
}
