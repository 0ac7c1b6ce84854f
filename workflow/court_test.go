package workflow_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linesmerrill/police-case-api/models"
	"github.com/linesmerrill/police-case-api/workflow"
)

func TestRegisterVerdict_GuiltyClosesCase(t *testing.T) {
	f := newFixture(t)
	cs, s := f.inCourt(models.SeverityLevel1)

	session, err := f.engine.RegisterVerdict(bg, judge, cs.ID, workflow.VerdictInput{
		SuspectID:       s.ID,
		Verdict:         models.VerdictGuilty,
		PunishmentTitle: "5 years",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(judgeID), session.Details.JudgeID)

	summary := f.summary(cs.ID)
	assert.Equal(t, models.CaseClosed, summary.Case.Details.Status)
	assert.Equal(t, models.SuspectCriminal, summary.Suspects[0].Details.Status)
	require.NotNil(t, summary.CourtSession)
	assert.Equal(t, "5 years", summary.CourtSession.Details.PunishmentTitle)
	assert.Equal(t, "court.verdict_guilty", summary.Logs[len(summary.Logs)-1].Details.Action)

	_, err = f.engine.RegisterVerdict(bg, judge, cs.ID, workflow.VerdictInput{SuspectID: s.ID, Verdict: models.VerdictNotGuilty})
	assertKind(t, workflow.KindConflict, err)
}

func TestRegisterVerdict_NotGuiltyClearsSuspect(t *testing.T) {
	f := newFixture(t)
	cs, s := f.inCourt(models.SeverityLevel2)

	_, err := f.engine.RegisterVerdict(bg, judge, cs.ID, workflow.VerdictInput{SuspectID: s.ID, Verdict: models.VerdictNotGuilty})
	require.NoError(t, err)
	assert.Equal(t, models.SuspectCleared, f.summary(cs.ID).Suspects[0].Details.Status)
}

func TestRegisterVerdict_Guards(t *testing.T) {
	f := newFixture(t)
	cs, s := f.arrested(models.SeverityLevel2)

	_, err := f.engine.RegisterVerdict(bg, chief, cs.ID, workflow.VerdictInput{SuspectID: s.ID, Verdict: models.VerdictNotGuilty})
	assertKind(t, workflow.KindPermissionDenied, err)

	_, err = f.engine.RegisterVerdict(bg, judge, cs.ID, workflow.VerdictInput{SuspectID: s.ID, Verdict: "maybe"})
	assertKind(t, workflow.KindValidation, err)

	_, err = f.engine.RegisterVerdict(bg, judge, cs.ID, workflow.VerdictInput{SuspectID: s.ID, Verdict: models.VerdictGuilty})
	assertKind(t, workflow.KindValidation, err)

	_, err = f.engine.RegisterVerdict(bg, judge, cs.ID, workflow.VerdictInput{SuspectID: s.ID, Verdict: models.VerdictNotGuilty})
	assertKind(t, workflow.KindConflict, err)
}
