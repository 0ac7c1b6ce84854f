package workflow_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linesmerrill/police-case-api/models"
	"github.com/linesmerrill/police-case-api/workflow"
)

func TestInterrogation_CaptainRejectionReopensScoring(t *testing.T) {
	f := newFixture(t)
	cs, s := f.arrested(models.SeverityLevel2)
	rec := f.scored(cs.ID, s.ID)
	assert.Contains(t, f.events.types(), models.EventInterrogationReady)

	_, err := f.engine.RecordAssessment(bg, detective, cs.ID, s.ID, workflow.AssessmentInput{Role: models.RoleDetective, Score: 3})
	assertKind(t, workflow.KindLocked, err)

	rec, err = f.engine.CaptainDecision(bg, captain, rec.ID, workflow.CaptainInput{Approved: false, Note: "scores disagree with evidence"})
	require.NoError(t, err)
	assert.Equal(t, models.PhaseScoring, rec.Details.Phase())
	assert.False(t, rec.Details.DetectiveSubmitted)
	assert.False(t, rec.Details.SergeantSubmitted)
	assert.Equal(t, models.CaptainOutcomeRejected, rec.Details.CaptainOutcome)

	_, err = f.engine.CaptainDecision(bg, captain, rec.ID, workflow.CaptainInput{Approved: true})
	assertKind(t, workflow.KindConflict, err)

	rec = f.scored(cs.ID, s.ID)
	rec, err = f.engine.CaptainDecision(bg, captain, rec.ID, workflow.CaptainInput{Approved: true, Score: 9})
	require.NoError(t, err)
	assert.Equal(t, models.PhaseAwaitingChief, rec.Details.Phase())
}

func TestInterrogation_ChiefApprovalLocksScoring(t *testing.T) {
	f := newFixture(t)
	cs, s := f.arrested(models.SeverityLevel3)
	rec := f.scored(cs.ID, s.ID)
	rec, err := f.engine.CaptainDecision(bg, captain, rec.ID, workflow.CaptainInput{Approved: true, Score: 8})
	require.NoError(t, err)

	_, err = f.engine.RecordAssessment(bg, sergeant, cs.ID, s.ID, workflow.AssessmentInput{Role: models.RoleSergeant, Score: 2})
	assertKind(t, workflow.KindLocked, err)
	_, err = f.engine.CaptainDecision(bg, captain, rec.ID, workflow.CaptainInput{Approved: false})
	assertKind(t, workflow.KindLocked, err)
	_, err = f.engine.ChiefReview(bg, captain, rec.ID, true, "")
	assertKind(t, workflow.KindPermissionDenied, err)

	rec, err = f.engine.ChiefReview(bg, chief, rec.ID, true, "to court")
	require.NoError(t, err)
	assert.Equal(t, models.PhaseChiefApproved, rec.Details.Phase())

	summary := f.summary(cs.ID)
	assert.Equal(t, models.CaseSentToCourt, summary.Case.Details.Status)
	assert.Equal(t, models.SuspectCriminal, summary.Suspects[0].Details.Status)
	assert.Contains(t, f.events.types(), models.EventCaseSentToCourt)

	_, err = f.engine.RecordAssessment(bg, detective, cs.ID, s.ID, workflow.AssessmentInput{Role: models.RoleDetective, Score: 5})
	assertKind(t, workflow.KindLocked, err)
	_, err = f.engine.ChiefReview(bg, chief, rec.ID, false, "")
	assertKind(t, workflow.KindLocked, err)
}

func TestCaptainDecision_FailureLeavesRowUntouched(t *testing.T) {
	f := newFixture(t)
	cs, s := f.arrested(models.SeverityLevel2)
	_, err := f.engine.RecordAssessment(bg, detective, cs.ID, s.ID, workflow.AssessmentInput{Role: models.RoleDetective, Score: 6})
	require.NoError(t, err)

	before := f.summary(cs.ID)
	require.Len(t, before.Interrogations, 1)
	rec := before.Interrogations[0]

	// sergeant has not submitted yet
	_, err = f.engine.CaptainDecision(bg, captain, rec.ID, workflow.CaptainInput{Approved: false, Note: "too early"})
	assertKind(t, workflow.KindConflict, err)
	after := f.summary(cs.ID)
	assert.Equal(t, rec, after.Interrogations[0])
	assert.Len(t, after.Logs, len(before.Logs))

	rec2 := f.scored(cs.ID, s.ID)
	_, err = f.engine.CaptainDecision(bg, captain, rec2.ID, workflow.CaptainInput{Approved: true, Score: 7})
	require.NoError(t, err)

	before = f.summary(cs.ID)
	locked := before.Interrogations[0]
	_, err = f.engine.CaptainDecision(bg, captain, locked.ID, workflow.CaptainInput{Approved: false, Note: "changed my mind"})
	assertKind(t, workflow.KindLocked, err)
	after = f.summary(cs.ID)
	assert.Equal(t, locked, after.Interrogations[0])
	assert.Equal(t, locked.Version, after.Interrogations[0].Version)
	assert.Len(t, after.Logs, len(before.Logs))
}

func TestInterrogation_ChiefRejectionReturnsToCaptain(t *testing.T) {
	f := newFixture(t)
	cs, s := f.arrested(models.SeverityLevel2)
	rec := f.scored(cs.ID, s.ID)
	_, err := f.engine.CaptainDecision(bg, captain, rec.ID, workflow.CaptainInput{Approved: true})
	require.NoError(t, err)

	rec, err = f.engine.ChiefReview(bg, chief, rec.ID, false, "weak")
	require.NoError(t, err)
	assert.Equal(t, models.PhaseAwaitingCaptain, rec.Details.Phase())
	assert.Equal(t, models.CaseInvestigating, f.summary(cs.ID).Case.Details.Status)
}

func TestRecordAssessment_Guards(t *testing.T) {
	f := newFixture(t)
	cs, s := f.arrested(models.SeverityLevel2)
	free := f.addSuspect(cs.ID, "Jane Roe", "2222222222")

	_, err := f.engine.RecordAssessment(bg, detective, cs.ID, s.ID, workflow.AssessmentInput{Role: models.RoleChief, Score: 5})
	assertKind(t, workflow.KindValidation, err)

	_, err = f.engine.RecordAssessment(bg, detective, cs.ID, s.ID, workflow.AssessmentInput{Role: models.RoleDetective, Score: 11})
	assertKind(t, workflow.KindValidation, err)

	_, err = f.engine.RecordAssessment(bg, detective, cs.ID, s.ID, workflow.AssessmentInput{Role: models.RoleSergeant, Score: 5})
	assertKind(t, workflow.KindPermissionDenied, err)

	_, err = f.engine.RecordAssessment(bg, otherDet, cs.ID, s.ID, workflow.AssessmentInput{Role: models.RoleDetective, Score: 5})
	assertKind(t, workflow.KindPermissionDenied, err)

	_, err = f.engine.RecordAssessment(bg, detective, cs.ID, free.ID, workflow.AssessmentInput{Role: models.RoleDetective, Score: 5})
	assertKind(t, workflow.KindConflict, err)

	_, err = f.engine.CaptainDecision(bg, captain, 999, workflow.CaptainInput{Approved: true})
	assertKind(t, workflow.KindNotFound, err)
}

func TestRecordAssessment_RescoreWhileScoring(t *testing.T) {
	f := newFixture(t)
	cs, s := f.arrested(models.SeverityLevel2)

	first, err := f.engine.RecordAssessment(bg, detective, cs.ID, s.ID, workflow.AssessmentInput{Role: models.RoleDetective, Score: 4})
	require.NoError(t, err)
	second, err := f.engine.RecordAssessment(bg, detective, cs.ID, s.ID, workflow.AssessmentInput{Role: models.RoleDetective, Score: 6, Note: "revised"})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 6, second.Details.DetectiveScore)
	assert.Equal(t, models.PhaseScoring, second.Details.Phase())
	assert.Len(t, f.summary(cs.ID).Interrogations, 1)
}
