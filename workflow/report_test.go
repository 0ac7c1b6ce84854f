package workflow_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linesmerrill/police-case-api/models"
	"github.com/linesmerrill/police-case-api/workflow"
)

func TestHighAlertList(t *testing.T) {
	f := newFixture(t)

	robbery := f.investigating(models.SeverityLevel1)
	f.addSuspect(robbery.ID, "Mark Stone", "1112223334")
	shoplifting := f.investigating(models.SeverityLevel3)
	f.addSuspect(shoplifting.ID, "Ann Lee", "5556667778")

	f.clock.Advance(5 * 24 * time.Hour)
	murder := f.investigating(models.SeverityCritical)
	f.addSuspect(murder.ID, "M. Stone", "1112223334")

	f.clock.Advance(10 * 24 * time.Hour)
	recent := f.investigating(models.SeverityCritical)
	f.addSuspect(recent.ID, "New Face", "9998887776")

	f.arrested(models.SeverityLevel2)

	f.clock.Advance(25 * 24 * time.Hour)
	list, err := f.engine.HighAlertList(bg)
	require.NoError(t, err)
	require.Len(t, list, 2)

	top := list[0]
	assert.Equal(t, "1112223334", top.NationalID)
	assert.Equal(t, "Mark Stone", top.FullName)
	assert.Len(t, top.SuspectIDs, 2)
	assert.Equal(t, int64(40), top.DaysWanted)
	assert.Equal(t, int(models.SeverityCritical), top.MaxSeverity)
	assert.Equal(t, int64(160), top.Rank)
	assert.Equal(t, int64(160*workflow.HighAlertRewardPerPoint), top.Reward)

	assert.Equal(t, "5556667778", list[1].NationalID)
	assert.Equal(t, int64(40), list[1].Rank)

	n, err := f.engine.PublishHighAlertDigest(bg)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Contains(t, f.events.types(), models.EventHighAlertDigest)
}

func TestHighAlertList_SuspectWithoutNationalID(t *testing.T) {
	f := newFixture(t)
	cs := f.investigating(models.SeverityLevel2)
	first := f.addSuspect(cs.ID, "Unknown driver", "")
	second := f.addSuspect(cs.ID, "Unknown passenger", " ")

	f.clock.Advance(31 * 24 * time.Hour)
	list, err := f.engine.HighAlertList(bg)
	require.NoError(t, err)
	require.Len(t, list, 2)
	keys := []string{list[0].GroupKey, list[1].GroupKey}
	assert.ElementsMatch(t, []string{
		fmt.Sprintf("case-%d-suspect-%d", cs.ID, first.ID),
		fmt.Sprintf("case-%d-suspect-%d", cs.ID, second.ID),
	}, keys)
	assert.Equal(t, int64(31*2), list[0].Rank)
}

func TestHighAlertList_ExactlyThirtyDaysIsNotListed(t *testing.T) {
	f := newFixture(t)
	cs := f.investigating(models.SeverityLevel2)
	f.addSuspect(cs.ID, "Ann Lee", "5556667778")

	f.clock.Advance(30 * 24 * time.Hour)
	list, err := f.engine.HighAlertList(bg)
	require.NoError(t, err)
	assert.Empty(t, list)

	n, err := f.engine.PublishHighAlertDigest(bg)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NotContains(t, f.events.types(), models.EventHighAlertDigest)
}

func TestGlobalReport(t *testing.T) {
	f := newFixture(t)
	f.openCase(models.SeverityLevel2)
	f.arrested(models.SeverityLevel1)

	_, err := f.engine.GlobalReport(bg, cadet)
	assertKind(t, workflow.KindPermissionDenied, err)

	r, err := f.engine.GlobalReport(bg, captain)
	require.NoError(t, err)
	assert.Equal(t, int64(2), r.TotalCases)
	assert.Equal(t, int64(2), r.ActiveCases)
	assert.Zero(t, r.ResolvedCases)
	assert.Equal(t, int64(1), r.CasesByStatus[models.CaseOpen])
	assert.Equal(t, int64(1), r.CasesByStatus[models.CaseInvestigating])
	assert.Equal(t, int64(1), r.SuspectsByStatus[models.SuspectArrested])
	assert.Zero(t, r.PendingSubmissions)
}

func TestCaseSummary_Visibility(t *testing.T) {
	f := newFixture(t)
	cs, _ := f.arrested(models.SeverityLevel2)

	_, err := f.engine.CaseSummary(bg, citizen, cs.ID)
	assertKind(t, workflow.KindPermissionDenied, err)
	_, err = f.engine.CaseLogs(bg, citizen, cs.ID)
	assertKind(t, workflow.KindPermissionDenied, err)

	s, err := f.engine.CaseSummary(bg, detective, cs.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SeverityLevel2.Label(), s.SeverityLabel)
	assert.Len(t, s.Suspects, 1)
	assert.Len(t, s.Submissions, 1)
	assert.ElementsMatch(t, []int64{chiefID, detectiveID, sergeantID}, s.InvolvedUsers)
	assert.Empty(t, s.EvidenceCounts)

	_, err = f.engine.CaseSummary(bg, detective, 999)
	assertKind(t, workflow.KindNotFound, err)
}

func TestRejectedTransitionWritesNothing(t *testing.T) {
	f := newFixture(t)
	cs := f.investigating(models.SeverityLevel2)
	before := f.summary(cs.ID)

	_, err := f.engine.DetectiveTakeCase(bg, otherDet, cs.ID)
	assertKind(t, workflow.KindConflict, err)

	after := f.summary(cs.ID)
	assert.Equal(t, before.Case, after.Case)
	assert.Equal(t, actions(before.Logs), actions(after.Logs))
	assert.Len(t, f.events.types(), 2)
}
