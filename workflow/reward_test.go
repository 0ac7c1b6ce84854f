package workflow_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linesmerrill/police-case-api/models"
	"github.com/linesmerrill/police-case-api/workflow"
)

func TestTip_RewardFlow(t *testing.T) {
	f := newFixture(t)
	cs := f.investigating(models.SeverityLevel2)

	tip, err := f.engine.SubmitTip(bg, citizen, workflow.TipInput{Content: "saw the van near the docks", CaseID: &cs.ID})
	require.NoError(t, err)
	assert.Equal(t, models.TipPending, tip.Details.Status)
	assert.Equal(t, "0000000002", tip.Details.SubmitterNationalID)

	_, err = f.engine.OfficerReviewTip(bg, cadet, tip.ID, true, "")
	assertKind(t, workflow.KindPermissionDenied, err)

	tip, err = f.engine.OfficerReviewTip(bg, officer, tip.ID, true, "credible")
	require.NoError(t, err)
	assert.Equal(t, models.TipSentToDetective, tip.Details.Status)
	assert.Contains(t, f.events.types(), models.EventTipForwarded)

	_, err = f.engine.DetectiveReviewTip(bg, otherDet, tip.ID, true, "", 0)
	assertKind(t, workflow.KindPermissionDenied, err)

	review, err := f.engine.DetectiveReviewTip(bg, detective, tip.ID, true, "led to the arrest", 0)
	require.NoError(t, err)
	assert.Equal(t, models.TipApproved, review.Tip.Details.Status)
	require.NotNil(t, review.Claim)
	assert.Equal(t, "CODE0001", review.Claim.Details.UniqueCode)
	assert.Equal(t, workflow.DefaultRewardAmount, review.Claim.Details.Amount)

	_, err = f.engine.DetectiveReviewTip(bg, detective, tip.ID, true, "", 0)
	assertKind(t, workflow.KindConflict, err)

	assert.Equal(t, []string{"tip.submitted", "tip.officer_sent_to_detective", "tip.detective_approved"}, actions(f.logs(cs.ID))[2:])
}

func TestVerifyClaim(t *testing.T) {
	f := newFixture(t)
	tip, err := f.engine.SubmitTip(bg, citizen, workflow.TipInput{Content: "the suspect drives a red car"})
	require.NoError(t, err)
	_, err = f.engine.OfficerReviewTip(bg, officer, tip.ID, true, "")
	require.NoError(t, err)
	review, err := f.engine.DetectiveReviewTip(bg, detective, tip.ID, true, "", 1_000_000)
	require.NoError(t, err)

	v, err := f.engine.VerifyClaim(bg, officer, "0000000002", " code0001 ")
	require.NoError(t, err)
	assert.Equal(t, review.Claim.ID, v.ClaimID)
	assert.Equal(t, int64(1_000_000), v.Amount)
	assert.Equal(t, int64(citizenID), v.SubmitterID)

	again, err := f.engine.VerifyClaim(bg, officer, "0000000002", "CODE0001")
	require.NoError(t, err)
	assert.Equal(t, v, again)

	_, err = f.engine.VerifyClaim(bg, officer, "0000000003", "CODE0001")
	assertKind(t, workflow.KindNotFound, err)

	_, err = f.engine.VerifyClaim(bg, officer, "0000000002", "NOPE")
	assertKind(t, workflow.KindNotFound, err)

	_, err = f.engine.VerifyClaim(bg, officer, "", "CODE0001")
	assertKind(t, workflow.KindValidation, err)

	_, err = f.engine.VerifyClaim(bg, detective, "0000000002", "CODE0001")
	assertKind(t, workflow.KindPermissionDenied, err)
}

func TestTip_Rejections(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.SubmitTip(bg, citizen, workflow.TipInput{Content: "  "})
	assertKind(t, workflow.KindValidation, err)

	missing := int64(404)
	_, err = f.engine.SubmitTip(bg, citizen, workflow.TipInput{Content: "hello", CaseID: &missing})
	assertKind(t, workflow.KindNotFound, err)

	_, err = f.engine.SubmitTip(bg, cadet, workflow.TipInput{Content: "hello"})
	assertKind(t, workflow.KindPermissionDenied, err)

	tip, err := f.engine.SubmitTip(bg, citizen, workflow.TipInput{Content: "aliens did it"})
	require.NoError(t, err)
	tip, err = f.engine.OfficerReviewTip(bg, officer, tip.ID, false, "not credible")
	require.NoError(t, err)
	assert.Equal(t, models.TipRejected, tip.Details.Status)

	_, err = f.engine.DetectiveReviewTip(bg, detective, tip.ID, true, "", 0)
	assertKind(t, workflow.KindConflict, err)

	_, err = f.engine.OfficerReviewTip(bg, officer, tip.ID, true, "")
	assertKind(t, workflow.KindConflict, err)

	_, err = f.engine.DetectiveReviewTip(bg, detective, tip.ID, true, "", -5)
	assertKind(t, workflow.KindValidation, err)
}
