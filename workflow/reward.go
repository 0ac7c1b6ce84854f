package workflow

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/linesmerrill/police-case-api/models"
)

// DefaultRewardAmount is paid for a useful tip when the detective names no amount
const DefaultRewardAmount int64 = 50_000_000

// TipInput is a citizen tip, optionally about a known case or suspect
type TipInput struct {
	Content   string `json:"content"`
	CaseID    *int64 `json:"caseID"`
	SuspectID *int64 `json:"suspectID"`
}

// TipReview is the result of the detective gate of a tip
type TipReview struct {
	Tip   *models.Tip         `json:"tip"`
	Claim *models.RewardClaim `json:"claim,omitempty"`
}

func rewardCode() string {
	return strings.ToUpper(strings.SplitN(uuid.NewString(), "-", 2)[0])
}

func tipCase(t *models.Tip) int64 {
	if t.Details.CaseID == nil {
		return 0
	}
	return *t.Details.CaseID
}

// SubmitTip files a tip for officer review
func (e *Engine) SubmitTip(ctx context.Context, p Principal, in TipInput) (*models.Tip, error) {
	if err := p.require(CapTipSubmit); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, validationf("content is required")
	}
	var out *models.Tip
	err := e.transition(ctx, p, "submit_tip", func(c *change) error {
		if in.CaseID != nil {
			if _, err := getCase(c.ctx, c.tx, *in.CaseID); err != nil {
				return err
			}
			if in.SuspectID != nil {
				if _, err := suspectOfCase(c.ctx, c.tx, *in.CaseID, *in.SuspectID); err != nil {
					return err
				}
			}
		} else if in.SuspectID != nil {
			if _, err := getSuspect(c.ctx, c.tx, *in.SuspectID); err != nil {
				return err
			}
		}
		t := &models.Tip{Details: models.TipDetails{
			SubmitterID:         p.ID(),
			SubmitterNationalID: p.Actor.NationalID,
			Content:             in.Content,
			CaseID:              in.CaseID,
			SuspectID:           in.SuspectID,
			Status:              models.TipPending,
			CreatedAt:           c.now,
			UpdatedAt:           c.now,
		}}
		if err := c.tx.InsertTip(c.ctx, t); err != nil {
			return err
		}
		out = t
		return c.record(tipCase(t), "tip.submitted", map[string]interface{}{"tipID": t.ID})
	})
	return out, err
}

// OfficerReviewTip forwards a valid tip to detectives or rejects it
func (e *Engine) OfficerReviewTip(ctx context.Context, p Principal, tipID int64, valid bool, note string) (*models.Tip, error) {
	if err := p.require(CapTipOfficerReview); err != nil {
		return nil, err
	}
	var out *models.Tip
	err := e.transition(ctx, p, "officer_review_tip", func(c *change) error {
		t, err := getTip(c.ctx, c.tx, tipID)
		if err != nil {
			return err
		}
		if t.Details.Status != models.TipPending {
			return conflictf("tip %d is %s, not pending", tipID, t.Details.Status)
		}
		to := models.TipRejected
		if valid {
			to = models.TipSentToDetective
		}
		if err := advance("tip", t.ID, &t.Details.Status, to); err != nil {
			return err
		}
		t.Details.OfficerNote = note
		t.Details.UpdatedAt = c.now
		if err := c.tx.UpdateTip(c.ctx, t); err != nil {
			return err
		}
		if valid {
			c.emit(models.Event{
				Type:       models.EventTipForwarded,
				CaseID:     tipCase(t),
				Message:    "A tip was forwarded for detective review",
				Recipients: []models.Role{models.RoleDetective},
				Data:       map[string]interface{}{"tipID": t.ID},
			})
		} else {
			c.emit(models.Event{
				Type:    models.EventTipResolved,
				CaseID:  tipCase(t),
				Message: "Your tip was not accepted",
				UserIDs: []int64{t.Details.SubmitterID},
			})
		}
		out = t
		return c.record(tipCase(t), "tip.officer_"+string(to), map[string]interface{}{"tipID": t.ID, "note": note})
	})
	return out, err
}

// DetectiveReviewTip approves a forwarded tip and issues its reward claim, or rejects it
func (e *Engine) DetectiveReviewTip(ctx context.Context, p Principal, tipID int64, useful bool, note string, amount int64) (*TipReview, error) {
	if err := p.require(CapTipDetectiveReview); err != nil {
		return nil, err
	}
	if amount < 0 {
		return nil, validationf("reward amount cannot be negative")
	}
	if amount == 0 {
		amount = DefaultRewardAmount
	}
	var out *TipReview
	err := e.transition(ctx, p, "detective_review_tip", func(c *change) error {
		t, err := getTip(c.ctx, c.tx, tipID)
		if err != nil {
			return err
		}
		if t.Details.Status != models.TipSentToDetective {
			return conflictf("tip %d is %s, not awaiting a detective", tipID, t.Details.Status)
		}
		if t.Details.CaseID != nil {
			cs, err := getCase(c.ctx, c.tx, *t.Details.CaseID)
			if err != nil {
				return err
			}
			if cs.Details.AssignedDetective != nil {
				if err := requireAssignedDetective(p, cs); err != nil {
					return err
				}
			}
		}
		to := models.TipRejected
		if useful {
			to = models.TipApproved
		}
		if err := advance("tip", t.ID, &t.Details.Status, to); err != nil {
			return err
		}
		t.Details.DetectiveNote = note
		t.Details.UpdatedAt = c.now
		if err := c.tx.UpdateTip(c.ctx, t); err != nil {
			return err
		}
		out = &TipReview{Tip: t}
		details := map[string]interface{}{"tipID": t.ID, "note": note}
		msg := "Your tip was reviewed and not rewarded"
		if useful {
			claim := &models.RewardClaim{Details: models.RewardClaimDetails{
				TipID:               t.ID,
				UniqueCode:          e.newCode(),
				Amount:              amount,
				SubmitterID:         t.Details.SubmitterID,
				SubmitterNationalID: t.Details.SubmitterNationalID,
				CreatedAt:           c.now,
			}}
			if err := c.tx.InsertRewardClaim(c.ctx, claim); err != nil {
				return err
			}
			out.Claim = claim
			details["claimID"] = claim.ID
			details["amount"] = amount
			msg = "Your tip earned a reward. Present your claim code at a station."
		}
		c.emit(models.Event{
			Type:    models.EventTipResolved,
			CaseID:  tipCase(t),
			Message: msg,
			UserIDs: []int64{t.Details.SubmitterID},
		})
		return c.record(tipCase(t), "tip.detective_"+string(to), details)
	})
	return out, err
}

// VerifyClaim looks up a reward claim by code for the presenting citizen.
// Verification is read-only and can be repeated.
func (e *Engine) VerifyClaim(ctx context.Context, p Principal, nationalID, code string) (*models.RewardVerification, error) {
	if err := p.require(CapRewardVerify); err != nil {
		return nil, err
	}
	nationalID = strings.TrimSpace(nationalID)
	code = strings.ToUpper(strings.TrimSpace(code))
	if nationalID == "" || code == "" {
		return nil, validationf("nationalID and code are required")
	}
	var out *models.RewardVerification
	err := e.view(ctx, func(ctx context.Context, tx Tx) error {
		claim, err := tx.FindRewardClaim(ctx, code)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return notFoundf("no reward claim matches the code")
			}
			return err
		}
		if claim.Details.SubmitterNationalID != nationalID {
			return notFoundf("no reward claim matches the code")
		}
		out = &models.RewardVerification{
			ClaimID:             claim.ID,
			TipID:               claim.Details.TipID,
			SubmitterID:         claim.Details.SubmitterID,
			SubmitterNationalID: claim.Details.SubmitterNationalID,
			Amount:              claim.Details.Amount,
		}
		return nil
	})
	return out, err
}
