package workflow

import (
	"context"
	"strings"

	"github.com/linesmerrill/police-case-api/models"
)

// MaxComplaintAttempts is the attempt on which a cadet rejection voids the complaint
const MaxComplaintAttempts = 3

// ResubmitInput replaces the reviewable fields of a returned complaint
type ResubmitInput struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Severity    models.Severity `json:"severity"`
}

// InternReviewComplainant resolves one complainant without moving the submission
func (e *Engine) InternReviewComplainant(ctx context.Context, p Principal, caseID, complainantID int64, approved bool, note string) (*models.Complainant, error) {
	if err := p.require(CapInternReview); err != nil {
		return nil, err
	}
	var out *models.Complainant
	err := e.transition(ctx, p, "intern_review_complainant", func(c *change) error {
		sub, err := getComplaint(c.ctx, c.tx, caseID)
		if err != nil {
			return err
		}
		if sub.Details.Stage != models.StagePendingCadet {
			return conflictf("complaint for case %d is %s, not awaiting cadet review", caseID, sub.Details.Stage)
		}
		cp, err := getComplainant(c.ctx, c.tx, complainantID)
		if err != nil {
			return err
		}
		if cp.Details.CaseID != caseID {
			return notFoundf("complainant %d not found on case %d", complainantID, caseID)
		}
		cp.Details.Status = models.ComplainantRejected
		if approved {
			cp.Details.Status = models.ComplainantApproved
		}
		cp.Details.ReviewNote = note
		if err := c.tx.UpdateComplainant(c.ctx, cp); err != nil {
			return err
		}
		out = cp
		return c.record(caseID, "complainant."+string(cp.Details.Status), map[string]interface{}{
			"complainantID": cp.ID,
			"userID":        cp.Details.UserID,
			"note":          note,
		})
	})
	return out, err
}

// InternReview is the cadet gate of a complaint
func (e *Engine) InternReview(ctx context.Context, p Principal, caseID int64, approved bool, note string) (*models.ComplaintSubmission, error) {
	if err := p.require(CapInternReview); err != nil {
		return nil, err
	}
	if !approved && strings.TrimSpace(note) == "" {
		return nil, validationf("a rejection note is required")
	}
	var out *models.ComplaintSubmission
	err := e.transition(ctx, p, "intern_review", func(c *change) error {
		sub, err := getComplaint(c.ctx, c.tx, caseID)
		if err != nil {
			return err
		}
		if sub.Details.Stage != models.StagePendingCadet {
			return conflictf("complaint for case %d is %s, not awaiting cadet review", caseID, sub.Details.Stage)
		}
		complainants, err := c.tx.ListComplainants(c.ctx, caseID)
		if err != nil {
			return err
		}
		approvedCount := 0
		for _, cp := range complainants {
			switch cp.Details.Status {
			case models.ComplainantPending:
				return conflictf("complainant %d on case %d is still pending", cp.ID, caseID)
			case models.ComplainantApproved:
				approvedCount++
			}
		}
		cs, err := getCase(c.ctx, c.tx, caseID)
		if err != nil {
			return err
		}
		sub.Details.InternNote = note
		sub.Details.UpdatedAt = c.now
		if approved {
			if approvedCount == 0 {
				return conflictf("case %d has no approved complainant", caseID)
			}
			if err := advance("complaint", sub.ID, &sub.Details.Stage, models.StagePendingOfficer); err != nil {
				return err
			}
			if err := c.tx.UpdateComplaintSubmission(c.ctx, sub); err != nil {
				return err
			}
			c.emit(models.Event{
				Type:       models.EventComplaintSubmitted,
				CaseID:     caseID,
				Message:    "Complaint passed cadet review and awaits an officer",
				Recipients: []models.Role{models.RolePoliceOfficer, models.RoleSergeant},
			})
			out = sub
			return c.record(caseID, "complaint.cadet_approved", map[string]interface{}{"note": note})
		}

		// AttemptCount counts submissions and only ResubmitComplaint bumps it
		to, caseTo, action := models.StageRejectedCadet, models.CaseDraft, "complaint.cadet_rejected"
		if sub.Details.AttemptCount >= MaxComplaintAttempts {
			to, caseTo, action = models.StageVoided, models.CaseVoid, "complaint.voided"
		}
		if err := advance("complaint", sub.ID, &sub.Details.Stage, to); err != nil {
			return err
		}
		sub.Details.LastErrorMessage = note
		if err := c.tx.UpdateComplaintSubmission(c.ctx, sub); err != nil {
			return err
		}
		if err := advance("case", cs.ID, &cs.Details.Status, caseTo); err != nil {
			return err
		}
		cs.Details.UpdatedAt = c.now
		if err := c.tx.UpdateCase(c.ctx, cs); err != nil {
			return err
		}
		evType := models.EventComplaintReturned
		if to == models.StageVoided {
			evType = models.EventComplaintVoided
		}
		c.emit(models.Event{
			Type:    evType,
			CaseID:  caseID,
			Message: note,
			UserIDs: participantIDs(cs, complainants),
		})
		out = sub
		return c.record(caseID, action, map[string]interface{}{
			"note":         note,
			"attemptCount": sub.Details.AttemptCount,
		})
	})
	return out, err
}

// OfficerReview is the officer gate of a complaint. Approval forms the case.
func (e *Engine) OfficerReview(ctx context.Context, p Principal, caseID int64, approved bool, note string) (*models.ComplaintSubmission, error) {
	if err := p.require(CapOfficerReview); err != nil {
		return nil, err
	}
	var out *models.ComplaintSubmission
	err := e.transition(ctx, p, "officer_review", func(c *change) error {
		sub, err := getComplaint(c.ctx, c.tx, caseID)
		if err != nil {
			return err
		}
		if sub.Details.Stage != models.StagePendingOfficer {
			return conflictf("complaint for case %d is %s, not awaiting officer review", caseID, sub.Details.Stage)
		}
		sub.Details.OfficerNote = note
		sub.Details.UpdatedAt = c.now
		if !approved {
			if err := advance("complaint", sub.ID, &sub.Details.Stage, models.StagePendingCadet); err != nil {
				return err
			}
			sub.Details.LastErrorMessage = note
			if err := c.tx.UpdateComplaintSubmission(c.ctx, sub); err != nil {
				return err
			}
			c.emit(models.Event{
				Type:       models.EventComplaintReturned,
				CaseID:     caseID,
				Message:    "Officer returned the complaint to cadet review",
				Recipients: []models.Role{models.RoleCadet},
			})
			out = sub
			return c.record(caseID, "complaint.officer_rejected", map[string]interface{}{"note": note})
		}

		cs, err := getCase(c.ctx, c.tx, caseID)
		if err != nil {
			return err
		}
		if err := advance("complaint", sub.ID, &sub.Details.Stage, models.StageFormed); err != nil {
			return err
		}
		if err := c.tx.UpdateComplaintSubmission(c.ctx, sub); err != nil {
			return err
		}
		if err := advance("case", cs.ID, &cs.Details.Status, models.CaseOpen); err != nil {
			return err
		}
		cs.Details.UpdatedAt = c.now
		if err := c.tx.UpdateCase(c.ctx, cs); err != nil {
			return err
		}
		c.emit(models.Event{
			Type:       models.EventCaseFormed,
			CaseID:     caseID,
			Message:    "Complaint formed into an open case",
			Recipients: []models.Role{models.RoleDetective},
			UserIDs:    []int64{cs.Details.CreatedBy},
		})
		out = sub
		return c.record(caseID, "complaint.formed", map[string]interface{}{"note": note})
	})
	return out, err
}

// ResubmitComplaint sends a returned complaint back to the cadet gate with new content
func (e *Engine) ResubmitComplaint(ctx context.Context, p Principal, caseID int64, in ResubmitInput) (*models.ComplaintSubmission, error) {
	if err := validateCaseFields(in.Title, in.Severity); err != nil {
		return nil, err
	}
	var out *models.ComplaintSubmission
	err := e.transition(ctx, p, "resubmit_complaint", func(c *change) error {
		cs, err := getCase(c.ctx, c.tx, caseID)
		if err != nil {
			return err
		}
		complainants, err := c.tx.ListComplainants(c.ctx, caseID)
		if err != nil {
			return err
		}
		if !p.Superuser() && !isParticipant(p.ID(), cs, complainants) {
			return deniedf("only the creator or a complainant may resubmit case %d", caseID)
		}
		sub, err := getComplaint(c.ctx, c.tx, caseID)
		if err != nil {
			return err
		}
		if !sub.Details.Stage.NeedsRework() {
			return conflictf("complaint for case %d is %s and cannot be resubmitted", caseID, sub.Details.Stage)
		}
		if err := advance("complaint", sub.ID, &sub.Details.Stage, models.StagePendingCadet); err != nil {
			return err
		}
		sub.Details.AttemptCount++
		sub.Details.LastErrorMessage = ""
		sub.Details.UpdatedAt = c.now
		if err := c.tx.UpdateComplaintSubmission(c.ctx, sub); err != nil {
			return err
		}
		if cs.Details.Status == models.CaseDraft {
			if err := advance("case", cs.ID, &cs.Details.Status, models.CaseUnderReview); err != nil {
				return err
			}
		}
		cs.Details.Title = in.Title
		cs.Details.Description = in.Description
		cs.Details.Severity = in.Severity
		cs.Details.UpdatedAt = c.now
		if err := c.tx.UpdateCase(c.ctx, cs); err != nil {
			return err
		}
		c.emit(models.Event{
			Type:       models.EventComplaintSubmitted,
			CaseID:     caseID,
			Message:    "Complaint resubmitted for cadet review",
			Recipients: []models.Role{models.RoleCadet},
		})
		out = sub
		return c.record(caseID, "complaint.resubmitted", map[string]interface{}{"attemptCount": sub.Details.AttemptCount})
	})
	return out, err
}

func isParticipant(userID int64, cs *models.Case, complainants []models.Complainant) bool {
	if cs.Details.CreatedBy == userID {
		return true
	}
	for _, cp := range complainants {
		if cp.Details.UserID == userID {
			return true
		}
	}
	return false
}

func participantIDs(cs *models.Case, complainants []models.Complainant) []int64 {
	ids := []int64{cs.Details.CreatedBy}
	for _, cp := range complainants {
		if cp.Details.UserID != cs.Details.CreatedBy {
			ids = append(ids, cp.Details.UserID)
		}
	}
	return ids
}
