package workflow

import (
	"context"
	"strings"

	"github.com/linesmerrill/police-case-api/models"
)

// SuspectInput registers a person of interest on a case
type SuspectInput struct {
	FullName   string `json:"fullName"`
	NationalID string `json:"nationalID"`
	PhotoURL   string `json:"photoURL"`
	PersonID   *int64 `json:"personID"`
}

// AddSuspect registers a suspect on a case under investigation
func (e *Engine) AddSuspect(ctx context.Context, p Principal, caseID int64, in SuspectInput) (*models.Suspect, error) {
	if err := p.require(CapSuspectManage); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.FullName) == "" {
		return nil, validationf("fullName is required")
	}
	var out *models.Suspect
	err := e.transition(ctx, p, "add_suspect", func(c *change) error {
		cs, err := getCase(c.ctx, c.tx, caseID)
		if err != nil {
			return err
		}
		if err := requireAssignedDetective(p, cs); err != nil {
			return err
		}
		if cs.Details.Status != models.CaseInvestigating {
			return conflictf("case %d is %s, suspects are added while investigating", caseID, cs.Details.Status)
		}
		s := &models.Suspect{Details: models.SuspectDetails{
			CaseID:     caseID,
			FullName:   in.FullName,
			NationalID: in.NationalID,
			PhotoURL:   in.PhotoURL,
			PersonID:   in.PersonID,
			Status:     models.SuspectUnderSuspicion,
			AddedBy:    p.ID(),
			MarkedAt:   c.now,
		}}
		if err := c.tx.InsertSuspect(c.ctx, s); err != nil {
			return err
		}
		out = s
		return c.record(caseID, "suspect.added", map[string]interface{}{"suspectID": s.ID, "fullName": s.Details.FullName})
	})
	return out, err
}

// SubmitMainSuspects nominates the main suspects of a case for sergeant review.
// At most one submission per case may be pending.
func (e *Engine) SubmitMainSuspects(ctx context.Context, p Principal, caseID int64, suspectIDs []int64, reason string) (*models.SuspectSubmission, error) {
	if len(suspectIDs) == 0 {
		return nil, validationf("at least one suspect is required")
	}
	if strings.TrimSpace(reason) == "" {
		return nil, validationf("a reason is required")
	}
	ids := dedupe(suspectIDs)
	var out *models.SuspectSubmission
	err := e.transition(ctx, p, "submit_main_suspects", func(c *change) error {
		cs, err := getCase(c.ctx, c.tx, caseID)
		if err != nil {
			return err
		}
		if err := requireAssignedDetective(p, cs); err != nil {
			return err
		}
		if cs.Details.Status != models.CaseInvestigating {
			return conflictf("case %d is %s, not under investigation", caseID, cs.Details.Status)
		}
		existing, err := c.tx.ListSuspectSubmissions(c.ctx, caseID)
		if err != nil {
			return err
		}
		for _, s := range existing {
			if s.Details.Status == models.SubmissionPending {
				return conflictf("case %d already has pending submission %d", caseID, s.ID)
			}
		}
		for _, id := range ids {
			s, err := suspectOfCase(c.ctx, c.tx, caseID, id)
			if err != nil {
				return err
			}
			// approval must be able to arrest every nominee
			if st := s.Details.Status; st != models.SuspectUnderSuspicion && st != models.SuspectArrested {
				return conflictf("suspect %d is %s and cannot be nominated", id, st)
			}
		}
		sub := &models.SuspectSubmission{Details: models.SuspectSubmissionDetails{
			CaseID:          caseID,
			SuspectIDs:      ids,
			DetectiveReason: reason,
			Status:          models.SubmissionPending,
			SubmittedBy:     p.ID(),
			CreatedAt:       c.now,
		}}
		if err := c.tx.InsertSuspectSubmission(c.ctx, sub); err != nil {
			return err
		}
		c.emit(models.Event{
			Type:       models.EventSubmissionCreated,
			CaseID:     caseID,
			Message:    "Main suspects submitted for review",
			Recipients: []models.Role{models.RoleSergeant},
		})
		out = sub
		return c.record(caseID, "suspects.submitted", map[string]interface{}{
			"submissionID": sub.ID,
			"suspectIDs":   ids,
			"reason":       reason,
		})
	})
	return out, err
}

// SergeantReview resolves a pending submission. Approval arrests every listed suspect.
func (e *Engine) SergeantReview(ctx context.Context, p Principal, submissionID int64, approved bool, message string) (*models.SuspectSubmission, error) {
	if err := p.requireRole(models.RoleSergeant); err != nil {
		return nil, err
	}
	var out *models.SuspectSubmission
	err := e.transition(ctx, p, "sergeant_review", func(c *change) error {
		sub, err := getSubmission(c.ctx, c.tx, submissionID)
		if err != nil {
			return err
		}
		if sub.Details.Status != models.SubmissionPending {
			return conflictf("submission %d is already %s", submissionID, sub.Details.Status)
		}
		to := models.SubmissionRejected
		if approved {
			to = models.SubmissionApproved
		}
		if err := advance("submission", sub.ID, &sub.Details.Status, to); err != nil {
			return err
		}
		reviewedAt := c.now
		sub.Details.SergeantMessage = message
		sub.Details.ReviewedBy = p.ID()
		sub.Details.ReviewedAt = &reviewedAt
		if err := c.tx.UpdateSuspectSubmission(c.ctx, sub); err != nil {
			return err
		}
		if approved {
			for _, id := range sub.Details.SuspectIDs {
				s, err := suspectOfCase(c.ctx, c.tx, sub.Details.CaseID, id)
				if err != nil {
					return err
				}
				if s.Details.Status == models.SuspectArrested {
					continue
				}
				if err := advance("suspect", s.ID, &s.Details.Status, models.SuspectArrested); err != nil {
					return err
				}
				if err := c.tx.UpdateSuspect(c.ctx, s); err != nil {
					return err
				}
			}
		}
		cs, err := getCase(c.ctx, c.tx, sub.Details.CaseID)
		if err != nil {
			return err
		}
		ev := models.Event{
			Type:    models.EventSubmissionRejected,
			CaseID:  sub.Details.CaseID,
			Message: message,
		}
		if cs.Details.AssignedDetective != nil {
			ev.UserIDs = []int64{*cs.Details.AssignedDetective}
		}
		if approved {
			ev.Type = models.EventSubmissionApproved
			ev.Recipients = []models.Role{models.RoleDetective, models.RoleSergeant}
		}
		c.emit(ev)
		out = sub
		return c.record(sub.Details.CaseID, "suspects."+string(to), map[string]interface{}{
			"submissionID": sub.ID,
			"message":      message,
		})
	})
	return out, err
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
