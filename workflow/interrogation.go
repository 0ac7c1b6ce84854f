package workflow

import (
	"context"

	"github.com/linesmerrill/police-case-api/models"
)

// AssessmentInput is one scoring round by a detective or sergeant
type AssessmentInput struct {
	Role  models.Role `json:"role"`
	Score int         `json:"score"`
	Note  string      `json:"note"`
}

// CaptainInput is the captain's ruling on a fully scored interrogation
type CaptainInput struct {
	Approved bool   `json:"approved"`
	Score    int    `json:"score"`
	Note     string `json:"note"`
}

func validScore(score int) bool {
	return score >= 1 && score <= 10
}

// RecordAssessment writes the detective or sergeant score of a suspect's
// interrogation, creating the record on first use. Scoring is locked while a
// captain or chief decision is outstanding and once the case left investigation.
func (e *Engine) RecordAssessment(ctx context.Context, p Principal, caseID, suspectID int64, in AssessmentInput) (*models.Interrogation, error) {
	if in.Role != models.RoleDetective && in.Role != models.RoleSergeant {
		return nil, validationf("role must be detective or sergeant, got %q", in.Role)
	}
	if err := p.require(CapInterrogationManage); err != nil {
		return nil, err
	}
	if err := p.requireRole(in.Role); err != nil {
		return nil, err
	}
	if !validScore(in.Score) {
		return nil, validationf("score must be between 1 and 10, got %d", in.Score)
	}
	var out *models.Interrogation
	err := e.transition(ctx, p, "record_assessment", func(c *change) error {
		cs, err := getCase(c.ctx, c.tx, caseID)
		if err != nil {
			return err
		}
		if cs.Details.Status.Terminal() {
			return lockedf("case %d is %s", caseID, cs.Details.Status)
		}
		if cs.Details.Status != models.CaseInvestigating {
			return conflictf("case %d is %s, not under investigation", caseID, cs.Details.Status)
		}
		if in.Role == models.RoleDetective {
			if err := requireAssignedDetective(p, cs); err != nil {
				return err
			}
		}
		s, err := suspectOfCase(c.ctx, c.tx, caseID, suspectID)
		if err != nil {
			return err
		}
		if s.Details.Status != models.SuspectArrested {
			return conflictf("suspect %d is %s, only arrested suspects are interrogated", suspectID, s.Details.Status)
		}
		rec, err := findInterrogation(c.ctx, c.tx, caseID, suspectID)
		if err != nil {
			return err
		}
		created := rec == nil
		if created {
			rec = &models.Interrogation{Details: models.InterrogationDetails{
				CaseID:          caseID,
				SuspectID:       suspectID,
				CaptainDecision: models.CaptainPending,
				CaptainOutcome:  models.CaptainOutcomeNone,
				ChiefDecision:   models.ChiefPending,
				CreatedAt:       c.now,
			}}
		}
		before := rec.Details
		switch before.Phase() {
		case models.PhaseAwaitingCaptain:
			return lockedf("interrogation %d awaits the captain's decision", rec.ID)
		case models.PhaseAwaitingChief:
			return lockedf("interrogation %d awaits the chief's review", rec.ID)
		case models.PhaseChiefApproved:
			return lockedf("interrogation %d is concluded", rec.ID)
		}
		if in.Role == models.RoleDetective {
			rec.Details.DetectiveScore = in.Score
			rec.Details.DetectiveNote = in.Note
			rec.Details.DetectiveSubmitted = true
		} else {
			rec.Details.SergeantScore = in.Score
			rec.Details.SergeantNote = in.Note
			rec.Details.SergeantSubmitted = true
		}
		rec.Details.UpdatedAt = c.now
		if err := checkPhase(rec.ID, before, rec.Details); err != nil {
			return err
		}
		if created {
			err = c.tx.InsertInterrogation(c.ctx, rec)
		} else {
			err = c.tx.UpdateInterrogation(c.ctx, rec)
		}
		if err != nil {
			return err
		}
		if rec.Details.AwaitingCaptain() {
			c.emit(models.Event{
				Type:       models.EventInterrogationReady,
				CaseID:     caseID,
				Message:    "Interrogation scored by detective and sergeant",
				Recipients: []models.Role{models.RoleCaptain},
				Data:       map[string]interface{}{"interrogationID": rec.ID},
			})
		}
		out = rec
		return c.record(caseID, "interrogation."+string(in.Role)+"_scored", map[string]interface{}{
			"interrogationID": rec.ID,
			"suspectID":       suspectID,
			"score":           in.Score,
		})
	})
	return out, err
}

// CaptainDecision rules on an interrogation both scorers submitted. Approval
// escalates to the chief; rejection sends both scorers back to work.
func (e *Engine) CaptainDecision(ctx context.Context, p Principal, interrogationID int64, in CaptainInput) (*models.Interrogation, error) {
	if err := p.require(CapCaptainDecision); err != nil {
		return nil, err
	}
	if in.Score != 0 && !validScore(in.Score) {
		return nil, validationf("captain score must be between 1 and 10, got %d", in.Score)
	}
	var out *models.Interrogation
	err := e.transition(ctx, p, "captain_decision", func(c *change) error {
		rec, cs, err := interrogationWithCase(c.ctx, c.tx, interrogationID)
		if err != nil {
			return err
		}
		if cs.Details.Status.Terminal() {
			return lockedf("case %d is %s", cs.ID, cs.Details.Status)
		}
		if rec.Details.AwaitingChief() {
			return lockedf("interrogation %d awaits the chief's review", rec.ID)
		}
		if !rec.Details.AwaitingCaptain() {
			return conflictf("interrogation %d is not awaiting a captain decision", rec.ID)
		}
		before := rec.Details
		rec.Details.CaptainScore = in.Score
		rec.Details.CaptainNote = in.Note
		rec.Details.UpdatedAt = c.now
		action := "interrogation.captain_rejected"
		if in.Approved {
			action = "interrogation.captain_approved"
			rec.Details.CaptainDecision = models.CaptainSubmitted
			rec.Details.CaptainOutcome = models.CaptainOutcomeApproved
			rec.Details.ChiefDecision = models.ChiefPending
			c.emit(models.Event{
				Type:       models.EventInterrogationEscalated,
				CaseID:     cs.ID,
				Message:    "Captain approved an interrogation for chief review",
				Recipients: []models.Role{models.RoleChief},
				Data:       map[string]interface{}{"interrogationID": rec.ID},
			})
		} else {
			rec.Details.CaptainDecision = models.CaptainPending
			rec.Details.CaptainOutcome = models.CaptainOutcomeRejected
			rec.Details.DetectiveSubmitted = false
			rec.Details.SergeantSubmitted = false
			c.emit(models.Event{
				Type:       models.EventInterrogationReturned,
				CaseID:     cs.ID,
				Message:    "Captain rejected the interrogation scores",
				Recipients: []models.Role{models.RoleSergeant},
				UserIDs:    assignedDetective(cs),
				Data:       map[string]interface{}{"interrogationID": rec.ID},
			})
		}
		if err := checkPhase(rec.ID, before, rec.Details); err != nil {
			return err
		}
		if err := c.tx.UpdateInterrogation(c.ctx, rec); err != nil {
			return err
		}
		out = rec
		return c.record(cs.ID, action, map[string]interface{}{
			"interrogationID": rec.ID,
			"suspectID":       rec.Details.SuspectID,
			"note":            in.Note,
		})
	})
	return out, err
}

// ChiefReview rules on a captain-approved interrogation. Approval marks the
// suspect criminal and sends the case to court.
func (e *Engine) ChiefReview(ctx context.Context, p Principal, interrogationID int64, approved bool, note string) (*models.Interrogation, error) {
	if err := p.require(CapChiefReview); err != nil {
		return nil, err
	}
	var out *models.Interrogation
	err := e.transition(ctx, p, "chief_review", func(c *change) error {
		rec, cs, err := interrogationWithCase(c.ctx, c.tx, interrogationID)
		if err != nil {
			return err
		}
		if cs.Details.Status.Terminal() {
			return lockedf("case %d is %s", cs.ID, cs.Details.Status)
		}
		if !rec.Details.AwaitingChief() {
			return conflictf("interrogation %d is not awaiting chief review", rec.ID)
		}
		before := rec.Details
		rec.Details.ChiefNote = note
		rec.Details.UpdatedAt = c.now
		if !approved {
			rec.Details.ChiefDecision = models.ChiefRejected
			rec.Details.CaptainDecision = models.CaptainPending
			rec.Details.CaptainOutcome = models.CaptainOutcomeNone
			if err := checkPhase(rec.ID, before, rec.Details); err != nil {
				return err
			}
			if err := c.tx.UpdateInterrogation(c.ctx, rec); err != nil {
				return err
			}
			c.emit(models.Event{
				Type:       models.EventInterrogationReturned,
				CaseID:     cs.ID,
				Message:    "Chief returned the interrogation to the captain",
				Recipients: []models.Role{models.RoleCaptain},
				Data:       map[string]interface{}{"interrogationID": rec.ID},
			})
			out = rec
			return c.record(cs.ID, "interrogation.chief_rejected", map[string]interface{}{
				"interrogationID": rec.ID,
				"note":            note,
			})
		}

		rec.Details.ChiefDecision = models.ChiefApproved
		if err := checkPhase(rec.ID, before, rec.Details); err != nil {
			return err
		}
		if err := c.tx.UpdateInterrogation(c.ctx, rec); err != nil {
			return err
		}
		s, err := getSuspect(c.ctx, c.tx, rec.Details.SuspectID)
		if err != nil {
			return err
		}
		if err := advance("suspect", s.ID, &s.Details.Status, models.SuspectCriminal); err != nil {
			return err
		}
		if err := c.tx.UpdateSuspect(c.ctx, s); err != nil {
			return err
		}
		if err := advance("case", cs.ID, &cs.Details.Status, models.CaseSentToCourt); err != nil {
			return err
		}
		cs.Details.UpdatedAt = c.now
		if err := c.tx.UpdateCase(c.ctx, cs); err != nil {
			return err
		}
		c.emit(models.Event{
			Type:       models.EventCaseSentToCourt,
			CaseID:     cs.ID,
			Message:    "Case sent to court",
			Recipients: []models.Role{models.RoleJudge, models.RoleCaptain},
			UserIDs:    assignedDetective(cs),
			Data:       map[string]interface{}{"suspectID": s.ID},
		})
		out = rec
		return c.record(cs.ID, "case.sent_to_court", map[string]interface{}{
			"interrogationID": rec.ID,
			"suspectID":       s.ID,
			"note":            note,
		})
	})
	return out, err
}

func findInterrogation(ctx context.Context, tx Tx, caseID, suspectID int64) (*models.Interrogation, error) {
	all, err := tx.ListInterrogations(ctx, caseID)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].Details.SuspectID == suspectID {
			return &all[i], nil
		}
	}
	return nil, nil
}

func interrogationWithCase(ctx context.Context, tx Tx, id int64) (*models.Interrogation, *models.Case, error) {
	rec, err := getInterrogation(ctx, tx, id)
	if err != nil {
		return nil, nil, err
	}
	cs, err := getCase(ctx, tx, rec.Details.CaseID)
	if err != nil {
		return nil, nil, err
	}
	return rec, cs, nil
}

func assignedDetective(cs *models.Case) []int64 {
	if cs.Details.AssignedDetective == nil {
		return nil
	}
	return []int64{*cs.Details.AssignedDetective}
}
