package workflow

import (
	"context"
	"strings"

	"github.com/linesmerrill/police-case-api/models"
)

// VerdictInput is the judge's ruling on a case sent to court
type VerdictInput struct {
	SuspectID             int64          `json:"suspectID"`
	Verdict               models.Verdict `json:"verdict"`
	PunishmentTitle       string         `json:"punishmentTitle"`
	PunishmentDescription string         `json:"punishmentDescription"`
}

// RegisterVerdict records the court session of a case and closes it
func (e *Engine) RegisterVerdict(ctx context.Context, p Principal, caseID int64, in VerdictInput) (*models.CourtSession, error) {
	if err := p.require(CapVerdict); err != nil {
		return nil, err
	}
	if !in.Verdict.Valid() {
		return nil, validationf("verdict must be guilty or not_guilty, got %q", in.Verdict)
	}
	if in.Verdict == models.VerdictGuilty && strings.TrimSpace(in.PunishmentTitle) == "" {
		return nil, validationf("a guilty verdict requires a punishment title")
	}
	var out *models.CourtSession
	err := e.transition(ctx, p, "register_verdict", func(c *change) error {
		cs, err := getCase(c.ctx, c.tx, caseID)
		if err != nil {
			return err
		}
		if cs.Details.Status != models.CaseSentToCourt {
			return conflictf("case %d is %s, verdicts are registered on cases sent to court", caseID, cs.Details.Status)
		}
		s, err := suspectOfCase(c.ctx, c.tx, caseID, in.SuspectID)
		if err != nil {
			return err
		}
		session := &models.CourtSession{Details: models.CourtSessionDetails{
			CaseID:                caseID,
			ConvictedSuspectID:    s.ID,
			Verdict:               in.Verdict,
			PunishmentTitle:       in.PunishmentTitle,
			PunishmentDescription: in.PunishmentDescription,
			JudgeID:               p.ID(),
			CreatedAt:             c.now,
		}}
		if err := c.tx.InsertCourtSession(c.ctx, session); err != nil {
			return err
		}
		if in.Verdict == models.VerdictNotGuilty && s.Details.Status != models.SuspectCleared {
			if err := advance("suspect", s.ID, &s.Details.Status, models.SuspectCleared); err != nil {
				return err
			}
			if err := c.tx.UpdateSuspect(c.ctx, s); err != nil {
				return err
			}
		}
		if err := advance("case", cs.ID, &cs.Details.Status, models.CaseClosed); err != nil {
			return err
		}
		cs.Details.UpdatedAt = c.now
		if err := c.tx.UpdateCase(c.ctx, cs); err != nil {
			return err
		}
		c.emit(models.Event{
			Type:       models.EventVerdictRegistered,
			CaseID:     caseID,
			Message:    "Verdict registered: " + string(in.Verdict),
			Recipients: []models.Role{models.RoleChief, models.RoleCaptain},
			UserIDs:    assignedDetective(cs),
		})
		out = session
		return c.record(caseID, "court.verdict_"+string(in.Verdict), map[string]interface{}{
			"suspectID":       s.ID,
			"punishmentTitle": in.PunishmentTitle,
		})
	})
	return out, err
}
