package workflow

import (
	"context"
	"strings"

	"github.com/linesmerrill/police-case-api/models"
)

// ComplaintInput opens a complaint case
type ComplaintInput struct {
	Title                  string          `json:"title"`
	Description            string          `json:"description"`
	Severity               models.Severity `json:"severity"`
	AdditionalComplainants []int64         `json:"additionalComplainants"`
}

// WitnessInput is one witness captured at a scene
type WitnessInput struct {
	FullName   string `json:"fullName"`
	NationalID string `json:"nationalID"`
	Phone      string `json:"phone"`
	Statement  string `json:"statement"`
}

// SceneInput opens a scene case
type SceneInput struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Severity    models.Severity `json:"severity"`
	Witnesses   []WitnessInput  `json:"witnesses"`
}

func validateCaseFields(title string, severity models.Severity) error {
	if strings.TrimSpace(title) == "" {
		return validationf("title is required")
	}
	if !severity.Valid() {
		return validationf("severity must be between 1 and 4, got %d", severity)
	}
	return nil
}

// FormComplaintCase opens a complaint-sourced case awaiting cadet review
func (e *Engine) FormComplaintCase(ctx context.Context, p Principal, in ComplaintInput) (*models.Case, error) {
	if err := validateCaseFields(in.Title, in.Severity); err != nil {
		return nil, err
	}
	var out *models.Case
	err := e.transition(ctx, p, "form_complaint_case", func(c *change) error {
		cs := &models.Case{Details: models.CaseDetails{
			Source:      models.SourceComplaint,
			Status:      models.CaseUnderReview,
			Severity:    in.Severity,
			Title:       in.Title,
			Description: in.Description,
			CreatedBy:   p.ID(),
			CreatorRank: p.Rank(),
			CreatedAt:   c.now,
			UpdatedAt:   c.now,
		}}
		if err := c.tx.InsertCase(c.ctx, cs); err != nil {
			return err
		}
		sub := &models.ComplaintSubmission{Details: models.ComplaintSubmissionDetails{
			CaseID:       cs.ID,
			Stage:        models.StagePendingCadet,
			AttemptCount: 1,
			UpdatedAt:    c.now,
		}}
		if err := c.tx.InsertComplaintSubmission(c.ctx, sub); err != nil {
			return err
		}
		seen := map[int64]bool{}
		for _, uid := range append([]int64{p.ID()}, in.AdditionalComplainants...) {
			if seen[uid] {
				continue
			}
			seen[uid] = true
			err := c.tx.InsertComplainant(c.ctx, &models.Complainant{Details: models.ComplainantDetails{
				CaseID:    cs.ID,
				UserID:    uid,
				Status:    models.ComplainantPending,
				CreatedAt: c.now,
			}})
			if err != nil {
				return err
			}
		}
		c.emit(models.Event{
			Type:       models.EventComplaintSubmitted,
			CaseID:     cs.ID,
			Message:    "New complaint awaiting cadet review",
			Recipients: []models.Role{models.RoleCadet},
		})
		out = cs
		return c.record(cs.ID, "complaint.submitted", map[string]interface{}{"complainants": len(seen)})
	})
	return out, err
}

// FormSceneCase opens a scene-sourced case. Reports by the top rank skip approval.
func (e *Engine) FormSceneCase(ctx context.Context, p Principal, in SceneInput) (*models.Case, error) {
	if err := p.require(CapSceneCreate); err != nil {
		return nil, err
	}
	if err := validateCaseFields(in.Title, in.Severity); err != nil {
		return nil, err
	}
	for i, w := range in.Witnesses {
		if strings.TrimSpace(w.FullName) == "" {
			return nil, validationf("witness %d has no name", i)
		}
	}
	var out *models.Case
	err := e.transition(ctx, p, "form_scene_case", func(c *change) error {
		status := models.CaseUnderReview
		if p.Rank() >= TopRank || p.Superuser() {
			status = models.CaseOpen
		}
		cs := &models.Case{Details: models.CaseDetails{
			Source:      models.SourceScene,
			Status:      status,
			Severity:    in.Severity,
			Title:       in.Title,
			Description: in.Description,
			CreatedBy:   p.ID(),
			CreatorRank: p.Rank(),
			CreatedAt:   c.now,
			UpdatedAt:   c.now,
		}}
		if err := c.tx.InsertCase(c.ctx, cs); err != nil {
			return err
		}
		for _, w := range in.Witnesses {
			err := c.tx.InsertWitness(c.ctx, &models.SceneWitness{Details: models.SceneWitnessDetails{
				CaseID:     cs.ID,
				FullName:   w.FullName,
				NationalID: w.NationalID,
				Phone:      w.Phone,
				Statement:  w.Statement,
			}})
			if err != nil {
				return err
			}
		}
		out = cs
		if status == models.CaseOpen {
			c.emit(models.Event{
				Type:       models.EventCaseFormed,
				CaseID:     cs.ID,
				Message:    "Scene case opened",
				Recipients: []models.Role{models.RoleDetective},
			})
			return c.record(cs.ID, "scene.created_open", map[string]interface{}{"witnesses": len(in.Witnesses)})
		}
		c.emit(models.Event{
			Type:       models.EventSceneSubmitted,
			CaseID:     cs.ID,
			Message:    "Scene report awaiting superior approval",
			Recipients: superiorsOf(p.Rank()),
		})
		return c.record(cs.ID, "scene.submitted", map[string]interface{}{"witnesses": len(in.Witnesses)})
	})
	return out, err
}

func superiorsOf(rank int) []models.Role {
	var out []models.Role
	for _, r := range models.AllRoles {
		if policeRank[r] > rank {
			out = append(out, r)
		}
	}
	return out
}

// ApproveScene opens a scene case awaiting review
func (e *Engine) ApproveScene(ctx context.Context, p Principal, caseID int64, note string) (*models.Case, error) {
	return e.reviewScene(ctx, p, caseID, true, note)
}

// DenyScene voids a scene case awaiting review
func (e *Engine) DenyScene(ctx context.Context, p Principal, caseID int64, note string) (*models.Case, error) {
	return e.reviewScene(ctx, p, caseID, false, note)
}

func (e *Engine) reviewScene(ctx context.Context, p Principal, caseID int64, approved bool, note string) (*models.Case, error) {
	op := "deny_scene"
	if approved {
		op = "approve_scene"
	}
	var out *models.Case
	err := e.transition(ctx, p, op, func(c *change) error {
		cs, err := getCase(c.ctx, c.tx, caseID)
		if err != nil {
			return err
		}
		if cs.Details.Source != models.SourceScene {
			return validationf("case %d is not a scene report", caseID)
		}
		if cs.Details.Status != models.CaseUnderReview {
			return conflictf("case %d is %s, not under review", caseID, cs.Details.Status)
		}
		if !p.Superuser() && p.Rank() <= cs.Details.CreatorRank {
			return deniedf("approver must outrank the reporting officer")
		}
		to, action, evType := models.CaseVoid, "scene.denied", models.EventSceneDenied
		if approved {
			to, action, evType = models.CaseOpen, "scene.approved", models.EventCaseFormed
		}
		if err := advance("case", cs.ID, &cs.Details.Status, to); err != nil {
			return err
		}
		cs.Details.UpdatedAt = c.now
		if err := c.tx.UpdateCase(c.ctx, cs); err != nil {
			return err
		}
		c.emit(models.Event{
			Type:    evType,
			CaseID:  cs.ID,
			Message: "Scene report " + strings.TrimPrefix(action, "scene."),
			UserIDs: []int64{cs.Details.CreatedBy},
		})
		out = cs
		return c.record(cs.ID, action, map[string]interface{}{"note": note})
	})
	return out, err
}

// AddSceneComplainant attaches a complainant to a scene case that is still live
func (e *Engine) AddSceneComplainant(ctx context.Context, p Principal, caseID, userID int64) (*models.Complainant, error) {
	if err := p.require(CapSceneAddComplainant); err != nil {
		return nil, err
	}
	var out *models.Complainant
	err := e.transition(ctx, p, "add_scene_complainant", func(c *change) error {
		cs, err := getCase(c.ctx, c.tx, caseID)
		if err != nil {
			return err
		}
		if cs.Details.Source != models.SourceScene {
			return validationf("case %d is not a scene report", caseID)
		}
		if cs.Details.Status == models.CaseClosed || cs.Details.Status == models.CaseVoid {
			return conflictf("case %d is %s", caseID, cs.Details.Status)
		}
		existing, err := c.tx.ListComplainants(c.ctx, caseID)
		if err != nil {
			return err
		}
		for _, ex := range existing {
			if ex.Details.UserID == userID {
				return conflictf("user %d is already a complainant on case %d", userID, caseID)
			}
		}
		cp := &models.Complainant{Details: models.ComplainantDetails{
			CaseID:    caseID,
			UserID:    userID,
			Status:    models.ComplainantPending,
			CreatedAt: c.now,
		}}
		if err := c.tx.InsertComplainant(c.ctx, cp); err != nil {
			return err
		}
		out = cp
		return c.record(caseID, "scene.complainant_added", map[string]interface{}{"userID": userID})
	})
	return out, err
}

// DetectiveTakeCase assigns the calling detective to an open, unassigned case
func (e *Engine) DetectiveTakeCase(ctx context.Context, p Principal, caseID int64) (*models.Case, error) {
	if err := p.requireRole(models.RoleDetective); err != nil {
		return nil, err
	}
	return e.assign(ctx, p, "detective_take_case", caseID, p.ID())
}

// AssignDetective assigns a detective to an open, unassigned case on their behalf
func (e *Engine) AssignDetective(ctx context.Context, p Principal, caseID, detectiveID int64) (*models.Case, error) {
	if err := p.require(CapAssignDetective); err != nil {
		return nil, err
	}
	if detectiveID <= 0 {
		return nil, validationf("detective id is required")
	}
	return e.assign(ctx, p, "assign_detective", caseID, detectiveID)
}

func (e *Engine) assign(ctx context.Context, p Principal, op string, caseID, detectiveID int64) (*models.Case, error) {
	var out *models.Case
	err := e.transition(ctx, p, op, func(c *change) error {
		cs, err := getCase(c.ctx, c.tx, caseID)
		if err != nil {
			return err
		}
		if cs.Details.AssignedDetective != nil {
			return conflictf("case %d is already assigned to detective %d", caseID, *cs.Details.AssignedDetective)
		}
		if err := advance("case", cs.ID, &cs.Details.Status, models.CaseInvestigating); err != nil {
			return err
		}
		cs.Details.AssignedDetective = &detectiveID
		cs.Details.UpdatedAt = c.now
		if err := c.tx.UpdateCase(c.ctx, cs); err != nil {
			return err
		}
		c.emit(models.Event{
			Type:    models.EventCaseAssigned,
			CaseID:  cs.ID,
			Message: "Case assigned for investigation",
			UserIDs: []int64{detectiveID},
		})
		out = cs
		return c.record(cs.ID, "case.detective_assigned", map[string]interface{}{"detectiveID": detectiveID})
	})
	return out, err
}

// requireAssignedDetective allows only the detective working the case
func requireAssignedDetective(p Principal, cs *models.Case) error {
	if p.Superuser() {
		return nil
	}
	if !p.HasRole(models.RoleDetective) || cs.Details.AssignedDetective == nil || *cs.Details.AssignedDetective != p.ID() {
		return deniedf("only the assigned detective may act on case %d", cs.ID)
	}
	return nil
}
