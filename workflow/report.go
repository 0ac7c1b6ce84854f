package workflow

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/linesmerrill/police-case-api/models"
)

// High alert listing rules
const (
	HighAlertMinDays        = 30
	HighAlertRewardPerPoint = 20_000_000
)

func canSee(p Principal, cs *models.Case, complainants []models.Complainant) bool {
	if p.Can(CapReadAll) || isParticipant(p.ID(), cs, complainants) {
		return true
	}
	return cs.Details.AssignedDetective != nil && *cs.Details.AssignedDetective == p.ID()
}

// CaseSummary assembles one consistent snapshot of a case and everything attached to it
func (e *Engine) CaseSummary(ctx context.Context, p Principal, caseID int64) (*models.CaseSummary, error) {
	var out models.CaseSummary
	err := e.view(ctx, func(ctx context.Context, tx Tx) error {
		cs, err := getCase(ctx, tx, caseID)
		if err != nil {
			return err
		}
		if out.Complainants, err = tx.ListComplainants(ctx, caseID); err != nil {
			return err
		}
		if !canSee(p, cs, out.Complainants) {
			return deniedf("case %d is not visible to you", caseID)
		}
		out.Case = *cs
		out.SeverityLabel = cs.Details.Severity.Label()
		if cs.Details.Source == models.SourceComplaint {
			if out.Complaint, err = getComplaint(ctx, tx, caseID); err != nil {
				return err
			}
		}
		if out.Witnesses, err = tx.ListWitnesses(ctx, caseID); err != nil {
			return err
		}
		if out.Suspects, err = tx.ListSuspects(ctx, caseID); err != nil {
			return err
		}
		if out.Submissions, err = tx.ListSuspectSubmissions(ctx, caseID); err != nil {
			return err
		}
		if out.Interrogations, err = tx.ListInterrogations(ctx, caseID); err != nil {
			return err
		}
		sessions, err := tx.ListCourtSessions(ctx, caseID)
		if err != nil {
			return err
		}
		if len(sessions) > 0 {
			out.CourtSession = &sessions[len(sessions)-1]
		}
		if out.Payments, err = tx.ListPayments(ctx, caseID); err != nil {
			return err
		}
		if out.Logs, err = tx.ListLogs(ctx, caseID); err != nil {
			return err
		}
		out.InvolvedUsers = involvedUsers(&out)
		return nil
	})
	if err != nil {
		return nil, err
	}
	out.EvidenceCounts = map[string]int64{}
	if e.evidence != nil {
		counts, err := e.evidence.CountByCase(ctx, caseID)
		if err != nil {
			return nil, fmt.Errorf("count evidence for case %d: %w", caseID, err)
		}
		out.EvidenceCounts = counts
	}
	return &out, nil
}

func involvedUsers(s *models.CaseSummary) []int64 {
	seen := map[int64]bool{}
	var ids []int64
	add := func(id int64) {
		if id > 0 && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	add(s.Case.Details.CreatedBy)
	if s.Case.Details.AssignedDetective != nil {
		add(*s.Case.Details.AssignedDetective)
	}
	for _, c := range s.Complainants {
		add(c.Details.UserID)
	}
	for _, l := range s.Logs {
		add(l.Details.ActorID)
	}
	return ids
}

// CaseLogs returns the audit trail of a case in append order
func (e *Engine) CaseLogs(ctx context.Context, p Principal, caseID int64) ([]models.CaseLog, error) {
	var out []models.CaseLog
	err := e.view(ctx, func(ctx context.Context, tx Tx) error {
		cs, err := getCase(ctx, tx, caseID)
		if err != nil {
			return err
		}
		complainants, err := tx.ListComplainants(ctx, caseID)
		if err != nil {
			return err
		}
		if !canSee(p, cs, complainants) {
			return deniedf("case %d is not visible to you", caseID)
		}
		out, err = tx.ListLogs(ctx, caseID)
		return err
	})
	return out, err
}

// ListCases returns the cases visible to p, optionally filtered by status
func (e *Engine) ListCases(ctx context.Context, p Principal, status models.CaseStatus) ([]models.Case, error) {
	var out []models.Case
	err := e.view(ctx, func(ctx context.Context, tx Tx) error {
		all, err := tx.ListCases(ctx)
		if err != nil {
			return err
		}
		var mine map[int64]bool
		if !p.Can(CapReadAll) {
			complainants, err := tx.ListComplainants(ctx, 0)
			if err != nil {
				return err
			}
			mine = map[int64]bool{}
			for _, c := range complainants {
				if c.Details.UserID == p.ID() {
					mine[c.Details.CaseID] = true
				}
			}
		}
		out = make([]models.Case, 0, len(all))
		for _, cs := range all {
			if status != "" && cs.Details.Status != status {
				continue
			}
			if mine != nil && !mine[cs.ID] && cs.Details.CreatedBy != p.ID() {
				continue
			}
			out = append(out, cs)
		}
		return nil
	})
	return out, err
}

// GlobalReport counts the state of every workflow in one snapshot
func (e *Engine) GlobalReport(ctx context.Context, p Principal) (*models.GlobalReport, error) {
	if err := p.require(CapDashboardRead); err != nil {
		return nil, err
	}
	r := models.GlobalReport{
		CasesByStatus:    map[models.CaseStatus]int64{},
		CasesBySeverity:  map[string]int64{},
		SuspectsByStatus: map[models.SuspectStatus]int64{},
		PaymentsByStatus: map[models.PaymentStatus]int64{},
		TipsByStatus:     map[models.TipStatus]int64{},
	}
	err := e.view(ctx, func(ctx context.Context, tx Tx) error {
		cases, err := tx.ListCases(ctx)
		if err != nil {
			return err
		}
		for _, cs := range cases {
			r.TotalCases++
			r.CasesByStatus[cs.Details.Status]++
			r.CasesBySeverity[cs.Details.Severity.Label()]++
			switch cs.Details.Status {
			case models.CaseClosed:
				r.ResolvedCases++
			case models.CaseOpen, models.CaseInvestigating, models.CaseSentToCourt:
				r.ActiveCases++
			}
		}
		complaints, err := tx.ListComplaintSubmissions(ctx)
		if err != nil {
			return err
		}
		for _, s := range complaints {
			switch {
			case s.Details.Stage == models.StagePendingCadet || s.Details.Stage == models.StagePendingOfficer:
				r.ComplaintsInReview++
			case s.Details.Stage.NeedsRework():
				r.ComplaintsNeedRework++
			}
		}
		suspects, err := tx.ListSuspects(ctx, 0)
		if err != nil {
			return err
		}
		for _, s := range suspects {
			r.SuspectsByStatus[s.Details.Status]++
		}
		submissions, err := tx.ListSuspectSubmissions(ctx, 0)
		if err != nil {
			return err
		}
		for _, s := range submissions {
			if s.Details.Status == models.SubmissionPending {
				r.PendingSubmissions++
			}
		}
		interrogations, err := tx.ListInterrogations(ctx, 0)
		if err != nil {
			return err
		}
		for _, i := range interrogations {
			switch i.Details.Phase() {
			case models.PhaseAwaitingCaptain:
				r.AwaitingCaptain++
			case models.PhaseAwaitingChief:
				r.AwaitingChief++
			}
		}
		payments, err := tx.ListPayments(ctx, 0)
		if err != nil {
			return err
		}
		for _, pay := range payments {
			r.PaymentsByStatus[pay.Details.Status]++
		}
		tips, err := tx.ListTips(ctx)
		if err != nil {
			return err
		}
		for _, t := range tips {
			r.TipsByStatus[t.Details.Status]++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// HighAlertList ranks people wanted for more than HighAlertMinDays on live cases.
// Rank is days wanted times the highest case severity, the reward scales with rank.
func (e *Engine) HighAlertList(ctx context.Context) ([]models.HighAlertEntry, error) {
	now := e.now()
	var out []models.HighAlertEntry
	err := e.view(ctx, func(ctx context.Context, tx Tx) error {
		cases, err := tx.ListCases(ctx)
		if err != nil {
			return err
		}
		live := make(map[int64]models.Severity, len(cases))
		for _, cs := range cases {
			if cs.Details.Status != models.CaseClosed && cs.Details.Status != models.CaseVoid {
				live[cs.ID] = cs.Details.Severity
			}
		}
		suspects, err := tx.ListSuspects(ctx, 0)
		if err != nil {
			return err
		}
		groups := map[string]*models.HighAlertEntry{}
		var order []string
		for _, s := range suspects {
			severity, ok := live[s.Details.CaseID]
			// arrested, convicted and cleared people are not wanted
			if !ok || s.Details.Status != models.SuspectUnderSuspicion {
				continue
			}
			key := highAlertKey(s)
			g := groups[key]
			if g == nil {
				g = &models.HighAlertEntry{GroupKey: key, NationalID: s.Details.NationalID}
				groups[key] = g
				order = append(order, key)
			}
			g.SuspectIDs = append(g.SuspectIDs, s.ID)
			days := int64(now.Sub(s.Details.MarkedAt) / (24 * time.Hour))
			if days > g.DaysWanted {
				g.DaysWanted = days
				g.FullName = s.Details.FullName
				g.PhotoURL = s.Details.PhotoURL
			}
			if int(severity) > g.MaxSeverity {
				g.MaxSeverity = int(severity)
			}
		}
		for _, id := range order {
			g := groups[id]
			if g.DaysWanted <= HighAlertMinDays {
				continue
			}
			g.Rank = g.DaysWanted * int64(g.MaxSeverity)
			g.Reward = g.Rank * HighAlertRewardPerPoint
			out = append(out, *g)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Rank > out[j].Rank })
	return out, nil
}

// highAlertKey groups suspects by national id. A suspect without one is its own group.
func highAlertKey(s models.Suspect) string {
	if id := strings.TrimSpace(s.Details.NationalID); id != "" {
		return id
	}
	return fmt.Sprintf("case-%d-suspect-%d", s.Details.CaseID, s.ID)
}

// PublishHighAlertDigest sends the current high alert list to the notification channels
func (e *Engine) PublishHighAlertDigest(ctx context.Context) (int, error) {
	list, err := e.HighAlertList(ctx)
	if err != nil {
		return 0, err
	}
	if len(list) == 0 {
		return 0, nil
	}
	keys := make([]string, 0, len(list))
	for _, entry := range list {
		keys = append(keys, entry.GroupKey)
	}
	e.log.Info("publishing high alert digest", zap.Int("entries", len(list)))
	e.publish(ctx, []models.Event{{
		Type:       models.EventHighAlertDigest,
		Message:    fmt.Sprintf("%d people are on the high alert list", len(list)),
		Recipients: []models.Role{models.RoleDetective, models.RoleSergeant, models.RoleCaptain, models.RoleChief},
		Data:       map[string]interface{}{"groups": keys, "top": list[0]},
		OccurredAt: e.now().UTC(),
	}})
	return len(list), nil
}
