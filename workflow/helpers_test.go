package workflow_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/linesmerrill/police-case-api/databases"
	"github.com/linesmerrill/police-case-api/models"
	"github.com/linesmerrill/police-case-api/workflow"
)

// Fixed actors used across the workflow tests
const (
	complainantID = 1
	citizenID     = 2
	cadetID       = 10
	officerID     = 20
	patrolID      = 21
	detectiveID   = 30
	otherDetID    = 31
	sergeantID    = 40
	captainID     = 50
	chiefID       = 60
	judgeID       = 70
	suspectUserID = 77
)

var bg = context.Background()

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type recorder struct {
	mu     sync.Mutex
	events []models.Event
}

func (r *recorder) Publish(_ context.Context, events []models.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
	return nil
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

type fakeGateway struct {
	calls int
	err   error
}

func (g *fakeGateway) StartCheckout(_ context.Context, payment models.BailPayment) (workflow.Checkout, error) {
	g.calls++
	if g.err != nil {
		return workflow.Checkout{}, g.err
	}
	return workflow.Checkout{
		Authority:   fmt.Sprintf("cs_test_%d", payment.ID),
		RedirectURL: fmt.Sprintf("https://checkout.example/%d", payment.ID),
	}, nil
}

type fixture struct {
	t       *testing.T
	engine  *workflow.Engine
	store   *databases.MemoryStore
	clock   *clock
	events  *recorder
	gateway *fakeGateway
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		t:       t,
		store:   databases.NewMemoryStore(),
		clock:   &clock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)},
		events:  &recorder{},
		gateway: &fakeGateway{},
	}
	codes := 0
	f.engine = workflow.New(f.store, workflow.Options{
		Clock: f.clock.Now,
		NewCode: func() string {
			codes++
			return fmt.Sprintf("CODE%04d", codes)
		},
		Publisher: f.events,
		Gateway:   f.gateway,
		Logger:    zap.NewNop(),
	})
	return f
}

func actor(id int64, roles ...models.Role) workflow.Principal {
	return workflow.Resolve(models.Actor{ID: id, NationalID: fmt.Sprintf("%010d", id), Roles: roles})
}

var (
	complainant = actor(complainantID, models.RoleComplainant)
	citizen     = actor(citizenID, models.RoleBaseUser)
	cadet       = actor(cadetID, models.RoleCadet)
	officer     = actor(officerID, models.RolePoliceOfficer)
	patrol      = actor(patrolID, models.RolePatrolOfficer)
	detective   = actor(detectiveID, models.RoleDetective)
	otherDet    = actor(otherDetID, models.RoleDetective)
	sergeant    = actor(sergeantID, models.RoleSergeant)
	captain     = actor(captainID, models.RoleCaptain)
	chief       = actor(chiefID, models.RoleChief)
	judge       = actor(judgeID, models.RoleJudge)
	suspectUser = actor(suspectUserID, models.RoleBaseUser)
)

func assertKind(t *testing.T, want workflow.Kind, err error) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, want, workflow.KindOf(err), err.Error())
}

// openCase forms a scene case as the chief, which skips approval
func (f *fixture) openCase(severity models.Severity) *models.Case {
	f.t.Helper()
	cs, err := f.engine.FormSceneCase(bg, chief, workflow.SceneInput{Title: "Robbery on 5th", Severity: severity})
	require.NoError(f.t, err)
	require.Equal(f.t, models.CaseOpen, cs.Details.Status)
	return cs
}

// investigating returns an open case taken by the detective
func (f *fixture) investigating(severity models.Severity) *models.Case {
	f.t.Helper()
	cs := f.openCase(severity)
	cs, err := f.engine.DetectiveTakeCase(bg, detective, cs.ID)
	require.NoError(f.t, err)
	return cs
}

func (f *fixture) addSuspect(caseID int64, name, nationalID string) *models.Suspect {
	f.t.Helper()
	person := int64(suspectUserID)
	s, err := f.engine.AddSuspect(bg, detective, caseID, workflow.SuspectInput{FullName: name, NationalID: nationalID, PersonID: &person})
	require.NoError(f.t, err)
	return s
}

// arrested returns an investigating case with one arrested suspect
func (f *fixture) arrested(severity models.Severity) (*models.Case, *models.Suspect) {
	f.t.Helper()
	cs := f.investigating(severity)
	s := f.addSuspect(cs.ID, "John Doe", "9990001112")
	sub, err := f.engine.SubmitMainSuspects(bg, detective, cs.ID, []int64{s.ID}, "seen on camera")
	require.NoError(f.t, err)
	_, err = f.engine.SergeantReview(bg, sergeant, sub.ID, true, "agreed")
	require.NoError(f.t, err)
	s.Details.Status = models.SuspectArrested
	return cs, s
}

// scored has both scorers submit, leaving the interrogation with the captain
func (f *fixture) scored(caseID, suspectID int64) *models.Interrogation {
	f.t.Helper()
	_, err := f.engine.RecordAssessment(bg, detective, caseID, suspectID, workflow.AssessmentInput{Role: models.RoleDetective, Score: 8})
	require.NoError(f.t, err)
	rec, err := f.engine.RecordAssessment(bg, sergeant, caseID, suspectID, workflow.AssessmentInput{Role: models.RoleSergeant, Score: 7})
	require.NoError(f.t, err)
	require.Equal(f.t, models.PhaseAwaitingCaptain, rec.Details.Phase())
	return rec
}

// inCourt returns a case the chief sent to court with its criminal suspect
func (f *fixture) inCourt(severity models.Severity) (*models.Case, *models.Suspect) {
	f.t.Helper()
	cs, s := f.arrested(severity)
	rec := f.scored(cs.ID, s.ID)
	_, err := f.engine.CaptainDecision(bg, captain, rec.ID, workflow.CaptainInput{Approved: true, Score: 8})
	require.NoError(f.t, err)
	_, err = f.engine.ChiefReview(bg, chief, rec.ID, true, "send it")
	require.NoError(f.t, err)
	return cs, s
}

func (f *fixture) logs(caseID int64) []models.CaseLog {
	f.t.Helper()
	logs, err := f.engine.CaseLogs(bg, workflow.System, caseID)
	require.NoError(f.t, err)
	return logs
}

func (f *fixture) summary(caseID int64) *models.CaseSummary {
	f.t.Helper()
	s, err := f.engine.CaseSummary(bg, workflow.System, caseID)
	require.NoError(f.t, err)
	return s
}

func actions(logs []models.CaseLog) []string {
	out := make([]string, 0, len(logs))
	for _, l := range logs {
		out = append(out, l.Details.Action)
	}
	return out
}
