package workflow

import (
	"context"

	"github.com/linesmerrill/police-case-api/models"
)

// Store runs workflow transactions against durable state.
//
// RunInTx commits every write made through tx when fn returns nil and discards
// them all otherwise. Updates are version checked: writing an entity whose
// version no longer matches the stored one fails with ErrStaleWrite.
// View runs fn against one consistent snapshot and rejects writes.
// List methods taking a caseID return rows of every case when it is 0.
type Store interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	View(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx is the set of repositories available inside one transaction
type Tx interface {
	CaseRepository
	ComplaintRepository
	SuspectRepository
	InterrogationRepository
	SettlementRepository
	BoardRepository
	LogRepository
}

// CaseRepository stores cases
type CaseRepository interface {
	GetCase(ctx context.Context, id int64) (*models.Case, error)
	ListCases(ctx context.Context) ([]models.Case, error)
	InsertCase(ctx context.Context, c *models.Case) error
	UpdateCase(ctx context.Context, c *models.Case) error
}

// ComplaintRepository stores complaint submissions, complainants and scene witnesses
type ComplaintRepository interface {
	GetComplaintSubmission(ctx context.Context, caseID int64) (*models.ComplaintSubmission, error)
	ListComplaintSubmissions(ctx context.Context) ([]models.ComplaintSubmission, error)
	InsertComplaintSubmission(ctx context.Context, s *models.ComplaintSubmission) error
	UpdateComplaintSubmission(ctx context.Context, s *models.ComplaintSubmission) error

	GetComplainant(ctx context.Context, id int64) (*models.Complainant, error)
	ListComplainants(ctx context.Context, caseID int64) ([]models.Complainant, error)
	InsertComplainant(ctx context.Context, c *models.Complainant) error
	UpdateComplainant(ctx context.Context, c *models.Complainant) error

	ListWitnesses(ctx context.Context, caseID int64) ([]models.SceneWitness, error)
	InsertWitness(ctx context.Context, w *models.SceneWitness) error
}

// SuspectRepository stores suspects and main-suspect submissions
type SuspectRepository interface {
	GetSuspect(ctx context.Context, id int64) (*models.Suspect, error)
	ListSuspects(ctx context.Context, caseID int64) ([]models.Suspect, error)
	InsertSuspect(ctx context.Context, s *models.Suspect) error
	UpdateSuspect(ctx context.Context, s *models.Suspect) error

	GetSuspectSubmission(ctx context.Context, id int64) (*models.SuspectSubmission, error)
	ListSuspectSubmissions(ctx context.Context, caseID int64) ([]models.SuspectSubmission, error)
	InsertSuspectSubmission(ctx context.Context, s *models.SuspectSubmission) error
	UpdateSuspectSubmission(ctx context.Context, s *models.SuspectSubmission) error
}

// InterrogationRepository stores interrogations and court sessions
type InterrogationRepository interface {
	GetInterrogation(ctx context.Context, id int64) (*models.Interrogation, error)
	ListInterrogations(ctx context.Context, caseID int64) ([]models.Interrogation, error)
	InsertInterrogation(ctx context.Context, i *models.Interrogation) error
	UpdateInterrogation(ctx context.Context, i *models.Interrogation) error

	ListCourtSessions(ctx context.Context, caseID int64) ([]models.CourtSession, error)
	InsertCourtSession(ctx context.Context, s *models.CourtSession) error
}

// SettlementRepository stores payments, tips and reward claims
type SettlementRepository interface {
	GetPayment(ctx context.Context, id int64) (*models.BailPayment, error)
	ListPayments(ctx context.Context, caseID int64) ([]models.BailPayment, error)
	InsertPayment(ctx context.Context, p *models.BailPayment) error
	UpdatePayment(ctx context.Context, p *models.BailPayment) error

	GetTip(ctx context.Context, id int64) (*models.Tip, error)
	ListTips(ctx context.Context) ([]models.Tip, error)
	InsertTip(ctx context.Context, t *models.Tip) error
	UpdateTip(ctx context.Context, t *models.Tip) error

	FindRewardClaim(ctx context.Context, uniqueCode string) (*models.RewardClaim, error)
	InsertRewardClaim(ctx context.Context, c *models.RewardClaim) error
}

// BoardRepository stores detective board nodes and edges
type BoardRepository interface {
	GetBoardNode(ctx context.Context, id int64) (*models.BoardNode, error)
	ListBoardNodes(ctx context.Context, caseID int64) ([]models.BoardNode, error)
	InsertBoardNode(ctx context.Context, n *models.BoardNode) error
	UpdateBoardNode(ctx context.Context, n *models.BoardNode) error

	ListBoardEdges(ctx context.Context, caseID int64) ([]models.BoardEdge, error)
	InsertBoardEdge(ctx context.Context, e *models.BoardEdge) error
}

// LogRepository is the append-only case log
type LogRepository interface {
	ListLogs(ctx context.Context, caseID int64) ([]models.CaseLog, error)
	AppendLog(ctx context.Context, l *models.CaseLog) error
}
