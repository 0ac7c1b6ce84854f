package databases

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/linesmerrill/police-case-api/models"
	"github.com/linesmerrill/police-case-api/workflow"
)

// table is one in-memory collection. Rows are stored by value so callers
// never share memory with the store.
type table[T any] struct {
	name    string
	rows    map[int64]T
	seq     int64
	id      func(*T) *int64
	version func(*T) *int32
	// clash reports whether two rows violate a unique constraint of the table
	clash func(a, b *T) bool
}

func newTable[T any](name string, id func(*T) *int64, version func(*T) *int32, clash func(a, b *T) bool) *table[T] {
	return &table[T]{name: name, rows: map[int64]T{}, id: id, version: version, clash: clash}
}

func (t *table[T]) get(id int64) (*T, error) {
	v, ok := t.rows[id]
	if !ok {
		return nil, workflow.ErrNotFound
	}
	return &v, nil
}

func (t *table[T]) find(match func(*T) bool) (*T, error) {
	rows := t.list(match)
	if len(rows) == 0 {
		return nil, workflow.ErrNotFound
	}
	return &rows[0], nil
}

func (t *table[T]) list(match func(*T) bool) []T {
	ids := make([]int64, 0, len(t.rows))
	for id := range t.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := []T{}
	for _, id := range ids {
		v := t.rows[id]
		if match == nil || match(&v) {
			out = append(out, v)
		}
	}
	return out
}

func (t *table[T]) unique(v *T) error {
	if t.clash == nil {
		return nil
	}
	self := *t.id(v)
	for id, row := range t.rows {
		row := row
		if id != self && t.clash(&row, v) {
			return fmt.Errorf("%w: %s %d", workflow.ErrDuplicate, t.name, id)
		}
	}
	return nil
}

func (t *table[T]) insert(v *T, undo *[]func()) error {
	t.seq++
	*t.id(v) = t.seq
	if t.version != nil {
		*t.version(v) = 0
	}
	if err := t.unique(v); err != nil {
		return err
	}
	id := t.seq
	t.rows[id] = *v
	*undo = append(*undo, func() { delete(t.rows, id) })
	return nil
}

func (t *table[T]) update(v *T, undo *[]func()) error {
	id := *t.id(v)
	prev, ok := t.rows[id]
	if !ok {
		return workflow.ErrNotFound
	}
	if *t.version(&prev) != *t.version(v) {
		return fmt.Errorf("%w: %s %d at version %d", workflow.ErrStaleWrite, t.name, id, *t.version(v))
	}
	if err := t.unique(v); err != nil {
		return err
	}
	*t.version(v)++
	t.rows[id] = *v
	*undo = append(*undo, func() { t.rows[id] = prev })
	return nil
}

// MemoryStore is a workflow store held in process memory. Transactions are
// serialized, writes of a failed transaction are rolled back.
type MemoryStore struct {
	mu sync.RWMutex

	cases          *table[models.Case]
	complaints     *table[models.ComplaintSubmission]
	complainants   *table[models.Complainant]
	witnesses      *table[models.SceneWitness]
	suspects       *table[models.Suspect]
	submissions    *table[models.SuspectSubmission]
	interrogations *table[models.Interrogation]
	sessions       *table[models.CourtSession]
	payments       *table[models.BailPayment]
	tips           *table[models.Tip]
	claims         *table[models.RewardClaim]
	nodes          *table[models.BoardNode]
	edges          *table[models.BoardEdge]
	logs           *table[models.CaseLog]
}

// NewMemoryStore returns an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		cases: newTable(casesName,
			func(v *models.Case) *int64 { return &v.ID },
			func(v *models.Case) *int32 { return &v.Version }, nil),
		complaints: newTable(complaintSubmissionsName,
			func(v *models.ComplaintSubmission) *int64 { return &v.ID },
			func(v *models.ComplaintSubmission) *int32 { return &v.Version },
			func(a, b *models.ComplaintSubmission) bool { return a.Details.CaseID == b.Details.CaseID }),
		complainants: newTable(complainantsName,
			func(v *models.Complainant) *int64 { return &v.ID },
			func(v *models.Complainant) *int32 { return &v.Version },
			func(a, b *models.Complainant) bool {
				return a.Details.CaseID == b.Details.CaseID && a.Details.UserID == b.Details.UserID
			}),
		witnesses: newTable(witnessesName,
			func(v *models.SceneWitness) *int64 { return &v.ID },
			func(v *models.SceneWitness) *int32 { return &v.Version }, nil),
		suspects: newTable(suspectsName,
			func(v *models.Suspect) *int64 { return &v.ID },
			func(v *models.Suspect) *int32 { return &v.Version }, nil),
		submissions: newTable(suspectSubmissionsName,
			func(v *models.SuspectSubmission) *int64 { return &v.ID },
			func(v *models.SuspectSubmission) *int32 { return &v.Version },
			func(a, b *models.SuspectSubmission) bool {
				return a.Details.CaseID == b.Details.CaseID &&
					a.Details.Status == models.SubmissionPending && b.Details.Status == models.SubmissionPending
			}),
		interrogations: newTable(interrogationsName,
			func(v *models.Interrogation) *int64 { return &v.ID },
			func(v *models.Interrogation) *int32 { return &v.Version },
			func(a, b *models.Interrogation) bool {
				return a.Details.CaseID == b.Details.CaseID && a.Details.SuspectID == b.Details.SuspectID
			}),
		sessions: newTable(courtSessionsName,
			func(v *models.CourtSession) *int64 { return &v.ID },
			func(v *models.CourtSession) *int32 { return &v.Version },
			func(a, b *models.CourtSession) bool { return a.Details.CaseID == b.Details.CaseID }),
		payments: newTable(paymentsName,
			func(v *models.BailPayment) *int64 { return &v.ID },
			func(v *models.BailPayment) *int32 { return &v.Version }, nil),
		tips: newTable(tipsName,
			func(v *models.Tip) *int64 { return &v.ID },
			func(v *models.Tip) *int32 { return &v.Version }, nil),
		claims: newTable(rewardClaimsName,
			func(v *models.RewardClaim) *int64 { return &v.ID },
			func(v *models.RewardClaim) *int32 { return &v.Version },
			func(a, b *models.RewardClaim) bool { return a.Details.UniqueCode == b.Details.UniqueCode }),
		nodes: newTable(boardNodesName,
			func(v *models.BoardNode) *int64 { return &v.ID },
			func(v *models.BoardNode) *int32 { return &v.Version }, nil),
		edges: newTable(boardEdgesName,
			func(v *models.BoardEdge) *int64 { return &v.ID }, nil, nil),
		logs: newTable(caseLogsName,
			func(v *models.CaseLog) *int64 { return &v.ID }, nil, nil),
	}
}

// RunInTx implements workflow.Store
func (s *MemoryStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx workflow.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	tx := &memTx{s: s}
	if err := fn(ctx, tx); err != nil {
		for i := len(tx.undo) - 1; i >= 0; i-- {
			tx.undo[i]()
		}
		return err
	}
	return nil
}

// View implements workflow.Store
func (s *MemoryStore) View(ctx context.Context, fn func(ctx context.Context, tx workflow.Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx, &memTx{s: s, readOnly: true})
}

type memTx struct {
	s        *MemoryStore
	readOnly bool
	undo     []func()
}

func (t *memTx) writable() error {
	if t.readOnly {
		return workflow.ErrReadOnly
	}
	return nil
}

func inCase(caseID int64, got int64) bool {
	return caseID == 0 || caseID == got
}

func (t *memTx) GetCase(_ context.Context, id int64) (*models.Case, error) {
	return t.s.cases.get(id)
}

func (t *memTx) ListCases(context.Context) ([]models.Case, error) {
	return t.s.cases.list(nil), nil
}

func (t *memTx) InsertCase(_ context.Context, c *models.Case) error {
	if err := t.writable(); err != nil {
		return err
	}
	return t.s.cases.insert(c, &t.undo)
}

func (t *memTx) UpdateCase(_ context.Context, c *models.Case) error {
	if err := t.writable(); err != nil {
		return err
	}
	return t.s.cases.update(c, &t.undo)
}

func (t *memTx) GetComplaintSubmission(_ context.Context, caseID int64) (*models.ComplaintSubmission, error) {
	return t.s.complaints.find(func(v *models.ComplaintSubmission) bool { return v.Details.CaseID == caseID })
}

func (t *memTx) ListComplaintSubmissions(context.Context) ([]models.ComplaintSubmission, error) {
	return t.s.complaints.list(nil), nil
}

func (t *memTx) InsertComplaintSubmission(_ context.Context, s *models.ComplaintSubmission) error {
	if err := t.writable(); err != nil {
		return err
	}
	return t.s.complaints.insert(s, &t.undo)
}

func (t *memTx) UpdateComplaintSubmission(_ context.Context, s *models.ComplaintSubmission) error {
	if err := t.writable(); err != nil {
		return err
	}
	return t.s.complaints.update(s, &t.undo)
}

func (t *memTx) GetComplainant(_ context.Context, id int64) (*models.Complainant, error) {
	return t.s.complainants.get(id)
}

func (t *memTx) ListComplainants(_ context.Context, caseID int64) ([]models.Complainant, error) {
	return t.s.complainants.list(func(v *models.Complainant) bool { return inCase(caseID, v.Details.CaseID) }), nil
}

func (t *memTx) InsertComplainant(_ context.Context, c *models.Complainant) error {
	if err := t.writable(); err != nil {
		return err
	}
	return t.s.complainants.insert(c, &t.undo)
}

func (t *memTx) UpdateComplainant(_ context.Context, c *models.Complainant) error {
	if err := t.writable(); err != nil {
		return err
	}
	return t.s.complainants.update(c, &t.undo)
}

func (t *memTx) ListWitnesses(_ context.Context, caseID int64) ([]models.SceneWitness, error) {
	return t.s.witnesses.list(func(v *models.SceneWitness) bool { return inCase(caseID, v.Details.CaseID) }), nil
}

func (t *memTx) InsertWitness(_ context.Context, w *models.SceneWitness) error {
	if err := t.writable(); err != nil {
		return err
	}
	return t.s.witnesses.insert(w, &t.undo)
}

func (t *memTx) GetSuspect(_ context.Context, id int64) (*models.Suspect, error) {
	return t.s.suspects.get(id)
}

func (t *memTx) ListSuspects(_ context.Context, caseID int64) ([]models.Suspect, error) {
	return t.s.suspects.list(func(v *models.Suspect) bool { return inCase(caseID, v.Details.CaseID) }), nil
}

func (t *memTx) InsertSuspect(_ context.Context, s *models.Suspect) error {
	if err := t.writable(); err != nil {
		return err
	}
	return t.s.suspects.insert(s, &t.undo)
}

func (t *memTx) UpdateSuspect(_ context.Context, s *models.Suspect) error {
	if err := t.writable(); err != nil {
		return err
	}
	return t.s.suspects.update(s, &t.undo)
}

func (t *memTx) GetSuspectSubmission(_ context.Context, id int64) (*models.SuspectSubmission, error) {
	return t.s.submissions.get(id)
}

func (t *memTx) ListSuspectSubmissions(_ context.Context, caseID int64) ([]models.SuspectSubmission, error) {
	return t.s.submissions.list(func(v *models.SuspectSubmission) bool { return inCase(caseID, v.Details.CaseID) }), nil
}

func (t *memTx) InsertSuspectSubmission(_ context.Context, s *models.SuspectSubmission) error {
	if err := t.writable(); err != nil {
		return err
	}
	return t.s.submissions.insert(s, &t.undo)
}

func (t *memTx) UpdateSuspectSubmission(_ context.Context, s *models.SuspectSubmission) error {
	if err := t.writable(); err != nil {
		return err
	}
	return t.s.submissions.update(s, &t.undo)
}

func (t *memTx) GetInterrogation(_ context.Context, id int64) (*models.Interrogation, error) {
	return t.s.interrogations.get(id)
}

func (t *memTx) ListInterrogations(_ context.Context, caseID int64) ([]models.Interrogation, error) {
	return t.s.interrogations.list(func(v *models.Interrogation) bool { return inCase(caseID, v.Details.CaseID) }), nil
}

func (t *memTx) InsertInterrogation(_ context.Context, i *models.Interrogation) error {
	if err := t.writable(); err != nil {
		return err
	}
	return t.s.interrogations.insert(i, &t.undo)
}

func (t *memTx) UpdateInterrogation(_ context.Context, i *models.Interrogation) error {
	if err := t.writable(); err != nil {
		return err
	}
	return t.s.interrogations.update(i, &t.undo)
}

func (t *memTx) ListCourtSessions(_ context.Context, caseID int64) ([]models.CourtSession, error) {
	return t.s.sessions.list(func(v *models.CourtSession) bool { return inCase(caseID, v.Details.CaseID) }), nil
}

func (t *memTx) InsertCourtSession(_ context.Context, s *models.CourtSession) error {
	if err := t.writable(); err != nil {
		return err
	}
	return t.s.sessions.insert(s, &t.undo)
}

func (t *memTx) GetPayment(_ context.Context, id int64) (*models.BailPayment, error) {
	return t.s.payments.get(id)
}

func (t *memTx) ListPayments(_ context.Context, caseID int64) ([]models.BailPayment, error) {
	return t.s.payments.list(func(v *models.BailPayment) bool { return inCase(caseID, v.Details.CaseID) }), nil
}

func (t *memTx) InsertPayment(_ context.Context, p *models.BailPayment) error {
	if err := t.writable(); err != nil {
		return err
	}
	return t.s.payments.insert(p, &t.undo)
}

func (t *memTx) UpdatePayment(_ context.Context, p *models.BailPayment) error {
	if err := t.writable(); err != nil {
		return err
	}
	return t.s.payments.update(p, &t.undo)
}

func (t *memTx) GetTip(_ context.Context, id int64) (*models.Tip, error) {
	return t.s.tips.get(id)
}

func (t *memTx) ListTips(context.Context) ([]models.Tip, error) {
	return t.s.tips.list(nil), nil
}

func (t *memTx) InsertTip(_ context.Context, tip *models.Tip) error {
	if err := t.writable(); err != nil {
		return err
	}
	return t.s.tips.insert(tip, &t.undo)
}

func (t *memTx) UpdateTip(_ context.Context, tip *models.Tip) error {
	if err := t.writable(); err != nil {
		return err
	}
	return t.s.tips.update(tip, &t.undo)
}

func (t *memTx) FindRewardClaim(_ context.Context, uniqueCode string) (*models.RewardClaim, error) {
	return t.s.claims.find(func(v *models.RewardClaim) bool { return v.Details.UniqueCode == uniqueCode })
}

func (t *memTx) InsertRewardClaim(_ context.Context, c *models.RewardClaim) error {
	if err := t.writable(); err != nil {
		return err
	}
	return t.s.claims.insert(c, &t.undo)
}

func (t *memTx) GetBoardNode(_ context.Context, id int64) (*models.BoardNode, error) {
	return t.s.nodes.get(id)
}

func (t *memTx) ListBoardNodes(_ context.Context, caseID int64) ([]models.BoardNode, error) {
	return t.s.nodes.list(func(v *models.BoardNode) bool { return inCase(caseID, v.Details.CaseID) }), nil
}

func (t *memTx) InsertBoardNode(_ context.Context, n *models.BoardNode) error {
	if err := t.writable(); err != nil {
		return err
	}
	return t.s.nodes.insert(n, &t.undo)
}

func (t *memTx) UpdateBoardNode(_ context.Context, n *models.BoardNode) error {
	if err := t.writable(); err != nil {
		return err
	}
	return t.s.nodes.update(n, &t.undo)
}

func (t *memTx) ListBoardEdges(_ context.Context, caseID int64) ([]models.BoardEdge, error) {
	return t.s.edges.list(func(v *models.BoardEdge) bool { return inCase(caseID, v.Details.CaseID) }), nil
}

func (t *memTx) InsertBoardEdge(_ context.Context, e *models.BoardEdge) error {
	if err := t.writable(); err != nil {
		return err
	}
	return t.s.edges.insert(e, &t.undo)
}

func (t *memTx) ListLogs(_ context.Context, caseID int64) ([]models.CaseLog, error) {
	return t.s.logs.list(func(v *models.CaseLog) bool { return inCase(caseID, v.Details.CaseID) }), nil
}

func (t *memTx) AppendLog(_ context.Context, l *models.CaseLog) error {
	if err := t.writable(); err != nil {
		return err
	}
	return t.s.logs.insert(l, &t.undo)
}
