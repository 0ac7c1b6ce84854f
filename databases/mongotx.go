package databases

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/police-case-api/models"
	"github.com/linesmerrill/police-case-api/workflow"
)

// mongoTx implements workflow.Tx. ctx passed to its methods is the session
// context of the running transaction, base is the caller's context and is
// used for id allocation so counters never roll back with the transaction.
type mongoTx struct {
	db       DatabaseHelper
	base     context.Context
	readOnly bool
}

type counter struct {
	ID  string `bson:"_id"`
	Seq int64  `bson:"seq"`
}

func (t *mongoTx) nextID(name string) (int64, error) {
	var c counter
	err := t.db.Collection(countersName).FindOneAndUpdate(
		t.base,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&c)
	if err != nil {
		return 0, fmt.Errorf("allocate %s id: %w", name, err)
	}
	return c.Seq, nil
}

func (t *mongoTx) insert(ctx context.Context, name string, assign func(id int64), doc interface{}) error {
	if t.readOnly {
		return workflow.ErrReadOnly
	}
	id, err := t.nextID(name)
	if err != nil {
		return err
	}
	assign(id)
	if _, err := t.db.Collection(name).InsertOne(ctx, doc); err != nil {
		return writeError(err)
	}
	return nil
}

// update replaces the details sub document of id when the stored version is
// still version, and bumps it
func (t *mongoTx) update(ctx context.Context, name string, id int64, version *int32, key string, details interface{}) error {
	if t.readOnly {
		return workflow.ErrReadOnly
	}
	res, err := t.db.Collection(name).UpdateOne(ctx,
		bson.M{"_id": id, "__v": *version},
		bson.M{"$set": bson.M{key: details}, "$inc": bson.M{"__v": 1}},
	)
	if err != nil {
		return writeError(err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: %s %d at version %d", workflow.ErrStaleWrite, name, id, *version)
	}
	*version++
	return nil
}

func (t *mongoTx) GetCase(ctx context.Context, id int64) (*models.Case, error) {
	return findByID[models.Case](ctx, t.db.Collection(casesName), id)
}

func (t *mongoTx) ListCases(ctx context.Context) ([]models.Case, error) {
	return findMany[models.Case](ctx, t.db.Collection(casesName), bson.M{})
}

func (t *mongoTx) InsertCase(ctx context.Context, c *models.Case) error {
	c.Version = 0
	return t.insert(ctx, casesName, func(id int64) { c.ID = id }, c)
}

func (t *mongoTx) UpdateCase(ctx context.Context, c *models.Case) error {
	return t.update(ctx, casesName, c.ID, &c.Version, "case", c.Details)
}

func (t *mongoTx) GetComplaintSubmission(ctx context.Context, caseID int64) (*models.ComplaintSubmission, error) {
	return findOne[models.ComplaintSubmission](ctx, t.db.Collection(complaintSubmissionsName), bson.M{"complaintSubmission.caseID": caseID})
}

func (t *mongoTx) ListComplaintSubmissions(ctx context.Context) ([]models.ComplaintSubmission, error) {
	return findMany[models.ComplaintSubmission](ctx, t.db.Collection(complaintSubmissionsName), bson.M{})
}

func (t *mongoTx) InsertComplaintSubmission(ctx context.Context, s *models.ComplaintSubmission) error {
	s.Version = 0
	return t.insert(ctx, complaintSubmissionsName, func(id int64) { s.ID = id }, s)
}

func (t *mongoTx) UpdateComplaintSubmission(ctx context.Context, s *models.ComplaintSubmission) error {
	return t.update(ctx, complaintSubmissionsName, s.ID, &s.Version, "complaintSubmission", s.Details)
}

func (t *mongoTx) GetComplainant(ctx context.Context, id int64) (*models.Complainant, error) {
	return findByID[models.Complainant](ctx, t.db.Collection(complainantsName), id)
}

func (t *mongoTx) ListComplainants(ctx context.Context, caseID int64) ([]models.Complainant, error) {
	return findMany[models.Complainant](ctx, t.db.Collection(complainantsName), byCase("complainant", caseID))
}

func (t *mongoTx) InsertComplainant(ctx context.Context, c *models.Complainant) error {
	c.Version = 0
	return t.insert(ctx, complainantsName, func(id int64) { c.ID = id }, c)
}

func (t *mongoTx) UpdateComplainant(ctx context.Context, c *models.Complainant) error {
	return t.update(ctx, complainantsName, c.ID, &c.Version, "complainant", c.Details)
}

func (t *mongoTx) ListWitnesses(ctx context.Context, caseID int64) ([]models.SceneWitness, error) {
	return findMany[models.SceneWitness](ctx, t.db.Collection(witnessesName), byCase("sceneWitness", caseID))
}

func (t *mongoTx) InsertWitness(ctx context.Context, w *models.SceneWitness) error {
	w.Version = 0
	return t.insert(ctx, witnessesName, func(id int64) { w.ID = id }, w)
}

func (t *mongoTx) GetSuspect(ctx context.Context, id int64) (*models.Suspect, error) {
	return findByID[models.Suspect](ctx, t.db.Collection(suspectsName), id)
}

func (t *mongoTx) ListSuspects(ctx context.Context, caseID int64) ([]models.Suspect, error) {
	return findMany[models.Suspect](ctx, t.db.Collection(suspectsName), byCase("suspect", caseID))
}

func (t *mongoTx) InsertSuspect(ctx context.Context, s *models.Suspect) error {
	s.Version = 0
	return t.insert(ctx, suspectsName, func(id int64) { s.ID = id }, s)
}

func (t *mongoTx) UpdateSuspect(ctx context.Context, s *models.Suspect) error {
	return t.update(ctx, suspectsName, s.ID, &s.Version, "suspect", s.Details)
}

func (t *mongoTx) GetSuspectSubmission(ctx context.Context, id int64) (*models.SuspectSubmission, error) {
	return findByID[models.SuspectSubmission](ctx, t.db.Collection(suspectSubmissionsName), id)
}

func (t *mongoTx) ListSuspectSubmissions(ctx context.Context, caseID int64) ([]models.SuspectSubmission, error) {
	return findMany[models.SuspectSubmission](ctx, t.db.Collection(suspectSubmissionsName), byCase("suspectSubmission", caseID))
}

func (t *mongoTx) InsertSuspectSubmission(ctx context.Context, s *models.SuspectSubmission) error {
	s.Version = 0
	return t.insert(ctx, suspectSubmissionsName, func(id int64) { s.ID = id }, s)
}

func (t *mongoTx) UpdateSuspectSubmission(ctx context.Context, s *models.SuspectSubmission) error {
	return t.update(ctx, suspectSubmissionsName, s.ID, &s.Version, "suspectSubmission", s.Details)
}

func (t *mongoTx) GetInterrogation(ctx context.Context, id int64) (*models.Interrogation, error) {
	return findByID[models.Interrogation](ctx, t.db.Collection(interrogationsName), id)
}

func (t *mongoTx) ListInterrogations(ctx context.Context, caseID int64) ([]models.Interrogation, error) {
	return findMany[models.Interrogation](ctx, t.db.Collection(interrogationsName), byCase("interrogation", caseID))
}

func (t *mongoTx) InsertInterrogation(ctx context.Context, i *models.Interrogation) error {
	i.Version = 0
	return t.insert(ctx, interrogationsName, func(id int64) { i.ID = id }, i)
}

func (t *mongoTx) UpdateInterrogation(ctx context.Context, i *models.Interrogation) error {
	return t.update(ctx, interrogationsName, i.ID, &i.Version, "interrogation", i.Details)
}

func (t *mongoTx) ListCourtSessions(ctx context.Context, caseID int64) ([]models.CourtSession, error) {
	return findMany[models.CourtSession](ctx, t.db.Collection(courtSessionsName), byCase("courtSession", caseID))
}

func (t *mongoTx) InsertCourtSession(ctx context.Context, s *models.CourtSession) error {
	s.Version = 0
	return t.insert(ctx, courtSessionsName, func(id int64) { s.ID = id }, s)
}

func (t *mongoTx) GetPayment(ctx context.Context, id int64) (*models.BailPayment, error) {
	return findByID[models.BailPayment](ctx, t.db.Collection(paymentsName), id)
}

func (t *mongoTx) ListPayments(ctx context.Context, caseID int64) ([]models.BailPayment, error) {
	return findMany[models.BailPayment](ctx, t.db.Collection(paymentsName), byCase("bailPayment", caseID))
}

func (t *mongoTx) InsertPayment(ctx context.Context, p *models.BailPayment) error {
	p.Version = 0
	return t.insert(ctx, paymentsName, func(id int64) { p.ID = id }, p)
}

func (t *mongoTx) UpdatePayment(ctx context.Context, p *models.BailPayment) error {
	return t.update(ctx, paymentsName, p.ID, &p.Version, "bailPayment", p.Details)
}

func (t *mongoTx) GetTip(ctx context.Context, id int64) (*models.Tip, error) {
	return findByID[models.Tip](ctx, t.db.Collection(tipsName), id)
}

func (t *mongoTx) ListTips(ctx context.Context) ([]models.Tip, error) {
	return findMany[models.Tip](ctx, t.db.Collection(tipsName), bson.M{})
}

func (t *mongoTx) InsertTip(ctx context.Context, tip *models.Tip) error {
	tip.Version = 0
	return t.insert(ctx, tipsName, func(id int64) { tip.ID = id }, tip)
}

func (t *mongoTx) UpdateTip(ctx context.Context, tip *models.Tip) error {
	return t.update(ctx, tipsName, tip.ID, &tip.Version, "tip", tip.Details)
}

func (t *mongoTx) FindRewardClaim(ctx context.Context, uniqueCode string) (*models.RewardClaim, error) {
	return findOne[models.RewardClaim](ctx, t.db.Collection(rewardClaimsName), bson.M{"rewardClaim.uniqueCode": uniqueCode})
}

func (t *mongoTx) InsertRewardClaim(ctx context.Context, c *models.RewardClaim) error {
	c.Version = 0
	return t.insert(ctx, rewardClaimsName, func(id int64) { c.ID = id }, c)
}

func (t *mongoTx) GetBoardNode(ctx context.Context, id int64) (*models.BoardNode, error) {
	return findByID[models.BoardNode](ctx, t.db.Collection(boardNodesName), id)
}

func (t *mongoTx) ListBoardNodes(ctx context.Context, caseID int64) ([]models.BoardNode, error) {
	return findMany[models.BoardNode](ctx, t.db.Collection(boardNodesName), byCase("boardNode", caseID))
}

func (t *mongoTx) InsertBoardNode(ctx context.Context, n *models.BoardNode) error {
	n.Version = 0
	return t.insert(ctx, boardNodesName, func(id int64) { n.ID = id }, n)
}

func (t *mongoTx) UpdateBoardNode(ctx context.Context, n *models.BoardNode) error {
	return t.update(ctx, boardNodesName, n.ID, &n.Version, "boardNode", n.Details)
}

func (t *mongoTx) ListBoardEdges(ctx context.Context, caseID int64) ([]models.BoardEdge, error) {
	return findMany[models.BoardEdge](ctx, t.db.Collection(boardEdgesName), byCase("boardEdge", caseID))
}

func (t *mongoTx) InsertBoardEdge(ctx context.Context, e *models.BoardEdge) error {
	return t.insert(ctx, boardEdgesName, func(id int64) { e.ID = id }, e)
}

func (t *mongoTx) ListLogs(ctx context.Context, caseID int64) ([]models.CaseLog, error) {
	return findMany[models.CaseLog](ctx, t.db.Collection(caseLogsName), byCase("caseLog", caseID))
}

func (t *mongoTx) AppendLog(ctx context.Context, l *models.CaseLog) error {
	return t.insert(ctx, caseLogsName, func(id int64) { l.ID = id }, l)
}
