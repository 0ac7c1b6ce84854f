package databases

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"github.com/linesmerrill/police-case-api/workflow"
)

const (
	casesName                = "cases"
	complaintSubmissionsName = "complaint_submissions"
	complainantsName         = "complainants"
	witnessesName            = "scene_witnesses"
	suspectsName             = "suspects"
	suspectSubmissionsName   = "suspect_submissions"
	interrogationsName       = "interrogations"
	courtSessionsName        = "court_sessions"
	paymentsName             = "bail_payments"
	tipsName                 = "tips"
	rewardClaimsName         = "reward_claims"
	caseLogsName             = "case_logs"
	boardNodesName           = "board_nodes"
	boardEdgesName           = "board_edges"
	countersName             = "counters"
)

// TxRunner runs fn inside one database transaction, handing it the
// transaction bound context
type TxRunner interface {
	Run(ctx context.Context, readOnly bool, fn func(ctx context.Context) error) error
}

// TxRunnerFunc adapts a function to TxRunner
type TxRunnerFunc func(ctx context.Context, readOnly bool, fn func(ctx context.Context) error) error

// Run calls f
func (f TxRunnerFunc) Run(ctx context.Context, readOnly bool, fn func(ctx context.Context) error) error {
	return f(ctx, readOnly, fn)
}

type sessionRunner struct {
	client ClientHelper
}

// NewSessionRunner runs transactions on client sessions with snapshot reads
// and majority writes. Transient transaction errors are not retried.
func NewSessionRunner(client ClientHelper) TxRunner {
	return &sessionRunner{client: client}
}

func (r *sessionRunner) Run(ctx context.Context, readOnly bool, fn func(ctx context.Context) error) error {
	sess, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)

	opts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())
	return mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sess.StartTransaction(opts); err != nil {
			return fmt.Errorf("start transaction: %w", err)
		}
		if err := fn(sc); err != nil {
			_ = sess.AbortTransaction(sc)
			return err
		}
		if readOnly {
			return sess.AbortTransaction(sc)
		}
		return writeError(sess.CommitTransaction(sc))
	})
}

// MongoStore is the MongoDB backed workflow store
type MongoStore struct {
	db     DatabaseHelper
	runner TxRunner
}

// NewMongoStore returns a store over db whose transactions run through runner
func NewMongoStore(db DatabaseHelper, runner TxRunner) *MongoStore {
	return &MongoStore{db: db, runner: runner}
}

// RunInTx implements workflow.Store
func (s *MongoStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx workflow.Tx) error) error {
	return s.runner.Run(ctx, false, func(tctx context.Context) error {
		return fn(tctx, &mongoTx{db: s.db, base: ctx})
	})
}

// View implements workflow.Store
func (s *MongoStore) View(ctx context.Context, fn func(ctx context.Context, tx workflow.Tx) error) error {
	return s.runner.Run(ctx, true, func(tctx context.Context) error {
		return fn(tctx, &mongoTx{db: s.db, base: ctx, readOnly: true})
	})
}

// EnsureIndexes creates the unique indexes the workflow relies on
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		complaintSubmissionsName: {{
			Keys:    bson.D{{Key: "complaintSubmission.caseID", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		complainantsName: {{
			Keys:    bson.D{{Key: "complainant.caseID", Value: 1}, {Key: "complainant.userID", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		suspectsName: {{
			Keys: bson.D{{Key: "suspect.caseID", Value: 1}},
		}},
		suspectSubmissionsName: {{
			Keys: bson.D{{Key: "suspectSubmission.caseID", Value: 1}},
			Options: options.Index().
				SetName("one_pending_submission_per_case").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"suspectSubmission.status": "pending"}),
		}},
		interrogationsName: {{
			Keys:    bson.D{{Key: "interrogation.caseID", Value: 1}, {Key: "interrogation.suspectID", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		courtSessionsName: {{
			Keys:    bson.D{{Key: "courtSession.caseID", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		rewardClaimsName: {{
			Keys:    bson.D{{Key: "rewardClaim.uniqueCode", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		caseLogsName: {{
			Keys: bson.D{{Key: "caseLog.caseID", Value: 1}, {Key: "_id", Value: 1}},
		}},
	}
	for name, models := range indexes {
		if err := s.db.Collection(name).CreateIndexes(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}

// writeError maps driver write failures onto the workflow store sentinels
func writeError(err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %v", workflow.ErrDuplicate, err)
	}
	var se mongo.ServerError
	if errors.As(err, &se) && (se.HasErrorLabel("TransientTransactionError") || se.HasErrorCode(112)) {
		return fmt.Errorf("%w: %v", workflow.ErrStaleWrite, err)
	}
	return err
}

func findByID[T any](ctx context.Context, coll CollectionHelper, id int64) (*T, error) {
	v := new(T)
	if err := coll.FindOne(ctx, bson.M{"_id": id}).Decode(v); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, workflow.ErrNotFound
		}
		return nil, err
	}
	return v, nil
}

func findOne[T any](ctx context.Context, coll CollectionHelper, filter bson.M) (*T, error) {
	v := new(T)
	if err := coll.FindOne(ctx, filter).Decode(v); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, workflow.ErrNotFound
		}
		return nil, err
	}
	return v, nil
}

func findMany[T any](ctx context.Context, coll CollectionHelper, filter bson.M) ([]T, error) {
	cur, err := coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []T{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// byCase filters on the caseID of the named sub document, or matches everything for 0
func byCase(key string, caseID int64) bson.M {
	if caseID == 0 {
		return bson.M{}
	}
	return bson.M{key + ".caseID": caseID}
}
