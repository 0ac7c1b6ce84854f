package databases

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
)

const evidenceName = "evidence"

// EvidenceDatabase reads the evidence collection owned by the evidence service
type EvidenceDatabase interface {
	CountByCase(ctx context.Context, caseID int64) (map[string]int64, error)
}

type evidenceDatabase struct {
	db DatabaseHelper
}

// NewEvidenceDatabase initializes a new instance of evidence database with the provided db connection
func NewEvidenceDatabase(db DatabaseHelper) EvidenceDatabase {
	return &evidenceDatabase{
		db: db,
	}
}

type evidenceCount struct {
	Kind  string `bson:"_id"`
	Count int64  `bson:"count"`
}

// CountByCase groups the evidence of a case by kind
func (e *evidenceDatabase) CountByCase(ctx context.Context, caseID int64) (map[string]int64, error) {
	pipeline := bson.A{
		bson.M{"$match": bson.M{"evidence.caseID": caseID}},
		bson.M{"$group": bson.M{"_id": "$evidence.kind", "count": bson.M{"$sum": 1}}},
	}
	cur, err := e.db.Collection(evidenceName).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var rows []evidenceCount
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Kind] = r.Count
	}
	return counts, nil
}
