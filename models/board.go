package models

import "time"

// BoardNode holds the structure for the board_nodes collection
type BoardNode struct {
	ID      int64            `json:"_id" bson:"_id"`
	Details BoardNodeDetails `json:"boardNode" bson:"boardNode"`
	Version int32            `json:"__v" bson:"__v"`
}

// BoardNodeDetails holds the structure for the inner board node details
type BoardNodeDetails struct {
	CaseID    int64     `json:"caseID" bson:"caseID"`
	Kind      string    `json:"kind" bson:"kind"` // "suspect", "evidence", "note"
	RefID     *int64    `json:"refID,omitempty" bson:"refID,omitempty"`
	Label     string    `json:"label" bson:"label"`
	X         float64   `json:"x" bson:"x"`
	Y         float64   `json:"y" bson:"y"`
	CreatedBy int64     `json:"createdBy" bson:"createdBy"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// BoardEdge holds the structure for the board_edges collection
type BoardEdge struct {
	ID      int64            `json:"_id" bson:"_id"`
	Details BoardEdgeDetails `json:"boardEdge" bson:"boardEdge"`
}

// BoardEdgeDetails holds the structure for the inner board edge details
type BoardEdgeDetails struct {
	CaseID int64  `json:"caseID" bson:"caseID"`
	FromID int64  `json:"fromID" bson:"fromID"`
	ToID   int64  `json:"toID" bson:"toID"`
	Label  string `json:"label" bson:"label"`
}
