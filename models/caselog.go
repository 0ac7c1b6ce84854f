package models

import "time"

// CaseLog holds the structure for the case_logs collection. Entries are never updated.
type CaseLog struct {
	ID      int64          `json:"_id" bson:"_id"`
	Details CaseLogDetails `json:"caseLog" bson:"caseLog"`
}

// CaseLogDetails holds the structure for the inner case log details
type CaseLogDetails struct {
	CaseID    int64                  `json:"caseID,omitempty" bson:"caseID,omitempty"`
	Action    string                 `json:"action" bson:"action"`
	Details   map[string]interface{} `json:"details,omitempty" bson:"details,omitempty"`
	ActorID   int64                  `json:"actorID" bson:"actorID"`
	CreatedAt time.Time              `json:"createdAt" bson:"createdAt"`
}
