package models

import "time"

// Verdict is the judicial decision on a convicted suspect
type Verdict string

// Verdicts
const (
	VerdictGuilty    Verdict = "guilty"
	VerdictNotGuilty Verdict = "not_guilty"
)

// Valid reports whether v is a known verdict
func (v Verdict) Valid() bool {
	return v == VerdictGuilty || v == VerdictNotGuilty
}

// CourtSession holds the structure for the court_sessions collection
type CourtSession struct {
	ID      int64               `json:"_id" bson:"_id"`
	Details CourtSessionDetails `json:"courtSession" bson:"courtSession"`
	Version int32               `json:"__v" bson:"__v"`
}

// CourtSessionDetails holds the structure for the inner court session details
type CourtSessionDetails struct {
	CaseID                int64     `json:"caseID" bson:"caseID"`
	ConvictedSuspectID    int64     `json:"convictedSuspectID" bson:"convictedSuspectID"`
	Verdict               Verdict   `json:"verdict" bson:"verdict"`
	PunishmentTitle       string    `json:"punishmentTitle" bson:"punishmentTitle"`
	PunishmentDescription string    `json:"punishmentDescription" bson:"punishmentDescription"`
	JudgeID               int64     `json:"judgeID" bson:"judgeID"`
	CreatedAt             time.Time `json:"createdAt" bson:"createdAt"`
}
