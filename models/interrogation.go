package models

import "time"

// CaptainDecision records whether the captain has ruled on the current scoring round
type CaptainDecision string

// Captain decisions
const (
	CaptainPending   CaptainDecision = "pending"
	CaptainSubmitted CaptainDecision = "submitted"
)

// CaptainOutcome is the result of the captain's ruling
type CaptainOutcome string

// Captain outcomes
const (
	CaptainOutcomeNone     CaptainOutcome = "none"
	CaptainOutcomeApproved CaptainOutcome = "approved"
	CaptainOutcomeRejected CaptainOutcome = "rejected"
)

// ChiefDecision is the chief's ruling on a captain-approved interrogation
type ChiefDecision string

// Chief decisions
const (
	ChiefPending  ChiefDecision = "pending"
	ChiefApproved ChiefDecision = "approved"
	ChiefRejected ChiefDecision = "rejected"
)

// InterrogationPhase is the state derived from the decision fields of an interrogation
type InterrogationPhase string

// Interrogation phases
const (
	PhaseScoring         InterrogationPhase = "scoring"
	PhaseAwaitingCaptain InterrogationPhase = "awaiting_captain"
	PhaseAwaitingChief   InterrogationPhase = "awaiting_chief"
	PhaseChiefApproved   InterrogationPhase = "chief_approved"
)

var phaseTransitions = map[InterrogationPhase][]InterrogationPhase{
	PhaseScoring:         {PhaseScoring, PhaseAwaitingCaptain},
	PhaseAwaitingCaptain: {PhaseAwaitingChief, PhaseScoring},
	PhaseAwaitingChief:   {PhaseChiefApproved, PhaseAwaitingCaptain},
}

// CanTransitionTo reports whether the interrogation graph has an edge from p to next
func (p InterrogationPhase) CanTransitionTo(next InterrogationPhase) bool {
	return hasEdge(phaseTransitions[p], next)
}

// Interrogation holds the structure for the interrogations collection
type Interrogation struct {
	ID      int64                `json:"_id" bson:"_id"`
	Details InterrogationDetails `json:"interrogation" bson:"interrogation"`
	Version int32                `json:"__v" bson:"__v"`
}

// InterrogationDetails holds the structure for the inner interrogation details
type InterrogationDetails struct {
	CaseID             int64           `json:"caseID" bson:"caseID"`
	SuspectID          int64           `json:"suspectID" bson:"suspectID"`
	DetectiveScore     int             `json:"detectiveScore" bson:"detectiveScore"`
	DetectiveNote      string          `json:"detectiveNote" bson:"detectiveNote"`
	DetectiveSubmitted bool            `json:"detectiveSubmitted" bson:"detectiveSubmitted"`
	SergeantScore      int             `json:"sergeantScore" bson:"sergeantScore"`
	SergeantNote       string          `json:"sergeantNote" bson:"sergeantNote"`
	SergeantSubmitted  bool            `json:"sergeantSubmitted" bson:"sergeantSubmitted"`
	CaptainDecision    CaptainDecision `json:"captainDecision" bson:"captainDecision"`
	CaptainOutcome     CaptainOutcome  `json:"captainOutcome" bson:"captainOutcome"`
	CaptainScore       int             `json:"captainScore" bson:"captainScore"`
	CaptainNote        string          `json:"captainNote" bson:"captainNote"`
	ChiefDecision      ChiefDecision   `json:"chiefDecision" bson:"chiefDecision"`
	ChiefNote          string          `json:"chiefNote" bson:"chiefNote"`
	CreatedAt          time.Time       `json:"createdAt" bson:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt" bson:"updatedAt"`
}

// AwaitingCaptain reports whether both scores are in and the captain has not ruled
func (d InterrogationDetails) AwaitingCaptain() bool {
	return d.CaptainDecision == CaptainPending && d.DetectiveSubmitted && d.SergeantSubmitted
}

// AwaitingChief reports whether the captain approved and the chief has not ruled
func (d InterrogationDetails) AwaitingChief() bool {
	return d.CaptainDecision == CaptainSubmitted && d.CaptainOutcome == CaptainOutcomeApproved && d.ChiefDecision == ChiefPending
}

// Phase folds the decision fields into a single state
func (d InterrogationDetails) Phase() InterrogationPhase {
	switch {
	case d.ChiefDecision == ChiefApproved:
		return PhaseChiefApproved
	case d.AwaitingChief():
		return PhaseAwaitingChief
	case d.AwaitingCaptain():
		return PhaseAwaitingCaptain
	}
	return PhaseScoring
}
