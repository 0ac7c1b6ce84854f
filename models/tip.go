package models

import "time"

// TipStatus is the review status of a citizen tip
type TipStatus string

// Tip statuses
const (
	TipPending         TipStatus = "pending"
	TipSentToDetective TipStatus = "sent_to_detective"
	TipApproved        TipStatus = "approved"
	TipRejected        TipStatus = "rejected"
)

var tipTransitions = map[TipStatus][]TipStatus{
	TipPending:         {TipSentToDetective, TipRejected},
	TipSentToDetective: {TipApproved, TipRejected},
}

// CanTransitionTo reports whether the tip graph has an edge from s to next
func (s TipStatus) CanTransitionTo(next TipStatus) bool {
	return hasEdge(tipTransitions[s], next)
}

// Tip holds the structure for the tips collection
type Tip struct {
	ID      int64      `json:"_id" bson:"_id"`
	Details TipDetails `json:"tip" bson:"tip"`
	Version int32      `json:"__v" bson:"__v"`
}

// TipDetails holds the structure for the inner tip details
type TipDetails struct {
	SubmitterID         int64     `json:"submitterID" bson:"submitterID"`
	SubmitterNationalID string    `json:"submitterNationalID" bson:"submitterNationalID"`
	Content             string    `json:"content" bson:"content"`
	CaseID              *int64    `json:"caseID,omitempty" bson:"caseID,omitempty"`
	SuspectID           *int64    `json:"suspectID,omitempty" bson:"suspectID,omitempty"`
	Status              TipStatus `json:"status" bson:"status"`
	OfficerNote         string    `json:"officerNote" bson:"officerNote"`
	DetectiveNote       string    `json:"detectiveNote" bson:"detectiveNote"`
	CreatedAt           time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt" bson:"updatedAt"`
}

// RewardClaim holds the structure for the reward_claims collection
type RewardClaim struct {
	ID      int64              `json:"_id" bson:"_id"`
	Details RewardClaimDetails `json:"rewardClaim" bson:"rewardClaim"`
	Version int32              `json:"__v" bson:"__v"`
}

// RewardClaimDetails holds the structure for the inner reward claim details
type RewardClaimDetails struct {
	TipID               int64     `json:"tipID" bson:"tipID"`
	UniqueCode          string    `json:"uniqueCode" bson:"uniqueCode"`
	Amount              int64     `json:"amount" bson:"amount"`
	SubmitterID         int64     `json:"submitterID" bson:"submitterID"`
	SubmitterNationalID string    `json:"submitterNationalID" bson:"submitterNationalID"`
	CreatedAt           time.Time `json:"createdAt" bson:"createdAt"`
}

// RewardVerification is returned when a claim code matches the presented national id
type RewardVerification struct {
	ClaimID             int64  `json:"claimID"`
	TipID               int64  `json:"tipID"`
	SubmitterID         int64  `json:"submitterID"`
	SubmitterNationalID string `json:"submitterNationalID"`
	Amount              int64  `json:"amount"`
}
