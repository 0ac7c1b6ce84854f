package models

import "time"

// SuspectStatus is the lifecycle status of a suspect
type SuspectStatus string

// Suspect statuses
const (
	SuspectUnderSuspicion SuspectStatus = "suspect"
	SuspectArrested       SuspectStatus = "arrested"
	SuspectCriminal       SuspectStatus = "criminal"
	SuspectCleared        SuspectStatus = "cleared"
)

var suspectTransitions = map[SuspectStatus][]SuspectStatus{
	SuspectUnderSuspicion: {SuspectArrested},
	SuspectArrested:       {SuspectCriminal, SuspectCleared},
	SuspectCriminal:       {SuspectCleared},
}

// CanTransitionTo reports whether the suspect graph has an edge from s to next
func (s SuspectStatus) CanTransitionTo(next SuspectStatus) bool {
	return hasEdge(suspectTransitions[s], next)
}

// Suspect holds the structure for the suspects collection
type Suspect struct {
	ID      int64          `json:"_id" bson:"_id"`
	Details SuspectDetails `json:"suspect" bson:"suspect"`
	Version int32          `json:"__v" bson:"__v"`
}

// SuspectDetails holds the structure for the inner suspect details
type SuspectDetails struct {
	CaseID     int64         `json:"caseID" bson:"caseID"`
	FullName   string        `json:"fullName" bson:"fullName"`
	NationalID string        `json:"nationalID" bson:"nationalID"`
	PhotoURL   string        `json:"photoURL" bson:"photoURL"`
	PersonID   *int64        `json:"personID,omitempty" bson:"personID,omitempty"`
	Status     SuspectStatus `json:"status" bson:"status"`
	AddedBy    int64         `json:"addedBy" bson:"addedBy"`
	MarkedAt   time.Time     `json:"markedAt" bson:"markedAt"`
}

// SubmissionStatus is the sergeant resolution of a main-suspect submission
type SubmissionStatus string

// Submission statuses
const (
	SubmissionPending  SubmissionStatus = "pending"
	SubmissionApproved SubmissionStatus = "approved"
	SubmissionRejected SubmissionStatus = "rejected"
)

var submissionTransitions = map[SubmissionStatus][]SubmissionStatus{
	SubmissionPending: {SubmissionApproved, SubmissionRejected},
}

// CanTransitionTo reports whether the submission graph has an edge from s to next
func (s SubmissionStatus) CanTransitionTo(next SubmissionStatus) bool {
	return hasEdge(submissionTransitions[s], next)
}

// SuspectSubmission holds the structure for the suspect_submissions collection
type SuspectSubmission struct {
	ID      int64                    `json:"_id" bson:"_id"`
	Details SuspectSubmissionDetails `json:"suspectSubmission" bson:"suspectSubmission"`
	Version int32                    `json:"__v" bson:"__v"`
}

// SuspectSubmissionDetails holds the structure for the inner suspect submission details
type SuspectSubmissionDetails struct {
	CaseID          int64            `json:"caseID" bson:"caseID"`
	SuspectIDs      []int64          `json:"suspectIDs" bson:"suspectIDs"`
	DetectiveReason string           `json:"detectiveReason" bson:"detectiveReason"`
	Status          SubmissionStatus `json:"status" bson:"status"`
	SergeantMessage string           `json:"sergeantMessage" bson:"sergeantMessage"`
	SubmittedBy     int64            `json:"submittedBy" bson:"submittedBy"`
	ReviewedBy      int64            `json:"reviewedBy,omitempty" bson:"reviewedBy,omitempty"`
	CreatedAt       time.Time        `json:"createdAt" bson:"createdAt"`
	ReviewedAt      *time.Time       `json:"reviewedAt,omitempty" bson:"reviewedAt,omitempty"`
}
