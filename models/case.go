package models

import "time"

// CaseSource is the intake path a case was opened through
type CaseSource string

// Case sources
const (
	SourceComplaint CaseSource = "complaint"
	SourceScene     CaseSource = "scene"
)

// CaseStatus is the top-level lifecycle status of a case
type CaseStatus string

// Case statuses
const (
	CaseDraft         CaseStatus = "draft"
	CaseUnderReview   CaseStatus = "under_review"
	CaseOpen          CaseStatus = "open"
	CaseInvestigating CaseStatus = "investigating"
	CaseSentToCourt   CaseStatus = "sent_to_court"
	CaseClosed        CaseStatus = "closed"
	CaseVoid          CaseStatus = "void"
)

var caseTransitions = map[CaseStatus][]CaseStatus{
	CaseDraft:         {CaseUnderReview},
	CaseUnderReview:   {CaseOpen, CaseVoid, CaseDraft},
	CaseOpen:          {CaseInvestigating},
	CaseInvestigating: {CaseSentToCourt},
	CaseSentToCourt:   {CaseClosed},
}

// CanTransitionTo reports whether the case graph has an edge from s to next
func (s CaseStatus) CanTransitionTo(next CaseStatus) bool {
	return hasEdge(caseTransitions[s], next)
}

// Terminal reports whether no interrogation or investigation edits are allowed anymore
func (s CaseStatus) Terminal() bool {
	return s == CaseSentToCourt || s == CaseClosed || s == CaseVoid
}

// Severity is the 1-4 priority code of a case. The label order is not the numeric order.
type Severity int

// Severities
const (
	SeverityLevel3   Severity = 1
	SeverityLevel2   Severity = 2
	SeverityLevel1   Severity = 3
	SeverityCritical Severity = 4
)

// Valid reports whether s is one of the four known codes
func (s Severity) Valid() bool {
	return s >= SeverityLevel3 && s <= SeverityCritical
}

// Label returns the display label for the severity code
func (s Severity) Label() string {
	switch s {
	case SeverityLevel3:
		return "Level 3"
	case SeverityLevel2:
		return "Level 2"
	case SeverityLevel1:
		return "Level 1"
	case SeverityCritical:
		return "Critical"
	}
	return "Unknown"
}

// Case holds the structure for the cases collection
type Case struct {
	ID      int64       `json:"_id" bson:"_id"`
	Details CaseDetails `json:"case" bson:"case"`
	Version int32       `json:"__v" bson:"__v"`
}

// CaseDetails holds the structure for the inner case details
type CaseDetails struct {
	Source            CaseSource `json:"source" bson:"source"`
	Status            CaseStatus `json:"status" bson:"status"`
	Severity          Severity   `json:"severity" bson:"severity"`
	Title             string     `json:"title" bson:"title"`
	Description       string     `json:"description" bson:"description"`
	CreatedBy         int64      `json:"createdBy" bson:"createdBy"`
	CreatorRank       int        `json:"creatorRank" bson:"creatorRank"`
	AssignedDetective *int64     `json:"assignedDetective,omitempty" bson:"assignedDetective,omitempty"`
	CreatedAt         time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// ComplainantStatus is the cadet resolution of a single complainant
type ComplainantStatus string

// Complainant statuses
const (
	ComplainantPending  ComplainantStatus = "pending"
	ComplainantApproved ComplainantStatus = "approved"
	ComplainantRejected ComplainantStatus = "rejected"
)

// Complainant holds the structure for the complainants collection
type Complainant struct {
	ID      int64              `json:"_id" bson:"_id"`
	Details ComplainantDetails `json:"complainant" bson:"complainant"`
	Version int32              `json:"__v" bson:"__v"`
}

// ComplainantDetails holds the structure for the inner complainant details
type ComplainantDetails struct {
	CaseID     int64             `json:"caseID" bson:"caseID"`
	UserID     int64             `json:"userID" bson:"userID"`
	Status     ComplainantStatus `json:"status" bson:"status"`
	ReviewNote string            `json:"reviewNote" bson:"reviewNote"`
	CreatedAt  time.Time         `json:"createdAt" bson:"createdAt"`
}

// ComplaintStage is the sub-state of a complaint submission
type ComplaintStage string

// Complaint stages
const (
	StagePendingCadet    ComplaintStage = "pending_cadet"
	StagePendingOfficer  ComplaintStage = "pending_officer"
	StageRejectedCadet   ComplaintStage = "rejected_cadet"
	StageRejectedOfficer ComplaintStage = "rejected_officer"
	StageFormed          ComplaintStage = "formed"
	StageVoided          ComplaintStage = "voided"
)

var stageTransitions = map[ComplaintStage][]ComplaintStage{
	StagePendingCadet:    {StagePendingOfficer, StageRejectedCadet, StageVoided},
	StagePendingOfficer:  {StageFormed, StagePendingCadet, StageRejectedOfficer},
	StageRejectedCadet:   {StagePendingCadet},
	StageRejectedOfficer: {StagePendingCadet},
}

// CanTransitionTo reports whether the complaint stage graph has an edge from s to next
func (s ComplaintStage) CanTransitionTo(next ComplaintStage) bool {
	return hasEdge(stageTransitions[s], next)
}

// NeedsRework reports whether the complainant side may resubmit from this stage
func (s ComplaintStage) NeedsRework() bool {
	return s == StageRejectedCadet || s == StageRejectedOfficer
}

// ComplaintSubmission holds the structure for the complaint_submissions collection
type ComplaintSubmission struct {
	ID      int64                      `json:"_id" bson:"_id"`
	Details ComplaintSubmissionDetails `json:"complaintSubmission" bson:"complaintSubmission"`
	Version int32                      `json:"__v" bson:"__v"`
}

// ComplaintSubmissionDetails holds the structure for the inner complaint submission details
type ComplaintSubmissionDetails struct {
	CaseID           int64          `json:"caseID" bson:"caseID"`
	Stage            ComplaintStage `json:"stage" bson:"stage"`
	AttemptCount     int            `json:"attemptCount" bson:"attemptCount"`
	LastErrorMessage string         `json:"lastErrorMessage" bson:"lastErrorMessage"`
	InternNote       string         `json:"internNote" bson:"internNote"`
	OfficerNote      string         `json:"officerNote" bson:"officerNote"`
	UpdatedAt        time.Time      `json:"updatedAt" bson:"updatedAt"`
}

// SceneWitness holds the structure for the scene_witnesses collection
type SceneWitness struct {
	ID      int64               `json:"_id" bson:"_id"`
	Details SceneWitnessDetails `json:"sceneWitness" bson:"sceneWitness"`
	Version int32               `json:"__v" bson:"__v"`
}

// SceneWitnessDetails holds the structure for the inner scene witness details
type SceneWitnessDetails struct {
	CaseID     int64  `json:"caseID" bson:"caseID"`
	FullName   string `json:"fullName" bson:"fullName"`
	NationalID string `json:"nationalID" bson:"nationalID"`
	Phone      string `json:"phone" bson:"phone"`
	Statement  string `json:"statement" bson:"statement"`
}

func hasEdge[T comparable](edges []T, next T) bool {
	for _, e := range edges {
		if e == next {
			return true
		}
	}
	return false
}
