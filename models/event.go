package models

import "time"

// Event is a committed domain fact handed to notification delivery
type Event struct {
	Type       string                 `json:"type"`
	CaseID     int64                  `json:"caseID,omitempty"`
	ActorID    int64                  `json:"actorID"`
	Message    string                 `json:"message"`
	Recipients []Role                 `json:"recipients,omitempty"`
	UserIDs    []int64                `json:"userIDs,omitempty"`
	Data       map[string]interface{} `json:"data,omitempty"`
	OccurredAt time.Time              `json:"occurredAt"`
}

// Event types
const (
	EventComplaintSubmitted     = "complaint.submitted"
	EventComplaintReturned      = "complaint.returned"
	EventComplaintVoided        = "complaint.voided"
	EventCaseFormed             = "case.formed"
	EventSceneSubmitted         = "scene.submitted"
	EventSceneDenied            = "scene.denied"
	EventCaseAssigned           = "case.assigned"
	EventSubmissionCreated      = "submission.created"
	EventSubmissionApproved     = "submission.approved"
	EventSubmissionRejected     = "submission.rejected"
	EventInterrogationReady     = "interrogation.ready"
	EventInterrogationEscalated = "interrogation.escalated"
	EventInterrogationReturned  = "interrogation.returned"
	EventCaseSentToCourt        = "case.sent_to_court"
	EventVerdictRegistered      = "verdict.registered"
	EventPaymentCreated         = "payment.created"
	EventPaymentSettled         = "payment.settled"
	EventTipForwarded           = "tip.forwarded"
	EventTipResolved            = "tip.resolved"
	EventHighAlertDigest        = "high_alert.digest"
)
