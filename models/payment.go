package models

import "time"

// PaymentStatus is the settlement status of a bail or fine payment
type PaymentStatus string

// Payment statuses
const (
	PaymentInitiated        PaymentStatus = "initiated"
	PaymentAwaitingCallback PaymentStatus = "awaiting_callback"
	PaymentPaid             PaymentStatus = "paid"
	PaymentFailed           PaymentStatus = "failed"
)

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentInitiated:        {PaymentAwaitingCallback},
	PaymentAwaitingCallback: {PaymentPaid, PaymentFailed},
}

// CanTransitionTo reports whether the payment graph has an edge from s to next
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	return hasEdge(paymentTransitions[s], next)
}

// Final reports whether the gateway has already settled the payment
func (s PaymentStatus) Final() bool {
	return s == PaymentPaid || s == PaymentFailed
}

// BailPayment holds the structure for the bail_payments collection
type BailPayment struct {
	ID      int64              `json:"_id" bson:"_id"`
	Details BailPaymentDetails `json:"bailPayment" bson:"bailPayment"`
	Version int32              `json:"__v" bson:"__v"`
}

// BailPaymentDetails holds the structure for the inner bail payment details
type BailPaymentDetails struct {
	CaseID           int64         `json:"caseID" bson:"caseID"`
	SuspectID        int64         `json:"suspectID" bson:"suspectID"`
	Amount           int64         `json:"amount" bson:"amount"`
	Status           PaymentStatus `json:"status" bson:"status"`
	SergeantApproved bool          `json:"sergeantApproved" bson:"sergeantApproved"`
	Authority        string        `json:"authority" bson:"authority"`
	PaymentRef       string        `json:"paymentRef" bson:"paymentRef"`
	CreatedBy        int64         `json:"createdBy" bson:"createdBy"`
	CreatedAt        time.Time     `json:"createdAt" bson:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt" bson:"updatedAt"`
}
