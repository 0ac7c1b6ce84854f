package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/linesmerrill/police-case-api/models"
	"github.com/linesmerrill/police-case-api/workflow"
)

// ErrIgnoredEvent is returned by ParseWebhook for event types that do not settle a payment
var ErrIgnoredEvent = errors.New("stripe event does not settle a payment")

// Stripe opens Stripe Checkout sessions for bail and fine payments
type Stripe struct {
	baseURL  string
	currency string
	// newSession is session.New, swapped in tests
	newSession func(*stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// NewStripe sets the Stripe key and returns a gateway whose checkout pages
// redirect back to baseURL
func NewStripe(secretKey, baseURL, currency string) *Stripe {
	stripe.Key = secretKey
	return &Stripe{baseURL: baseURL, currency: currency, newSession: session.New}
}

// StartCheckout implements workflow.PaymentGateway. The payment id travels
// as the client reference so the webhook can find the payment again.
func (s *Stripe) StartCheckout(ctx context.Context, payment models.BailPayment) (workflow.Checkout, error) {
	id := strconv.FormatInt(payment.ID, 10)
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		ClientReferenceID: stripe.String(id),
		SuccessURL:        stripe.String(fmt.Sprintf("%s/payments/%s/return?status=success", s.baseURL, id)),
		CancelURL:         stripe.String(fmt.Sprintf("%s/payments/%s/return?status=cancelled", s.baseURL, id)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(s.currency),
				UnitAmount: stripe.Int64(payment.Details.Amount),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(fmt.Sprintf("Bail payment for case %d", payment.Details.CaseID)),
				},
			},
			Quantity: stripe.Int64(1),
		}},
	}
	params.Context = ctx
	params.AddMetadata("paymentID", id)
	params.AddMetadata("caseID", strconv.FormatInt(payment.Details.CaseID, 10))

	sess, err := s.newSession(params)
	if err != nil {
		return workflow.Checkout{}, fmt.Errorf("create stripe checkout session: %w", err)
	}
	return workflow.Checkout{Authority: sess.ID, RedirectURL: sess.URL}, nil
}

// Callback is a verified gateway answer for one payment
type Callback struct {
	PaymentID int64
	Success   bool
	Ref       string
}

// ParseWebhook verifies a Stripe webhook signature and extracts the payment
// outcome of checkout session events
func ParseWebhook(payload []byte, signature, secret string) (Callback, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return Callback{}, fmt.Errorf("verify stripe webhook: %w", err)
	}

	var success bool
	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted, stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded:
		success = true
	case stripe.EventTypeCheckoutSessionExpired, stripe.EventTypeCheckoutSessionAsyncPaymentFailed:
		success = false
	default:
		return Callback{}, fmt.Errorf("%w: %s", ErrIgnoredEvent, event.Type)
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return Callback{}, fmt.Errorf("decode checkout session: %w", err)
	}
	id, err := strconv.ParseInt(sess.ClientReferenceID, 10, 64)
	if err != nil {
		return Callback{}, fmt.Errorf("checkout session %s has no payment reference: %w", sess.ID, err)
	}
	// a completed session with delayed payment methods settles later
	if event.Type == stripe.EventTypeCheckoutSessionCompleted && sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusUnpaid {
		return Callback{}, fmt.Errorf("%w: session %s awaits async payment", ErrIgnoredEvent, sess.ID)
	}

	ref := sess.ID
	if sess.PaymentIntent != nil && sess.PaymentIntent.ID != "" {
		ref = sess.PaymentIntent.ID
	}
	return Callback{PaymentID: id, Success: success, Ref: ref}, nil
}
