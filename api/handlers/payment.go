package handlers

import (
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/linesmerrill/police-case-api/api"
	"github.com/linesmerrill/police-case-api/gateway"
	"github.com/linesmerrill/police-case-api/workflow"
)

// maxWebhookBytes matches the Stripe recommendation for webhook payloads
const maxWebhookBytes = 65536

// Payment serves bail and fine payments and the gateway webhook
type Payment struct {
	Engine        *workflow.Engine
	WebhookSecret string
}

// CreatePaymentHandler opens a pending payment for an eligible suspect
func (pm Payment) CreatePaymentHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var in workflow.PaymentInput
	if !decode(w, r, &in) {
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	payment, err := pm.Engine.CreatePayment(ctx, p, in)
	if err != nil {
		writeError(w, err, "failed to create payment")
		return
	}
	writeJSON(w, http.StatusCreated, payment)
}

// CheckoutHandler starts the gateway checkout and returns the redirect
func (pm Payment) CheckoutHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	paymentID, ok := pathID(w, r, "payment_id")
	if !ok {
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	payment, checkout, err := pm.Engine.StartGateway(ctx, p, paymentID)
	if err != nil {
		writeError(w, err, "failed to start checkout")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"payment":  payment,
		"checkout": checkout,
	})
}

// WebhookHandler verifies a Stripe event and settles the payment it names.
// It is not behind bearer auth, the signature authenticates the caller.
func (pm Payment) WebhookHandler(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		writeKind(w, http.StatusServiceUnavailable, "read_error", "failed to read request body")
		return
	}

	cb, err := gateway.ParseWebhook(payload, r.Header.Get("Stripe-Signature"), pm.WebhookSecret)
	if errors.Is(err, gateway.ErrIgnoredEvent) {
		w.WriteHeader(http.StatusOK)
		return
	}
	if err != nil {
		zap.S().Warnw("rejected stripe webhook", "error", err)
		validation(w, "invalid webhook: %v", err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	payment, err := pm.Engine.PaymentCallback(ctx, workflow.System, cb.PaymentID, cb.Success, cb.Ref)
	if errors.Is(err, workflow.ErrLateCallback) {
		// acknowledge so Stripe stops retrying, the payment has to be reconciled by hand
		zap.S().Warnw("stripe callback for an expired payment", "payment", cb.PaymentID, "success", cb.Success, "ref", cb.Ref)
		writeJSON(w, http.StatusOK, map[string]interface{}{"paymentID": cb.PaymentID, "status": "expired"})
		return
	}
	if err != nil {
		writeError(w, err, "failed to settle payment")
		return
	}
	zap.S().Infow("payment callback processed", "payment", payment.ID, "status", payment.Details.Status, "ref", cb.Ref)
	writeJSON(w, http.StatusOK, payment)
}
