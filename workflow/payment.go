package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/linesmerrill/police-case-api/models"
)

// MinGatewayAmount is the smallest amount sent to the payment gateway
const MinGatewayAmount = 1000

// ExpiredRef is the reference stored on payments failed by ExpireStalePayments
const ExpiredRef = "expired"

// PaymentInput creates a bail or fine payment for a suspect
type PaymentInput struct {
	CaseID           int64 `json:"caseID"`
	SuspectID        int64 `json:"suspectID"`
	Amount           int64 `json:"amount"`
	SergeantApproved bool  `json:"sergeantApproved"`
}

// System is the principal used for gateway callbacks and scheduled jobs
var System = Principal{Actor: models.Actor{IsSuperuser: true}}

// PaymentEligible is the bail/fine rule: arrested suspects on Level 3 or
// Level 2 cases, and criminals on Level 3 cases only.
func PaymentEligible(status models.SuspectStatus, severity models.Severity) bool {
	switch status {
	case models.SuspectArrested:
		return severity == models.SeverityLevel3 || severity == models.SeverityLevel2
	case models.SuspectCriminal:
		return severity == models.SeverityLevel3
	}
	return false
}

// CreatePayment opens a payment for an eligible suspect
func (e *Engine) CreatePayment(ctx context.Context, p Principal, in PaymentInput) (*models.BailPayment, error) {
	if err := p.requireRole(models.RoleSergeant); err != nil {
		return nil, err
	}
	if in.Amount <= 0 {
		return nil, validationf("amount must be positive")
	}
	var out *models.BailPayment
	err := e.transition(ctx, p, "create_payment", func(c *change) error {
		cs, err := getCase(c.ctx, c.tx, in.CaseID)
		if err != nil {
			return err
		}
		s, err := suspectOfCase(c.ctx, c.tx, in.CaseID, in.SuspectID)
		if err != nil {
			return err
		}
		if !PaymentEligible(s.Details.Status, cs.Details.Severity) {
			return validationf("suspect %d (%s) on a %s case is not eligible for payment",
				s.ID, s.Details.Status, cs.Details.Severity.Label())
		}
		if s.Details.Status == models.SuspectCriminal && !in.SergeantApproved {
			return validationf("payments for criminals require sergeant approval")
		}
		pay := &models.BailPayment{Details: models.BailPaymentDetails{
			CaseID:           in.CaseID,
			SuspectID:        s.ID,
			Amount:           in.Amount,
			Status:           models.PaymentInitiated,
			SergeantApproved: in.SergeantApproved,
			CreatedBy:        p.ID(),
			CreatedAt:        c.now,
			UpdatedAt:        c.now,
		}}
		if err := c.tx.InsertPayment(c.ctx, pay); err != nil {
			return err
		}
		if s.Details.PersonID != nil {
			c.emit(models.Event{
				Type:    models.EventPaymentCreated,
				CaseID:  in.CaseID,
				Message: fmt.Sprintf("A payment of %d is available", in.Amount),
				UserIDs: []int64{*s.Details.PersonID},
				Data:    map[string]interface{}{"paymentID": pay.ID},
			})
		}
		out = pay
		return c.record(in.CaseID, "payment.created", map[string]interface{}{
			"paymentID": pay.ID,
			"suspectID": s.ID,
			"amount":    in.Amount,
		})
	})
	return out, err
}

// StartGateway opens a gateway checkout for an initiated payment. The gateway
// is called outside the transaction; the write fails with Conflict if the
// payment changed meanwhile.
func (e *Engine) StartGateway(ctx context.Context, p Principal, paymentID int64) (*models.BailPayment, Checkout, error) {
	if e.gateway == nil {
		return nil, Checkout{}, fmt.Errorf("start gateway: no payment gateway configured")
	}
	var snapshot models.BailPayment
	err := e.view(ctx, func(ctx context.Context, tx Tx) error {
		pay, err := getPayment(ctx, tx, paymentID)
		if err != nil {
			return err
		}
		s, err := getSuspect(ctx, tx, pay.Details.SuspectID)
		if err != nil {
			return err
		}
		if !p.Superuser() && (s.Details.PersonID == nil || *s.Details.PersonID != p.ID()) {
			return deniedf("only the suspect may pay payment %d", paymentID)
		}
		if pay.Details.Status != models.PaymentInitiated {
			return conflictf("payment %d is %s", paymentID, pay.Details.Status)
		}
		if pay.Details.Amount < MinGatewayAmount {
			return validationf("amount %d is below the gateway minimum of %d", pay.Details.Amount, MinGatewayAmount)
		}
		snapshot = *pay
		return nil
	})
	if err != nil {
		return nil, Checkout{}, err
	}

	checkout, err := e.gateway.StartCheckout(ctx, snapshot)
	if err != nil {
		return nil, Checkout{}, fmt.Errorf("start gateway for payment %d: %w", paymentID, err)
	}

	var out *models.BailPayment
	err = e.transition(ctx, p, "start_gateway", func(c *change) error {
		pay, err := getPayment(c.ctx, c.tx, paymentID)
		if err != nil {
			return err
		}
		if pay.Version != snapshot.Version {
			return conflictf("payment %d changed while the gateway was contacted", paymentID)
		}
		if err := advance("payment", pay.ID, &pay.Details.Status, models.PaymentAwaitingCallback); err != nil {
			return err
		}
		pay.Details.Authority = checkout.Authority
		pay.Details.UpdatedAt = c.now
		if err := c.tx.UpdatePayment(c.ctx, pay); err != nil {
			return err
		}
		out = pay
		return c.record(pay.Details.CaseID, "payment.gateway_started", map[string]interface{}{
			"paymentID": pay.ID,
			"authority": checkout.Authority,
		})
	})
	if err != nil {
		return nil, Checkout{}, err
	}
	return out, checkout, nil
}

// PaymentCallback settles a payment from the gateway's asynchronous answer.
// Repeated deliveries of the same ref return the stored payment unchanged.
func (e *Engine) PaymentCallback(ctx context.Context, p Principal, paymentID int64, success bool, ref string) (*models.BailPayment, error) {
	if strings.TrimSpace(ref) == "" {
		return nil, validationf("a gateway reference is required")
	}
	var out *models.BailPayment
	err := e.transition(ctx, p, "payment_callback", func(c *change) error {
		pay, err := getPayment(c.ctx, c.tx, paymentID)
		if err != nil {
			return err
		}
		if pay.Details.Status.Final() {
			if pay.Details.PaymentRef == ExpiredRef && ref != ExpiredRef {
				return &Error{Kind: KindConflict, Message: fmt.Sprintf("payment %d already expired", paymentID), Err: ErrLateCallback}
			}
			if pay.Details.PaymentRef != ref {
				return conflictf("payment %d was already settled with another reference", paymentID)
			}
			c.unchanged = true
			out = pay
			return nil
		}
		return settle(c, pay, success, ref, "")
	})
	return out, err
}

// ExpireStalePayments fails payments whose callback never arrived. Each
// payment is settled in its own transaction.
func (e *Engine) ExpireStalePayments(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := e.now().Add(-olderThan)
	var stale []int64
	err := e.view(ctx, func(ctx context.Context, tx Tx) error {
		all, err := tx.ListPayments(ctx, 0)
		if err != nil {
			return err
		}
		for _, pay := range all {
			if pay.Details.Status == models.PaymentAwaitingCallback && pay.Details.UpdatedAt.Before(cutoff) {
				stale = append(stale, pay.ID)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	expired := 0
	for _, id := range stale {
		err := e.transition(ctx, System, "expire_payment", func(c *change) error {
			pay, err := getPayment(c.ctx, c.tx, id)
			if err != nil {
				return err
			}
			if pay.Details.Status != models.PaymentAwaitingCallback {
				c.unchanged = true
				return nil
			}
			return settle(c, pay, false, ExpiredRef, "payment.expired")
		})
		if err != nil {
			e.log.Warn("failed to expire payment", zap.Int64("paymentID", id), zap.Error(err))
			continue
		}
		expired++
	}
	return expired, nil
}

// settle finalizes a payment; action defaults to payment.<status>
func settle(c *change, pay *models.BailPayment, success bool, ref, action string) error {
	to := models.PaymentFailed
	if success {
		to = models.PaymentPaid
	}
	if err := advance("payment", pay.ID, &pay.Details.Status, to); err != nil {
		return err
	}
	pay.Details.PaymentRef = ref
	pay.Details.UpdatedAt = c.now
	if err := c.tx.UpdatePayment(c.ctx, pay); err != nil {
		return err
	}
	s, err := getSuspect(c.ctx, c.tx, pay.Details.SuspectID)
	if err != nil {
		return err
	}
	if success && s.Details.Status.CanTransitionTo(models.SuspectCleared) {
		if err := advance("suspect", s.ID, &s.Details.Status, models.SuspectCleared); err != nil {
			return err
		}
		if err := c.tx.UpdateSuspect(c.ctx, s); err != nil {
			return err
		}
	}
	ev := models.Event{
		Type:       models.EventPaymentSettled,
		CaseID:     pay.Details.CaseID,
		Message:    fmt.Sprintf("Payment %d %s", pay.ID, to),
		Recipients: []models.Role{models.RoleSergeant},
		Data:       map[string]interface{}{"paymentID": pay.ID, "status": string(to)},
	}
	if s.Details.PersonID != nil {
		ev.UserIDs = []int64{*s.Details.PersonID}
	}
	c.emit(ev)
	if action == "" {
		action = "payment." + string(to)
	}
	return c.record(pay.Details.CaseID, action, map[string]interface{}{
		"paymentID": pay.ID,
		"ref":       ref,
	})
}
