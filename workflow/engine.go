package workflow

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/linesmerrill/police-case-api/models"
)

// Publisher delivers committed domain events
type Publisher interface {
	Publish(ctx context.Context, events []models.Event) error
}

// Checkout is the gateway's answer to a payment start request
type Checkout struct {
	Authority   string `json:"authority"`
	RedirectURL string `json:"redirectURL"`
}

// PaymentGateway opens an external checkout for a payment
type PaymentGateway interface {
	StartCheckout(ctx context.Context, payment models.BailPayment) (Checkout, error)
}

// EvidenceCounter reports evidence counts per kind for a case
type EvidenceCounter interface {
	CountByCase(ctx context.Context, caseID int64) (map[string]int64, error)
}

// Options configures an Engine. Every field is optional.
type Options struct {
	Clock     func() time.Time
	NewCode   func() string
	Publisher Publisher
	Gateway   PaymentGateway
	Evidence  EvidenceCounter
	Metrics   *Metrics
	Logger    *zap.Logger
}

// Engine runs the case workflow state machines on top of a Store
type Engine struct {
	store     Store
	now       func() time.Time
	newCode   func() string
	publisher Publisher
	gateway   PaymentGateway
	evidence  EvidenceCounter
	metrics   *Metrics
	log       *zap.Logger
}

// New returns an Engine over store
func New(store Store, opts Options) *Engine {
	e := &Engine{
		store:     store,
		now:       opts.Clock,
		newCode:   opts.NewCode,
		publisher: opts.Publisher,
		gateway:   opts.Gateway,
		evidence:  opts.Evidence,
		metrics:   opts.Metrics,
		log:       opts.Logger,
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.newCode == nil {
		e.newCode = rewardCode
	}
	if e.log == nil {
		e.log = zap.L()
	}
	return e
}

// change is the state of one transition while its transaction is open
type change struct {
	ctx    context.Context
	tx     Tx
	p      Principal
	now    time.Time
	action string
	events []models.Event
	// unchanged marks an idempotent replay that wrote nothing
	unchanged bool
}

// record appends the single case log entry of the transition
func (c *change) record(caseID int64, action string, details map[string]interface{}) error {
	if c.action != "" {
		return fmt.Errorf("transition %s already logged as %s", action, c.action)
	}
	c.action = action
	return c.tx.AppendLog(c.ctx, &models.CaseLog{Details: models.CaseLogDetails{
		CaseID:    caseID,
		Action:    action,
		Details:   details,
		ActorID:   c.p.ID(),
		CreatedAt: c.now,
	}})
}

func (c *change) emit(ev models.Event) {
	ev.ActorID = c.p.ID()
	ev.OccurredAt = c.now
	c.events = append(c.events, ev)
}

// transition runs fn in one transaction, requires exactly one log entry and
// publishes the collected events once the transaction committed
func (e *Engine) transition(ctx context.Context, p Principal, op string, fn func(c *change) error) error {
	return e.run(ctx, p, op, true, fn)
}

// edit is transition without the log requirement, for non-workflow writes
func (e *Engine) edit(ctx context.Context, p Principal, op string, fn func(c *change) error) error {
	return e.run(ctx, p, op, false, fn)
}

func (e *Engine) run(ctx context.Context, p Principal, op string, audited bool, fn func(c *change) error) error {
	started := e.now()
	var done *change
	err := e.store.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		c := &change{ctx: ctx, tx: tx, p: p, now: e.now().UTC()}
		if err := fn(c); err != nil {
			return err
		}
		if audited && c.action == "" && !c.unchanged {
			return fmt.Errorf("%s: transition wrote no case log entry", op)
		}
		done = c
		return nil
	})
	err = translate(err)
	e.metrics.observe(op, e.now().Sub(started), err)
	if err != nil {
		if KindOf(err) == "" {
			e.log.Error("workflow transaction failed", zap.String("op", op), zap.Int64("actor", p.ID()), zap.Error(err))
		}
		return err
	}
	if done.unchanged {
		e.log.Debug("workflow replay ignored", zap.String("op", op), zap.Int64("actor", p.ID()))
		return nil
	}
	e.log.Debug("workflow transition committed", zap.String("op", op), zap.String("action", done.action), zap.Int64("actor", p.ID()))
	e.publish(ctx, done.events)
	return nil
}

func (e *Engine) publish(ctx context.Context, events []models.Event) {
	if e.publisher == nil || len(events) == 0 {
		return
	}
	if err := e.publisher.Publish(ctx, events); err != nil {
		e.log.Warn("failed to publish workflow events", zap.Int("count", len(events)), zap.Error(err))
	}
}

func (e *Engine) view(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return translate(e.store.View(ctx, fn))
}
