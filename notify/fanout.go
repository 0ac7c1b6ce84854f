package notify

import (
	"context"
	"errors"

	"github.com/linesmerrill/police-case-api/models"
	"github.com/linesmerrill/police-case-api/workflow"
)

// Fanout hands every batch of events to each publisher in turn. A failing
// publisher does not stop the others.
type Fanout []workflow.Publisher

// Publish implements workflow.Publisher
func (f Fanout) Publish(ctx context.Context, events []models.Event) error {
	var errs []error
	for _, p := range f {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, events); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
