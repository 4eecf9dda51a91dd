package notify

import (
	"context"

	"go.uber.org/multierr"
)

// Multi fans a notice out to every notifier and collects their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, notice Notice) error {
	var err error
	for _, n := range m {
		err = multierr.Append(err, n.Notify(ctx, notice))
	}
	return err
}
