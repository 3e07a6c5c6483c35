package notify

import (
	"context"
	"errors"

	"github.com/radieske/betslip-sync/internal/betslip"
)

// Fanout entrega o aviso a todos os destinos, mesmo que algum falhe
type Fanout []betslip.Notifier

func (f Fanout) BetPlaced(ctx context.Context, r betslip.Receipt) error {
	var errs []error
	for _, n := range f {
		if n == nil {
			continue
		}
		if err := n.BetPlaced(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
