package broadcast

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/radieske/betslip-sync/internal/betslip"
	"github.com/radieske/betslip-sync/pkg/contracts/events"
)

// Publisher é o destino do broadcast; RedisBroadcaster satisfaz
type Publisher interface {
	Publish(ctx context.Context, change events.BetslipChanged) error
}

// RedisBroadcaster publica cada versão do betslip num canal Redis Pub/Sub
type RedisBroadcaster struct {
	r       *redis.Client
	channel string
}

func NewRedisBroadcaster(r *redis.Client, channel string) *RedisBroadcaster {
	return &RedisBroadcaster{r: r, channel: channel}
}

func (b *RedisBroadcaster) Publish(ctx context.Context, change events.BetslipChanged) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return err
	}
	if err := b.r.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", b.channel, err)
	}
	return nil
}

// Change monta o payload de broadcast para a lista de tickets
func Change(ts []betslip.Ticket) events.BetslipChanged {
	ids := make([]string, len(ts))
	for i, t := range ts {
		ids[i] = t.ID
	}
	return events.BetslipChanged{TicketIDs: ids, Payload: ts}
}

// Forward publica cada lista recebida até o canal fechar ou ctx ser cancelado.
// Falhas de publicação são apenas logadas.
func Forward(ctx context.Context, tickets <-chan []betslip.Ticket, pub Publisher, log *zap.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case ts, ok := <-tickets:
			if !ok {
				return
			}
			if err := pub.Publish(ctx, Change(ts)); err != nil {
				log.Warn("betslip broadcast failed", zap.Error(err), zap.Int("tickets", len(ts)))
			}
		}
	}
}
