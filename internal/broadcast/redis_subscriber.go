package broadcast

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/radieske/betslip-sync/pkg/contracts/events"
)

// StartRedisSubscriber escuta o canal de broadcast e repassa cada mudança
// para os clientes WebSocket do Hub. Encerra quando ctx é cancelado.
func StartRedisSubscriber(ctx context.Context, r *redis.Client, channel string, hub *Hub, log *zap.Logger) {
	sub := r.Subscribe(ctx, channel)
	ch := sub.Channel()
	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var change events.BetslipChanged
				if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
					log.Warn("betslip broadcast unmarshal error", zap.Error(err))
					continue
				}
				hub.Broadcast(change)
			}
		}
	}()
}
