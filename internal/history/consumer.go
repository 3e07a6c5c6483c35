package history

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	skafka "github.com/radieske/betslip-sync/internal/shared/kafka"
	"github.com/radieske/betslip-sync/pkg/contracts/events"
)

// Recorder grava uma linha do histórico; *Postgres satisfaz
type Recorder interface {
	Record(ctx context.Context, pl Placement) error
}

// Consumer lê o tópico betslip_placed e persiste cada colocação no histórico.
// Callbacks de métricas são opcionais.
type Consumer struct {
	Log    *zap.Logger
	Reader skafka.MessageReader
	Store  Recorder

	// Pausa após falha de leitura
	Backoff time.Duration

	OnConsumed func()
	OnPersist  func()
	OnError    func(stage string)
}

// Run consome até o contexto ser cancelado
func (c *Consumer) Run(ctx context.Context) error {
	backoff := c.Backoff
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}
	for {
		m, err := c.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.Log.Warn("kafka read failed", zap.Error(err))
			c.fail("read")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			continue
		}
		if c.OnConsumed != nil {
			c.OnConsumed()
		}

		var ev events.BetslipPlaced
		if err := json.Unmarshal(m.Value, &ev); err != nil || ev.RequestID == "" {
			c.Log.Warn("invalid betslip_placed message", zap.Error(err), zap.ByteString("key", m.Key))
			c.fail("decode")
			continue
		}

		if err := c.Store.Record(ctx, FromEvent(ev)); err != nil {
			c.Log.Warn("history insert failed", zap.String("request_id", ev.RequestID), zap.Error(err))
			c.fail("db")
			continue
		}
		if c.OnPersist != nil {
			c.OnPersist()
		}
	}
}

func (c *Consumer) fail(stage string) {
	if c.OnError != nil {
		c.OnError(stage)
	}
}
