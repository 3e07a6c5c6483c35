package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/radieske/betslip-sync/internal/betslip"
	skafka "github.com/radieske/betslip-sync/internal/shared/kafka"
	"github.com/radieske/betslip-sync/pkg/contracts/events"
)

// KafkaPublisher publica "betslip_placed" a cada colocação aceita.
// A chave da mensagem é o userID, mantendo a ordem por usuário.
type KafkaPublisher struct {
	Writer skafka.MessageWriter
	Topic  string
}

func NewKafkaPublisher(w skafka.MessageWriter, topic string) *KafkaPublisher {
	return &KafkaPublisher{Writer: w, Topic: topic}
}

func (p *KafkaPublisher) BetPlaced(ctx context.Context, r betslip.Receipt) error {
	b, err := json.Marshal(toEvent(r))
	if err != nil {
		return fmt.Errorf("marshal %s: %w", p.Topic, err)
	}
	if err := skafka.WriteJSON(ctx, p.Writer, r.UserID, b); err != nil {
		return fmt.Errorf("publish %s: %w", p.Topic, err)
	}
	return nil
}

func toEvent(r betslip.Receipt) events.BetslipPlaced {
	return events.BetslipPlaced{
		RequestID:  r.RequestID,
		UserID:     r.UserID,
		Grouping:   string(r.Grouping),
		Stake:      r.Stake.StringFixed(2),
		Currency:   r.Currency,
		BetIDs:     r.BetIDs,
		Selections: r.Selections,
		Ts:         r.PlacedAt,
	}
}
