package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/radieske/betslip-sync/internal/betslip"
	"github.com/radieske/betslip-sync/pkg/contracts/events"
)

const schema = `
CREATE TABLE IF NOT EXISTS betslip_placements (
	id          UUID PRIMARY KEY,
	request_id  TEXT NOT NULL UNIQUE,
	user_id     TEXT NOT NULL,
	bet_grouping TEXT NOT NULL,
	stake       NUMERIC(12,2) NOT NULL,
	currency    TEXT NOT NULL,
	bet_ids     TEXT[] NOT NULL,
	selections  INT NOT NULL,
	placed_at   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS betslip_placements_user_idx ON betslip_placements (user_id, placed_at DESC);`

// Placement é uma linha do histórico de colocações aceitas
type Placement struct {
	ID         string    `json:"id"`
	RequestID  string    `json:"requestId"`
	UserID     string    `json:"userId"`
	Grouping   string    `json:"grouping"`
	Stake      string    `json:"stake"`
	Currency   string    `json:"currency"`
	BetIDs     []string  `json:"betIds"`
	Selections int       `json:"selections"`
	PlacedAt   time.Time `json:"placedAt"`
}

// Postgres grava o histórico de colocações do betslip
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// EnsureSchema cria a tabela se ainda não existir
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure betslip_placements: %w", err)
	}
	return nil
}

// BetPlaced registra a colocação recebida direto do betslip
func (p *Postgres) BetPlaced(ctx context.Context, r betslip.Receipt) error {
	return p.Record(ctx, Placement{
		RequestID:  r.RequestID,
		UserID:     r.UserID,
		Grouping:   string(r.Grouping),
		Stake:      r.Stake.StringFixed(2),
		Currency:   r.Currency,
		BetIDs:     r.BetIDs,
		Selections: r.Selections,
		PlacedAt:   r.PlacedAt,
	})
}

// FromEvent converte o evento betslip_placed em linha do histórico
func FromEvent(ev events.BetslipPlaced) Placement {
	return Placement{
		RequestID:  ev.RequestID,
		UserID:     ev.UserID,
		Grouping:   ev.Grouping,
		Stake:      ev.Stake,
		Currency:   ev.Currency,
		BetIDs:     ev.BetIDs,
		Selections: ev.Selections,
		PlacedAt:   ev.Ts,
	}
}

// Record insere a colocação; reenvio do mesmo request_id é ignorado
func (p *Postgres) Record(ctx context.Context, pl Placement) error {
	if pl.ID == "" {
		pl.ID = uuid.NewString()
	}
	if pl.BetIDs == nil {
		pl.BetIDs = []string{}
	}
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO betslip_placements (id,request_id,user_id,bet_grouping,stake,currency,bet_ids,selections,placed_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (request_id) DO NOTHING`,
		pl.ID, pl.RequestID, pl.UserID, pl.Grouping, pl.Stake,
		pl.Currency, pq.Array(pl.BetIDs), pl.Selections, pl.PlacedAt,
	)
	if err != nil {
		return fmt.Errorf("insert betslip placement: %w", err)
	}
	return nil
}

// Recent lista as últimas colocações do usuário, mais recentes primeiro
func (p *Postgres) Recent(ctx context.Context, userID string, limit int) ([]Placement, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id,request_id,user_id,bet_grouping,stake::text,currency,bet_ids,selections,placed_at
		FROM betslip_placements
		WHERE user_id=$1
		ORDER BY placed_at DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Placement{}
	for rows.Next() {
		var pl Placement
		if err := rows.Scan(&pl.ID, &pl.RequestID, &pl.UserID, &pl.Grouping, &pl.Stake,
			&pl.Currency, pq.Array(&pl.BetIDs), &pl.Selections, &pl.PlacedAt); err != nil {
			return nil, err
		}
		out = append(out, pl)
	}
	return out, rows.Err()
}
