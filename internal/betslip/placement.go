package betslip

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/betslip-sync/internal/platform/dto"
)

const sideEffectTimeout = 5 * time.Second

// Receipt resume uma colocação aceita por completo
type Receipt struct {
	RequestID  string
	UserID     string
	Username   string
	Grouping   dto.Grouping
	Stake      decimal.Decimal
	Currency   string
	BetIDs     []string
	Selections int
	PlacedAt   time.Time
}

// PlaceBetInput são os parâmetros escolhidos pelo usuário
type PlaceBetInput struct {
	Stake                decimal.Decimal
	UseBonusBalance      bool
	OddsValidationPolicy string
}

// groupingFor classifica pela quantidade de seleções
func groupingFor(n int) dto.Grouping {
	if n == 1 {
		return dto.GroupingSingle
	}
	return dto.GroupingMultiple
}

// platformOdd é a representação de odd aceita pela plataforma (2 casas)
func platformOdd(d decimal.Decimal) decimal.Decimal { return d.Round(2) }

func buildSelections(ts []Ticket, stake decimal.Decimal) []dto.BetSelection {
	out := make([]dto.BetSelection, len(ts))
	for i, t := range ts {
		out[i] = dto.BetSelection{
			TicketID:    t.ID,
			OutcomeID:   t.OutcomeID,
			MarketID:    t.MarketID,
			MatchID:     t.MatchID,
			MatchName:   t.MatchDescription,
			MarketName:  t.MarketDescription,
			OutcomeName: t.OutcomeDescription,
			Odd:         platformOdd(t.Odd),
			Stake:       stake,
			SportCode:   t.SportIDCode,
		}
	}
	return out
}

// PlaceBet coloca a aposta com os tickets atuais.
// Não há retry: cada chamada é uma nova transação.
func (m *Manager) PlaceBet(ctx context.Context, in PlaceBetInput) (*dto.PlaceBetsResponse, error) {
	var (
		ts    []Ticket
		boost *OddsBoostState
	)
	if err := m.do(ctx, func() {
		ts = m.tickets.list()
		boost = m.boost.Get()
	}); err != nil {
		return nil, err
	}
	if len(ts) == 0 {
		m.hooks.onPlacement("empty")
		return nil, ErrEmptyBetslip
	}

	user, wallet, ok := m.currentSession()
	if !ok {
		m.hooks.onPlacement("forbidden")
		return nil, ErrForbiddenRequest
	}
	// boost calculado para outra sessão não vale para esta aposta
	var bonusWalletID string
	if boost.appliesTo(wallet) {
		bonusWalletID = boost.WalletID
	}

	req := dto.PlaceBetsRequest{
		RequestID:            uuid.NewString(),
		Grouping:             groupingFor(len(ts)),
		Selections:           buildSelections(ts, in.Stake),
		Stake:                in.Stake,
		UseBonusBalance:      in.UseBonusBalance,
		Currency:             wallet.Currency,
		Username:             user.Username,
		UserID:               user.ID,
		OddsValidationPolicy: in.OddsValidationPolicy,
		BonusWalletID:        bonusWalletID,
	}

	log := m.log.With(zap.String("request_id", req.RequestID), zap.String("grouping", string(req.Grouping)))
	resp, err := m.deps.Placement.PlaceBets(ctx, req)
	if err != nil {
		cerr := classifyPlacement(err, m.localize)
		log.Warn("bet placement failed", zap.Error(cerr))
		m.hooks.onPlacement(placementResult(cerr))
		return nil, cerr
	}

	if !resp.AllAccepted() {
		log.Info("bet placement partially accepted", zap.Int("bets", len(resp.Bets)))
		m.hooks.onPlacement("partial")
		return resp, nil
	}

	log.Info("bet placed", zap.Int("bets", len(resp.Bets)), zap.String("stake", in.Stake.String()))
	m.hooks.onPlacement("accepted")

	receipt := Receipt{
		RequestID:  req.RequestID,
		UserID:     user.ID,
		Username:   user.Username,
		Grouping:   req.Grouping,
		Stake:      in.Stake,
		Currency:   wallet.Currency,
		BetIDs:     betIDs(resp),
		Selections: len(ts),
		PlacedAt:   time.Now().UTC(),
	}
	m.afterPlacement(context.WithoutCancel(ctx), receipt)
	return resp, nil
}

// afterPlacement dispara notificação e refresh de saldo sem aguardar
func (m *Manager) afterPlacement(ctx context.Context, r Receipt) {
	if n := m.deps.Notifier; n != nil {
		go func() {
			nctx, cancel := context.WithTimeout(ctx, sideEffectTimeout)
			defer cancel()
			if err := n.BetPlaced(nctx, r); err != nil {
				m.log.Warn("bet placed notification failed", zap.String("request_id", r.RequestID), zap.Error(err))
			}
		}()
	}
	if w := m.deps.Wallet; w != nil {
		go func() {
			wctx, cancel := context.WithTimeout(ctx, sideEffectTimeout)
			defer cancel()
			if err := w.Refresh(wctx, r.UserID); err != nil {
				m.log.Warn("wallet refresh failed", zap.String("user_id", r.UserID), zap.Error(err))
			}
		}()
	}
}

func betIDs(resp *dto.PlaceBetsResponse) []string {
	out := make([]string, 0, len(resp.Bets))
	for _, b := range resp.Bets {
		out = append(out, b.BetID)
	}
	return out
}
