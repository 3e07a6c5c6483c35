package dto

import "github.com/shopspring/decimal"

// Grouping classifica o pedido pela quantidade de seleções
type Grouping string

const (
	GroupingSingle   Grouping = "single"
	GroupingMultiple Grouping = "multiple"
)

// BetSelection é uma seleção enviada na colocação da aposta
type BetSelection struct {
	TicketID    string          `json:"ticketId"`
	OutcomeID   string          `json:"outcomeId"`
	MarketID    string          `json:"marketId"`
	MatchID     string          `json:"matchId"`
	MatchName   string          `json:"matchName,omitempty"`
	MarketName  string          `json:"marketName,omitempty"`
	OutcomeName string          `json:"outcomeName,omitempty"`
	Odd         decimal.Decimal `json:"odd"`
	Stake       decimal.Decimal `json:"stake"`
	SportCode   string          `json:"sportCode,omitempty"`
}

type PlaceBetsRequest struct {
	RequestID            string          `json:"requestId"`
	Grouping             Grouping        `json:"grouping"`
	Selections           []BetSelection  `json:"selections"`
	Stake                decimal.Decimal `json:"stake"`
	UseBonusBalance      bool            `json:"useBonusBalance"`
	Currency             string          `json:"currency"`
	Username             string          `json:"username"`
	UserID               string          `json:"userId"`
	OddsValidationPolicy string          `json:"oddsValidationPolicy,omitempty"`
	BonusWalletID        string          `json:"bonusWalletId,omitempty"`
}

// Status de cada aposta devolvida pela plataforma
const (
	BetStatusAccepted = "ACCEPTED"
	BetStatusRejected = "REJECTED"
)

type PlacedBet struct {
	BetID   string `json:"betId"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type PlaceBetsResponse struct {
	Bets []PlacedBet `json:"bets"`
}

// AllAccepted indica sucesso total: pelo menos uma aposta e todas aceitas
func (r *PlaceBetsResponse) AllAccepted() bool {
	if r == nil || len(r.Bets) == 0 {
		return false
	}
	for _, b := range r.Bets {
		if b.Status != BetStatusAccepted {
			return false
		}
	}
	return true
}

// ConfirmationDetails volta com 409 quando a plataforma exige reconfirmação (ex: odd mudou)
type ConfirmationDetails struct {
	Reason  string                   `json:"reason"`
	Message string                   `json:"message,omitempty"`
	Changes []ConfirmationOddsChange `json:"changes,omitempty"`
}

type ConfirmationOddsChange struct {
	OutcomeID string          `json:"outcomeId"`
	OldOdd    decimal.Decimal `json:"oldOdd"`
	NewOdd    decimal.Decimal `json:"newOdd"`
}

// ErrorResponse é o corpo de erro padrão da plataforma
type ErrorResponse struct {
	Message      string               `json:"message"`
	Confirmation *ConfirmationDetails `json:"confirmation,omitempty"`
}
