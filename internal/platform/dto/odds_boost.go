package dto

import "github.com/shopspring/decimal"

// BoostSelection identifica uma seleção elegível ao odds boost
type BoostSelection struct {
	OutcomeID string `json:"outcomeId"`
	EventID   string `json:"eventId"`
}

// OddsBoostRequest é o payload de consulta de faixas de boost
type OddsBoostRequest struct {
	Currency    string           `json:"currency"`
	StakeAmount *decimal.Decimal `json:"stakeAmount,omitempty"`
	Selections  []BoostSelection `json:"selections"`
}

type BoostTier struct {
	Percentage    decimal.Decimal `json:"percentage"`
	MinSelections int             `json:"minSelections"`
}

// OddsBoostResponse traz a faixa atual e a próxima; qualquer uma pode faltar
type OddsBoostResponse struct {
	CurrentTier *BoostTier `json:"currentTier,omitempty"`
	NextTier    *BoostTier `json:"nextTier,omitempty"`
	WalletID    string     `json:"walletId"`
}
