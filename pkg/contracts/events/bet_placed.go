package events

import "time"

// Evento publicado no tópico "betslip_placed" quando todas as apostas de um
// betslip foram aceitas pela plataforma.
type BetslipPlaced struct {
	RequestID  string    `json:"request_id"`
	UserID     string    `json:"user_id"`
	Grouping   string    `json:"grouping"` // "single" | "multiple"
	Stake      string    `json:"stake"`    // decimal em string, ex: "10.00"
	Currency   string    `json:"currency"`
	BetIDs     []string  `json:"bet_ids"`
	Selections int       `json:"selections"`
	Ts         time.Time `json:"ts"`
}
