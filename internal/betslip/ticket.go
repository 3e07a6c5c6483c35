package betslip

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/betslip-sync/internal/feed"
)

// Ticket é uma seleção do usuário no betslip. ID é o id do outcome e a
// chave de junção com o armazenamento e com a assinatura do feed.
type Ticket struct {
	ID                  string          `json:"id"`
	OutcomeID           string          `json:"outcomeId"`
	MarketID            string          `json:"marketId"`
	MatchID             string          `json:"matchId"`
	IsAvailable         bool            `json:"isAvailable"`
	MatchDescription    string          `json:"matchDescription,omitempty"`
	MarketDescription   string          `json:"marketDescription,omitempty"`
	OutcomeDescription  string          `json:"outcomeDescription,omitempty"`
	HomeParticipantName string          `json:"homeParticipantName,omitempty"`
	AwayParticipantName string          `json:"awayParticipantName,omitempty"`
	Sport               string          `json:"sport,omitempty"`
	SportIDCode         string          `json:"sportIdCode,omitempty"`
	Venue               string          `json:"venue,omitempty"`
	Competition         string          `json:"competition,omitempty"`
	Date                *time.Time      `json:"date,omitempty"`
	Odd                 decimal.Decimal `json:"odd"`
	IsFromBetBuilder    bool            `json:"isFromBetBuilder,omitempty"`
}

// TicketUpdate sobrescreve campos de um Ticket. Strings vazias e ponteiros nil
// mantêm o valor anterior.
type TicketUpdate struct {
	OutcomeID           string
	MarketID            string
	MatchID             string
	IsAvailable         *bool
	Odd                 *decimal.Decimal
	MatchDescription    string
	MarketDescription   string
	OutcomeDescription  string
	HomeParticipantName string
	AwayParticipantName string
	Sport               string
	SportIDCode         string
	Venue               string
	Competition         string
	Date                *time.Time
	IsFromBetBuilder    *bool
}

// Apply devolve uma cópia do ticket com as sobrescritas aplicadas; ID nunca muda
func (t Ticket) Apply(u TicketUpdate) Ticket {
	out := t
	setString(&out.OutcomeID, u.OutcomeID)
	setString(&out.MarketID, u.MarketID)
	setString(&out.MatchID, u.MatchID)
	setString(&out.MatchDescription, u.MatchDescription)
	setString(&out.MarketDescription, u.MarketDescription)
	setString(&out.OutcomeDescription, u.OutcomeDescription)
	setString(&out.HomeParticipantName, u.HomeParticipantName)
	setString(&out.AwayParticipantName, u.AwayParticipantName)
	setString(&out.Sport, u.Sport)
	setString(&out.SportIDCode, u.SportIDCode)
	setString(&out.Venue, u.Venue)
	setString(&out.Competition, u.Competition)
	if u.IsAvailable != nil {
		out.IsAvailable = *u.IsAvailable
	}
	if u.Odd != nil {
		out.Odd = *u.Odd
	}
	if u.Date != nil {
		d := *u.Date
		out.Date = &d
	}
	if u.IsFromBetBuilder != nil {
		out.IsFromBetBuilder = *u.IsFromBetBuilder
	}
	return out
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// unavailable marca o ticket como retirado do mercado
func unavailable() TicketUpdate {
	f := false
	return TicketUpdate{IsAvailable: &f}
}

// updateFromOutcome monta a sobrescrita a partir do conteúdo recebido do feed
func updateFromOutcome(m *feed.Match, mk feed.Market, o feed.Outcome) TicketUpdate {
	available := o.Available
	odd := o.Odd
	betBuilder := mk.IsBetBuilder
	return TicketUpdate{
		OutcomeID:           o.ID,
		MarketID:            mk.ID,
		MatchID:             m.ID,
		IsAvailable:         &available,
		Odd:                 &odd,
		MatchDescription:    m.Name,
		MarketDescription:   mk.Name,
		OutcomeDescription:  o.Name,
		HomeParticipantName: m.HomeParticipant,
		AwayParticipantName: m.AwayParticipant,
		Sport:               m.Sport,
		SportIDCode:         m.SportCode,
		Venue:               m.Venue,
		Competition:         m.Competition,
		Date:                m.Date,
		IsFromBetBuilder:    &betBuilder,
	}
}
