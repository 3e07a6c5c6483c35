package feed

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrResourceUnavailable indica que o outcome foi retirado ou removido no servidor
	ErrResourceUnavailable = errors.New("resource unavailable or deleted")
	ErrNotConnected        = errors.New("feed not connected")
)

// Status do socket com o feed
type Status int

const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusConnected
)

func (s Status) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// ConnectionState carrega o status e a geração da conexão.
// Generation muda a cada nova conexão estabelecida; handles de geração
// anterior não valem mais.
type ConnectionState struct {
	Status     Status
	Generation uint64
}

type EventType int

const (
	EventConnected EventType = iota + 1
	EventContentUpdate
	EventDisconnected
	EventFailed
)

// Event é entregue no stream de uma assinatura de outcome.
// Handle vem em EventConnected, Match em EventContentUpdate e Err em EventFailed.
type Event struct {
	Type   EventType
	Handle string
	Match  *Match
	Err    error
}

// Match é o conteúdo de uma atualização: o evento esportivo com o mercado do outcome assinado
type Match struct {
	ID              string     `json:"id"`
	Name            string     `json:"name,omitempty"`
	HomeParticipant string     `json:"homeParticipant,omitempty"`
	AwayParticipant string     `json:"awayParticipant,omitempty"`
	Sport           string     `json:"sport,omitempty"`
	SportCode       string     `json:"sportCode,omitempty"`
	Venue           string     `json:"venue,omitempty"`
	Competition     string     `json:"competition,omitempty"`
	Date            *time.Time `json:"date,omitempty"`
	Markets         []Market   `json:"markets"`
}

type Market struct {
	ID           string    `json:"id"`
	Name         string    `json:"name,omitempty"`
	IsBetBuilder bool      `json:"isBetBuilder,omitempty"`
	Outcomes     []Outcome `json:"outcomes"`
}

type Outcome struct {
	ID        string          `json:"id"`
	Name      string          `json:"name,omitempty"`
	Odd       decimal.Decimal `json:"odd"`
	Available bool            `json:"available"`
}
