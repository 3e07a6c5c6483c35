package betslip

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/radieske/betslip-sync/internal/feed"
	"github.com/radieske/betslip-sync/internal/platform/dto"
	"github.com/radieske/betslip-sync/internal/session"
)

// LiveFeed é o feed de odds/disponibilidade por outcome
type LiveFeed interface {
	SubscribeToSingleOutcome(ctx context.Context, eventID, outcomeID string) (<-chan feed.Event, error)
	ConnectionStates() (<-chan feed.ConnectionState, func())
}

type BoostQuery interface {
	OddsBoostTiers(ctx context.Context, currency string, stake *decimal.Decimal, selections []dto.BoostSelection) (*dto.OddsBoostResponse, error)
}

type PlacementService interface {
	PlaceBets(ctx context.Context, req dto.PlaceBetsRequest) (*dto.PlaceBetsResponse, error)
}

// BetTypesResolver é o ponto de extensão da política de tipos de aposta
type BetTypesResolver interface {
	AllowedBetTypes(ctx context.Context, selections []dto.BetTypeSelection) ([]dto.BetType, error)
}

// KeyValueStore é o armazenamento durável do snapshot; Get retorna (nil, nil) se não houver valor
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

type Session interface {
	LoginStates() (<-chan session.LoginState, func())
	CurrentUser() (session.User, bool)
	CurrentWallet() (session.Wallet, bool)
}

// Notifier recebe o aviso de "nova aposta colocada"
type Notifier interface {
	BetPlaced(ctx context.Context, r Receipt) error
}

type WalletRefresher interface {
	Refresh(ctx context.Context, userID string) error
}

// NoBetTypes é a política padrão: nenhum tipo adicional resolvido
type NoBetTypes struct{}

func (NoBetTypes) AllowedBetTypes(context.Context, []dto.BetTypeSelection) ([]dto.BetType, error) {
	return []dto.BetType{}, nil
}
