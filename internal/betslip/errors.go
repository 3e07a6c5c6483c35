package betslip

import (
	"errors"
	"fmt"
	"strings"

	"github.com/radieske/betslip-sync/internal/platform"
	"github.com/radieske/betslip-sync/internal/platform/dto"
)

var (
	ErrStopped          = errors.New("betslip manager stopped")
	ErrUnknownTicket    = errors.New("ticket not in betslip")
	ErrEmptyBetslip     = errors.New("betslip is empty")
	ErrForbiddenRequest = errors.New("placement not allowed for this session")
	ErrGenericPlacement = errors.New("bet placement failed")
)

// PlacementError é a recusa da plataforma com mensagem legível
type PlacementError struct {
	Message string
}

func (e *PlacementError) Error() string { return "bet rejected: " + e.Message }

// ConfirmationRequiredError exige nova confirmação do usuário antes de reenviar a aposta
type ConfirmationRequiredError struct {
	Details dto.ConfirmationDetails
}

func (e *ConfirmationRequiredError) Error() string {
	if e.Details.Reason == "" {
		return "bet needs user confirmation"
	}
	return "bet needs user confirmation: " + e.Details.Reason
}

const betErrorPrefix = "bet_error"

// defaultBetErrors traduz as chaves "bet_error.*" conhecidas
var defaultBetErrors = map[string]string{
	"bet_error.stake_too_high":       "Stake is above the maximum allowed for this bet",
	"bet_error.stake_too_low":        "Stake is below the minimum allowed for this bet",
	"bet_error.insufficient_balance": "Insufficient balance to place this bet",
	"bet_error.outcome_unavailable":  "One or more selections are no longer available",
	"bet_error.market_suspended":     "One or more markets are suspended",
}

func defaultLocalize(key string) (string, bool) {
	s, ok := defaultBetErrors[key]
	return s, ok
}

// classifyPlacement converte a falha da plataforma na taxonomia de colocação
func classifyPlacement(err error, localize func(string) (string, bool)) error {
	var perr *platform.Error
	if !errors.As(err, &perr) {
		return fmt.Errorf("%w: %v", ErrGenericPlacement, err)
	}
	switch perr.Kind {
	case platform.KindForbidden:
		return ErrForbiddenRequest
	case platform.KindConfirmationRequired:
		if perr.Confirmation == nil {
			return fmt.Errorf("%w: %v", ErrGenericPlacement, err)
		}
		return &ConfirmationRequiredError{Details: *perr.Confirmation}
	case platform.KindRejected:
		return &PlacementError{Message: localizeMessage(perr.Message, localize)}
	default:
		return fmt.Errorf("%w: %v", ErrGenericPlacement, err)
	}
}

func localizeMessage(msg string, localize func(string) (string, bool)) string {
	key := strings.TrimSpace(msg)
	if !strings.HasPrefix(key, betErrorPrefix) || localize == nil {
		return msg
	}
	if s, ok := localize(key); ok {
		return s
	}
	return msg
}

// placementResult nomeia a falha para métricas
func placementResult(err error) string {
	var (
		perr *PlacementError
		cerr *ConfirmationRequiredError
	)
	switch {
	case errors.Is(err, ErrForbiddenRequest):
		return "forbidden"
	case errors.As(err, &cerr):
		return "confirmation_required"
	case errors.As(err, &perr):
		return "rejected"
	default:
		return "error"
	}
}
