package betslip

import (
	"context"

	"go.uber.org/zap"

	"github.com/radieske/betslip-sync/internal/platform/dto"
)

// LoadState é o ciclo de um conteúdo carregado de forma assíncrona
type LoadState string

const (
	LoadIdle    LoadState = "idle"
	LoadLoading LoadState = "loading"
	LoadLoaded  LoadState = "loaded"
	LoadFailed  LoadState = "error"
)

// BetTypesState é o conteúdo exposto dos tipos de aposta permitidos
type BetTypesState struct {
	State    LoadState     `json:"state"`
	BetTypes []dto.BetType `json:"betTypes,omitempty"`
	Err      string        `json:"error,omitempty"`
}

// deriveBetTypes recalcula os tipos de aposta para o conjunto atual.
// Betslip vazio volta a idle; resultados de derivações anteriores são descartados.
func (m *Manager) deriveBetTypes(ts []Ticket) {
	m.betTypesGen++
	if m.betTypesCancel != nil {
		m.betTypesCancel()
		m.betTypesCancel = nil
	}
	if len(ts) == 0 {
		m.betTypes.Set(BetTypesState{State: LoadIdle})
		return
	}

	gen := m.betTypesGen
	ctx, cancel := context.WithCancel(m.runCtx)
	m.betTypesCancel = cancel
	m.betTypes.Set(BetTypesState{State: LoadLoading})

	sels := make([]dto.BetTypeSelection, len(ts))
	for i, t := range ts {
		sels[i] = dto.BetTypeSelection{OutcomeID: t.ID, MarketID: t.MarketID, MatchID: t.MatchID}
	}
	resolver := m.deps.BetTypes

	go func() {
		types, err := resolver.AllowedBetTypes(ctx, sels)
		_ = m.post(func() {
			if gen != m.betTypesGen {
				return
			}
			if err != nil {
				m.log.Warn("resolve bet types", zap.Error(err), zap.Int("selections", len(sels)))
				m.betTypes.Set(BetTypesState{State: LoadFailed, Err: err.Error()})
				return
			}
			m.betTypes.Set(BetTypesState{State: LoadLoaded, BetTypes: types})
		})
	}()
}
