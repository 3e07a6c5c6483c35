package betslip

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/betslip-sync/internal/platform/dto"
	"github.com/radieske/betslip-sync/internal/session"
)

type BoostTier struct {
	Percentage    decimal.Decimal `json:"percentage"`
	MinSelections int             `json:"minSelections"`
}

// OddsBoostState é a faixa de boost vigente para o betslip; nil significa sem boost
type OddsBoostState struct {
	CurrentTier    *BoostTier `json:"currentTier,omitempty"`
	NextTier       *BoostTier `json:"nextTier,omitempty"`
	WalletID       string     `json:"walletId"`
	SelectionCount int        `json:"selectionCount"`

	// carteira da sessão e moeda para as quais o boost foi calculado
	SessionWalletID string `json:"sessionWalletId"`
	Currency        string `json:"currency"`
}

// appliesTo indica se o boost foi calculado para a carteira w
func (s *OddsBoostState) appliesTo(w session.Wallet) bool {
	return s != nil && s.SessionWalletID == w.ID && s.Currency == w.Currency
}

// boostOwner identifica a sessão para a qual o boost corrente foi pedido
type boostOwner struct {
	userID   string
	walletID string
	currency string
}

// currentSession lê usuário e carteira; sem Session configurada o usuário é anônimo
func (m *Manager) currentSession() (session.User, session.Wallet, bool) {
	if m.deps.Session == nil {
		return session.User{}, session.Wallet{}, false
	}
	u, okUser := m.deps.Session.CurrentUser()
	w, okWallet := m.deps.Session.CurrentWallet()
	if !okUser || !okWallet {
		return session.User{}, session.Wallet{}, false
	}
	return u, w, true
}

func (m *Manager) sessionOwner() boostOwner {
	u, w, ok := m.currentSession()
	if !ok {
		return boostOwner{}
	}
	return boostOwner{userID: u.ID, walletID: w.ID, currency: w.Currency}
}

// SelectionsNeededForNextTier é informativo, não bloqueia nada
func (s *OddsBoostState) SelectionsNeededForNextTier() int {
	if s == nil || s.NextTier == nil {
		return 0
	}
	return max(0, s.NextTier.MinSelections-s.SelectionCount)
}

func toBoostTier(t *dto.BoostTier) *BoostTier {
	if t == nil {
		return nil
	}
	return &BoostTier{Percentage: t.Percentage, MinSelections: t.MinSelections}
}

// clearBoost invalida qualquer consulta em andamento e publica "sem boost"
func (m *Manager) clearBoost() {
	m.boostGen++
	if m.boostCancel != nil {
		m.boostCancel()
		m.boostCancel = nil
	}
	m.boost.Set(nil)
}

// deriveBoost consulta as faixas de boost para os tickets atuais.
// Sem tickets ou sem moeda autenticada o estado é limpo; falhas também limpam.
func (m *Manager) deriveBoost() {
	m.clearBoost()
	m.boostFor = m.sessionOwner()

	ts := m.tickets.list()
	if len(ts) == 0 || m.deps.Boosts == nil {
		return
	}
	_, wallet, ok := m.currentSession()
	if !ok || wallet.Currency == "" {
		return
	}

	gen := m.boostGen
	ctx, cancel := context.WithCancel(m.runCtx)
	m.boostCancel = cancel

	sels := make([]dto.BoostSelection, len(ts))
	for i, t := range ts {
		sels[i] = dto.BoostSelection{OutcomeID: t.ID, EventID: t.MatchID}
	}
	query := m.deps.Boosts

	go func() {
		resp, err := query.OddsBoostTiers(ctx, wallet.Currency, nil, sels)
		_ = m.post(func() {
			if gen != m.boostGen {
				return
			}
			if err != nil {
				m.log.Warn("odds boost query failed", zap.Error(err), zap.Int("selections", len(sels)))
				return
			}
			if resp == nil {
				return
			}
			m.boost.Set(&OddsBoostState{
				CurrentTier:     toBoostTier(resp.CurrentTier),
				NextTier:        toBoostTier(resp.NextTier),
				WalletID:        resp.WalletID,
				SelectionCount:  len(sels),
				SessionWalletID: wallet.ID,
				Currency:        wallet.Currency,
			})
		})
	}()
}

// handleLogin recalcula o boost sempre que a sessão corrente difere daquela
// para a qual ele foi pedido. O stream de login é conflacionado, então a
// sessão é lida no momento do tratamento e não inferida das transições.
func (m *Manager) handleLogin(s session.LoginState) {
	owner := m.sessionOwner()
	if owner == m.boostFor {
		return
	}
	m.log.Debug("session changed, odds boost rederived", zap.Stringer("login", s))
	m.deriveBoost()
}
