package simulator

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/betslip-sync/internal/platform/dto"
)

// Políticas de validação de odds aceitas na colocação
const (
	PolicyExact        = ""
	PolicyAcceptHigher = "accept_higher"
	PolicyAcceptAny    = "accept_any"
)

var foldNames = map[int]string{2: "double", 3: "treble", 4: "fourfold"}

// Platform simula a API da plataforma (boost, bet types, apostas) e o wallet-service
type Platform struct {
	Board   *Board
	Catalog *Catalog
	Log     *zap.Logger

	mu       sync.Mutex
	balances map[string]int64 // userID -> saldo em centavos
}

func NewPlatform(board *Board, catalog *Catalog, log *zap.Logger) *Platform {
	return &Platform{
		Board:    board,
		Catalog:  catalog,
		Log:      log,
		balances: make(map[string]int64),
	}
}

// Mount registra as rotas da plataforma e da carteira no roteador
func (p *Platform) Mount(r chi.Router) {
	r.Post("/platform/odds-boost", p.oddsBoost)
	r.Post("/platform/bet-types", p.betTypes)
	r.Post("/platform/bets", p.placeBets)
	r.Get("/wallet", p.wallet)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func reject(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, dto.ErrorResponse{Message: msg})
}

// WalletID é o id da carteira simulada do usuário
func WalletID(userID string) string { return "wallet-" + userID }

func bonusWalletID(currency string) string { return "bonus-" + strings.ToLower(currency) }

// oddsBoost devolve a faixa atual e a próxima para a quantidade de seleções; 204 quando não há nenhuma
func (p *Platform) oddsBoost(w http.ResponseWriter, r *http.Request) {
	var req dto.OddsBoostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		reject(w, http.StatusBadRequest, "invalid body")
		return
	}
	if req.Currency == "" {
		reject(w, http.StatusBadRequest, "currency required")
		return
	}

	n := len(req.Selections)
	var current, next *dto.BoostTier
	for _, t := range p.Catalog.BoostTiers {
		tier := &dto.BoostTier{Percentage: decimal.RequireFromString(t.Percentage), MinSelections: t.MinSelections}
		if t.MinSelections <= n {
			current = tier
			continue
		}
		next = tier
		break
	}
	if current == nil && next == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, dto.OddsBoostResponse{
		CurrentTier: current,
		NextTier:    next,
		WalletID:    bonusWalletID(req.Currency),
	})
}

// betTypes resolve os tipos de aposta; seleções da mesma partida só permitem simples
func (p *Platform) betTypes(w http.ResponseWriter, r *http.Request) {
	var req dto.BetTypesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		reject(w, http.StatusBadRequest, "invalid body")
		return
	}
	writeJSON(w, http.StatusOK, dto.BetTypesResponse{BetTypes: AllowedBetTypes(req.Selections)})
}

// AllowedBetTypes lista simples + combinações de k seleções (k >= 2)
func AllowedBetTypes(selections []dto.BetTypeSelection) []dto.BetType {
	n := len(selections)
	if n == 0 {
		return []dto.BetType{}
	}
	out := []dto.BetType{{Code: "single", Name: "Single", NumberOfBets: n}}

	matches := make(map[string]bool, n)
	for _, s := range selections {
		if matches[s.MatchID] {
			return out
		}
		matches[s.MatchID] = true
	}

	for k := 2; k <= n; k++ {
		code, ok := foldNames[k]
		if !ok {
			code = fmt.Sprintf("%dfold", k)
		}
		name := strings.ToUpper(code[:1]) + code[1:]
		out = append(out, dto.BetType{Code: code, Name: name, NumberOfBets: binomial(n, k)})
	}
	return out
}

func binomial(n, k int) int {
	r := 1
	for i := 1; i <= k; i++ {
		r = r * (n - k + i) / i
	}
	return r
}

// placeBets valida sessão, stake, saldo e odds; debita a carteira e aceita as apostas
func (p *Platform) placeBets(w http.ResponseWriter, r *http.Request) {
	var req dto.PlaceBetsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		reject(w, http.StatusBadRequest, "invalid body")
		return
	}
	if req.UserID == "" {
		reject(w, http.StatusForbidden, "session required")
		return
	}
	if len(req.Selections) == 0 || !req.Stake.IsPositive() {
		reject(w, http.StatusUnprocessableEntity, "bet_error.stake_too_low")
		return
	}
	if limit := p.Catalog.maxStake(); limit.IsPositive() && req.Stake.GreaterThan(limit) {
		reject(w, http.StatusUnprocessableEntity, "bet_error.stake_too_high")
		return
	}

	var changes []dto.ConfirmationOddsChange
	for _, s := range req.Selections {
		cur, ok := p.Board.Outcome(s.OutcomeID)
		if !ok || !cur.Available {
			reject(w, http.StatusUnprocessableEntity, "bet_error.outcome_unavailable")
			return
		}
		if !oddAccepted(req.OddsValidationPolicy, s.Odd, cur.Odd) {
			changes = append(changes, dto.ConfirmationOddsChange{OutcomeID: s.OutcomeID, OldOdd: s.Odd, NewOdd: cur.Odd})
		}
	}
	if len(changes) > 0 {
		writeJSON(w, http.StatusConflict, dto.ErrorResponse{
			Message: "odds changed",
			Confirmation: &dto.ConfirmationDetails{
				Reason:  "odds_changed",
				Message: "one or more odds changed since the selection",
				Changes: changes,
			},
		})
		return
	}

	bets := 1
	if req.Grouping == dto.GroupingSingle {
		bets = len(req.Selections)
	}
	cost := req.Stake.Mul(decimal.NewFromInt(int64(bets))).Shift(2).IntPart()
	if !req.UseBonusBalance && !p.debit(req.UserID, cost) {
		reject(w, http.StatusUnprocessableEntity, "bet_error.insufficient_balance")
		return
	}

	resp := dto.PlaceBetsResponse{Bets: make([]dto.PlacedBet, 0, bets)}
	for i := 0; i < bets; i++ {
		resp.Bets = append(resp.Bets, dto.PlacedBet{BetID: uuid.NewString(), Status: dto.BetStatusAccepted})
	}
	p.Log.Info("bets accepted",
		zap.String("request_id", req.RequestID),
		zap.String("user_id", req.UserID),
		zap.String("grouping", string(req.Grouping)),
		zap.Int("bets", bets),
	)
	writeJSON(w, http.StatusOK, resp)
}

// oddAccepted aplica a política de validação entre a odd enviada e a atual
func oddAccepted(policy string, sent, current decimal.Decimal) bool {
	switch policy {
	case PolicyAcceptAny:
		return true
	case PolicyAcceptHigher:
		return current.GreaterThanOrEqual(sent)
	default:
		return current.Equal(sent)
	}
}

func (p *Platform) debit(userID string, cents int64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	bal := p.balanceLocked(userID)
	if bal < cents {
		return false
	}
	p.balances[userID] = bal - cents
	return true
}

func (p *Platform) balanceLocked(userID string) int64 {
	bal, ok := p.balances[userID]
	if !ok {
		bal = p.Catalog.initialBalanceCents()
		p.balances[userID] = bal
	}
	return bal
}

// wallet responde GET /wallet?userId= com o saldo simulado
func (p *Platform) wallet(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		reject(w, http.StatusBadRequest, "userId required")
		return
	}
	p.mu.Lock()
	bal := p.balanceLocked(userID)
	p.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"userId":        userID,
		"walletId":      WalletID(userID),
		"balance_cents": bal,
	})
}
