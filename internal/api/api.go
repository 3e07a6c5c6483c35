package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/betslip-sync/internal/betslip"
	"github.com/radieske/betslip-sync/internal/broadcast"
	"github.com/radieske/betslip-sync/internal/history"
	"github.com/radieske/betslip-sync/internal/platform/dto"
	"github.com/radieske/betslip-sync/internal/session"
)

const historyLimit = 20

// Betslip é o que a API usa do betslip.Manager
type Betslip interface {
	AddTicket(ctx context.Context, t betslip.Ticket) error
	RemoveTicket(ctx context.Context, id string) error
	RemoveAll(ctx context.Context) error
	Tickets() []betslip.Ticket
	BetTypes() betslip.BetTypesState
	OddsBoost() *betslip.OddsBoostState
	PlaceBet(ctx context.Context, in betslip.PlaceBetInput) (*dto.PlaceBetsResponse, error)
}

type Sessions interface {
	Login(u session.User, w session.Wallet)
	Logout()
	CurrentUser() (session.User, bool)
}

type History interface {
	Recent(ctx context.Context, userID string, limit int) ([]history.Placement, error)
}

// API expõe o betslip para a UI via REST (+ WebSocket, se Hub estiver configurado)
type API struct {
	Betslip Betslip
	Session Sessions
	History History        // opcional
	Hub     *broadcast.Hub // opcional
	Log     *zap.Logger

	// DefaultOddsPolicy é usada quando o pedido não informa política
	DefaultOddsPolicy string
}

// Router retorna o roteador HTTP com os endpoints do betslip
func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/v1/betslip", a.getBetslip)                   // Tickets + estados derivados
	r.Delete("/v1/betslip", a.clearBetslip)              // Esvazia o betslip
	r.Post("/v1/betslip/tickets", a.addTicket)           // Adiciona/atualiza ticket
	r.Delete("/v1/betslip/tickets/{id}", a.removeTicket) // Remove ticket
	r.Get("/v1/betslip/bet-types", a.getBetTypes)        // Tipos de aposta permitidos
	r.Get("/v1/betslip/odds-boost", a.getOddsBoost)      // Faixa de boost atual
	r.Post("/v1/betslip/place", a.placeBet)              // Coloca a aposta
	r.Get("/v1/betslip/history", a.getHistory)           // Colocações do usuário
	r.Post("/v1/session", a.login)                       // Login simulado
	r.Delete("/v1/session", a.logout)                    // Logout
	if a.Hub != nil {
		r.Get("/v1/betslip/ws", a.Hub.HandleWS) // Mudanças do betslip em tempo real
	}
	return r
}

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type boostView struct {
	*betslip.OddsBoostState
	SelectionsNeededForNextTier int `json:"selectionsNeededForNextTier"`
}

func toBoostView(s *betslip.OddsBoostState) *boostView {
	if s == nil {
		return nil
	}
	return &boostView{OddsBoostState: s, SelectionsNeededForNextTier: s.SelectionsNeededForNextTier()}
}

type betslipView struct {
	Tickets   []betslip.Ticket      `json:"tickets"`
	BetTypes  betslip.BetTypesState `json:"betTypes"`
	OddsBoost *boostView            `json:"oddsBoost"`
}

func (a *API) getBetslip(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, betslipView{
		Tickets:   a.Betslip.Tickets(),
		BetTypes:  a.Betslip.BetTypes(),
		OddsBoost: toBoostView(a.Betslip.OddsBoost()),
	})
}

func (a *API) addTicket(w http.ResponseWriter, r *http.Request) {
	var t betslip.Ticket
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if t.ID == "" || t.MatchID == "" || !t.Odd.IsPositive() {
		writeError(w, http.StatusBadRequest, "id, matchId and a positive odd are required")
		return
	}
	if err := a.Betslip.AddTicket(r.Context(), t); err != nil {
		a.unavailable(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, a.Betslip.Tickets())
}

func (a *API) removeTicket(w http.ResponseWriter, r *http.Request) {
	if err := a.Betslip.RemoveTicket(r.Context(), chi.URLParam(r, "id")); err != nil {
		a.unavailable(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) clearBetslip(w http.ResponseWriter, r *http.Request) {
	if err := a.Betslip.RemoveAll(r.Context()); err != nil {
		a.unavailable(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) getBetTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.Betslip.BetTypes())
}

// getOddsBoost responde 204 quando não há boost
func (a *API) getOddsBoost(w http.ResponseWriter, r *http.Request) {
	b := a.Betslip.OddsBoost()
	if b == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, toBoostView(b))
}

type placeRequest struct {
	Stake                decimal.Decimal `json:"stake"`
	UseBonusBalance      bool            `json:"useBonusBalance"`
	OddsValidationPolicy string          `json:"oddsValidationPolicy"`
}

type confirmationBody struct {
	Error        string                  `json:"error"`
	Confirmation dto.ConfirmationDetails `json:"confirmation"`
}

func (a *API) placeBet(w http.ResponseWriter, r *http.Request) {
	var req placeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if !req.Stake.IsPositive() {
		writeError(w, http.StatusBadRequest, "stake must be positive")
		return
	}
	if req.OddsValidationPolicy == "" {
		req.OddsValidationPolicy = a.DefaultOddsPolicy
	}

	resp, err := a.Betslip.PlaceBet(r.Context(), betslip.PlaceBetInput{
		Stake:                req.Stake,
		UseBonusBalance:      req.UseBonusBalance,
		OddsValidationPolicy: req.OddsValidationPolicy,
	})
	if err != nil {
		a.placementError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// placementError mapeia a taxonomia de colocação para status HTTP
func (a *API) placementError(w http.ResponseWriter, err error) {
	var (
		perr *betslip.PlacementError
		cerr *betslip.ConfirmationRequiredError
	)
	switch {
	case errors.Is(err, betslip.ErrEmptyBetslip):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, betslip.ErrForbiddenRequest):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.As(err, &cerr):
		writeJSON(w, http.StatusConflict, confirmationBody{Error: cerr.Error(), Confirmation: cerr.Details})
	case errors.As(err, &perr):
		writeError(w, http.StatusUnprocessableEntity, perr.Message)
	case errors.Is(err, betslip.ErrStopped):
		a.unavailable(w, err)
	default:
		a.Log.Warn("bet placement failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, betslip.ErrGenericPlacement.Error())
	}
}

func (a *API) getHistory(w http.ResponseWriter, r *http.Request) {
	if a.History == nil {
		writeError(w, http.StatusNotFound, "history disabled")
		return
	}
	u, ok := a.Session.CurrentUser()
	if !ok {
		writeError(w, http.StatusForbidden, "login required")
		return
	}
	items, err := a.History.Recent(r.Context(), u.ID, historyLimit)
	if err != nil {
		a.Log.Warn("load placement history", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "history unavailable")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

type loginRequest struct {
	UserID       string `json:"userId"`
	Username     string `json:"username"`
	WalletID     string `json:"walletId"`
	Currency     string `json:"currency"`
	BalanceCents int64  `json:"balance_cents"`
}

func (a *API) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if req.UserID == "" || req.Currency == "" {
		writeError(w, http.StatusBadRequest, "userId and currency are required")
		return
	}
	a.Session.Login(
		session.User{ID: req.UserID, Username: req.Username},
		session.Wallet{ID: req.WalletID, Currency: req.Currency, BalanceCents: req.BalanceCents},
	)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) logout(w http.ResponseWriter, r *http.Request) {
	a.Session.Logout()
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) unavailable(w http.ResponseWriter, err error) {
	if errors.Is(err, betslip.ErrStopped) {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeError(w, http.StatusRequestTimeout, err.Error())
}
