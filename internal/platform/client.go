package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/radieske/betslip-sync/internal/platform/dto"
)

// requestsPerSec limita as chamadas à plataforma; bursts de derivação
// (vários add/remove seguidos) não viram rajadas de requests
const (
	requestsPerSec = 20
	requestBurst   = 10
)

// Client fala com a API HTTP da plataforma de apostas.
// Não há retry: cada falha volta para quem chamou.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Limiter *rate.Limiter
}

func New(base string) *Client {
	return &Client{
		BaseURL: base,
		HTTP:    &http.Client{Timeout: 5 * time.Second},
		Limiter: rate.NewLimiter(requestsPerSec, requestBurst),
	}
}

// OddsBoostTiers consulta as faixas de odds boost para as seleções.
// Resposta 204 significa que não há boost disponível (nil, nil).
func (c *Client) OddsBoostTiers(ctx context.Context, currency string, stake *decimal.Decimal, selections []dto.BoostSelection) (*dto.OddsBoostResponse, error) {
	var out dto.OddsBoostResponse
	found, err := c.post(ctx, "/odds-boost", dto.OddsBoostRequest{
		Currency:    currency,
		StakeAmount: stake,
		Selections:  selections,
	}, &out)
	if err != nil || !found {
		return nil, err
	}
	return &out, nil
}

// PlaceBets envia o pedido de colocação das apostas
func (c *Client) PlaceBets(ctx context.Context, req dto.PlaceBetsRequest) (*dto.PlaceBetsResponse, error) {
	var out dto.PlaceBetsResponse
	if _, err := c.post(ctx, "/bets", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AllowedBetTypes resolve os tipos de aposta permitidos para o conjunto de seleções
func (c *Client) AllowedBetTypes(ctx context.Context, selections []dto.BetTypeSelection) ([]dto.BetType, error) {
	var out dto.BetTypesResponse
	if _, err := c.post(ctx, "/bet-types", dto.BetTypesRequest{Selections: selections}, &out); err != nil {
		return nil, err
	}
	return out.BetTypes, nil
}

// post envia JSON e decodifica a resposta em out; retorna false quando a resposta é 204
func (c *Client) post(ctx context.Context, path string, in, out any) (bool, error) {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return false, fmt.Errorf("platform %s: rate limiter: %w", path, err)
		}
	}
	body, err := json.Marshal(in)
	if err != nil {
		return false, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.HTTP.Do(req)
	if err != nil {
		return false, fmt.Errorf("platform %s: %w", path, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNoContent {
		return false, nil
	}
	if res.StatusCode >= 300 {
		return false, decodeError(res)
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return false, fmt.Errorf("platform %s: decode: %w", path, err)
	}
	return true, nil
}

// decodeError mapeia o status HTTP para o Kind correspondente
func decodeError(res *http.Response) error {
	perr := &Error{Status: res.StatusCode}

	raw, _ := io.ReadAll(io.LimitReader(res.Body, 64<<10))
	var body dto.ErrorResponse
	if len(raw) > 0 && json.Unmarshal(raw, &body) == nil {
		perr.Message = body.Message
		perr.Confirmation = body.Confirmation
	}

	switch {
	case res.StatusCode == http.StatusForbidden || res.StatusCode == http.StatusUnauthorized:
		perr.Kind = KindForbidden
	case res.StatusCode == http.StatusConflict && perr.Confirmation != nil:
		perr.Kind = KindConfirmationRequired
	case res.StatusCode == http.StatusUnprocessableEntity && perr.Message != "":
		perr.Kind = KindRejected
	default:
		perr.Kind = KindUnknown
	}
	return perr
}
