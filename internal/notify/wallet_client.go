package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// BalanceSink recebe o saldo atualizado; session.Store satisfaz
type BalanceSink interface {
	UpdateBalance(walletID string, balanceCents int64) bool
}

type walletResponse struct {
	UserID       string `json:"userId"`
	WalletID     string `json:"walletId"`
	BalanceCents int64  `json:"balance_cents"`
}

// WalletClient consulta o saldo no wallet-service e repassa para a sessão
type WalletClient struct {
	BaseURL string
	HTTP    *http.Client
	Sink    BalanceSink
}

func NewWalletClient(base string, sink BalanceSink) *WalletClient {
	return &WalletClient{
		BaseURL: base,
		HTTP:    &http.Client{Timeout: 2 * time.Second},
		Sink:    sink,
	}
}

// Refresh busca GET /wallet?userId= e atualiza o saldo da carteira corrente
func (c *WalletClient) Refresh(ctx context.Context, userID string) error {
	u := c.BaseURL + "/wallet?userId=" + url.QueryEscape(userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	res, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return fmt.Errorf("wallet get http %d", res.StatusCode)
	}

	var out walletResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return err
	}
	if c.Sink != nil && !c.Sink.UpdateBalance(out.WalletID, out.BalanceCents) {
		return fmt.Errorf("wallet %s is not the current session wallet", out.WalletID)
	}
	return nil
}
