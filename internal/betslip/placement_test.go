package betslip

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radieske/betslip-sync/internal/platform"
	"github.com/radieske/betslip-sync/internal/platform/dto"
)

func stake(s string) PlaceBetInput {
	return PlaceBetInput{Stake: decimal.RequireFromString(s)}
}

func TestPlaceBet_EmptyBetslip(t *testing.T) {
	env := newEnv()
	env.login()
	m := env.start(t)

	_, err := m.PlaceBet(context.Background(), stake("10"))

	assert.ErrorIs(t, err, ErrEmptyBetslip)
	assert.Zero(t, env.placement.calls)
}

func TestPlaceBet_WithoutSessionIsForbidden(t *testing.T) {
	env := newEnv()
	m := env.start(t)
	require.NoError(t, m.AddTicket(context.Background(), ticket("out-a", "match-1", "1.50")))

	_, err := m.PlaceBet(context.Background(), stake("10"))

	assert.ErrorIs(t, err, ErrForbiddenRequest)
	assert.Zero(t, env.placement.calls)
}

func TestPlaceBet_Grouping(t *testing.T) {
	tests := []struct {
		name    string
		tickets int
		want    dto.Grouping
	}{
		{"one ticket is single", 1, dto.GroupingSingle},
		{"two tickets is multiple", 2, dto.GroupingMultiple},
		{"three tickets is multiple", 3, dto.GroupingMultiple},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newEnv()
			env.login()
			env.placement.resp = &dto.PlaceBetsResponse{Bets: []dto.PlacedBet{{BetID: "b-1", Status: dto.BetStatusAccepted}}}
			m := env.start(t)
			ctx := context.Background()
			for i := 0; i < tt.tickets; i++ {
				require.NoError(t, m.AddTicket(ctx, ticket(string(rune('a'+i)), "match-1", "1.50")))
			}

			_, err := m.PlaceBet(ctx, stake("10"))
			require.NoError(t, err)

			assert.Equal(t, tt.want, env.placement.last.Grouping)
			assert.Len(t, env.placement.last.Selections, tt.tickets)
		})
	}
}

func TestPlaceBet_BuildsRequestAndFiresSideEffects(t *testing.T) {
	env := newEnv()
	env.login()
	env.boosts.resp = &dto.OddsBoostResponse{WalletID: "bw-7"}
	env.placement.resp = &dto.PlaceBetsResponse{Bets: []dto.PlacedBet{{BetID: "b-1", Status: dto.BetStatusAccepted}}}
	m := env.start(t)
	ctx := context.Background()

	a := ticket("out-a", "match-1", "1.456")
	require.NoError(t, m.AddTicket(ctx, a))
	require.Eventually(t, func() bool { return m.OddsBoost() != nil }, waitFor, tick)

	resp, err := m.PlaceBet(ctx, PlaceBetInput{
		Stake:                decimal.RequireFromString("12.50"),
		UseBonusBalance:      true,
		OddsValidationPolicy: "accept_higher",
	})
	require.NoError(t, err)
	require.True(t, resp.AllAccepted())

	req := env.placement.last
	assert.NotEmpty(t, req.RequestID)
	assert.Equal(t, "EUR", req.Currency)
	assert.Equal(t, "u-1", req.UserID)
	assert.Equal(t, "ana", req.Username)
	assert.Equal(t, "bw-7", req.BonusWalletID)
	assert.Equal(t, "accept_higher", req.OddsValidationPolicy)
	assert.True(t, req.UseBonusBalance)
	sel := req.Selections[0]
	assert.Equal(t, "out-a", sel.TicketID)
	assert.Equal(t, "FBL", sel.SportCode)
	assert.True(t, sel.Odd.Equal(decimal.RequireFromString("1.46")))
	assert.True(t, sel.Stake.Equal(decimal.RequireFromString("12.50")))

	select {
	case r := <-env.notifier.receipts:
		assert.Equal(t, req.RequestID, r.RequestID)
		assert.Equal(t, []string{"b-1"}, r.BetIDs)
		assert.Equal(t, 1, r.Selections)
	case <-time.After(waitFor):
		t.Fatal("bet placed notification not sent")
	}
	select {
	case u := <-env.wallet.users:
		assert.Equal(t, "u-1", u)
	case <-time.After(waitFor):
		t.Fatal("wallet refresh not requested")
	}
}

func TestPlaceBet_PartialSuccessSkipsSideEffects(t *testing.T) {
	env := newEnv()
	env.login()
	env.placement.resp = &dto.PlaceBetsResponse{Bets: []dto.PlacedBet{
		{BetID: "b-1", Status: dto.BetStatusAccepted},
		{BetID: "b-2", Status: dto.BetStatusRejected, Message: "limit"},
	}}
	m := env.start(t)
	ctx := context.Background()
	require.NoError(t, m.AddTicket(ctx, ticket("out-a", "match-1", "1.50")))

	resp, err := m.PlaceBet(ctx, stake("5"))
	require.NoError(t, err)
	assert.False(t, resp.AllAccepted())

	select {
	case <-env.notifier.receipts:
		t.Fatal("unexpected notification")
	case <-env.wallet.users:
		t.Fatal("unexpected wallet refresh")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestPlaceBet_ErrorClassification(t *testing.T) {
	details := &dto.ConfirmationDetails{Reason: "odds_changed", Changes: []dto.ConfirmationOddsChange{{OutcomeID: "out-a"}}}

	tests := []struct {
		name  string
		err   error
		check func(t *testing.T, err error)
	}{
		{"forbidden", &platform.Error{Kind: platform.KindForbidden, Status: http.StatusForbidden}, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, ErrForbiddenRequest)
		}},
		{"needs confirmation", &platform.Error{Kind: platform.KindConfirmationRequired, Status: http.StatusConflict, Confirmation: details}, func(t *testing.T, err error) {
			var cerr *ConfirmationRequiredError
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, "odds_changed", cerr.Details.Reason)
			assert.Len(t, cerr.Details.Changes, 1)
		}},
		{"known bet_error is localized", &platform.Error{Kind: platform.KindRejected, Status: http.StatusUnprocessableEntity, Message: "bet_error.stake_too_high"}, func(t *testing.T, err error) {
			var perr *PlacementError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, "Stake is above the maximum allowed for this bet", perr.Message)
		}},
		{"unknown message kept", &platform.Error{Kind: platform.KindRejected, Status: http.StatusUnprocessableEntity, Message: "Market closed"}, func(t *testing.T, err error) {
			var perr *PlacementError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, "Market closed", perr.Message)
		}},
		{"server error is generic", &platform.Error{Kind: platform.KindUnknown, Status: http.StatusBadGateway}, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, ErrGenericPlacement)
		}},
		{"transport error is generic", errors.New("dial tcp: connection refused"), func(t *testing.T, err error) {
			assert.ErrorIs(t, err, ErrGenericPlacement)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newEnv()
			env.login()
			env.placement.err = tt.err
			m := env.start(t)
			ctx := context.Background()
			require.NoError(t, m.AddTicket(ctx, ticket("out-a", "match-1", "1.50")))

			resp, err := m.PlaceBet(ctx, stake("10"))
			assert.Nil(t, resp)
			require.Error(t, err)
			tt.check(t, err)
			assert.Equal(t, 1, env.placement.calls)
		})
	}
}

func TestLocalizeMessage_CustomLocalizer(t *testing.T) {
	pt := func(key string) (string, bool) {
		if key == "bet_error.insufficient_balance" {
			return "Saldo insuficiente", true
		}
		return "", false
	}

	assert.Equal(t, "Saldo insuficiente", localizeMessage("bet_error.insufficient_balance", pt))
	assert.Equal(t, "bet_error.other", localizeMessage("bet_error.other", pt))
	assert.Equal(t, "plain", localizeMessage("plain", pt))
}
