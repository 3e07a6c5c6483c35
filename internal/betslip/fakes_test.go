package betslip

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/betslip-sync/internal/feed"
	"github.com/radieske/betslip-sync/internal/platform/dto"
	"github.com/radieske/betslip-sync/internal/session"
	"github.com/radieske/betslip-sync/internal/shared/observable"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

type subCall struct {
	ctx       context.Context
	eventID   string
	outcomeID string
	ch        chan feed.Event
}

type fakeFeed struct {
	states *observable.Value[feed.ConnectionState]

	mu    sync.Mutex
	calls []subCall
	err   error
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{states: observable.NewValue(feed.ConnectionState{Status: feed.StatusConnected, Generation: 1})}
}

func (f *fakeFeed) SubscribeToSingleOutcome(ctx context.Context, eventID, outcomeID string) (<-chan feed.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	ch := make(chan feed.Event, 8)
	f.calls = append(f.calls, subCall{ctx: ctx, eventID: eventID, outcomeID: outcomeID, ch: ch})
	return ch, nil
}

func (f *fakeFeed) ConnectionStates() (<-chan feed.ConnectionState, func()) {
	return f.states.Observe()
}

func (f *fakeFeed) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeFeed) call(i int) subCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[i]
}

// latest devolve a assinatura mais recente do outcome
func (f *fakeFeed) latest(outcomeID string) (subCall, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.calls) - 1; i >= 0; i-- {
		if f.calls[i].outcomeID == outcomeID {
			return f.calls[i], true
		}
	}
	return subCall{}, false
}

type fakeBoosts struct {
	mu    sync.Mutex
	calls int
	resp  *dto.OddsBoostResponse
	err   error
	last  []dto.BoostSelection
	// byCurrency, quando preenchido, responde conforme a moeda pedida
	byCurrency map[string]*dto.OddsBoostResponse
}

func (f *fakeBoosts) OddsBoostTiers(_ context.Context, currency string, _ *decimal.Decimal, sels []dto.BoostSelection) (*dto.OddsBoostResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.last = sels
	if f.byCurrency != nil {
		return f.byCurrency[currency], f.err
	}
	return f.resp, f.err
}

func (f *fakeBoosts) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakePlacement struct {
	mu    sync.Mutex
	calls int
	last  dto.PlaceBetsRequest
	resp  *dto.PlaceBetsResponse
	err   error
}

func (f *fakePlacement) PlaceBets(_ context.Context, req dto.PlaceBetsRequest) (*dto.PlaceBetsResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.last = req
	return f.resp, f.err
}

type fakeBetTypes struct {
	mu    sync.Mutex
	calls int
	types []dto.BetType
	err   error
}

func (f *fakeBetTypes) AllowedBetTypes(context.Context, []dto.BetTypeSelection) ([]dto.BetType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.types, f.err
}

func (f *fakeBetTypes) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type memKV struct {
	mu     sync.Mutex
	data   map[string][]byte
	writes int
}

func newMemKV() *memKV { return &memKV{data: make(map[string][]byte)} }

func (k *memKV) Get(_ context.Context, key string) ([]byte, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.data[key], nil
}

func (k *memKV) Set(_ context.Context, key string, v []byte) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.data[key] = v
	k.writes++
	return nil
}

func (k *memKV) stored(t *testing.T) []Ticket {
	k.mu.Lock()
	b := k.data[DefaultStorageKey]
	k.mu.Unlock()
	if b == nil {
		return nil
	}
	ts, err := DecodeTickets(b)
	require.NoError(t, err)
	return ts
}

type fakeNotifier struct {
	receipts chan Receipt
}

func (f *fakeNotifier) BetPlaced(_ context.Context, r Receipt) error {
	f.receipts <- r
	return nil
}

type fakeWallet struct {
	users chan string
}

func (f *fakeWallet) Refresh(_ context.Context, userID string) error {
	f.users <- userID
	return nil
}

type testEnv struct {
	feed      *fakeFeed
	boosts    *fakeBoosts
	placement *fakePlacement
	betTypes  *fakeBetTypes
	kv        *memKV
	session   *session.Store
	notifier  *fakeNotifier
	wallet    *fakeWallet
	m         *Manager
}

func newEnv() *testEnv {
	return &testEnv{
		feed:      newFakeFeed(),
		boosts:    &fakeBoosts{},
		placement: &fakePlacement{},
		betTypes:  &fakeBetTypes{types: []dto.BetType{{Code: "single", NumberOfBets: 1}}},
		kv:        newMemKV(),
		session:   session.NewStore(),
		notifier:  &fakeNotifier{receipts: make(chan Receipt, 4)},
		wallet:    &fakeWallet{users: make(chan string, 4)},
	}
}

func (e *testEnv) login() {
	e.session.Login(session.User{ID: "u-1", Username: "ana"}, session.Wallet{ID: "w-1", Currency: "EUR"})
}

// start cria e executa o Manager; o loop é parado no fim do teste
func (e *testEnv) start(t *testing.T) *Manager {
	t.Helper()
	e.m = New(context.Background(), Deps{
		Feed:      e.feed,
		Boosts:    e.boosts,
		Placement: e.placement,
		Storage:   e.kv,
		Session:   e.session,
		BetTypes:  e.betTypes,
		Notifier:  e.notifier,
		Wallet:    e.wallet,
		Log:       zap.NewNop(),
	}, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = e.m.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return e.m
}

func ticket(id, matchID string, odd string) Ticket {
	return Ticket{
		ID:                 id,
		OutcomeID:          id,
		MarketID:           "mkt-" + matchID,
		MatchID:            matchID,
		IsAvailable:        true,
		MatchDescription:   "Team A x Team B",
		MarketDescription:  "1X2",
		OutcomeDescription: "Team A",
		SportIDCode:        "FBL",
		Odd:                decimal.RequireFromString(odd),
	}
}
