package history

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/betslip-sync/pkg/contracts/events"
)

// fakeReader entrega as mensagens enfileiradas e depois bloqueia até o cancelamento
type fakeReader struct {
	msgs []kafka.Message
	errs []error
}

func (r *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.errs) > 0 {
		err := r.errs[0]
		r.errs = r.errs[1:]
		return kafka.Message{}, err
	}
	if len(r.msgs) > 0 {
		m := r.msgs[0]
		r.msgs = r.msgs[1:]
		return m, nil
	}
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

type memRecorder struct {
	mu   sync.Mutex
	rows []Placement
	err  error
}

func (m *memRecorder) Record(_ context.Context, pl Placement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.rows = append(m.rows, pl)
	return nil
}

func (m *memRecorder) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

func placedMsg(t *testing.T, ev events.BetslipPlaced) kafka.Message {
	t.Helper()
	b, err := json.Marshal(ev)
	require.NoError(t, err)
	return kafka.Message{Key: []byte(ev.UserID), Value: b}
}

func TestConsumer_PersistsPlacedEvents(t *testing.T) {
	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	reader := &fakeReader{
		errs: []error{errors.New("broker down")},
		msgs: []kafka.Message{
			placedMsg(t, events.BetslipPlaced{RequestID: "r1", UserID: "u1", Grouping: "multiple", Stake: "10.00", Currency: "BRL", BetIDs: []string{"b1"}, Selections: 3, Ts: ts}),
			{Value: []byte("not json")},
			{Value: []byte(`{"user_id":"u1"}`)},
		},
	}
	store := &memRecorder{}
	stages := make(chan string, 8)
	var persisted int

	c := &Consumer{
		Log:       zap.NewNop(),
		Reader:    reader,
		Store:     store,
		Backoff:   time.Millisecond,
		OnPersist: func() { persisted++ },
		OnError:   func(stage string) { stages <- stage },
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	assert.Equal(t, "read", <-stages)
	assert.Equal(t, "decode", <-stages)
	assert.Equal(t, "decode", <-stages)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	require.Equal(t, 1, store.len())
	got := store.rows[0]
	assert.Equal(t, "r1", got.RequestID)
	assert.Equal(t, "multiple", got.Grouping)
	assert.Equal(t, "10.00", got.Stake)
	assert.Equal(t, 3, got.Selections)
	assert.Equal(t, ts, got.PlacedAt)
	assert.Equal(t, 1, persisted)
}

func TestConsumer_StoreFailureIsCountedAndSkipped(t *testing.T) {
	reader := &fakeReader{msgs: []kafka.Message{placedMsg(t, events.BetslipPlaced{RequestID: "r1", UserID: "u1"})}}
	stages := make(chan string, 1)
	c := &Consumer{
		Log:     zap.NewNop(),
		Reader:  reader,
		Store:   &memRecorder{err: errors.New("pg down")},
		OnError: func(stage string) { stages <- stage },
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = c.Run(ctx) }()

	select {
	case s := <-stages:
		assert.Equal(t, "db", s)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for db failure")
	}
}
