package betslip

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type failingKV struct{}

func (failingKV) Get(context.Context, string) ([]byte, error) { return nil, errors.New("connection refused") }
func (failingKV) Set(context.Context, string, []byte) error   { return errors.New("connection refused") }

func TestEncodeDecodeTickets_KeepsOrder(t *testing.T) {
	in := []Ticket{ticket("b", "m1", "1.50"), ticket("a", "m2", "2.25")}

	b, err := EncodeTickets(in)
	require.NoError(t, err)
	out, err := DecodeTickets(b)
	require.NoError(t, err)

	assert.Equal(t, []string{"b", "a"}, ticketIDs(out))
	assert.True(t, out[1].Odd.Equal(in[1].Odd))
}

func TestEncodeTickets_EmptyIsArray(t *testing.T) {
	b, err := EncodeTickets(nil)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(b))
}

func TestRestore_FailuresYieldEmptyBetslip(t *testing.T) {
	log := zap.NewNop()
	ctx := context.Background()

	assert.Empty(t, restore(ctx, failingKV{}, DefaultStorageKey, log))
	assert.Empty(t, restore(ctx, nil, DefaultStorageKey, log))

	kv := newMemKV()
	require.NoError(t, kv.Set(ctx, DefaultStorageKey, []byte("{not json")))
	assert.Empty(t, restore(ctx, kv, DefaultStorageKey, log))
}

func TestSnapshotWriter_KeepsOnlyLatestPending(t *testing.T) {
	kv := newMemKV()
	w := newSnapshotWriter(kv, DefaultStorageKey, zap.NewNop())

	w.save([]Ticket{ticket("a", "m", "1.1")})
	w.save([]Ticket{ticket("a", "m", "1.1"), ticket("b", "m", "1.2")})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w.run(ctx)

	assert.Equal(t, 1, kv.writes)
	assert.Equal(t, []string{"a", "b"}, ticketIDs(kv.stored(t)))
}

func TestSnapshotWriter_SwallowsStorageErrors(t *testing.T) {
	w := newSnapshotWriter(failingKV{}, DefaultStorageKey, zap.NewNop())
	assert.NotPanics(t, func() { w.write(context.Background(), []Ticket{ticket("a", "m", "1.1")}) })
}
