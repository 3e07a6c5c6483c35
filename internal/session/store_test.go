package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_LoginLogout(t *testing.T) {
	s := NewStore()
	states, cancel := s.LoginStates()
	defer cancel()
	assert.Equal(t, Anonymous, <-states)

	s.Login(User{ID: "u1", Username: "ana"}, Wallet{ID: "w1", Currency: "EUR"})
	assert.Equal(t, Logged, <-states)
	assert.True(t, s.IsLoggedIn())

	u, ok := s.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, "ana", u.Username)
	w, ok := s.CurrentWallet()
	require.True(t, ok)
	assert.Equal(t, "EUR", w.Currency)

	s.Logout()
	assert.Equal(t, Anonymous, <-states)
	_, ok = s.CurrentWallet()
	assert.False(t, ok)
}

func TestStore_UpdateBalance(t *testing.T) {
	s := NewStore()
	assert.False(t, s.UpdateBalance("w1", 100))

	s.Login(User{ID: "u1"}, Wallet{ID: "w1", Currency: "EUR"})
	assert.False(t, s.UpdateBalance("other", 100))
	assert.True(t, s.UpdateBalance("w1", 2500))

	w, _ := s.CurrentWallet()
	assert.Equal(t, int64(2500), w.BalanceCents)
}
