package session

import (
	"sync"

	"github.com/radieske/betslip-sync/internal/shared/observable"
)

// LoginState do usuário corrente
type LoginState int

const (
	Anonymous LoginState = iota
	Logged
)

func (s LoginState) String() string {
	if s == Logged {
		return "logged"
	}
	return "anonymous"
}

type User struct {
	ID       string `json:"userId"`
	Username string `json:"username"`
}

// Wallet é a carteira corrente; Currency é usada nas consultas de boost e na aposta
type Wallet struct {
	ID           string `json:"walletId"`
	Currency     string `json:"currency"`
	BalanceCents int64  `json:"balance_cents"`
}

// Store mantém a sessão do usuário em memória e publica as mudanças de login
type Store struct {
	mu     sync.RWMutex
	user   *User
	wallet *Wallet
	state  *observable.Value[LoginState]
}

func NewStore() *Store {
	return &Store{state: observable.NewValue(Anonymous)}
}

// Login registra usuário e carteira e publica Logged
func (s *Store) Login(u User, w Wallet) {
	s.mu.Lock()
	s.user = &u
	s.wallet = &w
	s.mu.Unlock()
	s.state.Set(Logged)
}

// Logout limpa a sessão e publica Anonymous
func (s *Store) Logout() {
	s.mu.Lock()
	s.user = nil
	s.wallet = nil
	s.mu.Unlock()
	s.state.Set(Anonymous)
}

// UpdateBalance atualiza o saldo da carteira corrente; ignorado se o walletID não bate
func (s *Store) UpdateBalance(walletID string, balanceCents int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.wallet == nil || (walletID != "" && s.wallet.ID != walletID) {
		return false
	}
	s.wallet.BalanceCents = balanceCents
	return true
}

func (s *Store) LoginStates() (<-chan LoginState, func()) { return s.state.Observe() }

func (s *Store) IsLoggedIn() bool { return s.state.Get() == Logged }

func (s *Store) CurrentUser() (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return User{}, false
	}
	return *s.user, true
}

func (s *Store) CurrentWallet() (Wallet, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.wallet == nil {
		return Wallet{}, false
	}
	return *s.wallet, true
}
