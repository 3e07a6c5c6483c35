package simulator

import (
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/betslip-sync/internal/feed"
)

var (
	minOdd = decimal.RequireFromString("1.01")
	maxOdd = decimal.RequireFromString("100")
)

// OutcomeStatus diz se um outcome pode ser assinado
type OutcomeStatus int

const (
	OutcomeUnknown OutcomeStatus = iota
	OutcomeOpen
	OutcomeSuspended
	OutcomeWithdrawn
)

type loc struct{ match, market, outcome int }

// Board guarda o estado vivo das partidas: odds, disponibilidade e outcomes retirados
type Board struct {
	mu        sync.RWMutex
	matches   []feed.Match
	index     map[string]loc
	suspended map[string]bool
	withdrawn map[string]bool
	rnd       *rand.Rand

	// DriftPct é a variação máxima de odd por tick (0.05 = 5%)
	DriftPct float64
	// FlipChance é a chance por tick de um outcome alternar Available
	FlipChance float64
}

// NewBoard monta o estado inicial a partir do catálogo já validado
func NewBoard(c *Catalog, now time.Time, seed int64) *Board {
	b := &Board{
		index:      make(map[string]loc),
		suspended:  make(map[string]bool),
		withdrawn:  make(map[string]bool),
		rnd:        rand.New(rand.NewSource(seed)),
		DriftPct:   0.05,
		FlipChance: 0.02,
	}
	for mi, cm := range c.Matches {
		m := feed.Match{
			ID:              cm.ID,
			Name:            cm.Home + " x " + cm.Away,
			HomeParticipant: cm.Home,
			AwayParticipant: cm.Away,
			Sport:           cm.Sport,
			SportCode:       cm.SportCode,
			Competition:     cm.Competition,
			Venue:           cm.Venue,
		}
		if cm.StartsIn > 0 {
			start := now.Add(cm.StartsIn).UTC()
			m.Date = &start
		}
		for ki, cmk := range cm.Markets {
			mk := feed.Market{ID: cmk.ID, Name: cmk.Name}
			for oi, co := range cmk.Outcomes {
				mk.Outcomes = append(mk.Outcomes, feed.Outcome{
					ID:        co.ID,
					Name:      co.Name,
					Odd:       decimal.RequireFromString(co.Odd),
					Available: !co.Suspended,
				})
				b.index[co.ID] = loc{mi, ki, oi}
				if co.Suspended {
					b.suspended[co.ID] = true
				}
			}
			m.Markets = append(m.Markets, mk)
		}
		b.matches = append(b.matches, m)
	}
	return b
}

// Status do outcome para fins de assinatura
func (b *Board) Status(outcomeID string) OutcomeStatus {
	b.mu.RLock()
	defer b.mu.RUnlock()
	switch {
	case b.withdrawn[outcomeID]:
		return OutcomeWithdrawn
	case b.suspended[outcomeID]:
		return OutcomeSuspended
	}
	if _, ok := b.index[outcomeID]; !ok {
		return OutcomeUnknown
	}
	return OutcomeOpen
}

// Snapshot devolve a partida do outcome contendo só o mercado dele
func (b *Board) Snapshot(outcomeID string) (*feed.Match, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	l, ok := b.index[outcomeID]
	if !ok || b.withdrawn[outcomeID] {
		return nil, false
	}
	m := b.matches[l.match]
	mk := m.Markets[l.market]
	mk.Outcomes = append([]feed.Outcome(nil), mk.Outcomes...)
	m.Markets = []feed.Market{mk}
	return &m, true
}

// Outcome devolve o estado atual de um outcome
func (b *Board) Outcome(outcomeID string) (feed.Outcome, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	l, ok := b.index[outcomeID]
	if !ok || b.withdrawn[outcomeID] {
		return feed.Outcome{}, false
	}
	return b.matches[l.match].Markets[l.market].Outcomes[l.outcome], true
}

// Drift aplica uma variação aleatória nas odds e, raramente, alterna a disponibilidade.
// Outcomes suspensos ou retirados não mudam.
func (b *Board) Drift() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, l := range b.index {
		if b.suspended[id] || b.withdrawn[id] {
			continue
		}
		o := &b.matches[l.match].Markets[l.market].Outcomes[l.outcome]
		delta := (b.rnd.Float64()*2 - 1) * b.DriftPct
		next := o.Odd.Mul(decimal.NewFromFloat(1 + delta)).Round(2)
		if next.LessThan(minOdd) {
			next = minOdd
		}
		if next.GreaterThan(maxOdd) {
			next = maxOdd
		}
		o.Odd = next
		if b.rnd.Float64() < b.FlipChance {
			o.Available = !o.Available
		}
	}
}

// Withdraw retira o outcome do mercado; assinaturas abertas recebem resource_deleted
func (b *Board) Withdraw(outcomeID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.index[outcomeID]; !ok || b.withdrawn[outcomeID] {
		return false
	}
	b.withdrawn[outcomeID] = true
	return true
}
