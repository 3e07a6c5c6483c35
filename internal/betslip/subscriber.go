package betslip

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/radieske/betslip-sync/internal/feed"
	"github.com/radieske/betslip-sync/internal/shared/observable"
)

// subscribe abre (ou substitui) a assinatura do feed para o ticket.
// A assinatura anterior do mesmo id é cancelada antes da nova ser aberta.
func (m *Manager) subscribe(t Ticket) {
	if lv, ok := m.live[t.ID]; ok {
		lv.Set(t)
	} else {
		m.live[t.ID] = observable.NewValue(t)
	}

	ctx, cancel := context.WithCancel(m.runCtx)
	token := m.subs.cancelAndReplace(t.ID, cancel)
	m.hooks.onSubscribe()

	events, err := m.deps.Feed.SubscribeToSingleOutcome(ctx, t.MatchID, t.ID)
	if err != nil {
		m.log.Warn("subscribe to outcome failed",
			zap.String("ticket_id", t.ID), zap.String("match_id", t.MatchID), zap.Error(err))
		m.hooks.onFeedFailure("subscribe")
		return
	}
	go m.pump(ctx, t.ID, token, events)
}

// unsubscribe cancela a assinatura e descarta o publicador do id
func (m *Manager) unsubscribe(id string) {
	m.subs.cancelAndReplace(id, nil)
	if lv, ok := m.live[id]; ok {
		lv.Close()
		delete(m.live, id)
	}
}

// pump repassa os eventos da assinatura para o loop do Manager
func (m *Manager) pump(ctx context.Context, id string, token uint64, events <-chan feed.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := m.post(func() { m.handleFeedEvent(id, token, ev) }); err != nil {
				return
			}
		}
	}
}

func (m *Manager) handleFeedEvent(id string, token uint64, ev feed.Event) {
	// evento de uma assinatura já substituída
	if !m.subs.current(id, token) {
		return
	}
	switch ev.Type {
	case feed.EventConnected:
		m.subs.setHandle(id, token, ev.Handle)
	case feed.EventContentUpdate:
		m.applyContent(id, ev.Match)
	case feed.EventDisconnected:
		// reconexão cuida da nova assinatura
	case feed.EventFailed:
		m.handleFeedFailure(id, ev.Err)
	}
}

func (m *Manager) applyContent(id string, match *feed.Match) {
	if match == nil || len(match.Markets) == 0 {
		m.log.Warn("feed update without market", zap.String("ticket_id", id))
		return
	}
	if len(match.Markets) > 1 {
		m.log.Debug("feed update with more than one market, using first",
			zap.String("ticket_id", id), zap.Int("markets", len(match.Markets)))
	}
	market := match.Markets[0]

	updated := 0
	for _, o := range market.Outcomes {
		cur, ok := m.tickets.get(o.ID)
		if !ok {
			continue
		}
		m.store(cur.Apply(updateFromOutcome(match, market, o)))
		updated++
	}
	if updated == 0 {
		return
	}
	m.hooks.onFeedUpdate()
	m.log.Debug("odds applied", zap.String("ticket_id", id), zap.Int("tickets", updated))
	m.changed()
}

func (m *Manager) handleFeedFailure(id string, err error) {
	if errors.Is(err, feed.ErrResourceUnavailable) {
		m.hooks.onFeedFailure("resource_unavailable")
		cur, ok := m.tickets.get(id)
		if !ok {
			return
		}
		m.log.Info("outcome unavailable", zap.String("ticket_id", id), zap.Error(err))
		m.store(cur.Apply(unavailable()))
		m.changed()
		return
	}
	m.hooks.onFeedFailure("other")
	m.log.Warn("feed subscription failed", zap.String("ticket_id", id), zap.Error(err))
}

// store grava o ticket no mapa e no publicador do id
func (m *Manager) store(t Ticket) {
	m.tickets.upsert(t)
	if lv, ok := m.live[t.ID]; ok {
		lv.Set(t)
	}
}
