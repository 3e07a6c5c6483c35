package betslip

import (
	"go.uber.org/zap"

	"github.com/radieske/betslip-sync/internal/feed"
)

// handleConnection reassina todos os tickets a cada nova conexão do feed.
// Estados repetidos da mesma geração são ignorados.
func (m *Manager) handleConnection(st feed.ConnectionState) {
	if st.Status != feed.StatusConnected || st.Generation == m.feedGen {
		return
	}
	m.feedGen = st.Generation

	ts := m.tickets.list()
	for _, t := range ts {
		m.subscribe(t)
	}
	m.hooks.onResubscribeAll(len(ts))
	m.log.Info("feed connected, tickets resubscribed",
		zap.Uint64("generation", st.Generation), zap.Int("tickets", len(ts)))
}
