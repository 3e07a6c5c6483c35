package broadcast

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/radieske/betslip-sync/pkg/contracts/events"
)

// AllTickets assina todas as mudanças do betslip
const AllTickets = "*"

const writeWait = 2 * time.Second

// ClientMsg é a mensagem enviada pelo cliente WebSocket
// Type: subscribe | unsubscribe | ping
type ClientMsg struct {
	Type     string `json:"type"`
	TicketID string `json:"ticketId"` // "*" para todas as mudanças
}

// Hub entrega as mudanças do betslip aos clientes WebSocket da UI.
// subs: ticketID (ou "*") -> conexões inscritas
type Hub struct {
	upgrader websocket.Upgrader
	log      *zap.Logger

	mu   sync.RWMutex
	subs map[string]map[*client]struct{}
}

// client serializa as escritas de uma conexão
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(b []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, b)
}

// NewHub cria o Hub com política customizada de origem (CORS)
func NewHub(allowOrigin func(r *http.Request) bool, log *zap.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{CheckOrigin: allowOrigin},
		log:      log,
		subs:     make(map[string]map[*client]struct{}),
	}
}

// HandleWS gerencia o ciclo de vida de uma conexão WebSocket.
// Cada cliente pode assinar vários tickets ou "*".
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	c := &client{conn: conn}
	defer func() {
		h.drop(c)
		_ = conn.Close()
	}()

	for {
		var msg ClientMsg
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		switch msg.Type {
		case "subscribe":
			if msg.TicketID == "" {
				msg.TicketID = AllTickets
			}
			h.mu.Lock()
			if _, ok := h.subs[msg.TicketID]; !ok {
				h.subs[msg.TicketID] = make(map[*client]struct{})
			}
			h.subs[msg.TicketID][c] = struct{}{}
			h.mu.Unlock()
		case "unsubscribe":
			h.mu.Lock()
			if set, ok := h.subs[msg.TicketID]; ok {
				delete(set, c)
				if len(set) == 0 {
					delete(h.subs, msg.TicketID)
				}
			}
			h.mu.Unlock()
		case "ping":
			_ = c.write([]byte(`{"type":"pong"}`))
		}
	}
}

// drop remove a conexão de todas as assinaturas
func (h *Hub) drop(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, set := range h.subs {
		delete(set, c)
		if len(set) == 0 {
			delete(h.subs, id)
		}
	}
}

// Broadcast envia a mudança uma vez para cada cliente inscrito em "*" ou em algum dos tickets
func (h *Hub) Broadcast(change events.BetslipChanged) {
	h.mu.RLock()
	targets := make(map[*client]struct{})
	for c := range h.subs[AllTickets] {
		targets[c] = struct{}{}
	}
	for _, id := range change.TicketIDs {
		for c := range h.subs[id] {
			targets[c] = struct{}{}
		}
	}
	h.mu.RUnlock()
	if len(targets) == 0 {
		return
	}

	b, err := json.Marshal(change)
	if err != nil {
		h.log.Warn("encode betslip change", zap.Error(err))
		return
	}
	for c := range targets {
		if err := c.write(b); err != nil {
			h.log.Debug("ws write failed", zap.Error(err))
		}
	}
}
