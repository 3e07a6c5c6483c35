package simulator

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/betslip-sync/internal/feed"
)

var (
	// Métricas Prometheus do feed simulado
	wsConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "feedsim_ws_connections",
		Help: "Clientes WebSocket conectados ao feed simulado",
	})
	wsSubscriptions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "feedsim_subscriptions",
		Help: "Assinaturas de outcome abertas",
	})
	wsMessagesSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "feedsim_ws_messages_sent_total",
		Help: "Total de mensagens WS enviadas por tipo",
	}, []string{"type"})
)

// RegisterMetrics registra as métricas do simulador no registry padrão
func RegisterMetrics() {
	prometheus.MustRegister(wsConnections, wsSubscriptions, wsMessagesSent)
}

const writeWait = 2 * time.Second

// feedConn é um cliente conectado e suas assinaturas (outcomeID -> handle)
type feedConn struct {
	id      string
	ws      *websocket.Conn
	writeMu sync.Mutex

	mu   sync.Mutex
	subs map[string]string
}

func (c *feedConn) send(msg feed.ServerMessage) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.ws.WriteJSON(msg); err != nil {
		return err
	}
	wsMessagesSent.WithLabelValues(msg.Type).Inc()
	return nil
}

func (c *feedConn) outcomes() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.subs))
	for id := range c.subs {
		ids = append(ids, id)
	}
	return ids
}

func (c *feedConn) drop(outcomeID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.subs[outcomeID]; !ok {
		return false
	}
	delete(c.subs, outcomeID)
	wsSubscriptions.Dec()
	return true
}

// FeedServer fala o protocolo do feed de odds: subscribe/unsubscribe do
// cliente, subscribed/update/error do servidor.
type FeedServer struct {
	Board    *Board
	Interval time.Duration
	Log      *zap.Logger

	upgrader websocket.Upgrader

	mu    sync.RWMutex
	conns map[string]*feedConn
}

func NewFeedServer(board *Board, interval time.Duration, log *zap.Logger) *FeedServer {
	if interval <= 0 {
		interval = 3 * time.Second
	}
	return &FeedServer{
		Board:    board,
		Interval: interval,
		Log:      log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		conns: make(map[string]*feedConn),
	}
}

// HandleWS aceita a conexão e processa as mensagens do cliente até ela cair
func (s *FeedServer) HandleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.Log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	c := &feedConn{id: uuid.NewString(), ws: ws, subs: make(map[string]string)}
	s.add(c)
	defer s.remove(c)

	for {
		var msg feed.ClientMessage
		if err := ws.ReadJSON(&msg); err != nil {
			return
		}
		switch msg.Type {
		case feed.MsgSubscribe:
			s.subscribe(c, msg)
		case feed.MsgUnsubscribe:
			c.drop(msg.OutcomeID)
		default:
			s.Log.Debug("unknown client message", zap.String("type", msg.Type))
		}
	}
}

func (s *FeedServer) add(c *feedConn) {
	s.mu.Lock()
	s.conns[c.id] = c
	s.mu.Unlock()
	wsConnections.Inc()
	s.Log.Info("feed client connected", zap.String("client_id", c.id))
}

func (s *FeedServer) remove(c *feedConn) {
	s.mu.Lock()
	delete(s.conns, c.id)
	s.mu.Unlock()
	for _, id := range c.outcomes() {
		c.drop(id)
	}
	_ = c.ws.Close()
	wsConnections.Dec()
	s.Log.Info("feed client disconnected", zap.String("client_id", c.id))
}

// subscribe responde subscribed + o estado atual, ou error se o outcome não pode ser assinado
func (s *FeedServer) subscribe(c *feedConn, msg feed.ClientMessage) {
	switch s.Board.Status(msg.OutcomeID) {
	case OutcomeUnknown, OutcomeWithdrawn:
		_ = c.send(feed.ServerMessage{Type: feed.MsgError, OutcomeID: msg.OutcomeID, Code: feed.CodeResourceDeleted, Message: "outcome not found"})
		return
	case OutcomeSuspended:
		_ = c.send(feed.ServerMessage{Type: feed.MsgError, OutcomeID: msg.OutcomeID, Code: feed.CodeResourceUnavailable, Message: "outcome suspended"})
		return
	}

	handle := uuid.NewString()
	c.mu.Lock()
	if _, ok := c.subs[msg.OutcomeID]; !ok {
		wsSubscriptions.Inc()
	}
	c.subs[msg.OutcomeID] = handle
	c.mu.Unlock()

	if err := c.send(feed.ServerMessage{Type: feed.MsgSubscribed, OutcomeID: msg.OutcomeID, Handle: handle}); err != nil {
		s.Log.Warn("ws write failed", zap.String("client_id", c.id), zap.Error(err))
		return
	}
	s.update(c, msg.OutcomeID)
}

// update envia o estado atual do outcome; se ele foi retirado, envia o erro e encerra a assinatura
func (s *FeedServer) update(c *feedConn, outcomeID string) {
	match, ok := s.Board.Snapshot(outcomeID)
	if !ok {
		if c.drop(outcomeID) {
			_ = c.send(feed.ServerMessage{Type: feed.MsgError, OutcomeID: outcomeID, Code: feed.CodeResourceDeleted, Message: "outcome withdrawn"})
		}
		return
	}
	if err := c.send(feed.ServerMessage{Type: feed.MsgUpdate, OutcomeID: outcomeID, Event: match}); err != nil {
		s.Log.Warn("ws write failed", zap.String("client_id", c.id), zap.Error(err))
		_ = c.ws.Close()
	}
}

// push envia o estado de todas as assinaturas abertas
func (s *FeedServer) push() {
	s.mu.RLock()
	conns := make([]*feedConn, 0, len(s.conns))
	for _, c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.RUnlock()

	for _, c := range conns {
		for _, id := range c.outcomes() {
			s.update(c, id)
		}
	}
}

// Withdraw retira o outcome e avisa os assinantes de imediato
func (s *FeedServer) Withdraw(outcomeID string) bool {
	if !s.Board.Withdraw(outcomeID) {
		return false
	}
	s.Log.Info("outcome withdrawn", zap.String("outcome_id", outcomeID))
	s.push()
	return true
}

// Run empurra atualizações a cada Interval até o contexto ser cancelado
func (s *FeedServer) Run(ctx context.Context) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Board.Drift()
			s.push()
		}
	}
}
