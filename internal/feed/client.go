package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/radieske/betslip-sync/internal/shared/observable"
)

const (
	streamBuffer = 32
	writeTimeout = 2 * time.Second
)

// WSClient mantém uma conexão WebSocket com o feed de odds ao vivo e
// multiplexa nela uma assinatura por outcome.
// Em caso de desconexão, tenta reconectar automaticamente; as assinaturas
// abertas recebem EventDisconnected e são encerradas.
type WSClient struct {
	URL            string
	ReconnectDelay time.Duration
	Log            *zap.Logger
	Dialer         *websocket.Dialer

	state *observable.Value[ConnectionState]

	mu      sync.Mutex
	conn    *websocket.Conn
	gen     uint64
	streams map[string]*stream // outcomeID -> assinatura corrente

	writeMu sync.Mutex
}

// stream é uma assinatura de outcome. Apenas o loop de leitura envia em ch
// ou o fecha; done sinaliza que a assinatura foi substituída ou cancelada.
type stream struct {
	outcomeID string
	ch        chan Event
	done      chan struct{}
	once      sync.Once
}

func newStream(outcomeID string) *stream {
	return &stream{
		outcomeID: outcomeID,
		ch:        make(chan Event, streamBuffer),
		done:      make(chan struct{}),
	}
}

func (s *stream) stop() { s.once.Do(func() { close(s.done) }) }

func (s *stream) send(ev Event) {
	select {
	case s.ch <- ev:
	case <-s.done:
	}
}

// NewWSClient cria o cliente; Start precisa ser chamado para conectar
func NewWSClient(url string, reconnectDelay time.Duration, log *zap.Logger) *WSClient {
	if reconnectDelay <= 0 {
		reconnectDelay = 3 * time.Second
	}
	return &WSClient{
		URL:            url,
		ReconnectDelay: reconnectDelay,
		Log:            log,
		Dialer:         websocket.DefaultDialer,
		state:          observable.NewValue(ConnectionState{Status: StatusDisconnected}),
		streams:        make(map[string]*stream),
	}
}

// ConnectionStates expõe o stream de estados de conexão; o estado atual é entregue de imediato
func (c *WSClient) ConnectionStates() (<-chan ConnectionState, func()) {
	return c.state.Observe()
}

// State retorna o estado atual da conexão
func (c *WSClient) State() ConnectionState { return c.state.Get() }

// Start inicia o loop de conexão e escuta do WebSocket.
// Bloqueia até o contexto ser cancelado.
func (c *WSClient) Start(ctx context.Context) {
	defer c.state.Close()
	for {
		select {
		case <-ctx.Done():
			c.Log.Info("context canceled, stopping feed client")
			return
		default:
		}

		if err := c.connectAndListen(ctx); err != nil && ctx.Err() == nil {
			c.Log.Warn("feed connection closed", zap.Error(err))
		}

		// Aguarda antes de tentar reconectar
		select {
		case <-ctx.Done():
			c.Log.Info("context canceled, stopping feed client")
			return
		case <-time.After(c.ReconnectDelay):
		}
	}
}

// SubscribeToSingleOutcome abre a assinatura de um outcome na conexão corrente.
// Uma nova assinatura do mesmo outcome substitui a anterior.
// Cancelar ctx envia unsubscribe e encerra a assinatura.
func (c *WSClient) SubscribeToSingleOutcome(ctx context.Context, eventID, outcomeID string) (<-chan Event, error) {
	c.mu.Lock()
	conn := c.conn
	if conn == nil {
		c.mu.Unlock()
		return nil, ErrNotConnected
	}
	s := newStream(outcomeID)
	if old, ok := c.streams[outcomeID]; ok {
		old.stop()
	}
	c.streams[outcomeID] = s
	c.mu.Unlock()

	if err := c.write(conn, ClientMessage{Type: MsgSubscribe, EventID: eventID, OutcomeID: outcomeID}); err != nil {
		c.detach(s)
		return nil, fmt.Errorf("subscribe %s: %w", outcomeID, err)
	}

	go func() {
		select {
		case <-ctx.Done():
			detached := c.detach(s)
			s.stop()
			if detached {
				_ = c.write(conn, ClientMessage{Type: MsgUnsubscribe, OutcomeID: outcomeID})
			}
		case <-s.done:
		}
	}()

	return s.ch, nil
}

// connectAndListen estabelece a conexão WebSocket e roteia as mensagens recebidas
// para a assinatura do outcome correspondente.
func (c *WSClient) connectAndListen(ctx context.Context) error {
	c.state.Set(ConnectionState{Status: StatusConnecting, Generation: c.currentGen()})

	conn, _, err := c.Dialer.DialContext(ctx, c.URL, nil)
	if err != nil {
		c.state.Set(ConnectionState{Status: StatusDisconnected, Generation: c.currentGen()})
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.gen++
	gen := c.gen
	c.mu.Unlock()

	c.Log.Info("connected to feed WS", zap.String("url", c.URL), zap.Uint64("generation", gen))
	c.state.Set(ConnectionState{Status: StatusConnected, Generation: gen})

	// Fecha o socket quando o contexto for cancelado para destravar o ReadMessage
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-stop:
		}
	}()

	defer c.teardown(conn, gen)

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) || errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return nil
			}
			return err
		}

		var msg ServerMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.Log.Warn("invalid feed message", zap.Error(err))
			continue
		}
		c.route(msg)
	}
}

func (c *WSClient) route(msg ServerMessage) {
	c.mu.Lock()
	s := c.streams[msg.OutcomeID]
	c.mu.Unlock()
	if s == nil {
		c.Log.Debug("feed message for unknown outcome", zap.String("outcome_id", msg.OutcomeID), zap.String("type", msg.Type))
		return
	}

	switch msg.Type {
	case MsgSubscribed:
		s.send(Event{Type: EventConnected, Handle: msg.Handle})
	case MsgUpdate:
		if msg.Event == nil {
			return
		}
		s.send(Event{Type: EventContentUpdate, Match: msg.Event})
	case MsgError:
		// Erro encerra a assinatura
		c.detach(s)
		s.send(Event{Type: EventFailed, Err: classify(msg.Code, msg.Message)})
		s.stop()
		close(s.ch)
	default:
		c.Log.Debug("unknown feed message type", zap.String("type", msg.Type))
	}
}

// teardown encerra todas as assinaturas da conexão que caiu
func (c *WSClient) teardown(conn *websocket.Conn, gen uint64) {
	_ = conn.Close()

	c.mu.Lock()
	streams := c.streams
	c.streams = make(map[string]*stream)
	if c.conn == conn {
		c.conn = nil
	}
	c.mu.Unlock()

	for _, s := range streams {
		s.send(Event{Type: EventDisconnected})
		s.stop()
		close(s.ch)
	}

	c.state.Set(ConnectionState{Status: StatusDisconnected, Generation: gen})
	c.Log.Info("feed WS disconnected", zap.Int("streams_closed", len(streams)))
}

// detach remove a assinatura se ela ainda for a corrente do outcome
func (c *WSClient) detach(s *stream) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	cur, ok := c.streams[s.outcomeID]
	if !ok || cur != s {
		return false
	}
	delete(c.streams, s.outcomeID)
	return true
}

func (c *WSClient) currentGen() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

func (c *WSClient) write(conn *websocket.Conn, v ClientMessage) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(v)
}

func classify(code, message string) error {
	switch code {
	case CodeResourceUnavailable, CodeResourceDeleted:
		return fmt.Errorf("%w: %s", ErrResourceUnavailable, message)
	default:
		return fmt.Errorf("feed error %s: %s", code, message)
	}
}
