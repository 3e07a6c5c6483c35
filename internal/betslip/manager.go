package betslip

import (
	"context"

	"go.uber.org/zap"

	"github.com/radieske/betslip-sync/internal/shared/observable"
)

const DefaultStorageKey = "betslip:tickets"

// Deps são os colaboradores externos do Manager
type Deps struct {
	Feed      LiveFeed
	Boosts    BoostQuery
	Placement PlacementService
	Storage   KeyValueStore
	Session   Session
	BetTypes  BetTypesResolver // opcional, padrão NoBetTypes
	Notifier  Notifier         // opcional
	Wallet    WalletRefresher  // opcional
	Log       *zap.Logger
}

// Hooks permitem ao main plugar métricas sem acoplar o pacote ao Prometheus.
// São chamados no loop do Manager, exceto OnPlacement.
type Hooks struct {
	OnSubscribe      func()
	OnFeedUpdate     func()
	OnFeedFailure    func(kind string)
	OnResubscribeAll func(tickets int)
	OnTickets        func(tickets int)
	OnPlacement      func(result string)
}

func (h Hooks) onSubscribe() {
	if h.OnSubscribe != nil {
		h.OnSubscribe()
	}
}

func (h Hooks) onFeedUpdate() {
	if h.OnFeedUpdate != nil {
		h.OnFeedUpdate()
	}
}

func (h Hooks) onFeedFailure(kind string) {
	if h.OnFeedFailure != nil {
		h.OnFeedFailure(kind)
	}
}

func (h Hooks) onResubscribeAll(n int) {
	if h.OnResubscribeAll != nil {
		h.OnResubscribeAll(n)
	}
}

func (h Hooks) onTickets(n int) {
	if h.OnTickets != nil {
		h.OnTickets(n)
	}
}

func (h Hooks) onPlacement(result string) {
	if h.OnPlacement != nil {
		h.OnPlacement(result)
	}
}

type Options struct {
	StorageKey string
	// Localize traduz chaves "bet_error.*"; padrão usa as mensagens embutidas
	Localize func(key string) (string, bool)
	Hooks    Hooks
}

// Manager é a fonte única do betslip: tickets, assinaturas do feed e
// estados derivados. Todo estado mutável pertence a uma única goroutine
// (Run); as demais chegam até ele por do/post.
type Manager struct {
	deps     Deps
	log      *zap.Logger
	hooks    Hooks
	localize func(string) (string, bool)

	exec    chan func()
	stopped chan struct{}
	runCtx  context.Context

	tickets *orderedTickets
	subs    *registry
	live    map[string]*observable.Value[Ticket]
	lastSet []Ticket
	writer  *snapshotWriter

	all      *observable.Value[[]Ticket]
	betTypes *observable.Value[BetTypesState]
	boost    *observable.Value[*OddsBoostState]

	feedGen        uint64
	boostFor       boostOwner
	betTypesGen    uint64
	betTypesCancel context.CancelFunc
	boostGen       uint64
	boostCancel    context.CancelFunc
}

// New cria o Manager já semeado com o snapshot persistido.
// Nenhuma assinatura é aberta antes de Run.
func New(ctx context.Context, deps Deps, opts Options) *Manager {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.BetTypes == nil {
		deps.BetTypes = NoBetTypes{}
	}
	if opts.StorageKey == "" {
		opts.StorageKey = DefaultStorageKey
	}
	if opts.Localize == nil {
		opts.Localize = defaultLocalize
	}

	m := &Manager{
		deps:     deps,
		log:      deps.Log,
		hooks:    opts.Hooks,
		localize: opts.Localize,
		exec:     make(chan func()),
		stopped:  make(chan struct{}),
		tickets:  newOrderedTickets(),
		subs:     newRegistry(),
		live:     make(map[string]*observable.Value[Ticket]),
		betTypes: observable.NewValue(BetTypesState{State: LoadIdle}),
		boost:    observable.NewValue[*OddsBoostState](nil),
	}
	if deps.Storage != nil {
		m.writer = newSnapshotWriter(deps.Storage, opts.StorageKey, m.log)
	}

	for _, t := range restore(ctx, deps.Storage, opts.StorageKey, m.log) {
		m.tickets.upsert(t)
		m.live[t.ID] = observable.NewValue(t)
	}
	m.lastSet = m.tickets.list()
	m.all = observable.NewValue(m.tickets.list())
	m.log.Info("betslip restored", zap.Int("tickets", m.tickets.len()))
	return m
}

// Run executa o loop do Manager até ctx ser cancelado
func (m *Manager) Run(ctx context.Context) error {
	m.runCtx = ctx
	defer close(m.stopped)

	if m.writer != nil {
		go m.writer.run(ctx)
	}

	// Os valores iniciais são tratados antes do loop aceitar comandos
	states, cancelStates := m.deps.Feed.ConnectionStates()
	defer cancelStates()
	initial(states, m.handleConnection)
	go forward(m, states, m.handleConnection)

	if m.deps.Session != nil {
		logins, cancelLogins := m.deps.Session.LoginStates()
		defer cancelLogins()
		initial(logins, m.handleLogin)
		go forward(m, logins, m.handleLogin)
	}

	m.hooks.onTickets(m.tickets.len())
	m.deriveBetTypes(m.lastSet)

	for {
		select {
		case <-ctx.Done():
			m.shutdown()
			return nil
		case fn := <-m.exec:
			fn()
		}
	}
}

// initial trata o valor corrente já entregue pelo Observe, sem bloquear
func initial[T any](ch <-chan T, h func(T)) {
	select {
	case v, ok := <-ch:
		if ok {
			h(v)
		}
	default:
	}
}

// forward entrega cada valor do stream ao handler, dentro do loop
func forward[T any](m *Manager, ch <-chan T, h func(T)) {
	for v := range ch {
		if err := m.post(func() { h(v) }); err != nil {
			return
		}
	}
}

func (m *Manager) shutdown() {
	m.subs.clear()
	for id, lv := range m.live {
		lv.Close()
		delete(m.live, id)
	}
	if m.betTypesCancel != nil {
		m.betTypesCancel()
	}
	if m.boostCancel != nil {
		m.boostCancel()
	}
	m.all.Close()
	m.betTypes.Close()
	m.boost.Close()
	m.log.Info("betslip manager stopped")
}

// post entrega fn ao loop sem esperar a execução
func (m *Manager) post(fn func()) error {
	select {
	case m.exec <- fn:
		return nil
	case <-m.stopped:
		return ErrStopped
	}
}

// do executa fn no loop e aguarda o término
func (m *Manager) do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	select {
	case m.exec <- func() { fn(); close(done) }:
	case <-m.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-m.stopped:
		return ErrStopped
	}
}

// changed publica a lista atual. Persistência e derivações só rodam quando
// o conjunto de ids muda.
func (m *Manager) changed() {
	list := m.tickets.list()
	m.all.Set(list)
	m.hooks.onTickets(len(list))

	if SameIdentitySet(m.lastSet, list) {
		return
	}
	m.lastSet = list
	if m.writer != nil {
		m.writer.save(list)
	}
	m.deriveBetTypes(list)
	m.deriveBoost()
}

// AddTicket insere ou substitui o ticket e (re)abre sua assinatura
func (m *Manager) AddTicket(ctx context.Context, t Ticket) error {
	if t.OutcomeID == "" {
		t.OutcomeID = t.ID
	}
	return m.do(ctx, func() {
		m.tickets.upsert(t)
		m.subscribe(t)
		m.changed()
	})
}

// RemoveTicket é no-op se o id não existe
func (m *Manager) RemoveTicket(ctx context.Context, id string) error {
	return m.do(ctx, func() {
		m.unsubscribe(id)
		if m.tickets.remove(id) {
			m.changed()
		}
	})
}

// RemoveAll esvazia o betslip, encerra todas as assinaturas e limpa o boost
func (m *Manager) RemoveAll(ctx context.Context) error {
	return m.do(ctx, func() {
		for _, id := range m.subs.ids() {
			m.unsubscribe(id)
		}
		for id := range m.live {
			m.unsubscribe(id)
		}
		m.tickets.clear()
		m.clearBoost()
		m.changed()
	})
}

func (m *Manager) Contains(ctx context.Context, id string) (bool, error) {
	var ok bool
	err := m.do(ctx, func() { ok = m.tickets.contains(id) })
	return ok, err
}

// Tickets devolve a lista corrente na ordem de inserção
func (m *Manager) Tickets() []Ticket { return m.all.Get() }

func (m *Manager) ObserveTickets() (<-chan []Ticket, func()) { return m.all.Observe() }

// TicketUpdates observa um ticket específico; ErrUnknownTicket se o id não está no betslip
func (m *Manager) TicketUpdates(ctx context.Context, id string) (<-chan Ticket, func(), error) {
	var (
		ch     <-chan Ticket
		cancel func()
	)
	if err := m.do(ctx, func() {
		if lv, ok := m.live[id]; ok {
			ch, cancel = lv.Observe()
		}
	}); err != nil {
		return nil, nil, err
	}
	if ch == nil {
		return nil, nil, ErrUnknownTicket
	}
	return ch, cancel, nil
}

func (m *Manager) BetTypes() BetTypesState { return m.betTypes.Get() }

func (m *Manager) ObserveBetTypes() (<-chan BetTypesState, func()) { return m.betTypes.Observe() }

// OddsBoost retorna nil quando não há boost
func (m *Manager) OddsBoost() *OddsBoostState { return m.boost.Get() }

func (m *Manager) ObserveOddsBoost() (<-chan *OddsBoostState, func()) { return m.boost.Observe() }

// SubscriptionHandle devolve o handle do feed para o id, se houver assinatura
func (m *Manager) SubscriptionHandle(ctx context.Context, id string) (string, bool, error) {
	var (
		h  string
		ok bool
	)
	err := m.do(ctx, func() { h, ok = m.subs.handle(id) })
	return h, ok, err
}

// SubscribedIDs lista os ids com assinatura registrada
func (m *Manager) SubscribedIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := m.do(ctx, func() { ids = m.subs.ids() })
	return ids, err
}
