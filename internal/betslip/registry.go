package betslip

import "context"

// subscription é a assinatura viva de um ticket
type subscription struct {
	token  uint64
	cancel context.CancelFunc
	handle string
}

// registry guarda no máximo uma assinatura por id de ticket.
// Todo acesso acontece no loop do Manager.
type registry struct {
	next uint64
	subs map[string]*subscription
}

func newRegistry() *registry {
	return &registry{subs: make(map[string]*subscription)}
}

// cancelAndReplace cancela a assinatura corrente do id e registra a nova.
// Com cancel nil apenas remove e retorna 0.
func (r *registry) cancelAndReplace(id string, cancel context.CancelFunc) uint64 {
	if old, ok := r.subs[id]; ok {
		old.cancel()
		delete(r.subs, id)
	}
	if cancel == nil {
		return 0
	}
	r.next++
	r.subs[id] = &subscription{token: r.next, cancel: cancel}
	return r.next
}

// current indica se token ainda é a assinatura vigente do id
func (r *registry) current(id string, token uint64) bool {
	s, ok := r.subs[id]
	return ok && s.token == token
}

func (r *registry) setHandle(id string, token uint64, handle string) {
	if s, ok := r.subs[id]; ok && s.token == token {
		s.handle = handle
	}
}

func (r *registry) handle(id string) (string, bool) {
	s, ok := r.subs[id]
	if !ok {
		return "", false
	}
	return s.handle, true
}

func (r *registry) ids() []string {
	out := make([]string, 0, len(r.subs))
	for id := range r.subs {
		out = append(out, id)
	}
	return out
}

func (r *registry) clear() {
	for id := range r.subs {
		r.cancelAndReplace(id, nil)
	}
}
