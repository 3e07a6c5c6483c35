package observable

import "sync"

// Value guarda o valor corrente e o entrega a todos os observadores.
// Cada observador recebe o valor atual imediatamente ao se inscrever.
// A entrega é conflacionada: um observador lento vê apenas o valor mais recente.
type Value[T any] struct {
	mu     sync.Mutex
	v      T
	subs   map[uint64]chan T
	next   uint64
	closed bool
}

func NewValue[T any](initial T) *Value[T] {
	return &Value[T]{v: initial, subs: make(map[uint64]chan T)}
}

// Get retorna o valor corrente
func (o *Value[T]) Get() T {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.v
}

// Set substitui o valor corrente e notifica os observadores sem bloquear
func (o *Value[T]) Set(v T) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	o.v = v
	for _, ch := range o.subs {
		offer(ch, v)
	}
}

// Observe inscreve um novo observador. A função retornada cancela a inscrição
// e fecha o canal; pode ser chamada mais de uma vez.
func (o *Value[T]) Observe() (<-chan T, func()) {
	o.mu.Lock()
	defer o.mu.Unlock()

	ch := make(chan T, 1)
	if o.closed {
		close(ch)
		return ch, func() {}
	}
	ch <- o.v

	id := o.next
	o.next++
	o.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			o.mu.Lock()
			defer o.mu.Unlock()
			if c, ok := o.subs[id]; ok {
				delete(o.subs, id)
				close(c)
			}
		})
	}
}

// Close encerra todos os observadores; Set posteriores são ignorados
func (o *Value[T]) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	o.closed = true
	for id, ch := range o.subs {
		delete(o.subs, id)
		close(ch)
	}
}

// offer descarta o valor pendente (se houver) e enfileira o novo.
// Só o publicador escreve no canal, então o envio após o descarte não bloqueia.
func offer[T any](ch chan T, v T) {
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- v:
	default:
	}
}
