package betslip

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

const persistTimeout = 2 * time.Second

// EncodeTickets serializa a lista na ordem atual
func EncodeTickets(ts []Ticket) ([]byte, error) {
	if ts == nil {
		ts = []Ticket{}
	}
	return json.Marshal(ts)
}

func DecodeTickets(b []byte) ([]Ticket, error) {
	var ts []Ticket
	if err := json.Unmarshal(b, &ts); err != nil {
		return nil, err
	}
	return ts, nil
}

// snapshotWriter grava o snapshot fora do loop do Manager.
// Só o snapshot mais recente pendente é gravado; falhas são apenas logadas.
type snapshotWriter struct {
	kv      KeyValueStore
	key     string
	log     *zap.Logger
	pending chan []Ticket
}

func newSnapshotWriter(kv KeyValueStore, key string, log *zap.Logger) *snapshotWriter {
	return &snapshotWriter{kv: kv, key: key, log: log, pending: make(chan []Ticket, 1)}
}

// save enfileira o snapshot substituindo qualquer outro ainda não gravado.
// Chamado apenas pelo loop do Manager.
func (w *snapshotWriter) save(ts []Ticket) {
	if w == nil {
		return
	}
	select {
	case <-w.pending:
	default:
	}
	w.pending <- ts
}

func (w *snapshotWriter) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			// tenta gravar o último snapshot pendente antes de sair
			select {
			case ts := <-w.pending:
				w.write(context.Background(), ts)
			default:
			}
			return
		case ts := <-w.pending:
			w.write(ctx, ts)
		}
	}
}

func (w *snapshotWriter) write(ctx context.Context, ts []Ticket) {
	b, err := EncodeTickets(ts)
	if err != nil {
		w.log.Warn("encode betslip snapshot", zap.Error(err))
		return
	}
	wctx, cancel := context.WithTimeout(ctx, persistTimeout)
	defer cancel()
	if err := w.kv.Set(wctx, w.key, b); err != nil {
		w.log.Warn("persist betslip snapshot", zap.Error(err), zap.Int("tickets", len(ts)))
		return
	}
	w.log.Debug("betslip snapshot persisted", zap.Int("tickets", len(ts)))
}

// restore lê o snapshot do armazenamento; qualquer falha resulta em betslip vazio
func restore(ctx context.Context, kv KeyValueStore, key string, log *zap.Logger) []Ticket {
	if kv == nil {
		return nil
	}
	rctx, cancel := context.WithTimeout(ctx, persistTimeout)
	defer cancel()
	b, err := kv.Get(rctx, key)
	if err != nil {
		log.Warn("load betslip snapshot", zap.Error(err))
		return nil
	}
	if len(b) == 0 {
		return nil
	}
	ts, err := DecodeTickets(b)
	if err != nil {
		log.Warn("decode betslip snapshot", zap.Error(err))
		return nil
	}
	return ts
}
