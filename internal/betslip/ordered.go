package betslip

// orderedTickets é um mapa id -> Ticket que preserva a ordem de inserção
type orderedTickets struct {
	keys []string
	byID map[string]Ticket
}

func newOrderedTickets() *orderedTickets {
	return &orderedTickets{byID: make(map[string]Ticket)}
}

// upsert substitui no lugar se o id já existe, senão anexa ao final
func (o *orderedTickets) upsert(t Ticket) {
	if _, ok := o.byID[t.ID]; !ok {
		o.keys = append(o.keys, t.ID)
	}
	o.byID[t.ID] = t
}

func (o *orderedTickets) remove(id string) bool {
	if _, ok := o.byID[id]; !ok {
		return false
	}
	delete(o.byID, id)
	for i, k := range o.keys {
		if k == id {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
	return true
}

func (o *orderedTickets) get(id string) (Ticket, bool) {
	t, ok := o.byID[id]
	return t, ok
}

func (o *orderedTickets) contains(id string) bool {
	_, ok := o.byID[id]
	return ok
}

func (o *orderedTickets) len() int { return len(o.keys) }

// list devolve uma cópia na ordem de inserção
func (o *orderedTickets) list() []Ticket {
	out := make([]Ticket, 0, len(o.keys))
	for _, k := range o.keys {
		out = append(out, o.byID[k])
	}
	return out
}

func (o *orderedTickets) clear() {
	o.keys = nil
	o.byID = make(map[string]Ticket)
}
