package betslip

// SameIdentitySet compara apenas o conjunto de ids dos tickets, ignorando
// valores e ordem. Mudanças de odd/disponibilidade não alteram a identidade.
func SameIdentitySet(old, cur []Ticket) bool {
	if len(old) != len(cur) {
		return false
	}
	ids := make(map[string]struct{}, len(old))
	for _, t := range old {
		ids[t.ID] = struct{}{}
	}
	for _, t := range cur {
		if _, ok := ids[t.ID]; !ok {
			return false
		}
	}
	return true
}

func ticketIDs(ts []Ticket) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.ID
	}
	return out
}
