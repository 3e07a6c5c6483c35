package events

// Payload enviado pelo Redis Pub/Sub a cada alteração do betslip
type BetslipChanged struct {
	TicketIDs []string `json:"ticket_ids"`
	Payload   any      `json:"payload"`
}
