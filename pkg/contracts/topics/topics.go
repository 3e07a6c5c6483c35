package topics

const (
	// Betslip
	BetslipPlaced = "betslip_placed"

	// Redis Pub/Sub com o snapshot do betslip para consumidores de UI
	BetslipBroadcast = "betslip_updates_broadcast"
)
