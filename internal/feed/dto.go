package feed

// ClientMessage é enviado do cliente para o servidor do feed
// Type: subscribe | unsubscribe
type ClientMessage struct {
	Type      string `json:"type"`
	EventID   string `json:"eventId,omitempty"`
	OutcomeID string `json:"outcomeId"`
}

// ServerMessage é recebido do servidor do feed
// Type: subscribed | update | error
type ServerMessage struct {
	Type      string `json:"type"`
	OutcomeID string `json:"outcomeId"`
	Handle    string `json:"handle,omitempty"`
	Event     *Match `json:"event,omitempty"`
	Code      string `json:"code,omitempty"`
	Message   string `json:"message,omitempty"`
}

const (
	MsgSubscribe   = "subscribe"
	MsgUnsubscribe = "unsubscribe"
	MsgSubscribed  = "subscribed"
	MsgUpdate      = "update"
	MsgError       = "error"
)

// Códigos de erro do protocolo
const (
	CodeResourceUnavailable = "resource_unavailable"
	CodeResourceDeleted     = "resource_deleted"
)
