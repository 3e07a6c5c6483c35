package platform

import (
	"fmt"

	"github.com/radieske/betslip-sync/internal/platform/dto"
)

// Kind classifica a falha devolvida pela plataforma
type Kind int

const (
	KindUnknown Kind = iota
	KindForbidden
	KindConfirmationRequired
	KindRejected
)

// Error é a falha HTTP mapeada de uma chamada à plataforma
type Error struct {
	Kind         Kind
	Status       int
	Message      string
	Confirmation *dto.ConfirmationDetails
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("platform http %d", e.Status)
	}
	return fmt.Sprintf("platform http %d: %s", e.Status, e.Message)
}
