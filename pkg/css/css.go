package css

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrCSSNotFound = errors.New("css not found")

// CSS is a regional administrative unit (Caisse de Sécurité Sociale) that
// submits fund requests and receives subsidies.
type CSS struct {
	ID            uuid.UUID
	Code          string
	Name          string
	Address       string
	ContactPerson string
	ContactEmail  string
	ContactPhone  string
	Active        bool
	CreatedAt     time.Time
}
