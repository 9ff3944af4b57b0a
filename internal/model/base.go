package model

import (
	"github.com/google/uuid"
)

// ensureID assigns a fresh UUID when the caller has not chosen one. Callers
// that need the ID before insert (franchise QR codes) set it themselves.
func ensureID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}
