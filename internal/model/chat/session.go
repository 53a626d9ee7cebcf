package chat

import "time"

// Session binds a client token to at most one active persona.
type Session struct {
	ID        string    `json:"id"`
	PersonaID *int      `json:"personaId"`
	CreatedAt time.Time `json:"createdAt"`
}

// HasPersona reports whether a persona has been selected.
func (s Session) HasPersona() bool {
	return s.PersonaID != nil
}
