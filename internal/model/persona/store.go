package persona

import "strings"

// Store exposes read-only persona lookups.
type Store interface {
	List() []Persona
	ListByCategory(category Category) []Persona
	Search(query string) []Persona
	FindByID(id int) (Persona, bool)
}

// MemoryStore implements Store with an in-memory slice. It is never mutated after construction.
type MemoryStore struct {
	items []Persona
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied personas.
func NewMemoryStore(items []Persona) *MemoryStore {
	return &MemoryStore{items: append([]Persona(nil), items...)}
}

// List returns every persona.
func (s *MemoryStore) List() []Persona {
	return append([]Persona{}, s.items...)
}

// ListByCategory returns personas in the given category.
func (s *MemoryStore) ListByCategory(category Category) []Persona {
	return s.filter(func(p Persona) bool { return p.Category == category })
}

// Search matches query case-insensitively against name and description.
func (s *MemoryStore) Search(query string) []Persona {
	needle := strings.ToLower(strings.TrimSpace(query))
	return s.filter(func(p Persona) bool {
		return strings.Contains(strings.ToLower(p.Name), needle) ||
			strings.Contains(strings.ToLower(p.Description), needle)
	})
}

// FindByID looks up a persona by identifier.
func (s *MemoryStore) FindByID(id int) (Persona, bool) {
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return Persona{}, false
}

func (s *MemoryStore) filter(keep func(Persona) bool) []Persona {
	out := make([]Persona, 0)
	for _, item := range s.items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}
