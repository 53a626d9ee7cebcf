package persona

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func ids(items []Persona) []int {
	out := make([]int, 0, len(items))
	for _, p := range items {
		out = append(out, p.ID)
	}
	return out
}

func TestSeedIsValid(t *testing.T) {
	if err := Validate(Seed()); err != nil {
		t.Fatalf("seed catalog invalid: %v", err)
	}
}

func TestListByCategory(t *testing.T) {
	store := NewMemoryStore(Seed())

	got := ids(store.ListByCategory(Philosopher))
	if diff := cmp.Diff([]int{1, 7}, got); diff != "" {
		t.Fatalf("philosophers mismatch (-want +got):\n%s", diff)
	}

	if got := store.ListByCategory(Category("wizard")); len(got) != 0 {
		t.Fatalf("expected no personas for unknown category, got %v", ids(got))
	}
}

func TestSearchIsCaseInsensitive(t *testing.T) {
	store := NewMemoryStore(Seed())

	byName := ids(store.Search("CURIE"))
	if diff := cmp.Diff([]int{2}, byName); diff != "" {
		t.Fatalf("name search mismatch (-want +got):\n%s", diff)
	}

	byDescription := ids(store.Search("analytical engine"))
	if diff := cmp.Diff([]int{6}, byDescription); diff != "" {
		t.Fatalf("description search mismatch (-want +got):\n%s", diff)
	}
}

func TestSearchWithoutMatchReturnsEmpty(t *testing.T) {
	store := NewMemoryStore(Seed())

	got := store.Search("zeppelin racing")
	if got == nil {
		t.Fatal("expected empty slice, got nil")
	}
	if len(got) != 0 {
		t.Fatalf("expected no matches, got %v", ids(got))
	}
}

func TestFindByID(t *testing.T) {
	store := NewMemoryStore(Seed())

	p, ok := store.FindByID(3)
	if !ok {
		t.Fatal("expected persona 3")
	}
	if p.Name != "Abraham Lincoln" {
		t.Fatalf("unexpected persona: %s", p.Name)
	}

	if _, ok := store.FindByID(999); ok {
		t.Fatal("expected missing persona")
	}
}

func TestListReturnsCopy(t *testing.T) {
	store := NewMemoryStore(Seed())

	list := store.List()
	list[0].Name = "mutated"

	if store.List()[0].Name != "Socrates" {
		t.Fatal("internal state mutated via returned slice")
	}
}
