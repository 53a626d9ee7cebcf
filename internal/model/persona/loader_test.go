package persona

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const sampleCatalog = `
personas:
  - id: 10
    name: Hypatia
    era: c. 350–415
    category: philosopher
    description: Alexandrian mathematician and astronomer.
  - id: 11
    name: Zheng He
    era: 1371–1433
    category: explorer
    description: Admiral of the Ming treasure fleets.
    imageUrl: /images/personas/zheng-he.jpg
`

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "personas.yaml")
	if err := os.WriteFile(path, []byte(sampleCatalog), 0o600); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	got, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile err: %v", err)
	}

	want := []Persona{
		{ID: 10, Name: "Hypatia", Era: "c. 350–415", Category: Philosopher, Description: "Alexandrian mathematician and astronomer."},
		{ID: 11, Name: "Zheng He", Era: "1371–1433", Category: Explorer, Description: "Admiral of the Ming treasure fleets.", ImageURL: "/images/personas/zheng-he.jpg"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("catalog mismatch (-want +got):\n%s", diff)
	}
}

func TestParseRejectsInvalidCatalogs(t *testing.T) {
	cases := map[string]struct {
		yaml    string
		wantErr string
	}{
		"duplicate id": {
			yaml:    "personas:\n  - {id: 1, name: A, category: writer}\n  - {id: 1, name: B, category: writer}\n",
			wantErr: "duplicate id",
		},
		"unknown category": {
			yaml:    "personas:\n  - {id: 1, name: A, category: wizard}\n",
			wantErr: "unknown category",
		},
		"missing name": {
			yaml:    "personas:\n  - {id: 1, category: writer}\n",
			wantErr: "name is required",
		},
		"unknown field": {
			yaml:    "personas:\n  - {id: 1, name: A, category: writer, mood: grumpy}\n",
			wantErr: "mood",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}
