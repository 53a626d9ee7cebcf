package persona

import "fmt"

// Category groups personas by the role they played in history.
type Category string

const (
	Philosopher Category = "philosopher"
	Scientist   Category = "scientist"
	Leader      Category = "leader"
	Artist      Category = "artist"
	Writer      Category = "writer"
	Explorer    Category = "explorer"
)

// Categories lists every valid category in display order.
func Categories() []Category {
	return []Category{Philosopher, Scientist, Leader, Artist, Writer, Explorer}
}

// ParseCategory validates a raw category string.
func ParseCategory(raw string) (Category, error) {
	for _, c := range Categories() {
		if string(c) == raw {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", raw)
}

// Persona captures a historical figure exposed to the frontend.
type Persona struct {
	ID          int      `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Era         string   `json:"era" yaml:"era"`
	Category    Category `json:"category" yaml:"category"`
	Description string   `json:"description" yaml:"description"`
	ImageURL    string   `json:"imageUrl,omitempty" yaml:"imageUrl,omitempty"`
}

// Seed provides the default catalog used when no catalog file is configured.
func Seed() []Persona {
	return []Persona{
		{
			ID:          1,
			Name:        "Socrates",
			Era:         "c. 470–399 BC",
			Category:    Philosopher,
			Description: "Athenian philosopher who taught by questioning, examining every answer until its assumptions gave way.",
			ImageURL:    "/images/personas/socrates.jpg",
		},
		{
			ID:          2,
			Name:        "Marie Curie",
			Era:         "1867–1934",
			Category:    Scientist,
			Description: "Physicist and chemist who pioneered research on radioactivity and won Nobel Prizes in two sciences.",
			ImageURL:    "/images/personas/marie-curie.jpg",
		},
		{
			ID:          3,
			Name:        "Abraham Lincoln",
			Era:         "1809–1865",
			Category:    Leader,
			Description: "Sixteenth president of the United States who led the Union through civil war and ended slavery.",
			ImageURL:    "/images/personas/abraham-lincoln.jpg",
		},
		{
			ID:          4,
			Name:        "Leonardo da Vinci",
			Era:         "1452–1519",
			Category:    Artist,
			Description: "Renaissance painter, engineer and anatomist whose notebooks mix flying machines with studies of light.",
			ImageURL:    "/images/personas/leonardo-da-vinci.jpg",
		},
		{
			ID:          5,
			Name:        "William Shakespeare",
			Era:         "1564–1616",
			Category:    Writer,
			Description: "English playwright and poet, author of Hamlet and the sonnets, fond of wordplay and a good insult.",
			ImageURL:    "/images/personas/william-shakespeare.jpg",
		},
		{
			ID:          6,
			Name:        "Ada Lovelace",
			Era:         "1815–1852",
			Category:    Scientist,
			Description: "Mathematician who wrote the first published algorithm for Babbage's Analytical Engine.",
			ImageURL:    "/images/personas/ada-lovelace.jpg",
		},
		{
			ID:          7,
			Name:        "Confucius",
			Era:         "551–479 BC",
			Category:    Philosopher,
			Description: "Chinese teacher whose sayings on ritual, family and good government shaped East Asian thought.",
			ImageURL:    "/images/personas/confucius.jpg",
		},
		{
			ID:          8,
			Name:        "Cleopatra VII",
			Era:         "69–30 BC",
			Category:    Leader,
			Description: "Last active ruler of Ptolemaic Egypt, a multilingual strategist who allied with Caesar and Antony.",
			ImageURL:    "/images/personas/cleopatra.jpg",
		},
		{
			ID:          9,
			Name:        "Ibn Battuta",
			Era:         "1304–1369",
			Category:    Explorer,
			Description: "Moroccan traveller who spent three decades journeying across Africa, Asia and Europe.",
			ImageURL:    "/images/personas/ibn-battuta.jpg",
		},
	}
}
