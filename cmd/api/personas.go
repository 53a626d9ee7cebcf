package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/zhouzirui/z-salon/backend/internal/model/persona"
)

var (
	personaCategory string
	personaQuery    string
)

// personasCmd prints the catalog the server would load.
var personasCmd = &cobra.Command{
	Use:   "personas",
	Short: "Print the persona catalog as YAML",
	Long: `Prints the persona catalog (PERSONA_CATALOG_PATH or the built-in seed).

Example:
  salon personas --category scientist
  salon personas --query engine`,
	RunE: runPersonas,
}

func init() {
	personasCmd.Flags().StringVar(&personaCategory, "category", "", "only personas in this category")
	personasCmd.Flags().StringVar(&personaQuery, "query", "", "case-insensitive search over name and description")
}

func runPersonas(cmd *cobra.Command, args []string) error {
	personaStore, err := loadPersonas(cfg.Storage.PersonaCatalogPath)
	if err != nil {
		return fmt.Errorf("failed to load persona catalog: %w", err)
	}

	items, err := filterPersonas(personaStore, personaCategory, personaQuery)
	if err != nil {
		return err
	}

	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(map[string][]persona.Persona{"personas": items})
}

func filterPersonas(catalog persona.Store, category, query string) ([]persona.Persona, error) {
	items := catalog.List()
	if category != "" {
		c, err := persona.ParseCategory(category)
		if err != nil {
			return nil, err
		}
		items = catalog.ListByCategory(c)
	}
	if query == "" {
		return items, nil
	}

	matched := make(map[int]struct{})
	for _, p := range catalog.Search(query) {
		matched[p.ID] = struct{}{}
	}
	out := make([]persona.Persona, 0, len(items))
	for _, p := range items {
		if _, ok := matched[p.ID]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}
