package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zhouzirui/z-salon/backend/internal/config"
	"github.com/zhouzirui/z-salon/backend/internal/logging"
	"github.com/zhouzirui/z-salon/backend/internal/model/persona"
)

var (
	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "salon",
	Short: "Z Salon backend: converse with historical personas",
	Long: `Z Salon serves a catalog of historical personas and keeps per-client chat
sessions whose replies come from a configurable language model.

Run without arguments to start the HTTP server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Load .env file
		envErr := godotenv.Load()

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		logger, err = logging.New(cfg.Log.Level, cfg.Log.Development)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		if envErr != nil {
			logger.Debug("no .env file loaded, continuing with system environment variables only", zap.Error(envErr))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd, personasCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadPersonas returns the catalog from PERSONA_CATALOG_PATH, or the built-in seed.
func loadPersonas(path string) (*persona.MemoryStore, error) {
	if path == "" {
		return persona.NewMemoryStore(persona.Seed()), nil
	}
	items, err := persona.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return persona.NewMemoryStore(items), nil
}
