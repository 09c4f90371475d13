// Command salesd serves grocery sales predictions and manages the model
// artifacts it scores with.
package main

import (
	"fmt"
	"io"
	"os"

	"grocery-sales/internal/cfg"
	"grocery-sales/internal/common"
	"grocery-sales/internal/ml"
	"grocery-sales/internal/storage"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "salesd",
		Short:         "Grocery item sales prediction service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(serveCmd())
	cmd.AddCommand(predictCmd())
	cmd.AddCommand(artifactsCmd())
	return cmd
}

// loadSettings reads configuration and configures the global logger.
func loadSettings(errOut io.Writer) (cfg.Settings, error) {
	c, err := cfg.Load()
	if err != nil {
		return cfg.Settings{}, err
	}
	setupLogging(c, errOut)
	return c, nil
}

func setupLogging(c cfg.Settings, out io.Writer) {
	zerolog.SetGlobalLevel(c.Level())
	if c.LogFormat == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: out})
		return
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
}

// buildLoader returns the artifact loader for the configured source. The
// returned close func releases the artifact store, if one was opened.
func buildLoader(c cfg.Settings) (ml.ArtifactLoader, func(), error) {
	switch c.ArtifactSource {
	case common.ArtifactSourceStore:
		store, err := openStore(c.DataPath)
		if err != nil {
			return nil, nil, err
		}
		closeStore := func() {
			if err := store.Close(); err != nil {
				log.Warn().Err(err).Msg("Failed to close artifact store")
			}
		}
		return storage.NewLoader(store), closeStore, nil
	default:
		return ml.NewFileLoader(c.ModelPath, c.FeaturesPath), func() {}, nil
	}
}

func openStore(dataPath string) (*storage.Store, error) {
	if err := os.MkdirAll(dataPath, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	store, err := storage.New(dataPath)
	if err != nil {
		return nil, fmt.Errorf("open artifact store: %w", err)
	}
	return store, nil
}
