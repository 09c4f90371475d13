package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"grocery-sales/internal/storage"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func artifactsCmd() *cobra.Command {
	var dataPath string

	cmd := &cobra.Command{
		Use:   "artifacts",
		Short: "Manage model artifact versions in the local store",
	}
	cmd.PersistentFlags().StringVar(&dataPath, "data", "", "Artifact store directory (defaults to DATA_PATH)")

	withStore := func(cmd *cobra.Command, fn func(*storage.Store) error) error {
		c, err := loadSettings(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		path := dataPath
		if path == "" {
			path = c.DataPath
		}
		store, err := openStore(path)
		if err != nil {
			return err
		}
		defer store.Close()
		return fn(store)
	}

	cmd.AddCommand(artifactsImportCmd(withStore))
	cmd.AddCommand(artifactsListCmd(withStore))
	cmd.AddCommand(artifactsActivateCmd(withStore))
	cmd.AddCommand(artifactsRollbackCmd(withStore))
	return cmd
}

type storeRunner func(*cobra.Command, func(*storage.Store) error) error

func artifactsImportCmd(withStore storeRunner) *cobra.Command {
	var (
		modelPath    string
		featuresPath string
		version      string
		activate     bool
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Validate and store a model artifact with its feature schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			model, err := os.ReadFile(modelPath)
			if err != nil {
				return fmt.Errorf("read model: %w", err)
			}
			features, err := os.ReadFile(featuresPath)
			if err != nil {
				return fmt.Errorf("read features: %w", err)
			}

			return withStore(cmd, func(store *storage.Store) error {
				av, err := store.AddVersion(version, model, features, nil)
				if err != nil {
					return err
				}
				log.Info().Str("version", av.Version).Str("kind", av.ModelKind).Msg("Artifacts imported")

				if activate {
					if err := store.ActivateVersion(av.Version); err != nil {
						return err
					}
					log.Info().Str("version", av.Version).Msg("Version activated")
				}
				fmt.Fprintln(cmd.OutOrStdout(), av.Version)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&modelPath, "model", "", "Model artifact file")
	cmd.Flags().StringVar(&featuresPath, "features", "", "Feature schema file (JSON or YAML)")
	cmd.Flags().StringVar(&version, "version", "", "Version name (defaults to a timestamp)")
	cmd.Flags().BoolVar(&activate, "activate", false, "Activate the imported version")
	_ = cmd.MarkFlagRequired("model")
	_ = cmd.MarkFlagRequired("features")
	return cmd
}

func artifactsListCmd(withStore storeRunner) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored versions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(store *storage.Store) error {
				versions, err := store.ListVersions()
				if err != nil {
					return err
				}

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "VERSION\tKIND\tCREATED\tACTIVE\tMETRICS")
				for _, v := range versions {
					active := ""
					if v.IsActive {
						active = "*"
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
						v.Version, v.ModelKind, v.CreatedAt.Format("2006-01-02 15:04:05"), active, formatMetrics(v.Metrics))
				}
				return tw.Flush()
			})
		},
	}
}

func artifactsActivateCmd(withStore storeRunner) *cobra.Command {
	return &cobra.Command{
		Use:   "activate <version>",
		Short: "Make a stored version the one served",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(store *storage.Store) error {
				if err := store.ActivateVersion(args[0]); err != nil {
					return err
				}
				log.Info().Str("version", args[0]).Msg("Version activated")
				return nil
			})
		},
	}
}

func artifactsRollbackCmd(withStore storeRunner) *cobra.Command {
	return &cobra.Command{
		Use:   "rollback",
		Short: "Activate the version imported before the active one",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(store *storage.Store) error {
				av, err := store.Rollback()
				if err != nil {
					return err
				}
				log.Info().Str("version", av.Version).Msg("Rolled back")
				fmt.Fprintln(cmd.OutOrStdout(), av.Version)
				return nil
			})
		},
	}
}

func formatMetrics(m map[string]float64) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%.4g", k, m[k])
	}
	return strings.Join(parts, " ")
}
