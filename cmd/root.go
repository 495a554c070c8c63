package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/biosleuth/ko2pathway/internal/config"
	"github.com/biosleuth/ko2pathway/internal/observability"
)

var (
	cfgFile string
	// appConfig is resolved once in PersistentPreRunE and shared with the
	// subcommands.
	appConfig *config.Config
)

// NewRootCommand creates a fresh root command instance.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "ko2pathway",
		Short:   "Map KEGG Orthology (KO) terms to pathways, filter, summarize, and plot",
		Long: `ko2pathway resolves gene KO annotations to KEGG pathway memberships
through the KEGG REST API, caches the mapping on disk, and produces a ranked
pathway summary table plus an optional circular bar chart of the top hits.`,
		Version:       config.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initializeViper(); err != nil {
				return err
			}

			cfg, err := config.NewConfigFromViper(viper.GetViper())
			if err != nil {
				observability.InitializeLogger(config.LoggerConfig{
					Level: "info", Format: "console", ServiceName: "ko2pathway",
				})
				return err
			}
			appConfig = cfg

			observability.InitializeLogger(cfg.Logger)
			observability.GetLogger().Debug("Configuration loaded",
				zap.String("kegg_base_url", cfg.KEGG.BaseURL))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

// Execute builds the command tree and runs it with the given context.
func Execute(ctx context.Context) error {
	rootCmd := NewRootCommand()
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		observability.GetLogger().Error("Command failed", zap.Error(err))
	}
	observability.Sync()
	return err
}

// initializeViper reads the config file and environment variables.
func initializeViper() error {
	v := viper.GetViper()
	config.SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("KO2PATHWAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// No config file; defaults and env vars carry the day.
	}
	return nil
}
