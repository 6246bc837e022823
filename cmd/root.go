package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pders01/draftkeeper/internal/config"
	"github.com/pders01/draftkeeper/internal/draft"
	"github.com/pders01/draftkeeper/internal/kv"
	"github.com/pders01/draftkeeper/internal/logging"
)

var (
	cfgFile      string
	storeBackend string
	logLevel     string
)

// Set up by PersistentPreRunE. Tests assign them directly.
var (
	appConfig *config.Config
	appLogger = zap.NewNop()
	appStore  kv.Store
)

var rootCmd = &cobra.Command{
	Use:   "drafts",
	Short: "Inspect and manage auto-saved form drafts",
	Long: `drafts keeps in-progress form data in a key-value store while it is being
edited, so an abandoned form can be restored later:
  - debounced auto-save of a tracked form file
  - restore with a confirm or automatic policy
  - listing, comparing and pruning orphaned drafts
  - keyword and semantic search over draft content

Drafts live in a file, SQLite or Postgres store selected in
$HOME/.config/drafts/config.toml or via DRAFTS_* environment variables.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/drafts/config.toml)")
	rootCmd.PersistentFlags().StringVar(&storeBackend, "store", "", "store backend: file|memory|sqlite|postgres")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug|info|warn|error")

	viper.BindPFlag("store.backend", rootCmd.PersistentFlags().Lookup("store"))
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	configDir, err := config.Dir()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(configDir)
		viper.SetConfigType("toml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("DRAFTS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	config.SetDefaults(viper.GetViper(), configDir)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			fmt.Fprintf(os.Stderr, "Warning: failed to read config: %v\n", err)
		}
	}
}

// setup loads the configuration, builds the logger and opens the store.
func setup(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}
	if appStore != nil {
		return nil
	}

	store, err := kv.Open(commandContext(cmd), appConfig.Store)
	if err != nil {
		return fmt.Errorf("failed to open %s store: %w", appConfig.Store.Backend, err)
	}
	appStore = store
	appLogger.Debug("store opened", zap.String("backend", appConfig.Store.Backend))
	return nil
}

func loadConfig() error {
	if appConfig != nil {
		return nil
	}
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	if used := viper.ConfigFileUsed(); used != "" {
		logger.Debug("using config file", zap.String("path", used))
	}
	appConfig = cfg
	appLogger = logger
	return nil
}

func teardown(cmd *cobra.Command, args []string) error {
	defer appLogger.Sync()
	if appStore == nil {
		return nil
	}
	err := appStore.Close()
	appStore = nil
	if err != nil {
		return fmt.Errorf("failed to close store: %w", err)
	}
	return nil
}

func requireStore() (kv.Store, error) {
	if appStore == nil {
		return nil, fmt.Errorf("draft store is not open")
	}
	return appStore, nil
}

// currentConfig returns the loaded configuration, loading it if needed.
func currentConfig() (*config.Config, error) {
	if err := loadConfig(); err != nil {
		return nil, err
	}
	return appConfig, nil
}

func diagnostics() draft.Diagnostics {
	return logging.NewSink(appLogger)
}

func commandContext(cmd *cobra.Command) context.Context {
	if cmd != nil && cmd.Context() != nil {
		return cmd.Context()
	}
	return context.Background()
}
