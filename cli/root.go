// Package cli provides the command-line interface and HTTP server of the
// inventory catalog service. It orchestrates the application lifecycle:
// configuration loading, logger setup, service wiring, state restoration
// (settings, bootstrap, turnover cache), route registration and graceful
// shutdown.
//
// Configuration precedence (highest to lowest):
//  1. Command-line flags
//  2. Environment variables (CATALOG_ prefix)
//  3. Configuration file values
//  4. Default values
package cli

import (
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mgwoorl/design-patterns-galiulina/api"
	"github.com/mgwoorl/design-patterns-galiulina/archive"
	"github.com/mgwoorl/design-patterns-galiulina/common"
	"github.com/mgwoorl/design-patterns-galiulina/config"
	"github.com/mgwoorl/design-patterns-galiulina/core"
	"github.com/mgwoorl/design-patterns-galiulina/repository"
	"github.com/mgwoorl/design-patterns-galiulina/services"
)

// cfgFile holds the path to the configuration file specified via the
// --config flag. When empty, config.yaml is searched in the standard
// locations.
var cfgFile string

// RootCmd is the entry point of the catalog service binary.
var RootCmd = &cobra.Command{
	Use:   "catalog",
	Short: "inventory and recipe catalog service with a turnover/balance engine",
	Long: `Inventory & Recipe Catalog Service

An HTTP API server over an in-memory inventory catalog:
- reference data (units, groups, nomenclatures, storages) with CRUD and
  referential-integrity sweeps over an event bus
- stock movements with a cutoff-dated turnover cache and balance reports
- the turnover-balance (OSV) report with a generic filter layer
- bucket dumps in JSON, CSV, Markdown and XML
- JSON file persistence for settings and the turnover cache, plus a bbolt
  journal of data exports

Configuration can be provided via command-line flags, environment variables
(CATALOG_ prefix) or a YAML configuration file.`,
	Run: runServer,
}

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")

	RootCmd.PersistentFlags().String("port", "", "server port")
	RootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	RootCmd.PersistentFlags().String("log-format", "", "log format (text, json)")
	RootCmd.PersistentFlags().String("log-file", "", "optional log file")
	RootCmd.PersistentFlags().String("settings-file", "", "settings JSON file")
	RootCmd.PersistentFlags().String("cache-file", "", "turnover cache snapshot file")
	RootCmd.PersistentFlags().String("recipes-file", "", "bootstrap recipe file")
	RootCmd.PersistentFlags().String("archive-file", "", "bbolt export journal file")

	viper.BindPFlag("server.port", RootCmd.PersistentFlags().Lookup("port"))
	viper.BindPFlag("logging.level", RootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("logging.format", RootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("logging.file", RootCmd.PersistentFlags().Lookup("log-file"))
	viper.BindPFlag("files.settings", RootCmd.PersistentFlags().Lookup("settings-file"))
	viper.BindPFlag("files.cache", RootCmd.PersistentFlags().Lookup("cache-file"))
	viper.BindPFlag("files.recipes", RootCmd.PersistentFlags().Lookup("recipes-file"))
	viper.BindPFlag("files.archive", RootCmd.PersistentFlags().Lookup("archive-file"))
}

// initConfig enables automatic environment variable mapping for the global
// viper instance backing the flag bindings.
func initConfig() {
	viper.AutomaticEnv()
}

// applyFlagOverrides copies explicitly set flag values over the loaded
// configuration.
func applyFlagOverrides(cfg *config.Config) {
	if port := viper.GetString("server.port"); port != "" {
		if parsed, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = parsed
		}
	}
	if level := viper.GetString("logging.level"); level != "" {
		cfg.Logging.Level = level
	}
	if format := viper.GetString("logging.format"); format != "" {
		cfg.Logging.Format = format
	}
	if file := viper.GetString("logging.file"); file != "" {
		cfg.Logging.File = file
	}
	if file := viper.GetString("files.settings"); file != "" {
		cfg.Files.Settings = file
	}
	if file := viper.GetString("files.cache"); file != "" {
		cfg.Files.Cache = file
	}
	if file := viper.GetString("files.recipes"); file != "" {
		cfg.Files.Recipes = file
	}
	if file := viper.GetString("files.archive"); file != "" {
		cfg.Files.Archive = file
	}
}

// runServer wires the services and runs the HTTP server until SIGINT or
// SIGTERM arrives.
//
// Startup sequence:
//  1. Load and validate configuration from all sources
//  2. Configure the global logger
//  3. Build the bus, the repository and the domain services
//  4. Load settings; run the bootstrap loader on the first start
//  5. Restore the turnover cache snapshot if one exists
//  6. Start the Echo server and wait for shutdown signals
func runServer(cmd *cobra.Command, args []string) {
	cfg, err := config.LoadConfig("CATALOG", cfgFile)
	if err != nil {
		common.Logger.Fatalf("failed to load configuration: %v", err)
	}
	applyFlagOverrides(cfg)

	if err := common.ConfigureLogger(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.File); err != nil {
		common.Logger.Fatalf("failed to configure logging: %v", err)
	}

	bus := core.NewBus()
	bus.Subscribe(common.NewLogSubscriber(nil))

	repo := repository.New()
	integrity := services.NewIntegrityRegistry(bus)
	turnover := services.NewTurnoverService(repo, bus)
	settings := services.NewSettingsManager(cfg.Files.Settings, cfg.Files.Cache, bus, turnover)
	balance := services.NewBalanceService(repo, bus, settings, turnover)
	osv := services.NewOSVService(repo, bus)
	reference := services.NewReferenceService(repo, bus, integrity)

	journal, err := archive.Open(cfg.Files.Archive)
	if err != nil {
		common.Logger.Fatalf("failed to open the export journal: %v", err)
	}
	defer journal.Close()
	export := services.NewExportService(repo, bus, journal)

	if err := settings.Load(); err != nil {
		common.Logger.Fatalf("failed to load settings: %v", err)
	}
	if settings.Settings().IsFirstStart {
		bootstrap := services.NewBootstrapService(repo, bus, integrity)
		if err := bootstrap.Load(cfg.Files.Recipes); err != nil {
			common.Logger.Warnf("bootstrap skipped: %v", err)
		} else if err := settings.MarkStarted(); err != nil {
			common.Logger.Fatalf("failed to save settings after bootstrap: %v", err)
		}
	}
	if _, err := turnover.LoadSnapshot(cfg.Files.Cache); err != nil {
		common.Logger.Fatalf("failed to restore the turnover cache: %v", err)
	}

	serverCfg := api.ServerConfig{
		Port:            cfg.Server.Port,
		Debug:           cfg.Server.Debug,
		BodyLimit:       cfg.Server.BodyLimit,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		AllowedOrigins:  cfg.Server.AllowedOrigins,
		RateLimit:       cfg.Server.RateLimit,
	}
	e := api.NewEchoServer(serverCfg)
	handlers := &api.Handlers{
		Repo:      repo,
		Bus:       bus,
		Reference: reference,
		Turnover:  turnover,
		Balance:   balance,
		OSV:       osv,
		Settings:  settings,
		Export:    export,
	}
	api.SetupRoutes(e, handlers)

	go func() {
		if err := api.StartServer(e, serverCfg); err != nil && err != http.ErrServerClosed {
			common.Logger.Fatalf("failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	if err := api.GracefulShutdown(e, serverCfg.ShutdownTimeout); err != nil {
		common.Logger.Errorf("shutdown: %v", err)
	}
}
