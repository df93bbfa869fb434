// Package cli provides the finmcp command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"finmcp/internal/analysis/indicators"
	"finmcp/internal/config"
	apperrors "finmcp/internal/errors"
	"finmcp/internal/logging"
	"finmcp/internal/marketdata"
	"finmcp/internal/metrics"
	"finmcp/internal/resilience"
	"finmcp/internal/service"
	"finmcp/pkg/utils"
)

// Version is overridden at build time with -ldflags "-X finmcp/internal/cli.Version=...".
var Version = "0.1.0"

// Command annotations controlling what PersistentPreRunE prepares.
const (
	annotationNoConfig = "finmcp/no-config"
	annotationData     = "finmcp/data"
)

// App holds the application dependencies.
type App struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Metrics  *metrics.Recorder
	Provider marketdata.Provider
	// Breaker is set for the yahoo provider only.
	Breaker *resilience.CircuitBreaker
	Service *service.Service

	configDir string
}

// Execute runs the CLI with os.Args and releases the provider afterwards.
func Execute(ctx context.Context) error {
	app := newApp()
	defer app.Close()
	return NewRootCmd(app).ExecuteContext(ctx)
}

func newApp() *App {
	return &App{Logger: zerolog.Nop()}
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "finmcp",
		Short: "Market data and technical analysis over the Model Context Protocol",
		Long: `finmcp serves stock quotes, daily price history, technical indicators
(SMA, EMA, RSI, MACD, Bollinger Bands) and a trend analysis to MCP clients.

Run 'finmcp serve' to start the MCP server on stdio, or use the quote,
history, indicator and analyze commands directly from the terminal.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.setup(cmd)
		},
	}

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&app.configDir, "config", "", "config directory (default: ~/.config/finmcp)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored output")

	addCoreCommands(rootCmd, app)
	addServeCommands(rootCmd, app)
	addMarketDataCommands(rootCmd, app)
	addAnalysisCommands(rootCmd, app)

	return rootCmd
}

// setup loads configuration and, for data commands, the provider and service.
func (a *App) setup(cmd *cobra.Command) error {
	if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
		color.NoColor = true
	}
	if cmd.Annotations[annotationNoConfig] == "true" || cmd.Name() == "help" {
		return nil
	}

	cfg, err := config.Load(a.configDir)
	if err != nil {
		return err
	}
	a.Config = cfg
	if !cfg.UI.ColorEnabled {
		color.NoColor = true
	}

	logCfg := logging.LogConfig{
		Level:      cfg.Logging.Level,
		Console:    true,
		File:       cfg.Logging.File,
		FilePath:   cfg.Logging.FilePath,
		MaxSize:    cfg.Logging.MaxSize,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAge:     cfg.Logging.MaxAge,
	}
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		logCfg.Level = "debug"
	}
	a.Logger = logging.NewLoggerWithConfig(logCfg)

	if cmd.Annotations[annotationData] != "true" {
		return nil
	}
	return a.openData()
}

// openData builds the provider chain and the service on top of it.
func (a *App) openData() error {
	data := a.Config.Data
	opts := marketdata.Options{
		Provider: data.Provider,
		CSVDir:   data.CSV.Dir,
		SQLite:   data.SQLite.Path,
	}
	if strings.EqualFold(data.Provider, marketdata.ProviderYahoo) {
		a.Breaker = newBreaker(data.Yahoo)
		opts.Yahoo = marketdata.YahooOptions{
			BaseURL:           data.Yahoo.BaseURL,
			UserAgent:         data.Yahoo.UserAgent,
			Timeout:           data.Yahoo.Timeout,
			RequestsPerSecond: data.Yahoo.RequestsPerSecond,
			Burst:             data.Yahoo.Burst,
			Retry: utils.RetryConfig{
				MaxAttempts:   data.Yahoo.MaxAttempts,
				InitialDelay:  data.Yahoo.RetryDelay,
				MaxDelay:      5 * time.Second,
				BackoffFactor: 2.0,
			},
			Breaker: a.Breaker,
			Logger:  a.Logger,
		}
	}

	provider, err := marketdata.New(opts)
	if err != nil {
		return fmt.Errorf("opening %s provider: %w", data.Provider, err)
	}
	backend, err := indicators.NewBackend(a.Config.Indicators.Backend)
	if err != nil {
		marketdata.Close(provider)
		return err
	}

	a.Metrics = metrics.New()
	a.Provider = marketdata.WithObserver(provider, a.Metrics)
	a.Service = service.New(a.Provider, indicators.NewEngine(backend), service.WithLogger(a.Logger))

	a.Logger.Debug().
		Str("provider", provider.Name()).
		Str("backend", backend.Name()).
		Msg("Market data initialized")
	return nil
}

func newBreaker(cfg config.YahooConfig) *resilience.CircuitBreaker {
	bc := resilience.DefaultCircuitBreakerConfig()
	if cfg.BreakerFailures > 0 {
		bc.FailureThreshold = cfg.BreakerFailures
	}
	if cfg.BreakerCooldown > 0 {
		bc.Timeout = cfg.BreakerCooldown
	}
	bc.IsFailure = func(err error) bool {
		return !errors.Is(err, apperrors.ErrSymbolNotFound)
	}
	return resilience.NewCircuitBreaker(marketdata.ProviderYahoo, bc)
}

// Close releases the provider.
func (a *App) Close() error {
	if a.Provider == nil {
		return nil
	}
	err := marketdata.Close(a.Provider)
	a.Provider = nil
	return err
}

// serviceError turns a service failure into a CLI result. Informational
// outcomes are printed and swallowed; failures keep their cause for --debug.
func (a *App) serviceError(output *Output, err error, symbol string) error {
	outcome, msg := service.Describe(err, marketdata.NormalizeSymbol(symbol))
	if !outcome.IsError() {
		if output.IsJSON() {
			return output.JSON(map[string]string{"outcome": string(outcome), "message": msg})
		}
		output.Warning("%s", msg)
		return nil
	}
	a.Logger.Debug().Err(err).Str("outcome", string(outcome)).Msg("Command failed")
	if outcome == service.OutcomeRejected {
		return errors.New(msg)
	}
	return fmt.Errorf("%s: %w", strings.TrimSuffix(msg, "."), err)
}

func dataCommand(cmd *cobra.Command) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[annotationData] = "true"
	return cmd
}

func noConfig(cmd *cobra.Command) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[annotationNoConfig] = "true"
	return cmd
}

// addCoreCommands adds core utility commands.
func addCoreCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
}

func newVersionCmd() *cobra.Command {
	return noConfig(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"version": Version})
				return
			}
			output.Printf("finmcp v%s\n", Version)
		},
	})
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "Create, view and validate the finmcp configuration file.",
	}

	var force bool
	initCmd := noConfig(&cobra.Command{
		Use:   "init",
		Short: "Write a commented default config.toml",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			path, err := config.WriteTemplate(app.configDir, force)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]string{"path": path})
			}
			output.Success("Wrote %s", path)
			return nil
		},
	})
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	cmd.AddCommand(initCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(noConfig(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			path := config.Path(app.configDir)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": path})
				return
			}
			output.Println(path)
		},
	}))

	// Load already validates; reaching RunE means the file is valid.
	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(map[string]bool{"valid": true})
			}
			output.Success("Configuration is valid")
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) {
	output.Bold("Server")
	output.Printf("  Transport:        %s\n", cfg.Server.Transport)
	output.Printf("  Address:          %s\n", cfg.Server.Addr)
	output.Printf("  Shutdown timeout: %s\n", cfg.Server.ShutdownTimeout)
	output.Println()

	output.Bold("Market Data")
	output.Printf("  Provider:         %s\n", cfg.Data.Provider)
	switch strings.ToLower(cfg.Data.Provider) {
	case marketdata.ProviderCSV:
		output.Printf("  Directory:        %s\n", cfg.Data.CSV.Dir)
	case marketdata.ProviderSQLite:
		output.Printf("  Database:         %s\n", cfg.Data.SQLite.Path)
	default:
		output.Printf("  Base URL:         %s\n", cfg.Data.Yahoo.BaseURL)
		output.Printf("  Rate limit:       %.1f req/s (burst %d)\n", cfg.Data.Yahoo.RequestsPerSecond, cfg.Data.Yahoo.Burst)
		output.Printf("  Attempts:         %d\n", cfg.Data.Yahoo.MaxAttempts)
		output.Printf("  Breaker:          %d failures, %s cooldown\n", cfg.Data.Yahoo.BreakerFailures, cfg.Data.Yahoo.BreakerCooldown)
	}
	output.Println()

	output.Bold("Indicators")
	output.Printf("  Backend:          %s\n", cfg.Indicators.Backend)
	output.Println()

	output.Bold("Logging")
	output.Printf("  Level:            %s\n", cfg.Logging.Level)
	if cfg.Logging.File {
		output.Printf("  File:             %s\n", cfg.Logging.FilePath)
	}
}
