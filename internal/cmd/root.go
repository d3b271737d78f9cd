package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/willfong/insurance-assistant/internal/config"
	"github.com/willfong/insurance-assistant/internal/ui"
)

var (
	cfgFile string
	verbose bool
	noColor bool

	// cfg is populated by initConfig before any subcommand runs
	cfg *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "assistant",
	Short: "Conversational insurance customer-service assistant",
	Long: `A webhook-driven assistant that answers policy, claim and payment
questions after PIN authentication, and collects customer feedback.

Configuration is read from assistant.yaml (or --config), then from
ASSISTANT_* environment variables. PORT sets the listening port.

Example usage:
  assistant serve
  assistant chat
  assistant simulate --sessions 50 --duration 1m
  assistant seed --dsn "user:pass@tcp(localhost:3306)/insurance"`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig(cmd)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./assistant.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colors and animations")

	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))

	// Silence usage on error - we'll print our own messages
	rootCmd.SilenceUsage = true

	// Set version template
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

// initConfig reads the config file and environment, validates the result
// and installs the default logger
func initConfig(cmd *cobra.Command) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("assistant")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/assistant")
	}

	if err := config.BindEnvironment(viper.GetViper()); err != nil {
		return err
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	loaded, err := config.Load()
	if err != nil {
		return err
	}
	if verbose && !cmd.Flags().Changed("log-level") {
		loaded.Log.Level = "debug"
	}
	if err := loaded.Validate(); err != nil {
		return err
	}
	cfg = loaded

	slog.SetDefault(newLogger(cfg.Log))
	if used := viper.ConfigFileUsed(); used != "" {
		slog.Debug("cmd.root: config loaded", "file", used)
	}
	return nil
}

// newLogger builds the process logger from log settings
func newLogger(lc config.LogConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(lc.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if lc.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// newUI returns a terminal UI honouring --no-color
func newUI() *ui.UI {
	u := ui.New()
	if noColor {
		u.SetNoColor(true)
	}
	return u
}

// Verbose returns whether verbose mode is enabled
func Verbose() bool {
	return verbose
}

// Exit with code
func Exit(code int) {
	os.Exit(code)
}
