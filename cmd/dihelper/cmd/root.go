package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/GoCodeAlone/dihelper"
	"github.com/GoCodeAlone/dihelper/feeders"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// OsExit is replaced in tests.
var OsExit = os.Exit

// Version information
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// PrintVersion prints version information
func PrintVersion() string {
	return fmt.Sprintf("dihelper v%s (commit: %s, built on: %s)", Version, Commit, Date)
}

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath string
	envPrefix  string
	logLevel   string
}

// NewRootCommand creates the root command for the dihelper demo application
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "dihelper",
		Short: "dihelper - a demo container driving beans through init, run and close",
		Long: `dihelper registers the reference bean set in a container and drives it
through its lifecycle. Bean lifecycle settings can be overridden from a
YAML, TOML or JSON config file and from DIHELPER_* environment variables.`,
		Version:       PrintVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "config file (.yaml, .yml, .toml or .json)")
	flags.StringVar(&opts.envPrefix, "env-prefix", "DIHELPER", "prefix of environment variable overrides")
	flags.StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	// Add subcommands
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewBeansCommand(opts))

	return cmd
}

// loadConfig reads the container config from the config file, then the
// environment.
func (o *globalOptions) loadConfig() (*dihelper.Config, error) {
	var sources []dihelper.Feeder

	if o.configPath != "" {
		if _, err := os.Stat(o.configPath); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}

		switch ext := strings.ToLower(filepath.Ext(o.configPath)); ext {
		case ".yaml", ".yml":
			sources = append(sources, feeders.NewYamlFeeder(o.configPath))
		case ".toml":
			sources = append(sources, feeders.NewTomlFeeder(o.configPath))
		case ".json":
			sources = append(sources, feeders.NewJSONFeeder(o.configPath))
		default:
			return nil, fmt.Errorf("%w: %q", errUnsupportedConfigFormat, ext)
		}
	}

	if o.envPrefix != "" {
		sources = append(sources, feeders.NewAffixedEnvFeeder(o.envPrefix, ""))
	}

	return dihelper.LoadConfig(sources...)
}

// newLogger builds a zap development logger at the requested level.
func (o *globalOptions) newLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(o.logLevel)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.DisableStacktrace = true
	return cfg.Build()
}

// newProvider wires the reference beans with the loaded config. The config
// is read again on every call.
func (o *globalOptions) newProvider(zl *zap.Logger, extra ...dihelper.ProviderOption) (*dihelper.BeanProvider, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	logger := dihelper.NewZapLogger(zl)

	opts := []dihelper.ProviderOption{
		dihelper.WithLogger(logger),
		dihelper.WithConfig(cfg),
		dihelper.WithRunErrorHandler(func(err *dihelper.RunPhaseError) {
			zl.Warn("Run action failed", zap.String("bean", err.Bean), zap.Error(err.Err))
		}),
	}
	opts = append(opts, extra...)

	return dihelper.NewBeanProvider(ReferenceBeans(logger), opts...)
}
