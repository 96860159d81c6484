package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"runtimed/internal/config"
	"runtimed/internal/httpapi"
	"runtimed/internal/logging"
)

// options are the values shared by every subcommand.
type options struct {
	configPath string
	logLevel   string
	image      string

	cfg config.Config
	log zerolog.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{log: zerolog.Nop()}
	root := &cobra.Command{
		Use:           "runtimed",
		Short:         "Keep the model runtime container running on a known port",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.resolve()
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Config file (.yaml, .yml, .json or .toml)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug|info|warn|error")
	root.PersistentFlags().StringVar(&opts.image, "image", "", "Runtime image reference (overrides RUNTIMED_IMAGE)")

	root.AddCommand(
		serveCmd(opts),
		ensureCmd(opts),
		checkCmd(opts),
		portCmd(opts),
		installCmd(opts),
	)
	return root
}

// resolve layers the config file, the environment and flags, then fills
// defaults and builds the logger.
func (o *options) resolve() error {
	var cfg config.Config
	if o.configPath != "" {
		c, err := config.Load(o.configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c
	}
	cfg.ApplyEnv(os.Getenv)
	if o.image != "" {
		cfg.Image = o.image
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if err := cfg.Defaults(); err != nil {
		return fmt.Errorf("config defaults: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	o.cfg = cfg
	o.log = log
	httpapi.SetLogger(log.With().Str("component", "http").Logger())
	return nil
}
