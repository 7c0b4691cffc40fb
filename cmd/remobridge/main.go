// Remo Bridge exposes Nature Remo sensors, air conditioners and infrared
// televisions as HomeKit accessories.
//
// The bridge polls the Nature cloud API, keeps one accessory per entity in
// a SQLite-backed cache and serves them from a HAP bridge. State can be
// mirrored to MQTT and recorded to InfluxDB, and a small HTTP API reports
// what is bridged.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/nerrad567/remo-bridge/internal/infrastructure/config"
)

// Version information, set at build time via ldflags:
// go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const defaultConfigPath = "configs/config.yaml"

var (
	flagConfig  string
	flagEnvFile string
	flagFixture bool
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "remobridge",
		Short: "Nature Remo to HomeKit bridge",
		Long: `remobridge polls the Nature Remo cloud API and serves the sensors, air
conditioners and configured infrared televisions as HomeKit accessories.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}
	root.SetVersionTemplate(fmt.Sprintf("remobridge %s (commit %s, built %s)\n", version, commit, date))

	flags := root.PersistentFlags()
	flags.StringVar(&flagConfig, "config", "", "Config file path (env: REMOBRIDGE_CONFIG, default: "+defaultConfigPath+")")
	flags.StringVar(&flagEnvFile, "env-file", ".env", "Optional dotenv file loaded before the config")
	flags.BoolVar(&flagFixture, "fixture", false, "Serve the built-in fixture account instead of calling the cloud API")

	root.AddCommand(newDevicesCmd(), newAppliancesCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "remobridge %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}

// loadConfig reads the dotenv file, if any, then the YAML config. A missing
// default config file is not an error: the environment alone may be enough.
func loadConfig() (*config.Config, error) {
	if flagEnvFile != "" {
		if err := godotenv.Load(flagEnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", flagEnvFile, err)
		}
	}
	if flagFixture {
		if err := os.Setenv("REMOBRIDGE_FIXTURE", "true"); err != nil {
			return nil, fmt.Errorf("enabling fixture mode: %w", err)
		}
	}

	cfg, err := config.Load(configPath())
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func configPath() string {
	if flagConfig != "" {
		return flagConfig
	}
	if path := os.Getenv("REMOBRIDGE_CONFIG"); path != "" {
		return path
	}
	if _, err := os.Stat(defaultConfigPath); err == nil {
		return defaultConfigPath
	}
	return ""
}
