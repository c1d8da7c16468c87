package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/oriumgames/contraptions"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const exitUserError = 1

// Global flag values.
var (
	flagConfig string
	flagJSON   bool
)

// cfg holds the configuration loaded by PersistentPreRunE.
var cfg *viper.Viper

var rootCmd = &cobra.Command{
	Use:           "contraptions",
	Short:         "Contraptions runs placed resource machines",
	Version:       contraptions.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		v, err := loadConfig(flagConfig)
		if err != nil {
			return err
		}
		cfg = v
		slog.SetDefault(newLogger(v.GetString(cfgKeyLogLevel)))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: ./contraptions.yaml)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output as JSON")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(inspectCmd)
}

// newLogger returns a text logger writing to stderr at the given level.
func newLogger(level string) *slog.Logger {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}
