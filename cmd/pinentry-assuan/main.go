// Command pinentry-assuan is a GnuPG-compatible pinentry program: it speaks
// the Assuan protocol on stdin/stdout and prompts for PINs and
// confirmations on a terminal.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/go-assuan/pinentry/assuan"
	"github.com/go-assuan/pinentry/pinentry"
	"github.com/go-assuan/pinentry/pinentrytty"
)

var (
	flagConfig   string
	flagTTY      string
	flagLogLevel string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "pinentry-assuan:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pinentry-assuan",
		Short: "An Assuan pinentry program",
		RunE:  runServe,
	}
	cmd.Flags().StringVar(&flagConfig, "config", "", "path to an optional TOML/YAML config file")
	cmd.Flags().StringVar(&flagTTY, "ttyname", "", "default TTY device (overrides $GPG_TTY)")
	cmd.Flags().StringVar(&flagLogLevel, "log-level", "info", "log level: debug, info, warn, error")
	return cmd
}

func loadConfig() (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault("ttyname", os.Getenv("GPG_TTY"))
	v.SetDefault("log-level", "info")
	if flagConfig != "" {
		v.SetConfigFile(flagConfig)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}
	return v, nil
}

func parseLogLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	v, err := loadConfig()
	if err != nil {
		return err
	}

	logLevel := flagLogLevel
	if !cmd.Flags().Changed("log-level") && v.IsSet("log-level") {
		logLevel = v.GetString("log-level")
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(logLevel),
	}))

	ttyName := flagTTY
	if ttyName == "" {
		ttyName = v.GetString("ttyname")
	}

	term := pinentrytty.NewTerminal(logger)
	defer term.Close()
	if ttyName != "" {
		if err := term.SetTTY(ttyName); err != nil {
			logger.Warn("pinentry-assuan: couldn't set initial tty", slog.Any("err", err))
		}
	}

	registry := assuan.NewCommandRegistry[pinentry.Service]()
	pinentry.Register(registry)

	server := assuan.NewServer(registry).WithLogger(logger)
	state := pinentry.NewService(term)

	logger.Info("pinentry-assuan: serving on stdio")
	return server.Serve(stdio{}, state)
}

// stdio adapts os.Stdin/os.Stdout to an io.ReadWriter.
type stdio struct{}

func (stdio) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdio) Write(p []byte) (int, error) { return os.Stdout.Write(p) }
