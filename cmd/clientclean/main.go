package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/ClientClean/internal/config"
	"github.com/JonMunkholm/ClientClean/internal/logging"
	"github.com/JonMunkholm/ClientClean/internal/phone"
)

var version = "dev"

// app carries what PersistentPreRunE loads for the subcommands.
type app struct {
	cfg       *config.Config
	table     *phone.Table
	logLevel  string
	logFormat string
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "clientclean",
		Short: "Clean client phone lists and split them into upload-sized files",
		Long: `clientclean reads a spreadsheet of client names and phone numbers, keeps
the rows whose number matches a known country code, drops duplicates, and
writes the result as a zip of files with at most --max-rows rows each.

Examples:
  clientclean clean contacts.xlsx --name-col name --number-col number
  clientclean clean export.csv --format csv --out cleaned.zip
  clientclean codes`,
		SilenceUsage:      true,
		PersistentPreRunE: a.load,
	}

	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "text", "log format (text, json)")

	root.AddCommand(a.cleanCmd())
	root.AddCommand(a.codesCmd())
	root.AddCommand(versionCmd())
	return root
}

// load loads .env and the environment config, then builds the code table.
// Logs go to stderr so stdout stays clean for the summary.
func (a *app) load(cmd *cobra.Command, _ []string) error {
	// Load keeps variables already set in the environment
	_ = godotenv.Load()

	slog.SetDefault(logging.New(cmd.ErrOrStderr(), a.logLevel, a.logFormat))

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	table, err := cfg.Export.Table()
	if err != nil {
		return fmt.Errorf("country codes: %w", err)
	}
	a.cfg = cfg
	a.table = table
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "clientclean %s\n", version)
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
