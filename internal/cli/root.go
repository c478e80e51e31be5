// Package cli implements the command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/hupe1980/osmextract"
)

type globalFlags struct {
	logLevel  string
	logFormat string
	envFile   string
}

// Execute runs the CLI.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCmd(os.Stdout, os.Stderr)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return err
	}
	return nil
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:   "osmextract",
		Short: "Extract regions from a partitioned OpenStreetMap dataset",
		Long: `osmextract reads a dataset split into a spatial tree of leaves and
relation batches, selects everything inside a region and writes one
ordered file: points, polylines, simple relations, complex relations.

Object store settings are read from the environment (OSMEXTRACT_*), and
from a .env file in the working directory if present.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadEnv(g.envFile)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&g.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	pf.StringVar(&g.logFormat, "log-format", "text", "log format: text or json")
	pf.StringVar(&g.envFile, "env-file", ".env", "dotenv file with OSMEXTRACT_* settings")

	root.AddCommand(newQueryCmd(g), newVerifyCmd(g))
	return root
}

// loadEnv reads a dotenv file. A missing default file is not an error;
// variables already set in the environment win.
func loadEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func (g *globalFlags) logger(stderr io.Writer) (*osmextract.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(g.logLevel)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q", g.logLevel)
	}
	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(g.logFormat) {
	case "json":
		return osmextract.NewLogger(slog.NewJSONHandler(stderr, opts)), nil
	case "text", "":
		return osmextract.NewLogger(slog.NewTextHandler(stderr, opts)), nil
	}
	return nil, fmt.Errorf("invalid --log-format %q", g.logFormat)
}
