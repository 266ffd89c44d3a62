// Date: Oct 18th 2026
// Project: A Recursive SVAR Analysis of US Monetary Policy Shocks

package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"Monetary_SVAR_Project/internal/config"
	"Monetary_SVAR_Project/internal/logger"
	"Monetary_SVAR_Project/internal/pipeline"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

var args struct {
	configPath string
	envFile    string
	offline    bool
}

var Cmd = &cobra.Command{
	Use:           "svar",
	Short:         "Recursive SVAR analysis of US monetary policy shocks",
	Long:          "Fetch GDP, prices, population and the federal funds rate from FRED, build the\nquarterly model input and estimate a Cholesky-identified SVAR with bootstrap bands.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Acquire data, estimate the model and write tables and figures",
	RunE:  run,
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download the input series and refresh the snapshot",
	RunE:  fetch,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version)
	},
}

func init() {
	Cmd.PersistentFlags().StringVarP(&args.configPath, "config", "c", "config/config.yml", "path to the YAML configuration")
	Cmd.PersistentFlags().StringVar(&args.envFile, "env-file", ".env", "dotenv file with FRED_API_KEY and overrides")
	runCmd.Flags().BoolVar(&args.offline, "offline", false, "skip the live source and read the snapshot")
	Cmd.AddCommand(runCmd, fetchCmd, versionCmd)
}

func main() {
	if err := Cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// setup loads the environment and configuration and builds a runner.
func setup(ctx context.Context) (*pipeline.Runner, *logger.Logger, error) {
	if err := godotenv.Load(args.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, nil, fmt.Errorf("load %s: %w", args.envFile, err)
	}

	cfg, err := config.Load(args.configPath)
	if err != nil {
		return nil, nil, err
	}

	log, err := logger.New(cfg.LoggerConfig())
	if err != nil {
		return nil, nil, err
	}
	runID := uuid.NewString()
	log.Debug("configuration loaded", logger.String("run_id", runID), logger.String("config", cfg.String()))

	runner, err := pipeline.NewRunner(ctx, cfg, log, runID)
	if err != nil {
		return nil, nil, err
	}
	return runner, log, nil
}

func run(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner, log, err := setup(ctx)
	if err != nil {
		return err
	}
	log.Info("starting run",
		logger.String("run_id", runner.RunID),
		logger.String("version", version),
		logger.Bool("offline", args.offline))

	rep, err := runner.Run(ctx, args.offline)
	if err != nil {
		log.Error("run failed", logger.String("run_id", runner.RunID), logger.Error(err))
		return err
	}

	out := cmd.OutOrStdout()
	rep.Structural.Summary(out, rep.Prepared.Model)
	if rep.FromSnapshot {
		fmt.Fprintln(out, "Data source: persisted snapshot")
	} else {
		fmt.Fprintln(out, "Data source: FRED")
	}
	for _, f := range rep.Files {
		fmt.Fprintln(out, "wrote", f)
	}
	return nil
}

func fetch(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner, log, err := setup(ctx)
	if err != nil {
		return err
	}
	res, err := runner.Fetch(ctx)
	if err != nil {
		log.Error("fetch failed", logger.String("run_id", runner.RunID), logger.Error(err))
		return err
	}
	for id, s := range res.Series {
		fmt.Fprintf(cmd.OutOrStdout(), "%-10s %4d observations  %s .. %s\n",
			id, s.Len(), s.First().Format(config.DateLayout), s.Last().Format(config.DateLayout))
	}
	return nil
}
