package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	service "github.com/demoworks/rota/internal/app"
	"github.com/demoworks/rota/internal/config"
	"github.com/demoworks/rota/pkg/logger"
)

func main() {
	// Optional .env for local development; absence is not an error.
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "rota",
		Short:         "Visit scheduling engine",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newRunCmd(), newRunsCmd(), newProposalsCmd())
	return root
}

func loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return cfg, nil
}

func loadService(ctx context.Context) (*service.Service, error) {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	return service.New(ctx, cfg)
}

func newRunCmd() *cobra.Command {
	var (
		runType   string
		timeLimit time.Duration
		workers   int
		dbPath    string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute one scheduling run and print its summary",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}
			if timeLimit > 0 {
				cfg.TimeLimitSeconds = int(timeLimit.Round(time.Second) / time.Second)
			}
			if workers > 0 {
				cfg.Workers = workers
			}
			if dbPath != "" {
				cfg.DatabasePath = dbPath
			}
			svc, err := service.New(ctx, cfg)
			if err != nil {
				return err
			}
			defer svc.Close()

			run, err := svc.Run(ctx, runType)
			if run.ID != uuid.Nil {
				fmt.Fprintf(cmd.OutOrStdout(),
					"run %s  status=%s  processed=%d scheduled=%d failed=%d swaps=%d\n",
					run.ID, run.Status, run.Processed, run.Scheduled, run.Failed, run.Swaps)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&runType, "run-type", "scheduled", "run type tag recorded on the run")
	cmd.Flags().DurationVar(&timeLimit, "time-limit", 0, "override the configured solver time limit")
	cmd.Flags().IntVar(&workers, "workers", 0, "override the configured solver worker count")
	cmd.Flags().StringVar(&dbPath, "db", "", "override the configured database path")
	return cmd
}

func newRunsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent runs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			svc, err := loadService(ctx)
			if err != nil {
				return err
			}
			defer svc.Close()

			runs, err := svc.Runs(ctx, limit)
			if err != nil {
				return err
			}
			for _, run := range runs {
				fmt.Fprintf(cmd.OutOrStdout(),
					"%s  %-10s %-9s  processed=%d scheduled=%d failed=%d swaps=%d\n",
					run.ID, run.Type, run.Status, run.Processed, run.Scheduled, run.Failed, run.Swaps)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to list")
	return cmd
}

func newProposalsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "proposals <run-id>",
		Short: "List the proposals recorded for a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid run id: %w", err)
			}
			svc, err := loadService(ctx)
			if err != nil {
				return err
			}
			defer svc.Close()

			proposals, err := svc.Proposals(ctx, runID)
			if err != nil {
				return err
			}
			for _, p := range proposals {
				if p.Scheduled() {
					mark := ""
					if p.Swap {
						mark = "  swap"
						if p.BumpedRef != "" {
							mark += " bumped=" + p.BumpedRef
						}
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s  block=%d%s\n",
						p.EventRef, p.EmployeeID, p.ScheduledAt.Format("2006-01-02 15:04"), p.ShiftBlock, mark)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s  FAILED: %s\n", p.EventRef, p.FailureReason)
			}
			return nil
		},
	}
}
