package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/tradelens/backend/internal/analytics"
	"github.com/wonny/tradelens/backend/internal/reportstore"
	"github.com/wonny/tradelens/backend/internal/scheduler"
	"github.com/wonny/tradelens/backend/internal/scheduler/jobs"
	"github.com/wonny/tradelens/backend/internal/tradestore/postgres"
	"github.com/wonny/tradelens/backend/pkg/redis"
)

// scheduleCmd represents the schedule command
var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "리포트 스케줄러 관리",
	Long: `정기 성과 리포트 스케줄러를 시작하거나 작업을 관리합니다.

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업 목록
  run     - 특정 작업 즉시 실행

Example:
  go run ./cmd/tradelens schedule start
  go run ./cmd/tradelens schedule list
  go run ./cmd/tradelens schedule run performance_report`,
}

var (
	scheduleStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러를 시작하고 등록된 모든 작업을 스케줄합니다.

등록되는 작업:
- performance_report: REPORT_SCHEDULE (기본 매일 오후 6시)
- performance_report:<setup>: --per-setup 지정 시 셋업별 리포트
- report_retention: REPORT_RETENTION_SCHEDULE (DB 사용 시)

스케줄러는 Ctrl+C로 종료할 수 있습니다.`,
		RunE: runScheduler,
	}

	scheduleListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}

	scheduleRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

var schedulePerSetup bool

func init() {
	rootCmd.AddCommand(scheduleCmd)
	scheduleCmd.AddCommand(scheduleStartCmd)
	scheduleCmd.AddCommand(scheduleListCmd)
	scheduleCmd.AddCommand(scheduleRunCmd)

	scheduleCmd.PersistentFlags().BoolVar(&schedulePerSetup, "per-setup", false, "셋업별 리포트 작업도 등록 (postgres 소스)")
}

func runScheduler(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Println("=== TradeLens Scheduler ===")

	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := initScheduler(ctx, a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	fmt.Println("\nRegistered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		fmt.Printf("  - %s\n", jobName)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	<-ctx.Done()

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	printJobStats(sched)
	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := initScheduler(ctx, a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	fmt.Println("Registered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		fmt.Printf("  - %s\n", jobName)
	}
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := initScheduler(ctx, a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	fmt.Printf("Running job: %s\n", jobName)
	result, err := sched.RunJob(ctx, jobName)
	if err != nil {
		return fmt.Errorf("run job: %w", err)
	}

	if !result.Success {
		fmt.Printf("❌ Job failed after %d attempt(s): %s\n", result.Attempts, result.Error)
		return fmt.Errorf("job %s failed", jobName)
	}
	fmt.Printf("✅ Job completed in %s\n", result.Duration)
	printOutcome("   ", result.Outcome)
	return nil
}

func printJobStats(sched *scheduler.Scheduler) {
	stats := sched.GetJobStats()

	fmt.Println("\nJob Statistics:")
	for _, jobName := range sched.GetAllJobs() {
		stat := stats[jobName]
		fmt.Printf("📊 %s\n", jobName)
		fmt.Printf("   Schedule: %s\n", stat.Schedule)
		fmt.Printf("   Total Runs: %d\n", stat.TotalRuns)
		fmt.Printf("   Success: %d (%.1f%%)\n", stat.SuccessCount, stat.SuccessRate*100)
		fmt.Printf("   Failures: %d\n", stat.FailureCount)
		if stat.LastRun != nil {
			fmt.Printf("   Last Run: %s\n", stat.LastRun.Format("2006-01-02 15:04:05"))
		}
		if stat.LastOutcome != nil {
			printOutcome("   Last ", *stat.LastOutcome)
		}
	}
}

func printOutcome(prefix string, out scheduler.Outcome) {
	if out.Scope != "" {
		fmt.Printf("%sReport: scope=%s trades=%d id=%d\n", prefix, out.Scope, out.Trades, out.ReportID)
	}
	if out.Pruned > 0 {
		fmt.Printf("%sPruned: %d report(s)\n", prefix, out.Pruned)
	}
}

// initScheduler wires stores, the engine and the jobs for the configured source
func initScheduler(ctx context.Context, a *app) (*scheduler.Scheduler, error) {
	store, err := a.tradeStore()
	if err != nil {
		return nil, err
	}

	engine := analytics.NewEngine(
		analytics.WithLogger(a.log),
		analytics.WithWorkers(a.cfg.Report.Workers),
	)

	var saver jobs.ReportSaver
	var repo *reportstore.Repository
	if a.db != nil {
		repo = reportstore.NewRepository(a.db)
		saver = repo
	}

	var publisher jobs.ReportPublisher
	if a.cfg.Redis.Enabled {
		client, err := redis.New(ctx, a.cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.redis = client
		publisher = jobs.NewRedisPublisher(client, a.cfg.Report.CacheTTL)
	}

	sched := scheduler.New(a.log)

	newReportJob := func() *jobs.ReportJob {
		return jobs.NewReportJob(store, engine, saver, publisher, a.cfg.Report.Schedule, a.log)
	}
	if err := sched.AddJob(newReportJob()); err != nil {
		return nil, err
	}

	if schedulePerSetup {
		pg, ok := store.(*postgres.Store)
		if !ok {
			return nil, fmt.Errorf("--per-setup needs TRADE_SOURCE=postgres")
		}
		setups, err := pg.ListSetups(ctx)
		if err != nil {
			return nil, fmt.Errorf("list setups: %w", err)
		}
		for _, setup := range setups {
			if err := sched.AddJob(newReportJob().ForSetup(setup)); err != nil {
				return nil, err
			}
		}
	}

	if repo != nil {
		retention := jobs.NewRetentionJob(repo, a.cfg.Report.Retention, a.cfg.Report.RetentionSchedule, a.log)
		if err := sched.AddJob(retention); err != nil {
			return nil, err
		}
	}

	return sched, nil
}
