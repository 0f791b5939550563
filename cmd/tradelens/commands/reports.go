package commands

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/tradelens/backend/internal/reportstore"
)

// reportsCmd browses reports saved by `report --save` and the scheduler
var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "저장된 리포트 조회",
	Long: `DB에 저장된 성과 리포트를 조회합니다.

Subcommands:
  list  - 기간 내 리포트 목록
  show  - 리포트 상세 (id 또는 latest)

Example:
  go run ./cmd/tradelens reports list --days 30
  go run ./cmd/tradelens reports show latest
  go run ./cmd/tradelens reports show 42 --output json`,
}

var (
	reportsListCmd = &cobra.Command{
		Use:   "list",
		Short: "리포트 목록",
		RunE:  runReportsList,
	}

	reportsShowCmd = &cobra.Command{
		Use:   "show [id|latest]",
		Short: "리포트 상세",
		Args:  cobra.ExactArgs(1),
		RunE:  runReportsShow,
	}
)

var (
	reportsDays   int
	reportsOutput string
)

func init() {
	rootCmd.AddCommand(reportsCmd)
	reportsCmd.AddCommand(reportsListCmd)
	reportsCmd.AddCommand(reportsShowCmd)

	reportsListCmd.Flags().IntVar(&reportsDays, "days", 30, "최근 N일")
	reportsShowCmd.Flags().StringVarP(&reportsOutput, "output", "o", "text", "출력 형식 (text|json)")
}

func openRepository(ctx context.Context) (*app, *reportstore.Repository, error) {
	a, err := loadApp(ctx)
	if err != nil {
		return nil, nil, err
	}
	if a.db == nil {
		a.Close()
		return nil, nil, fmt.Errorf("stored reports need DATABASE_URL")
	}
	return a, reportstore.NewRepository(a.db), nil
}

func runReportsList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, repo, err := openRepository(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	to := time.Now().UTC()
	from := to.AddDate(0, 0, -reportsDays)

	headers, err := repo.ListReports(ctx, from, to)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if len(headers) == 0 {
		fmt.Fprintf(w, "No reports in the last %d days\n", reportsDays)
		return nil
	}

	widths := []int{6, 17, 7, 12, 12, 7, 8}
	printTableHeader(w, []string{"ID", "Generated", "Trades", "P&L", "Net", "Win%", "PF"}, widths)
	for _, h := range headers {
		printTableRow(w, []string{
			strconv.FormatInt(h.ID, 10),
			h.GeneratedAt.Format("2006-01-02 15:04"),
			strconv.Itoa(h.TotalTrades),
			money(h.TotalPnL),
			money(h.NetPnL),
			fmt.Sprintf("%.1f", h.WinRate),
			nullable(h.ProfitFactor, 2),
		}, widths)
	}
	return nil
}

func runReportsShow(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, repo, err := openRepository(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	var stored *reportstore.StoredReport
	if args[0] == "latest" {
		stored, err = repo.GetLatestReport(ctx)
	} else {
		id, perr := strconv.ParseInt(args[0], 10, 64)
		if perr != nil {
			return fmt.Errorf("report id must be a number or \"latest\"")
		}
		stored, err = repo.GetReport(ctx, id)
	}
	if err != nil {
		return fmt.Errorf("load report %s: %w", args[0], err)
	}

	w := cmd.OutOrStdout()
	if reportsOutput != "json" {
		fmt.Fprintf(w, "Report #%d generated %s\n", stored.ID, stored.GeneratedAt.Format(time.RFC3339))
	}
	return writeReport(w, &stored.Report, reportsOutput)
}
