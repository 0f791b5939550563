package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/tradelens/backend/internal/analytics"
	"github.com/wonny/tradelens/backend/internal/contracts"
	"github.com/wonny/tradelens/backend/internal/reportstore"
)

// reportCmd computes a performance report on demand
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "성과 리포트 계산",
	Long: `거래 기록으로 성과 리포트를 계산해 출력합니다.

출력 항목:
- 요약 (승률, 손익비, 평균 R, 변동성)
- 드로다운 (최대 낙폭, 발생 시점)
- 연승/연패
- 셋업별 기여도
- 월별, 요일/시간대별, R 분포, 직전 결과별 성과

Example:
  go run ./cmd/tradelens report
  go run ./cmd/tradelens report --from 2024-01-01 --to 2024-03-31 --setup breakout
  go run ./cmd/tradelens report --file trades.csv --output json
  go run ./cmd/tradelens report --save`,
	RunE: runReport,
}

var (
	reportFrom   string
	reportTo     string
	reportSetup  string
	reportOutput string
	reportSave   bool
)

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVar(&reportFrom, "from", "", "첫 청산일 (YYYY-MM-DD 또는 RFC3339, 포함)")
	reportCmd.Flags().StringVar(&reportTo, "to", "", "마지막 청산일 (YYYY-MM-DD 또는 RFC3339, 포함)")
	reportCmd.Flags().StringVar(&reportSetup, "setup", "", "셋업 이름 (Uncategorized = 셋업 없음)")
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "text", "출력 형식 (text|json)")
	reportCmd.Flags().BoolVar(&reportSave, "save", false, "리포트를 DB에 저장")
}

func runReport(cmd *cobra.Command, args []string) error {
	if reportOutput != "text" && reportOutput != "json" {
		return fmt.Errorf("--output must be text or json")
	}

	filter, err := buildFilter(reportFrom, reportTo, reportSetup)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	store, err := a.tradeStore()
	if err != nil {
		return err
	}

	trades, err := store.List(ctx, storeQuery(filter))
	if err != nil {
		return fmt.Errorf("list trades: %w", err)
	}

	engine := analytics.NewEngine(
		analytics.WithLogger(a.log),
		analytics.WithWorkers(a.cfg.Report.Workers),
	)
	report, err := engine.Report(trades, filter)
	if err != nil {
		return err
	}

	if reportSave {
		if a.db == nil {
			return fmt.Errorf("--save needs DATABASE_URL")
		}
		id, err := reportstore.NewRepository(a.db).SaveReport(ctx, report, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("save report: %w", err)
		}
		a.log.WithField("report_id", id).Info("Report saved")
	}

	return writeReport(cmd.OutOrStdout(), report, reportOutput)
}

func writeReport(w io.Writer, report *analytics.Report, format string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	PrintReport(w, report)
	return nil
}

// buildFilter turns command line bounds into a report filter.
// A date-only --to covers that whole day.
func buildFilter(from, to, setup string) (contracts.Filter, error) {
	var f contracts.Filter

	if from != "" || to != "" {
		var r contracts.DateRange
		if from != "" {
			t, _, err := parseBound(from)
			if err != nil {
				return f, fmt.Errorf("invalid --from: %w", err)
			}
			r.Start = t
		}
		if to != "" {
			t, dateOnly, err := parseBound(to)
			if err != nil {
				return f, fmt.Errorf("invalid --to: %w", err)
			}
			if dateOnly {
				t = t.Add(24*time.Hour - time.Nanosecond)
			}
			r.End = t
		}
		if !r.Start.IsZero() && !r.End.IsZero() && r.End.Before(r.Start) {
			return f, fmt.Errorf("--to is before --from")
		}
		f.DateRange = &r
	}

	if setup = strings.TrimSpace(setup); setup != "" {
		f.Setup = &setup
	}
	return f, nil
}

func parseBound(s string) (time.Time, bool, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%q is neither YYYY-MM-DD nor RFC3339", s)
	}
	return t.UTC(), false, nil
}

// storeQuery pushes the filter down to the store; the engine applies it again
func storeQuery(f contracts.Filter) contracts.TradeQuery {
	var q contracts.TradeQuery
	if f.DateRange != nil {
		q.From = f.DateRange.Start
		q.To = f.DateRange.End
	}
	if f.Setup != nil {
		q.Setup = *f.Setup
	}
	return q
}
