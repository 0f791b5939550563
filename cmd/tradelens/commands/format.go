package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/wonny/tradelens/backend/internal/analytics"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

const (
	doubleRule = "═══════════════════════════════════════════════════════════"
	singleRule = "───────────────────────────────────────────────────────────"
)

// PrintReport writes the human readable report
func PrintReport(w io.Writer, r *analytics.Report) {
	s := r.Summary

	fmt.Fprintln(w)
	fmt.Fprintln(w, doubleRule)
	fmt.Fprintf(w, "  Performance Report (%s)\n", describeFilter(r))
	fmt.Fprintln(w, singleRule)

	if s.TotalTrades == 0 {
		fmt.Fprintln(w, "  No trades match the filter")
		fmt.Fprintln(w, doubleRule)
		return
	}

	fmt.Fprintf(w, "  Period    : %s ~ %s (%d days, %.2f trades/day)\n",
		r.Period.FirstTrade.Format("2006-01-02"), r.Period.LastExit.Format("2006-01-02"),
		r.Period.TotalDays, r.Period.TradesPerDay)
	fmt.Fprintln(w, singleRule)

	printKeyValue(w, "Trades", fmt.Sprintf("%d (W %d / L %d / BE %d)",
		s.TotalTrades, s.WinningTrades, s.LosingTrades, s.BreakevenTrades), 14)
	printKeyValue(w, "Win Rate", fmt.Sprintf("%.2f%%", s.WinRate), 14)
	printKeyValue(w, "Total P&L", money(s.TotalPnL), 14)
	printKeyValue(w, "Fees", money(s.TotalFees), 14)
	printKeyValue(w, "Net P&L", money(s.NetPnL), 14)
	printKeyValue(w, "Profit Factor", nullable(s.ProfitFactor, 2), 14)
	printKeyValue(w, "Avg Win", money(s.AvgWin), 14)
	printKeyValue(w, "Avg Loss", money(s.AvgLoss), 14)
	printKeyValue(w, "Largest Win", money(s.LargestWin), 14)
	printKeyValue(w, "Largest Loss", money(s.LargestLoss), 14)
	printKeyValue(w, "Avg R", nullable(s.AvgRMultiple, 2)+"R", 14)
	printKeyValue(w, "P&L Std Dev", fmt.Sprintf("%.2f", s.PnLStdDev), 14)

	fmt.Fprintln(w, singleRule)
	printKeyValue(w, "Max Drawdown", fmt.Sprintf("%s (%s%%)",
		money(r.Drawdown.MaxDrawdownAbs), r.Drawdown.MaxDrawdownPct.StringFixed(2)), 14)
	if i := r.Drawdown.TroughIndex; i >= 0 && i < len(r.Drawdown.Points) {
		p := r.Drawdown.Points[i]
		printKeyValue(w, "Trough", fmt.Sprintf("#%d %s at %s", i, p.TradeID, p.Timestamp.Format("2006-01-02 15:04")), 14)
	}
	printKeyValue(w, "Win Streak", describeStreak(r.Streaks.LongestWin), 14)
	printKeyValue(w, "Loss Streak", describeStreak(r.Streaks.LongestLoss), 14)
	printKeyValue(w, "Current", describeStreak(r.Streaks.Current), 14)

	if len(r.Attribution) > 0 {
		fmt.Fprintln(w, singleRule)
		fmt.Fprintln(w, "  Setup Attribution")
		widths := []int{4, 18, 7, 9, 12, 8, 8, 10}
		printTableHeader(w, []string{"#", "Setup", "Trades", "Win%", "P&L", "PF", "Avg R", "Share%"}, widths)
		for _, a := range r.Attribution {
			printTableRow(w, []string{
				fmt.Sprintf("%d", a.Rank),
				truncate(a.Setup, 18),
				fmt.Sprintf("%d", a.Summary.TotalTrades),
				fmt.Sprintf("%.1f", a.Summary.WinRate),
				money(a.Summary.TotalPnL),
				nullable(a.Summary.ProfitFactor, 2),
				nullable(a.Summary.AvgRMultiple, 2),
				nullable(a.PnLShare, 1),
			}, widths)
		}
	}

	if len(r.Monthly) > 0 {
		fmt.Fprintln(w, singleRule)
		fmt.Fprintln(w, "  Monthly")
		widths := []int{8, 7, 12, 12, 7}
		printTableHeader(w, []string{"Month", "Trades", "P&L", "Net", "Win%"}, widths)
		for _, m := range r.Monthly {
			printTableRow(w, []string{
				m.Month,
				fmt.Sprintf("%d", m.Trades),
				money(m.PnL),
				money(m.NetPnL),
				fmt.Sprintf("%.1f", m.WinRate),
			}, widths)
		}
	}

	fmt.Fprintln(w, singleRule)
	if b := r.Timing.BestWeekday; b != nil {
		printKeyValue(w, "Best Weekday", fmt.Sprintf("%s (avg %s, %d trades)", b.Label, money(b.AvgPnL), b.Trades), 14)
	}
	if b := r.Timing.BestHour; b != nil {
		printKeyValue(w, "Best Hour", fmt.Sprintf("%s (avg %s, %d trades)", b.Label, money(b.AvgPnL), b.Trades), 14)
	}
	if st := r.RDistribution.Stats; st != nil {
		printKeyValue(w, "R Median", fmt.Sprintf("%.2fR (p10 %.2fR, p90 %.2fR)", st.Median, st.P10, st.P90), 14)
	}
	printKeyValue(w, "After Win", describeFollowUp(r.Sequence.AfterWin), 14)
	printKeyValue(w, "After Loss", describeFollowUp(r.Sequence.AfterLoss), 14)

	fmt.Fprintln(w, doubleRule)
}

func describeFilter(r *analytics.Report) string {
	parts := make([]string, 0, 2)
	if dr := r.Filter.DateRange; dr != nil {
		from, to := "…", "…"
		if !dr.Start.IsZero() {
			from = dr.Start.Format("2006-01-02")
		}
		if !dr.End.IsZero() {
			to = dr.End.Format("2006-01-02")
		}
		parts = append(parts, from+" ~ "+to)
	}
	if r.Filter.Setup != nil {
		parts = append(parts, "setup="+*r.Filter.Setup)
	}
	if len(parts) == 0 {
		return "all trades"
	}
	return strings.Join(parts, ", ")
}

func describeStreak(s analytics.Streak) string {
	if s.Length == 0 {
		return "-"
	}
	return fmt.Sprintf("%d %s (%s, from %s)", s.Length, s.Kind, money(s.PnL), s.StartTime.Format("2006-01-02"))
}

func describeFollowUp(f analytics.FollowUp) string {
	if f.Trades == 0 {
		return "-"
	}
	return fmt.Sprintf("%d trades, avg %s, win %.1f%%", f.Trades, nullable(f.AvgPnL, 2), f.WinRate)
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// nullable renders an undefined value as "n/a"
func nullable(d decimal.NullDecimal, places int32) string {
	if !d.Valid {
		return "n/a"
	}
	return d.Decimal.StringFixed(places)
}

func truncate(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-1]) + "…"
}

// printTableHeader prints a table header
func printTableHeader(w io.Writer, columns []string, widths []int) {
	printTableRow(w, columns, widths)

	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	fmt.Fprintf(w, "  %s\n", strings.Repeat("─", totalWidth))
}

// printTableRow prints a table row
func printTableRow(w io.Writer, values []string, widths []int) {
	fmt.Fprint(w, "  ")
	for i, val := range values {
		fmt.Fprintf(w, "%-*s", widths[i], val)
		if i < len(values)-1 {
			fmt.Fprint(w, "  ")
		}
	}
	fmt.Fprintln(w)
}

// printKeyValue prints key-value pairs
func printKeyValue(w io.Writer, key string, value string, keyWidth int) {
	fmt.Fprintf(w, "  %-*s : %s\n", keyWidth, key, value)
}
