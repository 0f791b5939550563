package analytics

import (
	"math"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// PerformanceSummary aggregates a set of derived trades.
// Undefined ratios are carried as invalid NullDecimal values, never as 0 or Inf.
type PerformanceSummary struct {
	// 거래 수
	TotalTrades     int     `json:"total_trades"`
	WinningTrades   int     `json:"winning_trades"`
	LosingTrades    int     `json:"losing_trades"`
	BreakevenTrades int     `json:"breakeven_trades"`
	WinRate         float64 `json:"win_rate"` // percent, 0-100

	// 손익
	TotalPnL    decimal.Decimal `json:"total_pnl"`
	TotalFees   decimal.Decimal `json:"total_fees"`
	NetPnL      decimal.Decimal `json:"net_pnl"`
	GrossProfit decimal.Decimal `json:"gross_profit"`
	GrossLoss   decimal.Decimal `json:"gross_loss"` // magnitude, >= 0
	AvgWin      decimal.Decimal `json:"avg_win"`
	AvgLoss     decimal.Decimal `json:"avg_loss"` // <= 0
	AvgTrade    decimal.Decimal `json:"avg_trade"`
	LargestWin  decimal.Decimal `json:"largest_win"`
	LargestLoss decimal.Decimal `json:"largest_loss"` // <= 0

	ProfitFactor decimal.NullDecimal `json:"profit_factor"`

	// R-multiple
	AvgRMultiple   decimal.NullDecimal `json:"avg_r_multiple"`
	TotalR         decimal.Decimal     `json:"total_r"`
	RDefinedTrades int                 `json:"r_defined_trades"`

	// 변동성
	PnLStdDev       float64 `json:"pnl_std_dev"` // population
	VolatilityRatio float64 `json:"volatility_ratio"`
}

// summaryAccumulator holds only sums, counts and extrema, so adding trades
// in any order yields the same state.
type summaryAccumulator struct {
	n, wins, losses, breakeven int
	rDefined                   int

	sum, sumSq, fees   decimal.Decimal
	profit, loss       decimal.Decimal // loss is a negative sum
	largestWin, lowest decimal.Decimal
	totalR             decimal.Decimal
}

func (a *summaryAccumulator) add(d DerivedTrade) {
	a.n++
	a.sum = a.sum.Add(d.PnL)
	a.sumSq = a.sumSq.Add(d.PnL.Mul(d.PnL))
	a.fees = a.fees.Add(d.Fees)

	switch d.Outcome() {
	case OutcomeWin:
		a.wins++
		a.profit = a.profit.Add(d.PnL)
		if d.PnL.GreaterThan(a.largestWin) {
			a.largestWin = d.PnL
		}
	case OutcomeLoss:
		a.losses++
		a.loss = a.loss.Add(d.PnL)
		if d.PnL.LessThan(a.lowest) {
			a.lowest = d.PnL
		}
	default:
		a.breakeven++
	}

	if d.RMultiple.Valid {
		a.rDefined++
		a.totalR = a.totalR.Add(d.RMultiple.Decimal)
	}
}

func (a *summaryAccumulator) result() PerformanceSummary {
	s := PerformanceSummary{
		TotalTrades:     a.n,
		WinningTrades:   a.wins,
		LosingTrades:    a.losses,
		BreakevenTrades: a.breakeven,
		TotalPnL:        a.sum,
		TotalFees:       a.fees,
		NetPnL:          a.sum.Sub(a.fees),
		GrossProfit:     a.profit,
		GrossLoss:       a.loss.Abs(),
		LargestWin:      a.largestWin,
		LargestLoss:     a.lowest,
		TotalR:          a.totalR,
		RDefinedTrades:  a.rDefined,
	}

	if a.n == 0 {
		return s
	}

	n := decimal.NewFromInt(int64(a.n))
	s.WinRate = float64(a.wins) / float64(a.n) * 100
	s.AvgTrade = a.sum.Div(n)

	if a.wins > 0 {
		s.AvgWin = a.profit.Div(decimal.NewFromInt(int64(a.wins)))
	}
	if a.losses > 0 {
		s.AvgLoss = a.loss.Div(decimal.NewFromInt(int64(a.losses)))
	}
	if !a.loss.IsZero() {
		s.ProfitFactor = decimal.NewNullDecimal(a.profit.Div(a.loss.Abs()))
	}
	if a.rDefined > 0 {
		s.AvgRMultiple = decimal.NewNullDecimal(a.totalR.Div(decimal.NewFromInt(int64(a.rDefined))))
	}

	s.PnLStdDev, s.VolatilityRatio = a.volatility(n)
	return s
}

// volatility returns the population standard deviation of P&L and mean/stddev.
// Variance is formed exactly as (n*Σx² - (Σx)²) / n² before the final square root.
func (a *summaryAccumulator) volatility(n decimal.Decimal) (float64, float64) {
	if a.n < 2 {
		return 0, 0
	}

	spread := n.Mul(a.sumSq).Sub(a.sum.Mul(a.sum))
	if !spread.IsPositive() {
		return 0, 0
	}

	variance := spread.Div(n.Mul(n)).InexactFloat64()
	std := math.Sqrt(variance)
	if std == 0 {
		return 0, 0
	}

	mean := a.sum.Div(n).InexactFloat64()
	return std, mean / std
}

// Summarize aggregates an unordered collection of derived trades.
// The result does not depend on input order. An empty input yields zero
// counts and amounts with ProfitFactor and AvgRMultiple undefined.
// ⭐ SSOT: 성과 요약 공식은 여기서만 (전체/셋업별 공통)
func Summarize(trades []DerivedTrade) PerformanceSummary {
	var acc summaryAccumulator
	for _, d := range trades {
		acc.add(d)
	}
	return acc.result()
}
