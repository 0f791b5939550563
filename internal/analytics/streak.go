package analytics

import (
	"time"

	"github.com/shopspring/decimal"
)

// Streak is a maximal run of consecutive trades with the same outcome
type Streak struct {
	Kind       string          `json:"kind"` // win, loss, breakeven
	Length     int             `json:"length"`
	PnL        decimal.Decimal `json:"pnl"`
	StartIndex int             `json:"start_index"` // -1 for an empty streak
	StartTime  time.Time       `json:"start_time"`
	EndTime    time.Time       `json:"end_time"`
}

// StreakResult holds the longest win/loss runs plus every run in order
type StreakResult struct {
	LongestWin  Streak   `json:"longest_win_streak"`
	LongestLoss Streak   `json:"longest_loss_streak"`
	Current     Streak   `json:"current_streak"`
	Runs        []Streak `json:"runs"`
}

func emptyStreak(o Outcome) Streak {
	return Streak{Kind: o.String(), StartIndex: -1}
}

// AnalyzeStreaks splits a close-time ordered sequence into runs.
// Breakeven trades form runs of their own, so a breakeven ends a win streak
// and a loss streak alike. Ties for the longest run keep the earliest one.
func AnalyzeStreaks(trades []DerivedTrade) (*StreakResult, error) {
	if err := checkOrdered(trades); err != nil {
		return nil, err
	}

	res := &StreakResult{
		LongestWin:  emptyStreak(OutcomeWin),
		LongestLoss: emptyStreak(OutcomeLoss),
		Current:     Streak{StartIndex: -1},
		Runs:        make([]Streak, 0),
	}

	var run Streak
	var runOutcome Outcome
	flush := func() {
		if run.Length == 0 {
			return
		}
		res.Runs = append(res.Runs, run)
		switch runOutcome {
		case OutcomeWin:
			if run.Length > res.LongestWin.Length {
				res.LongestWin = run
			}
		case OutcomeLoss:
			if run.Length > res.LongestLoss.Length {
				res.LongestLoss = run
			}
		}
	}

	for i, d := range trades {
		o := d.Outcome()
		if run.Length == 0 || o != runOutcome {
			flush()
			run = Streak{Kind: o.String(), StartIndex: i, StartTime: d.ClosedAt()}
			runOutcome = o
		}
		run.Length++
		run.PnL = run.PnL.Add(d.PnL)
		run.EndTime = d.ClosedAt()
	}
	flush()

	if run.Length > 0 {
		res.Current = run
	}
	return res, nil
}
