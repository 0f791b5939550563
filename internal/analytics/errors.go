package analytics

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidTrade matches any *InvalidTradeError via errors.Is.
	ErrInvalidTrade = errors.New("invalid trade")

	// ErrUnorderedInput matches any *UnorderedInputError via errors.Is.
	ErrUnorderedInput = errors.New("unordered input")
)

// InvalidTradeError reports a trade that violates a numeric invariant.
// The engine never skips such a trade; the caller decides what to do with it.
type InvalidTradeError struct {
	TradeID string
	Field   string
	Value   string
	Reason  string
}

func (e *InvalidTradeError) Error() string {
	return fmt.Sprintf("invalid trade %q: %s=%s: %s", e.TradeID, e.Field, e.Value, e.Reason)
}

// Is lets errors.Is(err, ErrInvalidTrade) match
func (e *InvalidTradeError) Is(target error) bool {
	return target == ErrInvalidTrade
}

// UnorderedInputError reports a sequence that is not ascending by close time
type UnorderedInputError struct {
	Index    int // position of the first out-of-order trade
	Previous time.Time
	Current  time.Time
}

func (e *UnorderedInputError) Error() string {
	return fmt.Sprintf("trades not ordered by close time at index %d: %s before %s",
		e.Index, e.Current.Format(time.RFC3339), e.Previous.Format(time.RFC3339))
}

// Is lets errors.Is(err, ErrUnorderedInput) match
func (e *UnorderedInputError) Is(target error) bool {
	return target == ErrUnorderedInput
}
