package booking

import (
	"context"
	"fmt"
	"time"
)

// DeparturePassedLabel is shown once the departure time is reached.
const DeparturePassedLabel = "Departure Passed"

// FormatCountdown renders remaining as "DDd HHh MMm SSs", rounding down to the
// second. Zero or negative durations render DeparturePassedLabel.
func FormatCountdown(remaining time.Duration) string {
	if remaining <= 0 {
		return DeparturePassedLabel
	}
	secs := int64(remaining / time.Second)
	days := secs / 86400
	hours := secs % 86400 / 3600
	minutes := secs % 3600 / 60
	seconds := secs % 60
	return fmt.Sprintf("%02dd %02dh %02dm %02ds", days, hours, minutes, seconds)
}

// Countdown emits the time left until Departure.
type Countdown struct {
	Departure time.Time
}

func (c Countdown) At(now time.Time) string {
	return FormatCountdown(c.Departure.Sub(now))
}

// Run emits the label for now, then one label per tick until the departure
// is reached. The passed label is emitted once and Run returns nil. It
// returns the context error when ctx ends first, or the first emit error.
func (c Countdown) Run(ctx context.Context, now time.Time, ticks <-chan time.Time, emit func(string) error) error {
	label := c.At(now)
	if err := emit(label); err != nil {
		return err
	}
	if label == DeparturePassedLabel {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case t := <-ticks:
			label = c.At(t)
			if err := emit(label); err != nil {
				return err
			}
			if label == DeparturePassedLabel {
				return nil
			}
		}
	}
}

// Start runs the countdown on a one-second ticker that is stopped when Run
// returns.
func (c Countdown) Start(ctx context.Context, emit func(string) error) error {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	return c.Run(ctx, time.Now(), ticker.C, emit)
}
