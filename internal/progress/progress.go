// Package progress drives the simulated processing loop.
package progress

import (
	"context"
	"fmt"
	"time"
)

// Final is the last percent emitted. Every run emits 0 through Final.
const Final = 100

// DefaultDelay spaces the updates as the original demo did.
const DefaultDelay = 30 * time.Millisecond

// CompleteText replaces the status line after the final update.
const CompleteText = "Processing complete!"

// Update is one step of the loop.
type Update struct {
	Percent int    `json:"percent"`
	Text    string `json:"text"`
}

// StatusText formats the status line for percent.
func StatusText(percent int) string {
	return fmt.Sprintf("Processing... %d%%", percent)
}

// Loop emits 101 updates, percent 0 through 100, each preceded by Delay.
type Loop struct {
	Delay time.Duration
}

// New returns a loop with the given delay. A negative delay falls back to
// DefaultDelay.
func New(delay time.Duration) *Loop {
	if delay < 0 {
		delay = DefaultDelay
	}
	return &Loop{Delay: delay}
}

// Run calls emit for each update in increasing order. It stops with the
// context's error on cancellation and with emit's error if emit fails.
func (l *Loop) Run(ctx context.Context, emit func(Update) error) error {
	timer := time.NewTimer(l.Delay)
	defer timer.Stop()

	for pct := 0; pct <= Final; pct++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if pct > 0 {
			timer.Reset(l.Delay)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}

		if err := emit(Update{Percent: pct, Text: StatusText(pct)}); err != nil {
			return err
		}
	}
	return nil
}
