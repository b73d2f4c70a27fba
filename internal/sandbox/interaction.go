package sandbox

import (
	"context"
	"fmt"
	"time"
)

// Interaction replays a short human-looking input sequence so pages that
// arm payloads on pointer activity reveal them.
type Interaction struct {
	Pause  time.Duration
	Settle time.Duration
}

// Perform moves to (100,100) then (300,300), scrolls 400px down, pauses,
// and clicks at (300,250).
func (in Interaction) Perform(ctx context.Context, mouse Mouse) error {
	steps := []struct {
		name string
		run  func() error
	}{
		{"move", func() error { return mouse.Move(ctx, 100, 100) }},
		{"move", func() error { return mouse.Move(ctx, 300, 300) }},
		{"wheel", func() error { return mouse.Wheel(ctx, 0, 400) }},
		{"pause", func() error { return sleepCtx(ctx, in.Pause) }},
		{"click", func() error { return mouse.Click(ctx, 300, 250) }},
	}

	for _, step := range steps {
		if err := step.run(); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInteraction, step.name, err)
		}
	}
	return nil
}

// SettleDown gives asynchronous scripts time to run. It ignores
// cancellation so every loaded page is sampled after the same delay.
func (in Interaction) SettleDown() {
	if in.Settle > 0 {
		time.Sleep(in.Settle)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
