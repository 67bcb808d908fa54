package bot

import (
	"context"
	"time"

	"finbot/internal/log"
)

// pendingSkipper is implemented by transports that can discard the updates
// queued while the process was down.
type pendingSkipper interface {
	SkipPending(ctx context.Context) (int, error)
}

type RunnerConfig struct {
	// IdleBackoff is the pause after a poll that returned nothing or failed.
	IdleBackoff time.Duration
	// SkipPending drops the backlog on start.
	SkipPending bool
}

// Runner polls the transport and hands each message to the bot, one at a
// time. It owns the update cursor.
type Runner struct {
	bot         *Bot
	transport   Transport
	cursor      int
	idle        time.Duration
	skipPending bool
	sleep       func(ctx context.Context, d time.Duration)
	logger      *log.Logger
}

func NewRunner(bot *Bot, transport Transport, cfg RunnerConfig) *Runner {
	return &Runner{
		bot:         bot,
		transport:   transport,
		idle:        cfg.IdleBackoff,
		skipPending: cfg.SkipPending,
		sleep:       sleepContext,
		logger:      log.FromContext(context.Background()).WithComponent(log.ComponentBot),
	}
}

// Cursor returns the offset of the next update to poll.
func (r *Runner) Cursor() int { return r.cursor }

// Step polls once. It reports whether a message was handled. The cursor only
// moves when the poll succeeded.
func (r *Runner) Step(ctx context.Context) (bool, error) {
	msg, next, err := r.transport.Receive(ctx, r.cursor)
	if err != nil {
		return false, err
	}
	r.cursor = next
	if msg == nil {
		return false, nil
	}
	r.bot.Handle(ctx, msg)
	return true, nil
}

// Run polls until ctx is cancelled. Poll errors and empty polls are retried
// after the idle backoff; they never stop the loop.
func (r *Runner) Run(ctx context.Context) error {
	if r.skipPending {
		if s, ok := r.transport.(pendingSkipper); ok {
			cursor, err := s.SkipPending(ctx)
			if err != nil {
				r.logger.WarnContext(ctx, "Failed to skip pending updates", log.FieldError, err)
			} else {
				r.cursor = cursor
				r.logger.InfoContext(ctx, "Skipped pending updates", log.FieldCursor, cursor)
			}
		}
	}

	r.logger.InfoContext(ctx, "Polling for messages", log.FieldCursor, r.cursor)
	for {
		if ctx.Err() != nil {
			r.logger.InfoContext(ctx, "Runner stopped", log.FieldCursor, r.cursor)
			return nil
		}
		before := r.cursor
		handled, err := r.Step(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			r.logger.ErrorContext(ctx, "Failed to receive message",
				log.FieldError, err,
				log.FieldCursor, r.cursor)
		}
		// An ignored update still moved the cursor; poll again right away.
		if !handled && r.cursor == before {
			r.sleep(ctx, r.idle)
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
