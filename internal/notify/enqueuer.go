package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// Enqueuer pushes email tasks onto the asynq queue from the API process.
type Enqueuer struct {
	Client *asynq.Client
	Log    zerolog.Logger
}

// EnqueueConfirmationEmail schedules delivery of one confirmation email.
func (e *Enqueuer) EnqueueConfirmationEmail(ctx context.Context, payload ConfirmationEmailPayload) error {
	if e == nil || e.Client == nil {
		return errors.New("notify: task client not configured")
	}
	task, err := NewConfirmationEmailTask(payload)
	if err != nil {
		return err
	}
	info, err := e.Client.EnqueueContext(ctx, task)
	if err != nil {
		return fmt.Errorf("enqueue confirmation email: %w", err)
	}
	e.Log.Debug().Str("task_id", info.ID).Str("queue", info.Queue).Msg("confirmation email enqueued")
	return nil
}
