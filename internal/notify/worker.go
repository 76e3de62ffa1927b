package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/nmarques/backend-compras/internal/common"
	"github.com/nmarques/backend-compras/internal/obs"
)

// Worker consumes email tasks in the worker process.
type Worker struct {
	Sender    common.EmailSender
	Replay    ReplayGuard
	ReplayTTL time.Duration
	Log       zerolog.Logger
}

// Register attaches the task handlers to the asynq mux.
func (w *Worker) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeConfirmationEmail, w.HandleConfirmationEmail)
}

// HandleConfirmationEmail renders and sends one confirmation email.
func (w *Worker) HandleConfirmationEmail(ctx context.Context, task *asynq.Task) error {
	if w.Sender == nil {
		return errors.New("notify: email sender not configured")
	}
	var payload ConfirmationEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		countConfirmationEmail("invalid")
		// A payload that cannot decode never will; retries are pointless.
		return fmt.Errorf("decode confirmation payload: %w: %w", err, asynq.SkipRetry)
	}
	replayKey := ""
	if w.Replay != nil && w.ReplayTTL > 0 {
		replayKey = "notify:confirm:" + common.Sha256Hex(payload.To+"|"+payload.ConfirmURL)
		ok, err := w.Replay.Acquire(ctx, replayKey, w.ReplayTTL)
		if err != nil {
			return fmt.Errorf("acquire replay guard: %w", err)
		}
		if !ok {
			countConfirmationEmail("replay_suppressed")
			w.Log.Info().Str("to", payload.To).Msg("duplicate confirmation email suppressed")
			return nil
		}
	}
	if err := w.Sender.Send(payload.To, "Confirm your email address", confirmationBody(payload)); err != nil {
		countConfirmationEmail("failed")
		if replayKey != "" {
			if relErr := w.Replay.Release(ctx, replayKey); relErr != nil {
				w.Log.Error().Err(relErr).Msg("release replay guard")
			}
		}
		return fmt.Errorf("send confirmation email: %w", err)
	}
	countConfirmationEmail("sent")
	w.Log.Info().Str("to", payload.To).Msg("confirmation email sent")
	return nil
}

func confirmationBody(payload ConfirmationEmailPayload) string {
	greeting := "Hello"
	if payload.Name != "" {
		greeting = "Hello " + html.EscapeString(payload.Name)
	}
	url := html.EscapeString(payload.ConfirmURL)
	return fmt.Sprintf(
		"<p>%s,</p><p>Please confirm your email address by clicking the link below. The link is valid for 3 days.</p><p><a href=%q>Confirm email</a></p>",
		greeting, url,
	)
}

func countConfirmationEmail(result string) {
	if obs.ConfirmationEmailsTotal != nil {
		obs.ConfirmationEmailsTotal.WithLabelValues(result).Inc()
	}
}
