package notify

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// TypeConfirmationEmail is the asynq task type for account confirmation mail.
const TypeConfirmationEmail = "email:confirmation"

// QueueEmails is the asynq queue transactional email tasks are routed to.
const QueueEmails = "emails"

// ConfirmationEmailPayload is the task payload for one confirmation email.
type ConfirmationEmailPayload struct {
	To         string `json:"to"`
	Name       string `json:"name"`
	ConfirmURL string `json:"confirm_url"`
}

// NewConfirmationEmailTask builds the asynq task for the payload.
func NewConfirmationEmailTask(payload ConfirmationEmailPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal confirmation payload: %w", err)
	}
	return asynq.NewTask(TypeConfirmationEmail, body, asynq.Queue(QueueEmails), asynq.MaxRetry(5)), nil
}
