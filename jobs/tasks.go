package jobs

import (
	"time"

	json "github.com/goccy/go-json"
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskPurgeExpiredTokens removes expired rows from the auth token audit table.
	TaskPurgeExpiredTokens = "auth:purge_expired_tokens"
)

// PurgeTokensPayload describes one purge run.
type PurgeTokensPayload struct {
	RequestedBy string    `json:"requested_by,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}

// NewPurgeTokensTask constructs an Asynq task for the token purge.
func NewPurgeTokensTask(payload PurgeTokensPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPurgeExpiredTokens, data, asynq.MaxRetry(3), asynq.Timeout(2*time.Minute)), nil
}
