package domain

import "time"

// PublishJob — задание на публикацию запланированного поста, дошедшего до срока.
type PublishJob struct {
	ScheduledID string    `json:"scheduled_id"`
	EnqueuedAt  time.Time `json:"enqueued_at"`
}
