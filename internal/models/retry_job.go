package models

import "time"

// RetryJob is the unit of work handed to the retry queue. The core only
// computes RunAt and the payload; a separate worker consumes the queue.
type RetryJob struct {
	ID      string    `json:"id"`
	RunAt   time.Time `json:"run_at"`
	Payload JSON      `json:"payload"`
}
