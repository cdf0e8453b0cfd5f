package worker

import (
	"time"

	"studio_server/core/domain"
	"studio_server/core/port/out"
)

// JobType represents the type of a job.
type JobType = string

// Job types
const (
	JobImageGeneration JobType = "generation.image"
	JobVideoGeneration JobType = "generation.video"
)

// Message wraps a generation job for the worker pool.
type Message struct {
	ID        string             `json:"id"`
	Type      JobType            `json:"type"`
	Job       *out.GenerationJob `json:"job"`
	CreatedAt time.Time          `json:"created_at"`
}

// NewMessage wraps a dequeued generation job. The job type follows the
// request kind.
func NewMessage(job *out.GenerationJob) *Message {
	jobType := JobImageGeneration
	if job.Request != nil && job.Request.Kind == domain.GenerationKindVideo {
		jobType = JobVideoGeneration
	}
	return &Message{
		ID:        job.ItemID,
		Type:      jobType,
		Job:       job,
		CreatedAt: time.Now(),
	}
}

// IsPriority checks if the message should go to the priority pool.
func (m *Message) IsPriority() bool {
	return m.Job != nil && m.Job.Priority >= domain.PriorityHigh
}
