package jobs

import "github.com/hibiken/asynq"

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskSessionSweep is the task type for the session record sweep.
	TaskSessionSweep = "session:sweep"
)

// NewSessionSweepTask constructs an Asynq task. The sweep carries no payload;
// it always scans the full record keyspace.
func NewSessionSweepTask() *asynq.Task {
	return asynq.NewTask(TaskSessionSweep, nil)
}
