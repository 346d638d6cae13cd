package server

import (
	"context"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/fisopt/fisopt/internal/optimization"
)

// Job statuses.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// JobState tracks one optimization run. Mutation is guarded by the
// server's jobs mutex.
type JobState struct {
	ID        string
	Method    string
	Status    string
	StartTime time.Time
	EndTime   *time.Time

	Result *optimization.Result
	Error  string

	cancel context.CancelFunc
}

var jobCounter atomic.Int64

// newJobID returns a process-unique job id.
func newJobID() string {
	n := jobCounter.Add(1)
	return time.Now().UTC().Format("20060102T150405") + "-" + strconv.FormatInt(n, 10)
}
