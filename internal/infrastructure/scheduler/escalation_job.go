package scheduler

import (
	"context"

	"github.com/erp/procurement/internal/application/approval"
)

// EscalationJobName identifies the approval timeout job
const EscalationJobName = "approval_escalation"

// EscalationProcessor is implemented by approval.EscalationService
type EscalationProcessor interface {
	ProcessOverdue(ctx context.Context) (approval.EscalationStats, error)
}

// EscalationJob auto-approves or escalates requisitions whose approval level timed out
type EscalationJob struct {
	processor EscalationProcessor
	last      approval.EscalationStats
}

// NewEscalationJob creates the job
func NewEscalationJob(processor EscalationProcessor) *EscalationJob {
	return &EscalationJob{processor: processor}
}

// Name returns EscalationJobName
func (j *EscalationJob) Name() string { return EscalationJobName }

// Run processes one batch of overdue requisitions
func (j *EscalationJob) Run(ctx context.Context) error {
	stats, err := j.processor.ProcessOverdue(ctx)
	j.last = stats
	return err
}

// LastStats returns the stats of the most recent run. The scheduler never
// runs a job concurrently with itself, so no locking is needed.
func (j *EscalationJob) LastStats() approval.EscalationStats {
	return j.last
}
