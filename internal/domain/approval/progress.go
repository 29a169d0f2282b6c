package approval

import (
	"time"

	"github.com/erp/procurement/internal/domain/shared"
	"github.com/google/uuid"
)

// Record is one entry of an approval history
type Record struct {
	ApproverID uuid.UUID `json:"approver_id"`
	Action     Action    `json:"action"`
	Level      int       `json:"level"`
	Comment    string    `json:"comment,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Plan is the approval route fixed when a document is submitted.
// It snapshots the workflow's levels so later edits to the workflow
// do not affect documents already in flight.
type Plan struct {
	WorkflowID   *uuid.UUID      `json:"workflow_id,omitempty"`
	WorkflowName string          `json:"workflow_name,omitempty"`
	Mode         ApprovalMode    `json:"mode"`
	Levels       []ApprovalLevel `json:"levels,omitempty"`
	AutoApprove  bool            `json:"auto_approve,omitempty"`
}

// PlanFromWorkflow snapshots a resolved workflow
func PlanFromWorkflow(wf *ApprovalWorkflow, mode ApprovalMode) Plan {
	id := wf.ID
	levels := make([]ApprovalLevel, len(wf.Levels))
	copy(levels, wf.Levels)
	return Plan{
		WorkflowID:   &id,
		WorkflowName: wf.Name,
		Mode:         mode,
		Levels:       levels,
	}
}

// SingleLevelPlan is used when no workflow applies and one unnamed approval suffices
func SingleLevelPlan(mode ApprovalMode) Plan {
	return Plan{
		Mode:   mode,
		Levels: []ApprovalLevel{{Level: 1, Role: "approver", Required: true}},
	}
}

// AutoApprovePlan is used when no workflow applies and documents pass on submit
func AutoApprovePlan(mode ApprovalMode) Plan {
	return Plan{Mode: mode, AutoApprove: true}
}

// RequiredLevels returns how many approvals finalize the plan: the position of the
// last level flagged required, or 1 when none is flagged. Trailing optional levels
// are not waited for.
func (p Plan) RequiredLevels() int {
	if p.AutoApprove {
		return 0
	}
	required := 0
	for i, lvl := range p.Levels {
		if lvl.Required {
			required = i + 1
		}
	}
	if required == 0 {
		return 1
	}
	return required
}

// Progress tracks a document's way through its approval plan
type Progress struct {
	ApprovalPlan           Plan
	CurrentApprovalLevel   int
	RequiredApprovalLevels int
	LevelDueAt             *time.Time
	ApprovalHistory        []Record
}

// EscalationOutcome reports what an overdue level turned into
type EscalationOutcome string

const (
	EscalationAutoApproved EscalationOutcome = "auto_approved"
	EscalationEscalated    EscalationOutcome = "escalated"
)

// Start resets progress onto plan and records the submission.
// Returns true when the plan approves the document immediately.
func (p *Progress) Start(plan Plan, submitter, systemApprover uuid.UUID, now time.Time) bool {
	p.ApprovalPlan = plan
	p.CurrentApprovalLevel = 0
	p.RequiredApprovalLevels = plan.RequiredLevels()
	p.LevelDueAt = nil
	p.ApprovalHistory = append(p.ApprovalHistory, Record{
		ApproverID: submitter,
		Action:     ActionSubmitted,
		Level:      0,
		Timestamp:  now,
	})

	if plan.AutoApprove {
		p.ApprovalHistory = append(p.ApprovalHistory, Record{
			ApproverID: systemApprover,
			Action:     ActionAutoApproved,
			Level:      1,
			Comment:    "No approval workflow applies",
			Timestamp:  now,
		})
		return true
	}

	p.armDeadline(now)
	return false
}

// CurrentLevel returns the level awaiting a decision, or nil if the plan has none left
func (p *Progress) CurrentLevel() *ApprovalLevel {
	if p.CurrentApprovalLevel < 0 || p.CurrentApprovalLevel >= len(p.ApprovalPlan.Levels) {
		return nil
	}
	return &p.ApprovalPlan.Levels[p.CurrentApprovalLevel]
}

// CheckApprover returns FORBIDDEN when the current level names someone else
func (p *Progress) CheckApprover(approver uuid.UUID) error {
	if approver == uuid.Nil {
		return shared.NewDomainError(shared.CodeValidation, "Approver ID cannot be empty")
	}
	lvl := p.CurrentLevel()
	if lvl != nil && lvl.ApproverID != nil && *lvl.ApproverID != approver {
		return shared.NewDomainErrorf(shared.CodeForbidden,
			"Level %d must be approved by its named approver", lvl.Level)
	}
	return nil
}

// Approve records an approval for the current level.
// Returns true when the document is finally approved.
func (p *Progress) Approve(approver uuid.UUID, comment string, now time.Time) (bool, error) {
	if err := p.CheckApprover(approver); err != nil {
		return false, err
	}
	return p.advance(approver, ActionApproved, comment, now), nil
}

// Reject records a rejection for the current level
func (p *Progress) Reject(approver uuid.UUID, comment string, now time.Time) error {
	if err := p.CheckApprover(approver); err != nil {
		return err
	}
	p.ApprovalHistory = append(p.ApprovalHistory, Record{
		ApproverID: approver,
		Action:     ActionRejected,
		Level:      p.CurrentApprovalLevel + 1,
		Comment:    comment,
		Timestamp:  now,
	})
	p.LevelDueAt = nil
	return nil
}

// IsOverdue returns true when the current level's deadline has passed
func (p *Progress) IsOverdue(now time.Time) bool {
	return p.LevelDueAt != nil && !now.Before(*p.LevelDueAt)
}

// Escalate handles an overdue level. Levels flagged AutoApprove are approved by
// systemApprover; any other level gets an Escalated record and its deadline cleared.
// The bool result is true when the document is finally approved.
func (p *Progress) Escalate(systemApprover uuid.UUID, now time.Time) (EscalationOutcome, bool) {
	lvl := p.CurrentLevel()
	if lvl != nil && lvl.AutoApprove {
		finalized := p.advance(systemApprover, ActionAutoApproved, "Approval timeout elapsed", now)
		return EscalationAutoApproved, finalized
	}

	p.ApprovalHistory = append(p.ApprovalHistory, Record{
		ApproverID: systemApprover,
		Action:     ActionEscalated,
		Level:      p.CurrentApprovalLevel + 1,
		Comment:    "Approval timeout elapsed",
		Timestamp:  now,
	})
	p.LevelDueAt = nil
	return EscalationEscalated, false
}

// IsComplete returns true when no further approvals are needed
func (p *Progress) IsComplete() bool {
	if p.ApprovalPlan.AutoApprove {
		return true
	}
	if p.ApprovalPlan.Mode == ApprovalModeSingle {
		return p.CurrentApprovalLevel >= 1
	}
	return p.CurrentApprovalLevel >= p.RequiredApprovalLevels
}

func (p *Progress) advance(approver uuid.UUID, action Action, comment string, now time.Time) bool {
	p.ApprovalHistory = append(p.ApprovalHistory, Record{
		ApproverID: approver,
		Action:     action,
		Level:      p.CurrentApprovalLevel + 1,
		Comment:    comment,
		Timestamp:  now,
	})
	p.CurrentApprovalLevel++

	if p.IsComplete() {
		p.LevelDueAt = nil
		return true
	}
	p.armDeadline(now)
	return false
}

func (p *Progress) armDeadline(now time.Time) {
	p.LevelDueAt = nil
	lvl := p.CurrentLevel()
	if lvl == nil || lvl.TimeoutDays <= 0 {
		return
	}
	due := now.AddDate(0, 0, lvl.TimeoutDays)
	p.LevelDueAt = &due
}
