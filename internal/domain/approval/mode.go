package approval

import "github.com/erp/procurement/internal/domain/shared"

// ApprovalMode decides when a multi-level workflow is finished
type ApprovalMode string

const (
	// ApprovalModeSingle finalizes on the first approval regardless of level count
	ApprovalModeSingle ApprovalMode = "single"
	// ApprovalModeSequential requires every required level to approve in order
	ApprovalModeSequential ApprovalMode = "sequential"
)

// IsValid returns true if the mode is valid
func (m ApprovalMode) IsValid() bool {
	return m == ApprovalModeSingle || m == ApprovalModeSequential
}

// String returns the string representation of ApprovalMode
func (m ApprovalMode) String() string {
	return string(m)
}

// ParseApprovalMode parses a configured mode, defaulting to sequential when empty
func ParseApprovalMode(s string) (ApprovalMode, error) {
	if s == "" {
		return ApprovalModeSequential, nil
	}
	m := ApprovalMode(s)
	if !m.IsValid() {
		return "", shared.NewDomainErrorf(shared.CodeValidation, "Invalid approval mode %q", s)
	}
	return m, nil
}

// NoWorkflowPolicy decides what submitting does when no workflow applies
type NoWorkflowPolicy string

const (
	// NoWorkflowSingle treats the document as needing one unnamed approval
	NoWorkflowSingle NoWorkflowPolicy = "single"
	// NoWorkflowAutoApprove approves the document on submit
	NoWorkflowAutoApprove NoWorkflowPolicy = "auto_approve"
	// NoWorkflowReject fails submission with NOT_FOUND
	NoWorkflowReject NoWorkflowPolicy = "reject"
)

// IsValid returns true if the policy is valid
func (p NoWorkflowPolicy) IsValid() bool {
	switch p {
	case NoWorkflowSingle, NoWorkflowAutoApprove, NoWorkflowReject:
		return true
	}
	return false
}

// ParseNoWorkflowPolicy parses a configured policy, defaulting to single when empty
func ParseNoWorkflowPolicy(s string) (NoWorkflowPolicy, error) {
	if s == "" {
		return NoWorkflowSingle, nil
	}
	p := NoWorkflowPolicy(s)
	if !p.IsValid() {
		return "", shared.NewDomainErrorf(shared.CodeValidation, "Invalid no-workflow policy %q", s)
	}
	return p, nil
}

// Action is the kind of an approval history record. Values are wire values.
type Action string

const (
	ActionSubmitted    Action = "Submitted"
	ActionApproved     Action = "Approved"
	ActionRejected     Action = "Rejected"
	ActionAutoApproved Action = "AutoApproved"
	ActionEscalated    Action = "Escalated"
)

// String returns the string representation of Action
func (a Action) String() string {
	return string(a)
}
