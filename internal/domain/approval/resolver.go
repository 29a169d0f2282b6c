package approval

import (
	"context"
	"errors"
	"sort"

	"github.com/erp/procurement/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Criteria describes the document a workflow is resolved for
type Criteria struct {
	DocumentType DocumentType
	Amount       decimal.Decimal
	Department   string
	Category     string
}

// ErrNoWorkflow is returned when no workflow applies
var ErrNoWorkflow = shared.NewDomainError(shared.CodeNotFound, "No approval workflow applies")

// Resolve selects the single applicable workflow from a tenant's workflows.
//
// Active workflows of the document type whose amount range contains the amount are
// considered, conditional ones first in ascending priority, then narrower amount
// range, then creation time. A candidate is skipped when a non-empty department or
// category allow-list excludes the document. If nothing survives, the active default
// workflow is returned regardless of its own conditions.
func Resolve(workflows []ApprovalWorkflow, c Criteria) (*ApprovalWorkflow, error) {
	var candidates []*ApprovalWorkflow
	var fallback *ApprovalWorkflow
	for i := range workflows {
		wf := &workflows[i]
		if !wf.IsActive || wf.DocumentType != c.DocumentType {
			continue
		}
		if wf.IsDefault && fallback == nil {
			fallback = wf
		}
		if wf.Conditions.MatchesAmount(c.Amount) {
			candidates = append(candidates, wf)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return lessCandidate(candidates[i], candidates[j])
	})

	for _, wf := range candidates {
		if !wf.Conditions.AllowsDepartment(c.Department) {
			continue
		}
		if !wf.Conditions.AllowsCategory(c.Category) {
			continue
		}
		return wf, nil
	}

	if fallback != nil {
		return fallback, nil
	}
	return nil, ErrNoWorkflow
}

func lessCandidate(a, b *ApprovalWorkflow) bool {
	if a.IsDefault != b.IsDefault {
		return !a.IsDefault
	}
	if a.Priority != b.Priority {
		return a.Priority < b.Priority
	}
	aw, aBounded := a.Conditions.amountRangeWidth()
	bw, bBounded := b.Conditions.amountRangeWidth()
	if aBounded != bBounded {
		return aBounded
	}
	if aBounded && !aw.Equal(bw) {
		return aw.LessThan(bw)
	}
	return a.CreatedAt.Before(b.CreatedAt)
}

// Resolver resolves workflows from storage
type Resolver struct {
	repo ApprovalWorkflowRepository
}

// NewResolver creates a new Resolver
func NewResolver(repo ApprovalWorkflowRepository) *Resolver {
	return &Resolver{repo: repo}
}

// Resolve loads the tenant's active workflows of the criteria's type and resolves among them
func (r *Resolver) Resolve(ctx context.Context, tenantID uuid.UUID, c Criteria) (*ApprovalWorkflow, error) {
	if !c.DocumentType.IsValid() {
		return nil, shared.NewDomainErrorf(shared.CodeValidation, "Invalid document type %q", c.DocumentType)
	}
	workflows, err := r.repo.FindActiveByDocumentType(ctx, tenantID, c.DocumentType)
	if err != nil {
		return nil, err
	}
	if len(workflows) == 0 {
		return nil, ErrNoWorkflow
	}
	return Resolve(workflows, c)
}

// Planner turns resolution results into approval plans, applying the
// configured mode and the policy for documents no workflow covers
type Planner struct {
	resolver *Resolver
	mode     ApprovalMode
	policy   NoWorkflowPolicy
}

// NewPlanner creates a new Planner
func NewPlanner(resolver *Resolver, mode ApprovalMode, policy NoWorkflowPolicy) *Planner {
	if !mode.IsValid() {
		mode = ApprovalModeSequential
	}
	if !policy.IsValid() {
		policy = NoWorkflowSingle
	}
	return &Planner{resolver: resolver, mode: mode, policy: policy}
}

// Mode returns the configured approval mode
func (p *Planner) Mode() ApprovalMode {
	return p.mode
}

// Plan resolves the workflow for a document and snapshots it into a plan
func (p *Planner) Plan(ctx context.Context, tenantID uuid.UUID, c Criteria) (Plan, error) {
	wf, err := p.resolver.Resolve(ctx, tenantID, c)
	if err == nil {
		return PlanFromWorkflow(wf, p.mode), nil
	}
	if !errors.Is(err, ErrNoWorkflow) {
		return Plan{}, err
	}

	switch p.policy {
	case NoWorkflowAutoApprove:
		return AutoApprovePlan(p.mode), nil
	case NoWorkflowReject:
		return Plan{}, err
	default:
		return SingleLevelPlan(p.mode), nil
	}
}
