package approval

import (
	"testing"
	"time"

	"github.com/erp/procurement/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threeLevelPlan(mode ApprovalMode) Plan {
	return Plan{
		Mode: mode,
		Levels: []ApprovalLevel{
			{Level: 1, Role: "manager", Required: true, TimeoutDays: 2},
			{Level: 2, Role: "finance", Required: true, TimeoutDays: 3, AutoApprove: true},
			{Level: 3, Role: "director", Required: true},
		},
	}
}

func TestPlan_RequiredLevels(t *testing.T) {
	tests := []struct {
		name   string
		levels []ApprovalLevel
		want   int
	}{
		{"all required", []ApprovalLevel{{Required: true}, {Required: true}}, 2},
		{"trailing optional", []ApprovalLevel{{Required: true}, {Required: false}}, 1},
		{"optional in the middle", []ApprovalLevel{{Required: true}, {}, {Required: true}}, 3},
		{"none flagged", []ApprovalLevel{{}, {}}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Plan{Levels: tt.levels}.RequiredLevels())
		})
	}
}

func TestProgress_SequentialNeedsEveryLevel(t *testing.T) {
	var p Progress
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	submitter := uuid.New()

	approved := p.Start(threeLevelPlan(ApprovalModeSequential), submitter, uuid.New(), now)
	require.False(t, approved)
	assert.Equal(t, 3, p.RequiredApprovalLevels)
	require.NotNil(t, p.LevelDueAt)
	assert.Equal(t, now.AddDate(0, 0, 2), *p.LevelDueAt)

	for i := 1; i <= 3; i++ {
		done, err := p.Approve(uuid.New(), "ok", now)
		require.NoError(t, err)
		assert.Equal(t, i == 3, done, "level %d", i)
		assert.Equal(t, i, p.CurrentApprovalLevel)
	}
	assert.Nil(t, p.LevelDueAt)

	require.Len(t, p.ApprovalHistory, 4)
	assert.Equal(t, ActionSubmitted, p.ApprovalHistory[0].Action)
	assert.Equal(t, submitter, p.ApprovalHistory[0].ApproverID)
	for i, rec := range p.ApprovalHistory[1:] {
		assert.Equal(t, ActionApproved, rec.Action)
		assert.Equal(t, i+1, rec.Level)
	}
}

func TestProgress_SingleModeFinalizesOnFirstApproval(t *testing.T) {
	var p Progress
	p.Start(threeLevelPlan(ApprovalModeSingle), uuid.New(), uuid.New(), time.Now())

	done, err := p.Approve(uuid.New(), "", time.Now())

	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, 1, p.CurrentApprovalLevel)
	assert.Nil(t, p.LevelDueAt)
}

func TestProgress_NamedApprover(t *testing.T) {
	named := uuid.New()
	plan := Plan{
		Mode:   ApprovalModeSequential,
		Levels: []ApprovalLevel{{Level: 1, Role: "cfo", ApproverID: &named, Required: true}},
	}

	var p Progress
	p.Start(plan, uuid.New(), uuid.New(), time.Now())

	_, err := p.Approve(uuid.New(), "", time.Now())
	assert.True(t, shared.IsCode(err, shared.CodeForbidden))
	err = p.Reject(uuid.New(), "no", time.Now())
	assert.True(t, shared.IsCode(err, shared.CodeForbidden))
	assert.Len(t, p.ApprovalHistory, 1)

	done, err := p.Approve(named, "", time.Now())
	require.NoError(t, err)
	assert.True(t, done)
}

func TestProgress_Reject(t *testing.T) {
	var p Progress
	now := time.Now()
	p.Start(threeLevelPlan(ApprovalModeSequential), uuid.New(), uuid.New(), now)
	_, err := p.Approve(uuid.New(), "", now)
	require.NoError(t, err)

	approver := uuid.New()
	require.NoError(t, p.Reject(approver, "too expensive", now))

	last := p.ApprovalHistory[len(p.ApprovalHistory)-1]
	assert.Equal(t, ActionRejected, last.Action)
	assert.Equal(t, 2, last.Level)
	assert.Equal(t, "too expensive", last.Comment)
	assert.Nil(t, p.LevelDueAt)
}

func TestProgress_AutoApprovePlan(t *testing.T) {
	var p Progress
	system := uuid.New()

	approved := p.Start(AutoApprovePlan(ApprovalModeSequential), uuid.New(), system, time.Now())

	assert.True(t, approved)
	assert.True(t, p.IsComplete())
	require.Len(t, p.ApprovalHistory, 2)
	assert.Equal(t, ActionAutoApproved, p.ApprovalHistory[1].Action)
	assert.Equal(t, system, p.ApprovalHistory[1].ApproverID)
}

func TestProgress_Escalate(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	system := uuid.New()

	var p Progress
	p.Start(threeLevelPlan(ApprovalModeSequential), uuid.New(), system, now)

	assert.False(t, p.IsOverdue(now.AddDate(0, 0, 1)))
	assert.True(t, p.IsOverdue(now.AddDate(0, 0, 2)))

	t.Run("level without auto approve escalates", func(t *testing.T) {
		outcome, done := p.Escalate(system, now.AddDate(0, 0, 2))
		assert.Equal(t, EscalationEscalated, outcome)
		assert.False(t, done)
		assert.Equal(t, 0, p.CurrentApprovalLevel)
		assert.Nil(t, p.LevelDueAt)
		assert.Equal(t, ActionEscalated, p.ApprovalHistory[len(p.ApprovalHistory)-1].Action)
	})

	t.Run("auto approve level advances", func(t *testing.T) {
		_, err := p.Approve(uuid.New(), "", now)
		require.NoError(t, err)
		require.NotNil(t, p.LevelDueAt)

		outcome, done := p.Escalate(system, now.AddDate(0, 0, 3))
		assert.Equal(t, EscalationAutoApproved, outcome)
		assert.False(t, done)
		assert.Equal(t, 2, p.CurrentApprovalLevel)
		last := p.ApprovalHistory[len(p.ApprovalHistory)-1]
		assert.Equal(t, ActionAutoApproved, last.Action)
		assert.Equal(t, 2, last.Level)
		assert.Equal(t, system, last.ApproverID)
		assert.Nil(t, p.LevelDueAt)
	})
}
