package shared

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainError_IsMatchesByCode(t *testing.T) {
	custom := NewDomainError(CodeNotFound, "Requisition not found")
	wrapped := fmt.Errorf("load requisition: %w", custom)

	assert.True(t, errors.Is(wrapped, ErrNotFound))
	assert.False(t, errors.Is(wrapped, ErrInsufficientStock))
	assert.True(t, IsCode(wrapped, CodeNotFound))
	assert.False(t, IsCode(errors.New("plain"), CodeNotFound))
}

func TestInvalidTransition_Message(t *testing.T) {
	err := InvalidTransition("approve", testStatus("Draft"))
	assert.Equal(t, CodeInvalidTransition, err.Code)
	assert.Equal(t, "Cannot approve in Draft status", err.Error())
}

func TestFilter_OffsetAndLimit(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		offset int
		limit  int
	}{
		{"defaults", DefaultFilter(), 0, 20},
		{"third page", Filter{Page: 3, PageSize: 10}, 20, 10},
		{"zero values", Filter{}, 0, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.offset, tt.filter.Offset())
			assert.Equal(t, tt.limit, tt.filter.Limit())
		})
	}
}

type recordingPublisher struct {
	events []DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...DomainEvent) error {
	p.events = append(p.events, events...)
	return nil
}

type testAggregate struct {
	TenantAggregateRoot
}

func TestPublishAndClear(t *testing.T) {
	agg := &testAggregate{TenantAggregateRoot: NewTenantAggregateRoot(uuid.New())}
	event := NewBaseDomainEvent("Tested", "Test", agg.ID, agg.TenantID)
	agg.AddDomainEvent(&event)

	pub := &recordingPublisher{}
	require.NoError(t, PublishAndClear(context.Background(), pub, agg))

	assert.Len(t, pub.events, 1)
	assert.Empty(t, agg.GetDomainEvents())
	assert.NoError(t, PublishAndClear(context.Background(), nil, agg))
}

type testStatus string

func (s testStatus) String() string { return string(s) }
