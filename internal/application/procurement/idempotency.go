package procurement

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/procurement/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultIdempotencyTTL is how long a claimed request key blocks replays
const DefaultIdempotencyTTL = 24 * time.Hour

// idempotencyGuard claims Idempotency-Key values for multi-aggregate writes.
// A nil store or an empty key disables the guard.
type idempotencyGuard struct {
	store  shared.IdempotencyStore
	ttl    time.Duration
	logger *zap.Logger
}

// claim reserves key for operation. The returned release func frees the key and
// must be called when the guarded operation fails, so the client can retry.
// A store error fails the request rather than risking a double apply.
func (g *idempotencyGuard) claim(ctx context.Context, operation string, tenantID uuid.UUID, key string) (func(), error) {
	if g.store == nil || key == "" {
		return func() {}, nil
	}

	fullKey := fmt.Sprintf("%s:%s:%s", operation, tenantID, key)
	claimed, err := g.store.MarkProcessed(ctx, fullKey, g.ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to claim idempotency key: %w", err)
	}
	if !claimed {
		return nil, shared.NewDomainErrorf(shared.CodeDuplicateRequest,
			"Request with idempotency key %q was already processed", key)
	}

	return func() {
		if err := g.store.Release(context.WithoutCancel(ctx), fullKey); err != nil {
			g.logger.Warn("Failed to release idempotency key",
				zap.String("operation", operation),
				zap.String("key", key),
				zap.Error(err),
			)
		}
	}, nil
}
