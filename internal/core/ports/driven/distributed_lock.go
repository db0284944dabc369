package driven

import (
	"context"
	"time"
)

// DistributedLock serialises reindex runs per collection ("reindex:<name>")
// and the periodic scheduler ("scheduler:reindex_all") across instances.
// Every lock carries a TTL so a crashed holder cannot block a collection.
type DistributedLock interface {
	// Acquire returns false, nil when another holder has a live lease
	Acquire(ctx context.Context, name string, ttl time.Duration) (acquired bool, err error)

	// Release drops the lease. Releasing an expired or unknown lock is not an error.
	Release(ctx context.Context, name string) error

	// Extend renews a held lease, after every page of a long reindex.
	// It fails when the lease has already expired or was taken over.
	Extend(ctx context.Context, name string, ttl time.Duration) error

	Ping(ctx context.Context) error
}
