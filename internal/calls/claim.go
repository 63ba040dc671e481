package calls

import (
	"context"
	"sync"
	"time"

	"callcenter-platform/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// Claimer serializes access to a company's call form: at most one agent
// holds a claim at a time. Claims expire on their own so an abandoned tab
// never wedges a company.
type Claimer interface {
	Acquire(ctx context.Context, companyID, ownerID string) (bool, error)
	Release(ctx context.Context, companyID, ownerID string) error
}

// RedisClaimer implements Claimer on the shared Redis instance so claims
// hold across API processes.
type RedisClaimer struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisClaimer(rdb *redis.Client, ttl time.Duration) *RedisClaimer {
	return &RedisClaimer{rdb: rdb, ttl: ttl}
}

func claimKey(companyID string) string {
	return "callform:claim:" + companyID
}

func (c *RedisClaimer) Acquire(ctx context.Context, companyID, ownerID string) (bool, error) {
	return utils.AcquireClaim(ctx, c.rdb, claimKey(companyID), ownerID, c.ttl)
}

func (c *RedisClaimer) Release(ctx context.Context, companyID, ownerID string) error {
	return utils.ReleaseClaim(ctx, c.rdb, claimKey(companyID), ownerID)
}

// MemoryClaimer is a single-process Claimer for tests.
type MemoryClaimer struct {
	mu     sync.Mutex
	owners map[string]string
}

func NewMemoryClaimer() *MemoryClaimer {
	return &MemoryClaimer{owners: map[string]string{}}
}

func (c *MemoryClaimer) Acquire(ctx context.Context, companyID, ownerID string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	owner, held := c.owners[companyID]
	if held && owner != ownerID {
		return false, nil
	}
	c.owners[companyID] = ownerID
	return true, nil
}

func (c *MemoryClaimer) Release(ctx context.Context, companyID, ownerID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.owners[companyID] == ownerID {
		delete(c.owners, companyID)
	}
	return nil
}
