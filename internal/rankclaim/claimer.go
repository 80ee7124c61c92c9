// Package rankclaim claims unique ranks of a worker group in a NATS KV bucket.
package rankclaim

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/arloliu/divvy/internal/logging"
	"github.com/arloliu/divvy/types"
)

// Claim states stored as key values.
var (
	ValueClaimed = []byte("claimed")
	ValueReady   = []byte("ready")
)

// Common errors returned by the claimer.
var (
	ErrNotClaimed    = errors.New("rank not claimed")
	ErrRankTaken     = errors.New("rank already claimed")
	ErrAlreadyClosed = errors.New("claimer already closed")
)

// Claimer claims one rank of a group and keeps the claim alive.
//
// Each rank is a key "<group>.rank-<n>" created with an atomic KV Create, so
// two processes can never hold the same rank. The bucket TTL expires the
// claims of processes that die without releasing.
type Claimer struct {
	kv    jetstream.KeyValue
	group string
	size  int
	ttl   time.Duration

	mu       sync.Mutex
	rank     int
	value    []byte
	renewing bool
	closed   bool
	stopCh   chan struct{}
	doneCh   chan struct{}

	logger types.Logger
}

// NewClaimer creates a rank claimer.
//
// Parameters:
//   - kv: Bucket holding rank claims (its TTL bounds stale claims)
//   - group: Group name used as key prefix
//   - size: Number of ranks in the group
//   - ttl: Claim lifetime; renewal runs every ttl/3 (0 disables renewal)
//   - logger: Logger for debug output (nil for none)
//
// Example:
//
//	claimer := rankclaim.NewClaimer(kv, "ingest", 8, 30*time.Second, logger)
//	rank, err := claimer.Claim(ctx)
func NewClaimer(kv jetstream.KeyValue, group string, size int, ttl time.Duration, logger types.Logger) *Claimer {
	if logger == nil {
		logger = logging.NewNop()
	}

	return &Claimer{
		kv:     kv,
		group:  group,
		size:   size,
		ttl:    ttl,
		rank:   -1,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
		logger: logger,
	}
}

// Key returns the KV key of rank.
func (c *Claimer) Key(rank int) string {
	return fmt.Sprintf("%s.rank-%d", c.group, rank)
}

// Keys returns the KV keys of every rank in the group.
func (c *Claimer) Keys() []string {
	keys := make([]string, c.size)
	for r := range keys {
		keys[r] = c.Key(r)
	}

	return keys
}

// Claim takes the lowest free rank in [0, size).
//
// Returns:
//   - int: Claimed rank
//   - error: types.ErrNoAvailableRank when every rank is held, context or NATS error
func (c *Claimer) Claim(ctx context.Context) (int, error) {
	c.logger.Debug("rank claim starting", "group", c.group, "size", c.size, "ttl", c.ttl)

	for rank := range c.size {
		select {
		case <-ctx.Done():
			return -1, ctx.Err()
		default:
		}

		err := c.create(ctx, rank)
		if err == nil {
			return rank, nil
		}
		if !errors.Is(err, ErrRankTaken) {
			return -1, err
		}
		c.logger.Debug("rank already claimed, trying next", "group", c.group, "rank", rank)
	}

	c.logger.Error("no available ranks in group", "group", c.group, "size", c.size)

	return -1, fmt.Errorf("%w: group %s size %d", types.ErrNoAvailableRank, c.group, c.size)
}

// ClaimRank takes a specific rank.
//
// Returns:
//   - error: ErrRankTaken if another process holds it, types.ErrRankOutOfRange if rank is invalid
func (c *Claimer) ClaimRank(ctx context.Context, rank int) error {
	if rank < 0 || rank >= c.size {
		return fmt.Errorf("%w: rank %d not in [0,%d)", types.ErrRankOutOfRange, rank, c.size)
	}

	return c.create(ctx, rank)
}

func (c *Claimer) create(ctx context.Context, rank int) error {
	key := c.Key(rank)
	revision, err := c.kv.Create(ctx, key, ValueClaimed)
	if errors.Is(err, jetstream.ErrKeyExists) {
		return fmt.Errorf("%w: %s", ErrRankTaken, key)
	}
	if err != nil {
		c.logger.Error("rank claim failed with unexpected error", "key", key, "error", err)
		return fmt.Errorf("failed to claim rank %s: %w", key, err)
	}

	c.mu.Lock()
	c.rank = rank
	c.value = ValueClaimed
	c.mu.Unlock()

	c.logger.Info("rank claimed", "group", c.group, "rank", rank, "revision", revision)

	return nil
}

// MarkReady flips the claim to "ready" so peers know this rank can receive.
func (c *Claimer) MarkReady(ctx context.Context) error {
	c.mu.Lock()
	rank := c.rank
	c.mu.Unlock()
	if rank < 0 {
		return ErrNotClaimed
	}

	if _, err := c.kv.Put(ctx, c.Key(rank), ValueReady); err != nil {
		return fmt.Errorf("failed to mark rank %d ready: %w", rank, err)
	}

	c.mu.Lock()
	c.value = ValueReady
	c.mu.Unlock()

	return nil
}

// StartRenewal re-puts the claim every ttl/3 until Release.
//
// Returns:
//   - error: ErrNotClaimed before a successful claim, ErrAlreadyClosed after Release
func (c *Claimer) StartRenewal() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrAlreadyClosed
	}
	if c.rank < 0 {
		return ErrNotClaimed
	}
	if c.renewing || c.ttl <= 0 {
		return nil
	}
	c.renewing = true

	go c.renewalLoop()

	return nil
}

func (c *Claimer) renewalLoop() {
	defer close(c.doneCh)

	ticker := time.NewTicker(c.ttl / 3)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), c.ttl/3)
			if err := c.renew(ctx); err != nil {
				c.logger.Warn("rank renewal failed", "group", c.group, "error", err)
			}
			cancel()
		}
	}
}

func (c *Claimer) renew(ctx context.Context) error {
	c.mu.Lock()
	rank, value := c.rank, c.value
	c.mu.Unlock()
	if rank < 0 {
		return ErrNotClaimed
	}

	if _, err := c.kv.Put(ctx, c.Key(rank), value); err != nil {
		return fmt.Errorf("failed to renew rank %d: %w", rank, err)
	}

	return nil
}

// Release stops renewal and deletes the claim so the rank can be reused.
//
// Returns:
//   - error: ErrNotClaimed if nothing is held, or the KV delete error
func (c *Claimer) Release(ctx context.Context) error {
	c.mu.Lock()
	rank := c.rank
	renewing := c.renewing
	if !c.closed {
		c.closed = true
		close(c.stopCh)
	}
	c.rank = -1
	c.mu.Unlock()

	if renewing {
		select {
		case <-c.doneCh:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if rank < 0 {
		return ErrNotClaimed
	}

	if err := c.kv.Delete(ctx, c.Key(rank)); err != nil {
		return fmt.Errorf("failed to release rank %d: %w", rank, err)
	}
	c.logger.Info("rank released", "group", c.group, "rank", rank)

	return nil
}

// Rank returns the claimed rank, or -1.
func (c *Claimer) Rank() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.rank
}
