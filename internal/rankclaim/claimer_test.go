package rankclaim

import (
	"context"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/require"

	divvytest "github.com/arloliu/divvy/testing"
	"github.com/arloliu/divvy/types"
)

// Unit tests that do not require a real KV backend.

func TestClaimer_WithoutClaim(t *testing.T) {
	t.Parallel()

	c := NewClaimer(nil, "group", 4, time.Second, nil)
	require.Equal(t, -1, c.Rank())
	require.ErrorIs(t, c.StartRenewal(), ErrNotClaimed)
	require.ErrorIs(t, c.MarkReady(context.Background()), ErrNotClaimed)
	require.ErrorIs(t, c.Release(context.Background()), ErrNotClaimed)
	require.ErrorIs(t, c.StartRenewal(), ErrAlreadyClosed)
}

func TestClaimer_Keys(t *testing.T) {
	t.Parallel()

	c := NewClaimer(nil, "ingest", 3, 0, nil)
	require.Equal(t, []string{"ingest.rank-0", "ingest.rank-1", "ingest.rank-2"}, c.Keys())
}

func TestClaimer_ClaimRank_OutOfRange(t *testing.T) {
	t.Parallel()

	c := NewClaimer(nil, "group", 2, 0, nil)
	require.ErrorIs(t, c.ClaimRank(context.Background(), 2), types.ErrRankOutOfRange)
}

func newBucket(t *testing.T, name string, ttl time.Duration) jetstream.KeyValue {
	t.Helper()

	_, nc := divvytest.StartEmbeddedNATS(t)
	js, err := jetstream.New(nc)
	require.NoError(t, err)

	kv, err := js.CreateKeyValue(t.Context(), jetstream.KeyValueConfig{Bucket: name, TTL: ttl, Storage: jetstream.MemoryStorage})
	require.NoError(t, err)

	return kv
}

func TestClaimer_ClaimsDistinctRanks(t *testing.T) {
	ctx := t.Context()
	kv := newBucket(t, "test-rank-distinct", time.Minute)

	claimers := make([]*Claimer, 3)
	for i := range claimers {
		claimers[i] = NewClaimer(kv, "job", 3, time.Minute, divvytest.NewTestLogger(t))
		rank, err := claimers[i].Claim(ctx)
		require.NoError(t, err)
		require.Equal(t, i, rank)
	}

	extra := NewClaimer(kv, "job", 3, time.Minute, nil)
	_, err := extra.Claim(ctx)
	require.ErrorIs(t, err, types.ErrNoAvailableRank)

	// Releasing frees the rank for reuse.
	require.NoError(t, claimers[1].Release(ctx))
	rank, err := extra.Claim(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, rank)
}

func TestClaimer_ClaimRank(t *testing.T) {
	ctx := t.Context()
	kv := newBucket(t, "test-rank-fixed", time.Minute)

	a := NewClaimer(kv, "job", 4, time.Minute, nil)
	require.NoError(t, a.ClaimRank(ctx, 2))
	require.Equal(t, 2, a.Rank())

	b := NewClaimer(kv, "job", 4, time.Minute, nil)
	require.ErrorIs(t, b.ClaimRank(ctx, 2), ErrRankTaken)
}

func TestClaimer_MarkReadyAndRenew(t *testing.T) {
	ctx := t.Context()
	ttl := 900 * time.Millisecond
	kv := newBucket(t, "test-rank-renew", ttl)

	c := NewClaimer(kv, "job", 1, ttl, nil)
	rank, err := c.Claim(ctx)
	require.NoError(t, err)

	entry, err := kv.Get(ctx, c.Key(rank))
	require.NoError(t, err)
	require.Equal(t, ValueClaimed, entry.Value())

	require.NoError(t, c.MarkReady(ctx))
	require.NoError(t, c.StartRenewal())
	require.NoError(t, c.StartRenewal()) // idempotent

	// Outlive the TTL several times; renewal keeps the key alive and ready.
	time.Sleep(3 * ttl)
	entry, err = kv.Get(ctx, c.Key(rank))
	require.NoError(t, err)
	require.Equal(t, ValueReady, entry.Value())

	require.NoError(t, c.Release(ctx))
	_, err = kv.Get(ctx, c.Key(rank))
	require.ErrorIs(t, err, jetstream.ErrKeyNotFound)
}
