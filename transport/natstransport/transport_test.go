package natstransport

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/arloliu/divvy/comm"
	"github.com/arloliu/divvy/internal/rankclaim"
	divvytest "github.com/arloliu/divvy/testing"
	"github.com/arloliu/divvy/types"
)

// joinGroup joins size transports concurrently, each on its own connection.
func joinGroup(t *testing.T, ns *server.Server, cfg Config) []*Transport {
	t.Helper()

	transports := make([]*Transport, cfg.Size)
	g, ctx := errgroup.WithContext(t.Context())
	for i := range cfg.Size {
		nc := divvytest.Connect(t, ns)
		g.Go(func() error {
			tr, err := Join(ctx, nc, cfg, WithLogger(divvytest.NewTestLogger(t)))
			if err != nil {
				return err
			}
			transports[i] = tr

			return nil
		})
	}
	require.NoError(t, g.Wait())

	return transports
}

func closeGroup(t *testing.T, transports []*Transport) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	g := new(errgroup.Group)
	for _, tr := range transports {
		g.Go(func() error { return tr.Close(ctx) })
	}
	require.NoError(t, g.Wait())
}

func testConfig(group string, size int) Config {
	cfg := DefaultConfig()
	cfg.Group = group
	cfg.Size = size
	cfg.RankTTL = 10 * time.Second
	cfg.JoinTimeout = 10 * time.Second

	return cfg
}

func TestJoin_ClaimsDistinctRanks(t *testing.T) {
	ns, _ := divvytest.StartEmbeddedNATS(t)
	transports := joinGroup(t, ns, testConfig("distinct", 3))

	ranks := make([]int, 0, len(transports))
	for _, tr := range transports {
		require.Equal(t, 3, tr.Size())
		ranks = append(ranks, tr.Rank())
	}
	sort.Ints(ranks)
	require.Equal(t, []int{0, 1, 2}, ranks)

	closeGroup(t, transports)
}

func TestJoin_Collectives(t *testing.T) {
	ns, _ := divvytest.StartEmbeddedNATS(t)
	transports := joinGroup(t, ns, testConfig("collectives", 4))

	g, ctx := errgroup.WithContext(t.Context())
	for _, tr := range transports {
		c := comm.New(tr)
		g.Go(func() error {
			sum, err := c.AllReduce(ctx, float64(c.Rank()+1), comm.OpSum)
			if err != nil {
				return err
			}
			if sum != 10 {
				return fmt.Errorf("rank %d: sum %v", c.Rank(), sum)
			}

			var payload []byte
			if c.IsManager() {
				payload = []byte("plan")
			}
			got, err := c.Broadcast(ctx, payload)
			if err != nil {
				return err
			}
			if string(got) != "plan" {
				return fmt.Errorf("rank %d: broadcast %q", c.Rank(), got)
			}

			parts, err := c.Gather(ctx, []byte{byte(c.Rank())})
			if err != nil {
				return err
			}
			if c.IsManager() {
				for i, p := range parts {
					if len(p) != 1 || int(p[0]) != i {
						return fmt.Errorf("gather slot %d: %v", i, p)
					}
				}
			}

			return c.Sync(ctx)
		})
	}
	require.NoError(t, g.Wait())

	closeGroup(t, transports)
}

func TestTransport_FIFOPerSource(t *testing.T) {
	ns, _ := divvytest.StartEmbeddedNATS(t)
	transports := joinGroup(t, ns, testConfig("fifo", 2))
	byRank := make([]*Transport, 2)
	for _, tr := range transports {
		byRank[tr.Rank()] = tr
	}

	ctx := t.Context()
	const n = 100
	for i := range n {
		require.NoError(t, byRank[0].Send(ctx, 1, []byte{byte(i)}))
	}
	for i := range n {
		got, err := byRank[1].Recv(ctx, 0)
		require.NoError(t, err)
		require.Equal(t, []byte{byte(i)}, got)
	}

	closeGroup(t, transports)
}

func TestTransport_RankValidation(t *testing.T) {
	ns, _ := divvytest.StartEmbeddedNATS(t)
	transports := joinGroup(t, ns, testConfig("validate", 1))
	tr := transports[0]
	ctx := t.Context()

	require.ErrorIs(t, tr.Send(ctx, 1, nil), types.ErrRankOutOfRange)
	_, err := tr.Recv(ctx, -1)
	require.ErrorIs(t, err, types.ErrRankOutOfRange)

	require.NoError(t, tr.Send(ctx, 0, []byte("self")))
	got, err := tr.Recv(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, []byte("self"), got)

	closeGroup(t, transports)

	require.ErrorIs(t, tr.Send(ctx, 0, nil), types.ErrClosed)
	_, err = tr.Recv(ctx, 0)
	require.ErrorIs(t, err, types.ErrClosed)
	require.NoError(t, tr.Close(ctx), "close is idempotent")
}

func TestJoin_FixedRank(t *testing.T) {
	ns, nc := divvytest.StartEmbeddedNATS(t)

	cfg := testConfig("fixed", 2)
	cfg.Rank = 1
	cfg.JoinTimeout = 300 * time.Millisecond

	// Alone, rank 1 times out waiting for rank 0 and gives its claim back.
	_, err := Join(t.Context(), nc, cfg)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	cfg.JoinTimeout = 10 * time.Second
	other := testConfig("fixed", 2)
	other.Rank = 0

	g, ctx := errgroup.WithContext(t.Context())
	var a, b *Transport
	g.Go(func() (err error) { a, err = Join(ctx, nc, cfg); return err })
	g.Go(func() (err error) { b, err = Join(ctx, divvytest.Connect(t, ns), other); return err })
	require.NoError(t, g.Wait())
	require.Equal(t, 1, a.Rank())
	require.Equal(t, 0, b.Rank())

	// A third process cannot take a held rank.
	dup := cfg
	dup.JoinTimeout = time.Second
	_, err = Join(t.Context(), divvytest.Connect(t, ns), dup)
	require.ErrorIs(t, err, rankclaim.ErrRankTaken)

	closeGroup(t, []*Transport{a, b})
}

func TestJoin_GroupFull(t *testing.T) {
	ns, _ := divvytest.StartEmbeddedNATS(t)
	transports := joinGroup(t, ns, testConfig("full", 1))

	_, err := Join(t.Context(), divvytest.Connect(t, ns), testConfig("full", 1))
	require.ErrorIs(t, err, types.ErrNoAvailableRank)

	closeGroup(t, transports)
}

func TestJoin_InvalidConfig(t *testing.T) {
	_, err := Join(t.Context(), (*nats.Conn)(nil), Config{Group: "bad.group", Size: 1})
	require.ErrorIs(t, err, types.ErrInvalidConfig)
}

func TestClose_WaitsForPeers(t *testing.T) {
	ns, _ := divvytest.StartEmbeddedNATS(t)
	transports := joinGroup(t, ns, testConfig("leave", 2))

	// With the peer still open, Close gives up at the deadline but still
	// releases the rank.
	ctx, cancel := context.WithTimeout(t.Context(), 200*time.Millisecond)
	defer cancel()
	start := time.Now()
	require.NoError(t, transports[0].Close(ctx))
	require.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)

	closeGroup(t, transports[1:])
}

func TestTransport_BackloggedSourceDoesNotBlockOthers(t *testing.T) {
	ns, _ := divvytest.StartEmbeddedNATS(t)
	cfg := testConfig("backlog", 3)
	cfg.MailboxSize = 1
	transports := joinGroup(t, ns, cfg)

	byRank := make([]*Transport, len(transports))
	for _, tr := range transports {
		byRank[tr.Rank()] = tr
	}

	ctx := t.Context()
	for i := range 5 {
		require.NoError(t, byRank[2].Send(ctx, 0, []byte{byte(i)}))
	}
	require.NoError(t, byRank[2].nc.Flush())
	require.NoError(t, byRank[1].Send(ctx, 0, []byte("from-1")))

	recvCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	got, err := byRank[0].Recv(recvCtx, 1)
	require.NoError(t, err)
	require.Equal(t, "from-1", string(got))

	// The backlog from rank 2 is still intact and ordered.
	for i := range 5 {
		got, err := byRank[0].Recv(recvCtx, 2)
		require.NoError(t, err)
		require.Equal(t, []byte{byte(i)}, got)
	}

	closeGroup(t, transports)
}
