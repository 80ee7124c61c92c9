package comm

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/arloliu/divvy/types"
)

// ManagerRank is the rank that roots every collective.
const ManagerRank = 0

// Comm is a communicator: a rank's view of its group plus collectives.
//
// A Comm is not safe for concurrent collectives on the same rank; issue them
// in the same program order on every rank.
type Comm struct {
	transport Transport
	logger    types.Logger
	metrics   types.MetricsCollector
}

// New wraps a transport.
//
// Parameters:
//   - t: Point-to-point transport for this rank
//   - opts: Optional configuration (WithLogger, WithMetrics)
//
// Returns:
//   - *Comm: Communicator for t.Rank() of t.Size()
func New(t Transport, opts ...Option) *Comm {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	return &Comm{transport: t, logger: o.logger, metrics: o.metrics}
}

// Rank returns this worker's index.
func (c *Comm) Rank() int { return c.transport.Rank() }

// Size returns the number of workers.
func (c *Comm) Size() int { return c.transport.Size() }

// IsManager reports whether this rank roots collectives.
func (c *Comm) IsManager() bool { return c.transport.Rank() == ManagerRank }

// Close releases the underlying transport.
func (c *Comm) Close(ctx context.Context) error {
	return c.transport.Close(ctx)
}

// SendTo sends payload to rank dest.
func (c *Comm) SendTo(ctx context.Context, dest int, payload []byte) error {
	if err := c.checkPeer(dest); err != nil {
		return err
	}
	if err := c.transport.Send(ctx, dest, payload); err != nil {
		return fmt.Errorf("send to rank %d: %w", dest, err)
	}
	c.metrics.RecordBytes("sent", len(payload))

	return nil
}

// RecvFrom receives the next payload sent by rank src.
func (c *Comm) RecvFrom(ctx context.Context, src int) ([]byte, error) {
	if err := c.checkPeer(src); err != nil {
		return nil, err
	}
	payload, err := c.transport.Recv(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("receive from rank %d: %w", src, err)
	}
	c.metrics.RecordBytes("received", len(payload))

	return payload, nil
}

// Sync blocks until every rank has called Sync.
func (c *Comm) Sync(ctx context.Context) error {
	return c.observe("sync", func() error {
		if _, err := c.gather(ctx, nil); err != nil {
			return err
		}
		_, err := c.broadcast(ctx, nil)

		return err
	})
}

// Broadcast distributes the manager's payload to every rank.
//
// The payload argument is only read on the manager; every rank, the manager
// included, returns the manager's payload.
func (c *Comm) Broadcast(ctx context.Context, payload []byte) ([]byte, error) {
	var out []byte
	err := c.observe("broadcast", func() error {
		var err error
		out, err = c.broadcast(ctx, payload)

		return err
	})

	return out, err
}

// Gather collects one payload from every rank on the manager.
//
// Returns:
//   - [][]byte: On the manager, payload of rank i at position i; nil elsewhere
//   - error: Transport or context error
func (c *Comm) Gather(ctx context.Context, payload []byte) ([][]byte, error) {
	var out [][]byte
	err := c.observe("gather", func() error {
		var err error
		out, err = c.gather(ctx, payload)

		return err
	})

	return out, err
}

// AllReduce combines value from every rank with op and returns the result on
// every rank.
//
// The manager folds contributions in rank order, so floating-point results are
// identical on every rank.
func (c *Comm) AllReduce(ctx context.Context, value float64, op ReduceOp) (float64, error) {
	if _, err := op.identity(); err != nil {
		return 0, err
	}

	var result float64
	err := c.observe("allreduce", func() error {
		parts, err := c.gather(ctx, encodeFloat(value))
		if err != nil {
			return err
		}

		var payload []byte
		if c.IsManager() {
			values := make([]float64, len(parts))
			for i, p := range parts {
				if values[i], err = decodeFloat(p); err != nil {
					return fmt.Errorf("rank %d contribution: %w", i, err)
				}
			}
			folded, err := op.fold(values)
			if err != nil {
				return err
			}
			payload = encodeFloat(folded)
		}

		out, err := c.broadcast(ctx, payload)
		if err != nil {
			return err
		}
		result, err = decodeFloat(out)

		return err
	})

	return result, err
}

func (c *Comm) broadcast(ctx context.Context, payload []byte) ([]byte, error) {
	if !c.IsManager() {
		return c.RecvFrom(ctx, ManagerRank)
	}

	for dest := 1; dest < c.Size(); dest++ {
		if err := c.SendTo(ctx, dest, payload); err != nil {
			return nil, err
		}
	}

	return payload, nil
}

func (c *Comm) gather(ctx context.Context, payload []byte) ([][]byte, error) {
	if !c.IsManager() {
		return nil, c.SendTo(ctx, ManagerRank, payload)
	}

	parts := make([][]byte, c.Size())
	parts[ManagerRank] = payload
	for src := 1; src < c.Size(); src++ {
		p, err := c.RecvFrom(ctx, src)
		if err != nil {
			return nil, err
		}
		parts[src] = p
	}

	return parts, nil
}

func (c *Comm) observe(op string, fn func() error) error {
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)

	c.metrics.RecordCollective(op, elapsed.Seconds(), err == nil)
	if err != nil {
		c.logger.Warn("collective failed", "op", op, "rank", c.Rank(), "size", c.Size(), "error", err)
		return fmt.Errorf("%s: %w", op, err)
	}
	c.logger.Debug("collective completed", "op", op, "rank", c.Rank(), "size", c.Size(), "elapsed", elapsed)

	return nil
}

func (c *Comm) checkPeer(rank int) error {
	if rank < 0 || rank >= c.Size() {
		return fmt.Errorf("%w: rank %d not in [0,%d)", types.ErrRankOutOfRange, rank, c.Size())
	}

	return nil
}

func encodeFloat(v float64) []byte {
	return binary.BigEndian.AppendUint64(nil, math.Float64bits(v))
}

func decodeFloat(b []byte) (float64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("malformed reduce payload: %d bytes", len(b))
	}

	return math.Float64frombits(binary.BigEndian.Uint64(b)), nil
}
