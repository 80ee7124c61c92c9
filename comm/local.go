package comm

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/arloliu/divvy/types"
)

// defaultMailboxSize bounds the number of undelivered messages per rank pair.
const defaultMailboxSize = 64

// localGroup is the shared state of an in-process group.
type localGroup struct {
	size int
	// mailboxes[dest][src]
	mailboxes [][]chan []byte
}

// localTransport is one rank's endpoint into a localGroup.
type localTransport struct {
	group *localGroup
	rank  int

	closeOnce sync.Once
	done      chan struct{}
}

var _ Transport = (*localTransport)(nil)

// NewLocalTransports creates size connected in-process endpoints.
//
// Parameters:
//   - size: Number of ranks (>= 1)
//
// Returns:
//   - []Transport: Endpoint of rank i at position i
//   - error: ErrOutOfRange if size < 1
func NewLocalTransports(size int) ([]Transport, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: size %d must be >= 1", types.ErrOutOfRange, size)
	}

	g := &localGroup{size: size, mailboxes: make([][]chan []byte, size)}
	for dest := range size {
		g.mailboxes[dest] = make([]chan []byte, size)
		for src := range size {
			g.mailboxes[dest][src] = make(chan []byte, defaultMailboxSize)
		}
	}

	transports := make([]Transport, size)
	for rank := range size {
		transports[rank] = &localTransport{group: g, rank: rank, done: make(chan struct{})}
	}

	return transports, nil
}

// NewLocalGroup creates size connected communicators sharing opts.
//
// Example:
//
//	comms, _ := comm.NewLocalGroup(4)
//	for _, c := range comms {
//	    go worker(ctx, c)
//	}
func NewLocalGroup(size int, opts ...Option) ([]*Comm, error) {
	transports, err := NewLocalTransports(size)
	if err != nil {
		return nil, err
	}

	comms := make([]*Comm, size)
	for i, t := range transports {
		comms[i] = New(t, opts...)
	}

	return comms, nil
}

// NewSerial creates a single-rank communicator.
//
// Rank is 0, size is 1, and every collective completes locally.
func NewSerial(opts ...Option) *Comm {
	transports, _ := NewLocalTransports(1)

	return New(transports[0], opts...)
}

// RunLocal runs fn once per rank of a fresh in-process group, concurrently.
//
// The first error cancels the context handed to every other rank and is
// returned once all ranks have finished. Each rank's communicator is closed
// when its fn returns.
//
// Example:
//
//	err := comm.RunLocal(ctx, 4, func(ctx context.Context, c *comm.Comm) error {
//	    total, err := c.AllReduce(ctx, float64(c.Rank()), comm.OpSum)
//	    ...
//	})
func RunLocal(ctx context.Context, size int, fn func(ctx context.Context, c *Comm) error, opts ...Option) error {
	comms, err := NewLocalGroup(size, opts...)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, c := range comms {
		g.Go(func() error {
			defer func() { _ = c.Close(context.WithoutCancel(gctx)) }()

			if err := fn(gctx, c); err != nil {
				return fmt.Errorf("rank %d: %w", c.Rank(), err)
			}

			return nil
		})
	}

	return g.Wait()
}

func (t *localTransport) Rank() int { return t.rank }

func (t *localTransport) Size() int { return t.group.size }

func (t *localTransport) Send(ctx context.Context, dest int, payload []byte) error {
	if dest < 0 || dest >= t.group.size {
		return fmt.Errorf("%w: dest %d not in [0,%d)", types.ErrRankOutOfRange, dest, t.group.size)
	}

	select {
	case <-t.done:
		return types.ErrClosed
	default:
	}

	select {
	case t.group.mailboxes[dest][t.rank] <- payload:
		return nil
	case <-t.done:
		return types.ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *localTransport) Recv(ctx context.Context, src int) ([]byte, error) {
	if src < 0 || src >= t.group.size {
		return nil, fmt.Errorf("%w: src %d not in [0,%d)", types.ErrRankOutOfRange, src, t.group.size)
	}

	select {
	case <-t.done:
		return nil, types.ErrClosed
	default:
	}

	select {
	case payload := <-t.group.mailboxes[t.rank][src]:
		return payload, nil
	case <-t.done:
		return nil, types.ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (t *localTransport) Close(_ context.Context) error {
	t.closeOnce.Do(func() { close(t.done) })

	return nil
}
