package natstransport

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/puzpuzpuz/xsync/v4"
	"go.uber.org/multierr"

	"github.com/arloliu/divvy/comm"
	"github.com/arloliu/divvy/internal/kvutil"
	"github.com/arloliu/divvy/internal/logging"
	"github.com/arloliu/divvy/internal/natsutil"
	"github.com/arloliu/divvy/internal/rankclaim"
	"github.com/arloliu/divvy/types"
)

// Message headers.
const (
	SourceHeader  = "Divvy-Source"
	ControlHeader = "Divvy-Control"

	controlBye = "bye"
)

const (
	subscribeRetries = 3
	subscribeBackoff = 100 * time.Millisecond
	releaseTimeout   = 5 * time.Second
)

// Option configures Join.
type Option func(*Transport)

// WithLogger sets the logger used for membership and delivery diagnostics.
func WithLogger(logger types.Logger) Option {
	return func(t *Transport) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// Transport is one rank's endpoint into a NATS-backed group.
type Transport struct {
	nc      *nats.Conn
	cfg     Config
	rank    int
	claimer *rankclaim.Claimer
	sub     *nats.Subscription

	// source rank -> payloads in arrival order
	mailboxes *xsync.Map[int, *mailbox]
	byes      chan int

	done      chan struct{}
	closeOnce sync.Once
	closeErr  error

	logger types.Logger
}

var _ comm.Transport = (*Transport)(nil)

// Join claims a rank in the group described by cfg and waits for the whole
// group to become ready.
//
// When it returns successfully every rank of the group is subscribed, so no
// payload sent afterwards is lost. The caller must Close the transport; Close
// waits for every peer to close as well before giving the rank up.
//
// Parameters:
//   - ctx: Bounds the join (JoinTimeout applies when ctx has no deadline)
//   - nc: Connected NATS client with JetStream available
//   - cfg: Group configuration
//   - opts: Optional settings
//
// Returns:
//   - *Transport: Ready endpoint
//   - error: types.ErrInvalidConfig, types.ErrNoAvailableRank, rankclaim.ErrRankTaken,
//     or a NATS/context error
func Join(ctx context.Context, nc *nats.Conn, cfg Config, opts ...Option) (*Transport, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if _, ok := ctx.Deadline(); !ok && cfg.JoinTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.JoinTimeout)
		defer cancel()
	}

	t := &Transport{
		nc:        nc,
		cfg:       cfg,
		rank:      -1,
		mailboxes: xsync.NewMap[int, *mailbox](),
		byes:      make(chan int, cfg.Size),
		done:      make(chan struct{}),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	for src := range cfg.Size {
		t.mailboxes.Store(src, newMailbox(cfg.MailboxSize))
	}

	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	kv, err := kvutil.EnsureBucket(ctx, js, jetstream.KeyValueConfig{
		Bucket:      cfg.RankBucket,
		Description: "divvy rank claims",
		TTL:         cfg.RankTTL,
	}, 0)
	if err != nil {
		return nil, err
	}

	t.claimer = rankclaim.NewClaimer(kv, cfg.Group, cfg.Size, cfg.RankTTL, t.logger)
	if cfg.Rank == AutoRank {
		t.rank, err = t.claimer.Claim(ctx)
	} else {
		t.rank, err = cfg.Rank, t.claimer.ClaimRank(ctx, cfg.Rank)
	}
	if err != nil {
		return nil, err
	}

	if err := t.ready(ctx, kv); err != nil {
		close(t.done)
		if t.sub != nil {
			_ = t.sub.Unsubscribe()
		}
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
		defer cancel()
		if relErr := t.claimer.Release(releaseCtx); relErr != nil {
			t.logger.Warn("failed to release rank after join failure", "rank", t.rank, "error", relErr)
		}

		return nil, err
	}

	t.logger.Info("joined group", "group", cfg.Group, "rank", t.rank, "size", cfg.Size)

	return t, nil
}

// ready subscribes, announces readiness, and waits for every peer.
func (t *Transport) ready(ctx context.Context, kv jetstream.KeyValue) error {
	if err := t.subscribe(ctx); err != nil {
		return err
	}
	if err := t.nc.Flush(); err != nil {
		return fmt.Errorf("failed to flush subscription: %w", err)
	}
	if err := t.claimer.MarkReady(ctx); err != nil {
		return err
	}
	if err := t.claimer.StartRenewal(); err != nil {
		return err
	}

	if err := kvutil.WaitForValues(ctx, kv, t.claimer.Keys(), rankclaim.ValueReady, 0); err != nil {
		return fmt.Errorf("group %s did not become ready: %w", t.cfg.Group, err)
	}

	return nil
}

func (t *Transport) subscribe(ctx context.Context) error {
	subject := t.cfg.subject(t.rank)

	var err error
	for attempt := 0; attempt <= subscribeRetries; attempt++ {
		t.sub, err = t.nc.Subscribe(subject, t.handle)
		if err == nil {
			break
		}
		if !natsutil.IsConnectivityError(err) || attempt == subscribeRetries {
			return fmt.Errorf("failed to subscribe to %s after %d attempts: %w", subject, attempt+1, err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(subscribeBackoff):
		}
	}

	// Mailboxes absorb the backlog, so client-side limits must not drop messages.
	if err := t.sub.SetPendingLimits(-1, -1); err != nil {
		return fmt.Errorf("failed to lift pending limits: %w", err)
	}

	return nil
}

// handle runs on the subscription's single goroutine, which keeps per-source
// order intact. It never blocks: mailboxes are unbounded.
func (t *Transport) handle(msg *nats.Msg) {
	src, err := strconv.Atoi(msg.Header.Get(SourceHeader))
	if err != nil || src < 0 || src >= t.cfg.Size {
		t.logger.Warn("dropping message with bad source", "subject", msg.Subject, "source", msg.Header.Get(SourceHeader))
		return
	}

	if msg.Header.Get(ControlHeader) == controlBye {
		select {
		case t.byes <- src:
		default:
			t.logger.Warn("duplicate bye", "source", src)
		}

		return
	}

	select {
	case <-t.done:
		return
	default:
	}

	mb, _ := t.mailboxes.Load(src)
	if mb.put(msg.Data) {
		t.logger.Warn("mailbox backlog reached its initial capacity", "source", src, "pending", mb.pending())
	}
}

// Rank returns this endpoint's rank.
func (t *Transport) Rank() int { return t.rank }

// Size returns the group size.
func (t *Transport) Size() int { return t.cfg.Size }

// Send publishes payload to rank dest.
func (t *Transport) Send(ctx context.Context, dest int, payload []byte) error {
	if dest < 0 || dest >= t.cfg.Size {
		return fmt.Errorf("%w: dest %d not in [0,%d)", types.ErrRankOutOfRange, dest, t.cfg.Size)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	select {
	case <-t.done:
		return types.ErrClosed
	default:
	}

	return t.publish(dest, payload, "")
}

func (t *Transport) publish(dest int, payload []byte, control string) error {
	msg := nats.NewMsg(t.cfg.subject(dest))
	msg.Header.Set(SourceHeader, strconv.Itoa(t.rank))
	if control != "" {
		msg.Header.Set(ControlHeader, control)
	}
	msg.Data = payload

	if err := t.nc.PublishMsg(msg); err != nil {
		if natsutil.IsClosedError(err) {
			return fmt.Errorf("%w: %w", types.ErrClosed, err)
		}

		return fmt.Errorf("failed to publish to rank %d: %w", dest, err)
	}

	return nil
}

// Recv returns the next payload from rank src.
func (t *Transport) Recv(ctx context.Context, src int) ([]byte, error) {
	if src < 0 || src >= t.cfg.Size {
		return nil, fmt.Errorf("%w: src %d not in [0,%d)", types.ErrRankOutOfRange, src, t.cfg.Size)
	}

	select {
	case <-t.done:
		return nil, types.ErrClosed
	default:
	}

	mb, _ := t.mailboxes.Load(src)
	payload, ok, err := mb.take(ctx, t.done)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, types.ErrClosed
	}

	return payload, nil
}

// Close leaves the group.
//
// It tells every peer this rank is done, waits (bounded by ctx) until every
// peer has said the same, then unsubscribes and releases the rank. A peer that
// never closes only delays Close until ctx expires. Close is idempotent.
func (t *Transport) Close(ctx context.Context) error {
	t.closeOnce.Do(func() {
		close(t.done)
		t.closeErr = t.leave(ctx)
	})

	return t.closeErr
}

func (t *Transport) leave(ctx context.Context) error {
	var errs error

	for dest := range t.cfg.Size {
		if dest == t.rank {
			continue
		}
		errs = multierr.Append(errs, t.publish(dest, nil, controlBye))
	}
	if errs == nil {
		errs = multierr.Append(errs, t.nc.Flush())
	}

	if errs == nil {
		if err := t.awaitByes(ctx); err != nil {
			t.logger.Warn("leaving before every peer closed", "group", t.cfg.Group, "rank", t.rank, "error", err)
		}
	}

	if t.sub != nil {
		errs = multierr.Append(errs, t.sub.Unsubscribe())
	}

	releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()
	if err := t.claimer.Release(releaseCtx); err != nil && !errors.Is(err, rankclaim.ErrNotClaimed) {
		errs = multierr.Append(errs, err)
	}

	t.logger.Info("left group", "group", t.cfg.Group, "rank", t.rank)

	return errs
}

func (t *Transport) awaitByes(ctx context.Context) error {
	seen := make([]bool, t.cfg.Size)
	seen[t.rank] = true
	for missing := t.cfg.Size - 1; missing > 0; {
		select {
		case src := <-t.byes:
			if !seen[src] {
				seen[src] = true
				missing--
			}
		case <-ctx.Done():
			return fmt.Errorf("%d peers still open: %w", missing, ctx.Err())
		}
	}

	return nil
}
