package divvy

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/arloliu/divvy/comm"
	"github.com/arloliu/divvy/internal/logging"
	"github.com/arloliu/divvy/internal/metrics"
	"github.com/arloliu/divvy/partition"
	"github.com/arloliu/divvy/timekeeper"
	"github.com/arloliu/divvy/types"
)

// Clock names recorded on the Job's TimeKeeper.
const (
	ClockConsistency = "consistency-check"
	ClockShare       = "share"
	ClockScatter     = "scatter"
)

// Job binds a communicator to a partition policy.
//
// A Job holds no per-call state; one Job may serve many Share calls, but
// calls involving collectives must be made in the same order on every rank.
type Job struct {
	comm             *comm.Comm
	kind             Kind
	logger           Logger
	metrics          MetricsCollector
	tk               *timekeeper.TimeKeeper
	consistencyCheck bool
}

// NewJob creates a Job.
//
// Parameters:
//   - c: Communicator giving this process its (index, size)
//   - kind: Partition policy
//   - opts: Optional dependencies (WithLogger, WithMetrics, WithTimeKeeper, WithConsistencyCheck)
//
// Returns:
//   - *Job: Ready job
//
// Example:
//
//	job := divvy.NewJob(comm.NewSerial(), divvy.KindWeightBalanced)
func NewJob(c *comm.Comm, kind Kind, opts ...Option) *Job {
	o := jobOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logging.NewNop()
	}
	if o.metrics == nil {
		o.metrics = metrics.NewNop()
	}
	if o.timeKeeper == nil {
		o.timeKeeper = timekeeper.New()
	}

	return &Job{
		comm:             c,
		kind:             kind,
		logger:           o.logger,
		metrics:          o.metrics,
		tk:               o.timeKeeper,
		consistencyCheck: o.consistencyCheck,
	}
}

// NewJobFromConfig creates a Job from the policy and consistency settings of cfg.
//
// Options given in opts override the configured ones.
func NewJobFromConfig(c *comm.Comm, cfg *Config, opts ...Option) (*Job, error) {
	kind, err := cfg.Kind()
	if err != nil {
		return nil, err
	}

	all := append([]Option{WithConsistencyCheck(cfg.ConsistencyCheck)}, opts...)

	return NewJob(c, kind, all...), nil
}

// Comm returns the job's communicator.
func (j *Job) Comm() *comm.Comm { return j.comm }

// Kind returns the job's policy kind.
func (j *Job) Kind() Kind { return j.kind }

// TimeKeeper returns the clocks the job records into.
func (j *Job) TimeKeeper() *timekeeper.TimeKeeper { return j.tk }

// Share returns this rank's share of data.
//
// Every rank passes the full input; the share is computed locally from the
// communicator's (rank, size). With the consistency check enabled, ranks first
// agree that they all hold the same input.
//
// Returns:
//   - Sequence[T]: This rank's share
//   - error: ErrWeightsRequired for weighted kinds, ErrInconsistentInput,
//     policy errors, or communicator errors
//
// Example:
//
//	mine, err := divvy.Share(ctx, job, types.SliceOf(files))
func Share[T any](ctx context.Context, j *Job, data Sequence[T]) (Sequence[T], error) {
	policy, err := partition.For[T](j.kind)
	if err != nil {
		return nil, j.fail(err)
	}

	return share(ctx, j, data, policy.Share)
}

// ShareWeighted returns this rank's share of weighted data.
//
// Plain kinds partition the items by position and ignore the weights.
func ShareWeighted[V any, W types.Weight](ctx context.Context, j *Job, data Sequence[Weighted[V, W]]) (Sequence[V], error) {
	policy, err := partition.ForWeighted[V, W](j.kind)
	if err != nil {
		return nil, j.fail(err)
	}

	return share(ctx, j, data, policy.Share)
}

func share[In, Out any](ctx context.Context, j *Job, data Sequence[In], fn func(Sequence[In], int, int) (Sequence[Out], error)) (Sequence[Out], error) {
	if j.consistencyCheck {
		err := j.tk.Measure(ClockConsistency, func() error {
			return j.agree(ctx, Fingerprint(data))
		})
		if err != nil {
			return nil, j.fail(err)
		}
	}

	start := time.Now()
	j.tk.Start(ClockShare)
	out, err := fn(data, j.comm.Rank(), j.comm.Size())
	j.tk.Stop(ClockShare)
	if err != nil {
		return nil, j.fail(err)
	}

	j.metrics.RecordShare(j.kind.String(), out.Len(), time.Since(start).Seconds())
	j.logger.Debug("share computed",
		"policy", j.kind.String(),
		"rank", j.comm.Rank(),
		"size", j.comm.Size(),
		"items", out.Len(),
		"total", data.Len(),
	)

	return out, nil
}

// agree checks that every rank computed the manager's fingerprint.
func (j *Job) agree(ctx context.Context, fp uint64) error {
	var payload []byte
	if j.comm.IsManager() {
		payload = binary.BigEndian.AppendUint64(nil, fp)
	}

	got, err := j.comm.Broadcast(ctx, payload)
	if err != nil {
		return err
	}

	vote := 0.0
	if len(got) == 8 && binary.BigEndian.Uint64(got) == fp {
		vote = 1
	}

	all, err := j.comm.AllReduce(ctx, vote, comm.OpAll)
	if err != nil {
		return err
	}
	if all == 0 {
		if vote == 0 {
			return fmt.Errorf("%w: rank %d fingerprint %016x differs from the manager's", ErrInconsistentInput, j.comm.Rank(), fp)
		}

		return fmt.Errorf("%w: another rank's fingerprint differs from the manager's", ErrInconsistentInput)
	}

	return nil
}

// Plan returns every worker's share of data, as computed on the manager.
//
// Returns:
//   - []Sequence[T]: Share of rank i at position i
//   - error: ErrNotManager on any other rank, or the policy error
func Plan[T any](j *Job, data Sequence[T]) ([]Sequence[T], error) {
	if !j.comm.IsManager() {
		return nil, fmt.Errorf("%w: rank %d", ErrNotManager, j.comm.Rank())
	}

	policy, err := partition.For[T](j.kind)
	if err != nil {
		return nil, err
	}

	return partition.Plan(policy, data, j.comm.Size())
}

// scatterEnvelope is the wire format of one scattered share.
type scatterEnvelope[T any] struct {
	Items []T    `json:"items"`
	Error string `json:"error,omitempty"`
}

// Scatter has the manager compute every share of data and send each rank its own.
//
// Only the manager's data is read; other ranks may pass nil. When involved is
// false the manager keeps nothing and the input is split over the size-1
// other ranks (rank r receives share r-1). Items travel as JSON, so T must
// round-trip through encoding/json.
//
// Before sending, the manager verifies that the shares cover every item
// exactly once (except for the duplicate policy). A failure on the manager is
// reported to every rank, which then returns ErrPeerFailed.
//
// Returns:
//   - Sequence[T]: This rank's share (empty for an uninvolved manager)
//   - error: ErrOutOfRange when no rank would receive work, ErrPeerFailed,
//     policy or communicator errors
func Scatter[T any](ctx context.Context, j *Job, data Sequence[T], involved bool) (Sequence[T], error) {
	return scatter(ctx, j, involved, func(workers int) ([]Sequence[T], error) {
		policy, err := partition.For[T](j.kind)
		if err != nil {
			return nil, err
		}
		shares, err := partition.Plan(policy, data, workers)
		if err != nil {
			return nil, err
		}

		posPolicy, _ := partition.For[int](j.kind)
		positions, err := partition.Plan(posPolicy, partition.Positions(data.Len()), workers)
		if err != nil {
			return nil, err
		}

		return shares, j.checkCoverage(positions, data.Len())
	})
}

// ScatterWeighted is Scatter for weighted data; only the values are sent.
func ScatterWeighted[V any, W types.Weight](ctx context.Context, j *Job, data Sequence[Weighted[V, W]], involved bool) (Sequence[V], error) {
	return scatter(ctx, j, involved, func(workers int) ([]Sequence[V], error) {
		policy, err := partition.ForWeighted[V, W](j.kind)
		if err != nil {
			return nil, err
		}
		shares, err := partition.PlanWeighted(policy, data, workers)
		if err != nil {
			return nil, err
		}

		n := data.Len()
		weightedPos := make([]Weighted[int, W], n)
		for i := range n {
			weightedPos[i] = Weighted[int, W]{Value: i, Weight: data.At(i).Weight}
		}
		posPolicy, _ := partition.ForWeighted[int, W](j.kind)
		positions, err := partition.PlanWeighted(posPolicy, types.SliceOf(weightedPos), workers)
		if err != nil {
			return nil, err
		}

		return shares, j.checkCoverage(positions, n)
	})
}

func (j *Job) checkCoverage(positions []Sequence[int], n int) error {
	if j.kind == KindDuplicate {
		return nil
	}

	shares := make([][]int, len(positions))
	for i, p := range positions {
		shares[i] = types.Collect(p)
	}

	return partition.CheckCoverage(shares, n)
}

func scatter[T any](ctx context.Context, j *Job, involved bool, plan func(workers int) ([]Sequence[T], error)) (Sequence[T], error) {
	j.tk.Start(ClockScatter)
	defer j.tk.Stop(ClockScatter)
	start := time.Now()

	size := j.comm.Size()
	workers, offset := size, 0
	if !involved {
		workers, offset = size-1, 1
	}
	if workers < 1 {
		return nil, j.fail(fmt.Errorf("%w: scatter without the manager needs at least 2 ranks, have %d", ErrOutOfRange, size))
	}

	if !j.comm.IsManager() {
		out, err := receiveShare[T](ctx, j)
		if err != nil {
			return nil, j.fail(err)
		}
		j.metrics.RecordShare(j.kind.String(), out.Len(), time.Since(start).Seconds())

		return out, nil
	}

	shares, planErr := plan(workers)
	payloads := make([][]byte, size)
	if planErr == nil {
		for rank := offset; rank < size; rank++ {
			payload, err := json.Marshal(scatterEnvelope[T]{Items: types.Collect(shares[rank-offset])})
			if err != nil {
				planErr = fmt.Errorf("failed to encode share of rank %d: %w", rank, err)
				break
			}
			payloads[rank] = payload
		}
	}
	if planErr != nil {
		report, _ := json.Marshal(scatterEnvelope[T]{Error: planErr.Error()})
		for rank := range payloads {
			payloads[rank] = report
		}
	}

	for rank := 1; rank < size; rank++ {
		if err := j.comm.SendTo(ctx, rank, payloads[rank]); err != nil {
			return nil, j.fail(fmt.Errorf("failed to send share to rank %d: %w", rank, err))
		}
	}

	if planErr != nil {
		return nil, j.fail(planErr)
	}

	out := types.SliceOf([]T{})
	if involved {
		out = shares[0]
	}
	j.metrics.RecordShare(j.kind.String(), out.Len(), time.Since(start).Seconds())
	j.logger.Debug("shares scattered", "policy", j.kind.String(), "workers", workers, "involved", involved)

	return out, nil
}

func receiveShare[T any](ctx context.Context, j *Job) (Sequence[T], error) {
	payload, err := j.comm.RecvFrom(ctx, comm.ManagerRank)
	if err != nil {
		return nil, err
	}

	var env scatterEnvelope[T]
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("failed to decode share: %w", err)
	}
	if env.Error != "" {
		return nil, fmt.Errorf("%w: manager: %s", ErrPeerFailed, env.Error)
	}
	if env.Items == nil {
		env.Items = []T{}
	}

	return types.SliceOf(env.Items), nil
}

// fail records err and returns it unchanged.
func (j *Job) fail(err error) error {
	reason := failureReason(err)
	j.metrics.RecordShareError(j.kind.String(), reason)
	j.logger.Warn("share failed", "policy", j.kind.String(), "rank", j.comm.Rank(), "reason", reason, "error", err)

	return err
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrOutOfRange):
		return "out_of_range"
	case errors.Is(err, ErrInvalidWeight):
		return "invalid_weight"
	case errors.Is(err, ErrWeightsRequired):
		return "weights_required"
	case errors.Is(err, ErrUnknownPolicy):
		return "unknown_policy"
	case errors.Is(err, ErrInconsistentInput):
		return "inconsistent_input"
	case errors.Is(err, ErrIncompletePartition):
		return "incomplete_partition"
	case errors.Is(err, ErrPeerFailed):
		return "peer_failed"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "comm"
	}
}
