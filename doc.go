// Package divvy decides which items of a globally ordered input each of a
// fixed number of parallel workers owns.
//
// The partitioning itself lives in the partition package: five stateless
// policies that map (data, index, size) to the share of worker index. Every
// worker calls the same policy with the same data and its own index, and the
// shares together cover the input according to the policy's contract. No
// coordination is needed for that.
//
// This package adds the orchestration around the policies: a Job binds a
// communicator (comm.Comm), a policy kind, logging, metrics, and named clocks,
// and offers:
//
//   - Share / ShareWeighted: each rank computes its own share, optionally after
//     checking that every rank holds the same input
//   - Scatter / ScatterWeighted: the manager rank computes every share and
//     sends each worker its own
//
// # Quick Start
//
// Pure partitioning, no communication:
//
//	policy, _ := partition.For[string](partition.KindEqualLength)
//	mine, err := policy.Share(types.SliceOf(files), index, size)
//
// In-process group:
//
//	err := comm.RunLocal(ctx, 4, func(ctx context.Context, c *comm.Comm) error {
//	    job := divvy.NewJob(c, partition.KindEqualStride)
//	    mine, err := divvy.Share(ctx, job, types.SliceOf(files))
//	    ...
//	})
//
// Across processes over NATS:
//
//	tr, err := natstransport.Join(ctx, nc, cfg.NATS.Transport())
//	job := divvy.NewJob(comm.New(tr), kind, divvy.WithConsistencyCheck(true))
//	mine, err := divvy.ShareWeighted(ctx, job, rows)
//
// # Policies
//
//   - duplicate: every worker gets everything
//   - equal-length: contiguous blocks whose lengths differ by at most one
//   - equal-stride: item i goes to worker i mod size
//   - sorted-stride: equal-stride over items sorted by ascending weight
//   - weight-balanced: greedy assignment to the least-loaded worker
//
// # Configuration
//
// Config carries yaml tags and can be loaded with LoadConfig; see
// DefaultConfig for defaults.
package divvy
