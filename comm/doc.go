// Package comm provides the rank/communicator collaborator used to obtain a
// worker's (index, size) coordinate and to exchange data between workers.
//
// A Comm wraps a point-to-point Transport and layers collectives on top of it.
// Rank 0 is the manager: it roots every collective. Messages between any pair
// of ranks are delivered in send order, so collectives issued in the same
// program order on every rank never mix up.
//
// Transports:
//   - NewSerial: a single rank; every collective is a local no-op
//   - NewLocalGroup / RunLocal: ranks as goroutines in one process
//   - natscomm.Join: ranks as processes connected through NATS
//
// Collectives are blocking and take a context; cancelling it aborts the
// operation on that rank only.
package comm
