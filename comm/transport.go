package comm

import "context"

// Transport moves opaque payloads between ranks of a fixed-size group.
//
// Implementations must deliver messages from one source to one destination in
// the order they were sent, and must be safe for concurrent Send and Recv.
type Transport interface {
	// Rank returns this endpoint's rank in [0, Size()).
	Rank() int

	// Size returns the number of ranks in the group.
	Size() int

	// Send delivers payload to rank dest. It may return before dest receives it.
	Send(ctx context.Context, dest int, payload []byte) error

	// Recv blocks until the next payload from rank src arrives.
	Recv(ctx context.Context, src int) ([]byte, error)

	// Close releases the endpoint. Pending and later calls fail with ErrClosed.
	Close(ctx context.Context) error
}
