package testing

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/require"
)

const (
	serverReadyTimeout = 5 * time.Second
	connectTimeout     = 2 * time.Second
	testBucketTTL      = time.Minute
)

var connSeq atomic.Int64

// StartEmbeddedNATS starts an in-process JetStream server and connects to it.
//
// The server binds a random loopback port and keeps its store in t.TempDir().
// Server and connection are torn down by t.Cleanup.
//
// Example:
//
//	func TestJoin(t *testing.T) {
//	    ns, nc := divvytest.StartEmbeddedNATS(t)
//	    other := divvytest.Connect(t, ns)
//	}
func StartEmbeddedNATS(t testing.TB) (*server.Server, *nats.Conn) {
	t.Helper()

	ns, err := server.NewServer(&server.Options{
		Host:      "127.0.0.1",
		Port:      -1,
		JetStream: true,
		StoreDir:  t.TempDir(),
		NoLog:     true,
		NoSigs:    true,
	})
	require.NoError(t, err, "create embedded NATS server")

	go ns.Start()
	t.Cleanup(func() {
		ns.Shutdown()
		ns.WaitForShutdown()
	})

	require.True(t, ns.ReadyForConnections(serverReadyTimeout), "embedded NATS server not ready")

	return ns, Connect(t, ns)
}

// Connect opens one more client connection to ns.
//
// Each simulated rank of a group holds its own connection, as separate
// processes would. Connections are named "divvy-test-<n>" for server-side
// debugging.
func Connect(t testing.TB, ns *server.Server) *nats.Conn {
	t.Helper()

	nc, err := nats.Connect(ns.ClientURL(),
		nats.Name(fmt.Sprintf("divvy-test-%d", connSeq.Add(1))),
		nats.Timeout(connectTimeout),
		nats.MaxReconnects(3),
	)
	require.NoError(t, err, "connect to embedded NATS server")

	// Cleanups run LIFO, so the connection closes before the server stops.
	t.Cleanup(nc.Close)

	return nc
}

// CreateJetStreamKV creates an in-memory, single-replica KV bucket whose
// entries expire after a minute.
func CreateJetStreamKV(t testing.TB, nc *nats.Conn, bucket string) jetstream.KeyValue {
	t.Helper()

	js, err := jetstream.New(nc)
	require.NoError(t, err, "open JetStream")

	kv, err := js.CreateKeyValue(t.Context(), jetstream.KeyValueConfig{
		Bucket:   bucket,
		TTL:      testBucketTTL,
		Storage:  jetstream.MemoryStorage,
		Replicas: 1,
	})
	require.NoErrorf(t, err, "create KV bucket %s", bucket)

	return kv
}
