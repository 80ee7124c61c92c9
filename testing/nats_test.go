package testing

import (
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/require"
)

func TestStartEmbeddedNATS(t *testing.T) {
	ns, nc := StartEmbeddedNATS(t)

	require.NotNil(t, ns)
	require.True(t, nc.IsConnected())
	require.True(t, ns.ReadyForConnections(1*time.Second))

	js, err := jetstream.New(nc)
	require.NoError(t, err)

	_, err = js.AccountInfo(t.Context())
	require.NoError(t, err, "JetStream must be enabled")
}

func TestStartEmbeddedNATS_ParallelTests(t *testing.T) {
	t.Parallel()

	for range 3 {
		t.Run("parallel", func(t *testing.T) {
			t.Parallel()

			_, nc := StartEmbeddedNATS(t)
			require.True(t, nc.IsConnected())
		})
	}
}

func TestConnect_SecondClient(t *testing.T) {
	ns, nc := StartEmbeddedNATS(t)
	other := Connect(t, ns)

	sub, err := other.SubscribeSync("divvy.test")
	require.NoError(t, err)
	require.NoError(t, other.Flush())

	require.NoError(t, nc.Publish("divvy.test", []byte("hello")))
	msg, err := sub.NextMsg(2 * time.Second)
	require.NoError(t, err)
	require.Equal(t, "hello", string(msg.Data))
}

func TestCreateJetStreamKV(t *testing.T) {
	_, nc := StartEmbeddedNATS(t)
	kv := CreateJetStreamKV(t, nc, "test-bucket")

	_, err := kv.Put(t.Context(), "key", []byte("value"))
	require.NoError(t, err)

	entry, err := kv.Get(t.Context(), "key")
	require.NoError(t, err)
	require.Equal(t, "value", string(entry.Value()))
}
