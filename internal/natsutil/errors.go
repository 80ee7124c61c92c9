// Package natsutil classifies NATS client errors for transport code.
package natsutil

import (
	"errors"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// transient errors may clear up once the client reconnects.
var transient = []error{
	nats.ErrTimeout,
	nats.ErrNoServers,
	nats.ErrDisconnected,
	nats.ErrConnectionReconnecting,
	jetstream.ErrNoStreamResponse,
}

// transientText matches dial failures that reach us as plain net errors.
var transientText = []string{"connection refused", "i/o timeout"}

// IsConnectivityError reports whether err is a transient connectivity failure
// worth retrying. A closed or draining connection is not transient.
func IsConnectivityError(err error) bool {
	if err == nil || IsClosedError(err) {
		return false
	}

	for _, target := range transient {
		if errors.Is(err, target) {
			return true
		}
	}

	msg := err.Error()
	for _, s := range transientText {
		if strings.Contains(msg, s) {
			return true
		}
	}

	return false
}

// IsClosedError reports whether err means the connection is gone for good.
func IsClosedError(err error) bool {
	return errors.Is(err, nats.ErrConnectionClosed) || errors.Is(err, nats.ErrConnectionDraining)
}
