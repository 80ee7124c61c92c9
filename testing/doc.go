// Package testing provides test utilities for the divvy library.
//
// It follows Go's convention of shipping testing helpers in a dedicated
// package (similar to net/http/httptest).
//
// Key utilities:
//   - StartEmbeddedNATS: Single NATS server with JetStream
//   - CreateJetStreamKV: Convenience wrapper for KV bucket creation
//   - NewTestLogger: types.Logger writing through t.Logf
//
// Example usage:
//
//	import (
//	    "testing"
//	    divvytest "github.com/arloliu/divvy/testing"
//	)
//
//	func TestGroup(t *testing.T) {
//	    _, nc := divvytest.StartEmbeddedNATS(t)
//	    // Use nc for your tests
//	}
package testing
