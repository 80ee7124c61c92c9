// Package kvutil provides helpers for NATS JetStream KeyValue buckets.
package kvutil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

const (
	defaultMaxRetries   = 3
	defaultPollInterval = 50 * time.Millisecond
)

// EnsureBucket creates a KV bucket, or opens it when another rank created it first.
//
// Every rank of a group calls this concurrently at startup, so ErrBucketExists
// is expected. Transient failures are retried with exponential backoff
// (10ms, 20ms, 40ms, ...).
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - js: JetStream context
//   - config: Bucket configuration
//   - maxRetries: Attempts before giving up (defaults to 3 when <= 0)
//
// Returns:
//   - jetstream.KeyValue: The bucket handle
//   - error: Last error after all attempts, or the context error
func EnsureBucket(ctx context.Context, js jetstream.JetStream, config jetstream.KeyValueConfig, maxRetries int) (jetstream.KeyValue, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	var lastErr error
	for attempt := range maxRetries {
		kv, err := js.CreateKeyValue(ctx, config)
		if err == nil {
			return kv, nil
		}

		if errors.Is(err, jetstream.ErrBucketExists) {
			kv, openErr := js.KeyValue(ctx, config.Bucket)
			if openErr == nil {
				return kv, nil
			}
			lastErr = fmt.Errorf("bucket exists but failed to open: %w", openErr)
		} else {
			lastErr = err
		}

		if ctx.Err() != nil {
			return nil, fmt.Errorf("context cancelled during KV bucket creation: %w", ctx.Err())
		}

		if attempt < maxRetries-1 {
			backoff := time.Duration(1<<uint(attempt)) * 10 * time.Millisecond //nolint:gosec // attempt is bounded by maxRetries
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	return nil, fmt.Errorf("failed to create/open KV bucket %s after %d attempts: %w", config.Bucket, maxRetries, lastErr)
}

// WaitForValues polls until every key holds want.
//
// Missing keys are treated as "not yet"; any other KV error aborts the wait.
//
// Parameters:
//   - ctx: Bounds the wait
//   - kv: Bucket to poll
//   - keys: Keys that must all hold want
//   - want: Expected value
//   - interval: Poll interval (defaults to 50ms when <= 0)
//
// Returns:
//   - error: nil once all keys match, the context error on timeout, or a KV error
func WaitForValues(ctx context.Context, kv jetstream.KeyValue, keys []string, want []byte, interval time.Duration) error {
	if interval <= 0 {
		interval = defaultPollInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	pending := append([]string(nil), keys...)
	for {
		remaining := pending[:0]
		for _, key := range pending {
			entry, err := kv.Get(ctx, key)
			switch {
			case err != nil && ctx.Err() != nil:
				return fmt.Errorf("waiting for key %s: %w", key, ctx.Err())
			case errors.Is(err, jetstream.ErrKeyNotFound):
				remaining = append(remaining, key)
			case err != nil:
				return fmt.Errorf("failed to read key %s: %w", key, err)
			case !bytes.Equal(entry.Value(), want):
				remaining = append(remaining, key)
			}
		}
		pending = remaining
		if len(pending) == 0 {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for %d keys (first %s): %w", len(pending), pending[0], ctx.Err())
		case <-ticker.C:
		}
	}
}
