// Package types provides core type definitions and interfaces for the divvy library.
//
// This package contains shared types that are used across multiple packages in the
// divvy library. By keeping these types in a separate package, we avoid import cycles
// between the main divvy package and its internal implementations.
//
// Key types:
//   - Sequence: Ordered, length-known, index-and-slice-addressable container
//   - Weighted: A (value, weight) pair consumed by weight-aware policies
//   - Logger: Structured logging interface
//   - MetricsCollector: Metrics recording interface
package types
