// Package partition provides the built-in share policies.
//
// A policy answers "which items of this globally ordered input does worker
// index of size own?" Every worker evaluates the same pure function on the
// same input and obtains a share that is consistent with every other
// worker's share, without any communication. The package includes five
// policies:
//
//   - Duplicate: every worker receives the whole input
//   - EqualLength: contiguous blocks, lengths differ by at most one, longer blocks first
//   - EqualStride: round-robin; worker index owns positions index, index+size, ...
//   - SortedStride: ascending-weight order, then round-robin
//   - WeightBalanced: greedy heaviest-first bin packing onto the lightest worker
//
// # Policy Selection Guide
//
// Duplicate:
//   - Use for shared metadata every worker must see
//
// EqualLength:
//   - Use when neighbouring items should stay together (file ranges, time windows)
//
// EqualStride:
//   - Use when cost drifts with position and blocks would be lopsided
//
// SortedStride:
//   - Use when weights are known and similar-cost items should be interleaved
//
// WeightBalanced:
//   - Use when weights vary widely and cumulative load per worker matters most
//
// # Determinism
//
// Weight-aware policies order items by an explicit (weight, position) key, so
// equal weights always keep their input order regardless of the sort
// algorithm. WeightBalanced breaks load ties towards the lowest worker index.
// Changing either rule changes every worker's share, so both are fixed.
//
// All policies are stateless and safe for concurrent use. They perform no I/O
// and never log; errors are returned unchanged to the caller.
package partition
