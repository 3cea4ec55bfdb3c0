// Package metrics stores the engine's counters and the confirm latency
// histogram.
//
// A Set is sized once with the number of metric ids the govauth package
// defines. Each slot sits on its own cache line and is updated with atomic
// adds, so Inc and Observe never allocate or lock. The histogram has eight
// fixed buckets from 5ms to +Inf.
//
// Ids and names belong to govauth and metrics/export/internaldefs. This
// package imports neither and does no I/O.
package metrics
