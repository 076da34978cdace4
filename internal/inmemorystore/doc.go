// Package inmemorystore provides an ephemeral, thread-safe, in-memory
// implementation of the store.SourceStore and store.SnapshotStore interfaces.
// It is suitable for development, tests and single-process runs that replay
// a dataset from disk.
//
// # Concurrency Model
//
// Source rows are written rarely (fixtures, replayed exports) and read in
// bulk, so they sit behind a sync.RWMutex.
//
// Snapshots and scope rows live in sync.Maps keyed per scope and entity.
// The scope claim maps directly onto sync.Map primitives:
//   - **Insert:** LoadOrStore; finding an existing row is the lost race
//   - **Conditional update:** CompareAndSwap against the row that was read;
//     a concurrent change makes the swap fail, which is also a lost race
package inmemorystore
