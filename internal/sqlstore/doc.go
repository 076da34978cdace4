// Package sqlstore implements store.SourceStore and store.SnapshotStore on a
// relational database through gorm. SQLite (pure Go driver) and PostgreSQL
// are supported.
//
// # Tables
//
//   - **source_records:** the synchronised rows, one per (scope, kind, entity),
//     with the raw payload kept as JSON and the update time as unix ms
//   - **compute_scopes:** one status row per scope
//   - **route_snapshots / station_snapshots:** derived rows, fully replaced on
//     every write
//
// # Claim
//
// ClaimScope never locks. A missing row is inserted with ON CONFLICT DO
// NOTHING; an existing row is updated only if it still matches the row that
// was read. In both cases zero affected rows means another claimer won.
package sqlstore
