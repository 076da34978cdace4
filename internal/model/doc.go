// Package model defines the domain types shared by every stage of the rail
// map pipeline: compute scopes and their status rows, the normalised route,
// platform and station records read from the source store, and the route
// geometry and station map snapshots written back to the snapshot store.
//
// The types in this package carry no behaviour beyond small helpers. Raw
// payload decoding lives in internal/payload, graph construction in
// internal/railgraph.
package model
