// Package railgraph builds the undirected rail position graph of one compute
// scope and resolves platform endpoints onto it.
//
// # Representation
//
// Nodes live in an arena: a NodeID is an index into a slice, and a
// map[model.Position]NodeID resolves coordinates once at the edges of the
// package. Adjacency is a per-node slice of neighbour ids with set semantics.
//
// Every physical rail is stored twice in the connection map, once per
// direction, keyed by (from, to). The declared direction keeps the metadata
// from the payload; the opposite direction carries the reversed form (see
// Connection.Reversed) so traversal cost and curve orientation are always
// direction-aware.
//
// # Snapping
//
// Platform endpoints rarely sit exactly on a rail node. Snapper indexes nodes
// by their (x, z) column and searches square rings of growing radius around an
// endpoint's column, choosing the candidate whose elevation is closest to the
// endpoint's. Results are deterministic for identical input.
package railgraph
