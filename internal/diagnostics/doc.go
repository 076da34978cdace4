// Package diagnostics explains why a route's geometry looks the way it does.
//
// # Connectivity
//
// Components partitions the rail graph into connected components by
// breadth-first search. RouteConnectivity maps a route's snapped platforms
// onto those components; consecutive stops with no component in common cannot
// reach each other, and the nearest node pair across the gap is reported so an
// operator can find the missing rail.
//
// # Curve Coverage
//
// CurveCoverage counts how much of a persisted edge list carries curve
// metadata, which is the main input the renderer needs.
//
// # Rail Jobs
//
// Service computes a per-rail report for one route on demand and keeps it in
// a single-entry cache with a fixed time-to-live:
//   - **Start:** StartRailJob computes the report and replaces any previous job
//   - **Read:** Page filters and paginates the cached entries; nothing is
//     recomputed per page
//   - **Expiry:** checked lazily against an injected clock on read
package diagnostics
