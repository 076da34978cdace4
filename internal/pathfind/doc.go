// Package pathfind finds routes through a rail graph.
//
// A route is an ordered list of stop groups, each group being the snapped
// nodes of one platform. Consecutive groups are joined by a multi-source,
// multi-target Dijkstra search; the first segment is seeded with every node of
// the first group, later segments continue from the node the previous segment
// arrived at so the stitched path stays continuous.
//
// Edge cost is the horizontal distance plus direction and curve penalties,
// minus a bonus for edges other routes of the same scope already use. The
// bonus is capped at half of the edge's base cost, so costs stay non-negative
// and the search remains exact while still bundling parallel services onto
// shared track.
//
// A Finder is safe for concurrent use. Its density table is shared by all
// searches and grows as segments complete.
package pathfind
