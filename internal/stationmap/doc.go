// Package stationmap aggregates route snapshots into per-station "lines
// through here" summaries.
//
// Routes serving a station are grouped by line key, the display name with
// qualifiers removed (text after "||", then after "|"). A named line whose
// routes sit in geographically separate areas is split into buckets: each
// route joins the bucket whose bounds centre is nearest, provided it is
// within the split distance, and starts a new bucket otherwise.
package stationmap
