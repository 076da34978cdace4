package pathfind

import (
	"math"

	"github.com/specialistvlad/railmap/internal/railgraph"
)

// Cost terms applied on top of the horizontal distance of an edge.
const (
	SecondaryDirectionPenalty = 12.0
	PrimaryReversePenalty     = 20.0
	SecondaryReversePenalty   = 10.0
	SecondaryPreferredPenalty = 6.0
	DensityWeight             = 0.5
	// MaxBonusShare caps the density bonus relative to the base cost.
	MaxBonusShare = 0.5
)

// baseCost is the non-negative part of an edge's cost.
func baseCost(g *railgraph.Graph, from, to railgraph.NodeID) float64 {
	a, b := g.Position(from), g.Position(to)
	dx := float64(b.X - a.X)
	dz := float64(b.Z - a.Z)
	cost := math.Hypot(dx, dz)

	c, ok := g.Connection(from, to)
	if !ok {
		return cost
	}
	if c.SecondaryDirection {
		cost += SecondaryDirectionPenalty
	}
	curve := c.PreferredCurve()
	if curve == nil {
		return cost
	}
	if c.Preferred == railgraph.VariantSecondary {
		cost += SecondaryPreferredPenalty
		if curve.Reverse {
			cost += SecondaryReversePenalty
		}
	} else if curve.Reverse {
		cost += PrimaryReversePenalty
	}
	return cost
}

// densityBonus is the reuse discount for an edge with the given base cost.
func densityBonus(base, density float64) float64 {
	if density <= 0 {
		return 0
	}
	bonus := DensityWeight * math.Log1p(density)
	if limit := base * MaxBonusShare; bonus > limit {
		return limit
	}
	return bonus
}

// EdgeCost returns the full traversal cost of from -> to at the given density.
func EdgeCost(g *railgraph.Graph, from, to railgraph.NodeID, density float64) float64 {
	base := baseCost(g, from, to)
	return base - densityBonus(base, density)
}
