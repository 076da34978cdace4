package railgraph

import (
	"github.com/specialistvlad/railmap/internal/model"
	"github.com/specialistvlad/railmap/internal/payload"
)

// CurveVariant selects one of the two arc descriptors of a connection.
type CurveVariant uint8

const (
	VariantNone CurveVariant = iota
	VariantPrimary
	VariantSecondary
)

func (v CurveVariant) String() string {
	switch v {
	case VariantPrimary:
		return "primary"
	case VariantSecondary:
		return "secondary"
	}
	return ""
}

// Curve is an arc descriptor: centre (H, K), radius R and parametric angle range.
type Curve struct {
	H        float64
	K        float64
	R        float64
	TStart   float64
	TEnd     float64
	Reverse  bool
	Straight bool
}

func curveFromPayload(c *payload.Curve) *Curve {
	if c == nil {
		return nil
	}
	return &Curve{H: c.H, K: c.K, R: c.R, TStart: c.TStart, TEnd: c.TEnd, Reverse: c.Reverse, Straight: c.Straight}
}

func (c *Curve) flipped() *Curve {
	if c == nil {
		return nil
	}
	out := *c
	out.Reverse = !c.Reverse
	return &out
}

func (c *Curve) info() *model.CurveInfo {
	if c == nil {
		return nil
	}
	return &model.CurveInfo{H: c.H, K: c.K, R: c.R, TStart: c.TStart, TEnd: c.TEnd, Reverse: c.Reverse, Straight: c.Straight}
}

// Connection is the directional metadata of one traversal of a rail.
type Connection struct {
	To                  NodeID
	RailType            string
	TransportMode       string
	YStart              float64
	YEnd                float64
	VerticalCurveRadius float64
	SecondaryDirection  bool
	Primary             *Curve
	Secondary           *Curve
	Preferred           CurveVariant
}

// preferredVariant picks the first forward-traversable curve, defaulting to primary.
func preferredVariant(primary, secondary *Curve) CurveVariant {
	switch {
	case primary != nil && !primary.Reverse:
		return VariantPrimary
	case secondary != nil && !secondary.Reverse:
		return VariantSecondary
	case primary != nil:
		return VariantPrimary
	case secondary != nil:
		return VariantSecondary
	}
	return VariantNone
}

// PreferredCurve returns the curve selected by Preferred, or nil.
func (c *Connection) PreferredCurve() *Curve {
	switch c.Preferred {
	case VariantPrimary:
		return c.Primary
	case VariantSecondary:
		return c.Secondary
	}
	return nil
}

// Reversed returns the metadata for traversing the same rail the other way:
// elevations swap and each curve's reverse flag flips. Everything else is kept.
func (c *Connection) Reversed(to NodeID) Connection {
	out := *c
	out.To = to
	out.YStart, out.YEnd = c.YEnd, c.YStart
	out.Primary = c.Primary.flipped()
	out.Secondary = c.Secondary.flipped()
	out.Preferred = preferredVariant(out.Primary, out.Secondary)
	return out
}
