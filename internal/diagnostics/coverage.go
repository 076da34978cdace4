package diagnostics

import "github.com/specialistvlad/railmap/internal/model"

// CoverageStats counts curve metadata across an edge list.
type CoverageStats struct {
	Total         int `json:"total"`
	Primary       int `json:"primary"`
	Secondary     int `json:"secondary"`
	AnyCurve      int `json:"anyCurve"`
	NoCurve       int `json:"noCurve"`
	Straight      int `json:"straight"`
	VerticalCurve int `json:"verticalCurve"`
}

// CurveCoverage counts, over edges, the segments with a primary, secondary or
// any curve, those with none, the straight ones and those with a vertical
// curve radius.
func CurveCoverage(edges []model.EdgeRecord) CoverageStats {
	var s CoverageStats
	for _, e := range edges {
		s.Total++
		if e.Primary != nil {
			s.Primary++
		}
		if e.Secondary != nil {
			s.Secondary++
		}
		if e.Primary != nil || e.Secondary != nil {
			s.AnyCurve++
		} else {
			s.NoCurve++
		}
		if (e.Primary != nil && e.Primary.Straight) || (e.Secondary != nil && e.Secondary.Straight) {
			s.Straight++
		}
		if e.VerticalCurveRadius != 0 {
			s.VerticalCurve++
		}
	}
	return s
}
