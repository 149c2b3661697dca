package sweep

import (
	"math"
	"sort"

	"go.viam.com/rdk/logging"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/RAVEN-GP/raven-sim/utils"
)

// PlanStats summarizes the viewpoint coverage of a planned sweep. The numbers
// are advisory: a degenerate plan still runs, it just produces a poor dataset.
type PlanStats struct {
	PosesPerObject int
	AngleSpanDeg   float64
	AngleStdDeg    float64
	MinAngleGapDeg float64
	HeightSpreadM  float64
}

// AnalyzePlan computes coverage statistics for the given parameters.
func AnalyzePlan(p Params) PlanStats {
	s := PlanStats{PosesPerObject: len(p.Heights) * len(p.Angles)}

	if len(p.Angles) > 0 {
		deg := make([]float64, len(p.Angles))
		for i, a := range p.Angles {
			deg[i] = utils.RadiansToDegrees(a)
		}
		sort.Float64s(deg)
		s.AngleSpanDeg = floats.Max(deg) - floats.Min(deg)
		if len(deg) > 1 {
			s.AngleStdDeg = stat.StdDev(deg, nil)
			s.MinAngleGapDeg = math.Inf(1)
			for i := 1; i < len(deg); i++ {
				if gap := deg[i] - deg[i-1]; gap < s.MinAngleGapDeg {
					s.MinAngleGapDeg = gap
				}
			}
		}
	}

	if len(p.Heights) > 0 {
		s.HeightSpreadM = floats.Max(p.Heights) - floats.Min(p.Heights)
	}
	return s
}

// LogWarnings reports plan shapes that tend to make a weak training set.
func (s PlanStats) LogWarnings(logger logging.Logger) {
	if s.AngleSpanDeg == 0 {
		logger.Warn("single capture angle - dataset will have no viewpoint variety")
	} else if s.AngleStdDeg < 5 {
		logger.Warnf("capture angles are clustered (std %.1f deg)", s.AngleStdDeg)
	}
	if s.AngleSpanDeg > 0 && s.MinAngleGapDeg == 0 {
		logger.Warn("duplicate capture angles in plan")
	}
	if s.HeightSpreadM == 0 {
		logger.Warn("single capture height - consider adding height variation")
	}
	logger.Infof("sweep plan: %d poses per object, angle span %.0f deg, height spread %.2f m",
		s.PosesPerObject, s.AngleSpanDeg, s.HeightSpreadM)
}
