package grblcore

// DrillCycleKind distinguishes the three drill cycle variants of spec.md
// §3/§4.7.
type DrillCycleKind uint8

const (
	DrillPlain DrillCycleKind = iota
	DrillDwell
	DrillChipBreak
)

// DrillCycleRequest carries one canned drilling cycle's parameters
// (spec.md §3 "Canned-drill / thread parameters").
type DrillCycleRequest struct {
	Plane   Plane
	Current Position

	RPlane    float64 // retract plane, in the linear axis
	FinalZ    float64 // full depth, in the linear axis
	Delta     float64 // peck depth per pass
	G73Retract float64 // chip-break partial retract amount

	Dwell float64 // seconds, zero disables

	SpindleOffDuringDwell bool
	RapidRetract          RetractMode
	Repeats               int // hole count when used with incremental XY shift (G91 between holes)
	IncrementalXY         [2]float64

	Feed  float64
	Template PlanLineRequest
}

// Drill implements C7's drilling cycles (plain, dwell, chip-break) per
// spec.md §4.7.
func (c *Controller) Drill(kind DrillCycleKind, req DrillCycleRequest) (bool, error) {
	lin := req.Plane.Linear
	prevLinear := req.Current[lin]

	// Pre-positioning (spec.md §4.7): ensure we're at or above the
	// R-plane before touching the hole.
	if prevLinear < req.RPlane {
		pos := req.Current.Clone()
		pos[lin] = req.RPlane
		if ok, err := c.rapidTo(pos, &req.Template); !ok || err != nil {
			return ok, err
		}
		prevLinear = req.RPlane
	}

	holeXY := req.Current.Clone()
	linearAtEntry := prevLinear
	if req.RPlane > linearAtEntry {
		linearAtEntry = req.RPlane
	}
	holeXY[lin] = linearAtEntry
	if ok, err := c.rapidTo(holeXY, &req.Template); !ok || err != nil {
		return ok, err
	}
	if linearAtEntry > req.RPlane {
		rTarget := holeXY.Clone()
		rTarget[lin] = req.RPlane
		if ok, err := c.rapidTo(rTarget, &req.Template); !ok || err != nil {
			return ok, err
		}
	}

	repeats := req.Repeats
	if repeats < 1 {
		repeats = 1
	}
	currentDepth := req.RPlane
	for hole := 0; hole < repeats; hole++ {
		if hole > 0 {
			shifted := holeXY.Clone()
			shifted[req.Plane.Axis0] += req.IncrementalXY[0]
			shifted[req.Plane.Axis1] += req.IncrementalXY[1]
			shifted[lin] = req.RPlane
			if ok, err := c.rapidTo(shifted, &req.Template); !ok || err != nil {
				return ok, err
			}
			holeXY = shifted
			currentDepth = req.RPlane
		}

		for {
			nextDepth := currentDepth - req.Delta
			reachedFinal := false
			if signedBelow(nextDepth, req.FinalZ, req.RPlane) {
				nextDepth = req.FinalZ
				reachedFinal = true
			}

			target := holeXY.Clone()
			target[lin] = nextDepth
			pl := req.Template
			pl.Feed = req.Feed
			pl.Motion = MotionFeed
			if ok, err := c.Line(target, pl); !ok || err != nil {
				return ok, err
			}
			currentDepth = nextDepth

			if req.Dwell > 0 {
				if err := c.dwell(req.Dwell); err != nil {
					return false, err
				}
			}
			if req.SpindleOffDuringDwell {
				c.HAL.SpindleSetState(SpindleOff, 0)
			}

			retractTarget := holeXY.Clone()
			if kind == DrillChipBreak && !reachedFinal {
				retractTarget[lin] = currentDepth + req.G73Retract
			} else {
				retractTarget[lin] = req.RPlane
			}
			if ok, err := c.rapidTo(retractTarget, &req.Template); !ok || err != nil {
				return ok, err
			}

			if reachedFinal {
				break
			}
		}
	}

	if req.RapidRetract == RetractToPrevious {
		final := holeXY.Clone()
		final[lin] = prevLinear
		return c.rapidTo(final, &req.Template)
	}
	return true, nil
}

// signedBelow reports whether candidate has reached or passed target when
// moving away from start (handles both +Z-up and inverted conventions:
// the drill always moves from RPlane toward FinalZ, whichever direction
// that is).
func signedBelow(candidate, target, start float64) bool {
	if target <= start {
		return candidate <= target
	}
	return candidate >= target
}

func (c *Controller) rapidTo(target Position, template *PlanLineRequest) (bool, error) {
	pl := *template
	pl.Motion = MotionRapid
	pl.Feed = 0
	return c.Line(target, pl)
}

// dwell is a timed pause with no motion (spec.md GLOSSARY "Dwell"). The
// actual wall-clock wait is a HAL concern (spec.md §5 "the dwell command
// uses a monotonic wall clock via the HAL"); this core only needs to
// honor realtime events around the wait, so it runs one realtime checkpoint
// after the wait and returns its error. dwellSleep is the wait hook; it is
// a no-op by default.
var dwellSleep = func(seconds float64) {}

func (c *Controller) dwell(seconds float64) error {
	dwellSleep(seconds)
	return c.realtimeCheckpoint()
}

