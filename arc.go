package grblcore

import "math"

// ArcRequest carries everything C6 needs to decompose one circular (or
// helical) arc into straight-line segments (spec.md §4.6).
type ArcRequest struct {
	Current     Position
	Target      Position
	CenterOffset [2]float64 // IJK offset of the arc center from Current, in-plane
	Plane       Plane
	Clockwise   bool
	Feed        float64
	InverseTime bool
	Template    PlanLineRequest // carries Motion/Spindle/Disable/LineNumber for every emitted segment
}

// smallAngleEps gates the 2π direction-correction in step 1 so a
// near-full-circle arc doesn't flip sign on floating-point noise alone
// (spec.md §4.6 step 1).
const smallAngleEps = 1e-6

// Arc implements C6: chord-tolerance segmentation of a circular arc with
// incremental rotation and periodic exact re-anchoring (spec.md §4.6).
func (c *Controller) Arc(req ArcRequest) (bool, error) {
	a0, a1, lin := req.Plane.Axis0, req.Plane.Axis1, req.Plane.Linear

	center0 := req.Current[a0] + req.CenterOffset[0]
	center1 := req.Current[a1] + req.CenterOffset[1]

	r0 := req.Current[a0] - center0
	r1 := req.Current[a1] - center1
	rTarget0 := req.Target[a0] - center0
	rTarget1 := req.Target[a1] - center1

	radius := math.Hypot(r0, r1)

	cross := r0*rTarget1 - r1*rTarget0
	dot := r0*rTarget0 + r1*rTarget1
	angularTravel := math.Atan2(cross, dot)

	if req.Clockwise {
		if angularTravel > -smallAngleEps {
			angularTravel -= 2 * math.Pi
		}
	} else {
		if angularTravel < smallAngleEps {
			angularTravel += 2 * math.Pi
		}
	}

	tol := c.Settings.ArcTolerance
	segments := int(math.Floor(math.Abs(0.5*angularTravel*radius) / math.Sqrt(tol*(2*radius-tol))))

	feed := req.Feed
	if req.InverseTime && segments > 0 {
		feed *= float64(segments)
	}

	linearStart := req.Current[lin]
	linearDelta := (req.Target[lin] - linearStart)

	corrStep := c.Settings.clampArcCorrection()

	cur := req.Current.Clone()

	if segments > 1 {
		thetaPerSeg := angularTravel / float64(segments)
		// Second-order small-angle approximation (spec.md §4.6 step 4),
		// computed once per arc rather than calling math.Cos/math.Sin on
		// every segment. sin is θ(2cos + 4)/6 = θ - θ³/6.
		cosApprox := 1 - thetaPerSeg*thetaPerSeg/2
		sinApprox := thetaPerSeg * (2*cosApprox + 4) / 6
		linearPerSeg := linearDelta / float64(segments)

		rx, ry := r0, r1

		for i := 1; i < segments; i++ {
			if i%corrStep == 0 {
				// Periodic exact re-anchor to bound drift (spec.md §4.6
				// step 4 / §9).
				theta := float64(i) * thetaPerSeg
				s, cphi := math.Sincos(theta)
				rx = r0*cphi - r1*s
				ry = r0*s + r1*cphi
			} else {
				rx2 := rx*cosApprox - ry*sinApprox
				ry2 := rx*sinApprox + ry*cosApprox
				rx, ry = rx2, ry2
			}

			cur[a0] = center0 + rx
			cur[a1] = center1 + ry
			cur[lin] = linearStart + linearPerSeg*float64(i)

			pl := req.Template
			pl.Target = cur.Clone()
			pl.Feed = feed
			pl.InverseTime = false

			ok, err := c.Line(cur.Clone(), pl)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
	}

	final := req.Template
	final.Feed = feed
	final.InverseTime = false
	return c.Line(req.Target.Clone(), final)
}
