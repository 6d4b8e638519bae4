package grblcore

import "math"

// ThreadRequest carries one G76 threading cycle's parameters (spec.md §3
// "Canned-drill / thread parameters" thread fields, §4.7.2).
type ThreadRequest struct {
	Plane   Plane
	Current Position

	Pitch              float64
	PeakOffset         float64 // X offset from Current to the thread peak (major/minor radius)
	InitialDepth       float64
	FinalDepth         float64
	DegressionExponent float64 // "degression": depth(pass) = initial * pass^(1/degression)
	InfeedAngle        float64 // radians, compound/infeed angle

	SpringPasses int
	TaperMode    EndTaperMode
	TaperLength  float64

	CutDirection float64 // +1 or -1 along the in-plane axis
	FinalZ       float64 // target Z at full depth (linear axis)

	Feed     float64
	Template PlanLineRequest
}

// threadPassDepths implements spec.md §4.7.2 step 1: count passes by
// iterating depth_of_cut(pass) = initial_depth · pass^(1/degression) until
// it meets or exceeds full depth, then add spring passes plus one (the
// final full-depth pass itself).
func threadPassDepths(initial, full, degression float64, springPasses int) []float64 {
	var passes []float64
	if degression <= 0 {
		degression = 1
	}
	for pass := 1; ; pass++ {
		doc := initial * math.Pow(float64(pass), 1/degression)
		if doc >= full {
			break
		}
		passes = append(passes, doc)
	}
	passes = append(passes, full)
	for i := 0; i < springPasses; i++ {
		passes = append(passes, full)
	}
	return passes
}

// endTaperFactor maps a taper mode to the 0/1/2 scale factor used to
// shrink the main constant-pitch segment so the tapered ends don't shorten
// it (spec.md §4.7.2 step 2).
func endTaperFactor(mode EndTaperMode) int {
	switch mode {
	case TaperEntry, TaperExit:
		return 1
	case TaperBoth:
		return 2
	default:
		return 0
	}
}

// Thread implements C7's threading cycle (G76) per spec.md §4.7.2.
func (c *Controller) Thread(req ThreadRequest) (bool, error) {
	a0, lin := req.Plane.Axis0, req.Plane.Linear

	passes := threadPassDepths(req.InitialDepth, req.FinalDepth, req.DegressionExponent, req.SpringPasses)

	taperFactor := endTaperFactor(req.TaperMode)
	threadLength := req.FinalZ - req.Current[lin]
	// Preserve the sign-inversion quirk named in spec.md §9: the taper
	// length always opposes the cut direction, so when z_final lies
	// "above" the current Z (threadLength > 0) the taper offset used below
	// must flip sign relative to the more common threadLength < 0 case.
	endTaperLength := req.TaperLength
	if threadLength > 0 {
		endTaperLength = -endTaperLength
	}
	mainTaperHeight := threadLength
	if taperFactor > 0 && req.TaperLength != 0 {
		shrink := endTaperLength * float64(taperFactor)
		mainTaperHeight = threadLength - shrink
	}

	startX := req.Current[a0] + req.PeakOffset*sign(req.CutDirection)
	startZ := req.Current[lin]

	totalCompoundZ := 0.0
	if req.InfeedAngle != 0 {
		totalCompoundZ = req.FinalDepth * math.Tan(req.InfeedAngle)
	}

	for i, doc := range passes {
		last := i == len(passes)-1
		scaledDOC := doc
		if last {
			scaledDOC = req.FinalDepth
		}

		compoundZ := 0.0
		if req.InfeedAngle != 0 {
			compoundZ = scaledDOC * math.Tan(req.InfeedAngle)
			if compoundZ > totalCompoundZ {
				compoundZ = totalCompoundZ
			}
		}

		entryX := startX - scaledDOC*sign(req.CutDirection)
		entryZ := startZ + compoundZ

		enterTemplate := req.Template
		enterTemplate.Motion = MotionRapid
		enterTemplate.Disable = 0
		pos := req.Current.Clone()
		pos[a0] = entryX
		pos[lin] = entryZ
		if ok, err := c.Line(pos, enterTemplate); !ok || err != nil {
			return ok, err
		}

		syncTemplate := req.Template
		syncTemplate.Motion = MotionSpindleSync
		syncTemplate.Disable = FeedHoldDisabled
		syncTemplate.Feed = req.Feed

		if err := c.dwell(0.01); err != nil {
			return false, err
		}

		cutStart := pos.Clone()

		if req.TaperMode == TaperEntry || req.TaperMode == TaperBoth {
			taperEnd := cutStart.Clone()
			taperEnd[lin] = entryZ + endTaperLength
			if ok, err := c.Line(taperEnd, syncTemplate); !ok || err != nil {
				return ok, err
			}
			cutStart = taperEnd
		}

		mainEnd := cutStart.Clone()
		mainEnd[lin] = entryZ + mainTaperHeight
		if req.TaperMode == TaperEntry || req.TaperMode == TaperBoth {
			mainEnd[lin] = cutStart[lin] + (mainTaperHeight - endTaperLength)
		}
		if ok, err := c.Line(mainEnd, syncTemplate); !ok || err != nil {
			return ok, err
		}
		cutStart = mainEnd

		if req.TaperMode == TaperExit || req.TaperMode == TaperBoth {
			exitEnd := cutStart.Clone()
			exitEnd[lin] = cutStart[lin] + endTaperLength
			if ok, err := c.Line(exitEnd, syncTemplate); !ok || err != nil {
				return ok, err
			}
			cutStart = exitEnd
		}

		// Restore the caller's feed-hold-disable preference before the
		// reposition (spec.md §4.7.2 step 4).
		retractTemplate := req.Template
		retractTemplate.Motion = MotionRapid
		retractTemplate.Disable = req.Template.Disable

		retractX := cutStart.Clone()
		retractX[a0] = startX
		if ok, err := c.Line(retractX, retractTemplate); !ok || err != nil {
			return ok, err
		}

		if !last {
			retractZ := retractX.Clone()
			retractZ[lin] = startZ + (totalCompoundZ - compoundZ)
			if ok, err := c.Line(retractZ, retractTemplate); !ok || err != nil {
				return ok, err
			}
		}
	}

	return true, nil
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}
