package grblcore

// softLimitViolation reports whether target exceeds the configured travel
// extent on any axis.
func (c *Controller) softLimitViolation(target Position) bool {
	if !c.Settings.SoftLimitsEnabled {
		return false
	}
	for i, v := range target {
		if i >= len(c.Settings.TravelMax) {
			break
		}
		max := c.Settings.TravelMax[i]
		if max <= 0 {
			continue // axis has no configured limit
		}
		if v > max || v < -max {
			return true
		}
	}
	return false
}

// pushWithBackpressure is the shared backpressure loop named in spec.md
// §4.5 step 5. Both the user's move and a synthesized backlash move
// (spec.md §9 "re-entrancy of the motion gateway") funnel through this one
// function so at most one realtime checkpoint window separates any two
// consecutive pushes to the planner.
func (c *Controller) pushWithBackpressure(req PlanLineRequest) error {
	for c.Planner.IsFull() {
		c.autoCycleStart()
		if err := c.realtimeCheckpoint(); err != nil {
			return err
		}
	}

	accepted := c.Planner.Push(req)
	if !accepted {
		// A push is only rejected for a zero-length move. In laser mode
		// with the spindle commanded on (not CCW reverse) this would
		// otherwise silently lose the S-word, so apply it directly
		// (spec.md §4.5 step 6).
		if c.Settings.LaserMode && req.Spindle.State == SpindleCW {
			c.HAL.SpindleSetState(req.Spindle.State, req.Spindle.RPM)
		}
	}
	return nil
}

// Line is the C5 motion gateway: the single funnel every straight-line
// move passes through (spec.md §4.5).
func (c *Controller) Line(target Position, pl PlanLineRequest) (bool, error) {
	if pl.Motion != MotionJog && c.softLimitViolation(target) {
		c.setAlarm(AlarmSoftLimit)
		return false, newStatus(StatusTravelExceeded, "target exceeds soft limit")
	}

	if c.sys.Mode == StateCheckMode {
		return true, nil
	}

	if err := c.realtimeCheckpoint(); err != nil {
		return false, err
	}

	if c.backlash.enabledMask != 0 {
		shadow, needsMove := c.backlash.apply(target, &c.Settings)
		if needsMove {
			backlashReq := PlanLineRequest{
				Target:     shadow,
				Feed:       0,
				Motion:     MotionBacklash,
				LineNumber: pl.LineNumber,
			}
			if err := c.pushWithBackpressure(backlashReq); err != nil {
				return false, err
			}
		}
	}

	pl.Target = target
	if err := c.pushWithBackpressure(pl); err != nil {
		return false, err
	}

	c.backlash.commit(target)

	return true, nil
}
