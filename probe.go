package grblcore

// ProbeResult is the outcome of a probing motion (spec.md §4.9).
type ProbeResult uint8

const (
	ProbeFound ProbeResult = iota
	ProbeFailInit
	ProbeFailEnd
	ProbeCheckMode
	ProbeAborted
)

// ProbeRequest carries the target of a one-shot probing motion plus the
// "no error on miss" modal flag (G38.3/G38.5 in the g-code surface this
// core is agnostic to).
type ProbeRequest struct {
	Target   Position
	Template PlanLineRequest
	NoError  bool
	Invert   bool
}

// Probe implements C9: one-shot probing motion with probe-pin state
// monitoring, failure taxonomy, and buffer flush (spec.md §4.9).
func (c *Controller) Probe(req ProbeRequest) (ProbeResult, error) {
	if c.sys.Mode == StateCheckMode {
		return ProbeCheckMode, nil
	}

	if err := c.drainPlannerToSync(); err != nil {
		return ProbeAborted, err
	}

	c.HAL.ProbeConfigureInvertMask(req.Invert)
	if c.HAL.ProbeGetState() {
		c.setAlarm(AlarmProbeFailInitial)
		return ProbeFailInit, nil
	}

	c.sys.ProbeActive = true
	pl := req.Template
	pl.Motion = MotionFeed

	ok, err := c.Line(req.Target, pl)
	if err != nil {
		c.sys.ProbeActive = false
		return ProbeAborted, err
	}
	if !ok {
		c.sys.ProbeActive = false
		return ProbeAborted, nil
	}

	// Enter CYCLE directly rather than requesting ExecCycleStart: the
	// monitor loop below must run at least once even when Probe is issued
	// from IDLE (a standalone G38 move), and a freshly-set realtime bit
	// isn't drained until the first realtimeCheckpoint inside that loop —
	// by then the `!= StateIdle` guard has already been evaluated once
	// with the old mode. Mirrors the original firmware's
	// `sys.state = STATE_CYCLE; do { ... } while (state != IDLE)`.
	c.sys.Mode = StateCycle

	result := ProbeFailEnd
	for c.sys.Mode != StateIdle {
		if err := c.realtimeCheckpoint(); err != nil {
			c.sys.ProbeActive = false
			return ProbeAborted, err
		}
		if c.HAL.ProbeGetState() {
			c.sys.ProbePosition = c.Stepper.MachinePosition()
			c.sys.ProbeSucceeded = true
			c.sys.ProbeActive = false
			result = ProbeFound
			break
		}
		if !c.Planner.HasCurrentBlock() {
			c.sys.Mode = StateIdle
		}
	}

	if c.sys.ProbeActive {
		if req.NoError {
			c.sys.ProbePosition = c.Stepper.MachinePosition()
			result = ProbeFound
		} else {
			c.setAlarm(AlarmProbeFailContact)
			result = ProbeFailEnd
		}
		c.sys.ProbeActive = false
	}

	c.Stepper.ResetSegmentBuffer()
	c.Planner.Reset()
	c.syncPositionFromSteps()

	return result, nil
}

// drainPlannerToSync blocks (cancellably) until the planner has no
// in-flight block, the buffer-sync precondition named in spec.md §4.9.
func (c *Controller) drainPlannerToSync() error {
	for c.Planner.HasCurrentBlock() {
		if err := c.realtimeCheckpoint(); err != nil {
			return err
		}
	}
	return nil
}
