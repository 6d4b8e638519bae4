package grblcore

// HomingResult is the outcome of a homing cycle (spec.md §4.8).
type HomingResult uint8

const (
	HomingOK HomingResult = iota
	HomingLimitsEngaged
	HomingUnhandled
	HomingAborted
)

// Home implements C8: sequenced axis-group homing with limit-switch safety
// preconditions and post-home position sync (spec.md §4.8). If axisMask is
// non-zero, only that group is run; otherwise every group in
// Settings.HomingCycle runs in order, stopping at the first failing group.
func (c *Controller) Home(axisMask uint32) (HomingResult, error) {
	if c.Settings.TwoSwitchesOnePin {
		if c.Stepper.LimitsGetState() != 0 {
			c.handleReset()
			c.setAlarm(AlarmHardLimit)
			return HomingUnhandled, newAlarm(AlarmHardLimit)
		}
	}

	c.Stepper.LimitsEnable(false, true)
	defer c.Stepper.LimitsEnable(c.Settings.HardLimitsEnabled, false)

	c.sys.Mode = StateHoming

	groups := c.Settings.HomingCycle
	if axisMask != 0 {
		groups = []HomingCycleGroup{{AxisMask: axisMask}}
	}

	var homedThisRun uint32
	for _, group := range groups {
		ok, err := c.homeGroup(group.AxisMask)
		if err != nil {
			return HomingAborted, err
		}
		if !ok {
			c.setAlarm(AlarmHomingFailReset)
			c.sys.Mode = StateAlarm
			return HomingUnhandled, newAlarm(AlarmHomingFailReset)
		}
		homedThisRun |= group.AxisMask
	}

	c.sys.HomedMask |= homedThisRun
	c.syncPositionFromSteps()
	c.Planner.Reset()

	if c.Stepper.LimitsGetState() != 0 {
		return HomingLimitsEngaged, nil
	}

	c.sys.Mode = StateIdle
	return HomingOK, nil
}

// homeGroup runs one limit-seek cycle on the given axis group. The actual
// seek/feed/pull-off motion sequence is driven by the stepper/HAL
// collaborators outside this package's scope (spec.md §1 "the step-timing
// algorithm" and "driver-level pin toggling" are explicitly out of scope);
// this loop only owns the cancellable wait and the limit-state polling
// around it.
func (c *Controller) homeGroup(axisMask uint32) (bool, error) {
	c.Stepper.WakeUp()
	for {
		if err := c.realtimeCheckpoint(); err != nil {
			return false, err
		}
		state := c.Stepper.LimitsGetState()
		if state&axisMask == axisMask {
			return true, nil
		}
		if c.sys.Cancel {
			c.sys.Cancel = false
			return false, nil
		}
		if !c.Planner.HasCurrentBlock() && !c.Planner.IsFull() {
			// Seek motion has drained with the switch never tripping.
			return false, nil
		}
	}
}
