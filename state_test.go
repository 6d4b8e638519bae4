package grblcore

import "testing"

func TestSetAlarmEntersAlarmState(t *testing.T) {
	c, _, _, _, _, _ := newTestController(3)
	c.setAlarm(AlarmSoftLimit)
	if c.Mode() != StateAlarm {
		t.Fatalf("expected StateAlarm, got %v", c.Mode())
	}
	snap := c.Reg.Drain()
	if snap.Alarm&alarmBit(AlarmSoftLimit) == 0 {
		t.Fatal("expected alarm bit posted to the register")
	}
}

func TestSetAlarmEStopWinsOverAlarm(t *testing.T) {
	c, _, _, _, _, _ := newTestController(3)
	c.setAlarm(AlarmEStop)
	if c.Mode() != StateEStop {
		t.Fatalf("expected StateEStop, got %v", c.Mode())
	}
	// A subsequent ordinary alarm must not downgrade ESTOP back to ALARM.
	c.setAlarm(AlarmSoftLimit)
	if c.Mode() != StateEStop {
		t.Fatalf("expected StateEStop to stick, got %v", c.Mode())
	}
}

func TestRealtimeCheckpointReturnsAbortedOnReset(t *testing.T) {
	c, _, _, _, _, _ := newTestController(3)
	c.Reg.SetStateFlag(ExecReset)

	err := c.realtimeCheckpoint()
	if err == nil {
		t.Fatal("expected an error on EXEC_RESET")
	}
	if err != ErrAborted {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
}

func TestRealtimeCheckpointHandleResetOutOfCyclePostsAlarm(t *testing.T) {
	c, pl, st, hal, _, _ := newTestController(3)
	c.sys.Mode = StateCycle
	pl.current = true

	c.Reg.SetStateFlag(ExecReset)
	if err := c.realtimeCheckpoint(); err != ErrAborted {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
	if c.Mode() != StateAlarm {
		t.Fatalf("resetting out of CYCLE should post an alarm, got %v", c.Mode())
	}
	if st.idleCalls != 1 {
		t.Fatalf("expected stepper GoIdle once, got %d", st.idleCalls)
	}
	if pl.resets != 1 {
		t.Fatalf("expected planner Reset once, got %d", pl.resets)
	}
	if hal.spindleState != SpindleOff {
		t.Fatal("expected spindle turned off on reset")
	}
}

func TestRealtimeCheckpointHandleResetDuringHomingPostsHomingFailReset(t *testing.T) {
	c, _, _, _, _, _ := newTestController(3)
	c.sys.Mode = StateHoming

	c.Reg.SetStateFlag(ExecReset)
	if err := c.realtimeCheckpoint(); err != ErrAborted {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
	if c.Mode() != StateAlarm {
		t.Fatalf("resetting out of HOMING should post an alarm, got %v", c.Mode())
	}
	snap := c.Reg.Drain()
	if snap.Alarm&alarmBit(AlarmHomingFailReset) == 0 {
		t.Fatal("expected AlarmHomingFailReset posted to the register")
	}
}

func TestApplyCycleTransitionsIdleToCycleOnAutoStart(t *testing.T) {
	c, pl, _, _, _, _ := newTestController(3)
	pl.current = true
	c.applyCycleTransitions(ExecCycleStart)
	if c.Mode() != StateCycle {
		t.Fatalf("expected StateCycle, got %v", c.Mode())
	}
}

func TestApplyCycleTransitionsNoStartWithoutPlannerBlock(t *testing.T) {
	c, _, _, _, _, _ := newTestController(3)
	c.applyCycleTransitions(ExecCycleStart)
	if c.Mode() != StateIdle {
		t.Fatalf("cycle start with an empty planner must not leave IDLE, got %v", c.Mode())
	}
}

func TestApplyCycleTransitionsLockedModeIgnoresBits(t *testing.T) {
	c, _, _, _, _, _ := newTestController(3)
	c.sys.Mode = StateAlarm
	c.applyCycleTransitions(ExecCycleStart | ExecSafetyDoor)
	if c.Mode() != StateAlarm {
		t.Fatalf("locked mode must ignore realtime transitions, got %v", c.Mode())
	}
}

func TestSafetyDoorPreemptsCycleRunningState(t *testing.T) {
	c, pl, _, _, _, _ := newTestController(3)
	pl.current = true
	c.sys.Mode = StateCycle
	c.applyCycleTransitions(ExecSafetyDoor)
	if c.Mode() != StateSafetyDoor {
		t.Fatalf("expected StateSafetyDoor, got %v", c.Mode())
	}
	if c.sys.Suspend&ExecSafetyDoor == 0 {
		t.Fatal("expected the suspend loop's safety-door bit to be set")
	}
}

func TestSuspendLoopClearsOnDoorClose(t *testing.T) {
	c, _, _, _, _, pins := newTestController(3)
	c.sys.Mode = StateSafetyDoor
	c.sys.Suspend = ExecSafetyDoor
	// Door is already closed by the time SuspendLoop is entered, so the
	// first iteration should clear the suspend bit and return.
	pins.state.SafetyDoor = false

	if err := c.SuspendLoop(); err != nil {
		t.Fatalf("unexpected error from SuspendLoop: %v", err)
	}
	if c.sys.Suspend != 0 {
		t.Fatalf("expected Suspend cleared, got %v", c.sys.Suspend)
	}
	if c.Mode() != StateIdle {
		t.Fatalf("expected StateIdle after door closes, got %v", c.Mode())
	}
}
