package grblcore

// Planner is the external trajectory planner collaborator (spec.md §6).
// The core only ever observes these operations; the planner owns its own
// buffer of kinematic blocks.
type Planner interface {
	Push(req PlanLineRequest) (accepted bool)
	IsFull() bool
	HasCurrentBlock() bool
	Reset()
	SyncPositionFromSteps(steps Position)
	FeedOverride(feedPct, rapidPct int)
}

// Stepper is the external stepper/motion driver collaborator (spec.md §6).
type Stepper interface {
	PrepBuffer()
	WakeUp()
	GoIdle()
	ResetSegmentBuffer()
	ParkingSetupBuffer()
	LimitsEnable(hard, probeMode bool)
	LimitsGetState() uint32
	MachinePosition() Position
}

// SpindleCoolantProbeHAL is the external spindle/coolant/probe HAL
// collaborator (spec.md §6).
type SpindleCoolantProbeHAL interface {
	SpindleSetState(state SpindleState, rpm float64)
	CoolantSetState(state CoolantState)
	ProbeConfigureInvertMask(invert bool)
	ProbeGetState() bool
}

// StreamHAL is the external, non-blocking input stream collaborator
// (spec.md §6). Read returns ok=false when no byte is currently available;
// it must never block.
type StreamHAL interface {
	Read() (b byte, ok bool)
	SuspendRead(suspend bool)
	CancelReadBuffer()
}

// ControlState is the snapshot of physical control-pin inputs (spec.md
// §6).
type ControlState struct {
	Reset      bool
	CycleStart bool
	FeedHold   bool
	SafetyDoor bool
	EStop      bool
}

// ControlPinHAL is the external control-pin HAL collaborator (spec.md §6).
type ControlPinHAL interface {
	GetControlState() ControlState
}
