package main

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/gocnc/grblcore"
)

// fakePlanner is an in-memory single-slot stand-in for the real trajectory
// planner, with no actual kinematics (spec.md §1 marks the planner's
// internals out of scope for this core). The first accepted push fills the
// slot, and it stays full until Reset; nothing marks a block as executed.
type fakePlanner struct {
	mu    sync.Mutex
	block bool
}

func newFakePlanner() *fakePlanner { return &fakePlanner{} }

func (p *fakePlanner) Push(req grblcore.PlanLineRequest) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.block {
		return false
	}
	p.block = true
	return true
}

func (p *fakePlanner) IsFull() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.block
}

func (p *fakePlanner) HasCurrentBlock() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.block
}

func (p *fakePlanner) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.block = false
}

func (p *fakePlanner) SyncPositionFromSteps(steps grblcore.Position) {}

func (p *fakePlanner) FeedOverride(feedPct, rapidPct int) {}

// fakeStepper ignores every motion command, reports no limit switch
// engaged, and reports a machine position that never changes. It does not
// empty fakePlanner's slot.
type fakeStepper struct {
	mu  sync.Mutex
	pos grblcore.Position
}

func newFakeStepper(axes int) *fakeStepper {
	return &fakeStepper{pos: make(grblcore.Position, axes)}
}

func (s *fakeStepper) PrepBuffer()           {}
func (s *fakeStepper) WakeUp()               {}
func (s *fakeStepper) GoIdle()               {}
func (s *fakeStepper) ResetSegmentBuffer()   {}
func (s *fakeStepper) ParkingSetupBuffer()   {}
func (s *fakeStepper) LimitsEnable(bool, bool) {}
func (s *fakeStepper) LimitsGetState() uint32 { return 0 }

func (s *fakeStepper) MachinePosition() grblcore.Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos.Clone()
}

// fakeHAL logs spindle/coolant/probe commands instead of driving real
// outputs.
type fakeHAL struct {
	log zerolog.Logger
}

func newFakeHAL(log zerolog.Logger) *fakeHAL { return &fakeHAL{log: log} }

func (h *fakeHAL) SpindleSetState(state grblcore.SpindleState, rpm float64) {
	h.log.Debug().Int("state", int(state)).Float64("rpm", rpm).Msg("spindle")
}

func (h *fakeHAL) CoolantSetState(state grblcore.CoolantState) {
	h.log.Debug().Uint8("state", uint8(state)).Msg("coolant")
}

func (h *fakeHAL) ProbeConfigureInvertMask(invert bool) {}
func (h *fakeHAL) ProbeGetState() bool                  { return false }

// fakePins reports every control input as idle, for runs with no attached
// GPIO expander.
type fakePins struct{}

func (fakePins) GetControlState() grblcore.ControlState { return grblcore.ControlState{} }
