package grblcore

import "github.com/rs/zerolog"

// testPlanner is a minimal in-memory Planner stand-in recording every
// pushed request. IsFull reports the full field, which tests set directly;
// a successful push sets current, which HasCurrentBlock reports.
type testPlanner struct {
	pushed     []PlanLineRequest
	full       bool
	current    bool
	resets     int
	rejectNext bool

	currentCalls int
	// currentFalseAfterCalls, when non-zero, makes HasCurrentBlock report
	// false starting on the call numbered by this field, for simulating a
	// commanded move finishing execution on its own.
	currentFalseAfterCalls int
}

func (p *testPlanner) Push(req PlanLineRequest) bool {
	if p.full {
		return false
	}
	if p.rejectNext {
		p.rejectNext = false
		return false
	}
	p.pushed = append(p.pushed, req)
	p.current = true
	return true
}

func (p *testPlanner) IsFull() bool { return p.full }
func (p *testPlanner) HasCurrentBlock() bool {
	p.currentCalls++
	if p.currentFalseAfterCalls != 0 && p.currentCalls >= p.currentFalseAfterCalls {
		return false
	}
	return p.current
}
func (p *testPlanner) Reset() {
	p.resets++
	p.current = false
}
func (p *testPlanner) SyncPositionFromSteps(Position)          {}
func (p *testPlanner) FeedOverride(feedPct, rapidPct int)      {}

type testStepper struct {
	pos         Position
	limitState  uint32
	idleCalls   int
	wakeCalls   int
	limitsHard  bool
	limitsProbe bool
}

func (s *testStepper) PrepBuffer()         {}
func (s *testStepper) WakeUp()             { s.wakeCalls++ }
func (s *testStepper) GoIdle()             { s.idleCalls++ }
func (s *testStepper) ResetSegmentBuffer() {}
func (s *testStepper) ParkingSetupBuffer() {}
func (s *testStepper) LimitsEnable(hard, probeMode bool) {
	s.limitsHard = hard
	s.limitsProbe = probeMode
}
func (s *testStepper) LimitsGetState() uint32      { return s.limitState }
func (s *testStepper) MachinePosition() Position   { return s.pos.Clone() }

type testHAL struct {
	spindleState SpindleState
	spindleRPM   float64
	coolant      CoolantState
	invert       bool
	probeState   bool
	probeCalls   int
	// probeTrueOnCall, when non-zero, makes ProbeGetState return true only
	// once probeCalls has reached this count, for simulating contact
	// partway through a probing motion.
	probeTrueOnCall int
}

func (h *testHAL) SpindleSetState(state SpindleState, rpm float64) {
	h.spindleState = state
	h.spindleRPM = rpm
}
func (h *testHAL) CoolantSetState(state CoolantState)   { h.coolant = state }
func (h *testHAL) ProbeConfigureInvertMask(invert bool) { h.invert = invert }
func (h *testHAL) ProbeGetState() bool {
	h.probeCalls++
	if h.probeTrueOnCall != 0 {
		return h.probeCalls >= h.probeTrueOnCall
	}
	return h.probeState
}

type testStream struct {
	bytes     []byte
	pos       int
	suspended bool
	cancelled int
}

func (s *testStream) Read() (byte, bool) {
	if s.suspended || s.pos >= len(s.bytes) {
		return 0, false
	}
	b := s.bytes[s.pos]
	s.pos++
	return b, true
}
func (s *testStream) SuspendRead(suspend bool) { s.suspended = suspend }
func (s *testStream) CancelReadBuffer()        { s.cancelled++ }

type testPins struct {
	state ControlState
}

func (p *testPins) GetControlState() ControlState { return p.state }

func newTestController(axes int) (*Controller, *testPlanner, *testStepper, *testHAL, *testStream, *testPins) {
	pl := &testPlanner{}
	st := &testStepper{pos: make(Position, axes)}
	hal := &testHAL{}
	stream := &testStream{}
	pins := &testPins{}
	settings := Settings{
		AxisCount:         axes,
		Backlash:          make([]float64, axes),
		ArcTolerance:      0.002,
		ArcCorrectionStep: 12,
		TravelMax:         make(Position, axes),
	}
	c := New(settings, pl, st, hal, stream, pins, zerolog.Nop())
	return c, pl, st, hal, stream, pins
}
