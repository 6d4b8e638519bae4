package grblcore

import "sync/atomic"

// ExecState is the C1 realtime-event bitset (spec.md §4.1/§3). Any
// combination of bits may be set simultaneously; EXEC_RESET, if present in
// a drained snapshot, takes priority over every other bit in that pass.
type ExecState uint32

const (
	ExecReset ExecState = 1 << iota
	ExecStop
	ExecExit
	ExecCycleStart
	ExecFeedHold
	ExecSafetyDoor
	ExecMotionCancel
	ExecSleep
	ExecStatusReport
	ExecGCodeReport
	ExecOptionalStopToggle
	ExecPIDReport
	ExecCycleComplete
)

// ExecAlarm is the C1 realtime-alarm bitset. Unlike AlarmCode (a single
// reported cause), the register itself is a bitset per spec.md §3 so that
// an ISR can OR in an alarm without a read-modify-write race against a
// concurrent alarm from another source.
type ExecAlarm uint32

func alarmBit(code AlarmCode) ExecAlarm {
	if code == AlarmNone {
		return 0
	}
	return 1 << (code - 1)
}

// OverrideGroup classifies an OverrideCommand into the two drain groups C4
// processes independently (spec.md §4.4).
type OverrideGroup uint8

const (
	OverrideGroupFeedRapid OverrideGroup = iota
	OverrideGroupSpindleCoolant
)

// OverrideOp enumerates the individual override actions that can be
// enqueued by C2 and applied by C4.
type OverrideOp uint8

const (
	OverrideFeedCoarsePlus OverrideOp = iota
	OverrideFeedCoarseMinus
	OverrideFeedFinePlus
	OverrideFeedFineMinus
	OverrideFeedReset
	OverrideRapid100
	OverrideRapidMedium
	OverrideRapidLow
	OverrideSpindleCoarsePlus
	OverrideSpindleCoarseMinus
	OverrideSpindleFinePlus
	OverrideSpindleFineMinus
	OverrideSpindleReset
	OverrideCoolantMistToggle
	OverrideCoolantFloodToggle
	OverrideSpindleStopToggle
)

// OverrideCommand is one entry of the lock-free override ring named in
// spec.md §3.
type OverrideCommand struct {
	Op OverrideOp
}

func (op OverrideOp) group() OverrideGroup {
	switch op {
	case OverrideCoolantMistToggle, OverrideCoolantFloodToggle,
		OverrideSpindleStopToggle,
		OverrideSpindleCoarsePlus, OverrideSpindleCoarseMinus,
		OverrideSpindleFinePlus, OverrideSpindleFineMinus, OverrideSpindleReset:
		return OverrideGroupSpindleCoolant
	default:
		return OverrideGroupFeedRapid
	}
}

// overrideRingSize is fixed and small: override commands are single bytes
// typed by an operator, never machine-generated in bulk, so a short ring
// is never at risk of overrunning between two drain passes.
const overrideRingSize = 16

// overrideRing is a lock-free single-producer/single-consumer ring buffer.
// The producer (any ISR context, via Register.PushOverride) only ever
// advances head; the consumer (the foreground, via Register.DrainOverrides)
// only ever advances tail. Neither side needs a mutex because each index
// is owned by exactly one side.
type overrideRing struct {
	buf  [overrideRingSize]OverrideCommand
	head atomic.Uint32
	tail atomic.Uint32
}

func (r *overrideRing) push(cmd OverrideCommand) bool {
	head := r.head.Load()
	next := (head + 1) % overrideRingSize
	if next == r.tail.Load() {
		return false // full; caller drops the command, matching spec.md §7 "fail silently"
	}
	r.buf[head] = cmd
	r.head.Store(next)
	return true
}

func (r *overrideRing) drain() []OverrideCommand {
	var out []OverrideCommand
	for {
		tail := r.tail.Load()
		if tail == r.head.Load() {
			break
		}
		out = append(out, r.buf[tail])
		r.tail.Store((tail + 1) % overrideRingSize)
	}
	return out
}

// Register is the C1 realtime event register: a lock-free bitset of
// pending asynchronous events, set from ISR context and drained from the
// foreground only. It also owns the override command ring (spec.md §3).
//
// The sticky booleans Abort and EStop are written directly by ISRs outside
// of the OR-in bitset convention (spec.md §5 "No other shared mutable
// memory is written by ISRs except the sticky booleans abort, e_stop...").
type Register struct {
	state atomic.Uint32
	alarm atomic.Uint32

	abort atomic.Bool
	eStop atomic.Bool

	overrides overrideRing
}

// SetStateFlag ORs mask into the pending state bitset. Safe to call from
// any ISR or the foreground.
func (r *Register) SetStateFlag(mask ExecState) {
	r.state.Or(uint32(mask))
}

// SetAlarm ORs the bit for code into the pending alarm bitset.
func (r *Register) SetAlarm(code AlarmCode) {
	r.alarm.Or(uint32(alarmBit(code)))
}

// ClearStateFlags atomically swaps the state bitset to zero and returns
// the prior value (spec.md §4.1).
func (r *Register) ClearStateFlags() ExecState {
	return ExecState(r.state.Swap(0))
}

// ClearAlarm atomically swaps the alarm bitset to zero and returns the
// prior value.
func (r *Register) ClearAlarm() ExecAlarm {
	return ExecAlarm(r.alarm.Swap(0))
}

// Test reports whether every bit in mask is currently pending, without
// draining.
func (r *Register) Test(mask ExecState) bool {
	return ExecState(r.state.Load())&mask == mask
}

// SetAbort sets the sticky abort flag. ISR-safe.
func (r *Register) SetAbort() { r.abort.Store(true) }

// consumeAbort reports and clears the sticky abort flag in one step, mirroring
// the teacher's atomic.Bool close-once pattern in port_linux.go (Close
// uses Swap to detect "already closed"; here Swap(false) detects "was an
// abort pending").
func (r *Register) consumeAbort() bool { return r.abort.Swap(false) }

// SetEStop/ClearEStop/EStop manage the sticky e-stop flag. EXEC_RESET is
// suppressed while EStop is true (spec.md §4.2); only a release of e-stop
// followed by reset clears ALARM/ESTOP state (spec.md §4.3).
func (r *Register) SetEStop()      { r.eStop.Store(true) }
func (r *Register) ClearEStop()    { r.eStop.Store(false) }
func (r *Register) EStop() bool    { return r.eStop.Load() }

// PushOverride enqueues an override command for later draining by C4. It
// never blocks and never allocates: if the ring is full the command is
// silently dropped (spec.md §7).
func (r *Register) PushOverride(cmd OverrideCommand) {
	r.overrides.push(cmd)
}

// DrainOverrides removes and returns every pending override command, in
// FIFO order. Foreground-only.
func (r *Register) DrainOverrides() []OverrideCommand {
	return r.overrides.drain()
}

// Drain is the all-at-once snapshot-and-clear described in spec.md §4.1:
// it atomically swaps both bitsets to zero and folds in the sticky
// abort/e-stop booleans, returning a single consistent snapshot for this
// drain pass. Draining twice in succession with no new events is a no-op
// (spec.md §8 "Idempotence").
type Snapshot struct {
	State ExecState
	Alarm ExecAlarm
	Abort bool
	EStop bool
}

func (r *Register) Drain() Snapshot {
	return Snapshot{
		State: r.ClearStateFlags(),
		Alarm: r.ClearAlarm(),
		Abort: r.consumeAbort(),
		EStop: r.EStop(),
	}
}
