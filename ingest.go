package grblcore

// Realtime control-byte values, as described in spec.md §6 ("User-visible
// surface"). Three legacy single-character codes (status '?', cycle-start
// '~', feed-hold '!') are kept for backward compatibility; the rest are
// ASCII control characters below 0x20 or live in the 0x80-0x9F band the
// way grblHAL's real control-code table does, so a g-code stream
// (printable ASCII plus line endings) can never collide with them.
const (
	rtSoftReset      byte = 0x18 // Ctrl-X
	rtStop           byte = 0x19
	rtExit           byte = 0x04 // Ctrl-D
	rtStatusLegacy   byte = '?'
	rtStatusReport   byte = 0x05 // Ctrl-E
	rtCycleStart     byte = '~'
	rtFeedHoldLegacy byte = '!'
	rtFeedHold       byte = 0x81
	rtSafetyDoor     byte = 0x82
	rtJogCancel      byte = 0x85
	rtGCodeReport    byte = 0x86
	rtOptionalStop   byte = 0x87
	rtPIDReport      byte = 0x88

	rtOverrideFeedCoarsePlus   byte = 0x90
	rtOverrideFeedCoarseMinus  byte = 0x91
	rtOverrideFeedFinePlus     byte = 0x92
	rtOverrideFeedFineMinus    byte = 0x93
	rtOverrideFeedReset        byte = 0x94
	rtOverrideRapid100         byte = 0x95
	rtOverrideRapidMedium      byte = 0x96
	rtOverrideRapidLow         byte = 0x97
	rtOverrideSpindleCoarsePlus  byte = 0x98
	rtOverrideSpindleCoarseMinus byte = 0x99
	rtOverrideSpindleFinePlus    byte = 0x9A
	rtOverrideSpindleFineMinus   byte = 0x9B
	rtOverrideSpindleReset       byte = 0x9C
	rtOverrideCoolantMist        byte = 0x9D
	rtOverrideCoolantFlood       byte = 0x9E
	rtOverrideSpindleStopToggle  byte = 0x9F
)

// LineContext tracks the small amount of per-line parse state C2 needs to
// decide whether a legacy '?'/'~'/'!' byte is a realtime command or must
// be preserved verbatim (spec.md §4.2): inside a `$` system line, or
// inside a comment, legacy characters are data, not commands.
type LineContext struct {
	InSystemLine bool // current line so far starts with '$'
	InComment    bool // currently inside a '(' ... ')' or ';' comment
}

// legacyAllowed reports whether a legacy single-character realtime code is
// accepted right now: either the setting permits legacy mode outright, or
// the current line is not in a "preserve verbatim" context.
func legacyAllowed(legacyRT bool, ctx *LineContext) bool {
	if legacyRT {
		return true
	}
	if ctx == nil {
		return true
	}
	return !ctx.InSystemLine && !ctx.InComment
}

// IngestByte classifies one input byte at the boundary between "control
// characters" (siphoned into reg) and "g-code stream" (passed through to
// the caller's line buffer). It returns drop=true when the caller must not
// buffer the byte.
//
// IngestByte never blocks and never allocates (spec.md §4.2 "Failure
// model"), matching the teacher's non-blocking Read/Write style in
// port_linux.go — every branch here is a fixed number of atomic stores,
// no syscalls, no heap traffic.
func IngestByte(b byte, reg *Register, stream StreamHAL, legacyRT bool, ctx *LineContext) (drop bool) {
	switch b {
	case '\n', '\r':
		return false

	case rtSoftReset:
		if !reg.EStop() {
			reg.SetStateFlag(ExecReset)
		}
		return true

	case rtStop:
		reg.SetStateFlag(ExecStop)
		if stream != nil {
			stream.CancelReadBuffer()
		}
		return true

	case rtExit:
		reg.SetStateFlag(ExecExit)
		return true

	case rtStatusReport:
		reg.SetStateFlag(ExecStatusReport)
		return true

	case rtFeedHold:
		reg.SetStateFlag(ExecFeedHold)
		return true

	case rtSafetyDoor:
		reg.SetStateFlag(ExecSafetyDoor)
		return true

	case rtJogCancel:
		reg.SetStateFlag(ExecMotionCancel)
		if stream != nil {
			stream.CancelReadBuffer()
		}
		return true

	case rtGCodeReport:
		reg.SetStateFlag(ExecGCodeReport)
		return true

	case rtOptionalStop:
		reg.SetStateFlag(ExecOptionalStopToggle)
		return true

	case rtPIDReport:
		reg.SetStateFlag(ExecPIDReport)
		return true

	case rtOverrideFeedCoarsePlus:
		reg.PushOverride(OverrideCommand{Op: OverrideFeedCoarsePlus})
		return true
	case rtOverrideFeedCoarseMinus:
		reg.PushOverride(OverrideCommand{Op: OverrideFeedCoarseMinus})
		return true
	case rtOverrideFeedFinePlus:
		reg.PushOverride(OverrideCommand{Op: OverrideFeedFinePlus})
		return true
	case rtOverrideFeedFineMinus:
		reg.PushOverride(OverrideCommand{Op: OverrideFeedFineMinus})
		return true
	case rtOverrideFeedReset:
		reg.PushOverride(OverrideCommand{Op: OverrideFeedReset})
		return true
	case rtOverrideRapid100:
		reg.PushOverride(OverrideCommand{Op: OverrideRapid100})
		return true
	case rtOverrideRapidMedium:
		reg.PushOverride(OverrideCommand{Op: OverrideRapidMedium})
		return true
	case rtOverrideRapidLow:
		reg.PushOverride(OverrideCommand{Op: OverrideRapidLow})
		return true
	case rtOverrideSpindleCoarsePlus:
		reg.PushOverride(OverrideCommand{Op: OverrideSpindleCoarsePlus})
		return true
	case rtOverrideSpindleCoarseMinus:
		reg.PushOverride(OverrideCommand{Op: OverrideSpindleCoarseMinus})
		return true
	case rtOverrideSpindleFinePlus:
		reg.PushOverride(OverrideCommand{Op: OverrideSpindleFinePlus})
		return true
	case rtOverrideSpindleFineMinus:
		reg.PushOverride(OverrideCommand{Op: OverrideSpindleFineMinus})
		return true
	case rtOverrideSpindleReset:
		reg.PushOverride(OverrideCommand{Op: OverrideSpindleReset})
		return true
	case rtOverrideCoolantMist:
		reg.PushOverride(OverrideCommand{Op: OverrideCoolantMistToggle})
		return true
	case rtOverrideCoolantFlood:
		reg.PushOverride(OverrideCommand{Op: OverrideCoolantFloodToggle})
		return true
	case rtOverrideSpindleStopToggle:
		reg.PushOverride(OverrideCommand{Op: OverrideSpindleStopToggle})
		return true

	case rtStatusLegacy:
		if legacyAllowed(legacyRT, ctx) {
			reg.SetStateFlag(ExecStatusReport)
			return true
		}
		return false

	case rtCycleStart:
		if legacyAllowed(legacyRT, ctx) {
			reg.SetStateFlag(ExecCycleStart)
			return true
		}
		return false

	case rtFeedHoldLegacy:
		if legacyAllowed(legacyRT, ctx) {
			reg.SetStateFlag(ExecFeedHold)
			return true
		}
		return false
	}

	if b < 0x20 || (b >= 0x7F && b <= 0xBF) {
		return true
	}
	return false
}
