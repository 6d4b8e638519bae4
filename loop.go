package grblcore

import (
	"context"
	"strings"
)

// LineHandler dispatches a fully-assembled, comment-stripped line to its
// external collaborator, per spec.md §6's prefix dispatch: '$' => system
// command, '[' => user command, else g-code. All three are out of scope
// for this package (spec.md §1) — only the dispatch and gating logic is
// this core's responsibility.
type LineHandler interface {
	HandleSystemCommand(line string) StatusCode
	HandleUserCommand(line string) StatusCode
	HandleGCode(line string) StatusCode
	StartupScript() []string
}

// CommentFilter strips whitespace and comments from a raw assembled line
// before dispatch (spec.md §1 "the line-editing input filter"). The
// default, defaultFilter below, drops '(...)' and ';' comments and trims
// surrounding whitespace. Run always uses defaultFilter; Controller has no
// field for supplying a different CommentFilter.
type CommentFilter interface {
	Filter(line string) string
}

type defaultFilter struct{}

func (defaultFilter) Filter(line string) string {
	var b strings.Builder
	depth := 0
	for _, r := range line {
		switch {
		case r == '(':
			depth++
		case r == ')':
			if depth > 0 {
				depth--
			}
		case r == ';' && depth == 0:
			return strings.TrimSpace(b.String())
		case depth == 0:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// autoCycleStart implements the "triggers auto-cycle-start" behavior
// named throughout spec.md §4.11/§4.5: if the machine is idle and the
// planner already holds a block, request a cycle start so the next
// realtime checkpoint advances IDLE -> CYCLE without requiring an
// explicit '~' from the operator.
func (c *Controller) autoCycleStart() {
	if c.sys.Mode == StateIdle && c.Planner.HasCurrentBlock() {
		c.Reg.SetStateFlag(ExecCycleStart)
	}
}

// coldStartGate implements spec.md §4.11's startup gating: elevate to
// ALARM if e-stop is asserted, homing is required but not complete, hard
// limits are already engaged, or the setting forces it; otherwise enter
// IDLE. It returns nil in every case; Run takes the startup script from
// its LineHandler and runs it only when the gate leaves the system IDLE.
func (c *Controller) coldStartGate() []string {
	switch {
	case c.Reg.EStop():
		c.setAlarm(AlarmEStop)
	case c.Settings.HomingEnabledMask != 0 && !c.Homed(c.Settings.HomingEnabledMask):
		c.setAlarm(AlarmHomingRequired)
	case c.Stepper.LimitsGetState() != 0:
		c.setAlarm(AlarmHardLimit)
	case c.Settings.ForceInitAlarm:
		c.setAlarm(AlarmAbortCycle)
	default:
		c.sys.Mode = StateIdle
		return nil
	}
	return nil
}

// Run is the C11 main protocol loop (spec.md §4.11). It drains c.Stream as
// input bytes via its non-blocking Read (spec.md §6 "non-blocking read() →
// byte | NONE"), forwards control characters to C2 (IngestByte), assembles
// lines through filter, and dispatches complete lines to handler. It exits
// when ctx is cancelled or the system sets its sticky Exit flag.
//
// Read returning ok=false means no byte is currently available, not
// end-of-stream: the loop must keep ticking C1 regardless (spec.md §2/§4.11
// "drains input, ticks C1…"), the same as it does between bytes of a line,
// so every no-data iteration still runs autoCycleStart and a realtime
// checkpoint before looping.
//
// ctx is an idiomatic addition not present in the original firmware's C
// main loop (see SPEC_FULL.md): it gives a host program a way to ask the
// loop to return between lines. It is never consulted by in-flight motion
// busy-waits — EXEC_RESET via the realtime event register remains the only
// cancellation mechanism there, per spec.md §5.
func (c *Controller) Run(ctx context.Context, handler LineHandler) error {
	filter := CommentFilter(defaultFilter{})

	if startup := c.coldStartGate(); startup != nil {
		for _, line := range startup {
			handler.HandleGCode(line)
		}
	} else if c.sys.Mode == StateIdle {
		for _, line := range handler.StartupScript() {
			handler.HandleGCode(line)
		}
	}

	var lineBuf strings.Builder
	lctx := &LineContext{}
	semicolonComment := false

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if c.sys.Exit {
			return nil
		}

		b, ok := c.Stream.Read()
		if !ok {
			c.autoCycleStart()
			if err := c.realtimeCheckpoint(); err != nil {
				c.Log.Debug().Err(err).Msg("realtime checkpoint observed abort while idle")
			}
			continue
		}

		if b == '$' && lineBuf.Len() == 0 {
			lctx.InSystemLine = true
		}
		if b == '(' {
			lctx.InComment = true
		}
		if b == ')' && !semicolonComment {
			lctx.InComment = false
		}
		if b == ';' && !lctx.InComment {
			lctx.InComment = true
			semicolonComment = true
		}

		if IngestByte(b, c.Reg, c.Stream, c.Settings.LegacyRTCommands, lctx) {
			continue
		}

		if b == '\n' || b == '\r' {
			raw := lineBuf.String()
			lineBuf.Reset()
			lctx.InSystemLine = false
			lctx.InComment = false
			semicolonComment = false

			if err := c.realtimeCheckpoint(); err != nil {
				c.Log.Debug().Err(err).Msg("realtime checkpoint aborted line dispatch")
				continue
			}

			line := filter.Filter(raw)
			if line != "" {
				c.dispatchLine(line, handler)
			}

			c.autoCycleStart()
			if err := c.realtimeCheckpoint(); err != nil {
				c.Log.Debug().Err(err).Msg("realtime checkpoint aborted after line")
			}
			continue
		}

		lineBuf.WriteByte(b)
	}
}

// dispatchLine implements spec.md §6's prefix dispatch, plus the single
// internal xcommand slot of spec.md §4.11.
//
// Open design question preserved intentionally (spec.md §9): when the
// xcommand slot holds a '$' line, it is executed without its status code
// being reported back to the issuer. This is reproduced here as-is rather
// than generalized, per spec.md's explicit instruction to keep it a quirk.
//
// Gating follows spec.md §7 tier 2: the three critical alarms (hard-limit,
// soft-limit, e-stop), plus ESTOP/SLEEP outright, "block the foreground
// until reset" — every line is refused. A non-critical alarm only blocks
// g-code motion (the invariant in spec.md §3); '$' and '[' lines still
// reach their handlers so an operator can unlock or query status.
func (c *Controller) dispatchLine(line string, handler LineHandler) StatusCode {
	if c.xcommand != "" {
		injected := c.xcommand
		c.xcommand = ""
		if strings.HasPrefix(injected, "$") {
			handler.HandleSystemCommand(injected)
		} else {
			handler.HandleGCode(injected)
		}
	}

	if c.sys.Mode == StateEStop || c.sys.Mode == StateSleep ||
		(c.sys.Mode == StateAlarm && c.sys.ActiveAlarm.critical()) {
		return StatusSystemGClock
	}

	switch {
	case strings.HasPrefix(line, "$"):
		return handler.HandleSystemCommand(line)
	case strings.HasPrefix(line, "["):
		return handler.HandleUserCommand(line)
	default:
		if c.sys.Mode == StateAlarm {
			return StatusSystemGClock
		}
		return handler.HandleGCode(line)
	}
}

// InjectGCode fills C11's single internal xcommand slot (spec.md §4.11),
// used by collaborators (e.g. a tool-change sequence) that need to run one
// line of g-code ahead of the next line read from the stream. A second
// call before the slot drains silently overwrites the first, matching the
// "single slot" semantics named in spec.md.
func (c *Controller) InjectGCode(line string) {
	c.xcommand = line
}
