package grblcore

// Overrides holds the live feed/rapid/spindle override percentages and the
// two-phase spindle-stop toggle state (spec.md §3/§4.4).
type Overrides struct {
	FeedPct    int
	RapidPct   int
	SpindlePct int

	SpindleStopping bool // initiate has run, restore has not yet
}

func (o *Overrides) reset(s *Settings) {
	o.FeedPct = s.OverrideDefaultFeed
	o.RapidPct = s.OverrideDefaultRapid
	o.SpindlePct = s.OverrideDefaultSpindle
	o.SpindleStopping = false
}

func clampPct(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Drain applies every pending override command, in the two groups named by
// spec.md §4.4: feed/rapid first, then spindle/coolant/spindle-stop. The
// whole drain is skipped while DelayOverrides is set (tool-change, and
// certain canned passes that must not have their feed perturbed mid-cut).
func (o *Overrides) Drain(c *Controller) {
	if c.sys.DelayOverrides {
		return
	}
	cmds := c.Reg.DrainOverrides()
	if len(cmds) == 0 {
		return
	}

	s := &c.Settings
	for _, cmd := range cmds {
		if cmd.Op.group() != OverrideGroupFeedRapid {
			continue
		}
		switch cmd.Op {
		case OverrideFeedCoarsePlus:
			o.FeedPct = clampPct(o.FeedPct+s.OverrideFeedCoarse, 10, 200)
		case OverrideFeedCoarseMinus:
			o.FeedPct = clampPct(o.FeedPct-s.OverrideFeedCoarse, 10, 200)
		case OverrideFeedFinePlus:
			o.FeedPct = clampPct(o.FeedPct+s.OverrideFeedFine, 10, 200)
		case OverrideFeedFineMinus:
			o.FeedPct = clampPct(o.FeedPct-s.OverrideFeedFine, 10, 200)
		case OverrideFeedReset:
			o.FeedPct = s.OverrideDefaultFeed
		case OverrideRapid100:
			o.RapidPct = 100
		case OverrideRapidMedium:
			o.RapidPct = 50
		case OverrideRapidLow:
			o.RapidPct = 25
		}
	}

	for _, cmd := range cmds {
		if cmd.Op.group() != OverrideGroupSpindleCoolant {
			continue
		}
		switch cmd.Op {
		case OverrideSpindleCoarsePlus:
			o.SpindlePct = clampPct(o.SpindlePct+s.OverrideSpindleCoarse, 10, 200)
		case OverrideSpindleCoarseMinus:
			o.SpindlePct = clampPct(o.SpindlePct-s.OverrideSpindleCoarse, 10, 200)
		case OverrideSpindleFinePlus:
			o.SpindlePct = clampPct(o.SpindlePct+s.OverrideSpindleFine, 10, 200)
		case OverrideSpindleFineMinus:
			o.SpindlePct = clampPct(o.SpindlePct-s.OverrideSpindleFine, 10, 200)
		case OverrideSpindleReset:
			o.SpindlePct = s.OverrideDefaultSpindle
		case OverrideCoolantMistToggle:
			if c.sys.Mode == StateIdle || c.sys.Mode == StateCycle || c.sys.Mode == StateHold {
				c.sys.ModalCoolant ^= CoolantMist
				c.HAL.CoolantSetState(c.sys.ModalCoolant)
			}
		case OverrideCoolantFloodToggle:
			if c.sys.Mode == StateIdle || c.sys.Mode == StateCycle || c.sys.Mode == StateHold {
				c.sys.ModalCoolant ^= CoolantFlood
				c.HAL.CoolantSetState(c.sys.ModalCoolant)
			}
		case OverrideSpindleStopToggle:
			if c.sys.Mode == StateHold && c.sys.ModalSpindle != SpindleOff {
				if !o.SpindleStopping {
					o.SpindleStopping = true
					c.HAL.SpindleSetState(SpindleOff, 0)
				} else {
					o.SpindleStopping = false
					c.HAL.SpindleSetState(c.sys.ModalSpindle, c.sys.ModalSpindleRPM)
				}
			}
		}
	}

	c.Planner.FeedOverride(o.FeedPct, o.RapidPct)
}

// flushBuffers discards any pending override commands without applying
// them, used by EXEC_STOP (spec.md §4.3 "flush override buffers").
func (o *Overrides) flushBuffers(c *Controller) {
	c.Reg.DrainOverrides()
	o.SpindleStopping = false
}
