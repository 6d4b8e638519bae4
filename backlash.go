package grblcore

// backlashState is the C10 per-axis direction memory and compensating
// rapid-insert tracker (spec.md §3/§4.10).
type backlashState struct {
	enabledMask  uint64 // bit i set when settings.Backlash[i] > eps
	negativeDir  uint64 // bit i set when axis i's current remembered direction is negative
	prevTarget   Position
}

// init computes the enabled mask from settings, sets the initial direction
// to the homing direction mask XORed with "negative" (so the remembered
// direction is the one pointing away from home, and the first move away
// from home injects no compensation while a first move toward home does),
// and sets previous-target from the current machine step position.
func (b *backlashState) init(s *Settings, machineSteps Position) {
	b.enabledMask = 0
	for i := 0; i < s.AxisCount; i++ {
		if s.axisEnabled(i) {
			b.enabledMask |= 1 << uint(i)
		}
	}
	// homing direction mask bit set => that axis homes in the negative
	// direction; XOR with "negative" (all-ones over AxisCount) yields the
	// direction the FIRST move away from home will be seen as already
	// matching, so it is not flagged as a reversal.
	allAxes := uint64(0)
	for i := 0; i < s.AxisCount; i++ {
		allAxes |= 1 << uint(i)
	}
	b.negativeDir = uint64(s.HomingDirectionMask) ^ allAxes
	b.prevTarget = machineSteps.Clone()
}

// syncPosition resets previous-target from the current machine steps
// (spec.md §4.10's "re-sync hook").
func (b *backlashState) syncPosition(machineSteps Position) {
	b.prevTarget = machineSteps.Clone()
}

// apply compares target against the remembered previous target on every
// enabled axis. If any axis's sign of motion reverses, it returns a shadow
// position with that axis's previous-target component shifted by the
// backlash magnitude in the new direction, and needsMove=true. The caller
// (C5) is responsible for actually emitting the synthesized move and must
// call commit afterward.
func (b *backlashState) apply(target Position, s *Settings) (shadow Position, needsMove bool) {
	shadow = b.prevTarget.Clone()
	for i := 0; i < len(target) && i < 64; i++ {
		if b.enabledMask&(1<<uint(i)) == 0 {
			continue
		}
		delta := target[i] - b.prevTarget[i]
		if delta == 0 {
			continue
		}
		goingNegative := delta < 0
		wasNegative := b.negativeDir&(1<<uint(i)) != 0
		if goingNegative == wasNegative {
			continue
		}
		mag := s.Backlash[i]
		if goingNegative {
			shadow[i] -= mag
		} else {
			shadow[i] += mag
		}
		needsMove = true
	}
	return shadow, needsMove
}

// commit flips the direction bit for every axis whose sign changed on this
// move and records target as the new previous-target. Always called after
// a move is emitted, whether or not a backlash insert was needed.
func (b *backlashState) commit(target Position) {
	for i := 0; i < len(target) && i < 64; i++ {
		delta := target[i] - b.prevTarget[i]
		if delta == 0 {
			continue
		}
		if delta < 0 {
			b.negativeDir |= 1 << uint(i)
		} else {
			b.negativeDir &^= 1 << uint(i)
		}
	}
	b.prevTarget = target.Clone()
}
