package grblcore

import "testing"

func TestDrillPlainCycleRetractsToRPlane(t *testing.T) {
	c, pl, _, _, _, _ := newTestController(3)

	req := DrillCycleRequest{
		Plane:   Plane{Axis0: 0, Axis1: 1, Linear: 2},
		Current: Position{0, 0, 5},
		RPlane:  2,
		FinalZ:  -10,
		Delta:   4,
		Feed:    100,
	}

	ok, err := c.Drill(DrillPlain, req)
	if err != nil || !ok {
		t.Fatalf("unexpected failure: ok=%v err=%v", ok, err)
	}

	last := pl.pushed[len(pl.pushed)-1]
	if last.Target[2] != req.RPlane {
		t.Fatalf("expected final retract to RPlane %v, got %v", req.RPlane, last.Target[2])
	}

	// At least one feed segment must have reached FinalZ exactly.
	var reachedFinal bool
	for _, seg := range pl.pushed {
		if seg.Motion == MotionFeed && seg.Target[2] == req.FinalZ {
			reachedFinal = true
		}
	}
	if !reachedFinal {
		t.Fatal("expected a feed segment to reach the configured final depth")
	}
}

func TestDrillChipBreakPartiallyRetractsBetweenPecks(t *testing.T) {
	c, pl, _, _, _, _ := newTestController(3)

	req := DrillCycleRequest{
		Plane:      Plane{Axis0: 0, Axis1: 1, Linear: 2},
		Current:    Position{0, 0, 2},
		RPlane:     2,
		FinalZ:     -6,
		Delta:      3,
		G73Retract: 0.5,
		Feed:       80,
	}

	ok, err := c.Drill(DrillChipBreak, req)
	if err != nil || !ok {
		t.Fatalf("unexpected failure: ok=%v err=%v", ok, err)
	}

	var sawPartialRetract bool
	for _, seg := range pl.pushed {
		if seg.Motion == MotionRapid && seg.Target[2] != req.RPlane && seg.Target[2] > req.FinalZ {
			sawPartialRetract = true
		}
	}
	if !sawPartialRetract {
		t.Fatal("expected at least one partial chip-break retract short of RPlane")
	}
}

func TestDrillRepeatsWithIncrementalXY(t *testing.T) {
	c, pl, _, _, _, _ := newTestController(3)

	req := DrillCycleRequest{
		Plane:         Plane{Axis0: 0, Axis1: 1, Linear: 2},
		Current:       Position{0, 0, 2},
		RPlane:        2,
		FinalZ:        -3,
		Delta:         5,
		Feed:          100,
		Repeats:       3,
		IncrementalXY: [2]float64{10, 0},
	}

	ok, err := c.Drill(DrillPlain, req)
	if err != nil || !ok {
		t.Fatalf("unexpected failure: ok=%v err=%v", ok, err)
	}

	var sawX10, sawX20 bool
	for _, seg := range pl.pushed {
		if seg.Target[0] == 10 {
			sawX10 = true
		}
		if seg.Target[0] == 20 {
			sawX20 = true
		}
	}
	if !sawX10 || !sawX20 {
		t.Fatal("expected the hole pattern to shift by IncrementalXY on each repeat")
	}
}

func TestSignedBelowHandlesBothConventions(t *testing.T) {
	// Normal convention: target below start (descending into the part).
	if signedBelow(-5, -10, 0) {
		t.Fatal("-5 has not yet reached -10 when descending from 0")
	}
	if !signedBelow(-10, -10, 0) {
		t.Fatal("-10 has reached -10 when descending from 0")
	}
	if !signedBelow(-12, -10, 0) {
		t.Fatal("-12 has passed -10 when descending from 0")
	}

	// Inverted convention: target above start.
	if signedBelow(5, 10, 0) {
		t.Fatal("5 has not yet reached 10 when ascending from 0")
	}
	if !signedBelow(11, 10, 0) {
		t.Fatal("11 has passed 10 when ascending from 0")
	}
}
