package grblcore

import "testing"

func TestIngestByteSoftReset(t *testing.T) {
	reg := &Register{}
	drop := IngestByte(rtSoftReset, reg, nil, false, nil)
	if !drop {
		t.Fatal("expected soft reset byte to be dropped")
	}
	if !reg.Test(ExecReset) {
		t.Fatal("expected ExecReset pending")
	}
}

func TestIngestByteSoftResetSuppressedDuringEStop(t *testing.T) {
	reg := &Register{}
	reg.SetEStop()
	IngestByte(rtSoftReset, reg, nil, false, nil)
	if reg.Test(ExecReset) {
		t.Fatal("reset must be suppressed while e-stop is latched")
	}
}

func TestIngestByteStopCancelsReadBuffer(t *testing.T) {
	reg := &Register{}
	stream := &testStream{}
	IngestByte(rtStop, reg, stream, false, nil)
	if !reg.Test(ExecStop) {
		t.Fatal("expected ExecStop pending")
	}
	if stream.cancelled != 1 {
		t.Fatalf("expected stream cancel once, got %d", stream.cancelled)
	}
}

func TestIngestByteJogCancelCancelsReadBuffer(t *testing.T) {
	reg := &Register{}
	stream := &testStream{}
	IngestByte(rtJogCancel, reg, stream, false, nil)
	if !reg.Test(ExecMotionCancel) {
		t.Fatal("expected ExecMotionCancel pending")
	}
	if stream.cancelled != 1 {
		t.Fatalf("expected stream cancel once, got %d", stream.cancelled)
	}
}

func TestIngestByteOverrideCommandsEnqueue(t *testing.T) {
	reg := &Register{}
	IngestByte(rtOverrideFeedCoarsePlus, reg, nil, false, nil)
	cmds := reg.DrainOverrides()
	if len(cmds) != 1 || cmds[0].Op != OverrideFeedCoarsePlus {
		t.Fatalf("expected one OverrideFeedCoarsePlus command, got %v", cmds)
	}
}

func TestIngestByteLegacyCharsGatedBySystemLine(t *testing.T) {
	reg := &Register{}
	ctx := &LineContext{InSystemLine: true}

	drop := IngestByte(rtCycleStart, reg, nil, false, ctx)
	if drop {
		t.Fatal("legacy '~' inside a $ system line should be passed through, not dropped")
	}
	if reg.Test(ExecCycleStart) {
		t.Fatal("legacy '~' inside a $ system line must not trigger a cycle start")
	}
}

func TestIngestByteLegacyCharsGatedByComment(t *testing.T) {
	reg := &Register{}
	ctx := &LineContext{InComment: true}

	drop := IngestByte(rtFeedHoldLegacy, reg, nil, false, ctx)
	if drop {
		t.Fatal("legacy '!' inside a comment should be passed through, not dropped")
	}
	if reg.Test(ExecFeedHold) {
		t.Fatal("legacy '!' inside a comment must not trigger a feed hold")
	}
}

func TestIngestByteLegacyRTSettingOverridesContext(t *testing.T) {
	reg := &Register{}
	ctx := &LineContext{InSystemLine: true}

	drop := IngestByte(rtStatusLegacy, reg, nil, true, ctx)
	if !drop {
		t.Fatal("expected legacy '?' to be consumed when LegacyRTCommands is on, regardless of context")
	}
	if !reg.Test(ExecStatusReport) {
		t.Fatal("expected ExecStatusReport pending")
	}
}

func TestIngestByteOrdinaryGCodePassesThrough(t *testing.T) {
	reg := &Register{}
	for _, b := range []byte("G1 X1 Y2") {
		if IngestByte(b, reg, nil, false, nil) {
			t.Fatalf("byte %q should not be dropped", b)
		}
	}
}

func TestIngestByteNewlinesNeverDropped(t *testing.T) {
	reg := &Register{}
	if IngestByte('\n', reg, nil, false, nil) {
		t.Fatal("newline must never be dropped; the line assembler needs to see it")
	}
	if IngestByte('\r', reg, nil, false, nil) {
		t.Fatal("carriage return must never be dropped")
	}
}
