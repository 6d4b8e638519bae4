// Command grblsim runs the grblcore protocol loop against an in-memory
// simulated machine fed from stdin, using a real serial port when -device is
// given and a real SPI control-pin expander when -spi-device is given. It exists to exercise the core the way goserial's own cmd/
// examples exercise that package: a small, runnable wiring of the library
// rather than a production controller.
package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/gocnc/grblcore"
	"github.com/gocnc/grblcore/halpins"
	"github.com/gocnc/grblcore/halserial"
)

func main() {
	var (
		device     = pflag.StringP("device", "d", "", "serial device path; empty reads input from stdin")
		spiDevice  = pflag.String("spi-device", "", "SPI device path for the control-pin expander; empty uses a fake always-idle pin set")
		baud       = pflag.IntP("baud", "b", 115200, "baud rate when -device is a real tty")
		axisCount  = pflag.IntP("axes", "a", 3, "machine axis count")
		verbose    = pflag.BoolP("verbose", "v", false, "debug-level logging")
		scriptArgs = pflag.StringArrayP("run", "r", nil, "g-code line to feed at startup, may be repeated")
	)
	pflag.Parse()

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).With().Timestamp().Logger()

	settings := defaultSettings(*axisCount)

	planner := newFakePlanner()
	stepper := newFakeStepper(*axisCount)
	hal := newFakeHAL(log)

	var pins grblcore.ControlPinHAL = fakePins{}
	if *spiDevice != "" {
		exp, err := halpins.Open(*spiDevice, halpins.Wiring{
			Mode: 0, Bits: 8, SpeedHz: 500000,
			ResetBit: 0, CycleBit: 1, HoldBit: 2, DoorBit: 3, EStopBit: 4,
			ActiveLow: true,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("open control-pin expander")
		}
		defer exp.Close()
		pins = exp
	}

	var stream grblcore.StreamHAL
	if *device != "" {
		opts := halserial.NewOptions()
		opts.Baud = baudFlag(*baud)
		port, err := halserial.Open(*device, opts)
		if err != nil {
			log.Fatal().Err(err).Msg("open serial device")
		}
		defer port.Close()
		s := halserial.NewStream(port, 256)
		defer s.Close()
		stream = s
	} else {
		stream = newFakeStream(os.Stdin)
	}

	c := grblcore.New(settings, planner, stepper, hal, stream, pins, log)
	handler := &echoHandler{log: log, startup: *scriptArgs}

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		<-sigCh
		cancel()
	}()

	if err := c.Run(ctx, handler); err != nil {
		log.Error().Err(err).Msg("run exited")
		os.Exit(1)
	}
}

func defaultSettings(axes int) grblcore.Settings {
	return grblcore.Settings{
		AxisCount:           axes,
		Backlash:            make([]float64, axes),
		HomingEnabledMask:   0,
		HomingCycle:         []grblcore.HomingCycleGroup{{AxisMask: 0x1}, {AxisMask: 0x6}},
		HomingPullOff:       1.0,
		HomingFeed:          25,
		HomingSeekFeed:      500,
		SoftLimitsEnabled:   false,
		HardLimitsEnabled:   false,
		TravelMax:           make(grblcore.Position, axes),
		ArcTolerance:        0.002,
		ArcCorrectionStep:   12,
		OverrideDefaultFeed: 100, OverrideDefaultRapid: 100, OverrideDefaultSpindle: 100,
		OverrideFeedCoarse: 10, OverrideFeedFine: 1,
		OverrideSpindleCoarse: 10, OverrideSpindleFine: 1,
		BlockDeleteDefault: false,
		SleepEnabled:       false,
		LegacyRTCommands:   false,
	}
}

func baudFlag(n int) halserial.CFlag {
	switch n {
	case 9600:
		return halserial.B9600
	case 19200:
		return halserial.B19200
	case 38400:
		return halserial.B38400
	case 57600:
		return halserial.B57600
	case 230400:
		return halserial.B230400
	default:
		return halserial.B115200
	}
}

// echoHandler is the simplest possible grblcore.LineHandler: it logs
// dispatched lines and reports success, standing in for the g-code
// interpreter and $-settings store that a production build would supply
// (spec.md §1 marks both out of scope for this core).
type echoHandler struct {
	log     zerolog.Logger
	startup []string
}

func (h *echoHandler) HandleSystemCommand(line string) grblcore.StatusCode {
	h.log.Info().Str("line", line).Msg("system command")
	return grblcore.StatusOK
}

func (h *echoHandler) HandleUserCommand(line string) grblcore.StatusCode {
	h.log.Info().Str("line", line).Msg("user command")
	return grblcore.StatusOK
}

func (h *echoHandler) HandleGCode(line string) grblcore.StatusCode {
	h.log.Info().Str("line", line).Msg("g-code")
	return grblcore.StatusOK
}

func (h *echoHandler) StartupScript() []string {
	return h.startup
}

func newFakeStream(f *os.File) grblcore.StreamHAL {
	return &stdinStream{f: f}
}

// stdinStream is a minimal, non-blocking-on-a-best-effort-basis StreamHAL
// for demo use over stdin; a real deployment uses halserial.Stream instead.
type stdinStream struct {
	f         *os.File
	suspended bool
	pending   []byte
}

func (s *stdinStream) Read() (byte, bool) {
	if s.suspended {
		return 0, false
	}
	if len(s.pending) == 0 {
		buf := make([]byte, 256)
		n, _ := s.f.Read(buf)
		if n == 0 {
			return 0, false
		}
		s.pending = buf[:n]
	}
	b := s.pending[0]
	s.pending = s.pending[1:]
	return b, true
}

func (s *stdinStream) SuspendRead(suspend bool) { s.suspended = suspend }
func (s *stdinStream) CancelReadBuffer()        { s.pending = nil }
