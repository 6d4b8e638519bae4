package grblcore

import "github.com/rs/zerolog"

// Controller is the single owned "world" value that replaces the original
// firmware's global mutable singletons (sys, gc_state, settings, hal), per
// the design note in spec.md §9: one value carrying System plus every
// collaborator, passed by reference through the foreground call chain, and
// a small ISR-shared sub-record (Reg) with explicit atomic accessors.
type Controller struct {
	Settings Settings

	Reg *Register

	Planner  Planner
	Stepper  Stepper
	HAL      SpindleCoolantProbeHAL
	Stream   StreamHAL
	Pins     ControlPinHAL

	Log zerolog.Logger

	Overrides Overrides

	backlash backlashState

	sys System

	xcommand string // C11's single internal injected-g-code slot (spec.md §4.11)
}

// New builds a Controller wired to the given settings and collaborators.
// The realtime event register is owned here; callers obtain it via
// Registry for wiring ISR producers (control-pin edge handlers, the
// stepper ISR, the stream receiver) outside of this package.
func New(settings Settings, planner Planner, stepper Stepper, hal SpindleCoolantProbeHAL, stream StreamHAL, pins ControlPinHAL, log zerolog.Logger) *Controller {
	c := &Controller{
		Settings: settings,
		Reg:      &Register{},
		Planner:  planner,
		Stepper:  stepper,
		HAL:      hal,
		Stream:   stream,
		Pins:     pins,
		Log:      log,
		sys: System{
			Mode:               StateIdle,
			BlockDeleteEnabled: settings.BlockDeleteDefault,
			OverrideControlOn:  true,
		},
	}
	c.Overrides.reset(&settings)
	c.backlash.init(&settings, stepper.MachinePosition())
	return c
}

// Registry exposes the realtime event register so a host program can wire
// ISR-context producers (control-pin interrupts, the stepper ISR, a
// stream receiver) without reaching into Controller's other state.
func (c *Controller) Registry() *Register { return c.Reg }

// Mode reports the current system state.
func (c *Controller) Mode() State { return c.sys.Mode }

// Homed reports whether every axis in mask is marked homed.
func (c *Controller) Homed(mask uint32) bool {
	return c.sys.HomedMask&mask == mask
}
