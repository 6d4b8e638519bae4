// Package grblcore implements the motion-control and realtime-protocol
// core of a CNC controller: it turns g-code motion requests into a stream
// of straight-line segments for a downstream trajectory planner, while
// interleaving that production with a realtime command layer (reset,
// feed-hold, cycle-start, overrides, alarms) that must stay safe against
// concurrent interrupt input.
//
// The core is a single foreground cooperative loop. Interrupt-level
// producers (a stream receiver, limit switches, control pins, the stepper
// ISR) only ever write to the realtime event register (Register); only the
// foreground loop (Controller.Run) drains it and advances the state
// machine. There are no goroutines inside the core package itself — the
// concurrency model is ISR-vs-foreground, not worker-pool.
package grblcore
