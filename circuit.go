// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package spisim

import (
	"math/bits"
	"runtime"
	"sync"

	"github.com/pkg/errors"
)

// A Component is a component in a circuit that can Get and Set pin states.
// Components are called once per simulation step and must Set all their
// outputs on every call.
//
type Component func(c *Circuit)

// A Trigger is called on the rising edge of the clock, before the components
// of that step run. Triggers latch input states into part state and must not
// Set any pin. Parts register triggers with Socket.OnTick.
//
type Trigger func(c *Circuit)

type phase int

const (
	phaseTrigger phase = iota
	phaseUpdate
)

// a unit is the share of the circuit run by one worker goroutine.
type unit struct {
	cs []Component
	ts []Trigger
	ph chan phase
}

// Circuit is a runnable circuit simulation.
//
// Wire states are double buffered: components read the states of the previous
// step and write those of the next one, so that the update order within a
// step does not matter.
//
type Circuit struct {
	s0    []bool // wire states at the current step
	s1    []bool // wire states at the next step
	count int    // wire count
	spc   uint
	step  uint

	cs []Component
	ts []Trigger

	units []unit
	busy  sync.WaitGroup // work in the current phase
	live  sync.WaitGroup // running workers
}

// NewCircuit builds a new circuit based on the given parts.
//
// workers is the number of goroutines used to update the state of the Circuit
// each step of the simulation. If less or equal to 0, the value of GOMAXPROCS
// will be used.
//
// stepsPerCycle indicates how many simulation steps to run per clock cycle
// (the Clk signal, not wall clock). It is rounded up to the next power of two,
// with a minimum of 2. Each combinational gate on the longest path between two
// clocked components takes one step to update its output, so stepsPerCycle/2
// must be at least as long as that path for outputs to settle within half a
// cycle.
//
// Callers must make sure to call Dispose() once the circuit is no longer needed
// in order to release allocated resources.
//
func NewCircuit(workers int, stepsPerCycle uint, parts ...Part) (*Circuit, error) {
	if len(parts) == 0 {
		return nil, errors.New("empty part list")
	}
	if stepsPerCycle < 2 {
		stepsPerCycle = 2
	}

	c := &Circuit{count: cstCount, spc: 1 << uint(bits.Len(stepsPerCycle-1))}
	wrap, err := Chip("CIRCUIT", "", "", parts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create chip wrapper")
	}
	c.cs = wrap("").Mount(newSocket(c))
	c.s0 = make([]bool, c.count)
	c.s1 = make([]bool, c.count)
	c.s0[cstTrue], c.s1[cstTrue] = true, true
	c.s0[cstClk] = true

	if workers <= 0 {
		workers = runtime.GOMAXPROCS(-1)
	}
	if workers > len(c.cs) {
		workers = len(c.cs)
	}
	if workers < 1 {
		workers = 1
	}
	c.units = make([]unit, workers)
	for i := range c.units {
		u := &c.units[i]
		u.cs = share(c.cs, i, workers)
		u.ts = share(c.ts, i, workers)
		u.ph = make(chan phase, 1)
	}
	c.live.Add(workers)
	for i := range c.units {
		go c.work(&c.units[i])
	}
	return c, nil
}

// share returns the i-th of n roughly equal slices of s.
func share[T any](s []T, i, n int) []T {
	return s[i*len(s)/n : (i+1)*len(s)/n]
}

func (c *Circuit) work(u *unit) {
	defer c.live.Done()
	for ph := range u.ph {
		if ph == phaseTrigger {
			for _, t := range u.ts {
				t(c)
			}
		} else {
			for _, f := range u.cs {
				f(c)
			}
		}
		c.busy.Done()
	}
}

func (c *Circuit) run(ph phase) {
	c.busy.Add(len(c.units))
	for i := range c.units {
		c.units[i].ph <- ph
	}
	c.busy.Wait()
}

// Dispose releases all resources allocated for a circuit and stops
// worker goroutines.
//
func (c *Circuit) Dispose() {
	for i := range c.units {
		close(c.units[i].ph)
	}
	c.live.Wait()
	c.units = nil
}

// allocPin allocates a pin and returns its number.
//
func (c *Circuit) allocPin() int {
	cnt := c.count
	c.count++
	return cnt
}

// Steps returns the value of the step counter.
//
func (c *Circuit) Steps() uint {
	return c.step
}

// SPC returns the stepsPerCycle value.
//
func (c *Circuit) SPC() uint {
	return c.spc
}

// Cycles returns the number of whole clock cycles run so far.
//
func (c *Circuit) Cycles() uint {
	return c.step / c.spc
}

// AtTick returns true if the current step is at the beginning of a clock cycle
// (rising edge of Clk).
//
func (c *Circuit) AtTick() bool {
	return c.step&(c.spc-1) == 0
}

// Get returns the state of pin n. The value of n should be obtained in a
// MountFn by a call to one of the Socket methods.
//
func (c *Circuit) Get(n int) bool {
	return c.s0[n]
}

// Set sets the state s of pin n. The value of n should be obtained in a
// MountFn by a call to one of the Socket methods.
//
func (c *Circuit) Set(n int, s bool) {
	c.s1[n] = s
}

// Step advances the simulation by one step. On the rising edge of the clock,
// all triggers run before the components.
//
func (c *Circuit) Step() {
	if len(c.ts) > 0 && c.AtTick() {
		c.run(phaseTrigger)
	}
	c.run(phaseUpdate)

	if c.s1[cstFalse] || !c.s1[cstTrue] {
		panic("true or false constants have been overwritten")
	}
	c.step++
	// Clk is high during the first half of each cycle.
	c.s1[cstClk] = c.step&(c.spc-1) < c.spc/2
	c.s0, c.s1 = c.s1, c.s0
	c.s1[cstTrue] = true
}

// Tick runs the simulation until the beginning of the next half clock cycle.
//
func (c *Circuit) Tick() {
	for c.Get(cstClk) {
		c.Step()
	}
}

// Tock runs the simulation until the beginning of the next clock cycle.
// Once Tock returns, the output of clocked components should have stabilized.
//
func (c *Circuit) Tock() {
	for !c.Get(cstClk) {
		c.Step()
	}
}

// TickTock runs the simulation for a whole clock cycle.
//
func (c *Circuit) TickTock() {
	c.Tick()
	c.Tock()
}

// Size returns the component count in the circuit.
//
func (c *Circuit) Size() int { return len(c.cs) }
