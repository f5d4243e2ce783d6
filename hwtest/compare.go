// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package hwtest provides utility functions for testing circuits.
//
package hwtest

import (
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/db47h/spisim"
	"github.com/db47h/spisim/hwlib"
)

func connString(pins []string) string {
	var b strings.Builder
	for _, n := range pins {
		if b.Len() > 0 {
			b.WriteRune(',')
		}
		b.WriteString(n + "=" + n)
	}
	return b.String()
}

// pinList rebuilds an IO spec from a list of pin names: bus pins "x[i]" are
// collapsed into a single "x[size]" declaration.
func pinList(in []string) string {
	bus := make(map[string]int)
	var names []string

	for _, n := range in {
		b := strings.IndexRune(n, '[')
		if b < 0 {
			names = append(names, n)
			continue
		}
		bn := n[:b]
		idx, err := strconv.Atoi(n[b+1 : strings.IndexRune(n, ']')])
		if err != nil {
			panic(err)
		}
		if bidx, ok := bus[bn]; !ok || bidx < idx {
			bus[bn] = idx
		}
	}
	for k, n := range bus {
		names = append(names, k+"["+strconv.Itoa(n+1)+"]")
	}
	sort.Strings(names)
	return strings.Join(names, ",")
}

func randBool(r *rand.Rand) bool {
	return r.Int63()&(1<<62) != 0
}

// ComparePart takes two parts and compares their outputs given the same inputs
// at every clock cycle. Both parts must have the same Input/Output interface,
// in the same order.
//
// tpc is the number of steps per clock cycle. Outputs are compared at the
// falling edge of the clock, so tpc/2 steps must be enough for the outputs of
// both parts to settle.
//
func ComparePart(t *testing.T, tpc uint, part1 spisim.NewPartFn, part2 spisim.NewPartFn) {
	t.Helper()

	seed := time.Now().UnixNano()
	rnd := rand.New(rand.NewSource(seed))

	p1, p2 := part1(""), part2("")

	// compare specs
	if len(p1.Inputs) != len(p2.Inputs) {
		t.Fatalf("%s has %d inputs, %s has %d", p1.Name, len(p1.Inputs), p2.Name, len(p2.Inputs))
	}
	if len(p1.Outputs) != len(p2.Outputs) {
		t.Fatalf("%s has %d outputs, %s has %d", p1.Name, len(p1.Outputs), p2.Name, len(p2.Outputs))
	}
	for i := range p1.Inputs {
		if p1.Inputs[i] != p2.Inputs[i] {
			t.Fatalf("input %d: %q != %q", i, p1.Inputs[i], p2.Inputs[i])
		}
	}
	for i := range p1.Outputs {
		if p1.Outputs[i] != p2.Outputs[i] {
			t.Fatalf("output %d: %q != %q", i, p1.Outputs[i], p2.Outputs[i])
		}
	}

	conns := connString(append(append([]string(nil), p1.Inputs...), p1.Outputs...))
	inputs := make([]bool, len(p1.Inputs))
	outputs := make([][2]bool, len(p1.Outputs))

	// build two wrappers with their own set of outputs
	wrap := func(name string, p spisim.NewPartFn, k int) spisim.NewPartFn {
		parts := spisim.Parts{p(conns)}
		for i, o := range p1.Outputs {
			n := i
			parts = append(parts, hwlib.Output(func(b bool) { outputs[n][k] = b })("in="+o))
		}
		w, err := spisim.Chip(name, pinList(p1.Inputs), "", parts...)
		if err != nil {
			t.Fatal(err)
		}
		return w
	}
	w1, w2 := wrap("wrapper1", part1, 0), wrap("wrapper2", part2, 1)

	var parts spisim.Parts
	for i, n := range p1.Inputs {
		k := i
		parts = append(parts, hwlib.Input(func() bool { return inputs[k] })("out="+n))
	}
	cstr := connString(p1.Inputs)
	parts = append(parts, w1(cstr), w2(cstr))

	c, err := spisim.NewCircuit(0, tpc, parts...)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Dispose()

	errString := func(oname string, ex, got bool) string {
		var b strings.Builder
		for i, n := range p1.Inputs {
			if b.Len() > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%v", n, inputs[i])
		}
		return fmt.Sprintf("cycle %d (seed %d)\nExpected %s => %s=%v\nGot %v", c.Cycles(), seed, b.String(), oname, ex, got)
	}
	check := func() {
		c.Tock()
		c.Tick()
		for o, out := range outputs {
			if out[0] != out[1] {
				t.Fatal(errString(p1.Outputs[o], out[0], out[1]))
			}
		}
	}

	iter := len(p1.Inputs)
	if iter > 12 {
		iter = 12
	}
	iter = 1 << uint(iter)

	start := time.Now()

	c.Tick()

	// try all 0, then all 1
	check()
	for in := range inputs {
		inputs[in] = true
	}
	check()

	// clocked parts need more than one cycle per input vector to be useful
	for i := 0; i < iter*4; i++ {
		for in := range inputs {
			inputs[in] = randBool(rnd)
		}
		check()
	}

	elapsed := time.Since(start)
	cycles := c.Cycles()
	t.Logf("%d components. %d steps in %v. %d clock cycles => %.2f Hz", c.Size(), c.Steps(), elapsed, cycles, float64(cycles)/elapsed.Seconds())
}
