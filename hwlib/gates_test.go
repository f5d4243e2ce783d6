package hwlib_test

import (
	"strings"
	"testing"
	"testing/quick"

	hw "github.com/db47h/spisim"
	hl "github.com/db47h/spisim/hwlib"
)

const testTPC = 8

func testGate(t *testing.T, gate hw.NewPartFn, result [][]bool) {
	t.Helper()
	part := gate("").PartSpec // build dummy gate just to get to the partspec
	inputs := make([]bool, len(part.Inputs))
	outputs := make([]bool, len(part.Outputs))
	var w strings.Builder
	parts := make(hw.Parts, 0, len(part.Inputs)+len(part.Outputs)+1)
	for i, n := range part.Inputs {
		w.WriteString("," + n + "=" + n)
		in := &inputs[i]
		parts = append(parts, hl.Input(func() bool { return *in })("out="+n))
	}
	for i, n := range part.Outputs {
		w.WriteString("," + n + "=" + n)
		out := &outputs[i]
		parts = append(parts, hl.Output(func(v bool) { *out = v })("in="+n))
	}
	parts = append(parts, gate(strings.TrimPrefix(w.String(), ",")))
	c, err := hw.NewCircuit(0, testTPC, parts...)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Dispose()

	tot := 1 << uint(len(part.Inputs))
	for i := 0; i < tot; i++ {
		for bit := range inputs {
			inputs[len(inputs)-bit-1] = (i & (1 << uint(bit))) != 0
		}
		c.TickTock()
		for o, out := range outputs {
			exp := result[o][i]
			if exp != out {
				t.Errorf("%s %v = %v, got %v", part.Name, inputs, exp, out)
			}
		}
	}
}

func Test_gate_builtin(t *testing.T) {
	tr, err := hw.Chip("TRUE", "a", "out",
		hl.And("a=true, b=true, out=out"),
	)
	if err != nil {
		t.Fatal(err)
	}
	fa, err := hw.Chip("FALSE", "a", "out",
		hl.Or("a=false, b=false, out=out"),
	)
	if err != nil {
		t.Fatal(err)
	}
	td := []struct {
		name   string
		gate   hw.NewPartFn
		result [][]bool // a=0 && b=0, a=0 && b=1, a=1 && b=0, a=1 && b=1
	}{
		{"NOT", hl.Not, [][]bool{{true, false}}},
		{"AND", hl.And, [][]bool{{false, false, false, true}}},
		{"NAND", hl.Nand, [][]bool{{true, true, true, false}}},
		{"OR", hl.Or, [][]bool{{false, true, true, true}}},
		{"TRUE", tr, [][]bool{{true, true}}},
		{"FALSE", fa, [][]bool{{false, false}}},
	}
	for _, d := range td {
		t.Run(d.name, func(t *testing.T) {
			testGate(t, d.gate, d.result)
		})
	}
}

func TestInputN(t *testing.T) {
	var in, out uint64
	c, err := hw.NewCircuit(0, testTPC,
		hl.InputN(16, func() uint64 { return in })("out[0..15]= t[0..15]"),
		hl.OutputN(16, func(n uint64) { out = n })("in[0..15] = t[0..15]"),
	)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Dispose()

	f := func(v uint16) bool {
		in = uint64(v)
		c.TickTock()
		return out == in
	}
	if err = quick.Check(f, nil); err != nil {
		t.Fatal(err)
	}
}

func TestDFF(t *testing.T) {
	var in, out uint64

	dff4, err := hw.Chip("DFF4", "in[4]", "out[4]",
		hl.DFF("in=in[0], out=out[0]"),
		hl.DFF("in=in[1], out=out[1]"),
		hl.DFF("in=in[2], out=out[2]"),
		hl.DFF("in=in[3], out=out[3]"),
	)
	if err != nil {
		t.Fatal(err)
	}

	c, err := hw.NewCircuit(0, testTPC,
		hl.InputN(4, func() uint64 { return in })("out[0..3]=in[0..3]"),
		dff4("in[0..3]=in[0..3], out[0..3]=out[0..3]"),
		hl.OutputN(4, func(o uint64) { out = o })("in[0..3]=out[0..3]"),
	)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Dispose()

	var prev uint64
	for i := 15; i >= 0; i-- {
		in = uint64(i)
		c.TickTock()
		if prev != out {
			t.Fatalf("bad output for input %d: expected out = %d, got %d", in, prev, out)
		}
		prev = in
	}
}

func TestDFFR(t *testing.T) {
	for _, preset := range []bool{false, true} {
		var rstN, out bool
		in := !preset
		c, err := hw.NewCircuit(0, testTPC,
			hl.Input(func() bool { return in })("out=d"),
			hl.Input(func() bool { return rstN })("out=rst_n"),
			hl.DFFR(preset)("in=d, rst_n=rst_n, out=q"),
			hl.Output(func(v bool) { out = v })("in=q"),
		)
		if err != nil {
			t.Fatal(err)
		}

		rstN = true
		c.TickTock()
		c.TickTock()
		if out != in {
			t.Fatalf("preset %v: expected out = %v, got %v", preset, in, out)
		}

		// reset is asynchronous
		rstN = false
		c.Tick()
		if out != preset {
			t.Fatalf("preset %v: expected out = %v during reset, got %v", preset, preset, out)
		}
		c.Tock()
		rstN = true
		c.TickTock()
		if out != preset {
			t.Fatalf("preset %v: expected out = %v after reset, got %v", preset, preset, out)
		}
		c.TickTock()
		if out != in {
			t.Fatalf("preset %v: expected out = %v, got %v", preset, in, out)
		}
		c.Dispose()
	}
}
