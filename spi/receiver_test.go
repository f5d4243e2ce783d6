package spi_test

import (
	"math/rand"
	"testing"
	"testing/quick"

	"github.com/db47h/spisim/master"
	"github.com/db47h/spisim/spi"
)

var testTiming = master.Config{HalfPeriod: 2, Setup: 1, Trailer: 4}

func newBench(t *testing.T, cfg master.Config) (*spi.Receiver, *master.Driver) {
	t.Helper()
	rx := spi.NewReceiver()
	d, err := master.New(rx, cfg)
	if err != nil {
		t.Fatal(err)
	}
	d.Idle(4)
	return rx, d
}

func send(t *testing.T, d *master.Driver, c spi.Command) {
	t.Helper()
	if err := d.Send(c); err != nil {
		t.Fatal(err)
	}
}

func TestReceiver_scenarios(t *testing.T) {
	data := []struct {
		name  string
		frame uint16
		bits  int
		exp   spi.RegisterFile
	}{
		{"en_out_lo", 0x80ff, 16, spi.RegisterFile{EnableOutput: 0x00ff}},
		{"duty", 0x8480, 16, spi.RegisterFile{PWMDutyCycle: 0x80}},
		{"read", 0x0100, 16, spi.RegisterFile{}},
		{"abort_8", 0x80ff, 8, spi.RegisterFile{}},
		{"invalid_addr", 0xff55, 16, spi.RegisterFile{}},
		{"en_out_hi", 0x81cc, 16, spi.RegisterFile{EnableOutput: 0xcc00}},
		{"pwm_mode_lo", 0x82ff, 16, spi.RegisterFile{EnablePWMMode: 0x00ff}},
		{"pwm_mode_hi", 0x8301, 16, spi.RegisterFile{EnablePWMMode: 0x0100}},
	}
	for _, d := range data {
		t.Run(d.name, func(t *testing.T) {
			rx, drv := newBench(t, testTiming)
			drv.SendRaw(d.frame, d.bits)
			if got := rx.Registers(); got != d.exp {
				t.Fatalf("frame 0x%04x/%d: expected %v, got %v", d.frame, d.bits, d.exp, got)
			}
			if rx.InFrame() {
				t.Fatal("receiver still in frame after nCS released")
			}
		})
	}
}

// A bring-up sequence: writes, an invalid address and reads
// that must not disturb the registers.
func TestReceiver_testbench_sequence(t *testing.T) {
	rx, d := newBench(t, master.DefaultConfig())
	steps := []struct {
		cmd spi.Command
		uo  uint8
		uio uint8
	}{
		{spi.Command{Write: true, Addr: 0x00, Data: 0xf0}, 0xf0, 0x00},
		{spi.Command{Write: true, Addr: 0x01, Data: 0xcc}, 0xf0, 0xcc},
		{spi.Command{Write: true, Addr: 0x30, Data: 0xaa}, 0xf0, 0xcc},
		{spi.Command{Write: false, Addr: 0x30, Data: 0xbe}, 0xf0, 0xcc},
		{spi.Command{Write: false, Addr: 0x41, Data: 0xef}, 0xf0, 0xcc},
		{spi.Command{Write: true, Addr: 0x02, Data: 0xff}, 0xf0, 0xcc},
		{spi.Command{Write: true, Addr: 0x04, Data: 0xcf}, 0xf0, 0xcc},
	}
	for _, s := range steps {
		send(t, d, s.cmd)
		r := rx.Registers()
		if r.UOOut() != s.uo || r.UIOOut() != s.uio {
			t.Fatalf("%v: expected uo_out=0x%02x uio_out=0x%02x, got 0x%02x 0x%02x", s.cmd, s.uo, s.uio, r.UOOut(), r.UIOOut())
		}
	}
	exp := spi.RegisterFile{EnableOutput: 0xccf0, EnablePWMMode: 0x00ff, PWMDutyCycle: 0xcf}
	if r := rx.Registers(); r != exp {
		t.Fatalf("expected %v, got %v", exp, r)
	}
}

func TestReceiver_all_writes(t *testing.T) {
	rx, d := newBench(t, testTiming)
	var model spi.RegisterFile
	for a := spi.AddrEnableOutLo; a <= spi.AddrDutyCycle; a++ {
		for v := 0; v < 256; v++ {
			cmd := spi.Command{Write: true, Addr: a, Data: uint8(v)}
			var ok bool
			model, ok = model.Apply(cmd)
			if !ok {
				t.Fatalf("%v: not applied to model", cmd)
			}
			send(t, d, cmd)
			r := rx.Registers()
			if r != model {
				t.Fatalf("%v: expected %v, got %v", cmd, model, r)
			}
			if got, _ := r.Get(a); got != uint8(v) {
				t.Fatalf("%v: register reads 0x%02x", cmd, got)
			}
		}
	}
}

// prefill writes distinct values to all registers.
func prefill(t *testing.T, d *master.Driver) spi.RegisterFile {
	t.Helper()
	var model spi.RegisterFile
	for a, v := range []uint8{0x11, 0x22, 0x33, 0x44, 0x55} {
		cmd := spi.Command{Write: true, Addr: spi.Addr(a), Data: v}
		model, _ = model.Apply(cmd)
		send(t, d, cmd)
	}
	return model
}

func TestReceiver_invalid_address(t *testing.T) {
	rx, d := newBench(t, testTiming)
	model := prefill(t, d)
	for a := spi.AddrDutyCycle + 1; a <= spi.MaxAddr; a++ {
		send(t, d, spi.Command{Write: true, Addr: a, Data: uint8(rand.Intn(256))})
		if r := rx.Registers(); r != model {
			t.Fatalf("write to 0x%02x: expected %v, got %v", uint8(a), model, r)
		}
	}
}

func TestReceiver_no_write_flag(t *testing.T) {
	rx, d := newBench(t, testTiming)
	model := prefill(t, d)
	f := func(addr, data uint8) bool {
		send(t, d, spi.Command{Addr: spi.Addr(addr & 0x7f), Data: data})
		return rx.Registers() == model
	}
	if err := quick.Check(f, nil); err != nil {
		t.Fatal(err)
	}
}

func TestReceiver_abort(t *testing.T) {
	rx, d := newBench(t, testTiming)
	model := prefill(t, d)
	for bits := 0; bits < spi.FrameBits; bits++ {
		d.SendRaw(0x84aa, bits)
		if r := rx.Registers(); r != model {
			t.Fatalf("abort after %d bits: expected %v, got %v", bits, model, r)
		}
		if rx.InFrame() {
			t.Fatalf("abort after %d bits: still in frame", bits)
		}

		// next frame starts at bit 0
		d.Hold(spi.Pins{}, 3)
		if !rx.InFrame() || rx.BitCount() != 0 {
			t.Fatalf("abort after %d bits: next frame: in frame %v, bit count %d", bits, rx.InFrame(), rx.BitCount())
		}
		d.Idle(3)
	}
	send(t, d, spi.Command{Write: true, Addr: spi.AddrDutyCycle, Data: 0x42})
	model.PWMDutyCycle = 0x42
	if r := rx.Registers(); r != model {
		t.Fatalf("expected %v, got %v", model, r)
	}
}

// A one tick glitch on nCS mid-frame aborts the frame and restarts a new one.
func TestReceiver_select_glitch(t *testing.T) {
	rx, d := newBench(t, testTiming)
	const first, second = 0x80ff, 0x8412
	half := testTiming.HalfPeriod
	d.Hold(spi.Pins{}, 1)
	for i := 0; i < 8; i++ {
		b := first&(1<<uint(15-i)) != 0
		d.Hold(spi.Pins{COPI: b}, half)
		d.Hold(spi.Pins{SCLK: true, COPI: b}, half)
	}
	d.Hold(spi.Pins{NCS: true}, 1)
	d.SendRaw(second, 16)
	exp := spi.RegisterFile{PWMDutyCycle: 0x12}
	if r := rx.Registers(); r != exp {
		t.Fatalf("expected %v, got %v", exp, r)
	}
}

func TestReceiver_reset(t *testing.T) {
	rx, d := newBench(t, testTiming)
	prefill(t, d)

	// leave a partial frame pending
	half := testTiming.HalfPeriod
	const frame = 0x8433
	bitAt := func(i int) bool { return frame&(1<<uint(15-i)) != 0 }
	d.Hold(spi.Pins{}, 1)
	for i := 0; i < 8; i++ {
		d.Hold(spi.Pins{COPI: bitAt(i)}, half)
		d.Hold(spi.Pins{SCLK: true, COPI: bitAt(i)}, half)
	}
	// let the 8th edge through the synchronizer
	d.Hold(spi.Pins{}, 2)
	if !rx.InFrame() || rx.BitCount() != 8 {
		t.Fatalf("expected 8 bits in frame, got %d (in frame: %v)", rx.BitCount(), rx.InFrame())
	}

	rx.Reset()
	if r := rx.Registers(); r != (spi.RegisterFile{}) {
		t.Fatalf("registers not cleared by reset: %v", r)
	}
	if rx.InFrame() || rx.BitCount() != 0 {
		t.Fatal("frame state not cleared by reset")
	}
	if s := rx.Synced(); s != spi.Idle {
		t.Fatalf("synchronizers not idle after reset: %v", s)
	}

	// finish the frame: the receiver only ever sees 8 bits of it.
	for i := 8; i < 16; i++ {
		d.Hold(spi.Pins{COPI: bitAt(i)}, half)
		d.Hold(spi.Pins{SCLK: true, COPI: bitAt(i)}, half)
	}
	d.Idle(4)
	if r := rx.Registers(); r != (spi.RegisterFile{}) {
		t.Fatalf("partial frame carried over reset: %v", r)
	}
}

func TestReceiver_sync_latency(t *testing.T) {
	lines := []struct {
		name string
		set  func(p *spi.Pins, v bool)
		get  func(p spi.Pins) bool
	}{
		{"sclk", func(p *spi.Pins, v bool) { p.SCLK = v }, func(p spi.Pins) bool { return p.SCLK }},
		{"copi", func(p *spi.Pins, v bool) { p.COPI = v }, func(p spi.Pins) bool { return p.COPI }},
		{"ncs", func(p *spi.Pins, v bool) { p.NCS = v }, func(p spi.Pins) bool { return p.NCS }},
	}
	for _, l := range lines {
		t.Run(l.name, func(t *testing.T) {
			rx := spi.NewReceiver()
			p := spi.Idle
			rx.Tick(p)
			rx.Tick(p)
			old := l.get(rx.Synced())
			l.set(&p, !old)
			rx.Tick(p)
			if l.get(rx.Synced()) != old {
				t.Fatal("change visible after 1 tick")
			}
			rx.Tick(p)
			if l.get(rx.Synced()) == old {
				t.Fatal("change not visible after 2 ticks")
			}
		})
	}
}

func TestReceiver_edge_latency(t *testing.T) {
	rx := spi.NewReceiver()
	var evs []spi.Event
	rx.Trace = func(e spi.Event) { evs = append(evs, e) }
	rx.Tick(spi.Pins{})
	rx.Tick(spi.Pins{})
	if len(evs) != 0 {
		t.Fatalf("frame started too early: %v", evs)
	}
	rx.Tick(spi.Pins{})
	if len(evs) != 1 || evs[0].Kind != spi.EventStart || evs[0].Tick != 3 {
		t.Fatalf("expected frame start on tick 3, got %v", evs)
	}
	if !rx.InFrame() {
		t.Fatal("not in frame")
	}
}

func TestReceiver_back_to_back(t *testing.T) {
	rx, d := newBench(t, master.Config{HalfPeriod: 1, Setup: 0, Trailer: 0})
	send(t, d, spi.Command{Write: true, Addr: spi.AddrPWMModeHi, Data: 0xa5})
	send(t, d, spi.Command{Write: true, Addr: spi.AddrDutyCycle, Data: 0x5a})
	d.Idle(3)
	exp := spi.RegisterFile{EnablePWMMode: 0xa500, PWMDutyCycle: 0x5a}
	if r := rx.Registers(); r != exp {
		t.Fatalf("expected %v, got %v", exp, r)
	}
}

// The decoded frame must include the bit received on the completing tick.
func TestReceiver_last_bit(t *testing.T) {
	for _, data := range []uint8{0x01, 0x81, 0x7f, 0xfe} {
		rx, d := newBench(t, testTiming)
		var frames []spi.Event
		rx.Trace = func(e spi.Event) {
			if e.Kind == spi.EventFrame {
				frames = append(frames, e)
			}
		}
		cmd := spi.Command{Write: true, Addr: spi.AddrDutyCycle, Data: data}
		send(t, d, cmd)
		if len(frames) != 1 {
			t.Fatalf("expected 1 frame, got %d", len(frames))
		}
		if f := frames[0]; f.Cmd != cmd || !f.Written {
			t.Fatalf("expected %v, got %v", cmd, f)
		}
		if r := rx.Registers(); r.PWMDutyCycle != data || r.EnableOutput != 0 || r.EnablePWMMode != 0 {
			t.Fatalf("data 0x%02x: got %v", data, r)
		}
	}
}

func TestReceiver_trace(t *testing.T) {
	rx, d := newBench(t, testTiming)
	var kinds []spi.EventKind
	var last spi.Event
	rx.Trace = func(e spi.Event) { kinds = append(kinds, e.Kind); last = e }

	d.SendRaw(0x8001, 5)
	d.SendRaw(0x0501, 16)
	rx.Reset()

	exp := []spi.EventKind{spi.EventStart, spi.EventAbort, spi.EventStart, spi.EventFrame, spi.EventReset}
	if len(kinds) != len(exp) {
		t.Fatalf("expected events %v, got %v", exp, kinds)
	}
	for i := range exp {
		if kinds[i] != exp[i] {
			t.Fatalf("expected events %v, got %v", exp, kinds)
		}
	}
	if last.Kind != spi.EventReset {
		t.Fatalf("unexpected last event %v", last)
	}
}
