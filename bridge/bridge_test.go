package bridge_test

import (
	"bytes"
	"context"
	"testing"
	"testing/iotest"

	"github.com/db47h/spisim/bridge"
	"github.com/db47h/spisim/master"
	"github.com/db47h/spisim/spi"
)

type recorder []uint16

func (r *recorder) SendRaw(frame uint16, bits int) {
	if bits != spi.FrameBits {
		panic("short frame")
	}
	*r = append(*r, frame)
}

func TestFeed(t *testing.T) {
	var rec recorder
	data := []byte{0x80, 0xf0, 0x81, 0xcc, 0x04, 0x00}
	// one byte at a time
	n, err := bridge.Feed(context.Background(), iotest.OneByteReader(bytes.NewReader(data)), &rec, nil)
	if err != nil {
		t.Fatal(err)
	}
	exp := recorder{0x80f0, 0x81cc, 0x0400}
	if n != len(exp) || len(rec) != len(exp) {
		t.Fatalf("expected %d frames, got %d (%v)", len(exp), n, rec)
	}
	for i := range exp {
		if rec[i] != exp[i] {
			t.Fatalf("frame %d: expected 0x%04x, got 0x%04x", i, exp[i], rec[i])
		}
	}
}

func TestFeed_truncated(t *testing.T) {
	var rec recorder
	n, err := bridge.Feed(context.Background(), bytes.NewReader([]byte{0x84, 0x12, 0x84}), &rec, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if n != 1 {
		t.Fatalf("expected 1 frame, got %d", n)
	}
}

func TestFeed_read_error(t *testing.T) {
	var rec recorder
	if _, err := bridge.Feed(context.Background(), iotest.TimeoutReader(bytes.NewReader([]byte{1, 2, 3, 4})), &rec, nil); err == nil {
		t.Fatal("expected error")
	}
}

// zeroReader returns 0, nil forever, like a serial port timing out.
type zeroReader struct{}

func (zeroReader) Read([]byte) (int, error) { return 0, nil }

func TestFeed_cancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var rec recorder
	_, err := bridge.Feed(ctx, zeroReader{}, &rec, nil)
	if err != context.Canceled {
		t.Fatalf("expected %v, got %v", context.Canceled, err)
	}
}

func TestFeed_receiver(t *testing.T) {
	rx := spi.NewReceiver()
	d, err := master.New(rx, master.Config{HalfPeriod: 2, Setup: 1, Trailer: 4})
	if err != nil {
		t.Fatal(err)
	}
	data := []byte{0x84, 0x80, 0x83, 0x12, 0x05, 0xff}
	if _, err = bridge.Feed(context.Background(), bytes.NewReader(data), d, nil); err != nil {
		t.Fatal(err)
	}
	exp := spi.RegisterFile{EnablePWMMode: 0x1200, PWMDutyCycle: 0x80}
	if r := rx.Registers(); r != exp {
		t.Fatalf("expected %v, got %v", exp, r)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := bridge.DefaultConfig("/dev/ttyUSB0")
	if cfg.Device != "/dev/ttyUSB0" || cfg.Baud != 115200 || cfg.ReadTimeout <= 0 {
		t.Fatalf("bad default config %+v", cfg)
	}
}
