// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package bridge replays command frames received on a serial port onto the
// simulated bus.
//
// Frames are sent as two bytes, most significant byte first. Nothing is sent
// back.
//
package bridge

import (
	"context"
	"encoding/binary"
	"io"
	"log"
	"time"

	"github.com/db47h/spisim/spi"
	"github.com/pkg/errors"
	"github.com/tarm/serial"
)

// Config holds the serial port configuration.
//
type Config struct {
	// Device path (e.g., "/dev/ttyUSB0", "COM3")
	Device string
	Baud   int
	// ReadTimeout bounds how long a read may block, and so how long it takes
	// for Feed to notice that its context is done. 0 blocks forever.
	ReadTimeout time.Duration
}

// DefaultConfig returns a 115200 baud configuration for the given device.
//
func DefaultConfig(device string) Config {
	return Config{
		Device:      device,
		Baud:        115200,
		ReadTimeout: 100 * time.Millisecond,
	}
}

// Port is an open serial port.
//
type Port struct {
	p *serial.Port
}

// Open opens a serial port.
//
func Open(cfg Config) (*Port, error) {
	p, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open serial port %s", cfg.Device)
	}
	return &Port{p}, nil
}

// Read implements io.Reader. A read timeout returns 0, nil.
//
func (p *Port) Read(b []byte) (int, error) {
	n, err := p.p.Read(b)
	if n == 0 && err == io.EOF {
		return 0, nil
	}
	return n, err
}

// Close closes the port.
//
func (p *Port) Close() error {
	return p.p.Close()
}

// A Sender sends raw frames on the bus. It is implemented by master.Driver.
//
type Sender interface {
	SendRaw(frame uint16, bits int)
}

// Feed reads frames from r and sends them with s until r returns io.EOF or
// ctx is done. It returns the number of frames sent. Data ending in the middle
// of a frame is an error.
//
// ctx is checked between reads only: r should not block forever.
//
func Feed(ctx context.Context, r io.Reader, s Sender, logger *log.Logger) (int, error) {
	var (
		buf  [2]byte
		have int
		n    int
	)
	for {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		k, err := r.Read(buf[have:])
		have += k
		if have == len(buf) {
			f := binary.BigEndian.Uint16(buf[:])
			s.SendRaw(f, spi.FrameBits)
			if logger != nil {
				logger.Printf("frame 0x%04x (%v)", f, spi.Decode(f))
			}
			n++
			have = 0
		}
		switch {
		case err == io.EOF:
			if have != 0 {
				return n, errors.Errorf("truncated frame after %d frame(s)", n)
			}
			return n, nil
		case err != nil:
			return n, errors.Wrap(err, "read failed")
		}
	}
}
