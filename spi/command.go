// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package spi

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// FrameBits is the length of a command frame.
//
const FrameBits = 16

// Frame layout, bit 15 is transmitted first.
const (
	flagBit = 15
	addrHi  = 14
	addrLo  = 8
	dataHi  = 7
	dataLo  = 0

	// MaxAddr is the largest address that fits in a frame.
	MaxAddr Addr = 1<<(addrHi-addrLo+1) - 1
)

// Addr is a register address.
//
type Addr uint8

// Register addresses.
const (
	AddrEnableOutLo Addr = 0x00
	AddrEnableOutHi Addr = 0x01
	AddrPWMModeLo   Addr = 0x02
	AddrPWMModeHi   Addr = 0x03
	AddrDutyCycle   Addr = 0x04
)

var addrNames = [...]string{
	AddrEnableOutLo: "en_out_lo",
	AddrEnableOutHi: "en_out_hi",
	AddrPWMModeLo:   "pwm_mode_lo",
	AddrPWMModeHi:   "pwm_mode_hi",
	AddrDutyCycle:   "duty",
}

// Valid returns true if a is one of the register addresses.
//
func (a Addr) Valid() bool { return int(a) < len(addrNames) }

func (a Addr) String() string {
	if a.Valid() {
		return addrNames[a]
	}
	return fmt.Sprintf("0x%02x", uint8(a))
}

// ParseAddr parses a register name as returned by Addr.String, or a number
// in any base accepted by strconv.ParseUint.
//
func ParseAddr(s string) (Addr, error) {
	for i, n := range addrNames {
		if strings.EqualFold(s, n) {
			return Addr(i), nil
		}
	}
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil || Addr(v) > MaxAddr {
		return 0, errors.Errorf("invalid register address %q", s)
	}
	return Addr(v), nil
}

// Command is a decoded frame.
//
type Command struct {
	Write bool
	Addr  Addr
	Data  uint8
}

// Decode splits a 16 bits frame into its write flag, address and payload.
//
func Decode(frame uint16) Command {
	return Command{
		Write: bit(frame, flagBit),
		Addr:  Addr(field(frame, addrHi, addrLo)),
		Data:  uint8(field(frame, dataHi, dataLo)),
	}
}

// Encode returns the frame for c. It returns an error if the address does not
// fit in 7 bits.
//
func (c Command) Encode() (uint16, error) {
	if c.Addr > MaxAddr {
		return 0, errors.Errorf("address 0x%02x out of range [0x00, 0x%02x]", uint8(c.Addr), uint8(MaxAddr))
	}
	return b2u[uint16](c.Write)<<flagBit | uint16(c.Addr)<<addrLo | uint16(c.Data), nil
}

func (c Command) String() string {
	op := "R"
	if c.Write {
		op = "W"
	}
	return fmt.Sprintf("%s %v 0x%02x", op, c.Addr, c.Data)
}
