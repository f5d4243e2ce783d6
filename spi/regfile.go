// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package spi

import "fmt"

// RegisterFile holds the peripheral configuration registers. It is a value:
// readers always get a copy and cannot alter the receiver's state.
//
type RegisterFile struct {
	EnableOutput  uint16
	EnablePWMMode uint16
	PWMDutyCycle  uint8
}

// Apply returns the register file after executing c, and whether a field was
// written. Commands without the write flag and commands for an unknown
// address leave r unchanged.
//
func (r RegisterFile) Apply(c Command) (RegisterFile, bool) {
	if !c.Write {
		return r, false
	}
	d := uint16(c.Data)
	switch c.Addr {
	case AddrEnableOutLo:
		r.EnableOutput = r.EnableOutput&0xff00 | d
	case AddrEnableOutHi:
		r.EnableOutput = r.EnableOutput&0x00ff | d<<8
	case AddrPWMModeLo:
		r.EnablePWMMode = r.EnablePWMMode&0xff00 | d
	case AddrPWMModeHi:
		r.EnablePWMMode = r.EnablePWMMode&0x00ff | d<<8
	case AddrDutyCycle:
		r.PWMDutyCycle = c.Data
	default:
		return r, false
	}
	return r, true
}

// Get returns the byte at address a. The second return value is false for
// unknown addresses.
//
func (r RegisterFile) Get(a Addr) (uint8, bool) {
	switch a {
	case AddrEnableOutLo:
		return uint8(r.EnableOutput), true
	case AddrEnableOutHi:
		return uint8(r.EnableOutput >> 8), true
	case AddrPWMModeLo:
		return uint8(r.EnablePWMMode), true
	case AddrPWMModeHi:
		return uint8(r.EnablePWMMode >> 8), true
	case AddrDutyCycle:
		return r.PWMDutyCycle, true
	}
	return 0, false
}

// Bytes returns the five output buses, in address order.
//
func (r RegisterFile) Bytes() [5]uint8 {
	var b [5]uint8
	for i := range b {
		b[i], _ = r.Get(Addr(i))
	}
	return b
}

// UOOut returns the value of the Tiny Tapeout uo_out bus (EnableOutput[7:0]).
//
func (r RegisterFile) UOOut() uint8 { return uint8(r.EnableOutput) }

// UIOOut returns the value of the Tiny Tapeout uio_out bus (EnableOutput[15:8]).
//
func (r RegisterFile) UIOOut() uint8 { return uint8(r.EnableOutput >> 8) }

func (r RegisterFile) String() string {
	return fmt.Sprintf("en_out=0x%04x pwm_mode=0x%04x duty=0x%02x", r.EnableOutput, r.EnablePWMMode, r.PWMDutyCycle)
}
