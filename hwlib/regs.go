// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

import (
	"github.com/db47h/spisim"
	"github.com/db47h/spisim/spi"
)

type spiRegs struct {
	SCLK   int    `hw:"in,sclk"`
	COPI   int    `hw:"in,copi"`
	NCS    int    `hw:"in,ncs"`
	RstN   int    `hw:"in,rst_n"`
	UOOut  [8]int `hw:"out,uo_out"`
	UIOOut [8]int `hw:"out,uio_out"`
	PWMLo  [8]int `hw:"out,pwm_lo"`
	PWMHi  [8]int `hw:"out,pwm_hi"`
	Duty   [8]int `hw:"out,duty"`

	rx      *spi.Receiver
	inReset bool
}

func (p *spiRegs) Latch(c *spisim.Circuit) {
	if c.Get(p.RstN) {
		p.rx.Tick(spi.Pins{SCLK: c.Get(p.SCLK), COPI: c.Get(p.COPI), NCS: c.Get(p.NCS)})
	}
}

func (p *spiRegs) Update(c *spisim.Circuit) {
	rst := !c.Get(p.RstN)
	if rst && !p.inReset {
		p.rx.Reset()
	}
	p.inReset = rst

	r := p.rx.Registers()
	SetUint64(c, p.UOOut[:], uint64(r.UOOut()))
	SetUint64(c, p.UIOOut[:], uint64(r.UIOOut()))
	SetUint64(c, p.PWMLo[:], uint64(uint8(r.EnablePWMMode)))
	SetUint64(c, p.PWMHi[:], uint64(r.EnablePWMMode>>8))
	SetUint64(c, p.Duty[:], uint64(r.PWMDutyCycle))
}

// SPIRegs returns a part that runs rx on the rising edge of the clock. rx is
// reset on the falling edge of rst_n and does not run while rst_n is low. The
// register file is available on the output buses.
//
// rx is expected to be in its reset state when the circuit starts, and the
// part must be mounted at most once.
//
//	Inputs: sclk, copi, ncs, rst_n
//	Outputs: uo_out[8], uio_out[8], pwm_lo[8], pwm_hi[8], duty[8]
//
func SPIRegs(rx *spi.Receiver) spisim.NewPartFn {
	return spisim.MakePart(func() spisim.Updater {
		return &spiRegs{rx: rx, inReset: true}
	}).NewPart
}
