// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

import (
	"github.com/db47h/spisim"
	"github.com/db47h/spisim/spi"
)

var sync2 = [2]spisim.NewPartFn{
	must(spisim.Chip("SYNC2_0", "in, rst_n", "out",
		DFFR(false)("in=in, rst_n=rst_n, out=s1"),
		DFFR(false)("in=s1, rst_n=rst_n, out=out"),
	)),
	must(spisim.Chip("SYNC2_1", "in, rst_n", "out",
		DFFR(true)("in=in, rst_n=rst_n, out=s1"),
		DFFR(true)("in=s1, rst_n=rst_n, out=out"),
	)),
}

// Sync2 returns a two stage synchronizer built from two DFFR. Both stages
// reset to preset.
//
//	Inputs: in, rst_n
//	Outputs: out
//	Function: out(t) = in(t-2)
//
func Sync2(preset bool) spisim.NewPartFn {
	if preset {
		return sync2[1]
	}
	return sync2[0]
}

var edgeDetect = [2]spisim.NewPartFn{
	newEdgeDetect("EDGE0", false),
	newEdgeDetect("EDGE1", true),
}

func newEdgeDetect(name string, preset bool) spisim.NewPartFn {
	return must(spisim.Chip(name, "in, rst_n", "prev, rise, fall",
		DFFR(preset)("in=in, rst_n=rst_n, out=prev"),
		Not("in=prev, out=nprev"),
		Not("in=in, out=nin"),
		And("a=in, b=nprev, out=rise"),
		And("a=nin, b=prev, out=fall"),
	))
}

// EdgeDetect returns an edge detector. prev holds the value of in at the
// previous clock cycle and resets to preset.
//
//	Inputs: in, rst_n
//	Outputs: prev, rise, fall
//	Function: rise = in && !prev
//	          fall = !in && prev
//
func EdgeDetect(preset bool) spisim.NewPartFn {
	if preset {
		return edgeDetect[1]
	}
	return edgeDetect[0]
}

var frontend = must(spisim.Chip("FRONTEND",
	"sclk, copi, ncs, rst_n",
	"sclk_s, copi_s, ncs_s, rise, fall",
	Sync2(false)("in=sclk, rst_n=rst_n, out=sclk_s"),
	Sync2(false)("in=copi, rst_n=rst_n, out=copi_s"),
	Sync2(true)("in=ncs, rst_n=rst_n, out=ncs_s"),
	EdgeDetect(false)("in=sclk_s, rst_n=rst_n, rise=rise"),
	EdgeDetect(true)("in=ncs_s, rst_n=rst_n, fall=fall"),
))

// Frontend returns the gate-level receiver front end: a synchronizer on each
// bus line, then rising edge detection on SCLK and falling edge detection on
// nCS.
//
//	Inputs: sclk, copi, ncs, rst_n
//	Outputs: sclk_s, copi_s, ncs_s, rise, fall
//
func Frontend(w string) spisim.Part { return frontend(w) }

type frontendPart struct {
	SCLK  int `hw:"in,sclk"`
	COPI  int `hw:"in,copi"`
	NCS   int `hw:"in,ncs"`
	RstN  int `hw:"in,rst_n"`
	SCLKS int `hw:"out,sclk_s"`
	COPIS int `hw:"out,copi_s"`
	NCSS  int `hw:"out,ncs_s"`
	Rise  int `hw:"out,rise"`
	Fall  int `hw:"out,fall"`

	fe spi.Frontend
}

func (p *frontendPart) Latch(c *spisim.Circuit) {
	if c.Get(p.RstN) {
		p.fe = p.fe.Next(spi.Pins{SCLK: c.Get(p.SCLK), COPI: c.Get(p.COPI), NCS: c.Get(p.NCS)})
	}
}

func (p *frontendPart) Update(c *spisim.Circuit) {
	if !c.Get(p.RstN) {
		p.fe = spi.NewFrontend()
	}
	s, e := p.fe.Synced(), p.fe.Edges()
	c.Set(p.SCLKS, s.SCLK)
	c.Set(p.COPIS, s.COPI)
	c.Set(p.NCSS, s.NCS)
	c.Set(p.Rise, e.ClockRising)
	c.Set(p.Fall, e.SelectFalling)
}

var frontendSpec = spisim.MakePart(func() spisim.Updater {
	return &frontendPart{fe: spi.NewFrontend()}
})

// FrontendPart is the behavioural version of Frontend, a spi.Frontend mounted
// as a part. Both have the same pins and produce the same outputs.
//
func FrontendPart(w string) spisim.Part { return frontendSpec.NewPart(w) }
