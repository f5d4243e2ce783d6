// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

/*
Package spisim provides a cycle based simulator for the SPI controlled register
file of a small PWM peripheral, along with the naive hardware simulator it runs
on.

The simulator composes parts (logic gates, flip-flops, behavioural components)
into chips and circuits, using Go as a hardware description language. The
receiver itself lives in package spi as a plain tick function; package hwlib
mounts it as a part and provides the gate level building blocks used to
cross-check its input stage.

A circuit is built from parts wired together with connection strings:

	c, err := spisim.NewCircuit(0, 8,
		hwlib.Input(func() bool { return in })("out=a"),
		hwlib.Not("in=a, out=notA"),
		hwlib.Output(func(v bool) { out = v })("in=notA"),
	)

Parts are instanciated from a *PartSpec. Custom parts either provide a MountFn
returning closures around the pin numbers allocated to them, or are built by
reflection from a struct implementing Updater (see MakePart). Clocked parts
latch their inputs in a Trigger, registered with Socket.OnTick, which runs on
the rising edge of the clock before any component of that step.
*/
package spisim
