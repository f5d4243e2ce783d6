// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package spisim

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Updater is the interface that custom components built using reflection must implement.
// See MakePart.
//
type Updater interface {
	Update(c *Circuit)
}

// Clocked is implemented by Updaters that latch their inputs on the rising edge
// of the clock. Latch is registered as a Trigger when the part is mounted.
//
type Clocked interface {
	Updater
	Latch(c *Circuit)
}

type pinField struct {
	index []int
	name  string
	size  int // -1 for single pins
	input bool
}

// MakePart wraps an Updater into a custom part. The newFn function is called
// every time the part is mounted in a circuit and must return a pointer to a
// struct.
// Input/output pins are identified by field tags.
//
// The field tag must be `hw:"in"` or `hw:"out"` to identify input and output
// pins. By default, the pin name is the field name in lowercase. A specific
// pin name can be forced by adding it in the tag: `hw:"in,pin_name"`.
//
// Pins must be of type int, buses must be arrays of int. When mounted, these
// fields are set to the pin numbers allocated in the circuit.
//
//	type notGate struct {
//		In  int `hw:"in"`
//		Out int `hw:"out"`
//	}
//
//	func (g *notGate) Update(c *Circuit) { c.Set(g.Out, !c.Get(g.In)) }
//
//	var not = MakePart(func() Updater { return new(notGate) }).NewPart
//
// If the Updater also implements Clocked, Latch is called on every rising edge
// of the clock, before Update.
//
// MakePart panics if the type returned by newFn is not supported.
//
func MakePart(newFn func() Updater) *PartSpec {
	typ := reflect.TypeOf(newFn())
	if typ.Kind() != reflect.Ptr || typ.Elem().Kind() != reflect.Struct {
		panic(errors.Errorf("unsupported type %q: must be a pointer to a struct", typ))
	}
	typ = typ.Elem()

	sp := &PartSpec{
		Name: typ.Name(),
	}

	var fields []pinField
	n := typ.NumField()
	for i := 0; i < n; i++ {
		f := typ.Field(i)
		tag, ok := f.Tag.Lookup("hw")
		if !ok {
			continue
		}
		pf := pinField{index: f.Index, name: strings.ToLower(f.Name), size: -1}
		tv := strings.Split(tag, ",")
		if len(tv) > 1 && tv[1] != "" {
			pf.name = tv[1]
		}
		switch tv[0] {
		case "in":
			pf.input = true
		case "out":
		default:
			panic(errors.Errorf("unsupported tag %q for field %q in %q", tag, f.Name, typ.Name()))
		}

		ft := f.Type
		switch k := ft.Kind(); {
		case k == reflect.Array && ft.Elem().Kind() == reflect.Int:
			pf.size = ft.Len()
		case k == reflect.Int:
		default:
			panic(errors.Errorf("unsupported type %q for field %q in %q", k, f.Name, typ.Name()))
		}

		names := []string{pf.name}
		if pf.size >= 0 {
			names = make([]string, pf.size)
			for i := range names {
				names[i] = BusPinName(pf.name, i)
			}
		}
		if pf.input {
			sp.Inputs = append(sp.Inputs, names...)
		} else {
			sp.Outputs = append(sp.Outputs, names...)
		}
		fields = append(fields, pf)
	}

	sp.Mount = func(s *Socket) []Component {
		u := newFn()
		e := reflect.ValueOf(u).Elem()
		for _, pf := range fields {
			fv := e.FieldByIndex(pf.index)
			if pf.size < 0 {
				fv.SetInt(int64(s.Pin(pf.name)))
				continue
			}
			for i := 0; i < pf.size; i++ {
				fv.Index(i).SetInt(int64(s.Pin(pf.name + "[" + strconv.Itoa(i) + "]")))
			}
		}
		if l, ok := u.(Clocked); ok {
			s.OnTick(l.Latch)
		}
		return []Component{u.Update}
	}
	return sp
}
