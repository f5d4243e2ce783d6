// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package spi

import "golang.org/x/exp/constraints"

// field returns bits hi..lo of v, right aligned.
//
func field[T constraints.Unsigned](v T, hi, lo uint) T {
	return v >> lo & (T(1)<<(hi-lo+1) - 1)
}

func bit[T constraints.Unsigned](v T, n uint) bool {
	return v>>n&1 != 0
}

func b2u[T constraints.Unsigned](b bool) T {
	if b {
		return 1
	}
	return 0
}
