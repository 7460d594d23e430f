// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lgmres

// correctionBank is a bounded FIFO store of correction vectors from
// completed cycles. It is implemented as a ring with a logical head so
// that eviction never moves vector data, and slot backing arrays are
// reused across evictions.
type correctionBank struct {
	slots [][]float64
	head  int // Index of the most recent entry.
	n     int
}

func newCorrectionBank(capacity int) *correctionBank {
	if capacity < 0 {
		panic("lgmres: negative bank capacity")
	}
	return &correctionBank{
		slots: make([][]float64, capacity),
		head:  -1,
	}
}

// add copies v into the bank, evicting the oldest entry when the bank is
// at capacity. It is a no-op for a zero-capacity bank.
func (b *correctionBank) add(v []float64) {
	if len(b.slots) == 0 {
		return
	}
	b.head = (b.head + 1) % len(b.slots)
	b.slots[b.head] = append(b.slots[b.head][:0], v...)
	if b.n < len(b.slots) {
		b.n++
	}
}

// size is the number of stored vectors, at most the capacity.
func (b *correctionBank) size() int {
	return b.n
}

// recent returns the i-th most recent vector, i=0 being the newest. The
// returned slice is owned by the bank and must not be modified.
func (b *correctionBank) recent(i int) []float64 {
	if i < 0 || b.n <= i {
		panic("lgmres: bank index out of range")
	}
	return b.slots[(b.head-i+len(b.slots))%len(b.slots)]
}
