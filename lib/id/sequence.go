package id

import (
	"strconv"
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

// Generator hands out task ids.
type Generator interface {
	Number() uint64
	Str() string
}

var _ Generator = (*Sequence)(nil)

// Sequence is a lock free counter of non-zero ids, shared by the stress
// workers. It wraps around to 1 after math.MaxUint64.
// The counter sits on its own cache line.
type Sequence struct {
	_    cpu.CacheLinePad
	last atomic.Uint64
	_    cpu.CacheLinePad
}

// NewSequence returns a sequence whose first id is start+1, or 1 when
// start+1 overflows.
func NewSequence(start uint64) *Sequence {
	seq := &Sequence{}
	seq.last.Store(start)
	return seq
}

func (seq *Sequence) Number() uint64 {
	for {
		n := seq.last.Add(1)
		if n != 0 {
			return n
		}
		// Only the caller hitting 0 skips it, the others see 1, 2...
		if seq.last.CompareAndSwap(0, 1) {
			return 1
		}
	}
}

func (seq *Sequence) Str() string {
	return strconv.FormatUint(seq.Number(), 10)
}
