// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package systolic

// framer re-associates output scores with the metadata of the input element
// that produced them.  The pipeline is PECount-1 steps deep, so a ring of
// PECount records is enough: slot i%PECount is written at step i and read at
// step i+PECount-1.
type framer struct {
	ring  []Metadata
	old   int
	steps int
}

func newFramer(peCount, steps int) *framer {
	return &framer{ring: make([]Metadata, peCount), steps: steps}
}

// push records the metadata of the subject element consumed at step i.
func (f *framer) push(i int, m Metadata) {
	f.ring[i%len(f.ring)] = m
}

// ready reports whether step i emits an output.
func (f *framer) ready(i int) bool {
	return i >= len(f.ring)-1
}

// frame builds the output element for step i.  Last is set at the end of
// every PECount-element burst and on the final output of the invocation.
func (f *framer) frame(i int, score Score) Output {
	m := f.ring[f.old]
	f.old++
	if f.old == len(f.ring) {
		f.old = 0
	}
	return Output{
		Score: score,
		Meta:  m,
		Last:  f.old == 0 || i+1 >= f.steps,
	}
}
