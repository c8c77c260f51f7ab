// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package systolic

// register is the pipeline register between lane pe and lane pe+1.  score is
// the cell lane pe computed for the row identified by sym; max is the
// running maximum (Local only).
type register struct {
	sym   Symbol
	score Score
	max   Score
}

// flush is the lane-0 input presented once the subject stream is drained,
// and the initial content of every register.
var flush = register{sym: Invalid}

// lane is the persistent state of one processing element.
//
// With lane pe owning query column j = pe+1 and the current row being r:
//   diag is H[r-1][j-1]
//   left is H[r-1][j], i.e. this lane's previous cell
//   max  is the best cell seen by this lane or any lane to its left (Local)
type lane struct {
	diag Score
	left Score
	max  Score
}

// array is the chain of processing elements.
type array struct {
	variant Variant
	scoring Scoring
	query   QueryTile
	lanes   []lane
	// in[pe] is lane pe's input for the current step.  out[pe] is what lane pe
	// forwards; it becomes in[pe+1] once every lane has run.
	in  []register
	out []register
}

// newArray initializes the lanes.  top is the Global variant's boundary row
// of length query.Width()+1; it is ignored by the Local variant, whose
// boundary is all zeros.
func newArray(variant Variant, scoring Scoring, query QueryTile, top []Score) *array {
	n := query.Width()
	a := &array{
		variant: variant,
		scoring: scoring,
		query:   query,
		lanes:   make([]lane, n),
		in:      make([]register, n),
		out:     make([]register, n),
	}
	for pe := range a.in {
		a.in[pe] = flush
	}
	if variant == Global {
		for pe := range a.lanes {
			a.lanes[pe].diag = top[pe]
			a.lanes[pe].left = top[pe+1]
		}
	}
	return a
}

// step advances every lane by one cycle, with head as lane 0's input.
func (a *array) step(head register) {
	a.in[0] = head
	switch a.variant {
	case Local:
		for pe := range a.lanes {
			a.out[pe] = a.local(pe, a.in[pe])
		}
	default:
		for pe := range a.lanes {
			a.out[pe] = a.global(pe, a.in[pe])
		}
	}
	// All lanes have read their inputs; only now may they be overwritten.
	copy(a.in[1:], a.out[:len(a.out)-1])
}

// local evaluates the zero-floored recurrence for lane pe.
func (a *array) local(pe int, r register) register {
	l := &a.lanes[pe]
	var m1 Score
	if pe < a.query.Len() && r.sym != Invalid {
		m1 = l.diag + a.scoring.substitute(r.sym, a.query.At(pe))
	}
	m2 := a.scoring.Gap + maxScore(l.left, r.score)
	h := maxScore(0, maxScore(m1, m2))
	runMax := maxScore(h, maxScore(r.max, l.max))

	l.diag = r.score
	if r.sym != Invalid {
		l.left = h
	}
	l.max = runMax
	return register{sym: r.sym, score: h, max: runMax}
}

// global evaluates the unfloored recurrence for lane pe.  Lanes past the end
// of the query are plain shift-register stages so the last lane still sees
// the tile's right boundary with the right timing.
func (a *array) global(pe int, r register) register {
	l := &a.lanes[pe]
	if a.query.Degenerate(pe) {
		l.left = r.score
		return register{sym: r.sym, score: r.score}
	}
	if r.sym == Invalid {
		return register{sym: r.sym, score: r.score}
	}
	m1 := l.diag + a.scoring.substitute(r.sym, a.query.At(pe))
	m2 := a.scoring.Gap + maxScore(l.left, r.score)
	h := maxScore(m1, m2)
	l.diag = r.score
	l.left = h
	return register{sym: r.sym, score: h}
}

// cell is the last lane's current cell, i.e. the value emitted on the output
// stream.
func (a *array) cell() Score {
	return a.lanes[len(a.lanes)-1].left
}

// result is the scalar result of the invocation once all steps have run.
func (a *array) result() Score {
	last := a.lanes[len(a.lanes)-1]
	if a.variant == Local {
		return last.max
	}
	return last.left
}
