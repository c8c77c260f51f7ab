// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package systolic

import (
	"fmt"
	"io"

	"github.com/grailbio/base/errors"
)

// Invocation describes one pass of the array over a subject stream.
type Invocation struct {
	// Query is the resident tile.  Its width must equal Opts.PECount.
	Query QueryTile
	// SubjectLen is the number of elements to consume from the subject stream.
	SubjectLen int
	// TopRow is the Global variant's boundary row, H[0][0..PECount].  It must
	// be nil for the Local variant.
	TopRow []Score
}

// Engine runs invocations of one variant.  An Engine holds no per-invocation
// state and may be used concurrently.
type Engine struct {
	variant Variant
	opts    Opts
}

// New creates an engine.
func New(variant Variant, opts Opts) (*Engine, error) {
	if variant != Local && variant != Global {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("systolic: unknown variant %d", int(variant)))
	}
	if err := opts.Validate(variant); err != nil {
		return nil, err
	}
	return &Engine{variant: variant, opts: opts}, nil
}

// Variant returns the engine's recurrence.
func (e *Engine) Variant() Variant { return e.variant }

// Opts returns the engine's configuration.
func (e *Engine) Opts() Opts { return e.opts }

// NewTile builds a query tile of the engine's width.
func (e *Engine) NewTile(query []Symbol) (QueryTile, error) {
	return NewQueryTile(e.opts.PECount, query)
}

// Steps is the number of scheduler steps inv takes.
func (e *Engine) Steps(inv Invocation) int {
	n := e.opts.PECount
	if q := inv.Query.Len(); q > n {
		n = q
	}
	return inv.SubjectLen + n - 1
}

func (e *Engine) check(inv Invocation) error {
	if inv.Query.Width() != e.opts.PECount {
		return errors.E(errors.Invalid, fmt.Sprintf("systolic: tile width %d, engine has %d processing elements", inv.Query.Width(), e.opts.PECount))
	}
	if inv.SubjectLen < 1 {
		return errors.E(errors.Invalid, fmt.Sprintf("systolic: subject length must be positive, got %d", inv.SubjectLen))
	}
	switch e.variant {
	case Global:
		if len(inv.TopRow) != e.opts.PECount+1 {
			return errors.E(errors.Invalid, fmt.Sprintf("systolic: top row has %d entries, want %d", len(inv.TopRow), e.opts.PECount+1))
		}
	case Local:
		if inv.TopRow != nil {
			return errors.E(errors.Invalid, "systolic: the local variant takes no top row")
		}
	}
	return nil
}

// Run drives one invocation: it consumes exactly inv.SubjectLen elements from
// src, writes exactly inv.SubjectLen elements to dst and returns the scalar
// result (Local: best cell of the tile; Global: bottom-right cell).
//
// Malformed invocations are rejected before anything is read.  If src runs
// dry early, Run fails with an errors.Precondition error; elements already
// written to dst must then be discarded.
func (e *Engine) Run(inv Invocation, src ElementReader, dst OutputWriter) (Score, error) {
	if err := e.check(inv); err != nil {
		return 0, err
	}
	var (
		steps = e.Steps(inv)
		arr   = newArray(e.variant, e.opts.Scoring, inv.Query, inv.TopRow)
		fr    = newFramer(e.opts.PECount, steps)
	)
	for i := 0; i < steps; i++ {
		head := flush
		if i < inv.SubjectLen {
			el, err := src.Read()
			if err == io.EOF {
				return 0, errors.E(errors.Precondition, fmt.Sprintf("systolic: subject stream ended after %d of %d elements", i, inv.SubjectLen))
			}
			if err != nil {
				return 0, errors.E(err, "systolic: reading subject stream")
			}
			if !el.Symbol.Valid() {
				return 0, errors.E(errors.Invalid, fmt.Sprintf("systolic: subject element %d has symbol code %d", i, uint8(el.Symbol)))
			}
			head = register{sym: el.Symbol, score: el.Score}
			fr.push(i, el.Meta)
		}
		arr.step(head)
		if fr.ready(i) {
			if err := dst.Write(fr.frame(i, arr.cell())); err != nil {
				return 0, err
			}
		}
	}
	return arr.result(), nil
}

// Align is Run over an in-memory subject.  len(subject) must equal
// inv.SubjectLen.  On error it returns no output at all.
func (e *Engine) Align(inv Invocation, subject []Element) ([]Output, Score, error) {
	if len(subject) != inv.SubjectLen {
		return nil, 0, errors.E(errors.Invalid, fmt.Sprintf("systolic: %d subject elements, invocation expects %d", len(subject), inv.SubjectLen))
	}
	w := SliceWriter{Outputs: make([]Output, 0, len(subject))}
	score, err := e.Run(inv, NewSliceReader(subject), &w)
	if err != nil {
		return nil, 0, err
	}
	return w.Outputs, score, nil
}
