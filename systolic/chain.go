// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package systolic

import (
	"fmt"

	"github.com/grailbio/base/errors"
)

// Boundary selects the top row and left column used to seed a chained
// Global alignment.
type Boundary int

const (
	// NeedlemanWunsch charges every leading gap: H[0][j] = j*Gap and
	// H[i][0] = i*Gap.
	NeedlemanWunsch Boundary = iota
	// SemiGlobal charges leading query gaps but lets the alignment start
	// anywhere in the subject: H[0][j] = j*Gap and H[i][0] = 0.  Combine with
	// ChainResult.BestLastColumn to also free the subject's trailing end.
	SemiGlobal
)

// String implements fmt.Stringer.
func (b Boundary) String() string {
	switch b {
	case NeedlemanWunsch:
		return "nw"
	case SemiGlobal:
		return "semiglobal"
	}
	return fmt.Sprintf("Boundary(%d)", int(b))
}

// ParseBoundary is the inverse of Boundary.String.
func ParseBoundary(s string) (Boundary, error) {
	switch s {
	case "nw":
		return NeedlemanWunsch, nil
	case "semiglobal":
		return SemiGlobal, nil
	}
	return 0, errors.E(errors.Invalid, fmt.Sprintf("systolic: unknown boundary %q", s))
}

// Rows returns the boundary for a subjectLen x queryLen matrix: top is
// H[0][0..queryLen] and left is H[1..subjectLen][0].
func (b Boundary) Rows(gap Score, subjectLen, queryLen int) (top, left []Score) {
	top = make([]Score, queryLen+1)
	for j := range top {
		top[j] = Score(j) * gap
	}
	left = make([]Score, subjectLen)
	if b == NeedlemanWunsch {
		for i := range left {
			left[i] = Score(i+1) * gap
		}
	}
	return top, left
}

// ChainResult is the outcome of a chained alignment.
type ChainResult struct {
	// Score is the Local best cell over all tiles, or the Global bottom-right
	// cell.
	Score Score
	// Column is the last column emitted, H[1..subjectLen][queryLen].  For the
	// Local variant it is exact only if PECount divides the query length.
	Column []Score
	// Tiles is the number of engine invocations.
	Tiles int
}

// BestLastColumn returns the largest cell of the last column.  For a
// SemiGlobal chain this is the score of the best alignment that consumes the
// whole query but may end anywhere in the subject.
func (r ChainResult) BestLastColumn() Score {
	best := r.Column[0]
	for _, s := range r.Column[1:] {
		best = maxScore(best, s)
	}
	return best
}

// Chain aligns a query of any length against subject by running one
// invocation per PECount-wide query tile.
//
// The carry between tiles is the output stream: tile t emits the matrix
// column at its right edge, H[1..s][end of tile t], and those scores become
// the carried scores (lane 0's left input) of tile t+1.  Each tile also gets
// its slice of the top row.  For the Global variant top (length
// len(query)+1) and left (length len(subject)) are required; Boundary.Rows
// builds the usual ones.  The Local variant starts from an all-zero boundary:
// top must be nil and left may be nil.
func (e *Engine) Chain(subject, query []Symbol, top, left []Score) (ChainResult, error) {
	s, q := len(subject), len(query)
	if s == 0 || q == 0 {
		return ChainResult{}, errors.E(errors.Invalid, fmt.Sprintf("systolic: empty sequence (subject %d, query %d)", s, q))
	}
	switch e.variant {
	case Global:
		if len(top) != q+1 {
			return ChainResult{}, errors.E(errors.Invalid, fmt.Sprintf("systolic: top row has %d entries, want %d", len(top), q+1))
		}
		if len(left) != s {
			return ChainResult{}, errors.E(errors.Invalid, fmt.Sprintf("systolic: left column has %d entries, want %d", len(left), s))
		}
	case Local:
		if top != nil {
			return ChainResult{}, errors.E(errors.Invalid, "systolic: the local variant takes no top row")
		}
		if left != nil && len(left) != s {
			return ChainResult{}, errors.E(errors.Invalid, fmt.Sprintf("systolic: left column has %d entries, want %d", len(left), s))
		}
	}

	pe := e.opts.PECount
	carry := make([]Score, s)
	copy(carry, left)
	elems := make([]Element, s)
	for i, sym := range subject {
		elems[i] = Element{Symbol: sym, Meta: Metadata{ID: uint32(i)}}
	}

	var (
		best  Score
		tiles = (q + pe - 1) / pe
	)
	for t := 0; t < tiles; t++ {
		off := t * pe
		end := off + pe
		if end > q {
			end = q
		}
		tile, err := e.NewTile(query[off:end])
		if err != nil {
			return ChainResult{}, err
		}
		inv := Invocation{Query: tile, SubjectLen: s}
		if e.variant == Global {
			inv.TopRow = make([]Score, pe+1)
			copy(inv.TopRow, top[off:end+1])
		}
		for i := range elems {
			elems[i].Score = carry[i]
		}
		out, score, err := e.Align(inv, elems)
		if err != nil {
			return ChainResult{}, errors.E(err, fmt.Sprintf("systolic: tile %d of %d", t+1, tiles))
		}
		for i := range out {
			carry[i] = out[i].Score
		}
		if e.variant == Local && t > 0 {
			best = maxScore(best, score)
		} else {
			best = score
		}
	}
	return ChainResult{Score: best, Column: carry, Tiles: tiles}, nil
}
