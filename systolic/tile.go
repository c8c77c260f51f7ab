// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package systolic

import (
	"fmt"

	"github.com/grailbio/base/errors"
)

// QueryTile is the resident query window of one invocation: Width() slots,
// of which the first Len() hold query symbols and the rest hold Invalid.
type QueryTile struct {
	syms []Symbol
	n    int
}

// NewQueryTile copies query into a tile of the given width.  The query must
// be at most width long and consist of A/C/G/T only.
func NewQueryTile(width int, query []Symbol) (QueryTile, error) {
	if width < 1 {
		return QueryTile{}, errors.E(errors.Invalid, fmt.Sprintf("systolic: tile width must be positive, got %d", width))
	}
	if len(query) > width {
		return QueryTile{}, errors.E(errors.Invalid, fmt.Sprintf("systolic: query length %d exceeds tile width %d", len(query), width))
	}
	t := QueryTile{syms: make([]Symbol, width), n: len(query)}
	for i, s := range query {
		if s >= Invalid {
			return QueryTile{}, errors.E(errors.Invalid, fmt.Sprintf("systolic: query position %d holds non-nucleotide %v", i, s))
		}
		t.syms[i] = s
	}
	for i := len(query); i < width; i++ {
		t.syms[i] = Invalid
	}
	return t, nil
}

// Width is the number of slots.
func (t QueryTile) Width() int { return len(t.syms) }

// Len is the true query length.
func (t QueryTile) Len() int { return t.n }

// At returns the symbol in slot pe.
func (t QueryTile) At(pe int) Symbol { return t.syms[pe] }

// Degenerate reports whether slot pe lies past the end of the query.
func (t QueryTile) Degenerate(pe int) bool { return pe >= t.n }

// String renders the query part of the tile.
func (t QueryTile) String() string { return DecodeASCII(t.syms[:t.n]) }
