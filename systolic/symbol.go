// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package systolic

import (
	"fmt"
	"math"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/sysalign/biosimd"
)

// Symbol is an encoded nucleotide.
type Symbol uint8

// Symbol codes.  Invalid marks padding/flush cycles and query slots past the
// end of a tile; it never matches anything.
const (
	A Symbol = iota
	C
	G
	T
	Invalid
)

// Valid reports whether s is one of the five defined codes.
func (s Symbol) Valid() bool { return s <= Invalid }

// String implements fmt.Stringer.
func (s Symbol) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Symbol(%d)", uint8(s))
	}
	return string(biosimd.CodesToASCIITable[s])
}

// ParseSymbol converts a raw code into a Symbol, rejecting codes above
// Invalid.
func ParseSymbol(code uint32) (Symbol, error) {
	if code > uint32(Invalid) {
		return Invalid, errors.E(errors.Invalid, fmt.Sprintf("systolic: symbol code %d out of range", code))
	}
	return Symbol(code), nil
}

// EncodeASCII converts an ACGT string (either case) into symbols.  Any other
// character is an error; in particular 'N' is not silently turned into
// padding.
func EncodeASCII(seq []byte) ([]Symbol, error) {
	if pos := biosimd.IndexNonACGT(seq); pos >= 0 {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("systolic: non-ACGT character %q at position %d", seq[pos], pos))
	}
	codes := make([]byte, len(seq))
	biosimd.ASCIIToCodes(codes, seq)
	syms := make([]Symbol, len(codes))
	for i, c := range codes {
		syms[i] = Symbol(c)
	}
	return syms, nil
}

// MustEncodeASCII is EncodeASCII for literals known to be valid.  It panics
// on error.
func MustEncodeASCII(seq string) []Symbol {
	syms, err := EncodeASCII([]byte(seq))
	if err != nil {
		panic(err)
	}
	return syms
}

// DecodeASCII renders symbols as capital letters, with '-' for Invalid.
func DecodeASCII(syms []Symbol) string {
	codes := make([]byte, len(syms))
	for i, s := range syms {
		codes[i] = byte(s)
	}
	out := make([]byte, len(codes))
	biosimd.CodesToASCII(out, codes)
	return string(out)
}

// Bounds of a score that fits the 16-bit half of a stream data word.
const (
	MinWireScore = Score(math.MinInt16)
	MaxWireScore = Score(math.MaxInt16)
)

// PackWord builds a stream data word: the symbol code in the high 16 bits
// and the score, as a two's-complement int16, in the low 16 bits.
func PackWord(sym Symbol, score Score) (uint32, error) {
	if !sym.Valid() {
		return 0, errors.E(errors.Invalid, fmt.Sprintf("systolic: symbol code %d out of range", uint8(sym)))
	}
	if score < MinWireScore || score > MaxWireScore {
		return 0, errors.E(errors.Invalid, fmt.Sprintf("systolic: score %d does not fit in 16 bits", score))
	}
	return uint32(sym)<<16 | uint32(uint16(int16(score))), nil
}

// UnpackWord is the inverse of PackWord.  The low half is sign-extended.
func UnpackWord(w uint32) (Symbol, Score, error) {
	sym, err := ParseSymbol(w >> 16)
	if err != nil {
		return Invalid, 0, err
	}
	return sym, Score(int16(uint16(w))), nil
}
