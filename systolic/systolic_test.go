// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package systolic_test

import (
	"math/rand"
	"os"
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/grail"
	"github.com/grailbio/sysalign/systolic"
	"github.com/grailbio/sysalign/util"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	shutdown := grail.Init()
	status := m.Run()
	shutdown()
	os.Exit(status)
}

func randomSeq(r *rand.Rand, n int) []systolic.Symbol {
	seq := make([]systolic.Symbol, n)
	for i := range seq {
		seq[i] = systolic.Symbol(r.Intn(4))
	}
	return seq
}

func oracleScoring(sc systolic.Scoring) util.Scoring {
	return util.Scoring{Match: int(sc.Match), Mismatch: int(sc.Mismatch), Gap: int(sc.Gap)}
}

func ints(scores []systolic.Score) []int {
	r := make([]int, len(scores))
	for i, s := range scores {
		r[i] = int(s)
	}
	return r
}

func elements(subject []systolic.Symbol, left []systolic.Score) []systolic.Element {
	elems := make([]systolic.Element, len(subject))
	for i, s := range subject {
		elems[i] = systolic.Element{Symbol: s, Meta: systolic.Metadata{ID: uint32(i)}}
		if left != nil {
			elems[i].Score = left[i]
		}
	}
	return elems
}

func newEngine(t *testing.T, v systolic.Variant, peCount int, sc systolic.Scoring) *systolic.Engine {
	e, err := systolic.New(v, systolic.Opts{PECount: peCount, Scoring: sc})
	require.NoError(t, err)
	return e
}

func TestLocalExamples(t *testing.T) {
	tests := []struct {
		peCount        int
		subject, query string
		want           systolic.Score
	}{
		{4, "ACGT", "AG", 3},
		{2, "ACGT", "AG", 3},
		{4, "AAAA", "CC", 0},
		{4, "ACGT", "ACGT", 8},
		{1, "TTTAT", "A", 2},
		{8, "G", "CGC", 2},
	}
	for _, test := range tests {
		e := newEngine(t, systolic.Local, test.peCount, systolic.DefaultOpts.Scoring)
		tile, err := e.NewTile(systolic.MustEncodeASCII(test.query))
		require.NoError(t, err)
		subject := systolic.MustEncodeASCII(test.subject)
		out, score, err := e.Align(systolic.Invocation{Query: tile, SubjectLen: len(subject)}, elements(subject, nil))
		require.NoError(t, err)
		expect.EQ(t, score, test.want, "%+v", test)
		expect.EQ(t, len(out), len(subject))
	}
}

func TestLocalMatchesOracle(t *testing.T) {
	r := rand.New(rand.NewSource(0))
	for _, sc := range []systolic.Scoring{
		systolic.DefaultOpts.Scoring,
		{Match: 1, Mismatch: -1, Gap: -1},
		{Match: 3, Mismatch: -2, Gap: -2},
		{Match: 1, Mismatch: 0, Gap: 0},
	} {
		for iter := 0; iter < 300; iter++ {
			pe := 1 + r.Intn(8)
			q := 1 + r.Intn(pe)
			s := 1 + r.Intn(24)
			subject, query := randomSeq(r, s), randomSeq(r, q)
			e := newEngine(t, systolic.Local, pe, sc)
			tile, err := e.NewTile(query)
			require.NoError(t, err)
			_, score, err := e.Align(systolic.Invocation{Query: tile, SubjectLen: s}, elements(subject, nil))
			require.NoError(t, err)
			want := util.LocalScore([]byte(systolic.DecodeASCII(subject)), []byte(tile.String()), oracleScoring(sc))
			assert.EQ(t, int(score), want, "pe=%d subject=%v query=%v scoring=%+v", pe,
				systolic.DecodeASCII(subject), tile, sc)
		}
	}
}

func TestGlobalMatchesOracle(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	sc := systolic.Scoring{Match: 2, Mismatch: -1, Gap: -2}
	for iter := 0; iter < 500; iter++ {
		pe := 1 + r.Intn(8)
		q := r.Intn(pe + 1)
		s := 1 + r.Intn(24)
		subject, query := randomSeq(r, s), randomSeq(r, q)
		top := make([]systolic.Score, pe+1)
		for j := 0; j <= q; j++ {
			top[j] = systolic.Score(r.Intn(21) - 10)
		}
		left := make([]systolic.Score, s)
		for i := range left {
			left[i] = systolic.Score(r.Intn(21) - 10)
		}
		e := newEngine(t, systolic.Global, pe, sc)
		tile, err := e.NewTile(query)
		require.NoError(t, err)
		out, score, err := e.Align(systolic.Invocation{Query: tile, SubjectLen: s, TopRow: top}, elements(subject, left))
		require.NoError(t, err)

		sb, qb := []byte(systolic.DecodeASCII(subject)), []byte(tile.String())
		col := util.GlobalColumn(sb, qb, ints(top[:q+1]), ints(left), oracleScoring(sc))
		require.Len(t, out, s)
		for k := range out {
			assert.EQ(t, int(out[k].Score), col[k], "row %d pe=%d subject=%s query=%s", k+1, pe, sb, qb)
		}
		assert.EQ(t, int(score), col[s-1])
	}
}

// TestGlobalPositiveGap runs the Global recurrence with a rewarding gap and
// flush cycles past a short tile.
func TestGlobalPositiveGap(t *testing.T) {
	r := rand.New(rand.NewSource(4))
	sc := systolic.Scoring{Match: 3, Mismatch: -2, Gap: 1}
	for iter := 0; iter < 100; iter++ {
		pe := 2 + r.Intn(6)
		q := 1 + r.Intn(pe-1)
		s := 1 + r.Intn(12)
		subject, query := randomSeq(r, s), randomSeq(r, q)
		top := make([]systolic.Score, pe+1)
		for j := 0; j <= q; j++ {
			top[j] = systolic.Score(j)
		}
		left := make([]systolic.Score, s)
		for i := range left {
			left[i] = systolic.Score(i + 1)
		}
		e := newEngine(t, systolic.Global, pe, sc)
		tile, err := e.NewTile(query)
		require.NoError(t, err)
		out, score, err := e.Align(systolic.Invocation{Query: tile, SubjectLen: s, TopRow: top}, elements(subject, left))
		require.NoError(t, err)

		sb, qb := []byte(systolic.DecodeASCII(subject)), []byte(tile.String())
		col := util.GlobalColumn(sb, qb, ints(top[:q+1]), ints(left), oracleScoring(sc))
		require.Len(t, out, s)
		for k := range out {
			assert.EQ(t, int(out[k].Score), col[k], "row %d pe=%d subject=%s query=%s", k+1, pe, sb, qb)
		}
		assert.EQ(t, int(score), col[s-1])
	}
}

// TestGlobalEmptyTile checks that a tile with no query symbols forwards the
// carried scores unchanged.
func TestGlobalEmptyTile(t *testing.T) {
	e := newEngine(t, systolic.Global, 3, systolic.DefaultOpts.Scoring)
	tile, err := e.NewTile(nil)
	require.NoError(t, err)
	subject := systolic.MustEncodeASCII("ACGTA")
	left := []systolic.Score{-1, 5, -3, 7, 2}
	out, score, err := e.Align(systolic.Invocation{Query: tile, SubjectLen: 5, TopRow: make([]systolic.Score, 4)},
		elements(subject, left))
	require.NoError(t, err)
	for k := range out {
		expect.EQ(t, out[k].Score, left[k])
	}
	expect.EQ(t, score, systolic.Score(2))
}

func TestFraming(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	for iter := 0; iter < 100; iter++ {
		pe := 1 + r.Intn(6)
		s := 1 + r.Intn(30)
		variant := systolic.Variant(r.Intn(2))
		e := newEngine(t, variant, pe, systolic.DefaultOpts.Scoring)
		tile, err := e.NewTile(randomSeq(r, 1+r.Intn(pe)))
		require.NoError(t, err)
		inv := systolic.Invocation{Query: tile, SubjectLen: s}
		if variant == systolic.Global {
			inv.TopRow = make([]systolic.Score, pe+1)
		}
		expect.EQ(t, e.Steps(inv), s+pe-1)

		elems := elements(randomSeq(r, s), nil)
		for i := range elems {
			elems[i].Meta = systolic.Metadata{
				ID:   r.Uint32(),
				Dest: r.Uint32(),
				Keep: uint8(r.Intn(256)),
				Strb: uint8(r.Intn(256)),
				User: r.Uint32(),
			}
		}
		out, _, err := e.Align(inv, elems)
		require.NoError(t, err)
		require.Len(t, out, s)
		for k, o := range out {
			expect.EQ(t, o.Meta, elems[k].Meta)
			expect.EQ(t, o.Last, (k+1)%pe == 0 || k == s-1, "pe=%d s=%d k=%d", pe, s, k)
		}
	}
}

func TestIdempotent(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	query, subject := randomSeq(r, 4), randomSeq(r, 40)
	top := []systolic.Score{0, -3, 4, -1, 2, 0}
	left := make([]systolic.Score, len(subject))
	for i := range left {
		left[i] = systolic.Score(r.Intn(21) - 10)
	}
	tests := []struct {
		v     systolic.Variant
		top   []systolic.Score
		elems []systolic.Element
	}{
		{systolic.Local, nil, elements(subject, nil)},
		{systolic.Global, top, elements(subject, left)},
	}
	for _, test := range tests {
		e := newEngine(t, test.v, 5, systolic.DefaultOpts.Scoring)
		tile, err := e.NewTile(query)
		require.NoError(t, err)
		inv := systolic.Invocation{Query: tile, SubjectLen: len(test.elems), TopRow: test.top}
		out0, score0, err := e.Align(inv, test.elems)
		require.NoError(t, err)
		out1, score1, err := e.Align(inv, test.elems)
		require.NoError(t, err)
		expect.EQ(t, score0, score1, test.v)
		expect.EQ(t, out0, out1, test.v)
		expect.EQ(t, len(out0), len(subject), test.v)
	}
}

type failingWriter struct{ n int }

func (w *failingWriter) Write(systolic.Output) error {
	if w.n == 0 {
		return errors.E(errors.Unavailable, "sink closed")
	}
	w.n--
	return nil
}

func TestErrors(t *testing.T) {
	sc := systolic.DefaultOpts.Scoring
	_, err := systolic.New(systolic.Local, systolic.Opts{PECount: 0, Scoring: sc})
	expect.True(t, errors.Is(errors.Invalid, err), "err: %v", err)
	_, err = systolic.New(systolic.Local, systolic.Opts{PECount: 4, Scoring: systolic.Scoring{Match: 1, Gap: 1}})
	expect.True(t, errors.Is(errors.Invalid, err), "err: %v", err)
	_, err = systolic.New(systolic.Global, systolic.Opts{PECount: 4, Scoring: systolic.Scoring{Match: 1, Gap: 1}})
	expect.NoError(t, err)
	_, err = systolic.New(systolic.Variant(7), systolic.DefaultOpts)
	expect.True(t, errors.Is(errors.Invalid, err), "err: %v", err)

	local := newEngine(t, systolic.Local, 4, sc)
	global := newEngine(t, systolic.Global, 4, sc)
	_, err = local.NewTile(systolic.MustEncodeASCII("ACGTA"))
	expect.True(t, errors.Is(errors.Invalid, err), "err: %v", err)
	_, err = local.NewTile([]systolic.Symbol{systolic.A, systolic.Invalid})
	expect.True(t, errors.Is(errors.Invalid, err), "err: %v", err)

	tile, err := local.NewTile(systolic.MustEncodeASCII("AC"))
	require.NoError(t, err)
	narrow, err := systolic.NewQueryTile(2, systolic.MustEncodeASCII("AC"))
	require.NoError(t, err)
	elems := elements(systolic.MustEncodeASCII("ACGT"), nil)

	invalid := []struct {
		name string
		e    *systolic.Engine
		inv  systolic.Invocation
	}{
		{"width", local, systolic.Invocation{Query: narrow, SubjectLen: 4}},
		{"empty subject", local, systolic.Invocation{Query: tile, SubjectLen: 0}},
		{"local top row", local, systolic.Invocation{Query: tile, SubjectLen: 4, TopRow: make([]systolic.Score, 5)}},
		{"short top row", global, systolic.Invocation{Query: tile, SubjectLen: 4, TopRow: make([]systolic.Score, 4)}},
		{"missing top row", global, systolic.Invocation{Query: tile, SubjectLen: 4}},
	}
	for _, test := range invalid {
		var w systolic.SliceWriter
		_, err := test.e.Run(test.inv, systolic.NewSliceReader(elems), &w)
		expect.True(t, errors.Is(errors.Invalid, err), "%s: %v", test.name, err)
		expect.EQ(t, len(w.Outputs), 0, test.name)
	}

	// Stream shorter than announced.
	inv := systolic.Invocation{Query: tile, SubjectLen: 6}
	var w systolic.SliceWriter
	_, err = local.Run(inv, systolic.NewSliceReader(elems), &w)
	expect.True(t, errors.Is(errors.Precondition, err), "err: %v", err)

	// Slice form never returns partial output.
	out, _, err := local.Align(inv, elems)
	expect.True(t, errors.Is(errors.Invalid, err), "err: %v", err)
	expect.EQ(t, len(out), 0)

	bad := elements(systolic.MustEncodeASCII("ACGT"), nil)
	bad[2].Symbol = systolic.Symbol(9)
	out, _, err = local.Align(systolic.Invocation{Query: tile, SubjectLen: 4}, bad)
	expect.True(t, errors.Is(errors.Invalid, err), "err: %v", err)
	expect.EQ(t, len(out), 0)

	_, err = local.Run(systolic.Invocation{Query: tile, SubjectLen: 4}, systolic.NewSliceReader(elems), &failingWriter{n: 1})
	expect.True(t, errors.Is(errors.Unavailable, err), "err: %v", err)
}

// TestPaddingSymbols checks that Invalid elements inside the subject stream
// are accepted and never score as matches.
func TestPaddingSymbols(t *testing.T) {
	e := newEngine(t, systolic.Local, 2, systolic.DefaultOpts.Scoring)
	tile, err := e.NewTile(systolic.MustEncodeASCII("AA"))
	require.NoError(t, err)
	subject := []systolic.Symbol{systolic.Invalid, systolic.Invalid, systolic.Invalid}
	_, score, err := e.Align(systolic.Invocation{Query: tile, SubjectLen: 3}, elements(subject, nil))
	require.NoError(t, err)
	expect.EQ(t, score, systolic.Score(0))
}

func TestParse(t *testing.T) {
	for _, v := range []systolic.Variant{systolic.Local, systolic.Global} {
		got, err := systolic.ParseVariant(v.String())
		assert.NoError(t, err)
		expect.EQ(t, got, v)
	}
	_, err := systolic.ParseVariant("banded")
	expect.True(t, errors.Is(errors.Invalid, err))
	for _, b := range []systolic.Boundary{systolic.NeedlemanWunsch, systolic.SemiGlobal} {
		got, err := systolic.ParseBoundary(b.String())
		assert.NoError(t, err)
		expect.EQ(t, got, b)
	}
	_, err = systolic.ParseBoundary("overlap")
	expect.True(t, errors.Is(errors.Invalid, err))
}

func TestWord(t *testing.T) {
	tests := []struct {
		sym   systolic.Symbol
		score systolic.Score
		word  uint32
	}{
		{systolic.A, 0, 0x00000000},
		{systolic.G, 5, 0x00020005},
		{systolic.T, -1, 0x0003ffff},
		{systolic.Invalid, systolic.MinWireScore, 0x00048000},
		{systolic.C, systolic.MaxWireScore, 0x00017fff},
	}
	for _, test := range tests {
		w, err := systolic.PackWord(test.sym, test.score)
		assert.NoError(t, err)
		expect.EQ(t, w, test.word)
		sym, score, err := systolic.UnpackWord(w)
		assert.NoError(t, err)
		expect.EQ(t, sym, test.sym)
		expect.EQ(t, score, test.score)
	}
	_, err := systolic.PackWord(systolic.A, systolic.MaxWireScore+1)
	expect.True(t, errors.Is(errors.Invalid, err))
	_, err = systolic.PackWord(systolic.Invalid+1, 0)
	expect.True(t, errors.Is(errors.Invalid, err))
	_, _, err = systolic.UnpackWord(5 << 16)
	expect.True(t, errors.Is(errors.Invalid, err))
}
