// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/sysalign/systolic"
	"github.com/grailbio/sysalign/util"
	"v.io/x/lib/cmdline"
)

type alignFlags struct {
	variant     systolic.Variant
	opts        systolic.Opts
	parallelism int
	out         string
	verify      bool
	index       string
	region      string
	mode        string
}

// scoreRow is one line of the output table.
type scoreRow struct {
	Subject    string `tsv:"SUBJECT"`
	Query      string `tsv:"QUERY"`
	SubjectLen int    `tsv:"SUBJECT_LEN"`
	QueryLen   int    `tsv:"QUERY_LEN"`
	Tiles      int    `tsv:"TILES"`
	Score      int64  `tsv:"SCORE"`
}

// pairScorer scores one subject/query pair.
type pairScorer struct {
	engine   *systolic.Engine
	boundary systolic.Boundary
	verify   bool
}

func (p pairScorer) score(subject, query namedSeq) (scoreRow, error) {
	var (
		e         = p.engine
		sc        = e.Opts().Scoring
		top, left []systolic.Score
	)
	if e.Variant() == systolic.Global {
		top, left = p.boundary.Rows(sc.Gap, len(subject.syms), len(query.syms))
	}
	res, err := e.Chain(subject.syms, query.syms, top, left)
	if err != nil {
		return scoreRow{}, errors.E(err, fmt.Sprintf("%s vs %s", subject.name, query.name))
	}
	score := res.Score
	if e.Variant() == systolic.Global && p.boundary == systolic.SemiGlobal {
		score = res.BestLastColumn()
	}
	if p.verify {
		if want := p.reference(subject, query, top, left); want != int(score) {
			return scoreRow{}, errors.E(errors.Integrity,
				fmt.Sprintf("%s vs %s: engine score %d, reference score %d", subject.name, query.name, score, want))
		}
	}
	return scoreRow{
		Subject:    subject.name,
		Query:      query.name,
		SubjectLen: len(subject.syms),
		QueryLen:   len(query.syms),
		Tiles:      res.Tiles,
		Score:      int64(score),
	}, nil
}

// reference recomputes a score with the full dynamic-programming matrix.
func (p pairScorer) reference(subject, query namedSeq, top, left []systolic.Score) int {
	var (
		sc = p.engine.Opts().Scoring
		us = util.Scoring{Match: int(sc.Match), Mismatch: int(sc.Mismatch), Gap: int(sc.Gap)}
		s  = []byte(systolic.DecodeASCII(subject.syms))
		q  = []byte(systolic.DecodeASCII(query.syms))
	)
	if p.engine.Variant() == systolic.Local {
		return util.LocalScore(s, q, us)
	}
	toInts := func(scores []systolic.Score) []int {
		r := make([]int, len(scores))
		for i, v := range scores {
			r[i] = int(v)
		}
		return r
	}
	col := util.GlobalColumn(s, q, toInts(top), toInts(left), us)
	if p.boundary == systolic.SemiGlobal {
		best := col[0]
		for _, v := range col[1:] {
			if v > best {
				best = v
			}
		}
		return best
	}
	return col[len(col)-1]
}

func align(ctx context.Context, env *cmdline.Env, flags alignFlags, subjectPath, queryPath string) (err error) {
	engine, err := systolic.New(flags.variant, flags.opts)
	if err != nil {
		return err
	}
	scorer := pairScorer{engine: engine, verify: flags.verify}
	if flags.variant == systolic.Global {
		if scorer.boundary, err = systolic.ParseBoundary(flags.mode); err != nil {
			return err
		}
	}
	if flags.parallelism < 1 {
		flags.parallelism = 1
	}

	subjects, err := readSubjects(ctx, subjectPath, flags.index, flags.region)
	if err != nil {
		return err
	}
	queries, err := readQueries(ctx, queryPath)
	if err != nil {
		return err
	}
	log.Printf("%s: scoring %d subjects against %d queries, %d processing elements",
		flags.variant, len(subjects), len(queries), flags.opts.PECount)

	rows := make([]scoreRow, len(subjects)*len(queries))
	err = traverse.T{Limit: flags.parallelism}.Each(len(rows), func(i int) error {
		var e error
		rows[i], e = scorer.score(subjects[i/len(queries)], queries[i%len(queries)])
		return e
	})
	if err != nil {
		return err
	}

	w, closeOut, err := createOutput(ctx, flags.out, env.Stdout)
	if err != nil {
		return err
	}
	e := errors.Once{}
	rw := tsv.NewRowWriter(w)
	for i := range rows {
		e.Set(rw.Write(&rows[i]))
	}
	e.Set(rw.Flush())
	e.Set(closeOut())
	if err := e.Err(); err != nil {
		return err
	}
	if flags.verify {
		log.Printf("%s: %d scores verified", flags.variant, len(rows))
	}
	return nil
}
