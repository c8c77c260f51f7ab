// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/sysalign/encoding/packet"
	"github.com/grailbio/sysalign/systolic"
	"v.io/x/lib/cmdline"
)

type streamFlags struct {
	opts       systolic.Opts
	variant    string
	query      string
	topRow     string
	subjectLen int
}

// collectingWriter forwards outputs to an underlying writer and keeps a
// copy for the checksum.
type collectingWriter struct {
	systolic.OutputWriter
	outs []systolic.Output
}

func (w *collectingWriter) Write(o systolic.Output) error {
	w.outs = append(w.outs, o)
	return w.OutputWriter.Write(o)
}

func parseTopRow(s string, n int, gap systolic.Score) ([]systolic.Score, error) {
	if s == "" {
		top, _ := systolic.NeedlemanWunsch.Rows(gap, 0, n-1)
		return top, nil
	}
	fields := strings.Split(s, ",")
	if len(fields) != n {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("-top-row has %d scores, want %d", len(fields), n))
	}
	top := make([]systolic.Score, n)
	for i, f := range fields {
		v, err := strconv.ParseInt(strings.TrimSpace(f), 10, 32)
		if err != nil {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("-top-row: %v", err))
		}
		top[i] = systolic.Score(v)
	}
	return top, nil
}

// openElements opens a packet stream and determines the number of elements
// to consume.
func openElements(ctx context.Context, path string, subjectLen int) (systolic.ElementReader, int, func() error, error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, 0, nil, err
	}
	closeIn := func() error { return in.Close(ctx) }
	switch baseExt(path) {
	case ".rio":
		r, err := packet.NewRioElementReader(in.Reader(ctx))
		if err != nil {
			closeIn()
			return nil, 0, nil, errors.E(err, path)
		}
		if subjectLen == 0 {
			subjectLen = r.Len()
		}
		return r, subjectLen, closeIn, nil
	case ".tsv":
		r := packet.NewTSVElementReader(in.Reader(ctx))
		if subjectLen > 0 {
			return r, subjectLen, closeIn, nil
		}
		// The TSV format carries no count; buffer the whole stream.
		var elems []systolic.Element
		for {
			el, err := r.Read()
			if err == io.EOF {
				break
			}
			if err != nil {
				closeIn()
				return nil, 0, nil, errors.E(err, path)
			}
			elems = append(elems, el)
		}
		return systolic.NewSliceReader(elems), len(elems), closeIn, nil
	}
	closeIn()
	return nil, 0, nil, errors.E(errors.NotSupported, fmt.Sprintf("%s: packet streams must be .rio or .tsv", path))
}

// createOutputs creates a packet stream writer.  finish flushes it and closes
// the file.
func createOutputs(ctx context.Context, path string, stdout io.Writer) (systolic.OutputWriter, func() error, error) {
	if baseExt(path) == ".rio" {
		out, err := file.Create(ctx, path)
		if err != nil {
			return nil, nil, err
		}
		w := packet.NewRioOutputWriter(out.Writer(ctx))
		return w, func() error {
			e := errors.Once{}
			e.Set(w.Finish())
			e.Set(out.Close(ctx))
			return e.Err()
		}, nil
	}
	dst, closeOut, err := createOutput(ctx, path, stdout)
	if err != nil {
		return nil, nil, err
	}
	w := packet.NewTSVOutputWriter(dst)
	return w, func() error {
		e := errors.Once{}
		e.Set(w.Flush())
		e.Set(closeOut())
		return e.Err()
	}, nil
}

func stream(ctx context.Context, env *cmdline.Env, flags streamFlags, inPath, outPath string) error {
	variant, err := systolic.ParseVariant(flags.variant)
	if err != nil {
		return err
	}
	engine, err := systolic.New(variant, flags.opts)
	if err != nil {
		return err
	}
	query, err := systolic.EncodeASCII([]byte(flags.query))
	if err != nil {
		return err
	}
	tile, err := engine.NewTile(query)
	if err != nil {
		return err
	}
	inv := systolic.Invocation{Query: tile}
	if variant == systolic.Global {
		if inv.TopRow, err = parseTopRow(flags.topRow, flags.opts.PECount+1, flags.opts.Scoring.Gap); err != nil {
			return err
		}
	} else if flags.topRow != "" {
		return errors.E(errors.Invalid, "-top-row applies to the global variant only")
	}

	src, n, closeIn, err := openElements(ctx, inPath, flags.subjectLen)
	if err != nil {
		return err
	}
	inv.SubjectLen = n
	dst, finish, err := createOutputs(ctx, outPath, env.Stdout)
	if err != nil {
		closeIn()
		return err
	}
	w := &collectingWriter{OutputWriter: dst}
	score, err := engine.Run(inv, src, w)
	e := errors.Once{}
	e.Set(err)
	e.Set(finish())
	e.Set(closeIn())
	if err := e.Err(); err != nil {
		return err
	}
	log.Printf("%s: %d elements, %d steps", inPath, n, engine.Steps(inv))
	fmt.Fprintf(env.Stdout, "score\t%d\nchecksum\t%016x\n", score, packet.Checksum(w.outs))
	return nil
}
