// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/grailbio/base/compress"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/sysalign/encoding/fasta"
	"github.com/grailbio/sysalign/encoding/fastq"
	"github.com/grailbio/sysalign/systolic"
	"github.com/klauspost/compress/gzip"
)

// namedSeq is an encoded subject or query.
type namedSeq struct {
	name string
	syms []systolic.Symbol
}

// baseExt returns the extension of path once any compression suffix is
// removed, e.g. ".fq" for "reads.fq.gz".
func baseExt(path string) string {
	for _, suffix := range []string{".gz", ".zst", ".bz2"} {
		path = strings.TrimSuffix(path, suffix)
	}
	return filepath.Ext(path)
}

// openInput opens path for sequential reading, decompressing it if its
// contents are gzip, zstd or bzip2.
func openInput(ctx context.Context, path string) (io.Reader, func() error, error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	r, _ := compress.NewReader(in.Reader(ctx))
	return r, func() error {
		e := errors.Once{}
		e.Set(r.Close())
		e.Set(in.Close(ctx))
		return e.Err()
	}, nil
}

// createOutput creates path, gzip-compressing it if it ends in .gz.  An empty
// path means stdout.
func createOutput(ctx context.Context, path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return stdout, func() error { return nil }, nil
	}
	out, err := file.Create(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	if !strings.HasSuffix(path, ".gz") {
		return out.Writer(ctx), func() error { return out.Close(ctx) }, nil
	}
	gz := gzip.NewWriter(out.Writer(ctx))
	return gz, func() error {
		e := errors.Once{}
		e.Set(gz.Close())
		e.Set(out.Close(ctx))
		return e.Err()
	}, nil
}

func encode(name, seq string) (namedSeq, error) {
	syms, err := systolic.EncodeASCII([]byte(seq))
	if err != nil {
		return namedSeq{}, errors.E(err, fmt.Sprintf("sequence %s", name))
	}
	return namedSeq{name: name, syms: syms}, nil
}

// parseRegion parses "name" or "name:begin-end" (1-based, closed).  A bare
// name selects the whole sequence, signalled by end == 0.
func parseRegion(region string) (name string, start, end uint64, err error) {
	colon := strings.LastIndexByte(region, ':')
	if colon < 0 {
		return region, 0, 0, nil
	}
	name = region[:colon]
	rng := strings.SplitN(region[colon+1:], "-", 2)
	if len(rng) != 2 {
		return "", 0, 0, errors.E(errors.Invalid, fmt.Sprintf("region %q: want name:begin-end", region))
	}
	begin, err1 := strconv.ParseUint(strings.Replace(rng[0], ",", "", -1), 10, 64)
	last, err2 := strconv.ParseUint(strings.Replace(rng[1], ",", "", -1), 10, 64)
	if err1 != nil || err2 != nil || begin < 1 || last < begin {
		return "", 0, 0, errors.E(errors.Invalid, fmt.Sprintf("region %q: bad coordinates", region))
	}
	return name, begin - 1, last, nil
}

// readSubjects loads the subject sequences, optionally through a .fai index
// and restricted to one region.
func readSubjects(ctx context.Context, path, indexPath, region string) (seqs []namedSeq, err error) {
	var (
		fa    fasta.Fasta
		closer func() error
	)
	if indexPath != "" {
		in, err := file.Open(ctx, path)
		if err != nil {
			return nil, err
		}
		idx, err := file.Open(ctx, indexPath)
		if err != nil {
			in.Close(ctx)
			return nil, err
		}
		fa, err = fasta.NewIndexed(in.Reader(ctx), idx.Reader(ctx), fasta.OptClean)
		closer = func() error {
			e := errors.Once{}
			e.Set(idx.Close(ctx))
			e.Set(in.Close(ctx))
			return e.Err()
		}
		if err != nil {
			closer()
			return nil, errors.E(err, indexPath)
		}
	} else {
		r, c, err := openInput(ctx, path)
		if err != nil {
			return nil, err
		}
		closer = c
		if fa, err = fasta.New(r, fasta.OptClean); err != nil {
			closer()
			return nil, errors.E(err, path)
		}
	}
	defer func() {
		if e := closer(); e != nil && err == nil {
			err = e
		}
	}()

	names := fa.SeqNames()
	var start, end uint64
	if region != "" {
		var name string
		if name, start, end, err = parseRegion(region); err != nil {
			return nil, err
		}
		names = []string{name}
	}
	for _, name := range names {
		n, err := fa.Len(name)
		if err != nil {
			return nil, err
		}
		lo, hi := uint64(0), n
		if end > 0 {
			lo, hi = start, end
		}
		if hi == 0 {
			log.Printf("%s: skipping empty sequence %s", path, name)
			continue
		}
		s, err := fa.Get(name, lo, hi)
		if err != nil {
			return nil, err
		}
		if region != "" {
			name = region
		}
		seq, err := encode(name, s)
		if err != nil {
			return nil, err
		}
		seqs = append(seqs, seq)
	}
	log.Debug.Printf("%s: read %d subjects", path, len(seqs))
	return seqs, nil
}

// readQueries loads query sequences from FASTA or FASTQ, chosen by file
// extension.
func readQueries(ctx context.Context, path string) (seqs []namedSeq, err error) {
	r, closer, err := openInput(ctx, path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if e := closer(); e != nil && err == nil {
			err = e
		}
	}()
	switch baseExt(path) {
	case ".fq", ".fastq":
		var (
			sc   = fastq.NewScanner(r)
			read fastq.Read
		)
		for sc.Scan(&read) {
			if len(read.Seq) == 0 {
				log.Printf("%s: skipping empty read %s", path, read.Name())
				continue
			}
			seq, err := encode(read.Name(), read.Seq)
			if err != nil {
				return nil, err
			}
			seqs = append(seqs, seq)
		}
		if err := sc.Err(); err != nil {
			return nil, errors.E(err, path)
		}
	default:
		fa, err := fasta.New(r, fasta.OptClean)
		if err != nil {
			return nil, errors.E(err, path)
		}
		for _, name := range fa.SeqNames() {
			n, _ := fa.Len(name)
			if n == 0 {
				log.Printf("%s: skipping empty sequence %s", path, name)
				continue
			}
			s, err := fa.Get(name, 0, n)
			if err != nil {
				return nil, err
			}
			seq, err := encode(name, s)
			if err != nil {
				return nil, err
			}
			seqs = append(seqs, seq)
		}
	}
	log.Debug.Printf("%s: read %d queries", path, len(seqs))
	return seqs, nil
}
