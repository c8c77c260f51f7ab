// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package fasta reads subject and query sequences from FASTA files, either
// entirely into memory or through a samtools-style .fai index.
//
// A FASTA file is a list of named sequences, each possibly wrapped over
// several lines:
//
//   >chr7 free-form description
//   ACGTAC
//   GAGG
//
// The sequence name is the text between '>' and the first space.
package fasta

import (
	"bufio"
	"io"
	"strings"

	"github.com/grailbio/sysalign/biosimd"
	"github.com/pkg/errors"
)

const maxLineLen = 300 << 20

// Fasta is a set of named sequences.
type Fasta interface {
	// Get returns bases [start, end) of the named sequence.  It is safe for
	// concurrent use.
	Get(seqName string, start, end uint64) (string, error)
	// Len returns the length of the named sequence.
	Len(seqName string) (uint64, error)
	// SeqNames lists the sequences in file order.
	SeqNames() []string
}

// Opt configures New and NewIndexed.
type Opt func(*opts)

type opts struct {
	clean bool
}

// OptClean capitalizes a/c/g/t and replaces every other byte with 'N', so
// IUPAC codes are reported as non-ACGT instead of passing through.
func OptClean(o *opts) { o.clean = true }

func parseOpts(list []Opt) opts {
	var o opts
	for _, fn := range list {
		fn(&o)
	}
	return o
}

type fasta struct {
	seqs     map[string]string
	seqNames []string
}

// New reads every sequence in r into memory.
func New(r io.Reader, list ...Opt) (Fasta, error) {
	var (
		o       = parseOpts(list)
		f       = &fasta{seqs: make(map[string]string)}
		scanner = bufio.NewScanner(r)
		name    string
		named   bool
		seq     []byte
	)
	add := func() {
		if o.clean {
			biosimd.CleanASCIISeqInplace(seq)
		}
		f.seqs[name] = string(seq)
		f.seqNames = append(f.seqNames, name)
		seq = seq[:0]
	}
	scanner.Buffer(nil, maxLineLen)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if line[0] != '>' {
			if !named {
				return nil, errors.Errorf("malformed FASTA file: sequence data before the first '>' line")
			}
			seq = append(seq, line...)
			continue
		}
		if named {
			add()
		}
		name = strings.SplitN(string(line[1:]), " ", 2)[0]
		if _, dup := f.seqs[name]; dup {
			return nil, errors.Errorf("malformed FASTA file: duplicate sequence %s", name)
		}
		named = true
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "couldn't read FASTA data")
	}
	if !named {
		return nil, errors.Errorf("empty FASTA file")
	}
	add()
	return f, nil
}

func checkRange(seqName string, start, end, length uint64) error {
	if end <= start {
		return errors.Errorf("start must be less than end")
	}
	if end > length {
		return errors.Errorf("end is past end of sequence %s: %d", seqName, length)
	}
	return nil
}

// Get implements Fasta.Get().
func (f *fasta) Get(seqName string, start, end uint64) (string, error) {
	s, ok := f.seqs[seqName]
	if !ok {
		return "", errors.Errorf("sequence not found: %s", seqName)
	}
	if err := checkRange(seqName, start, end, uint64(len(s))); err != nil {
		return "", err
	}
	return s[start:end], nil
}

// Len implements Fasta.Len().
func (f *fasta) Len(seqName string) (uint64, error) {
	s, ok := f.seqs[seqName]
	if !ok {
		return 0, errors.Errorf("sequence not found: %s", seqName)
	}
	return uint64(len(s)), nil
}

// SeqNames implements Fasta.SeqNames().
func (f *fasta) SeqNames() []string { return f.seqNames }
