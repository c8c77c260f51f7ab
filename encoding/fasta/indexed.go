// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package fasta

import (
	"io"
	"sort"
	"sync"

	"github.com/grailbio/base/tsv"
	"github.com/grailbio/sysalign/biosimd"
	"github.com/pkg/errors"
)

// IndexEntry is one line of a .fai file.
type IndexEntry struct {
	Name      string `tsv:"name"`
	Length    uint64 `tsv:"length"`
	Offset    uint64 `tsv:"offset"`
	LineBases uint64 `tsv:"linebases"`
	LineWidth uint64 `tsv:"linewidth"`
}

// ReadIndex parses a .fai file.  Entries are returned in file-offset order.
func ReadIndex(index io.Reader) ([]IndexEntry, error) {
	r := tsv.NewReader(index)
	r.RequireParseAllColumns = true
	var entries []IndexEntry
	for {
		var e IndexEntry
		if err := r.Read(&e); err != nil {
			if err == io.EOF {
				break
			}
			return nil, errors.Wrap(err, "invalid index line")
		}
		if e.Length > 0 && (e.LineBases == 0 || e.LineWidth < e.LineBases) {
			return nil, errors.Errorf("invalid index line for %s: %d bases in %d-byte lines", e.Name, e.LineBases, e.LineWidth)
		}
		entries = append(entries, e)
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Offset < entries[j].Offset })
	return entries, nil
}

type indexedFasta struct {
	opts     opts
	byName   map[string]IndexEntry
	seqNames []string

	mu  sync.Mutex
	in  io.ReadSeeker
	raw []byte // scratch for the on-disk bytes of one Get, newlines included
}

// NewIndexed creates a Fasta that seeks into in for every Get, using the
// given .fai index instead of loading the file.
func NewIndexed(in io.ReadSeeker, index io.Reader, list ...Opt) (Fasta, error) {
	entries, err := ReadIndex(index)
	if err != nil {
		return nil, err
	}
	f := &indexedFasta{opts: parseOpts(list), byName: make(map[string]IndexEntry, len(entries)), in: in}
	for _, e := range entries {
		f.byName[e.Name] = e
		f.seqNames = append(f.seqNames, e.Name)
	}
	return f, nil
}

// Len implements Fasta.Len().
func (f *indexedFasta) Len(seqName string) (uint64, error) {
	e, ok := f.byName[seqName]
	if !ok {
		return 0, errors.Errorf("sequence not found in index: %s", seqName)
	}
	return e.Length, nil
}

// SeqNames implements Fasta.SeqNames().
func (f *indexedFasta) SeqNames() []string { return f.seqNames }

// Get implements Fasta.Get().
func (f *indexedFasta) Get(seqName string, start, end uint64) (string, error) {
	e, ok := f.byName[seqName]
	if !ok {
		return "", errors.Errorf("sequence not found in index: %s", seqName)
	}
	if err := checkRange(seqName, start, end, e.Length); err != nil {
		return "", err
	}
	// Byte offsets of base start and of the byte after base end-1.
	pos := func(base uint64) uint64 {
		return e.Offset + base/e.LineBases*e.LineWidth + base%e.LineBases
	}
	first, last := pos(start), pos(end-1)+1

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := f.in.Seek(int64(first), io.SeekStart); err != nil {
		return "", errors.Wrapf(err, "seek to %d", first)
	}
	if n := int(last - first); cap(f.raw) < n {
		f.raw = make([]byte, n)
	} else {
		f.raw = f.raw[:n]
	}
	if _, err := io.ReadFull(f.in, f.raw); err != nil {
		return "", errors.Wrapf(err, "reading %s:%d-%d (bad index?)", seqName, start, end)
	}

	seq := make([]byte, 0, end-start)
	col := start % e.LineBases
	for i := 0; i < len(f.raw); {
		n := int(e.LineBases - col)
		if rem := len(f.raw) - i; n > rem {
			n = rem
		}
		seq = append(seq, f.raw[i:i+n]...)
		i += n + int(e.LineWidth-e.LineBases)
		col = 0
	}
	if f.opts.clean {
		biosimd.CleanASCIISeqInplace(seq)
	}
	return string(seq), nil
}
