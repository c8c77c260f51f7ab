// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package fasta

import (
	"bufio"
	"bytes"
	"io"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/tsv"
)

// GenerateIndex scans a FASTA file and writes its .fai index, in the format
// of "samtools faidx" (http://www.htslib.org/doc/faidx.html), for use with
// NewIndexed.
//
// Every line of a sequence but the last must have the same length.
func GenerateIndex(out io.Writer, in io.Reader) error {
	var (
		w       = tsv.NewWriter(out)
		r       = bufio.NewReader(in)
		cur     *IndexEntry
		short   bool // the current sequence has had a line shorter than LineBases
		nBytes  uint64
		written int
	)
	emit := func() error {
		if cur == nil {
			return nil
		}
		w.WriteString(cur.Name)
		w.WriteInt64(int64(cur.Length))
		w.WriteInt64(int64(cur.Offset))
		w.WriteInt64(int64(cur.LineBases))
		w.WriteInt64(int64(cur.LineWidth))
		written++
		return w.EndLine()
	}
	for {
		raw, err := r.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return err
		}
		nBytes += uint64(len(raw))
		line := bytes.TrimRight(raw, "\r\n")
		switch {
		case len(line) == 0:
		case line[0] == '>':
			if e := emit(); e != nil {
				return e
			}
			cur = &IndexEntry{
				Name:   strings.SplitN(string(line[1:]), " ", 2)[0],
				Offset: nBytes,
			}
			short = false
		case cur == nil:
			return errors.E(errors.Invalid, "malformed FASTA file: sequence data before the first '>' line")
		default:
			if cur.LineBases == 0 {
				cur.LineBases = uint64(len(line))
				cur.LineWidth = uint64(len(raw))
			} else if short || uint64(len(line)) > cur.LineBases {
				return errors.E(errors.Invalid, "malformed FASTA file: uneven line lengths in "+cur.Name)
			}
			if uint64(len(line)) < cur.LineBases {
				short = true
			}
			cur.Length += uint64(len(line))
		}
		if err == io.EOF {
			break
		}
	}
	if err := emit(); err != nil {
		return err
	}
	if written == 0 {
		return errors.E(errors.Invalid, "empty FASTA file")
	}
	return w.Flush()
}
