// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package fastq reads query sequences from FASTQ files.
package fastq

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/grailbio/base/errors"
)

// A Read is one FASTQ record.  ID is the header line without the leading
// '@'.
type Read struct {
	ID, Seq, Qual string
}

// Name is the part of ID before the first space.
func (r Read) Name() string {
	return strings.SplitN(r.ID, " ", 2)[0]
}

// Scanner reads FASTQ records one at a time.  It checks that header lines
// start with '@', that the third line starts with '+' and that sequence and
// quality strings have the same length.  Scanners are not threadsafe.
type Scanner struct {
	b    *bufio.Scanner
	line int
	err  error
	done bool
}

// NewScanner creates a Scanner reading from r.
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{b: bufio.NewScanner(r)}
}

func (s *Scanner) next() (string, bool) {
	if !s.b.Scan() {
		return "", false
	}
	s.line++
	return s.b.Text(), true
}

func (s *Scanner) fail(kind errors.Kind, msg string) bool {
	s.err = errors.E(kind, fmt.Sprintf("fastq: line %d: %s", s.line, msg))
	return false
}

// Scan reads the next record into read.  It returns false at the end of the
// input or on error; Err tells the two apart.
func (s *Scanner) Scan(read *Read) bool {
	if s.err != nil || s.done {
		return false
	}
	id, ok := s.next()
	if !ok {
		s.done = true
		s.err = s.b.Err()
		return false
	}
	if len(id) == 0 || id[0] != '@' {
		return s.fail(errors.Invalid, "header does not start with '@'")
	}
	var lines [3]string
	for i := range lines {
		if lines[i], ok = s.next(); !ok {
			if err := s.b.Err(); err != nil {
				s.err = err
				return false
			}
			return s.fail(errors.Invalid, "truncated record")
		}
	}
	if len(lines[1]) == 0 || lines[1][0] != '+' {
		return s.fail(errors.Invalid, "separator does not start with '+'")
	}
	if len(lines[0]) != len(lines[2]) {
		return s.fail(errors.Invalid, fmt.Sprintf("%d bases but %d qualities", len(lines[0]), len(lines[2])))
	}
	read.ID, read.Seq, read.Qual = id[1:], lines[0], lines[2]
	return true
}

// Err returns the error that stopped Scan, or nil at a clean end of input.
func (s *Scanner) Err() error { return s.err }
