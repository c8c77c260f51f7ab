// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package fasta_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/grailbio/sysalign/encoding/fasta"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

const (
	fastaData  = ">subj1\nACGTA\nCGTAC\nGT\n>subj2 a short query\nacgt\nRCGT\n"
	fastaIndex = "subj1\t12\t7\t5\t6\nsubj2\t8\t43\t4\t5\n"
)

func both(t *testing.T, opts ...fasta.Opt) map[string]fasta.Fasta {
	unindexed, err := fasta.New(strings.NewReader(fastaData), opts...)
	assert.NoError(t, err)
	indexed, err := fasta.NewIndexed(strings.NewReader(fastaData), strings.NewReader(fastaIndex), opts...)
	assert.NoError(t, err)
	return map[string]fasta.Fasta{"unindexed": unindexed, "indexed": indexed}
}

func TestGet(t *testing.T) {
	tests := []struct {
		seq        string
		start, end uint64
		want       string
		err        bool
	}{
		{"subj1", 1, 2, "C", false},
		{"subj1", 1, 6, "CGTAC", false},
		{"subj1", 4, 11, "ACGTACG", false},
		{"subj1", 0, 12, "ACGTACGTACGT", false},
		{"subj1", 10, 12, "GT", false},
		{"subj2", 0, 8, "acgtRCGT", false},
		{"subj2", 3, 5, "tR", false},
		{"subj0", 0, 1, "", true},
		{"subj1", 10, 13, "", true},
		{"subj1", 4, 4, "", true},
	}
	for name, f := range both(t) {
		for _, tt := range tests {
			got, err := f.Get(tt.seq, tt.start, tt.end)
			expect.EQ(t, err != nil, tt.err, "%s %+v: %v", name, tt, err)
			expect.EQ(t, got, tt.want, "%s %+v", name, tt)
		}
	}
}

func TestClean(t *testing.T) {
	for name, f := range both(t, fasta.OptClean) {
		got, err := f.Get("subj2", 0, 8)
		assert.NoError(t, err)
		expect.EQ(t, got, "ACGTNCGT", name)
	}
}

func TestLenAndNames(t *testing.T) {
	for name, f := range both(t) {
		expect.EQ(t, f.SeqNames(), []string{"subj1", "subj2"}, name)
		n, err := f.Len("subj1")
		assert.NoError(t, err)
		expect.EQ(t, n, uint64(12))
		n, err = f.Len("subj2")
		assert.NoError(t, err)
		expect.EQ(t, n, uint64(8))
		_, err = f.Len("subj3")
		expect.NotNil(t, err)
	}
}

func TestMalformed(t *testing.T) {
	for _, in := range []string{"", "ACGT\n>s\nAC\n", ">s\nAC\n>s\nGT\n"} {
		_, err := fasta.New(strings.NewReader(in))
		expect.NotNil(t, err, "%q", in)
	}
	_, err := fasta.NewIndexed(strings.NewReader(fastaData), strings.NewReader("subj1\t12\t7\n"))
	expect.NotNil(t, err)
	_, err = fasta.NewIndexed(strings.NewReader(fastaData), strings.NewReader("subj1\t12\t7\t0\t1\n"))
	expect.NotNil(t, err)
	_, err = fasta.NewIndexed(strings.NewReader(fastaData), strings.NewReader("subj1\t12\t7\t5\t6\t0\n"))
	expect.NotNil(t, err)
}

func TestGenerateIndex(t *testing.T) {
	generateIndex := func(fa string) string {
		var idx bytes.Buffer
		assert.NoError(t, fasta.GenerateIndex(&idx, strings.NewReader(fa)))
		return idx.String()
	}

	assert.EQ(t, generateIndex(fastaData), fastaIndex)

	fa := ">q0\nGGTGAAATC\nCCTGAAATC\nAAAATTGCT\n>q1 reverse strand\nGTCCCTCCCCAGACATGG\n>q2\nTTGCACAG\n"
	fai := generateIndex(fa)
	assert.EQ(t, fai, "q0\t27\t4\t9\t10\nq1\t18\t53\t18\t19\nq2\t8\t76\t8\t9\n")
	indexed, err := fasta.NewIndexed(strings.NewReader(fa), strings.NewReader(fai))
	assert.NoError(t, err)
	seq, err := indexed.Get("q0", 7, 20)
	assert.NoError(t, err)
	expect.EQ(t, seq, "TCCCTGAAATCAA")
	seq, err = indexed.Get("q2", 0, 8)
	assert.NoError(t, err)
	expect.EQ(t, seq, "TTGCACAG")

	// CRLF line endings.
	expect.EQ(t, generateIndex(">E0\r\nGGGG\r\n>E1\r\nAAAAA\r\n"), "E0\t4\t5\t4\t6\nE1\t5\t16\t5\t7\n")
	// No newline at the end.
	expect.EQ(t, generateIndex(">E0\nGGGG\n>E1\nCCCCC\nAAAAA"), "E0\t4\t4\t4\t5\nE1\t10\t13\t5\t6\n")
	expect.EQ(t, generateIndex(">E0\nGGGG\n>E1\nAAAAA"), "E0\t4\t4\t4\t5\nE1\t5\t13\t5\t5\n")

	var idx bytes.Buffer
	assert.Regexp(t, fasta.GenerateIndex(&idx, strings.NewReader("")), "empty FASTA")
	assert.Regexp(t, fasta.GenerateIndex(&idx, strings.NewReader(">a\nAC\nACGT\n")), "uneven")
}
