// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package packet stores systolic subject streams and result streams on disk,
// either as TSV for inspection or as zstd-compressed recordio.
package packet

import (
	"encoding/binary"
	"fmt"

	"github.com/dgryski/go-farm"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/sysalign/systolic"
)

const (
	elementRecordSize = 18
	outputRecordSize  = 19
)

// Record layouts, little-endian:
//
//   element: word(4) id(4) dest(4) keep(1) strb(1) user(4)
//   output:  score(4) id(4) dest(4) keep(1) strb(1) user(4) last(1)
//
// word is systolic.PackWord(symbol, carried score).

func putMeta(t []byte, m systolic.Metadata) {
	binary.LittleEndian.PutUint32(t[0:4], m.ID)
	binary.LittleEndian.PutUint32(t[4:8], m.Dest)
	t[8] = m.Keep
	t[9] = m.Strb
	binary.LittleEndian.PutUint32(t[10:14], m.User)
}

func getMeta(t []byte) systolic.Metadata {
	return systolic.Metadata{
		ID:   binary.LittleEndian.Uint32(t[0:4]),
		Dest: binary.LittleEndian.Uint32(t[4:8]),
		Keep: t[8],
		Strb: t[9],
		User: binary.LittleEndian.Uint32(t[10:14]),
	}
}

func marshalElement(scratch []byte, v interface{}) ([]byte, error) {
	t := scratch
	if len(t) < elementRecordSize {
		t = make([]byte, elementRecordSize)
	}
	t = t[:elementRecordSize]
	e := v.(*systolic.Element)
	w, err := systolic.PackWord(e.Symbol, e.Score)
	if err != nil {
		return nil, err
	}
	binary.LittleEndian.PutUint32(t[0:4], w)
	putMeta(t[4:], e.Meta)
	return t, nil
}

func unmarshalElement(in []byte) (interface{}, error) {
	if len(in) != elementRecordSize {
		return nil, errors.E(errors.Integrity, fmt.Sprintf("packet: element record has %d bytes, want %d", len(in), elementRecordSize))
	}
	sym, score, err := systolic.UnpackWord(binary.LittleEndian.Uint32(in[0:4]))
	if err != nil {
		return nil, err
	}
	return &systolic.Element{Symbol: sym, Score: score, Meta: getMeta(in[4:])}, nil
}

func appendOutput(t []byte, o systolic.Output) []byte {
	var rec [outputRecordSize]byte
	binary.LittleEndian.PutUint32(rec[0:4], uint32(o.Score))
	putMeta(rec[4:], o.Meta)
	if o.Last {
		rec[18] = 1
	}
	return append(t, rec[:]...)
}

func marshalOutput(scratch []byte, v interface{}) ([]byte, error) {
	return appendOutput(scratch[:0], *v.(*systolic.Output)), nil
}

func unmarshalOutput(in []byte) (interface{}, error) {
	if len(in) != outputRecordSize {
		return nil, errors.E(errors.Integrity, fmt.Sprintf("packet: output record has %d bytes, want %d", len(in), outputRecordSize))
	}
	return &systolic.Output{
		Score: systolic.Score(int32(binary.LittleEndian.Uint32(in[0:4]))),
		Meta:  getMeta(in[4:]),
		Last:  in[18] != 0,
	}, nil
}

// Checksum fingerprints a result stream.  Two runs of the same invocation
// produce the same checksum.
func Checksum(outs []systolic.Output) uint64 {
	var (
		h   uint64
		buf []byte
	)
	for _, o := range outs {
		buf = appendOutput(buf[:0], o)
		h = farm.Hash64WithSeed(buf, h)
	}
	return h
}
