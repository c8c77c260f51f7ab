// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package packet

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/recordio"
	"github.com/grailbio/base/recordio/recordiozstd"
	"github.com/grailbio/sysalign/systolic"
)

const (
	kindHeader     = "packet"
	kindElements   = "elements"
	kindOutputs    = "outputs"
	trailerVersion = 1
)

func init() {
	recordiozstd.Init()
}

func countTrailer(n int) []byte {
	var buffer bytes.Buffer
	if err := binary.Write(&buffer, binary.LittleEndian, int64(trailerVersion)); err != nil {
		panic("couldn't write trailer version")
	}
	if err := binary.Write(&buffer, binary.LittleEndian, int64(n)); err != nil {
		panic("couldn't write count to trailer")
	}
	return buffer.Bytes()
}

func parseCountTrailer(trailer []byte) (int64, error) {
	r := bytes.NewReader(trailer)
	var version, n int64
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return 0, err
	}
	if version != trailerVersion {
		return 0, errors.E(errors.Integrity, fmt.Sprintf("packet: unrecognized trailer version: got %d, want %d", version, trailerVersion))
	}
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return 0, err
	}
	return n, nil
}

func checkKind(sc recordio.Scanner, want string) error {
	for _, kv := range sc.Header() {
		if kv.Key == kindHeader {
			if got, _ := kv.Value.(string); got != want {
				return errors.E(errors.Invalid, fmt.Sprintf("packet: file holds %s, want %s", got, want))
			}
			return nil
		}
	}
	return errors.E(errors.Invalid, "packet: not a packet stream file")
}

// WriteElementsRio writes a subject stream as recordio.  Carried scores must
// fit the 16-bit half of the stream data word.
func WriteElementsRio(w io.Writer, elems []systolic.Element) error {
	rw := recordio.NewWriter(w, recordio.WriterOpts{
		Marshal:      marshalElement,
		Transformers: []string{recordiozstd.Name},
	})
	rw.AddHeader(kindHeader, kindElements)
	rw.AddHeader(recordio.KeyTrailer, true)
	for i := range elems {
		rw.Append(&elems[i])
	}
	rw.SetTrailer(countTrailer(len(elems)))
	return rw.Finish()
}

// RioElementReader reads a subject stream written by WriteElementsRio.  It
// implements systolic.ElementReader.
type RioElementReader struct {
	sc recordio.Scanner
	n  int64
}

// NewRioElementReader opens a subject stream.
func NewRioElementReader(in io.ReadSeeker) (*RioElementReader, error) {
	sc := recordio.NewScanner(in, recordio.ScannerOpts{Unmarshal: unmarshalElement})
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if err := checkKind(sc, kindElements); err != nil {
		return nil, err
	}
	n, err := parseCountTrailer(sc.Trailer())
	if err != nil {
		return nil, err
	}
	return &RioElementReader{sc: sc, n: n}, nil
}

// Len is the element count recorded in the file trailer.
func (r *RioElementReader) Len() int { return int(r.n) }

// Read implements systolic.ElementReader.
func (r *RioElementReader) Read() (systolic.Element, error) {
	if !r.sc.Scan() {
		if err := r.sc.Err(); err != nil {
			return systolic.Element{}, err
		}
		return systolic.Element{}, io.EOF
	}
	return *r.sc.Get().(*systolic.Element), nil
}

// RioOutputWriter writes a result stream as recordio.  It implements
// systolic.OutputWriter; Finish must be called once the stream is done.
type RioOutputWriter struct {
	w recordio.Writer
	n int
}

// NewRioOutputWriter creates a writer.
func NewRioOutputWriter(out io.Writer) *RioOutputWriter {
	w := recordio.NewWriter(out, recordio.WriterOpts{
		Marshal:      marshalOutput,
		Transformers: []string{recordiozstd.Name},
	})
	w.AddHeader(kindHeader, kindOutputs)
	w.AddHeader(recordio.KeyTrailer, true)
	return &RioOutputWriter{w: w}
}

// Write implements systolic.OutputWriter.
func (w *RioOutputWriter) Write(o systolic.Output) error {
	w.w.Append(&o)
	w.n++
	return nil
}

// Finish writes the trailer and flushes the file.
func (w *RioOutputWriter) Finish() error {
	w.w.SetTrailer(countTrailer(w.n))
	return w.w.Finish()
}

// ReadOutputsRio reads a result stream written by RioOutputWriter.
func ReadOutputsRio(in io.ReadSeeker) ([]systolic.Output, error) {
	sc := recordio.NewScanner(in, recordio.ScannerOpts{Unmarshal: unmarshalOutput})
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if err := checkKind(sc, kindOutputs); err != nil {
		return nil, err
	}
	n, err := parseCountTrailer(sc.Trailer())
	if err != nil {
		return nil, err
	}
	outs := make([]systolic.Output, 0, n)
	for sc.Scan() {
		outs = append(outs, *sc.Get().(*systolic.Output))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if int64(len(outs)) != n {
		return nil, errors.E(errors.Integrity, fmt.Sprintf("packet: trailer records %d outputs, file holds %d", n, len(outs)))
	}
	return outs, nil
}
