// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package systolic

import "io"

// Metadata is the packet side-channel carried alongside every stream
// element.  The engine never interprets it; it is echoed onto the output
// element produced for the same subject position.
type Metadata struct {
	ID   uint32
	Dest uint32
	Keep uint8 // per-byte validity mask
	Strb uint8 // strobe mask
	User uint32
}

// Element is one subject-stream entry: a subject symbol, the score carried
// into lane 0 for that row (the left boundary cell), and metadata.
type Element struct {
	Symbol Symbol
	Score  Score
	Meta   Metadata
}

// Output is one result-stream entry.  Score is the right boundary cell of the
// row; Last marks the end of a PECount-sized burst and the end of the stream.
type Output struct {
	Score Score
	Meta  Metadata
	Last  bool
}

// ElementReader supplies subject elements in order.  Read returns io.EOF once
// the stream is exhausted.
type ElementReader interface {
	Read() (Element, error)
}

// OutputWriter consumes output elements in order.
type OutputWriter interface {
	Write(Output) error
}

// SliceReader is an ElementReader over a slice.
type SliceReader struct {
	elems []Element
	pos   int
}

// NewSliceReader returns a reader that yields elems in order.
func NewSliceReader(elems []Element) *SliceReader {
	return &SliceReader{elems: elems}
}

// Read implements ElementReader.
func (r *SliceReader) Read() (Element, error) {
	if r.pos >= len(r.elems) {
		return Element{}, io.EOF
	}
	e := r.elems[r.pos]
	r.pos++
	return e, nil
}

// SliceWriter is an OutputWriter that appends to Outputs.
type SliceWriter struct {
	Outputs []Output
}

// Write implements OutputWriter.
func (w *SliceWriter) Write(o Output) error {
	w.Outputs = append(w.Outputs, o)
	return nil
}
