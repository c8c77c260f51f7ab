// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package packet

import (
	"fmt"
	"io"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/sysalign/systolic"
)

// ElementRow is one line of a subject-stream TSV file.  SYMBOL is one of
// A, C, G, T or '-' (padding).
type ElementRow struct {
	Symbol string `tsv:"SYMBOL"`
	Score  int64  `tsv:"SCORE"`
	ID     uint32 `tsv:"ID"`
	Dest   uint32 `tsv:"DEST"`
	Keep   uint8  `tsv:"KEEP"`
	Strb   uint8  `tsv:"STRB"`
	User   uint32 `tsv:"USER"`
}

// OutputRow is one line of a result-stream TSV file.
type OutputRow struct {
	Score int64  `tsv:"SCORE"`
	ID    uint32 `tsv:"ID"`
	Dest  uint32 `tsv:"DEST"`
	Keep  uint8  `tsv:"KEEP"`
	Strb  uint8  `tsv:"STRB"`
	User  uint32 `tsv:"USER"`
	Last  bool   `tsv:"LAST"`
}

func parseSymbol(s string) (systolic.Symbol, error) {
	if s == "-" {
		return systolic.Invalid, nil
	}
	if len(s) == 1 {
		if syms, err := systolic.EncodeASCII([]byte(s)); err == nil {
			return syms[0], nil
		}
	}
	return systolic.Invalid, errors.E(errors.Invalid, fmt.Sprintf("packet: bad symbol %q", s))
}

// checkScore rejects carried scores that do not fit a stream data word.
func checkScore(v int64) error {
	if v < int64(systolic.MinWireScore) || v > int64(systolic.MaxWireScore) {
		return errors.E(errors.Invalid, fmt.Sprintf("packet: score %d does not fit in 16 bits", v))
	}
	return nil
}

// TSVElementReader reads a subject stream from TSV.  It implements
// systolic.ElementReader.
type TSVElementReader struct {
	r    *tsv.Reader
	line int
}

// NewTSVElementReader creates a reader.  The input must start with a header
// line naming the ElementRow columns.
func NewTSVElementReader(in io.Reader) *TSVElementReader {
	r := tsv.NewReader(in)
	r.HasHeaderRow = true
	r.UseHeaderNames = true
	return &TSVElementReader{r: r}
}

// Read implements systolic.ElementReader.
func (r *TSVElementReader) Read() (systolic.Element, error) {
	var row ElementRow
	if err := r.r.Read(&row); err != nil {
		if err == io.EOF {
			return systolic.Element{}, err
		}
		return systolic.Element{}, errors.E(err, fmt.Sprintf("packet: element %d", r.line))
	}
	r.line++
	sym, err := parseSymbol(row.Symbol)
	if err != nil {
		return systolic.Element{}, errors.E(err, fmt.Sprintf("packet: element %d", r.line-1))
	}
	if err := checkScore(row.Score); err != nil {
		return systolic.Element{}, errors.E(err, fmt.Sprintf("packet: element %d", r.line-1))
	}
	return systolic.Element{
		Symbol: sym,
		Score:  systolic.Score(row.Score),
		Meta:   systolic.Metadata{ID: row.ID, Dest: row.Dest, Keep: row.Keep, Strb: row.Strb, User: row.User},
	}, nil
}

// WriteElementsTSV writes a subject stream as TSV, header included.
func WriteElementsTSV(w io.Writer, elems []systolic.Element) error {
	rw := tsv.NewRowWriter(w)
	for i, e := range elems {
		if err := checkScore(int64(e.Score)); err != nil {
			return errors.E(err, fmt.Sprintf("packet: element %d", i))
		}
		row := ElementRow{
			Symbol: e.Symbol.String(),
			Score:  int64(e.Score),
			ID:     e.Meta.ID,
			Dest:   e.Meta.Dest,
			Keep:   e.Meta.Keep,
			Strb:   e.Meta.Strb,
			User:   e.Meta.User,
		}
		if err := rw.Write(&row); err != nil {
			return err
		}
	}
	return rw.Flush()
}

// TSVOutputWriter writes a result stream as TSV.  It implements
// systolic.OutputWriter; Flush must be called once the stream is done.
type TSVOutputWriter struct {
	w *tsv.RowWriter
}

// NewTSVOutputWriter creates a writer.
func NewTSVOutputWriter(out io.Writer) *TSVOutputWriter {
	return &TSVOutputWriter{w: tsv.NewRowWriter(out)}
}

// Write implements systolic.OutputWriter.
func (w *TSVOutputWriter) Write(o systolic.Output) error {
	return w.w.Write(&OutputRow{
		Score: int64(o.Score),
		ID:    o.Meta.ID,
		Dest:  o.Meta.Dest,
		Keep:  o.Meta.Keep,
		Strb:  o.Meta.Strb,
		User:  o.Meta.User,
		Last:  o.Last,
	})
}

// Flush writes out buffered rows.
func (w *TSVOutputWriter) Flush() error { return w.w.Flush() }

// ReadOutputsTSV reads a result stream written by TSVOutputWriter.
func ReadOutputsTSV(in io.Reader) ([]systolic.Output, error) {
	r := tsv.NewReader(in)
	r.HasHeaderRow = true
	r.UseHeaderNames = true
	var outs []systolic.Output
	for {
		var row OutputRow
		if err := r.Read(&row); err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		outs = append(outs, systolic.Output{
			Score: systolic.Score(row.Score),
			Meta:  systolic.Metadata{ID: row.ID, Dest: row.Dest, Keep: row.Keep, Strb: row.Strb, User: row.User},
			Last:  row.Last,
		})
	}
	return outs, nil
}
