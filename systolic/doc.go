// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package systolic computes pairwise alignment scores with a systolic
// wavefront: a chain of Opts.PECount processing elements ("lanes"), each
// owning one query column, sweeps the dynamic-programming matrix one
// anti-diagonal per step.  The subject is consumed as a stream, one symbol
// per step, so an invocation takes
//
//   subjectLen + max(PECount, queryLen) - 1
//
// steps and O(PECount) memory, instead of materializing the
// subjectLen x queryLen matrix.
//
// Two recurrences share the same schedule:
//
//   Local   Smith-Waterman style; scores are floored at zero and every lane
//           carries the running maximum, so the last lane ends up holding the
//           best score of the whole tile.
//   Global  no floor, no maximum; the matrix is seeded with a caller-supplied
//           top row, and the last lane ends up holding the bottom-right cell.
//
// Data flows left to right.  At step i lane 0 receives subject symbol i
// together with the score carried by the stream element (the matrix's left
// boundary column), and lane pe receives whatever lane pe-1 forwarded at step
// i-1.  Lanes are double-buffered: during a step every lane reads only
// registers written by the previous step, and the forwarded registers are
// shifted into place after all lanes have run.
//
// After the pipeline has filled (PECount-1 steps) every step emits one output
// element whose score is the last lane's current cell.  Output element k is
// the matrix cell H[k+1][queryLen], i.e. the right boundary column of the
// tile.  Global lanes past the end of a short query only pass scores through;
// Local lanes keep applying the gap move there, so for the Local variant this
// holds only when the tile is full.  The framer re-attaches the metadata of
// input element k using a ring of PECount records.
//
// Queries longer than PECount are processed as a sequence of tiles by
// Engine.Chain: the right boundary column emitted by tile t is fed back as the
// carried scores of tile t+1, and each tile receives its slice of the top
// row.
package systolic
