// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package systolic

import (
	"fmt"

	"github.com/grailbio/base/errors"
)

// Score is a dynamic-programming cell value.
type Score int32

// Scoring holds the linear scoring constants.  Gap is added once per
// insertion or deletion; the Local variant requires it to be non-positive.
type Scoring struct {
	Match    Score
	Mismatch Score
	Gap      Score
}

// substitute returns the diagonal-move score for aligning a against b.
func (s Scoring) substitute(a, b Symbol) Score {
	if a == b {
		return s.Match
	}
	return s.Mismatch
}

// Opts configures an Engine.
type Opts struct {
	// PECount is the number of processing elements.  It is also the maximum
	// query length of a single invocation.
	PECount int
	Scoring Scoring
}

// DefaultOpts matches the scoring constants of the reference hardware
// engine.
var DefaultOpts = Opts{
	PECount: 16,
	Scoring: Scoring{
		Match:    2,
		Mismatch: -1,
		Gap:      -1,
	},
}

// Validate checks that the options describe a usable engine of the given
// variant.
func (o Opts) Validate(v Variant) error {
	if o.PECount < 1 {
		return errors.E(errors.Invalid, fmt.Sprintf("systolic: PECount must be positive, got %d", o.PECount))
	}
	if v == Local && o.Scoring.Gap > 0 {
		// Local lanes apply the gap move on padding cycles too, so the
		// running maximum is only exact if that move never gains.  Global
		// lanes forward the carried score untouched on those cycles.
		return errors.E(errors.Invalid, fmt.Sprintf("systolic: local gap score must not be positive, got %d", o.Scoring.Gap))
	}
	return nil
}

// Variant selects the recurrence run by the lanes.
type Variant int

const (
	// Local is the zero-floored recurrence with a running maximum.
	Local Variant = iota
	// Global is the unfloored recurrence seeded with a top row.
	Global
)

// String implements fmt.Stringer.
func (v Variant) String() string {
	switch v {
	case Local:
		return "local"
	case Global:
		return "global"
	}
	return fmt.Sprintf("Variant(%d)", int(v))
}

// ParseVariant is the inverse of Variant.String.
func ParseVariant(s string) (Variant, error) {
	switch s {
	case "local":
		return Local, nil
	case "global":
		return Global, nil
	}
	return 0, errors.E(errors.Invalid, fmt.Sprintf("systolic: unknown variant %q", s))
}

func maxScore(a, b Score) Score {
	if a < b {
		return b
	}
	return a
}
