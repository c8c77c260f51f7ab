// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package biosimd provides table-driven conversions between ASCII
// nucleotide strings and the small integer codes consumed by the systolic
// alignment engine.  The loops are written so the compiler can keep the
// lookup tables in cache; there is no architecture-specific code.
package biosimd
