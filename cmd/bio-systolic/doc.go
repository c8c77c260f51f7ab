// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

/*Command bio-systolic scores pairwise alignments with the systolic
  wavefront engine.

  Usage:
    bio-systolic local  [flags] subject.fa query.{fa,fq}
    bio-systolic global [flags] subject.fa query.{fa,fq}
    bio-systolic stream [flags] -query ACGT in.{tsv,rio} out.{tsv,rio}
    bio-systolic index  subject.fa [subject.fa.fai]

  local and global score every subject against every query and write one TSV
  row per pair.  Queries longer than -pe-count are split into tiles that are
  chained through the result stream.  Inputs may be gzip or zstd compressed;
  an output path ending in .gz is gzipped.

  stream runs a single engine invocation over a packet stream file, as
  produced by the encoding/packet package, and prints the scalar result and
  the result stream checksum.
*/
package main
