// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"runtime"
	"strconv"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/sysalign/systolic"
	"v.io/x/lib/cmdline"
)

// scoreFlag is a flag.Value for a systolic.Score.
type scoreFlag systolic.Score

func (f *scoreFlag) String() string { return strconv.Itoa(int(*f)) }

func (f *scoreFlag) Set(s string) error {
	v, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return err
	}
	*f = scoreFlag(v)
	return nil
}

// scoringFlags registers the engine options shared by all alignment commands.
func scoringFlags(cmd *cmdline.Command, opts *systolic.Opts) {
	*opts = systolic.DefaultOpts
	cmd.Flags.IntVar(&opts.PECount, "pe-count", systolic.DefaultOpts.PECount, "Number of processing elements, i.e. the query tile width")
	cmd.Flags.Var((*scoreFlag)(&opts.Scoring.Match), "match", "Score of a matching pair of bases")
	cmd.Flags.Var((*scoreFlag)(&opts.Scoring.Mismatch), "mismatch", "Score of a mismatching pair of bases")
	cmd.Flags.Var((*scoreFlag)(&opts.Scoring.Gap), "gap", "Score of one inserted or deleted base; must not be positive for local")
}

func newCmdAlign(variant systolic.Variant) *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     variant.String(),
		ArgsName: "subjectpath querypath",
	}
	switch variant {
	case systolic.Local:
		cmd.Short = "Compute local (Smith-Waterman) alignment scores"
	case systolic.Global:
		cmd.Short = "Compute global (Needleman-Wunsch or semi-global) alignment scores"
	}
	flags := alignFlags{variant: variant}
	scoringFlags(cmd, &flags.opts)
	cmd.Flags.IntVar(&flags.parallelism, "parallelism", runtime.NumCPU(), "Number of subject/query pairs scored concurrently")
	cmd.Flags.StringVar(&flags.out, "out", "", "Output TSV path.  Written to stdout if empty; gzipped if it ends in .gz")
	cmd.Flags.BoolVar(&flags.verify, "verify", false, "Recompute every score with the quadratic reference algorithm and fail on mismatch")
	cmd.Flags.StringVar(&flags.index, "index", "", "FASTA index (.fai) of the subject file.  If set, subjects are read by seeking instead of loading the file")
	cmd.Flags.StringVar(&flags.region, "region", "", `Restrict the subject to one region, "name" or "name:begin-end".
[begin,end] is a 1-based closed interval, as in samtools.`)
	if variant == systolic.Global {
		cmd.Flags.StringVar(&flags.mode, "mode", systolic.NeedlemanWunsch.String(), `Boundary condition, "nw" or "semiglobal".
With semiglobal, leading and trailing subject bases are free and the
reported score is the best cell of the last column.`)
	}
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 2 {
			return errors.E(errors.Invalid, fmt.Sprintf("%s takes subjectpath querypath, but got %v", variant, argv))
		}
		return align(vcontext.Background(), env, flags, argv[0], argv[1])
	})
	return cmd
}

func newCmdStream() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "stream",
		Short:    "Run one engine invocation over a packet stream file",
		ArgsName: "inpath outpath",
		Long: `
Inputs and outputs are recordio (.rio) or TSV (.tsv, optionally .tsv.gz for
the output) packet streams.  The result score and a checksum of the output
stream are printed to stdout.`,
	}
	var flags streamFlags
	scoringFlags(cmd, &flags.opts)
	cmd.Flags.StringVar(&flags.variant, "variant", systolic.Local.String(), `Recurrence, "local" or "global"`)
	cmd.Flags.StringVar(&flags.query, "query", "", "Resident query bases; at most -pe-count long")
	cmd.Flags.StringVar(&flags.topRow, "top-row", "", `Comma-separated top boundary row of -pe-count+1 scores (global only).
Defaults to the Needleman-Wunsch row 0,gap,2*gap,...`)
	cmd.Flags.IntVar(&flags.subjectLen, "subject-len", 0, "Number of elements to consume.  If zero, the whole input is used")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 2 {
			return errors.E(errors.Invalid, fmt.Sprintf("stream takes inpath outpath, but got %v", argv))
		}
		return stream(vcontext.Background(), env, flags, argv[0], argv[1])
	})
	return cmd
}

func newCmdIndex() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "index",
		Short:    "Write the .fai index of a FASTA file",
		ArgsName: "fastapath [indexpath]",
	}
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 && len(argv) != 2 {
			return errors.E(errors.Invalid, fmt.Sprintf("index takes fastapath [indexpath], but got %v", argv))
		}
		out := argv[0] + ".fai"
		if len(argv) == 2 {
			out = argv[1]
		}
		return index(vcontext.Background(), argv[0], out)
	})
	return cmd
}

func newCmdRoot() *cmdline.Command {
	return &cmdline.Command{
		Name:     "bio-systolic",
		Short:    "Score sequence alignments with a systolic wavefront engine",
		LookPath: false,
		Children: []*cmdline.Command{
			newCmdAlign(systolic.Local),
			newCmdAlign(systolic.Global),
			newCmdStream(),
			newCmdIndex(),
		},
	}
}

func main() {
	cmdline.HideGlobalFlagsExcept()
	cmdline.Main(newCmdRoot())
}
