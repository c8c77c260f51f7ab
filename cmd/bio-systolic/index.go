// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package main

import (
	"context"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/sysalign/encoding/fasta"
)

func index(ctx context.Context, fastaPath, indexPath string) error {
	in, err := file.Open(ctx, fastaPath)
	if err != nil {
		return err
	}
	out, err := file.Create(ctx, indexPath)
	if err != nil {
		in.Close(ctx)
		return err
	}
	e := errors.Once{}
	e.Set(fasta.GenerateIndex(out.Writer(ctx), in.Reader(ctx)))
	e.Set(out.Close(ctx))
	e.Set(in.Close(ctx))
	if err := e.Err(); err != nil {
		return err
	}
	log.Printf("%s: wrote %s", fastaPath, indexPath)
	return nil
}
