package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/eunmann/linesort/pkg/humanfmt"
	"github.com/eunmann/linesort/pkg/verify"
)

func (e *env) runVerify(ctx context.Context, args []string) error {
	fs, lf := newFlagSet("verify")
	against := fs.String("against", "", "input file the sorted file must hold the same lines as")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: linesort verify [--against INPUT] <file>")
	}
	lf.init()

	rep, err := verify.File(ctx, e.fs, fs.Arg(0))
	if err != nil {
		return err
	}
	if !rep.Sorted {
		return fmt.Errorf("%s is not sorted: %s", rep.Path, rep.Violation)
	}

	if *against != "" {
		in, err := verify.File(ctx, e.fs, *against)
		if err != nil {
			return err
		}
		if !verify.SameMultiset(rep, in) {
			return fmt.Errorf("%s does not hold the same lines as %s (%d vs %d lines)",
				rep.Path, in.Path, rep.Fingerprint.Lines, in.Fingerprint.Lines)
		}
	}

	fmt.Fprintf(e.stdout, "%s: sorted, %s lines, %s\n",
		rep.Path, humanfmt.Count(rep.Fingerprint.Lines), humanfmt.Bytes(rep.Bytes))
	return nil
}
