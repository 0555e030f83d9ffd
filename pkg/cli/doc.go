/*
Package cli provides helpers shared by the lattice command tree: output
formatters, a progress reporter for batch evaluation, typed command errors,
and signal-driven shutdown contexts.

Output formatting:

	formatter := cli.NewFormatter(cli.FormatJSON)
	if err := formatter.FormatTo(os.Stdout, report); err != nil {
		return err
	}

Progress reporting for long evaluation runs:

	progress := cli.NewProgressReporter(os.Stderr)
	progress.Start(int64(len(docs)))
	for i := range docs {
		// evaluate
		progress.Update(int64(i + 1))
	}
	progress.Finish()

Shutdown handling:

	ctx, stop := cli.SignalContext()
	defer stop()
	// ctx is canceled on SIGINT or SIGTERM
*/
package cli
