// Package operations runs the preprocessing batch.
//
// A Manager takes the configured instruments and, for each one, executes four
// steps in order: load the raw file, validate it against the trading window,
// fill the minute grid, and export the processed CSV. Each step is tracked as a
// StepState, wrapped in a span and timed into the preprocessing metrics.
//
// Instruments are independent. With Options.Parallelism above one they run
// concurrently through an errgroup with a bounded limit; otherwise they run one
// after another. A failing instrument is recorded in its Result and the batch
// moves on, unless Options.FailFast is set, in which case instruments that have
// not started yet are skipped.
//
// Example usage:
//
//	manager := operations.NewManager(operations.Dependencies{
//		Paths:    paths,
//		Logger:   logger,
//		Progress: os.Stdout,
//	}, operations.Options{Parallelism: 4})
//
//	batch, err := manager.Run(ctx, symbols)
//	if err != nil {
//		return err
//	}
//	if batch.Failed() > 0 {
//		os.Exit(1)
//	}
package operations
