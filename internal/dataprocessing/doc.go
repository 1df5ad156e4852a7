// Package dataprocessing turns raw minute bid/ask quotes into a regular,
// gap-filled minute series.
//
// # Components
//
//  1. Parser: reads raw CSV (or .xlsx) files into domain.RawRecord values,
//     stripping any timezone from the Time column.
//  2. WindowValidator: rejects a batch when any record's time of day lies
//     outside the instrument's trading window.
//  3. GapFiller: builds the canonical minute grid for every day present,
//     joins the raw records onto it and forward-fills missing minutes from
//     the last known close.
//
// Preprocessor chains the validator and the gap filler:
//
//	records, err := dataprocessing.LoadRaw("raw-data/EURUSD.csv")
//	if err != nil {
//	    return err
//	}
//	series, err := dataprocessing.NewPreprocessor(logger).Process("EURUSD", window, records)
//
// # Errors
//
// Failures are typed: *ValidationError, *EmptyDatasetError and *ParseError.
// GetErrorType classifies any error returned by this package.
package dataprocessing
