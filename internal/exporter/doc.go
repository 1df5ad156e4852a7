// Package exporter persists preprocessing results as files.
//
// CSVWriter is the low level writer. It streams rows to a temporary file that is
// renamed over the target when complete, so an interrupted run never leaves a
// truncated output behind.
//
// ProcessedExporter writes a processed series under its canonical name,
// {symbol}-M1-{YYYYMMDD}-{YYYYMMDD}-processed.csv, with the header
//
//	Date,TOD,OpenBid,OpenAsk,HighBid,HighAsk,LowBid,LowAsk,CloseBid,CloseAsk
//
// Unset prices are written as empty cells.
//
// SummaryWriter records the per-instrument outcome of a batch as CSV or JSON.
package exporter
