package operations

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cfdprep/internal/config"
	"cfdprep/internal/dataprocessing"
	"cfdprep/internal/infrastructure"
	"cfdprep/internal/shared/testutil"
	"cfdprep/pkg/contracts/domain"
)

func setupPaths(t *testing.T) *config.Paths {
	t.Helper()
	base := t.TempDir()
	return &config.Paths{
		BaseDir:          base,
		RawDataDir:       filepath.Join(base, "raw-data"),
		ProcessedDataDir: filepath.Join(base, "processed-data"),
		LogsDir:          filepath.Join(base, "logs"),
	}
}

func symbol(name, rawFile, start, end string) config.SymbolConfig {
	return config.SymbolConfig{Symbol: name, RawFile: rawFile, DataStartTime: start, DataEndTime: end}
}

func writeEURUSD(t *testing.T, paths *config.Paths) config.SymbolConfig {
	testutil.NewRawCSV().
		Quote("2024-01-02 09:30:00", "1.10", "1.11").
		Quote("2024-01-02 09:32:00", "1.12", "1.13").
		WriteTo(t, paths.RawDataDir, "eurusd.csv")
	return symbol("EURUSD", "eurusd.csv", "09:30", "09:32")
}

func writeUS500(t *testing.T, paths *config.Paths) config.SymbolConfig {
	testutil.NewRawCSV().
		Quote("2024-01-02 09:31:00", "4700", "4701").
		Quote("2024-01-03 09:30:00", "4710", "4711").
		WriteTo(t, paths.RawDataDir, "us500.csv")
	return symbol("US500", "us500.csv", "09:30", "09:31")
}

func readOutput(t *testing.T, paths *config.Paths, name string) string {
	t.Helper()
	data, err := os.ReadFile(paths.GetProcessedPath(name))
	require.NoError(t, err)
	return string(data)
}

func TestManager_Run_Sequential(t *testing.T) {
	paths := setupPaths(t)
	symbols := []config.SymbolConfig{writeEURUSD(t, paths), writeUS500(t, paths)}

	var progress bytes.Buffer
	manager := NewManager(Dependencies{Paths: paths, Progress: &progress}, Options{})

	batch, err := manager.Run(context.Background(), symbols)
	require.NoError(t, err)
	require.NoError(t, batch.Err())

	assert.Equal(t, ExecutionModeSequential, batch.Mode)
	assert.Len(t, batch.RunID, 36)
	assert.Equal(t, 2, batch.Succeeded())
	assert.Equal(t, 0, batch.Failed())

	eur := batch.Results[0]
	assert.Equal(t, "EURUSD", eur.Symbol)
	assert.Equal(t, StepStatusCompleted, eur.Status)
	assert.Equal(t, "EURUSD-M1-20240102-20240102-processed.csv", eur.FileName)
	assert.Equal(t, 3, eur.Rows)
	assert.Equal(t, 1, eur.Stats.Filled)
	for _, step := range eur.Steps {
		assert.Equal(t, StepStatusCompleted, step.GetStatus(), step.ID)
	}

	assert.Equal(t,
		"Date,TOD,OpenBid,OpenAsk,HighBid,HighAsk,LowBid,LowAsk,CloseBid,CloseAsk\n"+
			"2024-01-02,09:30,1.1,1.11,1.1,1.11,1.1,1.11,1.1,1.11\n"+
			"2024-01-02,09:31,1.1,1.11,1.1,1.11,1.1,1.11,1.1,1.11\n"+
			"2024-01-02,09:32,1.12,1.13,1.12,1.13,1.12,1.13,1.12,1.13\n",
		readOutput(t, paths, eur.FileName))

	us := batch.Results[1]
	assert.Equal(t, "US500-M1-20240102-20240103-processed.csv", us.FileName)
	assert.Equal(t, 4, us.Rows)
	assert.Equal(t, 1, us.Stats.LeadingGaps)
	// Day two 09:31 is filled from day two 09:30
	assert.Contains(t, readOutput(t, paths, us.FileName), "2024-01-03,09:31,4710,4711,4710,4711,4710,4711,4710,4711\n")

	lines := strings.Split(progress.String(), "\n")
	require.GreaterOrEqual(t, len(lines), 5)
	assert.Equal(t, []string{
		"Processing EURUSD...",
		"Saved 3 rows to EURUSD-M1-20240102-20240102-processed.csv",
		"Processing US500...",
		"Saved 4 rows to US500-M1-20240102-20240103-processed.csv",
	}, lines[:4])
	assert.True(t, strings.HasPrefix(lines[4], "Done: 2 succeeded, 0 failed, 0 skipped"))
}

func TestManager_Run_FailureIsolation(t *testing.T) {
	paths := setupPaths(t)
	testutil.NewRawCSV().
		Quote("2024-01-02 09:30:00", "1", "2").
		Quote("2024-01-02 16:30:00", "1", "2").
		WriteTo(t, paths.RawDataDir, "bad.csv")
	symbols := []config.SymbolConfig{
		symbol("BAD", "bad.csv", "09:30", "16:00"),
		writeEURUSD(t, paths),
	}

	logger, logs := testutil.NewTestLogger(t)
	var progress bytes.Buffer
	manager := NewManager(Dependencies{Paths: paths, Logger: logger, Progress: &progress}, Options{})

	batch, err := manager.Run(context.Background(), symbols)
	require.NoError(t, err)
	assert.Equal(t, 1, batch.Succeeded())
	assert.Equal(t, 1, batch.Failed())

	bad := batch.Results[0]
	assert.Equal(t, StepStatusFailed, bad.Status)
	require.NotNil(t, bad.Err)
	assert.Equal(t, ErrorTypeValidation, bad.Err.Type)
	assert.Equal(t, StepIDValidate, bad.Err.Step)
	assert.Equal(t, StepStatusCompleted, bad.Step(StepIDLoad).GetStatus())
	assert.Equal(t, StepStatusFailed, bad.Step(StepIDValidate).GetStatus())
	assert.Equal(t, StepStatusSkipped, bad.Step(StepIDFill).GetStatus())
	assert.Equal(t, StepStatusSkipped, bad.Step(StepIDExport).GetStatus())
	assert.Empty(t, bad.FileName)

	var verr *dataprocessing.ValidationError
	require.ErrorAs(t, batch.Err(), &verr)
	assert.Equal(t, "BAD", verr.Symbol)
	assert.Equal(t, "16:30", verr.Offending.Format(domain.ClockLayout))

	// Nothing is written for the failed instrument
	entries, err := os.ReadDir(paths.ProcessedDataDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "EURUSD-M1-20240102-20240102-processed.csv", entries[0].Name())

	assert.Contains(t, progress.String(), "Failed BAD: BAD: data found outside TOD range 09:30-16:00")
	testutil.AssertLogContains(t, logs, slog.LevelError, "Instrument failed")
	assert.True(t, logs.ContainsAttr("error_type", "validation"))
}

func TestManager_Run_FailFast(t *testing.T) {
	paths := setupPaths(t)
	symbols := []config.SymbolConfig{
		symbol("MISSING", "missing.csv", "09:30", "16:00"),
		writeEURUSD(t, paths),
	}

	manager := NewManager(Dependencies{Paths: paths}, Options{FailFast: true})
	batch, err := manager.Run(context.Background(), symbols)
	require.NoError(t, err)

	assert.Equal(t, StepStatusFailed, batch.Results[0].Status)
	assert.Equal(t, ErrorTypeIO, batch.Results[0].Err.Type)
	assert.Equal(t, StepIDLoad, batch.Results[0].Err.Step)

	skipped := batch.Results[1]
	assert.Equal(t, StepStatusSkipped, skipped.Status)
	assert.Equal(t, ErrorTypeCancellation, skipped.Err.Type)
	for _, step := range skipped.Steps {
		assert.Equal(t, StepStatusSkipped, step.GetStatus())
	}
	assert.Equal(t, 1, batch.Skipped())
	assert.False(t, config.FileExists(paths.GetProcessedPath("EURUSD-M1-20240102-20240102-processed.csv")))
}

func TestManager_Run_WithoutFailFastContinues(t *testing.T) {
	paths := setupPaths(t)
	symbols := []config.SymbolConfig{
		symbol("MISSING", "missing.csv", "09:30", "16:00"),
		writeEURUSD(t, paths),
	}

	batch, err := NewManager(Dependencies{Paths: paths}, Options{}).Run(context.Background(), symbols)
	require.NoError(t, err)
	assert.Equal(t, 1, batch.Failed())
	assert.Equal(t, 1, batch.Succeeded())
	assert.Equal(t, 0, batch.Skipped())
}

func TestManager_Run_ParallelMatchesSequential(t *testing.T) {
	seqPaths := setupPaths(t)
	parPaths := setupPaths(t)

	var symbols []config.SymbolConfig
	for _, paths := range []*config.Paths{seqPaths, parPaths} {
		symbols = []config.SymbolConfig{writeEURUSD(t, paths), writeUS500(t, paths)}
		for _, name := range []string{"GER40", "UK100", "JP225"} {
			testutil.NewRawCSV().
				Quote("2024-02-01 08:00", "10", "11").
				Quote("2024-02-02 08:05", "12", "13").
				WriteTo(t, paths.RawDataDir, strings.ToLower(name)+".csv")
			symbols = append(symbols, symbol(name, strings.ToLower(name)+".csv", "08:00", "08:10"))
		}
	}

	seq, err := NewManager(Dependencies{Paths: seqPaths}, Options{Parallelism: 1}).Run(context.Background(), symbols)
	require.NoError(t, err)
	par, err := NewManager(Dependencies{Paths: parPaths}, Options{Parallelism: 3}).Run(context.Background(), symbols)
	require.NoError(t, err)

	assert.Equal(t, ExecutionModeParallel, par.Mode)
	require.Equal(t, len(symbols), par.Succeeded())
	for i, r := range par.Results {
		assert.Equal(t, symbols[i].Symbol, r.Symbol, "results keep input order")
		assert.Equal(t, seq.Results[i].FileName, r.FileName)
		assert.Equal(t, readOutput(t, seqPaths, r.FileName), readOutput(t, parPaths, r.FileName))
	}
}

func TestManager_Run_EmptyAndConfigErrors(t *testing.T) {
	paths := setupPaths(t)
	testutil.NewRawCSV().WriteTo(t, paths.RawDataDir, "empty.csv")
	symbols := []config.SymbolConfig{
		symbol("EMPTY", "empty.csv", "09:30", "16:00"),
		symbol("REVERSED", "empty.csv", "16:00", "09:30"),
	}

	batch, err := NewManager(Dependencies{Paths: paths}, Options{}).Run(context.Background(), symbols)
	require.NoError(t, err)

	empty := batch.Results[0]
	assert.Equal(t, ErrorTypeEmptyDataset, empty.Err.Type)
	assert.Equal(t, StepIDFill, empty.Err.Step)
	assert.True(t, errors.Is(empty.Err, dataprocessing.ErrEmptyDataset))

	reversed := batch.Results[1]
	assert.Equal(t, ErrorTypeConfig, reversed.Err.Type)
	assert.Equal(t, StepStatusSkipped, reversed.Step(StepIDLoad).GetStatus())
}

func TestManager_Run_InjectedLoader(t *testing.T) {
	paths := setupPaths(t)
	var calls atomic.Int32
	loader := func(path string) ([]domain.RawRecord, error) {
		calls.Add(1)
		assert.Equal(t, paths.GetRawPath("virtual.csv"), path)
		return dataprocessing.ParseCSV(strings.NewReader(
			testutil.NewRawCSV().Quote("2024-01-02 09:31", "5", "6").String()), path)
	}

	batch, err := NewManager(Dependencies{Paths: paths, Loader: loader}, Options{}).
		Run(context.Background(), []config.SymbolConfig{symbol("VIRT", "virtual.csv", "09:30", "09:31")})
	require.NoError(t, err)
	require.NoError(t, batch.Err())
	assert.EqualValues(t, 1, calls.Load())

	assert.Equal(t,
		"Date,TOD,OpenBid,OpenAsk,HighBid,HighAsk,LowBid,LowAsk,CloseBid,CloseAsk\n"+
			"2024-01-02,09:30,,,,,,,,\n"+
			"2024-01-02,09:31,5,6,5,6,5,6,5,6\n",
		readOutput(t, paths, batch.Results[0].FileName))
}

func TestManager_Run_CancelledContext(t *testing.T) {
	paths := setupPaths(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	batch, err := NewManager(Dependencies{Paths: paths}, Options{}).Run(ctx, []config.SymbolConfig{writeEURUSD(t, paths)})
	require.NoError(t, err)
	assert.Equal(t, 1, batch.Skipped())
	assert.ErrorIs(t, batch.Err(), context.Canceled)
}

func TestManager_Run_RequiresPaths(t *testing.T) {
	_, err := NewManager(Dependencies{}, Options{}).Run(context.Background(), nil)
	assert.Error(t, err)
}

func TestManager_Run_Telemetry(t *testing.T) {
	paths := setupPaths(t)
	var spans bytes.Buffer
	providers, err := infrastructure.InitializeOTel(&infrastructure.OTelConfig{
		ServiceName:   "test",
		TraceExporter: "stdout",
		TraceWriter:   &spans,
		EnableMetrics: true,
	}, nil)
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	metrics, err := infrastructure.CreatePreprocessMetrics(providers.Meter)
	require.NoError(t, err)

	ctx := infrastructure.WithRunID(context.Background(), "run-telemetry")
	batch, err := NewManager(Dependencies{
		Paths:   paths,
		Tracer:  providers.Tracer,
		Metrics: metrics,
	}, Options{}).Run(ctx, []config.SymbolConfig{writeEURUSD(t, paths)})
	require.NoError(t, err)
	assert.Equal(t, "run-telemetry", batch.RunID)

	assert.Contains(t, spans.String(), "preprocess.instrument.EURUSD")
	assert.Contains(t, spans.String(), "preprocess.step.export")

	metricsFile := filepath.Join(paths.LogsDir, "cfdprep.prom")
	require.NoError(t, providers.WriteMetricsFile(metricsFile))
	data, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `preprocess_rows_written_total{`)
	assert.Contains(t, string(data), `symbol="EURUSD"`)
}

func TestBatchResult_Summary(t *testing.T) {
	paths := setupPaths(t)
	symbols := []config.SymbolConfig{writeEURUSD(t, paths), symbol("MISSING", "missing.csv", "09:30", "16:00")}

	batch, err := NewManager(Dependencies{Paths: paths}, Options{}).Run(context.Background(), symbols)
	require.NoError(t, err)

	summary := batch.Summary()
	assert.Equal(t, batch.RunID, summary.RunID)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.Instruments, 2)
	assert.Equal(t, "completed", summary.Instruments[0].Status)
	assert.Equal(t, 3, summary.Instruments[0].Rows)
	assert.Equal(t, "2024-01-02", summary.Instruments[0].FirstDate)
	assert.Equal(t, "io", summary.Instruments[1].ErrorType)
}

func TestManager_Run_RejectsUnsupportedRawFile(t *testing.T) {
	paths := setupPaths(t)
	testutil.NewRawCSV().
		Quote("2024-01-02 09:30:00", "1.10", "1.11").
		WriteTo(t, paths.RawDataDir, "eurusd.json")

	batch, err := NewManager(Dependencies{Paths: paths}, Options{}).
		Run(context.Background(), []config.SymbolConfig{symbol("EURUSD", "eurusd.json", "09:30", "09:32")})
	require.NoError(t, err)

	result := batch.Results[0]
	require.NotNil(t, result.Err)
	assert.Equal(t, StepIDLoad, result.Err.Step)
	assert.Equal(t, ErrorTypeIO, result.Err.Type)
	assert.Contains(t, result.Err.Error(), "unsupported extension")
}
