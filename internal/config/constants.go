package config

// Application constants
const (
	AppName = "cfdprep"

	// Default locations, relative to the base directory
	DefaultSymbolsFile      = "configs/symbols.json"
	DefaultRawDataDir       = "raw-data"
	DefaultProcessedDataDir = "processed-data"
	DefaultLogsDir          = "logs"
	DefaultLogFile          = "logs/preprocess.log"

	// Config file names searched when no -config flag is given
	DefaultConfigFile    = "config.yaml"
	DefaultConfigFileAlt = "configs/config.yaml"

	// MaxParallelism bounds Processing.Parallelism
	MaxParallelism = 64
)
