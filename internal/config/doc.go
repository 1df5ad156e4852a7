// Package config provides configuration loading for the preprocessor.
//
// # Configuration Sources
//
// Configuration is assembled from the following sources, later ones winning:
//
//	1. Default values
//	2. YAML file (-config flag, or config.yaml / configs/config.yaml)
//	3. Environment variables (highest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern CFDPREP_<SECTION>_<FIELD>:
//
//	CFDPREP_LOGGING_LEVEL=debug
//	CFDPREP_PATHS_BASE_DIR=/srv/cfd
//	CFDPREP_PATHS_RAW_DATA_DIR=raw-data
//	CFDPREP_PROCESSING_PARALLELISM=4
//	CFDPREP_TELEMETRY_METRICS_FILE=/var/lib/node_exporter/cfdprep.prom
//
// # Symbols
//
// The per-instrument trading windows live in a separate JSON file:
//
//	[
//	  {"symbol": "US500", "raw_file": "US500-M1.csv",
//	   "data_start_time": "09:30", "data_end_time": "16:00"}
//	]
//
// LoadSymbols validates the list before any instrument is processed.
//
// # Paths
//
// PathsConfig.Resolve anchors relative locations at BaseDir (default: the
// working directory) and returns a Paths value that is passed explicitly to
// the components that touch the filesystem.
package config
