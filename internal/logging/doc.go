// Package logging configures the loggers shared by the LFN toolkit.
//
// A [Registry] hands out named [Logger] values. Each logger writes to up to
// three sinks: the console, a size-rotated general log file, and an
// errors-only companion file. Thresholds and file output follow the
// environment unless the caller overrides them.
//
// # Features
//
//   - Five severities: DEBUG, INFO, WARNING, ERROR, CRITICAL
//   - Console output in a short "[LEVEL] name - message" form, optionally
//     coloured per level
//   - File output with timestamp, function and line, never coloured
//   - Numbered size-based rotation (.1 newest) with a bounded backup count
//   - Idempotent reconfiguration: asking for a logger again replaces its
//     sinks instead of adding to them
//   - Call tracing ([Trace], [Traced]) and error reports with stack frames
//     ([LogException])
//   - Parsing, filtering and export of written logs ([AggregateLogs])
//
// # Thread Safety
//
// [Registry], [Logger] and [RotatingWriter] are safe for concurrent use.
// Registry calls are serialized; a logger's sinks are swapped under a write
// lock so that no record is written to a closed file. Each file sink owns
// its handle and serializes its own writes and rotations.
//
// # Basic Usage
//
//	reg := logging.NewRegistry(config.Get().Logging)
//	defer reg.Close()
//
//	log := reg.GetLogger("lfn.batch_process", logging.Options{})
//	log.Info("processing started", "files", 12)
//	log.Warning("clipping detected", "file", "a.wav")
//
// # Environment
//
// LFN_LOG_LEVEL sets the default threshold (unknown values mean INFO),
// LFN_DEBUG=1 forces DEBUG everywhere, LFN_LOG_DIR moves the log directory
// and LFN_LOG_FILE turns on file output under the given name. Without
// LFN_LOG_DIR the directory is <project root>/logs, where the project root
// is found by walking up from the executable.
//
// # File Output
//
// Unless a file name is given, a logger writes lfn_<module>.log, with dots
// in the module name replaced by underscores. Records at ERROR and above are
// also written to lfn_<module>_error.log. Files rotate at 10 MiB by default
// and keep five backups:
//
//	lfn_batch_process.log
//	lfn_batch_process.log.1
//	lfn_batch_process_error.log
//
// If the directory cannot be created the logger keeps logging to the console
// and says so once.
//
// # Sessions
//
// [SessionLogPath] names a timestamped log for one run; pass it as
// Options.FileName to log there:
//
//	path := reg.SessionLogPath("recording", "")
//	log := reg.GetLogger("lfn.recorder", logging.Options{FileName: path})
//
// # Testing
//
// Use [NopLogger] where a logger is required but output is not, or build a
// Registry with [WithStdout] and a t.TempDir() log directory.
package logging
