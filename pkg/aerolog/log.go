package aerolog

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the package-level logger every subsystem logs through.
// Init replaces it; until Init runs it defaults to a console writer at
// info level, so a client that forgets to call Init still gets output
// instead of silence.
var Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
	With().Timestamp().Logger().Level(zerolog.InfoLevel)

// Level names the severities Config accepts. It mirrors zerolog's own
// levels rather than aliasing them directly, so a misconfigured string
// degrades to InfoLevel instead of panicking.
type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
)

var levelValues = map[Level]zerolog.Level{
	DebugLevel: zerolog.DebugLevel,
	InfoLevel:  zerolog.InfoLevel,
	WarnLevel:  zerolog.WarnLevel,
	ErrorLevel: zerolog.ErrorLevel,
}

// Config selects the global level, output format, and destination for
// Init. An embedding application owns the destination; a nil Output
// falls back to os.Stdout.
type Config struct {
	Level      Level
	JSONOutput bool
	Output     io.Writer
}

// Init replaces the package-level Logger. Console output is meant for a
// human watching a terminal (aero-ping and friends); JSON output is
// meant for a log collector ingesting a long-running client process.
func Init(cfg Config) {
	level, ok := levelValues[cfg.Level]
	if !ok {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}
	if cfg.JSONOutput {
		Logger = zerolog.New(output).With().Timestamp().Logger()
		return
	}
	Logger = zerolog.New(zerolog.ConsoleWriter{Out: output, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()
}

// WithComponent tags every line from a subsystem (tender, pool, batch
// driver) with its name, so a busy log stream can be filtered down to
// one moving part.
func WithComponent(component string) zerolog.Logger {
	return Logger.With().Str("component", component).Logger()
}

// WithNode tags every line with the cluster node it concerns, the field
// most log lines in this client carry since almost every operation is
// ultimately scoped to one node's connection.
func WithNode(node string) zerolog.Logger {
	return Logger.With().Str("node", node).Logger()
}

// WithTxnID tags a logger with a transaction or batch correlation ID, so
// the several log lines one multi-key or multi-node operation produces
// can be grepped back together.
func WithTxnID(id string) zerolog.Logger {
	return Logger.With().Str("txn_id", id).Logger()
}
