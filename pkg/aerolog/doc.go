/*
Package aerolog provides structured logging for the cluster client using
zerolog.

It wraps zerolog to give every internal subsystem — the tender, the
per-node connection pools, the transaction drivers — JSON-structured
logging with component-specific child loggers, a configurable level, and a
handful of helpers for the fields that show up on almost every line in
this codebase: component name, node name, transaction ID.

# Usage

	aerolog.Init(aerolog.Config{
		Level:      aerolog.InfoLevel,
		JSONOutput: true,
		Output:     os.Stdout,
	})

	aerolog.Logger.Info().Msg("cluster initialized")

	tenderLog := aerolog.WithComponent("tender")
	tenderLog.Debug().Str("node", nodeName).Msg("partition generation advanced")

	aerolog.WithNode(nodeName).Error().
		Err(err).
		Msg("info request failed")

# Design

A single package-level zerolog.Logger is initialized once via Init and
read from everywhere else in the module — the same global-logger-plus-
child-logger shape used throughout this codebase's ambient packages.
Nothing in this package ever calls fmt.Printf; embedding applications
decide where the JSON (or console) output goes via Config.Output. Before
Init the logger writes to stderr, and Init with a nil Output writes to
stdout.
*/
package aerolog
