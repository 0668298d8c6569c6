/*
Package log provides structured logging for the placement engine using
zerolog.

The global Logger is initialized once via Init and used from every
package in the module; component loggers built with WithRing, WithNode,
and WithKeyspace attach the relevant id to every subsequent log line so a
rebalance plan or a state transition can be traced back to the ring and
node that produced it.

# Usage

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true})

	ringLog := log.WithRing("cache-ring")
	ringLog.Info().Uint64("node_id", 7).Msg("node added")

	log.Logger.Debug().Str("strategy", "ketama").Msg("index rebuilt")

# Conventions

Node additions and removals log at Debug. State transitions and
rebalance plan creation or extension log at Info. Failed node mutations
(add, remove, state, weight) and failed delta records log at Warn.
Keyspace operations and batch adds (Ring.AddNodes) do not log.
*/
package log
