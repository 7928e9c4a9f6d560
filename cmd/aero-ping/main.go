// aero-ping is a five-function smoke test, not a CLI surface: connect to
// a seed host, let the tender discover the cluster, put one record, read
// it back, and report round-trip latency.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/cuemby/aeroclient/pkg/aerolog"
	"github.com/cuemby/aeroclient/pkg/aerotypes"
	"github.com/cuemby/aeroclient/pkg/cluster"
	"github.com/cuemby/aeroclient/pkg/command"
)

var (
	seed      = flag.String("seed", "127.0.0.1:3000", "seed host:port")
	namespace = flag.String("namespace", "test", "namespace to ping")
	set       = flag.String("set", "aero-ping", "set name for the probe record")
	timeout   = flag.Duration("timeout", 3*time.Second, "overall timeout for the probe")
)

func main() {
	flag.Parse()
	aerolog.Init(aerolog.Config{Level: aerolog.InfoLevel, JSONOutput: false, Output: os.Stdout})

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	policy := aerotypes.DefaultClientPolicy()
	policy.Timeout = *timeout
	c := cluster.NewCluster(policy)
	defer c.Close()

	log := aerolog.Logger
	if err := c.AddSeedHost(ctx, *seed); err != nil {
		log.Error().Err(err).Str("seed", *seed).Msg("aero-ping: could not reach cluster")
		os.Exit(1)
	}
	log.Info().Int("live_nodes", len(c.LiveNodes())).Msg("aero-ping: cluster reachable")

	key, err := aerotypes.NewKey(*namespace, *set, aerotypes.StringValue("probe"))
	if err != nil {
		log.Error().Err(err).Msg("aero-ping: bad key")
		os.Exit(1)
	}

	start := time.Now()
	writePolicy := aerotypes.DefaultWritePolicy()
	bin := aerotypes.NewBin("pinged_at", aerotypes.IntegerValue(start.Unix()))
	if err := command.Put(ctx, c, key, writePolicy, bin); err != nil {
		log.Error().Err(err).Msg("aero-ping: put failed")
		os.Exit(1)
	}

	rec, err := command.Get(ctx, c, key, aerotypes.DefaultReadPolicy())
	if err != nil {
		log.Error().Err(err).Msg("aero-ping: get failed")
		os.Exit(1)
	}

	log.Info().
		Dur("round_trip", time.Since(start)).
		Interface("bins", rec.Bins).
		Uint32("generation", rec.Generation).
		Msg("aero-ping: ok")
}
