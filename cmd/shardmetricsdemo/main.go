// Command shardmetricsdemo drives the shard-request metrics snapshot
// engine end to end: it seeds a handful of synthetic producers, runs
// the rollover controller's ticker, and logs each window's published
// views as they arrive.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prudhvigodithi/shardmetrics/internal/config"
	"github.com/prudhvigodithi/shardmetrics/internal/logging"
	"github.com/prudhvigodithi/shardmetrics/pkg/snapshot"
	"github.com/prudhvigodithi/shardmetrics/pkg/types"
)

const version = "0.1.0"

func main() {
	log.Printf("Shard Request Metrics Snapshot Engine v%s", version)

	cfg := config.DefaultConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	log.Printf("Configuration loaded:")
	log.Printf("  Sampling interval: %s", cfg.SamplingInterval)
	log.Printf("  Expiry horizon:    %s", cfg.ExpiryHorizon)
	log.Printf("  Rotation interval: %s", cfg.RotationInterval)

	logger := logging.New()

	windowStart := time.Now().UnixMilli() / int64(cfg.SamplingInterval/time.Millisecond) * int64(cfg.SamplingInterval/time.Millisecond)

	rc, err := snapshot.NewRolloverController(cfg, logger, windowStart)
	if err != nil {
		log.Fatalf("Failed to start rollover controller: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rc.Start(ctx)
	log.Println("Rollover controller started")

	go func() {
		for logged := windowStart; ; logged += int64(cfg.SamplingInterval / time.Millisecond) {
			for logged >= rc.Current().WindowStart() {
				select {
				case <-ctx.Done():
					return
				case <-time.After(cfg.SamplingInterval / 10):
				}
			}
			if v, ok := rc.Views(logged); ok {
				log.Printf("Window %d published: %d latency rows, %d op groups, %d utilization rows, %d inflight",
					logged, len(v.Latency), len(v.LatencyByOp), len(v.ThreadUtilization), len(v.Inflight))
			}
		}
	}()

	stopProducers := make(chan struct{})
	go runSyntheticProducers(rc, stopProducers)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutdown signal received, stopping engine...")
	close(stopProducers)
	rc.Stop()
	cancel()
	log.Println("Engine stopped")
}

// runSyntheticProducers pushes half-events for a handful of shard
// request/thread pairs, simulating the upstream search/indexing
// engine collectors that feed this engine in production.
func runSyntheticProducers(rc *snapshot.RolloverController, stop <-chan struct{}) {
	threads := []string{"7069", "7070", "7071"}
	ops := []string{"shardquery", "shardfetch", "shardbulk"}
	var seq int

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			seq++
			tid := threads[seq%len(threads)]
			op := ops[seq%len(ops)]
			rid := "req-" + tid + "-" + time.Now().Format("150405.000")

			buf := rc.Current()
			st := time.Now().UnixMilli()
			dims := types.Dimensions{
				ShardID:   "0",
				IndexName: "sonested",
				RID:       rid,
				TID:       tid,
				Operation: op,
				ShardRole: "NA",
			}
			buf.PutStart(st, dims)

			go func(buf *snapshot.WindowBuffer, dims types.Dimensions) {
				time.Sleep(time.Duration(50+seq%200) * time.Millisecond)
				buf.PutEnd(time.Now().UnixMilli(), dims)
			}(buf, dims)
		}
	}
}
