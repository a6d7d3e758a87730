// Command ecs-stress churns a synthetic world for a fixed duration and prints a
// markdown report of frame timings, per-system cost and memory use.
package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/plus3/klayecs/ecs"
	"github.com/plus3/klayecs/ecs/persist"
	"go.uber.org/zap"
)

func main() {
	cfg, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "ecs-stress: %v\n", err)
		os.Exit(2)
	}

	log, err := newLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ecs-stress: build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	prof, err := startProfile(cfg.Profile)
	if err != nil {
		log.Fatal("start profiler", zap.Error(err))
	}

	report, err := run(context.Background(), cfg, log)
	prof.Stop()
	if err != nil {
		log.Fatal("stress test failed", zap.Error(err))
	}

	fmt.Println("\n\n--- Stress Test Report ---")
	if err := report.Generate(os.Stdout); err != nil {
		log.Fatal("generate report", zap.Error(err))
	}
	fmt.Println("--- End of Report ---")
}

// run builds the harness and advances it as fast as possible until
// cfg.Run.Duration has passed or ctx is done.
func run(ctx context.Context, cfg *Config, log *zap.Logger) (*Report, error) {
	log.Info("populating world",
		zap.Int("entities", cfg.Run.Entities),
		zap.Int("components", cfg.World.Components),
		zap.Int("systems", cfg.World.Systems),
	)
	h := newHarness(cfg, log)
	loop := ecs.NewLoop(h.world, cfg.Run.TickRate)

	report := &Report{
		Duration:       cfg.Run.Duration,
		Entities:       cfg.Run.Entities,
		Components:     cfg.World.Components,
		Systems:        cfg.World.Systems,
		Churn:          cfg.Run.Churn,
		TickRate:       cfg.Run.TickRate,
		GCPauseMetrics: cfg.Run.GCPauseMetrics,
	}
	runtime.ReadMemStats(&report.MemStatsStart)

	log.Info("running simulation", zap.Duration("duration", cfg.Run.Duration))
	ctx, cancel := context.WithTimeout(ctx, cfg.Run.Duration)
	defer cancel()

	startTime := time.Now()
	last := startTime
Loop:
	for {
		select {
		case <-ctx.Done():
			break Loop
		default:
			now := time.Now()
			steps := loop.Advance(now.Sub(last))
			last = now
			if steps == 0 {
				continue
			}
			report.FrameTime.Samples = append(report.FrameTime.Samples, time.Since(now))
			report.TotalFrames++
			report.TotalUpdates += int64(steps)
		}
	}

	report.TotalTime = time.Since(startTime)
	report.FrameTime.Finalize()
	runtime.ReadMemStats(&report.MemStatsEnd)

	report.Created = h.created
	report.Disposed = h.disposed
	report.Mutated = h.mutated
	report.Toggled = h.toggled
	report.World = h.world.Stats()

	if cfg.Run.Snapshot != "" {
		if err := persist.SaveFile(h.world, cfg.Run.Snapshot, nil); err != nil {
			return nil, fmt.Errorf("write snapshot: %w", err)
		}
		report.Snapshot = cfg.Run.Snapshot
		log.Info("wrote snapshot", zap.String("path", cfg.Run.Snapshot), zap.Int("entities", report.World.Entities))
	}

	log.Info("simulation finished",
		zap.Int64("frames", report.TotalFrames),
		zap.Int64("updates", report.TotalUpdates),
	)
	return report, nil
}
