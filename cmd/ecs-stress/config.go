package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/profile"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	Run     RunConfig     `toml:"run"`
	World   WorldConfig   `toml:"world"`
	Logging LoggingConfig `toml:"logging"`
	Profile ProfileConfig `toml:"profile"`
}

type RunConfig struct {
	Duration       time.Duration `toml:"duration"`
	Entities       int           `toml:"entities"`
	Churn          int           `toml:"churn"` // mutations per tick
	TickRate       time.Duration `toml:"tick_rate"`
	Seed           uint64        `toml:"seed"`
	Snapshot       string        `toml:"snapshot"` // written after the run when set
	GCPauseMetrics bool          `toml:"gc_pause_metrics"`
}

type WorldConfig struct {
	Components int  `toml:"components"`
	Systems    int  `toml:"systems"`
	Stats      bool `toml:"stats"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

type ProfileConfig struct {
	Mode string `toml:"mode"` // "", cpu, mem, allocs, block, mutex, goroutine or trace
	Path string `toml:"path"`
}

// Load reads the config at path over the defaults. An empty path returns the
// defaults.
func Load(path string) (*Config, error) {
	cfg := defaults()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.validate()
}

func defaults() *Config {
	return &Config{
		Run: RunConfig{
			Duration: 10 * time.Second,
			Entities: 10000,
			Churn:    100,
			TickRate: time.Second / 60,
			Seed:     1,
		},
		World: WorldConfig{
			Components: 250,
			Systems:    50,
			Stats:      true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Profile: ProfileConfig{
			Path: ".",
		},
	}
}

func (c *Config) validate() error {
	switch {
	case c.Run.TickRate <= 0:
		return fmt.Errorf("run.tick_rate must be positive, got %v", c.Run.TickRate)
	case c.World.Components < 2:
		return fmt.Errorf("world.components must be at least 2, got %d", c.World.Components)
	case c.Run.Entities < 0 || c.Run.Churn < 0 || c.World.Systems < 0:
		return fmt.Errorf("run.entities, run.churn and world.systems must not be negative")
	}
	return nil
}

// parseArgs loads the config named by -config and applies every flag the
// caller set explicitly on top of it.
func parseArgs(args []string) (*Config, error) {
	fs := flag.NewFlagSet("ecs-stress", flag.ContinueOnError)
	path := fs.String("config", "", "Path to a TOML config file.")
	duration := fs.Duration("duration", 0, "The total duration the test should run for.")
	entities := fs.Int("entities", 0, "The initial number of entities to create.")
	churn := fs.Int("churn", 0, "Entity mutations per tick.")
	tickRate := fs.Duration("tick", 0, "Simulated time per update.")
	snapshot := fs.String("snapshot", "", "Write a YAML snapshot of the world here after the run.")
	gcPause := fs.Bool("gc-pause-metrics", false, "Enable detailed GC pause metrics in the report.")
	prof := fs.String("profile", "", "Profile mode: cpu, mem, allocs, block, mutex, goroutine or trace.")
	level := fs.String("log-level", "", "Log level.")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg, err := Load(*path)
	if err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "duration":
			cfg.Run.Duration = *duration
		case "entities":
			cfg.Run.Entities = *entities
		case "churn":
			cfg.Run.Churn = *churn
		case "tick":
			cfg.Run.TickRate = *tickRate
		case "snapshot":
			cfg.Run.Snapshot = *snapshot
		case "gc-pause-metrics":
			cfg.Run.GCPauseMetrics = *gcPause
		case "profile":
			cfg.Profile.Mode = *prof
		case "log-level":
			cfg.Logging.Level = *level
		}
	})
	return cfg, cfg.validate()
}

func newLogger(cfg LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}

type stopper interface{ Stop() }

type noProfile struct{}

func (noProfile) Stop() {}

// startProfile starts the profiler selected by cfg.Mode. The caller must call
// Stop on the result before exiting.
func startProfile(cfg ProfileConfig) (stopper, error) {
	var mode func(*profile.Profile)
	switch cfg.Mode {
	case "":
		return noProfile{}, nil
	case "cpu":
		mode = profile.CPUProfile
	case "mem":
		mode = profile.MemProfile
	case "allocs":
		mode = profile.MemProfileAllocs
	case "block":
		mode = profile.BlockProfile
	case "mutex":
		mode = profile.MutexProfile
	case "goroutine":
		mode = profile.GoroutineProfile
	case "trace":
		mode = profile.TraceProfile
	default:
		return nil, fmt.Errorf("unknown profile mode %q", cfg.Mode)
	}
	return profile.Start(mode, profile.ProfilePath(cfg.Path), profile.NoShutdownHook, profile.Quiet), nil
}
