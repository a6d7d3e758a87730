package main

import (
	"cmp"
	"fmt"
	"io"
	"runtime"
	"slices"
	"text/template"
	"time"

	"github.com/plus3/klayecs/ecs"
)

// topSystems bounds the per-system table in the report.
const topSystems = 10

type Report struct {
	// Configuration
	Duration   time.Duration
	Entities   int
	Components int
	Systems    int
	Churn      int
	TickRate   time.Duration

	// Results
	TotalFrames    int64
	TotalUpdates   int64
	TotalTime      time.Duration
	FrameTime      Stats
	Created        int64
	Disposed       int64
	Mutated        int64
	Toggled        int64
	World          ecs.WorldStats
	Snapshot       string
	GCPauseMetrics bool
	MemStatsStart  runtime.MemStats
	MemStatsEnd    runtime.MemStats
}

// Stats summarises a series of frame durations.
type Stats struct {
	Min     time.Duration
	Max     time.Duration
	Avg     time.Duration
	P50     time.Duration
	P99     time.Duration
	Samples []time.Duration
}

// Finalize sorts Samples and fills in the summary fields.
func (s *Stats) Finalize() {
	n := len(s.Samples)
	if n == 0 {
		return
	}
	slices.Sort(s.Samples)

	var total time.Duration
	for _, sample := range s.Samples {
		total += sample
	}
	s.Min, s.Max = s.Samples[0], s.Samples[n-1]
	s.Avg = total / time.Duration(n)
	s.P50 = s.percentile(50)
	s.P99 = s.percentile(99)
}

// percentile returns the sample at rank p percent. Samples must be sorted.
func (s *Stats) percentile(p int) time.Duration {
	return s.Samples[(len(s.Samples)-1)*p/100]
}

// SlowestSystems returns the systems with the highest total update time.
func (r *Report) SlowestSystems() []ecs.SystemStats {
	systems := slices.Clone(r.World.Systems)
	slices.SortStableFunc(systems, func(a, b ecs.SystemStats) int {
		return cmp.Compare(b.TotalDuration, a.TotalDuration)
	})
	return systems[:min(len(systems), topSystems)]
}

func (r *Report) Generate(w io.Writer) error {
	const reportTemplate = `
# ECS Stress Test Report

## Test Configuration
- **Run Duration:** {{.Duration}}
- **Initial Entities:** {{.Entities}}
- **Components:** {{.Components}}
- **Systems:** {{.Systems}}
- **Churn per Tick:** {{.Churn}}
- **Tick Rate:** {{.TickRate}}

## Performance Results
- **Total Frames:** {{.TotalFrames}}
- **Total Updates:** {{.TotalUpdates}}
- **Total Test Time:** {{.TotalTime}}
- **Frame Time (Advance):**
  - **Avg:** {{.FrameTime.Avg}}
  - **P50:** {{.FrameTime.P50}}
  - **P99:** {{.FrameTime.P99}}
  - **Min:** {{.FrameTime.Min}}
  - **Max:** {{.FrameTime.Max}}

## Entity Churn
- **Created:** {{.Created}}
- **Disposed:** {{.Disposed}}
- **Component Mutations:** {{.Mutated}}
- **Enable Toggles:** {{.Toggled}}
- **Live at End:** {{.World.Entities}} ({{.World.FreeIDs}} free ids)
- **Pending at End:** {{.World.PendingAdd}} add, {{.World.PendingChange}} change, {{.World.PendingRemove}} remove
{{- if .Snapshot}}
- **Snapshot:** {{.Snapshot}}
{{- end}}

## Slowest Systems
| System | Priority | Active | Updates | Avg | Max | Total |
|---|---|---|---|---|---|---|
{{- range .SlowestSystems}}
| {{.Name}} | {{.Priority}} | {{.ActiveCount}} | {{.UpdateCount}} | {{.AvgDuration}} | {{.MaxDuration}} | {{.TotalDuration}} |
{{- end}}

## Memory Usage (MiB)
{{- $start := .MemStatsStart}}{{$end := .MemStatsEnd}}
- Heap Alloc:  {{mib $start.HeapAlloc}} -> {{mib $end.HeapAlloc}} ({{delta $end.HeapAlloc $start.HeapAlloc}})
- Total Alloc: {{mib $start.TotalAlloc}} -> {{mib $end.TotalAlloc}} ({{delta $end.TotalAlloc $start.TotalAlloc}})
- Sys Memory:  {{mib $start.Sys}} -> {{mib $end.Sys}} ({{delta $end.Sys $start.Sys}})
- GC Cycles:   {{gcCycles $start $end}}
{{if .GCPauseMetrics}}
## GC Pause Durations
- **Total GC Pause:** {{gcPause .MemStatsStart .MemStatsEnd}}
- **Last GC Pause:** {{lastPause .MemStatsEnd}}
{{end}}`

	fm := template.FuncMap{
		"mib": func(b uint64) string {
			return fmt.Sprintf("%.2f", float64(b)/(1<<20))
		},
		"delta": func(end, start uint64) string {
			return fmt.Sprintf("%+.2f", (float64(end)-float64(start))/(1<<20))
		},
		"gcCycles": func(start, end runtime.MemStats) uint32 {
			return end.NumGC - start.NumGC
		},
		"gcPause": func(start, end runtime.MemStats) time.Duration {
			return time.Duration(end.PauseTotalNs - start.PauseTotalNs)
		},
		"lastPause": func(end runtime.MemStats) time.Duration {
			if end.NumGC == 0 {
				return 0
			}
			return time.Duration(end.PauseNs[(end.NumGC+255)%256])
		},
	}

	tmpl, err := template.New("report").Funcs(fm).Parse(reportTemplate)
	if err != nil {
		return err
	}

	return tmpl.Execute(w, r)
}
