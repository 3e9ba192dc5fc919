// Package maintenance runs periodic, read-only housekeeping over the
// simulation's zones: structured-log summaries of zone population and
// aggro-table depth, on a cron schedule (SPEC_FULL.md §2.7). It never
// mutates agent or zone state - it only calls Zone.Visit - so it is safe
// to run concurrently with the zone's own tick loop and the debug server.
package maintenance

import (
	"errors"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/zoneai/zoneai/internal/agent"
	"github.com/zoneai/zoneai/internal/zone"
	"github.com/zoneai/zoneai/pkg/logger"
)

// Reporter periodically logs a summary of every registered zone's size
// and aggro-table depth. Grounded on the teacher's internal/cron
// Scheduler, trimmed to the one thing this domain needs: a read-only
// recurring report rather than a general job-CRUD system, so there is no
// store/history/executor layer to adapt - just the robfig/cron wiring
// itself.
type Reporter struct {
	cron *cron.Cron

	mu      sync.RWMutex
	zones   []*zone.Zone
	running bool
}

// NewReporter builds a Reporter that has not yet started. schedule is a
// standard 5-field cron expression (e.g. "*/30 * * * *"); an empty string
// defaults to once a minute.
func NewReporter(schedule string) (*Reporter, error) {
	if schedule == "" {
		schedule = "* * * * *"
	}
	r := &Reporter{cron: cron.New()}
	if _, err := r.cron.AddFunc(schedule, r.report); err != nil {
		return nil, fmt.Errorf("maintenance: invalid schedule %q: %w", schedule, err)
	}
	return r, nil
}

// Watch adds z to the set of zones summarized on every tick. Safe to call
// before or after Start.
func (r *Reporter) Watch(z *zone.Zone) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.zones = append(r.zones, z)
}

// Start begins the cron schedule. Returns an error if already running.
func (r *Reporter) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return errors.New("maintenance: reporter already running")
	}
	r.cron.Start()
	r.running = true
	return nil
}

// Stop halts the schedule, waiting for any in-flight report to finish.
func (r *Reporter) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	r.mu.Unlock()
	<-r.cron.Stop().Done()
}

// RunNow executes one report immediately, outside the cron schedule -
// useful for an operator-triggered "report now" CLI command.
func (r *Reporter) RunNow() {
	r.report()
}

func (r *Reporter) report() {
	r.mu.RLock()
	zones := append([]*zone.Zone(nil), r.zones...)
	r.mu.RUnlock()

	for _, z := range zones {
		size := 0
		maxAggroDepth := 0
		totalAggroDepth := 0
		z.Visit(func(a *agent.AI) {
			size++
			depth := len(a.AggroManager().Entries())
			totalAggroDepth += depth
			if depth > maxAggroDepth {
				maxAggroDepth = depth
			}
		})

		avgAggroDepth := 0.0
		if size > 0 {
			avgAggroDepth = float64(totalAggroDepth) / float64(size)
		}

		logger.Info().
			Str("zone", z.Name()).
			Int("agents", size).
			Bool("debug", z.Debug()).
			Int("maxAggroDepth", maxAggroDepth).
			Float64("avgAggroDepth", avgAggroDepth).
			Msg("zone summary")
	}
}
