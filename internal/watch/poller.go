package watch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/slotwatch/slotwatch/internal/config"
	"github.com/slotwatch/slotwatch/internal/cowin"
	"github.com/slotwatch/slotwatch/internal/metrics"
)

// CalendarFetcher is the subset of the CoWIN client the poll loop needs.
type CalendarFetcher interface {
	FetchCalendarByPin(ctx context.Context, pincode string, date time.Time) (*cowin.CalendarResponse, error)
	FetchCalendarByDistrict(ctx context.Context, districtID string, date time.Time) (*cowin.CalendarResponse, error)
}

// PollerConfig holds the poll loop configuration.
type PollerConfig struct {
	Targets  []config.WatchTarget
	Interval time.Duration
	Location *time.Location
	// MinAge is the default minimum-age band; targets may override it.
	MinAge  int
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// Poller drives the fetch → filter → dispatch cycle on a fixed cadence
// using gocron. A slow cycle never blocks the next tick; dedupe marks are
// taken synchronously, so overlapping cycles cannot double-dispatch.
type Poller struct {
	cron       gocron.Scheduler
	cfg        PollerConfig
	fetcher    CalendarFetcher
	dispatcher *Dispatcher
	logger     *slog.Logger
}

// NewPoller creates a Poller.
func NewPoller(cfg PollerConfig, fetcher CalendarFetcher, dispatcher *Dispatcher) (*Poller, error) {
	cron, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("creating gocron scheduler: %w", err)
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.MinAge <= 0 {
		cfg.MinAge = 18
	}
	return &Poller{
		cron:       cron,
		cfg:        cfg,
		fetcher:    fetcher,
		dispatcher: dispatcher,
		logger:     cfg.Logger,
	}, nil
}

// Start schedules the poll job and starts the scheduler. The first cycle
// runs immediately.
func (p *Poller) Start(ctx context.Context) error {
	_, err := p.cron.NewJob(
		gocron.DurationJob(p.cfg.Interval),
		gocron.NewTask(func() { p.RunCycle(ctx) }),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("scheduling poll job: %w", err)
	}

	p.cron.Start()
	p.logger.Info("poll loop started",
		"interval", p.cfg.Interval, "targets", len(p.cfg.Targets))
	return nil
}

// Stop shuts down the scheduler and waits for in-flight deliveries.
func (p *Poller) Stop() error {
	if err := p.cron.Shutdown(); err != nil {
		return fmt.Errorf("stopping scheduler: %w", err)
	}
	p.dispatcher.Wait()
	return nil
}

// RunCycle performs one full poll cycle over every watch target. Fetch and
// parse errors skip the target; the next tick is the retry.
func (p *Poller) RunCycle(ctx context.Context) {
	now := time.Now().In(p.cfg.Location)
	day := now.Format("2006-01-02")

	for _, target := range p.cfg.Targets {
		p.pollTarget(ctx, target, now, day)
	}

	if p.cfg.Metrics != nil {
		p.cfg.Metrics.PollCycles.Inc()
	}
}

// pollTarget fetches one target's listings and dispatches its eligible records.
func (p *Poller) pollTarget(ctx context.Context, target config.WatchTarget, now time.Time, day string) {
	var (
		cal  *cowin.CalendarResponse
		err  error
		area string
	)
	if target.Pincode != "" {
		area = "pincode " + target.Pincode
		cal, err = p.fetcher.FetchCalendarByPin(ctx, target.Pincode, now)
	} else {
		area = "district " + target.DistrictID
		cal, err = p.fetcher.FetchCalendarByDistrict(ctx, target.DistrictID, now)
	}
	if err != nil {
		if p.cfg.Metrics != nil {
			p.cfg.Metrics.PollErrors.Inc()
		}
		p.logger.Warn("provider fetch failed, skipping cycle", "target", area, "error", err)
		return
	}

	minAge := p.cfg.MinAge
	if target.MinAge > 0 {
		minAge = target.MinAge
	}

	records := Eligible(cal, minAge)
	if p.cfg.Metrics != nil {
		p.cfg.Metrics.EligibleSessions.Add(float64(len(records)))
	}
	if len(records) == 0 {
		p.logger.Info("not available", "target", area)
		return
	}

	p.logger.Info("eligible sessions found", "target", area, "count", len(records))
	p.dispatcher.Dispatch(ctx, day, records, target.TweetThreshold)
}
