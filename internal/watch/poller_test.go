package watch_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slotwatch/slotwatch/internal/config"
	"github.com/slotwatch/slotwatch/internal/cowin"
	"github.com/slotwatch/slotwatch/internal/watch"
)

// fakeFetcher serves canned calendars keyed by pincode or district.
type fakeFetcher struct {
	byPin      map[string]*cowin.CalendarResponse
	byDistrict map[string]*cowin.CalendarResponse
	err        error
}

func (f *fakeFetcher) FetchCalendarByPin(_ context.Context, pincode string, _ time.Time) (*cowin.CalendarResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	if cal, ok := f.byPin[pincode]; ok {
		return cal, nil
	}
	return &cowin.CalendarResponse{}, nil
}

func (f *fakeFetcher) FetchCalendarByDistrict(_ context.Context, districtID string, _ time.Time) (*cowin.CalendarResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	if cal, ok := f.byDistrict[districtID]; ok {
		return cal, nil
	}
	return &cowin.CalendarResponse{}, nil
}

func newTestPoller(t *testing.T, h *dispatchHarness, fetcher watch.CalendarFetcher, targets []config.WatchTarget) *watch.Poller {
	t.Helper()
	p, err := watch.NewPoller(watch.PollerConfig{
		Targets:  targets,
		Interval: time.Minute,
		Location: time.UTC,
		MinAge:   18,
		Logger:   slog.Default(),
	}, fetcher, h.d)
	require.NoError(t, err)
	return p
}

func TestRunCycle_DispatchesEligibleSessions(t *testing.T) {
	h := newDispatchHarness(t)
	fetcher := &fakeFetcher{byPin: map[string]*cowin.CalendarResponse{
		"461001": calendarFixture(),
	}}
	p := newTestPoller(t, h, fetcher, []config.WatchTarget{{Pincode: "461001"}})

	p.RunCycle(context.Background())
	h.d.Wait()

	// calendarFixture has two 18+ sessions with capacity.
	assert.Len(t, h.chat.sent(), 2)
}

func TestRunCycle_RepeatCycleIsIdempotent(t *testing.T) {
	h := newDispatchHarness(t)
	fetcher := &fakeFetcher{byPin: map[string]*cowin.CalendarResponse{
		"461001": calendarFixture(),
	}}
	p := newTestPoller(t, h, fetcher, []config.WatchTarget{{Pincode: "461001"}})

	p.RunCycle(context.Background())
	h.d.Wait()
	p.RunCycle(context.Background())
	h.d.Wait()

	assert.Len(t, h.chat.sent(), 2, "overlapping poll results must not re-dispatch")
}

func TestRunCycle_FetchErrorSkipsCycle(t *testing.T) {
	h := newDispatchHarness(t)
	fetcher := &fakeFetcher{err: errors.New("connection refused")}
	p := newTestPoller(t, h, fetcher, []config.WatchTarget{{Pincode: "461001"}})

	p.RunCycle(context.Background())
	h.d.Wait()

	assert.Empty(t, h.chat.sent())
	assert.Empty(t, h.social.sent())
}

func TestRunCycle_DistrictTarget(t *testing.T) {
	h := newDispatchHarness(t)
	fetcher := &fakeFetcher{byDistrict: map[string]*cowin.CalendarResponse{
		"302": calendarFixture(),
	}}
	p := newTestPoller(t, h, fetcher, []config.WatchTarget{{DistrictID: "302"}})

	p.RunCycle(context.Background())
	h.d.Wait()

	assert.Len(t, h.chat.sent(), 2)
}

func TestRunCycle_TargetMinAgeOverride(t *testing.T) {
	h := newDispatchHarness(t)
	fetcher := &fakeFetcher{byPin: map[string]*cowin.CalendarResponse{
		"461001": calendarFixture(),
	}}
	p := newTestPoller(t, h, fetcher, []config.WatchTarget{{Pincode: "461001", MinAge: 45}})

	p.RunCycle(context.Background())
	h.d.Wait()

	// Only the 45+ session survives the override.
	require.Len(t, h.chat.sent(), 1)
	assert.Contains(t, h.chat.sent()[0].Body, "Covishield")
}
