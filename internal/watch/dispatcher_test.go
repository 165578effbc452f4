package watch_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slotwatch/slotwatch/internal/notify"
	"github.com/slotwatch/slotwatch/internal/storage"
	"github.com/slotwatch/slotwatch/internal/watch"
)

// --- fake provider ---

type fakeProvider struct {
	mu    sync.Mutex
	name  string
	err   error
	sends []notify.Message
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Send(_ context.Context, msg notify.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends = append(f.sends, msg)
	return f.err
}

func (f *fakeProvider) sent() []notify.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]notify.Message, len(f.sends))
	copy(out, f.sends)
	return out
}

// --- in-memory stores ---

type memSubscriberStore struct {
	mu   sync.Mutex
	subs []storage.Subscriber
}

func (m *memSubscriberStore) Upsert(_ context.Context, sub storage.Subscriber) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, s := range m.subs {
		if s.Email == sub.Email {
			m.subs[i] = sub
			return nil
		}
	}
	m.subs = append(m.subs, sub)
	return nil
}

func (m *memSubscriberStore) Get(_ context.Context, email string) (*storage.Subscriber, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.subs {
		if s.Email == email {
			sub := s
			return &sub, nil
		}
	}
	return nil, nil
}

func (m *memSubscriberStore) Delete(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, s := range m.subs {
		if s.Email == email {
			m.subs = append(m.subs[:i], m.subs[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *memSubscriberStore) List(_ context.Context) ([]storage.Subscriber, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]storage.Subscriber, len(m.subs))
	copy(out, m.subs)
	return out, nil
}

type memStatsStore struct {
	mu      sync.Mutex
	entries map[string][]storage.StatEntry
}

func newMemStatsStore() *memStatsStore {
	return &memStatsStore{entries: make(map[string][]storage.StatEntry)}
}

func (m *memStatsStore) Append(_ context.Context, day string, e storage.StatEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[day] = append(m.entries[day], e)
	return nil
}

func (m *memStatsStore) Day(_ context.Context, day string) (*storage.StatDay, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries, ok := m.entries[day]
	if !ok {
		return nil, nil
	}
	return &storage.StatDay{Day: day, Entries: entries}, nil
}

type memDispatchLog struct {
	mu      sync.Mutex
	entries []storage.DispatchLogEntry
}

func (m *memDispatchLog) LogDispatch(_ context.Context, e storage.DispatchLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

func (m *memDispatchLog) ListDispatches(_ context.Context, limit int) ([]storage.DispatchLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit > 0 && len(m.entries) > limit {
		return m.entries[:limit], nil
	}
	return m.entries, nil
}

// --- harness ---

type dispatchHarness struct {
	chat   *fakeProvider
	social *fakeProvider
	email  *fakeProvider
	subs   *memSubscriberStore
	stats  *memStatsStore
	dlog   *memDispatchLog
	d      *watch.Dispatcher
}

func newDispatchHarness(t *testing.T) *dispatchHarness {
	t.Helper()
	h := &dispatchHarness{
		chat:   &fakeProvider{name: "telegram"},
		social: &fakeProvider{name: "twitter"},
		email:  &fakeProvider{name: "smtp"},
		subs:   &memSubscriberStore{},
		stats:  newMemStatsStore(),
		dlog:   &memDispatchLog{},
	}
	h.d = watch.NewDispatcher(
		watch.DispatcherConfig{
			TweetCapacityThreshold: 50,
			UnsubscribeBaseURL:     "http://localhost:5000",
			SendTimeout:            5 * time.Second,
		},
		watch.NewLedger(),
		h.chat, h.social, h.email,
		h.subs, h.stats, h.dlog,
		nil, slog.Default(),
	)
	return h
}

const day = "2021-06-21"

func TestDispatch_AllChannelsOnce(t *testing.T) {
	h := newDispatchHarness(t)
	rec := sampleRecord() // capacity 60, above the 50 threshold

	h.d.Dispatch(context.Background(), day, []watch.SessionRecord{rec}, 0)
	h.d.Wait()

	require.Len(t, h.chat.sent(), 1)
	require.Len(t, h.social.sent(), 1)
	assert.Contains(t, h.chat.sent()[0].Body, "Civil Hospital")
	assert.Contains(t, h.social.sent()[0].Body, "#CovidVaccineIndia")

	// Stats recorded for the dispatched record.
	bucket, err := h.stats.Day(context.Background(), day)
	require.NoError(t, err)
	require.NotNil(t, bucket)
	require.Len(t, bucket.Entries, 1)
	assert.Equal(t, "461001", bucket.Entries[0].Pincode)

	// Running the identical cycle again produces zero further dispatches.
	h.d.Dispatch(context.Background(), day, []watch.SessionRecord{rec}, 0)
	h.d.Wait()
	assert.Len(t, h.chat.sent(), 1)
	assert.Len(t, h.social.sent(), 1)
}

func TestDispatch_BelowTweetThreshold(t *testing.T) {
	h := newDispatchHarness(t)
	rec := sampleRecord()
	rec.Capacity = 20

	h.d.Dispatch(context.Background(), day, []watch.SessionRecord{rec}, 0)
	h.d.Wait()

	assert.Len(t, h.chat.sent(), 1, "chat broadcast still dispatches")
	assert.Empty(t, h.social.sent(), "social post suppressed below threshold")
}

func TestDispatch_TweetThresholdOverride(t *testing.T) {
	h := newDispatchHarness(t)
	rec := sampleRecord()
	rec.Capacity = 20

	h.d.Dispatch(context.Background(), day, []watch.SessionRecord{rec}, 10)
	h.d.Wait()

	assert.Len(t, h.social.sent(), 1, "override lowers the threshold")
}

func TestDispatch_SocialOncePerPincodePerDay(t *testing.T) {
	h := newDispatchHarness(t)

	first := sampleRecord()
	second := sampleRecord()
	second.Center = "District Hospital"
	second.Capacity = 80
	third := sampleRecord()
	third.Pincode = "461002"
	third.Center = "Itarsi CHC"

	h.d.Dispatch(context.Background(), day, []watch.SessionRecord{first, second, third}, 0)
	h.d.Wait()

	// One post for 461001 (first and second share the pincode), one for 461002.
	assert.Len(t, h.social.sent(), 2)
	// Chat dedupes on content, not pincode: three distinct records, three sends.
	assert.Len(t, h.chat.sent(), 3)
}

func TestDispatch_EmailFanOutPersonalized(t *testing.T) {
	h := newDispatchHarness(t)
	ctx := context.Background()
	require.NoError(t, h.subs.Upsert(ctx, storage.Subscriber{Email: "a@example.com", Hash: "hash-a"}))
	require.NoError(t, h.subs.Upsert(ctx, storage.Subscriber{Email: "b@example.com", Hash: "hash-b"}))

	h.d.Dispatch(ctx, day, []watch.SessionRecord{sampleRecord()}, 0)
	h.d.Wait()

	sent := h.email.sent()
	require.Len(t, sent, 2)

	byRecipient := map[string]notify.Message{}
	for _, msg := range sent {
		require.Len(t, msg.To, 1)
		byRecipient[msg.To[0]] = msg
	}
	assert.Contains(t, byRecipient["a@example.com"].HTMLBody, "hash-a")
	assert.Contains(t, byRecipient["b@example.com"].HTMLBody, "hash-b")

	// Identical content is not re-emailed.
	h.d.Dispatch(ctx, day, []watch.SessionRecord{sampleRecord()}, 0)
	h.d.Wait()
	assert.Len(t, h.email.sent(), 2)
}

func TestDispatch_FailureDoesNotUnmark(t *testing.T) {
	h := newDispatchHarness(t)
	h.chat.err = errors.New("network down")

	rec := sampleRecord()
	h.d.Dispatch(context.Background(), day, []watch.SessionRecord{rec}, 0)
	h.d.Wait()

	require.Len(t, h.chat.sent(), 1)
	// Other channels unaffected by the chat failure.
	assert.Len(t, h.social.sent(), 1)

	// The failed delivery is not retried: the mark stands.
	h.d.Dispatch(context.Background(), day, []watch.SessionRecord{rec}, 0)
	h.d.Wait()
	assert.Len(t, h.chat.sent(), 1)

	// The failure is visible in the dispatch log.
	entries, err := h.dlog.ListDispatches(context.Background(), 0)
	require.NoError(t, err)
	var failed int
	for _, e := range entries {
		if e.Status == "failed" {
			failed++
			assert.Equal(t, "telegram", e.Channel)
		}
	}
	assert.Equal(t, 1, failed)
}

func TestDispatch_ConcurrentCyclesDeliverOnce(t *testing.T) {
	// Overlapping poll cycles see the same fresh record; exactly one may
	// dispatch it per channel.
	const rounds = 500
	for i := 0; i < rounds; i++ {
		h := newDispatchHarness(t)
		rec := sampleRecord()

		var wg sync.WaitGroup
		for g := 0; g < 4; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				h.d.Dispatch(context.Background(), day, []watch.SessionRecord{rec}, 0)
			}()
		}
		wg.Wait()
		h.d.Wait()

		require.Len(t, h.chat.sent(), 1, "round %d: chat dispatched more than once", i)
		require.Len(t, h.social.sent(), 1, "round %d: social dispatched more than once", i)

		bucket, err := h.stats.Day(context.Background(), day)
		require.NoError(t, err)
		require.NotNil(t, bucket)
		require.Len(t, bucket.Entries, 1, "round %d: stats row duplicated", i)
	}
}

// stallFirstEmailProvider consumes the entire context deadline on its first
// call and records the context state observed at the start of every call.
type stallFirstEmailProvider struct {
	mu       sync.Mutex
	calls    int
	ctxState []error
}

func (p *stallFirstEmailProvider) Name() string { return "smtp" }

func (p *stallFirstEmailProvider) Send(ctx context.Context, _ notify.Message) error {
	p.mu.Lock()
	first := p.calls == 0
	p.calls++
	p.ctxState = append(p.ctxState, ctx.Err())
	p.mu.Unlock()

	if first {
		<-ctx.Done()
		return ctx.Err()
	}
	return nil
}

func TestDispatch_EmailSlowRecipientDoesNotStarveRest(t *testing.T) {
	email := &stallFirstEmailProvider{}
	subs := &memSubscriberStore{}
	ctx := context.Background()
	require.NoError(t, subs.Upsert(ctx, storage.Subscriber{Email: "a@example.com", Hash: "hash-a"}))
	require.NoError(t, subs.Upsert(ctx, storage.Subscriber{Email: "b@example.com", Hash: "hash-b"}))

	d := watch.NewDispatcher(
		watch.DispatcherConfig{
			TweetCapacityThreshold: 50,
			UnsubscribeBaseURL:     "http://localhost:5000",
			SendTimeout:            30 * time.Millisecond,
		},
		watch.NewLedger(),
		nil, nil, email,
		subs, newMemStatsStore(), &memDispatchLog{},
		nil, slog.Default(),
	)

	d.Dispatch(ctx, day, []watch.SessionRecord{sampleRecord()}, 0)
	d.Wait()

	email.mu.Lock()
	defer email.mu.Unlock()
	require.Equal(t, 2, email.calls, "both recipients attempted")
	// The first send burned its whole delivery window; the second must still
	// start with a live context of its own.
	assert.NoError(t, email.ctxState[1])
}

func TestDispatch_DisabledChannels(t *testing.T) {
	stats := newMemStatsStore()
	d := watch.NewDispatcher(
		watch.DispatcherConfig{TweetCapacityThreshold: 50},
		watch.NewLedger(),
		nil, nil, nil,
		&memSubscriberStore{}, stats, &memDispatchLog{},
		nil, slog.Default(),
	)

	// No channels configured: dispatch is a no-op apart from bookkeeping.
	d.Dispatch(context.Background(), day, []watch.SessionRecord{sampleRecord()}, 0)
	d.Wait()

	bucket, err := stats.Day(context.Background(), day)
	require.NoError(t, err)
	require.NotNil(t, bucket)
	assert.Len(t, bucket.Entries, 1)
}
