package watch

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/slotwatch/slotwatch/internal/metrics"
	"github.com/slotwatch/slotwatch/internal/notify"
	"github.com/slotwatch/slotwatch/internal/storage"
)

// Delivery outcome values recorded in the dispatch log.
const (
	statusSent   = "sent"
	statusFailed = "failed"
)

// DispatcherConfig holds the per-channel dispatch rules.
type DispatcherConfig struct {
	// TweetCapacityThreshold is the minimum available capacity (exclusive)
	// for the social-post channel.
	TweetCapacityThreshold int
	// UnsubscribeBaseURL is the public base URL used to build per-recipient
	// unsubscribe links, e.g. "https://alerts.example.com".
	UnsubscribeBaseURL string
	// SendTimeout bounds each asynchronous delivery call. Defaults to 30s.
	SendTimeout time.Duration
}

// Dispatcher owns the dedupe ledger and fans eligible session records out to
// the notification channels. Each channel applies its own rule; ledger marks
// happen synchronously at dispatch-attempt time, deliveries run asynchronously
// and are fire and forget.
type Dispatcher struct {
	cfg    DispatcherConfig
	ledger *Ledger

	chat   notify.Provider // nil disables the channel
	social notify.Provider
	email  notify.Provider

	subs    storage.SubscriberStore
	stats   storage.StatsStore
	dlog    storage.DispatchLogStore
	metrics *metrics.Metrics
	logger  *slog.Logger

	wg sync.WaitGroup
}

// NewDispatcher creates a Dispatcher. Any of the providers may be nil to
// disable that channel.
func NewDispatcher(
	cfg DispatcherConfig,
	ledger *Ledger,
	chat, social, email notify.Provider,
	subs storage.SubscriberStore,
	stats storage.StatsStore,
	dlog storage.DispatchLogStore,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Dispatcher {
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 30 * time.Second
	}
	return &Dispatcher{
		cfg:     cfg,
		ledger:  ledger,
		chat:    chat,
		social:  social,
		email:   email,
		subs:    subs,
		stats:   stats,
		dlog:    dlog,
		metrics: m,
		logger:  logger,
	}
}

// Dispatch evaluates every record against each channel's rule and fires the
// eligible deliveries. day is the current calendar day (YYYY-MM-DD) in the
// watcher's timezone. tweetThreshold overrides the configured social-post
// capacity threshold when > 0.
//
// A delivery failure never rolls back a ledger mark and never affects the
// other channels; the worst case is a missed alert, never a duplicate.
func (d *Dispatcher) Dispatch(ctx context.Context, day string, records []SessionRecord, tweetThreshold int) {
	if tweetThreshold <= 0 {
		tweetThreshold = d.cfg.TweetCapacityThreshold
	}
	for _, rec := range records {
		fp := rec.Fingerprint()

		// Chat and email share one ledger: identical content is sent at
		// most once across both. The atomic check-and-mark makes exactly
		// one of any overlapping cycles the winner for a fingerprint.
		if d.ledger.MarkIfNew(day, fp) {
			d.recordStats(ctx, day, rec)

			if d.chat != nil {
				summary := fmt.Sprintf("%s %s %s", rec.Center, rec.Pincode, rec.Date)
				d.sendAsync(d.chat, fp, summary, notify.Message{Body: RenderChatAlert(rec)})
			}
			if d.email != nil {
				d.fanOutEmail(rec, fp)
			}
		}

		if d.social != nil &&
			rec.Capacity > tweetThreshold &&
			d.ledger.MarkPostedIfNew(day, rec.Pincode) {
			summary := fmt.Sprintf("pincode %s", rec.Pincode)
			d.sendAsync(d.social, fp, summary, notify.Message{Body: RenderTweet(rec)})
		}
	}
}

// Wait blocks until all in-flight deliveries have finished. Used on shutdown
// and by tests.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// sendAsync delivers msg on its own goroutine, then records the outcome in
// the dispatch log and metrics.
func (d *Dispatcher) sendAsync(p notify.Provider, fingerprint, summary string, msg notify.Message) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), d.cfg.SendTimeout)
		defer cancel()

		err := p.Send(ctx, msg)
		d.logOutcome(ctx, p.Name(), fingerprint, summary, err)
	}()
}

// fanOutEmail delivers the alert to every current subscriber with a
// personalized unsubscribe link. Per-recipient failures are logged and do not
// stop the fan-out.
func (d *Dispatcher) fanOutEmail(rec SessionRecord, fingerprint string) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		listCtx, cancel := context.WithTimeout(context.Background(), d.cfg.SendTimeout)
		subs, err := d.subs.List(listCtx)
		cancel()
		if err != nil {
			d.logger.Error("listing subscribers for email fan-out", "error", err)
			return
		}
		if len(subs) == 0 {
			return
		}

		subject := EmailSubject(rec)
		body := RenderChatAlert(rec)

		for _, sub := range subs {
			html, err := RenderEmailHTML(rec, d.unsubscribeURL(sub))
			if err != nil {
				d.logger.Error("rendering alert email", "email", sub.Email, "error", err)
				continue
			}
			// Each recipient gets its own delivery window so one slow
			// send cannot run out the clock for the rest of the list.
			sendCtx, cancel := context.WithTimeout(context.Background(), d.cfg.SendTimeout)
			sendErr := d.email.Send(sendCtx, notify.Message{
				Subject:  subject,
				Body:     body,
				HTMLBody: html,
				To:       []string{sub.Email},
			})
			d.logOutcome(sendCtx, d.email.Name(), fingerprint, "to "+sub.Email, sendErr)
			cancel()
		}
	}()
}

// unsubscribeURL builds the personalized unsubscribe link for a subscriber.
func (d *Dispatcher) unsubscribeURL(sub storage.Subscriber) string {
	q := url.Values{}
	q.Set("email", sub.Email)
	q.Set("hash", sub.Hash)
	return d.cfg.UnsubscribeBaseURL + "/unsubscribe?" + q.Encode()
}

// logOutcome records one delivery attempt in the dispatch log and metrics.
func (d *Dispatcher) logOutcome(ctx context.Context, channel, fingerprint, summary string, sendErr error) {
	status := statusSent
	entry := storage.DispatchLogEntry{
		Channel:     channel,
		Fingerprint: fingerprint,
		Summary:     summary,
		Status:      status,
		CreatedAt:   time.Now().UTC(),
	}
	if sendErr != nil {
		status = statusFailed
		entry.Status = statusFailed
		entry.ErrorMsg = sendErr.Error()
		d.logger.Error("alert delivery failed", "channel", channel, "error", sendErr)
	} else {
		d.logger.Info("alert delivered", "channel", channel, "summary", summary)
	}

	if d.metrics != nil {
		d.metrics.Dispatches.WithLabelValues(channel, status).Inc()
	}
	if d.dlog != nil {
		// The delivery may have consumed its whole timeout; the log write
		// must still go through.
		if err := d.dlog.LogDispatch(context.WithoutCancel(ctx), entry); err != nil {
			d.logger.Error("recording dispatch log", "channel", channel, "error", err)
		}
	}
}

// recordStats appends the dispatched record to the day's usage bucket.
// Failures are logged and abandoned, never retried.
func (d *Dispatcher) recordStats(ctx context.Context, day string, rec SessionRecord) {
	if d.stats == nil {
		return
	}
	err := d.stats.Append(ctx, day, storage.StatEntry{
		Pincode:     rec.Pincode,
		Center:      rec.Center,
		BlockName:   rec.BlockName,
		SessionDate: rec.Date,
		Capacity:    rec.Capacity,
		Dose1:       rec.Dose1,
		Dose2:       rec.Dose2,
		Vaccine:     rec.Vaccine,
		RecordedAt:  time.Now().UTC(),
	})
	if err != nil {
		d.logger.Error("recording stats entry", "pincode", rec.Pincode, "error", err)
	}
}
