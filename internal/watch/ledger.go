package watch

import "sync"

// Ledger tracks which alerts have already been dispatched. It holds two sets:
// a shared fingerprint set gating the chat and email channels, and a daily
// per-pincode set gating the social-post channel.
//
// Retention is explicit: both sets cover the current calendar day only. The
// first touch with a later day drops all prior entries, so memory stays
// bounded by one day's worth of alerts.
//
// All methods are safe for concurrent use; overlapping poll cycles may probe
// the ledger from different goroutines. The check-and-insert operations are
// single critical sections, so two concurrent cycles observing the same
// record can never both claim it.
type Ledger struct {
	mu     sync.Mutex
	day    string
	seen   map[string]struct{}
	posted map[string]struct{}
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		seen:   make(map[string]struct{}),
		posted: make(map[string]struct{}),
	}
}

// rollover resets both sets when the calendar day moves forward. Days compare
// lexicographically because of the YYYY-MM-DD layout. A cycle still draining
// with an earlier day string runs against the current sets instead of wiping
// them; the failure mode there is a suppressed alert, never a duplicate.
// Caller must hold mu.
func (l *Ledger) rollover(day string) {
	if day <= l.day {
		return
	}
	l.day = day
	l.seen = make(map[string]struct{})
	l.posted = make(map[string]struct{})
}

// MarkIfNew records the fingerprint for the given day and reports whether it
// was absent. Check and insert happen under one lock acquisition, so exactly
// one caller wins for any fingerprint.
func (l *Ledger) MarkIfNew(day, fingerprint string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rollover(day)
	if _, ok := l.seen[fingerprint]; ok {
		return false
	}
	l.seen[fingerprint] = struct{}{}
	return true
}

// Seen reports whether the fingerprint was already marked for the given day.
func (l *Ledger) Seen(day, fingerprint string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rollover(day)
	_, ok := l.seen[fingerprint]
	return ok
}

// MarkPostedIfNew records a social post for the pincode on the given day and
// reports whether none had been recorded yet. Atomic like MarkIfNew.
func (l *Ledger) MarkPostedIfNew(day, pincode string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rollover(day)
	if _, ok := l.posted[pincode]; ok {
		return false
	}
	l.posted[pincode] = struct{}{}
	return true
}

// PostedToday reports whether a social post was already made for the pincode
// on the given day.
func (l *Ledger) PostedToday(day, pincode string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rollover(day)
	_, ok := l.posted[pincode]
	return ok
}

// Size returns the number of tracked fingerprints. Used for logging.
func (l *Ledger) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.seen)
}
