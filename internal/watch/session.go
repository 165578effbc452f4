// Package watch contains the alerting core: the eligibility filter over
// provider listings, the dedupe ledger, the channel dispatcher, and the
// poll loop that drives them.
package watch

import (
	"fmt"

	"github.com/slotwatch/slotwatch/internal/cowin"
)

// capacityBucketSize groups capacities for fingerprinting so that minor
// capacity jitter between polls does not re-trigger alerts.
const capacityBucketSize = 10

// SessionRecord is one eligible appointment slot, flattened with its parent
// center's identity. Records are built fresh every poll cycle and never
// mutated afterwards.
type SessionRecord struct {
	Center    string
	Pincode   string
	BlockName string
	Date      string
	MinAge    int
	Capacity  int
	Dose1     int
	Dose2     int
	Vaccine   string
	SessionID string
}

// Fingerprint returns the stable dedupe identity for this record. It is
// derived from session content rather than rendered message text, so template
// changes do not reset dedupe state.
func (r SessionRecord) Fingerprint() string {
	return fmt.Sprintf("%s|%s|%s|%s|%d",
		r.Pincode, r.Center, r.Date, r.Vaccine, r.Capacity/capacityBucketSize)
}

// Eligible flattens the calendar response into the ordered list of session
// records matching the alert criteria: exact minimum-age match and at least
// one available slot. Centers are visited in provider order and sessions keep
// their order within each center. No sorting, no deduplication.
func Eligible(cal *cowin.CalendarResponse, minAge int) []SessionRecord {
	var records []SessionRecord
	for _, center := range cal.Centers {
		for _, s := range center.Sessions {
			if s.MinAgeLimit != minAge || s.AvailableCapacity <= 0 {
				continue
			}
			records = append(records, SessionRecord{
				Center:    center.Name,
				Pincode:   center.Pincode.String(),
				BlockName: center.BlockName,
				Date:      s.Date,
				MinAge:    s.MinAgeLimit,
				Capacity:  s.AvailableCapacity,
				Dose1:     s.AvailableCapacityDose1,
				Dose2:     s.AvailableCapacityDose2,
				Vaccine:   s.Vaccine,
				SessionID: s.SessionID,
			})
		}
	}
	return records
}
