package watch_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slotwatch/slotwatch/internal/cowin"
	"github.com/slotwatch/slotwatch/internal/watch"
)

func calendarFixture() *cowin.CalendarResponse {
	return &cowin.CalendarResponse{
		Centers: []cowin.Center{
			{
				Name:      "Civil Hospital",
				Pincode:   "461001",
				BlockName: "Hoshangabad",
				Sessions: []cowin.Session{
					{SessionID: "abc", Date: "21-06-2021", MinAgeLimit: 18, AvailableCapacity: 60, AvailableCapacityDose1: 60, Vaccine: "Covaxin"},
					{SessionID: "def", Date: "22-06-2021", MinAgeLimit: 45, AvailableCapacity: 30, Vaccine: "Covishield"},
					{SessionID: "ghi", Date: "23-06-2021", MinAgeLimit: 18, AvailableCapacity: 0, Vaccine: "Covaxin"},
				},
			},
			{
				Name:      "District Hospital",
				Pincode:   "461002",
				BlockName: "Itarsi",
				Sessions: []cowin.Session{
					{SessionID: "jkl", Date: "21-06-2021", MinAgeLimit: 18, AvailableCapacity: 5, AvailableCapacityDose1: 3, AvailableCapacityDose2: 2, Vaccine: "Covishield"},
				},
			},
		},
	}
}

func TestEligible_FiltersAndAnnotates(t *testing.T) {
	records := watch.Eligible(calendarFixture(), 18)

	require.Len(t, records, 2)

	// Provider order preserved: first center's surviving session first.
	assert.Equal(t, "abc", records[0].SessionID)
	assert.Equal(t, "Civil Hospital", records[0].Center)
	assert.Equal(t, "461001", records[0].Pincode)
	assert.Equal(t, "Hoshangabad", records[0].BlockName)
	assert.Equal(t, 60, records[0].Capacity)

	assert.Equal(t, "jkl", records[1].SessionID)
	assert.Equal(t, "District Hospital", records[1].Center)
	assert.Equal(t, "461002", records[1].Pincode)
	assert.Equal(t, "Itarsi", records[1].BlockName)
	assert.Equal(t, 3, records[1].Dose1)
	assert.Equal(t, 2, records[1].Dose2)
}

func TestEligible_ExcludesZeroCapacityAndOtherAges(t *testing.T) {
	records := watch.Eligible(calendarFixture(), 18)
	for _, r := range records {
		assert.Equal(t, 18, r.MinAge)
		assert.Greater(t, r.Capacity, 0)
	}
}

func TestEligible_OtherAgeBand(t *testing.T) {
	records := watch.Eligible(calendarFixture(), 45)
	require.Len(t, records, 1)
	assert.Equal(t, "def", records[0].SessionID)
}

func TestEligible_EmptyCalendar(t *testing.T) {
	records := watch.Eligible(&cowin.CalendarResponse{}, 18)
	assert.Empty(t, records)
}

func TestFingerprint_StableAcrossCapacityJitter(t *testing.T) {
	a := watch.SessionRecord{Pincode: "461001", Center: "Civil Hospital", Date: "21-06-2021", Vaccine: "Covaxin", Capacity: 60}
	b := a
	b.Capacity = 62 // same bucket of 10

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	c := a
	c.Capacity = 90
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())

	d := a
	d.Pincode = "461002"
	assert.NotEqual(t, a.Fingerprint(), d.Fingerprint())
}
