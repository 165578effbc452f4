package cowin

// CalendarResponse is the top-level body returned by the calendar endpoints.
type CalendarResponse struct {
	Centers []Center `json:"centers"`
}

// Center is one vaccination center with its offered sessions.
type Center struct {
	CenterID  int       `json:"center_id"`
	Name      string    `json:"name"`
	Pincode   Pincode   `json:"pincode"`
	BlockName string    `json:"block_name"`
	FeeType   string    `json:"fee_type"`
	Sessions  []Session `json:"sessions"`
}

// Session is one appointment slot offering at a center.
type Session struct {
	SessionID              string `json:"session_id"`
	Date                   string `json:"date"`
	MinAgeLimit            int    `json:"min_age_limit"`
	AvailableCapacity      int    `json:"available_capacity"`
	AvailableCapacityDose1 int    `json:"available_capacity_dose1"`
	AvailableCapacityDose2 int    `json:"available_capacity_dose2"`
	Vaccine                string `json:"vaccine"`
}
