package model

import "time"

// Appointment is a single concrete instance of a scheduled event, after
// recurrence expansion and timezone normalization.
type Appointment struct {
	SourceID string `json:"source_id"` // feed ID
	UID      string `json:"uid"`       // iCalendar UID

	// InstanceKey uniquely identifies one occurrence of a recurring event,
	// derived from its local start time.
	InstanceKey string `json:"instance_key"`

	Subject     string `json:"subject"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`

	AllDay bool `json:"all_day"`

	// IsBlock marks blocked time; cells it covers cannot be selected.
	IsBlock bool `json:"is_block,omitempty"`

	// ResourceIDs maps a resource level name to the IDs the appointment
	// belongs to.
	ResourceIDs map[string][]string `json:"resource_ids,omitempty"`

	// Start / End are in the display timezone. End is exclusive.
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// HasResource reports whether the appointment is assigned to id on level.
func (a Appointment) HasResource(level, id string) bool {
	for _, v := range a.ResourceIDs[level] {
		if v == id {
			return true
		}
	}
	return false
}
