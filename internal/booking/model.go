package booking

// Booking is one person's assignment to one slot on one date. Times are
// wall-clock strings, never time.Time: the calendar has a single implicit
// local zone and the wire format is the canonical representation.
type Booking struct {
	ID        string `json:"id" bson:"_id"`
	Date      string `json:"date" bson:"date"`           // YYYY-MM-DD
	StartTime string `json:"startTime" bson:"startTime"` // HH:MM:SS
	EndTime   string `json:"endTime,omitempty" bson:"endTime,omitempty"`
	SlotIndex int    `json:"slotIndex" bson:"slotIndex"`
	Title     string `json:"title" bson:"title"`
	LectorID  string `json:"lectorId,omitempty" bson:"lectorId,omitempty"`
}

// Lector is a roster entry; bookings reference it by id to default their title.
type Lector struct {
	ID   string `json:"id" bson:"_id"`
	Name string `json:"name" bson:"name"`
}

// TemplateSlot is one recurring time-of-day in a weekday pattern.
// Repetitions is how many independent bookable slots share the time,
// e.g. two simultaneous readings at 18:00.
type TemplateSlot struct {
	TimeOfDay   string // HH:MM:SS
	Repetitions int
}

// SlotOption is one row of the allocator's output for a date: a concrete
// (time, slotIndex) pair with its occupancy. Never persisted, recomputed on
// every request.
type SlotOption struct {
	TimeOfDay string `json:"timeOfDay"`
	SlotIndex int    `json:"slotIndex"`
	Label     string `json:"label"`
	Occupied  bool   `json:"occupied"`
	BookingID string `json:"bookingId,omitempty"`
	Title     string `json:"title,omitempty"`
}

// SaveRequest is the inbound payload for creating or editing a booking.
// An empty ID means creation.
type SaveRequest struct {
	ID        string `json:"id"`
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	SlotIndex int    `json:"slotIndex"`
	Title     string `json:"title"`
	LectorID  string `json:"lectorId"`
}
