package labfeed

import "time"

// LabUpdate is one result row from the remote lab feed. ID is the
// originating result's identifier, unique per result and stable across
// polls.
type LabUpdate struct {
	ID          string    `json:"id"`
	PatientName string    `json:"patient_name"`
	TestName    string    `json:"test_name"`
	Result      string    `json:"result"`
	Unit        string    `json:"unit,omitempty"`
	ResultDate  time.Time `json:"result_date"`
}

// Kind distinguishes a single-result alert from a rolled-up one.
type Kind string

const (
	KindSingle    Kind = "single"
	KindAggregate Kind = "aggregate"
)

// Notification is one alert surfaced to the doctor. An aggregate
// notification rolls several updates from the same poll into one message.
type Notification struct {
	ID        string      `json:"id"`
	Kind      Kind        `json:"kind"`
	Message   string      `json:"message"`
	Updates   []LabUpdate `json:"updates"`
	CreatedAt time.Time   `json:"created_at"`
}
